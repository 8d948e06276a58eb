package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/sirimal/internal/apperr"
)

func completionsStub(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestExtract_Success(t *testing.T) {
	var gotReq chatRequest
	srv := completionsStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(completionBody("## To-Do Tasks\n- finish report\n")))
	})

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	out, err := c.Extract(context.Background(), "note body")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(out, "finish report") {
		t.Errorf("out = %q", out)
	}

	if gotReq.MaxTokens != defaultMaxTokens {
		t.Errorf("max_tokens = %d, want %d", gotReq.MaxTokens, defaultMaxTokens)
	}
	if gotReq.Temperature != defaultTemperature {
		t.Errorf("temperature = %v, want %v", gotReq.Temperature, defaultTemperature)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
	if !strings.HasSuffix(gotReq.Messages[1].Content, "Note content:\nnote body") {
		t.Errorf("note text not appended verbatim: %q", gotReq.Messages[1].Content)
	}
}

func TestExtract_MissingKey(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.Extract(context.Background(), "x")
	if !errors.Is(err, apperr.ErrExtraction) {
		t.Errorf("err = %v, want ErrExtraction", err)
	}
}

func TestExtract_ClientErrorNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := completionsStub(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	})

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Extract(context.Background(), "x")
	if !errors.Is(err, apperr.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
	if !strings.Contains(err.Error(), "bad key") {
		t.Errorf("error should carry API message, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", calls.Load())
	}
}

func TestExtract_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := completionsStub(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(completionBody("## To-Do Tasks\n")))
	})

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	c.retryDelay = time.Millisecond
	out, err := c.Extract(context.Background(), "x")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out != "## To-Do Tasks" {
		t.Errorf("out = %q", out)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestExtract_EmptyChoices(t *testing.T) {
	srv := completionsStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	if _, err := c.Extract(context.Background(), "x"); !errors.Is(err, apperr.ErrExtraction) {
		t.Errorf("err = %v, want ErrExtraction", err)
	}
}

func TestExtract_ContextCancelledDuringBackoff(t *testing.T) {
	srv := completionsStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	c.retryDelay = 200 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Extract(ctx, "x"); !errors.Is(err, apperr.ErrExtraction) {
		t.Errorf("err = %v, want ErrExtraction", err)
	}
}

// Package extract calls a chat-completions endpoint to categorize note
// content into task sections.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/starford/sirimal/internal/apperr"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1/chat/completions"
	defaultModel       = "gpt-4o"
	defaultMaxTokens   = 600
	defaultTemperature = 0.2
	defaultTimeout     = 60 * time.Second
	maxRetries         = 3
	initialDelay       = time.Second
)

// Extractor turns raw note text into a three-section markdown response.
// Implementations are expected to be safe for concurrent use.
type Extractor interface {
	Extract(ctx context.Context, noteText string) (string, error)
}

// Config controls the chat-completions request shape.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client is an Extractor backed by an OpenAI-compatible chat endpoint.
type Client struct {
	cfg        Config
	client     *http.Client
	retryDelay time.Duration
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewClient creates a Client, filling zero-valued fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		client:     &http.Client{Timeout: cfg.Timeout},
		retryDelay: initialDelay,
	}
}

// Extract sends one synchronous request: fixed system instruction, fixed
// prompt template, note text appended verbatim. The note is never
// truncated here. Every failure mode (transport, timeout, auth, malformed
// response) comes back wrapped in apperr.ErrExtraction so callers can
// treat it as a non-fatal per-note failure.
func (c *Client) Extract(ctx context.Context, noteText string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("extract: no API key: %w", apperr.ErrExtraction)
	}

	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: extractionPrompt + "Note content:\n" + noteText},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("extract: marshal request: %w", apperr.ErrExtraction)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.retryDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("extract: %v: %w", ctx.Err(), apperr.ErrExtraction)
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("extract: build request: %w", apperr.ErrExtraction)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = err
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var ae apiError
			if json.Unmarshal(respBody, &ae) == nil && ae.Error.Message != "" {
				lastErr = fmt.Errorf("api error (%d): %s", resp.StatusCode, ae.Error.Message)
			} else {
				lastErr = fmt.Errorf("api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
			}
			// Retry only on rate limiting and server errors.
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return "", fmt.Errorf("extract: %v: %w", lastErr, apperr.ErrExtraction)
		}

		var cr chatResponse
		if err := json.Unmarshal(respBody, &cr); err != nil {
			return "", fmt.Errorf("extract: decode response: %w", apperr.ErrExtraction)
		}
		if len(cr.Choices) == 0 {
			return "", fmt.Errorf("extract: empty response: %w", apperr.ErrExtraction)
		}
		return strings.TrimSpace(cr.Choices[0].Message.Content), nil
	}

	return "", fmt.Errorf("extract: retries exhausted: %v: %w", lastErr, apperr.ErrExtraction)
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/sirimal/internal/models"
	"github.com/starford/sirimal/internal/pipeline"
	"github.com/starford/sirimal/internal/storage"
	"github.com/starford/sirimal/internal/summary"
	"github.com/starford/sirimal/internal/testutil"
)

// stubRunner returns a canned result without touching any vault.
type stubRunner struct {
	result *pipeline.Result
	err    error
	calls  int
}

func (s *stubRunner) Run(_ context.Context) (*pipeline.Result, error) {
	s.calls++
	return s.result, s.err
}

// testEnv sets up a temp vault, summary store, and router for testing.
// runner may be nil to exercise the not-configured path.
func testEnv(t *testing.T, runner Runner, authToken string) (string, storage.Provider, http.Handler) {
	t.Helper()

	vaultDir, store := testutil.TestVault(t)
	summaries := summary.NewStore(store, "Sirimal", "vault")

	jr := testutil.TestJournal(t)
	h := NewHandler(runner, jr, summaries, store, "vault", nil, 2)
	router := NewRouter(h, authToken != "", authToken, nil)
	return vaultDir, store, router
}

func TestTriggerRun(t *testing.T) {
	runner := &stubRunner{result: &pipeline.Result{
		Counts:       map[models.Section]int{models.SectionToDo: 3},
		NotesScanned: 2,
	}}
	_, _, router := testEnv(t, runner, "")

	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("trigger run = %d, body = %s", w.Code, w.Body.String())
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls)
	}

	var resp RunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Result.NotesScanned != 2 {
		t.Errorf("notes_scanned = %d, want 2", resp.Result.NotesScanned)
	}
	if resp.Result.Counts[models.SectionToDo] != 3 {
		t.Errorf("todo count = %d, want 3", resp.Result.Counts[models.SectionToDo])
	}
}

func TestTriggerRunWithoutExtractor(t *testing.T) {
	_, _, router := testEnv(t, nil, "")

	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusPreconditionFailed {
		t.Errorf("trigger run without extractor = %d, want 412", w.Code)
	}
}

func TestListRunsEmpty(t *testing.T) {
	_, _, router := testEnv(t, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list runs = %d", w.Code)
	}

	var resp RunListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Runs) != 0 {
		t.Errorf("len(runs) = %d, want 0", len(resp.Runs))
	}
}

func TestListSections(t *testing.T) {
	_, store, router := testEnv(t, nil, "")

	summaries := summary.NewStore(store, "Sirimal", "vault")
	if _, err := summaries.Write(models.SectionToDo, []models.TaskItem{
		{Text: "finish review", Source: "Daily/today.md"},
		{Text: "book flights"},
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sections", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list sections = %d, body = %s", w.Code, w.Body.String())
	}

	var resp SectionListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Sections) != 3 {
		t.Fatalf("len(sections) = %d, want 3", len(resp.Sections))
	}
	byName := map[string]SectionSummary{}
	for _, s := range resp.Sections {
		byName[s.Name] = s
	}
	todo, ok := byName[string(models.SectionToDo)]
	if !ok {
		t.Fatalf("missing section %q in %v", models.SectionToDo, resp.Sections)
	}
	if todo.ItemCount != 2 {
		t.Errorf("todo item_count = %d, want 2", todo.ItemCount)
	}
	if todo.Path != "Sirimal/To-Do_Tasks.md" {
		t.Errorf("todo path = %q", todo.Path)
	}
}

func TestGetSection(t *testing.T) {
	_, store, router := testEnv(t, nil, "")

	summaries := summary.NewStore(store, "Sirimal", "vault")
	if _, err := summaries.Write(models.SectionPapers, []models.TaskItem{
		{Text: "Attention Is All You Need", Source: "Research/reading.md"},
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sections/Papers%20to%20read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get section = %d, body = %s", w.Code, w.Body.String())
	}

	var resp SectionDetail
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Name != string(models.SectionPapers) {
		t.Errorf("name = %q", resp.Name)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(resp.Items))
	}
	if resp.Items[0].Source != "Research/reading.md" {
		t.Errorf("source = %q", resp.Items[0].Source)
	}
}

func TestGetSectionKeepsFileOrder(t *testing.T) {
	_, store, router := testEnv(t, nil, "")

	// Upper-case entries sort before lower-case ones at write time; the
	// response must mirror the file, casing included.
	summaries := summary.NewStore(store, "Sirimal", "vault")
	if _, err := summaries.Write(models.SectionToDo, []models.TaskItem{
		{Text: "Task B"},
		{Text: "task a"},
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sections/To-Do%20Tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get section = %d, body = %s", w.Code, w.Body.String())
	}

	var resp SectionDetail
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(resp.Items))
	}
	if resp.Items[0].Text != "Task B" || resp.Items[1].Text != "task a" {
		t.Errorf("items = %+v, want file order", resp.Items)
	}
}

func TestGetSectionUnknown(t *testing.T) {
	_, _, router := testEnv(t, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/sections/Shopping%20List", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown section = %d, want 404", w.Code)
	}
}

func TestGetSectionEmptyVault(t *testing.T) {
	_, _, router := testEnv(t, nil, "")

	// No summary file exists yet; the section still answers with no items.
	req := httptest.NewRequest(http.MethodGet, "/sections/To-Do%20Tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get empty section = %d", w.Code)
	}

	var resp SectionDetail
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("len(items) = %d, want 0", len(resp.Items))
	}
}

func TestRecentNotes(t *testing.T) {
	vaultDir, _, router := testEnv(t, nil, "")
	testutil.WriteNote(t, vaultDir, "Daily/today.md", "- [ ] something")

	req := httptest.NewRequest(http.MethodGet, "/notes/recent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("recent notes = %d, body = %s", w.Code, w.Body.String())
	}

	var resp RecentNotesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Notes) != 1 {
		t.Fatalf("len(notes) = %d, want 1", len(resp.Notes))
	}
	if resp.Notes[0].Path != "Daily/today.md" {
		t.Errorf("path = %q", resp.Notes[0].Path)
	}
	if resp.Notes[0].Link != "obsidian://open?vault=vault&file=Daily%2Ftoday.md" {
		t.Errorf("link = %q", resp.Notes[0].Link)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, _, router := testEnv(t, nil, "secret")

	// No token → 401.
	req := httptest.NewRequest(http.MethodGet, "/sections", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}

	// Wrong token → 401.
	req = httptest.NewRequest(http.MethodGet, "/sections", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}

	// Correct token → 200.
	req = httptest.NewRequest(http.MethodGet, "/sections", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("correct token = %d, want 200", w.Code)
	}
}

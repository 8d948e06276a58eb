// Package testutil provides shared test helpers for setting up vaults,
// journals, and canned extractors.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/sirimal/internal/apperr"
	"github.com/starford/sirimal/internal/history"
	"github.com/starford/sirimal/internal/storage"
)

// TestVault creates a temporary vault directory with a storage provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteNote writes a note file under the vault directory.
func WriteNote(t *testing.T, vaultDir, rel, content string) {
	t.Helper()
	abs := filepath.Join(vaultDir, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestJournal creates a temporary history database that is cleaned up
// automatically.
func TestJournal(t *testing.T) *history.DB {
	t.Helper()
	f, err := os.CreateTemp("", "sirimal-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := history.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// StubExtractor is a canned Extractor keyed by note text. Tests against
// the merge and parse logic always use canned responses so the
// deterministic pipeline is isolated from the non-deterministic model.
type StubExtractor struct {
	// Responses maps note text to the markdown the stub returns.
	Responses map[string]string
	// FailFor marks note texts whose extraction should fail.
	FailFor map[string]bool

	mu    sync.Mutex
	calls int
}

// Extract returns the canned response for the note text, an
// ErrExtraction-wrapped failure when marked, or empty markdown otherwise.
func (s *StubExtractor) Extract(_ context.Context, noteText string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.FailFor[noteText] {
		return "", fmt.Errorf("stub: canned failure: %w", apperr.ErrExtraction)
	}
	return s.Responses[noteText], nil
}

// Calls returns how many times Extract was invoked.
func (s *StubExtractor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

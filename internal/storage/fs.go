package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/sirimal/internal/apperr"
	"github.com/starford/sirimal/internal/models"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to vault directory
	now  func() time.Time
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist; anything else is ErrInvalidRoot.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", abs, apperr.ErrInvalidRoot)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory %s: %w", abs, apperr.ErrInvalidRoot)
	}
	return &FS{root: abs, now: time.Now}, nil
}

// safePath resolves a relative path against the vault root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root. Rel-based containment
	// also rejects siblings whose name shares the root as a prefix.
	back, err := filepath.Rel(f.root, abs)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes vault root: %s", rel)
	}
	return abs, nil
}

// ListRecent walks every allowed subfolder that exists and collects .md
// notes (extension matched case-insensitively) whose last activity is at
// or after now − windowDays·24h. Missing allowed folders are skipped.
// Returned paths are relative to the vault root; order is allow-list
// order then lexical walk order, stable enough for tests, though callers
// should treat the result as a set.
func (f *FS) ListRecent(allowed []string, windowDays int) ([]models.NoteMetadata, error) {
	cutoff := f.now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	dirs := allowed
	if len(dirs) == 0 {
		dirs = []string{""}
	}

	var out []models.NoteMetadata
	for _, dir := range dirs {
		base, err := f.safePath(dir)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(base)
		if err != nil || !info.IsDir() {
			continue
		}
		err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			active := lastActivity(fi)
			if active.Before(cutoff) {
				return nil
			}
			rel, _ := filepath.Rel(f.root, p)
			out = append(out, models.NoteMetadata{Path: rel, LastActive: active})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("storage: list recent: %w", err)
		}
	}
	return out, nil
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: %s: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sirimal-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

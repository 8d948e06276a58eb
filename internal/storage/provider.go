// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/sirimal/internal/models"

// Provider is the interface for vault file operations.
type Provider interface {
	// ListRecent walks the allowed subfolders (relative to vault root) and
	// returns metadata for every .md note whose last activity falls inside
	// the trailing window of windowDays days. An empty allow-list scans the
	// whole vault. The traversal is read-only.
	ListRecent(allowed []string, windowDays int) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root),
	// creating parent directories as needed.
	Write(path string, content []byte) error
}

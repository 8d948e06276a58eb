// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrInvalidRoot means the vault root is missing or not a directory.
	// Fatal: no partial processing happens after it.
	ErrInvalidRoot = errors.New("invalid vault root")

	// ErrExtraction means a single note's extraction call failed.
	// Non-fatal: the note contributes nothing and the run continues.
	ErrExtraction = errors.New("extraction failed")

	// ErrNotFound is returned for unknown sections and missing resources.
	ErrNotFound = errors.New("not found")
)

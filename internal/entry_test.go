package internal

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/sirimal/internal/apperr"
)

func missingVaultConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(t.TempDir(), "no-such-vault")
	cfg.History.Path = ""
	return cfg
}

func TestBuildMissingVaultRoot(t *testing.T) {
	cfg := missingVaultConfig(t)

	_, err := build(cfg, nil, slog.Default())
	if !errors.Is(err, apperr.ErrInvalidRoot) {
		t.Fatalf("build err = %v, want ErrInvalidRoot", err)
	}
	// The misspelled path must not appear as a side effect.
	if _, statErr := os.Stat(cfg.Vault.Path); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("vault path was created: stat err = %v", statErr)
	}
}

func TestRunOnceMissingVaultRoot(t *testing.T) {
	cfg := missingVaultConfig(t)

	err := RunOnce(context.Background(), WithConfig(cfg))
	if !errors.Is(err, apperr.ErrInvalidRoot) {
		t.Fatalf("RunOnce err = %v, want ErrInvalidRoot", err)
	}
}

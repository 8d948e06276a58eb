package pipeline

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch runs the pipeline whenever notes in the allowed folders change,
// debounced so a burst of edits triggers a single run. It blocks until
// ctx is cancelled. Summary files written by the pipeline itself live
// outside the allowed folders and therefore never re-trigger a run.
func Watch(ctx context.Context, p *Pipeline, vaultRoot string, debounce time.Duration, logger *slog.Logger) error {
	if debounce <= 0 {
		debounce = 30 * time.Second
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	roots := p.opts.AllowedFolders
	if len(roots) == 0 {
		roots = []string{""}
	}
	for _, dir := range roots {
		abs := filepath.Join(vaultRoot, dir)
		if info, statErr := os.Stat(abs); statErr != nil || !info.IsDir() {
			continue
		}
		if err := addDirsRecursive(w, abs); err != nil {
			return err
		}
	}

	logger.Info("watcher: started",
		slog.String("root", vaultRoot),
		slog.Duration("debounce", debounce))

	var runTimer *time.Timer
	var runCh <-chan time.Time

	scheduleRun := func() {
		if runTimer == nil {
			runTimer = time.NewTimer(debounce)
			runCh = runTimer.C
		} else {
			runTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if runTimer != nil {
				runTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-runCh:
			if _, err := p.Run(ctx); err != nil {
				logger.Error("watcher: run failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// New directories join the watch list.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			if !strings.EqualFold(filepath.Ext(ev.Name), ".md") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			logger.Debug("watcher: note changed", slog.String("path", ev.Name))
			scheduleRun()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

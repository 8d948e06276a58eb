// Package pipeline composes the recency scan, extraction, parsing, and
// summary merge into a single run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/sirimal/internal/checksum"
	"github.com/starford/sirimal/internal/extract"
	"github.com/starford/sirimal/internal/history"
	"github.com/starford/sirimal/internal/models"
	"github.com/starford/sirimal/internal/parser"
	"github.com/starford/sirimal/internal/sse"
	"github.com/starford/sirimal/internal/storage"
	"github.com/starford/sirimal/internal/summary"
)

// Publisher is the slice of the SSE broker the pipeline needs.
type Publisher interface {
	Publish(event sse.Event)
}

// Options configures a Pipeline.
type Options struct {
	AllowedFolders []string
	WindowDays     int
	Concurrency    int

	// Journal enables run journaling and the extraction cache; nil
	// disables both.
	Journal history.Journal
	// Events receives progress events; nil disables publishing.
	Events Publisher

	Logger *slog.Logger
}

// Result summarizes one completed run.
type Result struct {
	Counts map[models.Section]int `json:"counts"`

	NotesScanned   int           `json:"notes_scanned"`
	NotesExtracted int           `json:"notes_extracted"`
	NotesFailed    int           `json:"notes_failed"`
	NotesSkipped   int           `json:"notes_skipped"`
	Duration       time.Duration `json:"-"`
}

// Pipeline is the stateless orchestrator. All persistence lives in the
// summary files and the optional journal; concurrent Run calls on the
// same instance are serialized so two runs never interleave writes to
// the same backing files.
type Pipeline struct {
	store     storage.Provider
	summaries *summary.Store
	extractor extract.Extractor
	opts      Options
	logger    *slog.Logger

	runMu sync.Mutex
}

// New creates a Pipeline.
func New(store storage.Provider, summaries *summary.Store, extractor extract.Extractor, opts Options) *Pipeline {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 2
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:     store,
		summaries: summaries,
		extractor: extractor,
		opts:      opts,
		logger:    logger,
	}
}

// contribution is the parsed output of one successful note extraction.
type contribution struct {
	path     string
	checksum string
	items    map[models.Section][]models.TaskItem
}

// Run executes one full pipeline pass: scan recent notes, extract and
// parse each one, then merge every section with its persisted summary
// and rewrite it. A single note's extraction failure is logged, counted,
// and skipped; it never aborts the run. The merge starts only after
// every extraction attempt resolved.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	start := time.Now()

	metas, err := p.store.ListRecent(p.opts.AllowedFolders, p.opts.WindowDays)
	if err != nil {
		return nil, fmt.Errorf("pipeline: scan: %w", err)
	}

	res := &Result{
		Counts:       make(map[models.Section]int, 3),
		NotesScanned: len(metas),
	}
	p.publish(sse.EventRunStarted, map[string]any{"notes_scanned": len(metas)})

	var (
		mu       sync.Mutex
		contribs []contribution
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for _, meta := range metas {
		g.Go(func() error {
			c, status := p.processNote(gctx, meta.Path)
			mu.Lock()
			defer mu.Unlock()
			switch status {
			case noteExtracted:
				res.NotesExtracted++
				contribs = append(contribs, *c)
			case noteSkipped:
				res.NotesSkipped++
			case noteFailed:
				res.NotesFailed++
			}
			// Per-note failures are isolated; never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	fresh := make(map[models.Section][]models.TaskItem, 3)
	for _, c := range contribs {
		for section, items := range c.items {
			fresh[section] = append(fresh[section], items...)
		}
	}

	for _, section := range models.Sections() {
		existing, err := p.summaries.Read(section)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		merged := summary.Merge(existing, fresh[section])
		if _, err := p.summaries.Write(section, merged); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		res.Counts[section] = len(merged)
	}

	if p.opts.Journal != nil {
		now := time.Now()
		for _, c := range contribs {
			if err := p.opts.Journal.MarkExtracted(c.path, c.checksum, now); err != nil {
				p.logger.Warn("journal: mark extracted failed",
					slog.String("path", c.path), slog.String("error", err.Error()))
			}
		}
		if _, err := p.opts.Journal.RecordRun(history.RunRecord{
			StartedAt:      start,
			FinishedAt:     now,
			NotesScanned:   res.NotesScanned,
			NotesExtracted: res.NotesExtracted,
			NotesFailed:    res.NotesFailed,
			NotesSkipped:   res.NotesSkipped,
			Counts:         res.Counts,
		}); err != nil {
			p.logger.Warn("journal: record run failed", slog.String("error", err.Error()))
		}
	}

	res.Duration = time.Since(start)
	p.publish(sse.EventRunCompleted, map[string]any{
		"notes_scanned":   res.NotesScanned,
		"notes_extracted": res.NotesExtracted,
		"notes_failed":    res.NotesFailed,
		"notes_skipped":   res.NotesSkipped,
		"counts":          res.Counts,
	})

	p.logger.Info("pipeline: run completed",
		slog.Int("notes_scanned", res.NotesScanned),
		slog.Int("notes_extracted", res.NotesExtracted),
		slog.Int("notes_failed", res.NotesFailed),
		slog.Int("notes_skipped", res.NotesSkipped),
		slog.Duration("duration", res.Duration))

	return res, nil
}

type noteStatus int

const (
	noteExtracted noteStatus = iota
	noteSkipped
	noteFailed
)

// processNote reads, caches-checks, extracts, and parses one note.
func (p *Pipeline) processNote(ctx context.Context, path string) (*contribution, noteStatus) {
	data, err := p.store.Read(path)
	if err != nil {
		p.logger.Warn("pipeline: read note failed",
			slog.String("path", path), slog.String("error", err.Error()))
		p.publish(sse.EventNoteFailed, map[string]string{"path": path, "error": err.Error()})
		return nil, noteFailed
	}

	sum := checksum.Sum(data)
	if p.opts.Journal != nil {
		if prev, err := p.opts.Journal.LastChecksum(path); err == nil && prev == sum {
			p.logger.Debug("pipeline: note unchanged, skipping extraction", slog.String("path", path))
			return nil, noteSkipped
		}
	}

	markdown, err := p.extractor.Extract(ctx, string(data))
	if err != nil {
		p.logger.Warn("pipeline: extraction failed",
			slog.String("path", path), slog.String("error", err.Error()))
		p.publish(sse.EventNoteFailed, map[string]string{"path": path, "error": err.Error()})
		return nil, noteFailed
	}

	c := &contribution{
		path:     path,
		checksum: sum,
		items:    make(map[models.Section][]models.TaskItem, 3),
	}
	total := 0
	for _, section := range models.Sections() {
		// An absent heading is a normal zero-item result.
		for _, text := range parser.Section(markdown, string(section)) {
			c.items[section] = append(c.items[section], models.TaskItem{Text: text, Source: path})
			total++
		}
	}

	p.logger.Debug("pipeline: note extracted",
		slog.String("path", path), slog.Int("items", total))
	p.publish(sse.EventNoteExtracted, map[string]any{"path": path, "items": total})
	return c, noteExtracted
}

func (p *Pipeline) publish(eventType string, data any) {
	if p.opts.Events == nil {
		return
	}
	p.opts.Events.Publish(sse.Event{Type: eventType, Data: data})
}

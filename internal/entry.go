// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/sirimal/internal/api"
	"github.com/starford/sirimal/internal/extract"
	"github.com/starford/sirimal/internal/history"
	"github.com/starford/sirimal/internal/mcpserver"
	"github.com/starford/sirimal/internal/pipeline"
	"github.com/starford/sirimal/internal/sse"
	"github.com/starford/sirimal/internal/storage"
	"github.com/starford/sirimal/internal/summary"
)

// components holds everything the entry points share: the vault storage,
// summary store, optional journal, and the pipeline when extraction is
// configured.
type components struct {
	store     *storage.FS
	summaries *summary.Store
	journal   *history.DB // nil when disabled
	pipe      *pipeline.Pipeline
	logger    *slog.Logger
}

func (c *components) close() {
	if c.journal != nil {
		_ = c.journal.Close()
	}
}

// runner returns the pipeline as an api.Runner, keeping the typed-nil
// pitfall out of the handlers.
func (c *components) runner() api.Runner {
	if c.pipe == nil {
		return nil
	}
	return c.pipe
}

func (c *components) mcpRunner() mcpserver.Runner {
	if c.pipe == nil {
		return nil
	}
	return c.pipe
}

// build wires the application components from config. events may be nil
// (one-shot and MCP modes have no SSE consumers).
func build(cfg *Config, events pipeline.Publisher, logger *slog.Logger) (*components, error) {
	// The vault must already exist: a misspelled path has to fail loudly
	// instead of scanning a freshly created empty directory. The summary
	// subfolder is the only thing we create, on first write.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	summaries := summary.NewStore(store, cfg.Vault.SummaryFolder, cfg.Vault.Name)

	var journal *history.DB
	if cfg.History.Enabled() {
		journal, err = history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("init history: %w", err)
		}
	}

	c := &components{
		store:     store,
		summaries: summaries,
		journal:   journal,
		logger:    logger,
	}

	// The API key comes from the environment only, never the config file.
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, extraction disabled")
		return c, nil
	}

	extractor := extract.NewClient(extract.Config{
		APIKey:      apiKey,
		BaseURL:     cfg.Extract.BaseURL,
		Model:       cfg.Extract.Model,
		MaxTokens:   cfg.Extract.MaxTokens,
		Temperature: cfg.Extract.Temperature,
		Timeout:     cfg.Extract.Timeout(),
	})

	var jr history.Journal
	if journal != nil {
		jr = journal
	}
	c.pipe = pipeline.New(store, summaries, extractor, pipeline.Options{
		AllowedFolders: cfg.Vault.AllowedFolders,
		WindowDays:     cfg.Extract.WindowDays,
		Concurrency:    cfg.Extract.Concurrency,
		Journal:        jr,
		Events:         events,
		Logger:         logger,
	})
	return c, nil
}

func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("summary_folder", cfg.Vault.SummaryFolder),
		slog.Int("window_days", cfg.Extract.WindowDays),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	c, err := build(cfg, broker, logger)
	if err != nil {
		return err
	}
	defer c.close()

	// Build API handlers and router.
	var jr history.Journal
	if c.journal != nil {
		jr = c.journal
	}
	h := api.NewHandler(c.runner(), jr, c.summaries, c.store, cfg.Vault.Name, cfg.Vault.AllowedFolders, cfg.Extract.WindowDays)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start the vault watcher when enabled and extraction is configured.
	if cfg.Watch.Enabled && c.pipe != nil {
		g.Go(func() error {
			return pipeline.Watch(gCtx, c.pipe, cfg.Vault.Path, cfg.Watch.Debounce(), logger)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunOnce executes a single pipeline pass and exits. Unlike the server
// mode a missing API key is a hard error here: a one-shot run that
// cannot extract has nothing to do.
func RunOnce(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg)

	c, err := build(cfg, nil, logger)
	if err != nil {
		return err
	}
	defer c.close()

	if c.pipe == nil {
		return fmt.Errorf("extraction is not configured: OPENAI_API_KEY is not set")
	}

	result, err := c.pipe.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	logger.Info("Run finished",
		slog.Int("notes_scanned", result.NotesScanned),
		slog.Int("notes_extracted", result.NotesExtracted),
		slog.Int("notes_failed", result.NotesFailed),
		slog.Int("notes_skipped", result.NotesSkipped),
		slog.Duration("duration", result.Duration))
	return nil
}

// RunMCP starts the MCP server on stdin/stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Logs go to stderr: stdout belongs to the MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	c, err := build(cfg, nil, logger)
	if err != nil {
		return err
	}
	defer c.close()

	srv := mcpserver.New(c.store, c.summaries, c.mcpRunner(), cfg.Vault.AllowedFolders, cfg.Extract.WindowDays)
	logger.Info("Starting MCP server on stdio")
	return srv.ServeStdio()
}

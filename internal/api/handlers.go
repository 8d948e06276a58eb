package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sirimal/internal/history"
	"github.com/starford/sirimal/internal/models"
	"github.com/starford/sirimal/internal/pipeline"
	"github.com/starford/sirimal/internal/storage"
	"github.com/starford/sirimal/internal/summary"
)

// Runner triggers a pipeline run. It is satisfied by *pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Handler holds API route handlers.
type Handler struct {
	runner    Runner          // nil when extraction is not configured
	journal   history.Journal // nil when journaling is disabled
	summaries *summary.Store
	store     storage.Provider

	vaultName      string
	allowedFolders []string
	windowDays     int
}

// NewHandler creates a new Handler. runner may be nil: POST /runs then
// answers 412 until an extraction API key is supplied. journal may be
// nil: GET /runs then answers with an empty history.
func NewHandler(runner Runner, journal history.Journal, summaries *summary.Store, store storage.Provider, vaultName string, allowedFolders []string, windowDays int) *Handler {
	return &Handler{
		runner:         runner,
		journal:        journal,
		summaries:      summaries,
		store:          store,
		vaultName:      vaultName,
		allowedFolders: allowedFolders,
		windowDays:     windowDays,
	}
}

// sectionName extracts and decodes the section name from the URL.
// Supports encoded spaces from OpenAPI clients (e.g. To-Do%20Tasks).
func sectionName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// TriggerRun handles POST /api/runs.
//
//	@Summary		Run the extraction pipeline once
//	@Tags			runs
//	@Produce		json
//	@Success		200	{object}	RunResponse
//	@Failure		412	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs [post]
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeJSON(w, http.StatusPreconditionFailed, errorBody("extraction is not configured: OPENAI_API_KEY is not set"))
		return
	}
	result, err := h.runner.Run(r.Context())
	if err != nil {
		slog.Error("pipeline run failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Result: result})
}

// ListRuns handles GET /api/runs.
//
//	@Summary		List recorded pipeline runs, newest first
//	@Tags			runs
//	@Produce		json
//	@Param			limit	query		int	false	"Max runs to return"
//	@Success		200		{object}	RunListResponse
//	@Security		BearerAuth
//	@Router			/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}

	runs := []history.RunRecord{}
	if h.journal != nil {
		var err error
		runs, err = h.journal.ListRuns(limit)
		if err != nil {
			slog.Error("list runs failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs})
}

// ListSections handles GET /api/sections.
//
//	@Summary		List summary sections with item counts
//	@Tags			sections
//	@Produce		json
//	@Success		200	{object}	SectionListResponse
//	@Security		BearerAuth
//	@Router			/sections [get]
func (h *Handler) ListSections(w http.ResponseWriter, r *http.Request) {
	sections := make([]SectionSummary, 0, len(models.Sections()))
	for _, s := range models.Sections() {
		items, err := h.summaries.Read(s)
		if err != nil {
			slog.Error("read section failed", slog.String("section", string(s)), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		sections = append(sections, SectionSummary{
			Name:      string(s),
			Path:      h.summaries.Path(s),
			ItemCount: len(items),
		})
	}
	writeJSON(w, http.StatusOK, SectionListResponse{Sections: sections})
}

// GetSection handles GET /api/sections/{name}.
//
//	@Summary		Get one section's items in stored order
//	@Tags			sections
//	@Produce		json
//	@Param			name	path		string	true	"Section name"
//	@Success		200		{object}	SectionDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sections/{name} [get]
func (h *Handler) GetSection(w http.ResponseWriter, r *http.Request) {
	name := sectionName(r)
	section, ok := models.ParseSectionName(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("unknown section"))
		return
	}
	stored, err := h.summaries.Items(section)
	if err != nil {
		slog.Error("read section failed", slog.String("section", string(section)), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	items := make([]SectionItem, 0, len(stored))
	for _, it := range stored {
		items = append(items, SectionItem{Text: it.Text, Source: it.Source})
	}
	writeJSON(w, http.StatusOK, SectionDetail{
		Name:  string(section),
		Path:  h.summaries.Path(section),
		Items: items,
	})
}

// RecentNotes handles GET /api/notes/recent.
//
//	@Summary		List notes inside the activity window
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	RecentNotesResponse
//	@Security		BearerAuth
//	@Router			/notes/recent [get]
func (h *Handler) RecentNotes(w http.ResponseWriter, r *http.Request) {
	metas, err := h.store.ListRecent(h.allowedFolders, h.windowDays)
	if err != nil {
		slog.Error("list recent notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	notes := make([]RecentNote, 0, len(metas))
	for _, m := range metas {
		notes = append(notes, RecentNote{
			Path:       m.Path,
			Link:       models.DeepLink(h.vaultName, m.Path),
			LastActive: m.LastActive,
		})
	}
	writeJSON(w, http.StatusOK, RecentNotesResponse{Notes: notes})
}

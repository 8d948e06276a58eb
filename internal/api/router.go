package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Pipeline runs.
	r.Post("/runs", h.TriggerRun)
	r.Get("/runs", h.ListRuns)

	// Section summaries.
	r.Get("/sections", h.ListSections)
	r.Get("/sections/{name}", h.GetSection)

	// Recent notes (the scanner's view of the vault).
	r.Get("/notes/recent", h.RecentNotes)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

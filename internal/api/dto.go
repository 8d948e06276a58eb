package api

import (
	"time"

	"github.com/starford/sirimal/internal/history"
	"github.com/starford/sirimal/internal/pipeline"
)

// RunResponse wraps the result of a completed pipeline run.
type RunResponse struct {
	Result *pipeline.Result `json:"result" validate:"required"`
}

// RunListResponse wraps the run journal history.
type RunListResponse struct {
	Runs []history.RunRecord `json:"runs" validate:"required"`
}

// SectionSummary is a lightweight section listing entry.
type SectionSummary struct {
	Name      string `json:"name" example:"To-Do Tasks" validate:"required"`
	Path      string `json:"path" example:"Sirimal/To-Do_Tasks.md" validate:"required"`
	ItemCount int    `json:"item_count" example:"7" validate:"required"`
}

// SectionListResponse wraps the section listing.
type SectionListResponse struct {
	Sections []SectionSummary `json:"sections" validate:"required"`
}

// SectionItem is a single summarized item in a section detail response.
type SectionItem struct {
	Text   string `json:"text" example:"Email Dr. Smith about the draft" validate:"required"`
	Source string `json:"source,omitempty" example:"Daily/2026-08-29.md"`
}

// SectionDetail is the full section detail response.
type SectionDetail struct {
	Name  string        `json:"name" example:"To-Do Tasks" validate:"required"`
	Path  string        `json:"path" example:"Sirimal/To-Do_Tasks.md" validate:"required"`
	Items []SectionItem `json:"items" validate:"required"`
}

// RecentNote is a scanner hit in the recent notes response.
type RecentNote struct {
	Path       string    `json:"path" example:"Daily/2026-08-29.md" validate:"required"`
	Link       string    `json:"link" example:"obsidian://open?vault=MyVault&file=Daily%2F2026-08-29.md" validate:"required"`
	LastActive time.Time `json:"last_active" validate:"required"`
}

// RecentNotesResponse wraps the recent notes listing.
type RecentNotesResponse struct {
	Notes []RecentNote `json:"notes" validate:"required"`
}

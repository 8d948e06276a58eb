// Package models defines the domain types for Sirimal.
package models

import (
	"net/url"
	"strings"
	"time"
)

// Section is one of the three fixed task categories. The set is closed;
// there are no dynamic categories.
type Section string

const (
	SectionToDo     Section = "To-Do Tasks"
	SectionFollowUp Section = "Important things to follow up"
	SectionPapers   Section = "Papers to read"
)

// Sections returns the fixed categories in their canonical order.
func Sections() []Section {
	return []Section{SectionToDo, SectionFollowUp, SectionPapers}
}

// ParseSectionName matches a section name case-insensitively.
func ParseSectionName(name string) (Section, bool) {
	for _, s := range Sections() {
		if strings.EqualFold(name, string(s)) {
			return s, true
		}
	}
	return "", false
}

// Filename returns the backing file name for a section: spaces replaced
// with underscores plus a .md extension.
func (s Section) Filename() string {
	return strings.ReplaceAll(string(s), " ", "_") + ".md"
}

// TaskItem is one extracted entry: free-form text plus the note it came
// from. Source is empty when provenance is unknown (e.g. a plain bullet
// loaded from a hand-edited summary file).
type TaskItem struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// ItemKey is the deduplication identity of a TaskItem: normalized
// (trimmed, lower-cased) text combined with the source. Two items with
// equal normalized text but different sources are distinct.
type ItemKey struct {
	Text   string
	Source string
}

// Key returns the deduplication key for the item.
func (t TaskItem) Key() ItemKey {
	return ItemKey{Text: NormalizeText(t.Text), Source: t.Source}
}

// NormalizeText trims and lower-cases text for dedup comparison.
func NormalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// NoteMetadata describes one note file discovered by a vault scan.
type NoteMetadata struct {
	Path       string    `json:"path"`
	LastActive time.Time `json:"last_active"`
}

// DeepLink builds an obsidian:// URI that opens noteRef inside the named
// vault. Both parameters are percent-encoded as query components, so
// ParseDeepLink round-trips exactly.
func DeepLink(vaultName, noteRef string) string {
	return "obsidian://open?vault=" + url.QueryEscape(vaultName) + "&file=" + url.QueryEscape(noteRef)
}

// ParseDeepLink extracts the note reference from a deep-link URI.
// Returns ok=false for anything that is not a well-formed obsidian open
// link carrying a file parameter.
func ParseDeepLink(uri string) (noteRef string, ok bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "obsidian" || u.Host != "open" {
		return "", false
	}
	ref := u.Query().Get("file")
	if ref == "" {
		return "", false
	}
	return ref, true
}

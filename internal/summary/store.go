// Package summary persists the per-section task lists as markdown bullet
// files and implements the idempotent merge between runs.
package summary

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/starford/sirimal/internal/models"
	"github.com/starford/sirimal/internal/storage"
)

// linkGlyph is the marker that separates display text from the embedded
// deep-link in a sourced bullet.
const linkGlyph = "🔗"

// Store reads and writes one markdown file per section under a fixed
// subfolder of the vault.
type Store struct {
	store storage.Provider
	dir   string // summary subfolder name, relative to vault root
	vault string // vault name used in deep-links
}

// NewStore creates a summary store writing under dir inside the vault.
func NewStore(p storage.Provider, dir, vaultName string) *Store {
	return &Store{store: p, dir: dir, vault: vaultName}
}

// Path returns the backing file path for a section, relative to the
// vault root.
func (s *Store) Path(section models.Section) string {
	return path.Join(s.dir, section.Filename())
}

// Read loads the persisted set for a section, keyed for deduplication.
// This is the single normalization point: every returned item carries
// trimmed, lower-cased text. A missing file is an empty set. Lines that
// are not bullets (headings, prose, blanks) are skipped, which tolerates
// manually edited summary files.
func (s *Store) Read(section models.Section) (map[models.ItemKey]models.TaskItem, error) {
	out := make(map[models.ItemKey]models.TaskItem)

	data, err := s.store.Read(s.Path(section))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("summary: read %s: %w", section, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		item, ok := parseBullet(line[2:])
		if !ok {
			continue
		}
		item.Text = models.NormalizeText(item.Text)
		if item.Text == "" {
			continue
		}
		out[item.Key()] = item
	}
	return out, nil
}

// Items returns the section's bullets in file order with their original
// display text. Read is the deduplicating merge view; this is the
// presentation view, so no normalization happens here.
func (s *Store) Items(section models.Section) ([]models.TaskItem, error) {
	data, err := s.store.Read(s.Path(section))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("summary: read %s: %w", section, err)
	}

	var out []models.TaskItem
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		item, ok := parseBullet(line[2:])
		if !ok {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// parseBullet splits a bullet body into display text and, when the
// expected "[🔗](uri)" suffix is present and decodable, its source.
// A bullet with a malformed link part is kept as plain text.
func parseBullet(body string) (models.TaskItem, bool) {
	marker := " [" + linkGlyph + "]("
	idx := strings.LastIndex(body, marker)
	if idx < 0 {
		text := strings.TrimSpace(body)
		return models.TaskItem{Text: text}, text != ""
	}

	text := strings.TrimSpace(body[:idx])
	rest := body[idx+len(marker):]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return models.TaskItem{Text: strings.TrimSpace(body)}, true
	}
	ref, ok := models.ParseDeepLink(rest[:end])
	if !ok {
		return models.TaskItem{Text: strings.TrimSpace(body)}, true
	}
	return models.TaskItem{Text: text, Source: ref}, text != ""
}

// Write fully replaces the section's backing file: a top heading, a blank
// line, then one bullet per item in the given order. Sourced items embed
// a deep-link back to their note. Output bytes are a pure function of the
// input order, which keeps repeated runs byte-identical.
func (s *Store) Write(section models.Section, items []models.TaskItem) (string, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", section)
	for _, item := range items {
		if item.Source != "" {
			fmt.Fprintf(&buf, "- %s [%s](%s)\n", item.Text, linkGlyph, models.DeepLink(s.vault, item.Source))
		} else {
			fmt.Fprintf(&buf, "- %s\n", item.Text)
		}
	}

	rel := s.Path(section)
	if err := s.store.Write(rel, buf.Bytes()); err != nil {
		return "", fmt.Errorf("summary: write %s: %w", section, err)
	}
	return rel, nil
}

// Merge unions the persisted set with freshly extracted items, keyed by
// (normalized text, source). Fresh items win the display text, keeping
// their original casing; keys only present in the persisted set keep
// their normalized text since the original casing is gone. The result is
// sorted: sourceless items first, then by source, then by text, all
// ascending case-sensitive ordinal.
func Merge(existing map[models.ItemKey]models.TaskItem, fresh []models.TaskItem) []models.TaskItem {
	merged := make(map[models.ItemKey]models.TaskItem, len(existing)+len(fresh))
	for k, v := range existing {
		merged[k] = v
	}
	for _, item := range fresh {
		item.Text = strings.TrimSpace(item.Text)
		if item.Text == "" {
			continue
		}
		merged[item.Key()] = item
	}

	out := make([]models.TaskItem, 0, len(merged))
	for _, v := range merged {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Text < out[j].Text
	})
	return out
}

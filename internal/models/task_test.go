package models

import "testing"

func TestSectionFilename(t *testing.T) {
	cases := map[Section]string{
		SectionToDo:     "To-Do_Tasks.md",
		SectionFollowUp: "Important_things_to_follow_up.md",
		SectionPapers:   "Papers_to_read.md",
	}
	for s, want := range cases {
		if got := s.Filename(); got != want {
			t.Errorf("%q filename = %q, want %q", s, got, want)
		}
	}
}

func TestParseSectionName(t *testing.T) {
	if s, ok := ParseSectionName("papers to read"); !ok || s != SectionPapers {
		t.Errorf("case-insensitive match failed: %q %v", s, ok)
	}
	if _, ok := ParseSectionName("Groceries"); ok {
		t.Error("unknown section should not match")
	}
}

func TestItemKeyNormalization(t *testing.T) {
	a := TaskItem{Text: "  Finish Report ", Source: "noteA.md"}
	b := TaskItem{Text: "finish report", Source: "noteA.md"}
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %v vs %v", a.Key(), b.Key())
	}
	c := TaskItem{Text: "finish report", Source: "noteB.md"}
	if a.Key() == c.Key() {
		t.Error("different sources must yield different keys")
	}
}

func TestDeepLinkRoundTrip(t *testing.T) {
	cases := []struct{ vault, ref string }{
		{"my vault", "folder/note.md"},
		{"kenny's mind", "8 - Week Planner/2025-W33.md"},
		{"v", "a+b & c.md"},
	}
	for _, c := range cases {
		uri := DeepLink(c.vault, c.ref)
		got, ok := ParseDeepLink(uri)
		if !ok {
			t.Fatalf("ParseDeepLink(%q) not ok", uri)
		}
		if got != c.ref {
			t.Errorf("round trip %q -> %q, want %q", c.ref, got, c.ref)
		}
	}
}

func TestParseDeepLinkRejectsForeignURIs(t *testing.T) {
	for _, uri := range []string{
		"https://example.com/open?file=a.md",
		"obsidian://search?q=x",
		"obsidian://open?vault=v",
		"not a uri at all",
	} {
		if _, ok := ParseDeepLink(uri); ok {
			t.Errorf("expected rejection of %q", uri)
		}
	}
}

package parser

import (
	"reflect"
	"testing"
)

func TestSection_Basic(t *testing.T) {
	md := "## To-Do Tasks\n- finish report\n- email Bob\n\n## Papers to read\n- study transformers https://arxiv.org/abs/1706.03762\n"
	got := Section(md, "To-Do Tasks")
	want := []string{"finish report", "email Bob"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSection_CaseInsensitiveHeading(t *testing.T) {
	md := "## papers TO read\n- read X\n"
	got := Section(md, "Papers to read")
	if len(got) != 1 || got[0] != "read X" {
		t.Errorf("got %v", got)
	}
}

func TestSection_EmptySectionBeforeNextHeading(t *testing.T) {
	md := "## Papers to read\n## To-Do Tasks\n- something\n"
	if got := Section(md, "Papers to read"); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestSection_AbsentHeading(t *testing.T) {
	if got := Section("no sections here at all", "To-Do Tasks"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestSection_BlankLinesAfterHeading(t *testing.T) {
	md := "## To-Do Tasks\n\n\n- after blanks\n"
	got := Section(md, "To-Do Tasks")
	if len(got) != 1 || got[0] != "after blanks" {
		t.Errorf("got %v", got)
	}
}

func TestSection_StopsAtNonBulletLine(t *testing.T) {
	md := "## To-Do Tasks\n- one\nsome prose\n- not collected\n"
	got := Section(md, "To-Do Tasks")
	if len(got) != 1 || got[0] != "one" {
		t.Errorf("got %v", got)
	}
}

func TestSection_TrimsBulletWhitespace(t *testing.T) {
	md := "## To-Do Tasks\n-   padded task   \n"
	got := Section(md, "To-Do Tasks")
	if len(got) != 1 || got[0] != "padded task" {
		t.Errorf("got %v", got)
	}
}

func TestSection_MalformedInputNeverPanics(t *testing.T) {
	for _, md := range []string{"", "##", "## \n-", "---\n##title\n"} {
		_ = Section(md, "To-Do Tasks")
	}
}

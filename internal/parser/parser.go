// Package parser extracts bullet items from headed sections of an LLM
// markdown response.
package parser

import "strings"

// Section returns the bullet items under the "## title" heading of the
// given markdown: heading matched case-insensitively, bullets collected
// until the first non-bullet line, markers stripped and whitespace
// trimmed. Blank lines between the heading and the first bullet are
// skipped. A missing heading or a heading with no bullets is a normal
// empty result, never an error.
func Section(markdown, title string) []string {
	lines := strings.Split(markdown, "\n")
	want := strings.ToLower("## " + strings.TrimSpace(title))

	i := 0
	for ; i < len(lines); i++ {
		if strings.ToLower(strings.TrimSpace(lines[i])) == want {
			break
		}
	}
	if i == len(lines) {
		return nil
	}

	var out []string
	seenBullet := false
	for _, line := range lines[i+1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" && !seenBullet {
			continue
		}
		if !strings.HasPrefix(trimmed, "- ") {
			break
		}
		item := strings.TrimSpace(trimmed[2:])
		if item == "" {
			continue
		}
		seenBullet = true
		out = append(out, item)
	}
	return out
}

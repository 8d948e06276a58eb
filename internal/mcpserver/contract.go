package mcpserver

// SummaryFormatContract describes the layout of the per-section summary
// files so LLM consumers can read them without guessing.
const SummaryFormatContract = `# Sirimal Summary File Format

The pipeline maintains one Markdown file per summary section inside the
summary folder of the vault:

- ` + "`" + `To-Do_Tasks.md` + "`" + ` — section "To-Do Tasks"
- ` + "`" + `Important_things_to_follow_up.md` + "`" + ` — section "Important things to follow up"
- ` + "`" + `Papers_to_read.md` + "`" + ` — section "Papers to read"

## Structure

` + "```" + `markdown
# To-Do Tasks

- Book flights for the conference
- Email Dr. Smith about the draft [🔗](obsidian://open?vault=MyVault&file=Daily%2F2026-08-29.md)
` + "```" + `

## Rules

1. The first line is ` + "`" + `# <section name>` + "`" + ` followed by a blank line.
2. Every item is a single ` + "`" + `- ` + "`" + ` bullet on one line.
3. Items extracted from a note carry a trailing deep-link:
   ` + "`" + `[🔗](obsidian://open?vault=<vault>&file=<note path>)` + "`" + `.
   The link target identifies the source note; items without a link were
   added by hand.
4. Items are deduplicated case-insensitively per source note and sorted
   by source path, then by text.
5. The whole file is rewritten on every pipeline run. Hand-added bullets
   survive the rewrite; any other prose in the file does not.
`

package mcpserver

// NoteFormat describes the canonical weekly note Markdown format that
// LLM consumers should follow when interpreting or producing notes.
const NoteFormat = `# PaperSync Weekly Note Format

Every weekly note stored under PaperSync/Weekly/<week>.md follows this
structure.

## Structure

` + "```" + `markdown
---
week: 2026-W05
date_range: 2026-01-26 to 2026-02-01
synced_at: 2026-01-28T14:30:00Z
---

## Monday, January 26

### Math

- [ ] Complete exercises 5-10
- [x] Read chapter 3 [due:: 2026-01-30]

---

## General Tasks

- [ ] Buy a new notebook
` + "```" + `

## Rules

1. **Frontmatter** is delimited by ` + "`" + `---` + "`" + ` lines and carries
   ` + "`" + `week` + "`" + `, ` + "`" + `date_range` + "`" + ` (format ` + "`" + `<start> to <end>` + "`" + `) and, when the
   note has been synced, ` + "`" + `synced_at` + "`" + `.
2. **Day sections** start with ` + "`" + `## <DayName>, <Month> <Day>` + "`" + ` and appear
   in Monday-to-Sunday order. Days without tasks are omitted entirely.
3. **Subject sections** are ` + "`" + `### <Subject>` + "`" + ` headings inside a day.
4. **Tasks** are ` + "`" + `- [ ]` + "`" + ` (open) or ` + "`" + `- [x]` + "`" + ` (done) list items. A due
   date is appended as ` + "`" + ` [due:: YYYY-MM-DD]` + "`" + `.
5. **Day separators** are bare ` + "`" + `---` + "`" + ` lines between day sections.
6. **General tasks** (not bound to a day) live in a trailing
   ` + "`" + `## General Tasks` + "`" + ` section after a separator.
7. **Encoding** is UTF-8; paths use forward slashes.
`

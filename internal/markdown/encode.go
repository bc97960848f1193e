package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/thread"
	"github.com/phrazzld/checklist-api/internal/workflow"
)

// Format constants shared by the encoder and decoder
const (
	incompleteHeading = "## Incomplete Tasks"
	completedHeading  = "## Completed Tasks"
	emptyPlaceholder  = "_No tasks yet._"
	lineBreak         = "<br>"
	escapedLineBreak  = "&lt;br>"
	remarkDateLayout  = "20060102"
)

// Encode renders the checklist as markdown. Tasks keep their stored order
// within each section and remarks appear in thread display order, each
// indented two spaces per level of nesting.
func Encode(c *domain.Checklist) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n", c.Name)

	incomplete := c.IncompleteTasks()
	completed := c.CompletedTasks()

	if len(incomplete) == 0 && len(completed) == 0 {
		b.WriteString("\n")
		b.WriteString(emptyPlaceholder)
		b.WriteString("\n")
		return b.String()
	}

	writeSection(&b, incompleteHeading, incomplete)
	writeSection(&b, completedHeading, completed)

	return b.String()
}

func writeSection(b *strings.Builder, heading string, tasks []*domain.Task) {
	if len(tasks) == 0 {
		return
	}

	b.WriteString("\n")
	b.WriteString(heading)
	b.WriteString("\n\n")

	for _, t := range tasks {
		writeTask(b, t)
	}
}

func writeTask(b *strings.Builder, t *domain.Task) {
	box := " "
	if t.IsComplete() {
		box = "x"
	}

	assignee := t.Assignee
	if assignee == "" {
		assignee = domain.UnassignedLabel
	}

	fmt.Fprintf(b, "- [%s] **%s** (Priority: %s, Due: %s) - *Assignee: %s*\n",
		box, t.Description, t.Priority, t.Due, assignee)

	for _, e := range thread.Flatten(t.Remarks) {
		writeRemark(b, e)
	}
}

func writeRemark(b *strings.Builder, e thread.Entry) {
	r := e.Remark

	b.WriteString(strings.Repeat(" ", 2+2*e.Depth))
	b.WriteString("- > #")
	b.WriteString(r.Timestamp.UTC().Format(remarkDateLayout))
	b.WriteString(" ")
	b.WriteString(escapeBody(workflow.RemarkText(r)))
	fmt.Fprintf(b, " (by %s)\n", r.Author)
}

var (
	escapedBreakText = regexp.MustCompile(`&((?:amp;)*lt;br>)`)
	escapedBreak     = regexp.MustCompile(`&(?:amp;)*lt;br>`)
)

// escapeBody writes newlines as <br>. A literal "<br>" is written as
// "&lt;br>", and text already spelled like an escaped break gains one more
// "amp;" so unescapeBody can tell the two apart.
func escapeBody(s string) string {
	s = escapedBreakText.ReplaceAllString(s, "&amp;$1")
	s = strings.ReplaceAll(s, lineBreak, escapedLineBreak)
	return strings.ReplaceAll(s, "\n", lineBreak)
}

// unescapeBody reverses escapeBody.
func unescapeBody(s string) string {
	s = strings.ReplaceAll(s, lineBreak, "\n")
	return escapedBreak.ReplaceAllStringFunc(s, func(m string) string {
		if m == escapedLineBreak {
			return lineBreak
		}
		return "&" + strings.TrimPrefix(m, "&amp;")
	})
}

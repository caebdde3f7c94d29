package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/hylla/hackboard/internal/domain"
)

// markdownRenderer caches a glamour renderer per wrap width.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render returns ANSI-styled text, falling back to the raw markdown on renderer errors.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(width, 24)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// taskMarkdown formats one task as a markdown document for the info view.
func taskMarkdown(task domain.Task, columnTitle string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", task.Title)

	assignee := task.AssigneeName
	if assignee == "" {
		assignee = task.AssigneeID
	}
	deadline := domain.FormatDeadline(task.Deadline)
	if deadline == "" {
		deadline = "none"
	} else if task.IsOverdue(now) {
		deadline += " **(overdue)**"
	}

	fmt.Fprintf(&b, "- **Column:** %s\n", columnTitle)
	fmt.Fprintf(&b, "- **Assignee:** %s\n", assignee)
	fmt.Fprintf(&b, "- **Priority:** %s\n", task.Priority)
	fmt.Fprintf(&b, "- **Deadline:** %s\n", deadline)
	fmt.Fprintf(&b, "- **ID:** `%s`\n", task.ID)
	if task.CreatedBy != "" {
		fmt.Fprintf(&b, "- **Created by:** %s\n", task.CreatedBy)
	}

	if desc := strings.TrimSpace(task.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}
	return b.String()
}

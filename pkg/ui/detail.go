package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/beadtree/pkg/model"
)

// DetailPane shows the selected issue as rendered markdown.
type DetailPane struct {
	viewport viewport.Model
	renderer *glamour.TermRenderer
	shownKey string
	shownAt  time.Time // UpdatedAt of the issue when it was rendered
}

// NewDetailPane creates an empty pane.
func NewDetailPane() DetailPane {
	d := DetailPane{viewport: viewport.New(0, 0)}
	d.viewport.SetContent("No issue selected")
	return d
}

// SetSize resizes the pane and re-wraps the markdown.
func (d *DetailPane) SetSize(width, height int) {
	d.viewport.Width = width
	d.viewport.Height = height
	d.renderer, _ = glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-2, 20)),
	)
	d.shownKey = ""
}

// Show renders issue unless it is already on screen unchanged. A nil issue
// clears the pane.
func (d *DetailPane) Show(issue *model.Issue) {
	if issue == nil {
		d.shownKey = ""
		d.viewport.SetContent("No issue selected")
		return
	}
	if issue.Key() == d.shownKey && issue.UpdatedAt.Equal(d.shownAt) {
		return
	}
	d.shownKey = issue.Key()
	d.shownAt = issue.UpdatedAt

	md := IssueMarkdown(*issue)
	if d.renderer == nil {
		d.viewport.SetContent(md)
		return
	}
	rendered, err := d.renderer.Render(md)
	if err != nil {
		d.viewport.SetContent(fmt.Sprintf("Error rendering markdown: %v", err))
		return
	}
	d.viewport.SetContent(rendered)
	d.viewport.GotoTop()
}

// Update forwards scroll keys to the viewport.
func (d DetailPane) Update(msg tea.Msg) (DetailPane, tea.Cmd) {
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return d, cmd
}

// View renders the pane.
func (d DetailPane) View() string {
	return d.viewport.View()
}

// IssueMarkdown formats an issue for the detail pane.
func IssueMarkdown(item model.Issue) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s %s\n", TypeIcon(string(item.IssueType)), item.Title)

	assignee := "-"
	if item.Assignee != "" {
		assignee = "@" + item.Assignee
	}
	sb.WriteString("| ID | Status | Priority | Assignee | Created |\n|---|---|---|---|---|\n")
	fmt.Fprintf(&sb, "| **%s** | **%s** | %s | %s | %s |\n\n",
		item.Key(),
		strings.ToUpper(string(item.Status)),
		GetPriorityIcon(item.Priority),
		assignee,
		item.CreatedAt.Format("2006-01-02"),
	)

	if len(item.Labels) > 0 {
		fmt.Fprintf(&sb, "**Labels:** %s\n\n", strings.Join(item.Labels, ", "))
	}
	if parents := item.ParentIDs(); len(parents) > 0 {
		fmt.Fprintf(&sb, "**Parent:** %s\n\n", strings.Join(parents, ", "))
	}

	section := func(title, body string) {
		if body == "" {
			return
		}
		fmt.Fprintf(&sb, "### %s\n%s\n\n", title, body)
	}
	section("Description", item.Description)
	section("Design", item.Design)
	section("Acceptance Criteria", item.AcceptanceCriteria)
	section("Notes", item.Notes)

	if len(item.Comments) > 0 {
		fmt.Fprintf(&sb, "### Comments (%d)\n", len(item.Comments))
		for _, c := range item.Comments {
			if c == nil {
				continue
			}
			fmt.Fprintf(&sb, "> **%s** (%s)\n> \n> %s\n\n",
				c.Author,
				FormatTimeRel(c.CreatedAt),
				strings.ReplaceAll(c.Text, "\n", "\n> "))
		}
	}
	return sb.String()
}

// FormatTimeRel formats t relative to now, e.g. "3h ago".
func FormatTimeRel(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// helpSection is one titled group of bindings in the help modal.
type helpSection struct {
	title    string
	bindings []key.Binding
}

func (k KeyMap) helpSections() []helpSection {
	return []helpSection{
		{"Navigation", []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom, k.Parent}},
		{"Tree", []key.Binding{k.Expand, k.Collapse, k.Toggle, k.ExpandAll, k.CollapseAll}},
		{"Actions", []key.Binding{k.Mark, k.ClearMarks, k.Copy, k.Refresh, k.Focus, k.Help, k.Quit}},
	}
}

// FullHelp returns every binding, grouped as the help modal shows them.
func (k KeyMap) FullHelp() [][]key.Binding {
	var groups [][]key.Binding
	for _, s := range k.helpSections() {
		groups = append(groups, s.bindings)
	}
	return groups
}

// RenderKeyHelp renders the key reference modal, at most 60 columns wide.
func RenderKeyHelp(keys KeyMap, theme Theme, width int) string {
	r := theme.Renderer

	modalWidth := 60
	if modalWidth > width-4 {
		modalWidth = width - 4
	}
	if modalWidth < 24 {
		modalWidth = 24
	}

	titleStyle := r.NewStyle().Bold(true).Foreground(theme.Primary)
	sectionStyle := r.NewStyle().Bold(true).Foreground(theme.Highlight)
	keyStyle := r.NewStyle().Foreground(theme.Secondary).Width(10)
	descStyle := r.NewStyle().Foreground(theme.Subtext)
	footerStyle := r.NewStyle().Foreground(theme.Muted).Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keys"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-6)))
	b.WriteString("\n")
	for _, s := range keys.helpSections() {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, binding := range s.bindings {
			h := binding.Help()
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(descStyle.Render(h.Desc))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("? or esc to close"))

	return r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth).
		Render(b.String())
}

package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/beadtree/pkg/model"
)

// RepoEntry holds display data for one repo in the picker.
type RepoEntry struct {
	Name       string
	Slot       int // 1-9 quick-jump key, 0 = none
	Issues     int
	Open       int
	InProgress int
}

// JumpToRepoMsg is sent when the user picks a repo.
type JumpToRepoMsg struct {
	Repo string
}

// RepoEntries groups issues by source repo, sorted by name.
func RepoEntries(issues []model.Issue) []RepoEntry {
	byName := make(map[string]*RepoEntry)
	for _, issue := range issues {
		e, ok := byName[issue.SourceRepo]
		if !ok {
			e = &RepoEntry{Name: issue.SourceRepo}
			byName[issue.SourceRepo] = e
		}
		e.Issues++
		switch issue.Status {
		case model.StatusOpen:
			e.Open++
		case model.StatusInProgress:
			e.InProgress++
		}
	}
	entries := make([]RepoEntry, 0, len(byName))
	for _, e := range byName {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	for i := range entries {
		if i < 9 {
			entries[i].Slot = i + 1
		}
	}
	return entries
}

// RepoPicker is a one-line header of repo chips shown in multi-repo mode.
// Number keys jump to a repo's first root; / filters by name.
type RepoPicker struct {
	entries     []RepoEntry
	filtered    []int
	cursor      int
	width       int
	active      string
	filterInput textinput.Model
	filtering   bool
	theme       Theme
}

// NewRepoPicker creates an empty picker.
func NewRepoPicker(theme Theme) RepoPicker {
	ti := textinput.New()
	ti.Placeholder = "repo name..."
	ti.CharLimit = 50
	ti.Width = 30
	return RepoPicker{filterInput: ti, theme: theme}
}

// SetEntries replaces the repos, keeping any filter in progress.
func (p *RepoPicker) SetEntries(entries []RepoEntry) {
	p.entries = entries
	p.applyFilter()
}

// SetWidth sets the render width.
func (p *RepoPicker) SetWidth(w int) {
	p.width = w
}

// SetActive highlights the repo of the selected issue.
func (p *RepoPicker) SetActive(name string) {
	p.active = name
}

// Visible reports whether there is more than one repo to pick from.
func (p *RepoPicker) Visible() bool {
	return len(p.entries) > 1
}

// Filtering reports whether the filter input has focus.
func (p *RepoPicker) Filtering() bool {
	return p.filtering
}

// FilteredCount returns the number of repos matching the filter.
func (p *RepoPicker) FilteredCount() int {
	return len(p.filtered)
}

// Update handles a key. The bool reports whether the picker consumed it.
func (p RepoPicker) Update(msg tea.KeyMsg) (RepoPicker, tea.Cmd, bool) {
	if p.filtering {
		cmd := p.updateFiltering(msg)
		return p, cmd, true
	}
	switch s := msg.String(); s {
	case "/":
		p.filtering = true
		p.cursor = 0
		p.filterInput.SetValue("")
		p.filterInput.Focus()
		p.applyFilter()
		return p, nil, true
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n := int(s[0] - '0')
		for _, e := range p.entries {
			if e.Slot == n {
				return p, jumpTo(e.Name), true
			}
		}
		return p, nil, true
	}
	return p, nil, false
}

func (p *RepoPicker) updateFiltering(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		p.stopFiltering()
		return nil
	case "enter":
		var cmd tea.Cmd
		if p.cursor < len(p.filtered) {
			cmd = jumpTo(p.entries[p.filtered[p.cursor]].Name)
		}
		p.stopFiltering()
		return cmd
	case "up":
		if p.cursor > 0 {
			p.cursor--
		}
		return nil
	case "down":
		if p.cursor < len(p.filtered)-1 {
			p.cursor++
		}
		return nil
	}
	var cmd tea.Cmd
	p.filterInput, cmd = p.filterInput.Update(msg)
	p.applyFilter()
	return cmd
}

func (p *RepoPicker) stopFiltering() {
	p.filtering = false
	p.filterInput.SetValue("")
	p.filterInput.Blur()
	p.applyFilter()
}

func jumpTo(repo string) tea.Cmd {
	return func() tea.Msg { return JumpToRepoMsg{Repo: repo} }
}

// applyFilter keeps repos whose name contains the query, prefix matches first.
func (p *RepoPicker) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(p.filterInput.Value()))
	p.filtered = p.filtered[:0]
	var contains []int
	for i, e := range p.entries {
		name := strings.ToLower(e.Name)
		switch {
		case query == "" || strings.HasPrefix(name, query):
			p.filtered = append(p.filtered, i)
		case strings.Contains(name, query):
			contains = append(contains, i)
		}
	}
	p.filtered = append(p.filtered, contains...)
	if p.cursor >= len(p.filtered) {
		p.cursor = max(0, len(p.filtered)-1)
	}
}

// Height returns the number of lines View uses.
func (p *RepoPicker) Height() int {
	if !p.Visible() {
		return 0
	}
	if p.filtering {
		return 3
	}
	return 2
}

// View renders the chips and a title bar divider.
func (p *RepoPicker) View() string {
	if !p.Visible() {
		return ""
	}
	t := p.theme
	w := p.width
	if w == 0 {
		w = 80
	}

	var lines []string
	if p.filtering {
		lines = append(lines, t.Renderer.NewStyle().Foreground(t.Primary).Render("  / "+p.filterInput.View()))
	}

	var chips []string
	used := 2
	for i, idx := range p.filtered {
		e := p.entries[idx]
		text := chipText(e)
		if used+len(text)+2 > w && len(chips) > 0 {
			break
		}
		used += len(text) + 2
		style := t.Renderer.NewStyle().Foreground(t.Base.GetForeground())
		if e.Name == p.active || (p.filtering && i == p.cursor) {
			style = t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
		}
		chips = append(chips, style.Render(text))
	}
	if len(chips) == 0 {
		chips = append(chips, t.Renderer.NewStyle().Foreground(t.Muted).Italic(true).Render("no matching repo"))
	}
	lines = append(lines, "  "+strings.Join(chips, "  "))
	lines = append(lines, p.renderTitleBar(w))
	return strings.Join(lines, "\n")
}

// chipText is "N name(open/in progress)".
func chipText(e RepoEntry) string {
	num := " "
	if e.Slot > 0 {
		num = fmt.Sprintf("%d", e.Slot)
	}
	name := e.Name
	if name == "" {
		name = "."
	}
	return fmt.Sprintf("%s %s(%d/%d)", num, name, e.Open, e.InProgress)
}

func (p *RepoPicker) renderTitleBar(w int) string {
	t := p.theme
	label := "repos"
	if p.filtering && p.filterInput.Value() != "" {
		label = fmt.Sprintf("repos(%s)", p.filterInput.Value())
	} else if p.active != "" {
		label = fmt.Sprintf("repos(%s)", p.active)
	}
	count := fmt.Sprintf("[%d]", len(p.filtered))

	titleLen := len(label) + len(count)
	left := max((w-titleLen-4)/2, 1)
	right := max(w-titleLen-4-left, 1)
	sep := t.Renderer.NewStyle().Foreground(t.Border)
	title := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Render(label) +
		t.Renderer.NewStyle().Foreground(t.Highlight).Render(count)
	return sep.Render(strings.Repeat("─", left)) + " " + title + " " + sep.Render(strings.Repeat("─", right))
}

package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/beadtree/pkg/model"
)

// multiRepo is hierarchy() in "api" plus a P0 root and a child in "web".
func multiRepo() []model.Issue {
	var issues []model.Issue
	for _, i := range hierarchy() {
		i.SourceRepo = "api"
		issues = append(issues, i)
	}
	web := child("web-1", "Landing page", 0, "")
	web.SourceRepo = "web"
	web.Status = model.StatusInProgress
	css := child("web-2", "Fix CSS", 2, "web-1")
	css.SourceRepo = "web"
	return append(issues, web, css)
}

// pressAndRun sends a key and feeds any resulting message back in.
func pressAndRun(t *testing.T, m Model, k string) Model {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	m = next.(Model)
	if cmd == nil {
		return m
	}
	if msg, ok := cmd().(JumpToRepoMsg); ok {
		next, _ = m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestRepoEntries(t *testing.T) {
	entries := RepoEntries(multiRepo())
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	api, web := entries[0], entries[1]
	if api.Name != "api" || api.Slot != 1 || api.Issues != 5 || api.Open != 5 {
		t.Errorf("api = %+v", api)
	}
	if web.Name != "web" || web.Slot != 2 || web.Issues != 2 || web.Open != 1 || web.InProgress != 1 {
		t.Errorf("web = %+v", web)
	}
}

func TestRepoPickerHiddenForSingleRepo(t *testing.T) {
	m, _ := newTestModel(t, hierarchy())
	m = resize(m, 80, 24)
	if m.repos.Visible() {
		t.Error("picker should be hidden with one repo")
	}
	if strings.Contains(m.View(), "repos") {
		t.Errorf("view shows the picker:\n%s", m.View())
	}
	m = pressAndRun(t, m, "2")
	if id := m.Tree().GetSelectedID(); id != "epic-1" {
		t.Errorf("digit without picker moved cursor to %q", id)
	}
}

func TestModelJumpsToRepo(t *testing.T) {
	m, _ := newTestModel(t, multiRepo())
	m = resize(m, 80, 24)

	if id := m.Tree().GetSelectedID(); id != "web:web-1" {
		t.Fatalf("first row = %q, want the P0 web root", id)
	}
	view := m.View()
	if !strings.Contains(view, "1 api(5/0)") || !strings.Contains(view, "repos(web)[2]") {
		t.Errorf("picker missing from view:\n%s", view)
	}

	m = pressAndRun(t, m, "1")
	if id := m.Tree().GetSelectedID(); id != "api:epic-1" {
		t.Errorf("1 selected %q, want api:epic-1", id)
	}
	if !strings.Contains(m.View(), "repos(api)") {
		t.Error("title bar should follow the selected repo")
	}

	m = pressAndRun(t, m, "2")
	if id := m.Tree().GetSelectedID(); id != "web:web-1" {
		t.Errorf("2 selected %q, want web:web-1", id)
	}
}

func TestModelFiltersRepos(t *testing.T) {
	m, _ := newTestModel(t, multiRepo())
	m = resize(m, 80, 24)

	m = press(m, "/")
	if !m.repos.Filtering() {
		t.Fatal("/ should start filtering")
	}
	// q is typed into the filter, not treated as quit
	m = press(m, "q")
	if m.repos.FilteredCount() != 0 {
		t.Errorf("filter q matched %d repos", m.repos.FilteredCount())
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = next.(Model)
	m = press(m, "a")
	if m.repos.FilteredCount() != 1 {
		t.Errorf("filter a matched %d repos, want 1", m.repos.FilteredCount())
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if m.repos.Filtering() {
		t.Error("enter should end filtering")
	}
	if cmd == nil {
		t.Fatal("enter should jump to the highlighted repo")
	}
	next, _ = m.Update(cmd())
	m = next.(Model)
	if id := m.Tree().GetSelectedID(); id != "api:epic-1" {
		t.Errorf("selected %q, want api:epic-1", id)
	}
}

func TestModelJumpToUnknownRepo(t *testing.T) {
	m, _ := newTestModel(t, multiRepo())
	next, _ := m.Update(JumpToRepoMsg{Repo: "gone"})
	m = next.(Model)
	if !strings.Contains(m.Status(), "no roots in gone") {
		t.Errorf("status = %q", m.Status())
	}
}

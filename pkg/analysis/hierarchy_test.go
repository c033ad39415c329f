package analysis

import (
	"slices"
	"testing"

	"github.com/vanderheijden86/beadtree/pkg/model"
)

func issue(id string, parents ...string) model.Issue {
	i := model.Issue{ID: id, Title: id, Status: model.StatusOpen, IssueType: model.TypeTask}
	for _, p := range parents {
		i.Dependencies = append(i.Dependencies, &model.Dependency{
			IssueID: id, DependsOnID: p, Type: model.DepParentChild,
		})
	}
	return i
}

func TestHierarchyCyclesNone(t *testing.T) {
	issues := []model.Issue{issue("a"), issue("b", "a"), issue("c", "b")}
	if got := HierarchyCycles(issues); len(got) != 0 {
		t.Errorf("HierarchyCycles() = %v, want none", got)
	}
}

func TestHierarchyCycles(t *testing.T) {
	issues := []model.Issue{
		issue("c", "b"),
		issue("a", "c"),
		issue("b", "a"),
		issue("x", "y"),
		issue("y", "x"),
		issue("self", "self"),
		issue("leaf", "a"),
	}
	got := HierarchyCycles(issues)
	want := [][]string{{"a", "c", "b"}, {"x", "y"}}
	if len(got) != len(want) {
		t.Fatalf("HierarchyCycles() = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("cycle %d = %v, want %v", i, got[i], want[i])
		}
	}

	h := NewHierarchyGraph(issues)
	if !h.InCycle("b") || h.InCycle("leaf") || h.InCycle("self") {
		t.Error("InCycle misreports membership")
	}
}

func TestHierarchyStats(t *testing.T) {
	issues := []model.Issue{
		issue("epic"),
		issue("feat", "epic"),
		issue("task", "feat"),
		issue("sub", "task", "epic"),
		issue("orphan", "missing", "gone"),
		issue("solo"),
	}
	h := NewHierarchyGraph(issues)
	s := h.Stats()

	want := Stats{Issues: 6, Roots: 3, MaxDepth: 3, Dangling: 1, MultiParent: 1, Cycles: 0}
	if s != want {
		t.Errorf("Stats() = %+v, want %+v", s, want)
	}
	if got := h.Dangling(); !slices.Equal(got, []string{"orphan"}) {
		t.Errorf("Dangling() = %v", got)
	}
	if got := h.MultiParent(); !slices.Equal(got, []string{"sub"}) {
		t.Errorf("MultiParent() = %v", got)
	}
}

func TestHierarchyStatsSkipsCycles(t *testing.T) {
	issues := []model.Issue{issue("a", "b"), issue("b", "a"), issue("below", "a"), issue("r"), issue("k", "r")}
	s := NewHierarchyGraph(issues).Stats()
	if s.MaxDepth != 1 || s.Cycles != 1 || s.Roots != 1 {
		t.Errorf("Stats() = %+v, want depth 1, 1 cycle, 1 root", s)
	}
}

func TestHierarchyGraphSeparatesRepos(t *testing.T) {
	parent := issue("bv-1")
	parent.SourceRepo = "api"
	child := issue("bv-2", "bv-1")
	child.SourceRepo = "web"

	h := NewHierarchyGraph([]model.Issue{parent, child})
	if got := h.Dangling(); !slices.Equal(got, []string{"web:bv-2"}) {
		t.Errorf("cross-repo parent should dangle, got %v", got)
	}
}

func TestComputeDataHash(t *testing.T) {
	a, b := issue("a"), issue("b", "a")
	h1 := ComputeDataHash([]model.Issue{a, b})
	h2 := ComputeDataHash([]model.Issue{b, a})
	if h1 != h2 {
		t.Error("hash must not depend on input order")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}

	b.Title = "renamed"
	if ComputeDataHash([]model.Issue{a, b}) == h1 {
		t.Error("hash must change with content")
	}
	if ComputeDataHash(nil) == h1 {
		t.Error("empty input must hash differently")
	}
}

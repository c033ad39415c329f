package ui

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/beadtree/pkg/model"
)

func newTreeTestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(nil))
}

func child(id, title string, priority int, parent string) model.Issue {
	i := model.Issue{ID: id, Title: title, Priority: priority, Status: model.StatusOpen, IssueType: model.TypeTask}
	if parent != "" {
		i.Dependencies = []*model.Dependency{{IssueID: id, DependsOnID: parent, Type: model.DepParentChild}}
	}
	return i
}

func epic(id string, priority int) model.Issue {
	return model.Issue{ID: id, Title: "Epic " + id, Priority: priority, Status: model.StatusOpen, IssueType: model.TypeEpic}
}

// hierarchy is epic-1 > {task-1 > sub-1, task-2}, plus a standalone bug.
func hierarchy() []model.Issue {
	bug := child("bug-1", "Standalone bug", 2, "")
	bug.IssueType = model.TypeBug
	return []model.Issue{
		child("sub-1", "Subtask", 3, "task-1"),
		child("task-2", "Second task", 2, "epic-1"),
		epic("epic-1", 1),
		child("task-1", "First task", 1, "epic-1"),
		bug,
	}
}

// visibleIDs walks the cursor across every row and returns the IDs in order.
func visibleIDs(tree *TreeModel) []string {
	tree.JumpToTop()
	var ids []string
	for i := 0; i < tree.NodeCount(); i++ {
		ids = append(ids, tree.GetSelectedID())
		tree.MoveDown()
	}
	return ids
}

// TestTreeBuildEmpty verifies Build() handles an empty slice
func TestTreeBuildEmpty(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(nil)

	if !tree.IsBuilt() {
		t.Error("expected tree to be marked as built")
	}
	if tree.RootCount() != 0 || tree.NodeCount() != 0 {
		t.Errorf("expected empty tree, got %d roots and %d nodes", tree.RootCount(), tree.NodeCount())
	}
	if tree.SelectedIssue() != nil {
		t.Error("expected no selection in an empty tree")
	}
}

// TestTreeBuildNoHierarchy verifies all issues become roots, ordered by priority
func TestTreeBuildNoHierarchy(t *testing.T) {
	issues := []model.Issue{
		child("bv-1", "Task 1", 1, ""),
		child("bv-2", "Task 2", 2, ""),
		child("bv-3", "Task 3", 0, ""),
	}

	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(issues)

	if tree.RootCount() != 3 {
		t.Errorf("expected 3 roots, got %d", tree.RootCount())
	}
	if got, want := visibleIDs(&tree), []string{"bv-3", "bv-1", "bv-2"}; !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

// TestTreeBuildParentChild verifies nesting and the initial expansion depth
func TestTreeBuildParentChild(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(hierarchy())

	if tree.RootCount() != 2 {
		t.Errorf("expected 2 roots, got %d", tree.RootCount())
	}
	if tree.TotalCount() != 5 {
		t.Errorf("expected 5 issues, got %d", tree.TotalCount())
	}
	want := []string{"epic-1", "task-1", "sub-1", "task-2", "bug-1"}
	if got := visibleIDs(&tree); !slices.Equal(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}

	tree.SelectByID("sub-1")
	if d := tree.Depth(); d != 2 {
		t.Errorf("sub-1 depth = %d, want 2", d)
	}
}

// TestTreeExpandDepthOne verifies a shallower first expansion
func TestTreeExpandDepthOne(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.SetExpandDepth(1)
	tree.Build(hierarchy())

	want := []string{"epic-1", "task-1", "task-2", "bug-1"}
	if got := visibleIDs(&tree); !slices.Equal(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

// TestTreeBuildOrphanParent verifies a missing parent leaves the child at the top
func TestTreeBuildOrphanParent(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build([]model.Issue{child("task-1", "Orphan", 1, "missing")})

	if tree.RootCount() != 1 {
		t.Errorf("expected orphan to be a root, got %d roots", tree.RootCount())
	}
}

// TestTreeBuildCycleTerminates verifies a parent-child cycle still builds
func TestTreeBuildCycleTerminates(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build([]model.Issue{child("a", "A", 1, "b"), child("b", "B", 1, "a")})

	if tree.TotalCount() != 2 {
		t.Errorf("expected both cycle members in the tree, got %d", tree.TotalCount())
	}
	if tree.RootCount() != 1 {
		t.Errorf("expected one cycle member on top, got %d roots", tree.RootCount())
	}
}

// TestTreeBuildBlockingDepsIgnored verifies only parent-child deps nest
func TestTreeBuildBlockingDepsIgnored(t *testing.T) {
	blocked := child("task-2", "Blocked", 1, "")
	blocked.Dependencies = []*model.Dependency{{IssueID: "task-2", DependsOnID: "task-1", Type: model.DepBlocks}}

	tree := NewTreeModel(newTreeTestTheme())
	tree.Build([]model.Issue{child("task-1", "Blocker", 1, ""), blocked})

	if tree.RootCount() != 2 {
		t.Errorf("blocks deps must not nest, got %d roots", tree.RootCount())
	}
}

// TestTreeBuildChildSorting verifies siblings follow priority then type
func TestTreeBuildChildSorting(t *testing.T) {
	now := time.Now()
	feature := child("c", "Feature", 1, "epic-1")
	feature.IssueType = model.TypeFeature
	older := child("d", "Old", 2, "epic-1")
	older.CreatedAt = now.Add(-time.Hour)
	newer := child("e", "New", 2, "epic-1")
	newer.CreatedAt = now

	tree := NewTreeModel(newTreeTestTheme())
	tree.Build([]model.Issue{newer, child("b", "Task", 1, "epic-1"), older, feature, epic("epic-1", 0)})

	want := []string{"epic-1", "c", "b", "d", "e"}
	if got := visibleIDs(&tree); !slices.Equal(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

// TestTreeNavigation verifies the cursor clamps at both ends
func TestTreeNavigation(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(hierarchy())

	tree.MoveUp()
	if tree.Cursor() != 0 {
		t.Errorf("cursor should clamp at 0, got %d", tree.Cursor())
	}
	tree.MoveDown()
	if id := tree.GetSelectedID(); id != "task-1" {
		t.Errorf("selected %q, want task-1", id)
	}
	tree.JumpToBottom()
	tree.MoveDown()
	if id := tree.GetSelectedID(); id != "bug-1" {
		t.Errorf("selected %q, want bug-1", id)
	}
	tree.JumpToTop()
	if id := tree.GetSelectedID(); id != "epic-1" {
		t.Errorf("selected %q, want epic-1", id)
	}
}

// TestTreeExpandCollapse verifies toggling, and that leaves ignore it
func TestTreeExpandCollapse(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(hierarchy())

	tree.ToggleExpand() // epic-1
	if tree.NodeCount() != 2 {
		t.Errorf("collapsed epic: expected 2 rows, got %d", tree.NodeCount())
	}
	tree.ToggleExpand()
	if tree.NodeCount() != 5 {
		t.Errorf("re-expanded epic: expected 5 rows, got %d", tree.NodeCount())
	}

	tree.JumpToBottom() // bug-1 is a leaf
	tree.ToggleExpand()
	if tree.NodeCount() != 5 {
		t.Errorf("toggling a leaf changed the rows: %d", tree.NodeCount())
	}

	tree.CollapseAll()
	if tree.NodeCount() != 2 {
		t.Errorf("CollapseAll: expected 2 rows, got %d", tree.NodeCount())
	}
	tree.ExpandAll()
	if tree.NodeCount() != 5 {
		t.Errorf("ExpandAll: expected 5 rows, got %d", tree.NodeCount())
	}
}

// TestTreeCollapseMovesCursorToVisibleAncestor verifies the cursor never
// points at a hidden row
func TestTreeCollapseMovesCursorToVisibleAncestor(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(hierarchy())

	tree.SelectByID("sub-1")
	tree.CollapseAll()
	if id := tree.GetSelectedID(); id != "epic-1" {
		t.Errorf("selected %q after CollapseAll, want epic-1", id)
	}
}

// TestTreeRebuildKeepsState verifies a reload keeps the cursor, expansion
// and marks on the same issues
func TestTreeRebuildKeepsState(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(hierarchy())

	tree.SelectByID("task-1")
	tree.ToggleExpand() // collapse task-1
	tree.ToggleMark()
	tree.SelectByID("task-2")
	before := tree.Mutations()

	issues := hierarchy()
	issues[1].Status = model.StatusInProgress // task-2
	issues = append(issues, child("task-0", "Urgent task", 0, "epic-1"))
	tree.Build(issues)

	if tree.Mutations() <= before {
		t.Error("Build should report a structural change")
	}
	sel := tree.SelectedIssue()
	if sel == nil || sel.ID != "task-2" || sel.Status != model.StatusInProgress {
		t.Fatalf("selected = %+v, want the reloaded task-2", sel)
	}
	want := []string{"epic-1", "task-0", "task-1", "task-2", "bug-1"}
	if got := visibleIDs(&tree); !slices.Equal(got, want) {
		t.Errorf("rows = %v, want %v (task-1 still collapsed)", got, want)
	}
	if got := tree.MarkedIDs(); !slices.Equal(got, []string{"task-1"}) {
		t.Errorf("marks = %v, want [task-1]", got)
	}
}

// TestTreeReplaceRefreshesRows verifies an in-place payload swap reaches the
// rendered rows
func TestTreeReplaceRefreshesRows(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.SetSize(120, 20)
	tree.Build(hierarchy())
	tree.SelectByID("task-2")
	before := tree.Mutations()

	renamed := child("task-2", "Renamed in place", 2, "epic-1")
	if !tree.Model().Replace(renamed, renamed) {
		t.Fatal("Replace should find task-2")
	}
	if tree.Mutations() <= before {
		t.Error("Replace should invalidate the row cache")
	}
	if !strings.Contains(tree.View(), "Renamed in place") {
		t.Errorf("view does not show the new title:\n%s", tree.View())
	}
	if sel := tree.SelectedIssue(); sel == nil || sel.Title != "Renamed in place" {
		t.Errorf("selected = %+v", sel)
	}
}

// TestTreeRebuildOnlyFirstBuildExpands verifies later reloads honor
// collapsed nodes
func TestTreeRebuildOnlyFirstBuildExpands(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(hierarchy())
	tree.CollapseAll()

	tree.Build(hierarchy())
	if tree.NodeCount() != 2 {
		t.Errorf("reload re-expanded the tree: %d rows", tree.NodeCount())
	}
}

// TestTreeRebuildRemovedSelection verifies the cursor stays in range when
// its issue disappears
func TestTreeRebuildRemovedSelection(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(hierarchy())
	tree.JumpToBottom() // bug-1

	tree.Build(hierarchy()[:4])
	if tree.Cursor() != tree.NodeCount()-1 {
		t.Errorf("cursor = %d, want last row %d", tree.Cursor(), tree.NodeCount()-1)
	}
	if id := tree.GetSelectedID(); id != "task-2" {
		t.Errorf("selected %q, want task-2", id)
	}
}

// TestTreeReparentOnReload verifies an issue follows its new parent
func TestTreeReparentOnReload(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(hierarchy())

	issues := hierarchy()
	issues[0] = child("sub-1", "Subtask", 3, "task-2")
	tree.Build(issues)
	tree.ExpandAll()

	want := []string{"epic-1", "task-1", "task-2", "sub-1", "bug-1"}
	if got := visibleIDs(&tree); !slices.Equal(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

// TestTreeViewEmpty verifies the empty-state hint
func TestTreeViewEmpty(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(nil)
	if view := tree.View(); !strings.Contains(view, "No issues to display") {
		t.Errorf("empty view = %q", view)
	}
}

// TestTreeViewRendering verifies guide lines, indicators and IDs
func TestTreeViewRendering(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.SetSize(120, 20)
	tree.Build(hierarchy())

	lines := strings.Split(strings.TrimRight(tree.View(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), tree.View())
	}
	checks := []struct {
		line int
		want []string
	}{
		{0, []string{"▾", "P1", "epic-1"}},
		{1, []string{"├── ▾", "task-1"}},
		{2, []string{"│   └── •", "sub-1", "Subtask"}},
		{3, []string{"└── •", "task-2"}},
		{4, []string{"•", "bug-1", "🐛"}},
	}
	for _, c := range checks {
		for _, w := range c.want {
			if !strings.Contains(lines[c.line], w) {
				t.Errorf("line %d = %q, missing %q", c.line, lines[c.line], w)
			}
		}
	}
	if strings.Contains(lines[0], "─") || strings.Contains(lines[4], "─") {
		t.Error("top-level rows must not have guide lines")
	}

	tree.SelectByID("task-1")
	tree.ToggleExpand()
	if !strings.Contains(tree.View(), "▸") {
		t.Error("collapsed node should show ▸")
	}
}

// TestTreeViewShowsMarks verifies marked rows carry a check
func TestTreeViewShowsMarks(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(hierarchy())
	tree.ToggleMark()

	lines := strings.Split(tree.View(), "\n")
	if !strings.Contains(lines[0], "✔") || strings.Contains(lines[1], "✔") {
		t.Errorf("mark should appear on the first row only:\n%s", tree.View())
	}
	tree.ClearMarks()
	if len(tree.MarkedIDs()) != 0 {
		t.Error("ClearMarks left marks behind")
	}
}

// TestTreeTruncateTitle verifies display-width aware truncation
func TestTreeTruncateTitle(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tests := []struct {
		title string
		width int
		want  string
	}{
		{"Short", 20, "Short"},
		{"Hello World", 8, "Hello W…"},
		{"日本語テキスト", 7, "日本語…"},
		{"Anything", 2, "..."},
	}
	for _, tt := range tests {
		if got := tree.truncateTitle(tt.title, tt.width); got != tt.want {
			t.Errorf("truncateTitle(%q, %d) = %q, want %q", tt.title, tt.width, got, tt.want)
		}
	}
}

// TestTreeJumpToParent verifies parent jumps and the top-level no-op
func TestTreeJumpToParent(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(hierarchy())

	tree.SelectByID("sub-1")
	tree.JumpToParent()
	if id := tree.GetSelectedID(); id != "task-1" {
		t.Errorf("selected %q, want task-1", id)
	}
	tree.JumpToParent()
	tree.JumpToParent()
	if id := tree.GetSelectedID(); id != "epic-1" {
		t.Errorf("selected %q, want epic-1", id)
	}
}

// TestTreeExpandOrMoveToChild verifies expand-then-descend
func TestTreeExpandOrMoveToChild(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.SetExpandDepth(0)
	tree.Build(hierarchy())

	tree.ExpandOrMoveToChild()
	if tree.NodeCount() != 4 || tree.GetSelectedID() != "epic-1" {
		t.Errorf("first press should expand in place: %d rows, on %q", tree.NodeCount(), tree.GetSelectedID())
	}
	tree.ExpandOrMoveToChild()
	if id := tree.GetSelectedID(); id != "task-1" {
		t.Errorf("second press should descend, on %q", id)
	}

	tree.SelectByID("bug-1")
	tree.ExpandOrMoveToChild()
	if id := tree.GetSelectedID(); id != "bug-1" {
		t.Errorf("leaf should not move, on %q", id)
	}
}

// TestTreeCollapseOrJumpToParent verifies collapse-then-ascend
func TestTreeCollapseOrJumpToParent(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.Build(hierarchy())

	tree.SelectByID("task-1")
	tree.CollapseOrJumpToParent()
	if tree.NodeCount() != 4 || tree.GetSelectedID() != "task-1" {
		t.Errorf("first press should collapse in place: %d rows, on %q", tree.NodeCount(), tree.GetSelectedID())
	}
	tree.CollapseOrJumpToParent()
	if id := tree.GetSelectedID(); id != "epic-1" {
		t.Errorf("second press should ascend, on %q", id)
	}
}

// TestTreePageNavigation verifies half-page moves
func TestTreePageNavigation(t *testing.T) {
	var issues []model.Issue
	for i := range 30 {
		issues = append(issues, child(fmt.Sprintf("bv-%02d", i), "Task", 1, ""))
	}
	tree := NewTreeModel(newTreeTestTheme())
	tree.SetSize(80, 10)
	tree.Build(issues)

	tree.PageDown()
	if tree.Cursor() != 5 {
		t.Errorf("PageDown: cursor = %d, want 5", tree.Cursor())
	}
	tree.PageUp()
	tree.PageUp()
	if tree.Cursor() != 0 {
		t.Errorf("PageUp: cursor = %d, want 0", tree.Cursor())
	}
}

// TestVisibleRange verifies the viewport follows the cursor
func TestVisibleRange(t *testing.T) {
	var issues []model.Issue
	for i := range 50 {
		issues = append(issues, child(fmt.Sprintf("bv-%02d", i), "Task", 1, ""))
	}
	tree := NewTreeModel(newTreeTestTheme())
	tree.SetSize(80, 10)
	tree.Build(issues)

	if start, end := tree.visibleRange(); start != 0 || end != 10 {
		t.Errorf("initial range = [%d,%d), want [0,10)", start, end)
	}
	tree.JumpToBottom()
	if start, end := tree.visibleRange(); start != 40 || end != 50 {
		t.Errorf("bottom range = [%d,%d), want [40,50)", start, end)
	}
	for range 12 {
		tree.MoveUp()
	}
	if start, _ := tree.visibleRange(); start != 37 {
		t.Errorf("after moving up, start = %d, want 37", start)
	}
	if n := strings.Count(tree.View(), "\n"); n != 10 {
		t.Errorf("View rendered %d rows, want 10", n)
	}
}

// TestTreeSelectByID verifies hidden targets get revealed
func TestTreeSelectByID(t *testing.T) {
	tree := NewTreeModel(newTreeTestTheme())
	tree.SetExpandDepth(0)
	tree.Build(hierarchy())

	if !tree.SelectByID("sub-1") {
		t.Fatal("SelectByID(sub-1) = false")
	}
	if id := tree.GetSelectedID(); id != "sub-1" {
		t.Errorf("selected %q, want sub-1", id)
	}
	if tree.NodeCount() != 5 {
		t.Errorf("expected ancestors expanded (5 rows), got %d", tree.NodeCount())
	}
	if tree.SelectByID("nope") {
		t.Error("SelectByID(nope) = true")
	}
}

// TestTreeMultiRepoKeys verifies same IDs from different repos stay apart
func TestTreeMultiRepoKeys(t *testing.T) {
	api, web := epic("bv-1", 1), epic("bv-1", 1)
	api.SourceRepo, web.SourceRepo = "api", "web"
	webChild := child("bv-2", "Web task", 1, "bv-1")
	webChild.SourceRepo = "web"

	tree := NewTreeModel(newTreeTestTheme())
	tree.Build([]model.Issue{api, web, webChild})

	if tree.RootCount() != 2 {
		t.Fatalf("expected 2 roots, got %d", tree.RootCount())
	}
	if !tree.SelectByID("web:bv-2") {
		t.Fatal("SelectByID(web:bv-2) = false")
	}
	tree.JumpToParent()
	if id := tree.GetSelectedID(); id != "web:bv-1" {
		t.Errorf("parent = %q, want web:bv-1", id)
	}
}

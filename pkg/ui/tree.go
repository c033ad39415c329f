package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/beadtree/pkg/model"
	"github.com/vanderheijden86/beadtree/pkg/treemodel"
)

// DefaultExpandDepth expands epics and their direct children on first load.
const DefaultExpandDepth = 2

// rowCache is shared by copies of a TreeModel so the model hooks, which are
// installed once, always reach the live cache.
type rowCache struct {
	stale     bool
	mutations int
}

// TreeModel renders the issue hierarchy and owns cursor navigation. The
// hierarchy itself lives in a treemodel.Model keyed by issue, so expansion,
// marks and the cursor survive reloads.
type TreeModel struct {
	model *treemodel.Model[model.Issue]
	cache *rowCache

	rows           []treemodel.Index // visible rows in display order
	cursor         int               // index into rows
	viewportOffset int               // first rendered row
	theme          Theme
	width          int
	height         int
	expandDepth    int
	built          bool
}

// NewTreeModel creates an empty tree.
func NewTreeModel(theme Theme) TreeModel {
	cache := &rowCache{}
	m := treemodel.New[model.Issue](treemodel.WithHooks[model.Issue](treemodel.Hooks{
		EndMutation: func() {
			cache.stale = true
			cache.mutations++
		},
		ValueChanged: func(treemodel.Index) {
			cache.stale = true
			cache.mutations++
		},
	}))
	return TreeModel{
		model:       m,
		cache:       cache,
		theme:       theme,
		expandDepth: DefaultExpandDepth,
	}
}

// SetSize updates the available dimensions.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// SetExpandDepth sets how many levels the first Build expands.
func (t *TreeModel) SetExpandDepth(depth int) {
	if depth >= 0 {
		t.expandDepth = depth
	}
}

// SetSortValues forwards to the underlying model: reloads are pre-sorted so
// new siblings are created in order.
func (t *TreeModel) SetSortValues(on bool) {
	t.model.SetSortValues(on)
}

// Model exposes the underlying tree model.
func (t *TreeModel) Model() *treemodel.Model[model.Issue] {
	return t.model
}

// Build reconciles the tree against a fresh load. Issues that are still
// present keep their node, expansion and marks; the cursor follows the issue
// it was on. The first Build expands the top levels.
func (t *TreeModel) Build(issues []model.Issue) {
	t.model.Set(issues)
	if !t.built {
		t.model.ExpandToDepth(t.expandDepth)
		t.built = true
	}
	t.rebuildFlatList()
}

// Mutations counts the structural changes and in-place payload swaps the
// tree has gone through.
func (t *TreeModel) Mutations() int {
	return t.cache.mutations
}

// rebuildFlatList recomputes the visible rows and puts the cursor back on
// the current issue, or on its nearest visible ancestor.
func (t *TreeModel) rebuildFlatList() {
	t.rows = t.model.VisibleRows()
	t.cache.stale = false

	if cur := t.model.CurrentIndex(); cur.IsValid() {
		for idx := cur; idx.IsValid(); idx = t.model.Parent(idx) {
			if i := t.rowOf(idx); i >= 0 {
				t.cursor = i
				if i != t.rowOf(cur) {
					t.model.SetCurrentIndex(t.rows[i])
				}
				t.ensureCursorVisible()
				return
			}
		}
	}

	t.cursor = min(t.cursor, len(t.rows)-1)
	t.cursor = max(t.cursor, 0)
	if len(t.rows) > 0 {
		t.model.SetCurrentIndex(t.rows[t.cursor])
	}
	t.ensureCursorVisible()
}

func (t *TreeModel) refresh() {
	if t.cache.stale {
		t.rebuildFlatList()
	}
}

func (t *TreeModel) rowOf(idx treemodel.Index) int {
	return slices.IndexFunc(t.rows, func(r treemodel.Index) bool { return r.ID() == idx.ID() })
}

func (t *TreeModel) setCursor(i int) {
	if len(t.rows) == 0 {
		t.cursor = 0
		return
	}
	t.cursor = max(0, min(i, len(t.rows)-1))
	t.model.SetCurrentIndex(t.rows[t.cursor])
	t.ensureCursorVisible()
}

func (t *TreeModel) pageHeight() int {
	if t.height <= 0 {
		return 20
	}
	return t.height
}

func (t *TreeModel) ensureCursorVisible() {
	h := t.pageHeight()
	if t.cursor < t.viewportOffset {
		t.viewportOffset = t.cursor
	}
	if t.cursor >= t.viewportOffset+h {
		t.viewportOffset = t.cursor - h + 1
	}
	t.viewportOffset = max(0, min(t.viewportOffset, len(t.rows)-h))
}

// visibleRange returns the [start, end) slice of rows on screen.
func (t *TreeModel) visibleRange() (start, end int) {
	if len(t.rows) == 0 {
		return 0, 0
	}
	start = max(0, min(t.viewportOffset, len(t.rows)-1))
	end = min(start+t.pageHeight(), len(t.rows))
	return start, end
}

// View renders the visible rows.
func (t *TreeModel) View() string {
	t.refresh()
	if !t.built || len(t.rows) == 0 {
		return t.renderEmptyState()
	}

	var sb strings.Builder
	start, end := t.visibleRange()
	for i := start; i < end; i++ {
		line := t.renderNode(t.rows[i])
		if i == t.cursor {
			line = t.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer
	titleStyle := r.NewStyle().Foreground(t.theme.Primary).Bold(true)
	mutedStyle := r.NewStyle().Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Tree View"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("No issues to display."))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("To create hierarchy, add parent-child dependencies:"))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("  bd dep add <child> parent-child:<parent>"))
	return sb.String()
}

// renderNode renders one row: branch prefix, indicator, type icon, priority,
// ID, title and status.
func (t *TreeModel) renderNode(idx treemodel.Index) string {
	issue, ok := t.model.ValueAt(idx)
	if !ok {
		return ""
	}
	r := t.theme.Renderer
	var sb strings.Builder

	prefix := t.buildTreePrefix(idx)
	sb.WriteString(prefix)

	sb.WriteString(r.NewStyle().Foreground(t.theme.Secondary).Render(t.getExpandIndicator(idx, issue)))
	sb.WriteString(" ")

	if t.model.IsSelected(issue) {
		sb.WriteString(t.theme.Marked.Render("✔"))
		sb.WriteString(" ")
	}

	icon, iconColor := t.theme.GetTypeIcon(string(issue.IssueType))
	sb.WriteString(r.NewStyle().Foreground(iconColor).Render(icon))
	sb.WriteString(" ")

	prioStyle := r.NewStyle().Bold(true).Foreground(t.GetPriorityColor(issue.Priority))
	sb.WriteString(prioStyle.Render(fmt.Sprintf("P%d", issue.Priority)))
	sb.WriteString(" ")

	sb.WriteString(r.NewStyle().Foreground(t.theme.Highlight).Render(issue.Key()))
	sb.WriteString(" ")

	used := lipgloss.Width(sb.String())
	maxTitle := max(t.width-used-2, 20)
	sb.WriteString(t.truncateTitle(issue.Title, maxTitle))

	statusStyle := r.NewStyle().Foreground(t.theme.GetStatusColor(string(issue.Status)))
	sb.WriteString(statusStyle.Render(" " + GetStatusIcon(string(issue.Status))))
	return sb.String()
}

// buildTreePrefix draws the guide lines for idx: a vertical bar for every
// ancestor level that still has siblings below, then the branch glyph.
func (t *TreeModel) buildTreePrefix(idx treemodel.Index) string {
	if t.model.Depth(idx) == 0 {
		return ""
	}

	var ancestors []treemodel.Index
	for p := t.model.Parent(idx); p.IsValid(); p = t.model.Parent(p) {
		ancestors = append(ancestors, p)
	}
	slices.Reverse(ancestors)

	var sb strings.Builder
	for _, a := range ancestors[1:] {
		if t.hasSiblingsBelow(a) {
			sb.WriteString("│   ")
		} else {
			sb.WriteString("    ")
		}
	}
	if t.hasSiblingsBelow(idx) {
		sb.WriteString("├── ")
	} else {
		sb.WriteString("└── ")
	}
	return t.theme.Renderer.NewStyle().Foreground(t.theme.Muted).Render(sb.String())
}

func (t *TreeModel) hasSiblingsBelow(idx treemodel.Index) bool {
	idx = t.model.Normalize(idx)
	return idx.Row() < t.model.RowCount(t.model.Parent(idx))-1
}

func (t *TreeModel) getExpandIndicator(idx treemodel.Index, issue model.Issue) string {
	if !t.model.HasChildren(idx) {
		return "•"
	}
	if t.model.IsExpanded(issue) {
		return "▾"
	}
	return "▸"
}

// truncateTitle cuts title to maxWidth display cells, ending in an ellipsis.
func (t *TreeModel) truncateTitle(title string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	return runewidth.Truncate(title, maxWidth, "…")
}

// GetPriorityColor returns the color for a priority level.
func (t *TreeModel) GetPriorityColor(priority int) lipgloss.AdaptiveColor {
	switch priority {
	case 0:
		return t.theme.Blocked
	case 1:
		return t.theme.Primary
	case 2:
		return t.theme.Secondary
	default:
		return t.theme.Muted
	}
}

// SelectedIssue returns the issue under the cursor, or nil.
func (t *TreeModel) SelectedIssue() *model.Issue {
	t.refresh()
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return nil
	}
	issue, ok := t.model.ValueAt(t.rows[t.cursor])
	if !ok {
		return nil
	}
	return &issue
}

// GetSelectedID returns the key of the issue under the cursor, or "".
func (t *TreeModel) GetSelectedID() string {
	if issue := t.SelectedIssue(); issue != nil {
		return issue.Key()
	}
	return ""
}

// Cursor returns the cursor row.
func (t *TreeModel) Cursor() int {
	return t.cursor
}

// MoveDown moves the cursor down one row.
func (t *TreeModel) MoveDown() {
	t.refresh()
	t.setCursor(t.cursor + 1)
}

// MoveUp moves the cursor up one row.
func (t *TreeModel) MoveUp() {
	t.refresh()
	t.setCursor(t.cursor - 1)
}

// JumpToTop moves the cursor to the first row.
func (t *TreeModel) JumpToTop() {
	t.refresh()
	t.setCursor(0)
}

// JumpToBottom moves the cursor to the last row.
func (t *TreeModel) JumpToBottom() {
	t.refresh()
	t.setCursor(len(t.rows) - 1)
}

// PageDown moves the cursor down half a screen.
func (t *TreeModel) PageDown() {
	t.refresh()
	t.setCursor(t.cursor + t.halfPage())
}

// PageUp moves the cursor up half a screen.
func (t *TreeModel) PageUp() {
	t.refresh()
	t.setCursor(t.cursor - t.halfPage())
}

func (t *TreeModel) halfPage() int {
	if p := t.height / 2; p >= 1 {
		return p
	}
	return 5
}

func (t *TreeModel) selectedIndex() (treemodel.Index, model.Issue, bool) {
	t.refresh()
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return treemodel.Index{}, model.Issue{}, false
	}
	idx := t.rows[t.cursor]
	issue, ok := t.model.ValueAt(idx)
	return idx, issue, ok
}

// ToggleExpand expands or collapses the row under the cursor.
func (t *TreeModel) ToggleExpand() {
	idx, issue, ok := t.selectedIndex()
	if !ok || !t.model.HasChildren(idx) {
		return
	}
	t.model.SetExpandedValue(issue, !t.model.IsExpanded(issue))
	t.rebuildFlatList()
}

// ExpandAll expands every node.
func (t *TreeModel) ExpandAll() {
	t.model.ExpandAll()
	t.rebuildFlatList()
}

// CollapseAll collapses every node. The cursor moves to its top-level
// ancestor.
func (t *TreeModel) CollapseAll() {
	t.model.CollapseAll()
	t.rebuildFlatList()
}

// JumpToParent moves the cursor to the parent row. Top-level rows stay put.
func (t *TreeModel) JumpToParent() {
	idx, _, ok := t.selectedIndex()
	if !ok {
		return
	}
	if p := t.model.Parent(idx); p.IsValid() {
		if i := t.rowOf(p); i >= 0 {
			t.setCursor(i)
		}
	}
}

// ExpandOrMoveToChild expands a collapsed row, or steps into the first child
// of an expanded one. Leaves are left alone.
func (t *TreeModel) ExpandOrMoveToChild() {
	idx, issue, ok := t.selectedIndex()
	if !ok || !t.model.HasChildren(idx) {
		return
	}
	if !t.model.IsExpanded(issue) {
		t.model.SetExpandedValue(issue, true)
		t.rebuildFlatList()
		return
	}
	if i := t.rowOf(t.model.Index(0, 0, idx)); i >= 0 {
		t.setCursor(i)
	}
}

// CollapseOrJumpToParent collapses an expanded row, otherwise jumps to the
// parent.
func (t *TreeModel) CollapseOrJumpToParent() {
	idx, issue, ok := t.selectedIndex()
	if !ok {
		return
	}
	if t.model.HasChildren(idx) && t.model.IsExpanded(issue) {
		t.model.SetExpandedValue(issue, false)
		t.rebuildFlatList()
		return
	}
	t.JumpToParent()
}

// SelectByID moves the cursor to the issue with the given key or ID,
// expanding its ancestors if needed.
func (t *TreeModel) SelectByID(id string) bool {
	t.refresh()
	for _, issue := range t.model.Values() {
		if issue.Key() != id && issue.ID != id {
			continue
		}
		idx := t.model.IndexOf(issue)
		for p := t.model.Parent(idx); p.IsValid(); p = t.model.Parent(p) {
			if v, ok := t.model.ValueAt(p); ok {
				t.model.SetExpandedValue(v, true)
			}
		}
		t.model.SetCurrent(issue)
		t.rebuildFlatList()
		return true
	}
	return false
}

// SelectRepo moves the cursor to the first root from the given repo.
func (t *TreeModel) SelectRepo(repo string) bool {
	t.refresh()
	root := treemodel.Index{}
	for row := 0; row < t.model.RowCount(root); row++ {
		issue, ok := t.model.ValueAt(t.model.Index(row, 0, root))
		if ok && issue.SourceRepo == repo {
			t.model.SetCurrent(issue)
			t.rebuildFlatList()
			return true
		}
	}
	return false
}

// ToggleMark flips the mark on the row under the cursor.
func (t *TreeModel) ToggleMark() bool {
	_, issue, ok := t.selectedIndex()
	if !ok {
		return false
	}
	return t.model.ToggleSelected(issue)
}

// MarkedIDs returns the keys of the marked issues, in marking order.
func (t *TreeModel) MarkedIDs() []string {
	var ids []string
	for _, issue := range t.model.Selection() {
		ids = append(ids, issue.Key())
	}
	return ids
}

// ClearMarks unmarks everything.
func (t *TreeModel) ClearMarks() {
	t.model.ClearSelection()
}

// Issues returns every issue in tree order.
func (t *TreeModel) Issues() []model.Issue {
	return t.model.Values()
}

// IsBuilt reports whether Build has run.
func (t *TreeModel) IsBuilt() bool {
	return t.built
}

// NodeCount returns the number of visible rows.
func (t *TreeModel) NodeCount() int {
	t.refresh()
	return len(t.rows)
}

// TotalCount returns the number of issues in the tree.
func (t *TreeModel) TotalCount() int {
	return t.model.Len()
}

// RootCount returns the number of top-level issues.
func (t *TreeModel) RootCount() int {
	return t.model.RowCount(treemodel.Index{})
}

// Depth returns the depth of the row under the cursor, or -1.
func (t *TreeModel) Depth() int {
	idx, _, ok := t.selectedIndex()
	if !ok {
		return -1
	}
	return t.model.Depth(idx)
}

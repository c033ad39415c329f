package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SplitViewThreshold is the width above which the detail pane is shown next
// to the tree.
const SplitViewThreshold = 100

type focus int

const (
	focusTree focus = iota
	focusDetail
)

// ModelConfig configures the application model.
type ModelConfig struct {
	Theme       *Theme
	Worker      *BackgroundWorker
	ExpandDepth int
	SortValues  bool
	// Copy writes to the clipboard; defaults to the system clipboard.
	Copy func(string) error
}

// Model is the top-level bubbletea model: the issue tree, the detail pane
// and a status footer.
type Model struct {
	tree     TreeModel
	detail   DetailPane
	repos    RepoPicker
	theme    Theme
	keys     KeyMap
	worker   *BackgroundWorker
	copyFn   func(string) error
	snapshot *DataSnapshot

	focused     focus
	isSplitView bool
	showHelp    bool
	ready       bool
	width       int
	height      int

	status    string
	statusErr bool
}

// NewModel creates the model and reconciles the initial snapshot, if any.
func NewModel(snapshot *DataSnapshot, cfg ModelConfig) Model {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}
	copyFn := cfg.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	tree := NewTreeModel(theme)
	tree.SetExpandDepth(cfg.ExpandDepth)
	tree.SetSortValues(cfg.SortValues)

	m := Model{
		tree:   tree,
		detail: NewDetailPane(),
		repos:  NewRepoPicker(theme),
		theme:  theme,
		keys:   DefaultKeyMap(),
		worker: cfg.Worker,
		copyFn: copyFn,
	}
	if snapshot != nil {
		m.applySnapshot(snapshot)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Tree returns the tree view.
func (m *Model) Tree() *TreeModel {
	return &m.tree
}

// Snapshot returns the snapshot currently shown.
func (m Model) Snapshot() *DataSnapshot {
	return m.snapshot
}

// Status returns the footer message.
func (m Model) Status() string {
	return m.status
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

// applySnapshot reconciles the tree against a new load.
func (m *Model) applySnapshot(s *DataSnapshot) {
	m.snapshot = s
	m.tree.Build(s.Issues)
	hadPicker := m.repos.Visible()
	m.repos.SetEntries(RepoEntries(s.Issues))
	if m.ready && hadPicker != m.repos.Visible() {
		m.resize(m.width, m.height)
	}
	switch n := len(s.Cycles); {
	case n > 0:
		m.setStatus(fmt.Sprintf("%d parent-child cycle(s): %s", n, strings.Join(s.Cycles[0], " → ")), true)
	default:
		m.setStatus(fmt.Sprintf("loaded %d issues", len(s.Issues)), false)
	}
	m.syncDetail()
}

func (m *Model) syncDetail() {
	if sel := m.tree.SelectedIssue(); sel != nil {
		m.repos.SetActive(sel.SourceRepo)
	}
	if m.isSplitView {
		m.detail.Show(m.tree.SelectedIssue())
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case SnapshotReadyMsg:
		if msg.Snapshot != nil {
			m.applySnapshot(msg.Snapshot)
		}

	case SnapshotErrorMsg:
		m.setStatus(fmt.Sprintf("reload failed: %v", msg.Err), true)

	case JumpToRepoMsg:
		if m.tree.SelectRepo(msg.Repo) {
			m.focused = focusTree
		} else {
			m.setStatus("no roots in "+msg.Repo, true)
		}
		m.syncDetail()

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.repos.Filtering() {
			var handled bool
			m.repos, cmd, handled = m.repos.Update(msg)
			if handled {
				return m, cmd
			}
		}
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.showHelp {
			if key.Matches(msg, m.keys.Help) || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if key.Matches(msg, m.keys.Help) {
			m.showHelp = true
			return m, nil
		}
		if key.Matches(msg, m.keys.Focus) && m.isSplitView {
			if m.focused == focusTree {
				m.focused = focusDetail
			} else {
				m.focused = focusTree
			}
			return m, nil
		}
		if m.focused == focusDetail {
			if msg.String() == "esc" {
				m.focused = focusTree
				return m, nil
			}
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		if m.repos.Visible() {
			var handled bool
			m.repos, cmd, handled = m.repos.Update(msg)
			if handled {
				return m, cmd
			}
		}
		m.handleTreeKey(msg)
		m.syncDetail()
	}

	return m, cmd
}

func (m *Model) handleTreeKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.tree.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.tree.MoveDown()
	case key.Matches(msg, m.keys.PageUp):
		m.tree.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.tree.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.tree.JumpToTop()
	case key.Matches(msg, m.keys.Bottom):
		m.tree.JumpToBottom()
	case key.Matches(msg, m.keys.Collapse):
		m.tree.CollapseOrJumpToParent()
	case key.Matches(msg, m.keys.Expand):
		m.tree.ExpandOrMoveToChild()
	case key.Matches(msg, m.keys.Toggle):
		m.tree.ToggleExpand()
	case key.Matches(msg, m.keys.Parent):
		m.tree.JumpToParent()
	case key.Matches(msg, m.keys.ExpandAll):
		m.tree.ExpandAll()
	case key.Matches(msg, m.keys.CollapseAll):
		m.tree.CollapseAll()
	case key.Matches(msg, m.keys.Mark):
		if m.tree.ToggleMark() {
			m.tree.MoveDown()
		}
	case key.Matches(msg, m.keys.ClearMarks):
		m.tree.ClearMarks()
	case key.Matches(msg, m.keys.Copy):
		m.copySelection()
	case key.Matches(msg, m.keys.Refresh):
		if m.worker == nil {
			m.setStatus("live reload is off", true)
			return
		}
		m.worker.TriggerRefresh()
		m.setStatus("reloading...", false)
	}
}

// copySelection copies the marked IDs, or the ID under the cursor.
func (m *Model) copySelection() {
	ids := m.tree.MarkedIDs()
	if len(ids) == 0 {
		if id := m.tree.GetSelectedID(); id != "" {
			ids = []string{id}
		}
	}
	if len(ids) == 0 {
		return
	}
	text := strings.Join(ids, " ")
	if err := m.copyFn(text); err != nil {
		m.setStatus(fmt.Sprintf("copy failed: %v", err), true)
		return
	}
	m.setStatus("copied "+text, false)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true
	m.isSplitView = width > SplitViewThreshold
	if !m.isSplitView {
		m.focused = focusTree
	}

	m.repos.SetWidth(width)
	bodyHeight := max(height-1-m.repos.Height(), 1) // footer
	if m.isSplitView {
		treeWidth := width * 55 / 100
		detailWidth := width - treeWidth
		m.tree.SetSize(treeWidth-2, bodyHeight-2) // borders
		m.detail.SetSize(detailWidth-2, bodyHeight-2)
	} else {
		m.tree.SetSize(width, bodyHeight)
	}
	m.syncDetail()
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.showHelp {
		modal := RenderKeyHelp(m.keys, m.theme, m.width)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}

	var body string
	if m.isSplitView {
		treeStyle, detailStyle := m.panelStyle(m.focused == focusTree), m.panelStyle(m.focused == focusDetail)
		bodyHeight := max(m.height-3-m.repos.Height(), 1)
		treeView := treeStyle.Width(m.tree.width).Height(bodyHeight).Render(m.tree.View())
		detailView := detailStyle.Width(m.detail.viewport.Width).Height(bodyHeight).Render(m.detail.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, treeView, detailView)
	} else {
		body = m.tree.View()
	}
	if m.repos.Visible() {
		return lipgloss.JoinVertical(lipgloss.Left, m.repos.View(), body, m.renderFooter())
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderFooter())
}

func (m Model) panelStyle(focused bool) lipgloss.Style {
	border := m.theme.Border
	if focused {
		border = m.theme.Primary
	}
	return m.theme.Renderer.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border)
}

func (m Model) renderFooter() string {
	var counts string
	if s := m.snapshot; s != nil {
		counts = fmt.Sprintf(" %d issues · %d roots · depth %d ", s.Stats.Issues, s.Stats.Roots, s.Stats.MaxDepth)
		if marked := len(m.tree.MarkedIDs()); marked > 0 {
			counts += fmt.Sprintf("· %d marked ", marked)
		}
	}

	statusStyle := m.theme.Status
	if m.statusErr {
		statusStyle = m.theme.Error.Padding(0, 1)
	}

	var keys []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		keys = append(keys, h.Key+": "+h.Desc)
	}
	helpStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Subtext).Padding(0, 1)

	left := lipgloss.JoinHorizontal(lipgloss.Bottom, m.theme.Status.Render(counts), statusStyle.Render(m.status))
	right := helpStyle.Render(strings.Join(keys, " • "))
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + strings.Repeat(" ", gap) + right
}

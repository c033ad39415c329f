package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the tree browser key bindings.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Collapse    key.Binding
	Expand      key.Binding
	Toggle      key.Binding
	Parent      key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Mark        key.Binding
	ClearMarks  key.Binding
	Copy        key.Binding
	Refresh     key.Binding
	Focus       key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns vim-style bindings with arrow key alternatives.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("ctrl+u", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("ctrl+d", "page down")),
		Top:         key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Collapse:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Expand:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
		Toggle:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "toggle")),
		Parent:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "parent")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		Mark:        key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "mark")),
		ClearMarks:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear marks")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Focus:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Expand, k.Collapse, k.Mark, k.Copy, k.Refresh, k.Focus, k.Help, k.Quit}
}

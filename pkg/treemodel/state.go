package treemodel

import (
	"math"
	"slices"

	"github.com/vanderheijden86/beadtree/pkg/tree"
)

// Selection, expansion and the current item are stored as values rather than
// nodes or rows: Set and Remove may destroy and recreate every node, and a
// value that is Equal to a stored one is simply found again afterwards.

func containsValue[T interface{ Equal(T) bool }](list []T, v T) bool {
	return slices.ContainsFunc(list, func(u T) bool { return u.Equal(v) })
}

func removeValue[T interface{ Equal(T) bool }](list []T, v T) []T {
	return slices.DeleteFunc(list, func(u T) bool { return u.Equal(v) })
}

// keepPresent drops values no longer in the tree and refreshes the rest to the
// tree's current payload.
func (m *Model[T]) keepPresent(list []T) []T {
	out := list[:0]
	for _, v := range list {
		if n, ok := m.Find(v); ok && !containsValue(out, v) {
			out = append(out, n.Value())
		}
	}
	return out
}

// syncState runs after reconciliation.
func (m *Model[T]) syncState() {
	m.selection = m.keepPresent(m.selection)
	m.expansion = m.keepPresent(m.expansion)
	if m.hasCurrent {
		if n, ok := m.Find(m.current); ok {
			m.current = n.Value()
		} else {
			m.ClearCurrent()
		}
	}
}

func (m *Model[T]) dropState(gone []T) {
	for _, v := range gone {
		m.selection = removeValue(m.selection, v)
		m.expansion = removeValue(m.expansion, v)
		if m.hasCurrent && m.current.Equal(v) {
			m.ClearCurrent()
		}
	}
}

// Selection returns the selected values.
func (m *Model[T]) Selection() []T {
	return slices.Clone(m.selection)
}

// SetSelection replaces the selection. Values not in the tree are ignored.
func (m *Model[T]) SetSelection(values []T) {
	m.selection = m.keepPresent(slices.Clone(values))
}

// Select adds v to the selection. It returns false if v is not in the tree.
func (m *Model[T]) Select(v T) bool {
	n, ok := m.Find(v)
	if !ok {
		return false
	}
	if !containsValue(m.selection, v) {
		m.selection = append(m.selection, n.Value())
	}
	return true
}

// Deselect removes v from the selection.
func (m *Model[T]) Deselect(v T) {
	m.selection = removeValue(m.selection, v)
}

// ToggleSelected flips v's selection and reports the new state.
func (m *Model[T]) ToggleSelected(v T) bool {
	if m.IsSelected(v) {
		m.Deselect(v)
		return false
	}
	return m.Select(v)
}

// IsSelected reports whether v is selected.
func (m *Model[T]) IsSelected(v T) bool {
	return containsValue(m.selection, v)
}

// ClearSelection empties the selection.
func (m *Model[T]) ClearSelection() {
	m.selection = nil
}

// SelectedIndexes translates the selection to indexes.
func (m *Model[T]) SelectedIndexes() []Index {
	out := make([]Index, 0, len(m.selection))
	for _, v := range m.selection {
		if idx := m.IndexOf(v); idx.IsValid() {
			out = append(out, idx)
		}
	}
	return out
}

// SetSelectedIndexes replaces the selection with the values behind idxs.
func (m *Model[T]) SetSelectedIndexes(idxs []Index) {
	values := make([]T, 0, len(idxs))
	for _, idx := range idxs {
		if v, ok := m.ValueAt(idx); ok {
			values = append(values, v)
		}
	}
	m.SetSelection(values)
}

// Expanded returns the expanded values.
func (m *Model[T]) Expanded() []T {
	return slices.Clone(m.expansion)
}

// SetExpanded replaces the expansion set. Values not in the tree are ignored.
func (m *Model[T]) SetExpanded(values []T) {
	m.expansion = m.keepPresent(slices.Clone(values))
}

// SetExpandedValue expands or collapses v. It returns false if v is not in
// the tree.
func (m *Model[T]) SetExpandedValue(v T, expanded bool) bool {
	n, ok := m.Find(v)
	if !ok {
		return false
	}
	if !expanded {
		m.expansion = removeValue(m.expansion, v)
		return true
	}
	if !containsValue(m.expansion, v) {
		m.expansion = append(m.expansion, n.Value())
	}
	return true
}

// IsExpanded reports whether v is expanded.
func (m *Model[T]) IsExpanded(v T) bool {
	return containsValue(m.expansion, v)
}

// ExpandToDepth expands every node shallower than depth that has children.
// Nodes already expanded stay expanded.
func (m *Model[T]) ExpandToDepth(depth int) {
	m.tree.Root().Walk(func(n tree.Node[T]) bool {
		if n.Depth() >= depth {
			return false
		}
		if n.ChildCount() > 0 && !containsValue(m.expansion, n.Value()) {
			m.expansion = append(m.expansion, n.Value())
		}
		return true
	})
}

// ExpandAll expands every node that has children.
func (m *Model[T]) ExpandAll() {
	m.ExpandToDepth(math.MaxInt)
}

// CollapseAll empties the expansion set.
func (m *Model[T]) CollapseAll() {
	m.expansion = nil
}

// Current returns the current item.
func (m *Model[T]) Current() (T, bool) {
	return m.current, m.hasCurrent
}

// SetCurrent makes v the current item. It returns false if v is not in the
// tree.
func (m *Model[T]) SetCurrent(v T) bool {
	n, ok := m.Find(v)
	if !ok {
		return false
	}
	m.current = n.Value()
	m.hasCurrent = true
	return true
}

// ClearCurrent unsets the current item.
func (m *Model[T]) ClearCurrent() {
	var zero T
	m.current = zero
	m.hasCurrent = false
}

// CurrentIndex returns the index of the current item, or the invalid index.
func (m *Model[T]) CurrentIndex() Index {
	if !m.hasCurrent {
		return Index{}
	}
	return m.IndexOf(m.current)
}

// SetCurrentIndex makes the value behind idx current.
func (m *Model[T]) SetCurrentIndex(idx Index) bool {
	v, ok := m.ValueAt(idx)
	if !ok {
		return false
	}
	return m.SetCurrent(v)
}

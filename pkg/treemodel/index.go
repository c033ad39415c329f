package treemodel

import (
	"fmt"

	"github.com/vanderheijden86/beadtree/pkg/tree"
)

// Index addresses one cell of the model the way index-based views expect: a
// row among its siblings, a column, and (implicitly) a parent. The node is
// carried by ID and resolved through the identity map on every use, so an
// Index minted before a rebuild resolves to nothing rather than to an
// unrelated node. The zero Index is invalid and stands for the root.
type Index struct {
	row    int
	column int
	id     tree.ID
	valid  bool
}

// IsValid reports whether the index names a node (as opposed to the root).
func (i Index) IsValid() bool { return i.valid }

// Row returns the row the index was created with.
func (i Index) Row() int { return i.row }

// Column returns the column the index was created with.
func (i Index) Column() int { return i.column }

// ID returns the node identity behind the index.
func (i Index) ID() tree.ID { return i.id }

func (i Index) String() string {
	if !i.valid {
		return "Index(root)"
	}
	return fmt.Sprintf("Index(row=%d col=%d id=%v)", i.row, i.column, i.id)
}

// resolve maps an index to its node. The invalid index resolves to the root;
// a stale index resolves to nothing.
func (m *Model[T]) resolve(idx Index) (tree.Node[T], bool) {
	if !idx.valid {
		return m.tree.Root(), true
	}
	n, ok := m.tree.Lookup(idx.id)
	if !ok || n.IsRoot() {
		return tree.Node[T]{}, false
	}
	return n, true
}

func (m *Model[T]) indexOf(n tree.Node[T]) Index {
	if !n.Valid() || n.IsRoot() {
		return Index{}
	}
	return Index{row: n.Row(), id: n.ID(), valid: true}
}

// Index returns the index of the child at (row, column) under parent.
func (m *Model[T]) Index(row, column int, parent Index) Index {
	if column < 0 || column >= m.columns || (parent.valid && parent.column > 0) {
		return Index{}
	}
	p, ok := m.resolve(parent)
	if !ok {
		return Index{}
	}
	c, ok := p.Child(row)
	if !ok {
		return Index{}
	}
	return Index{row: row, column: column, id: c.ID(), valid: true}
}

// Parent returns the index of idx's parent, or the invalid index for
// top-level nodes. The parent's row is found by scanning the grandparent's
// children.
func (m *Model[T]) Parent(idx Index) Index {
	if !idx.valid {
		return Index{}
	}
	n, ok := m.resolve(idx)
	if !ok {
		return Index{}
	}
	p, ok := n.Parent()
	if !ok {
		return Index{}
	}
	return m.indexOf(p)
}

// Sibling returns the index at (row, column) sharing idx's parent.
func (m *Model[T]) Sibling(row, column int, idx Index) Index {
	return m.Index(row, column, m.Parent(idx))
}

// RowCount returns the number of children under parent. Only column 0 has
// children.
func (m *Model[T]) RowCount(parent Index) int {
	if parent.valid && parent.column > 0 {
		return 0
	}
	n, ok := m.resolve(parent)
	if !ok {
		return 0
	}
	return n.ChildCount()
}

// ColumnCount returns the number of columns.
func (m *Model[T]) ColumnCount() int {
	return m.columns
}

// HasChildren reports whether RowCount(parent) > 0.
func (m *Model[T]) HasChildren(parent Index) bool {
	return m.RowCount(parent) > 0
}

// ValueAt returns the value behind idx.
func (m *Model[T]) ValueAt(idx Index) (T, bool) {
	var zero T
	if !idx.valid {
		return zero, false
	}
	n, ok := m.resolve(idx)
	if !ok {
		return zero, false
	}
	return n.Value(), true
}

// Depth returns 0 for top-level indexes, -1 for the root or a stale index.
func (m *Model[T]) Depth(idx Index) int {
	if !idx.valid {
		return -1
	}
	n, ok := m.resolve(idx)
	if !ok {
		return -1
	}
	return n.Depth()
}

// IndexOf returns the column-0 index of the node holding v, or the invalid
// index when v is not in the tree.
func (m *Model[T]) IndexOf(v T) Index {
	n, ok := m.Find(v)
	if !ok {
		return Index{}
	}
	return m.indexOf(n)
}

// Normalize refreshes the row of an index whose node may have moved among its
// siblings. A stale index comes back invalid.
func (m *Model[T]) Normalize(idx Index) Index {
	if !idx.valid {
		return Index{}
	}
	n, ok := m.resolve(idx)
	if !ok {
		return Index{}
	}
	out := m.indexOf(n)
	out.column = idx.column
	return out
}

// VisibleRows flattens the tree in display order, descending only into
// expanded nodes. Top-level nodes are always visible.
func (m *Model[T]) VisibleRows() []Index {
	var out []Index
	var walk func(parent Index)
	walk = func(parent Index) {
		for row := 0; row < m.RowCount(parent); row++ {
			idx := m.Index(row, 0, parent)
			out = append(out, idx)
			if v, ok := m.ValueAt(idx); ok && m.IsExpanded(v) {
				walk(idx)
			}
		}
	}
	walk(Index{})
	return out
}

package tree

// Node is a lightweight cursor onto one node of a Tree. It is only as valid as
// its handle: once the node is pruned every accessor reports the zero value.
type Node[T Hierarchical[T]] struct {
	t *Tree[T]
	h Handle
}

func (n Node[T]) slot() *slot[T] {
	if n.t == nil {
		return nil
	}
	return n.t.slot(n.h)
}

// Valid reports whether the node is still alive.
func (n Node[T]) Valid() bool {
	return n.slot() != nil
}

// Handle returns the arena handle of the node.
func (n Node[T]) Handle() Handle {
	return n.h
}

// ID returns the node's identity.
func (n Node[T]) ID() ID {
	if s := n.slot(); s != nil {
		return s.id
	}
	return RootID
}

// IsRoot reports whether this is the tree's root.
func (n Node[T]) IsRoot() bool {
	return n.t != nil && n.h == n.t.root
}

// Value returns the node's payload.
func (n Node[T]) Value() T {
	if s := n.slot(); s != nil {
		return s.value
	}
	var zero T
	return zero
}

// SetValue replaces the payload without touching topology.
func (n Node[T]) SetValue(v T) {
	if s := n.slot(); s != nil {
		s.value = v
	}
}

// Parent returns the parent node; false for the root.
func (n Node[T]) Parent() (Node[T], bool) {
	s := n.slot()
	if s == nil || s.parent.IsZero() {
		return Node[T]{}, false
	}
	return Node[T]{t: n.t, h: s.parent}, true
}

// ChildCount returns the number of direct children.
func (n Node[T]) ChildCount() int {
	if s := n.slot(); s != nil {
		return len(s.children)
	}
	return 0
}

// Child returns the child at row.
func (n Node[T]) Child(row int) (Node[T], bool) {
	s := n.slot()
	if s == nil || row < 0 || row >= len(s.children) {
		return Node[T]{}, false
	}
	return Node[T]{t: n.t, h: s.children[row]}, true
}

// Children returns cursors for the direct children, in order.
func (n Node[T]) Children() []Node[T] {
	s := n.slot()
	if s == nil {
		return nil
	}
	out := make([]Node[T], len(s.children))
	for i, c := range s.children {
		out[i] = Node[T]{t: n.t, h: c}
	}
	return out
}

// Row returns the position of the node among its parent's children, or -1
// for the root. This is a linear scan of the siblings.
func (n Node[T]) Row() int {
	p, ok := n.Parent()
	if !ok {
		return -1
	}
	for i, c := range p.slot().children {
		if c == n.h {
			return i
		}
	}
	return -1
}

// Depth returns 0 for top-level nodes, 1 for their children and so on.
// The root has depth -1.
func (n Node[T]) Depth() int {
	d := -1
	for p, ok := n.Parent(); ok; p, ok = p.Parent() {
		d++
	}
	return d
}

// Walk visits the node's descendants in pre-order. Returning false from fn
// skips the visited node's children.
func (n Node[T]) Walk(fn func(Node[T]) bool) {
	s := n.slot()
	if s == nil {
		return
	}
	for _, c := range s.children {
		child := Node[T]{t: n.t, h: c}
		if fn(child) {
			child.Walk(fn)
		}
	}
}

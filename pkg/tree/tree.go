// Package tree implements an arena-backed value tree whose topology is
// inferred from a parent/child relation on the values themselves.
//
// Nodes live in a slab owned by the Tree and are addressed by generation
// checked handles. Parent links are handles, never pointers, so copying or
// growing the slab cannot leave dangling back-references, and the slab doubles
// as the identity map (ID -> handle).
package tree

import (
	"maps"
	"slices"
)

// Hierarchical is the capability a value type needs to live in a Tree.
//
// Equal matches values across snapshots (two payloads describing the same
// logical item must be Equal even if their other fields differ). IsChildOf
// reports whether the receiver belongs directly under parent.
type Hierarchical[T any] interface {
	Equal(other T) bool
	IsChildOf(parent T) bool
}

// Ordered is an optional capability used by Sort when no explicit comparator
// is supplied.
type Ordered[T any] interface {
	Compare(other T) int
}

// Handle addresses a slot in the arena. The zero Handle is never valid.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

type slot[T any] struct {
	gen      uint32
	live     bool
	id       ID
	value    T
	parent   Handle
	children []Handle
}

// Tree owns the root node, every descendant and the identity map.
// It is not safe for concurrent use.
type Tree[T Hierarchical[T]] struct {
	slots []slot[T]
	free  []uint32
	ids   map[ID]Handle
	root  Handle
	alloc *IDAllocator
}

// New creates an empty tree using the process-wide ID allocator.
func New[T Hierarchical[T]]() *Tree[T] {
	return NewWithAllocator[T](&processIDs)
}

// NewWithAllocator creates an empty tree drawing node IDs from alloc.
func NewWithAllocator[T Hierarchical[T]](alloc *IDAllocator) *Tree[T] {
	t := &Tree[T]{alloc: alloc}
	t.Reset()
	return t
}

// Reset discards every node and starts over from an empty root. Slots are
// kept and their generations only ever grow, so handles taken before a Reset
// stay invalid after it.
func (t *Tree[T]) Reset() {
	t.ids = make(map[ID]Handle)
	t.free = t.free[:0]
	if len(t.slots) == 0 {
		t.slots = append(t.slots, slot[T]{})
	}
	for i := len(t.slots) - 1; i > 0; i-- {
		t.slots[i] = slot[T]{gen: t.slots[i].gen}
		t.free = append(t.free, uint32(i))
	}
	gen := t.slots[0].gen + 1
	t.slots[0] = slot[T]{gen: gen, live: true, id: RootID}
	t.root = Handle{index: 0, gen: gen}
	t.ids[RootID] = t.root
}

// Root returns the root node. The root carries the zero value of T.
func (t *Tree[T]) Root() Node[T] {
	return Node[T]{t: t, h: t.root}
}

// Node returns the node addressed by h. The result is invalid if h is stale.
func (t *Tree[T]) Node(h Handle) Node[T] {
	return Node[T]{t: t, h: h}
}

// Lookup resolves an ID through the identity map.
func (t *Tree[T]) Lookup(id ID) (Node[T], bool) {
	h, ok := t.ids[id]
	if !ok || t.slot(h) == nil {
		return Node[T]{}, false
	}
	return Node[T]{t: t, h: h}, true
}

// Len returns the number of live nodes, not counting the root.
func (t *Tree[T]) Len() int {
	return len(t.ids) - 1
}

// Reindex rebuilds the identity map from scratch by walking the tree.
func (t *Tree[T]) Reindex() {
	clear(t.ids)
	var walk func(h Handle)
	walk = func(h Handle) {
		s := t.slot(h)
		if s == nil {
			return
		}
		t.ids[s.id] = h
		for _, c := range s.children {
			walk(c)
		}
	}
	walk(t.root)
}

// Clone returns a deep copy of the tree structure. Handles and IDs are
// preserved, so a handle taken from t addresses the same logical node in the
// copy. Values are copied by assignment.
func (t *Tree[T]) Clone() *Tree[T] {
	c := &Tree[T]{
		slots: make([]slot[T], len(t.slots)),
		free:  slices.Clone(t.free),
		ids:   maps.Clone(t.ids),
		root:  t.root,
		alloc: t.alloc,
	}
	for i, s := range t.slots {
		s.children = slices.Clone(s.children)
		c.slots[i] = s
	}
	return c
}

func (t *Tree[T]) slot(h Handle) *slot[T] {
	if int(h.index) >= len(t.slots) {
		return nil
	}
	s := &t.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil
	}
	return s
}

// newNode allocates a node under parent and registers it in the identity map.
// It may grow the slab, so callers must not hold *slot pointers across it.
func (t *Tree[T]) newNode(parent Handle, v T) Handle {
	s := slot[T]{live: true, id: t.alloc.Next(), value: v, parent: parent}
	var h Handle
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s.gen = t.slots[idx].gen + 1
		t.slots[idx] = s
		h = Handle{index: idx, gen: s.gen}
	} else {
		s.gen = 1
		t.slots = append(t.slots, s)
		h = Handle{index: uint32(len(t.slots) - 1), gen: 1}
	}
	t.ids[s.id] = h
	return h
}

// release frees h and its whole subtree. It does not detach h from its parent.
func (t *Tree[T]) release(h Handle) {
	s := t.slot(h)
	if s == nil {
		return
	}
	for _, c := range s.children {
		t.release(c)
	}
	delete(t.ids, s.id)
	var zero T
	s.value = zero
	s.children = nil
	s.parent = Handle{}
	s.live = false
	t.free = append(t.free, h.index)
}

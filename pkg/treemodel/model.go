// Package treemodel exposes a tree.Tree through the row/column/parent index
// protocol used by list and tree views, and keeps selection, expansion and the
// current item keyed by value so they survive full rebuilds.
//
// A producer hands the model flat batches of values; the model infers the
// hierarchy from the values' IsChildOf relation, reconciles the batch against
// the nodes it already has and notifies observers around every structural
// change. The model is not safe for concurrent use: serialize all calls onto
// the goroutine that drives the view.
package treemodel

import (
	"slices"

	"github.com/vanderheijden86/beadtree/pkg/tree"
)

// Hooks lets a view invalidate its caches around model changes. Any field may
// be nil.
type Hooks struct {
	// BeginMutation runs before every structural change.
	BeginMutation func()
	// EndMutation runs after every structural change.
	EndMutation func()
	// ValueChanged runs after a payload is swapped in place by Replace.
	ValueChanged func(Index)
}

// Option configures a Model.
type Option[T tree.Hierarchical[T]] func(*Model[T])

// WithHooks installs change notification hooks.
func WithHooks[T tree.Hierarchical[T]](h Hooks) Option[T] {
	return func(m *Model[T]) { m.hooks = h }
}

// WithComparator sets the order used to sort siblings. Without it, a T that
// implements tree.Ordered is sorted by its Compare method, and any other T
// keeps insertion order.
func WithComparator[T tree.Hierarchical[T]](cmp func(a, b T) int) Option[T] {
	return func(m *Model[T]) { m.cmp = cmp }
}

// WithAutoSort controls whether the tree is re-sorted after every Add and Set
// (default true). With auto-sort off, existing nodes only move when Sort is
// called.
func WithAutoSort[T tree.Hierarchical[T]](on bool) Option[T] {
	return func(m *Model[T]) { m.autoSort = on }
}

// WithSortValues pre-sorts incoming batches before reconciliation.
func WithSortValues[T tree.Hierarchical[T]](on bool) Option[T] {
	return func(m *Model[T]) { m.sortValues = on }
}

// WithColumns sets the column count reported to views (default 1).
func WithColumns[T tree.Hierarchical[T]](n int) Option[T] {
	return func(m *Model[T]) {
		if n > 0 {
			m.columns = n
		}
	}
}

// WithAllocator draws node IDs from a dedicated allocator instead of the
// process-wide one.
func WithAllocator[T tree.Hierarchical[T]](a *tree.IDAllocator) Option[T] {
	return func(m *Model[T]) { m.alloc = a }
}

// Model owns the tree, its identity map and the value-keyed view state.
type Model[T tree.Hierarchical[T]] struct {
	tree       *tree.Tree[T]
	alloc      *tree.IDAllocator
	cmp        func(a, b T) int
	autoSort   bool
	sortValues bool
	columns    int
	hooks      Hooks

	selection  []T
	expansion  []T
	current    T
	hasCurrent bool
}

// New creates an empty model.
func New[T tree.Hierarchical[T]](opts ...Option[T]) *Model[T] {
	m := &Model[T]{
		cmp:      tree.OrderedComparator[T](),
		autoSort: true,
		columns:  1,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.alloc != nil {
		m.tree = tree.NewWithAllocator[T](m.alloc)
	} else {
		m.tree = tree.New[T]()
	}
	return m
}

// SetHooks replaces the change notification hooks.
func (m *Model[T]) SetHooks(h Hooks) {
	m.hooks = h
}

// SetAutoSort toggles re-sorting after every Add and Set.
func (m *Model[T]) SetAutoSort(on bool) {
	m.autoSort = on
}

// SetSortValues toggles pre-sorting of incoming batches. It only affects the
// relative order in which new siblings are created; with auto-sort off,
// existing nodes move only when Sort runs.
func (m *Model[T]) SetSortValues(on bool) {
	m.sortValues = on
}

// SortValues reports whether incoming batches are pre-sorted.
func (m *Model[T]) SortValues() bool {
	return m.sortValues
}

// SetComparator replaces the sibling order. Call Sort to apply it to the
// existing tree.
func (m *Model[T]) SetComparator(cmp func(a, b T) int) {
	m.cmp = cmp
}

// Tree exposes the underlying tree for inspection. Mutating it directly
// bypasses hooks and state bookkeeping.
func (m *Model[T]) Tree() *tree.Tree[T] {
	return m.tree
}

func (m *Model[T]) mutate(fn func()) {
	if m.hooks.BeginMutation != nil {
		m.hooks.BeginMutation()
	}
	fn()
	if m.hooks.EndMutation != nil {
		m.hooks.EndMutation()
	}
}

func (m *Model[T]) sortTree() {
	if m.cmp != nil {
		m.tree.Root().Sort(m.cmp)
	}
}

func (m *Model[T]) autoSortTree() {
	if m.autoSort {
		m.sortTree()
	}
}

func (m *Model[T]) batch(values []T) []T {
	b := slices.Clone(values)
	if m.sortValues && m.cmp != nil {
		slices.SortStableFunc(b, m.cmp)
	}
	return b
}

// Add merges a single value into the tree.
func (m *Model[T]) Add(v T) {
	m.AddAll([]T{v})
}

// AddAll merges values into the tree without discarding anything: values
// matching existing nodes update them in place, the rest are inserted where
// the relation places them.
func (m *Model[T]) AddAll(values []T) {
	m.mutate(func() {
		b := m.batch(values)
		root := m.tree.Root()
		root.Update(&b)
		root.AddAll(b)
		m.tree.Reindex()
		m.autoSortTree()
	})
}

// Set makes the tree hold exactly values and their inferred hierarchy. Nodes
// whose value is still present and whose placement is unchanged keep their
// identity.
func (m *Model[T]) Set(values []T) {
	m.mutate(func() {
		b := m.batch(values)
		root := m.tree.Root()
		root.Set(&b)
		root.AddAll(b)
		m.tree.Reindex()
		m.autoSortTree()
		m.syncState()
	})
}

// SetUnder is Set scoped to the subtree of the node holding anchor. Values the
// relation cannot place below the anchor are ignored. It returns false, and
// does nothing, when anchor is not in the tree.
func (m *Model[T]) SetUnder(anchor T, values []T) bool {
	n, ok := m.tree.Root().Find(anchor)
	if !ok {
		return false
	}
	m.mutate(func() {
		b := m.batch(values)
		n.Set(&b)
		n.AddAll(b)
		m.tree.Reindex()
		m.autoSortTree()
		m.syncState()
	})
	return true
}

// Replace swaps the payload of the node holding from for to, keeping the
// node and its ID. Value-keyed state referring to from is rewritten.
func (m *Model[T]) Replace(from, to T) bool {
	n, ok := m.tree.Root().Find(from)
	if !ok {
		return false
	}
	n.SetValue(to)
	rewrite := func(list []T) {
		for i, v := range list {
			if v.Equal(from) {
				list[i] = to
			}
		}
	}
	rewrite(m.selection)
	rewrite(m.expansion)
	if m.hasCurrent && m.current.Equal(from) {
		m.current = to
	}
	if m.hooks.ValueChanged != nil {
		m.hooks.ValueChanged(m.indexOf(n))
	}
	return true
}

// Remove deletes every node holding v, with their subtrees.
func (m *Model[T]) Remove(v T) bool {
	return m.RemoveAll([]T{v}) > 0
}

// RemoveAll deletes every node matching one of values and returns how many
// subtrees were removed. Removed values, descendants included, leave the
// selection, the expansion set and the current item. The identity map is
// rebuilt afterwards.
func (m *Model[T]) RemoveAll(values []T) int {
	root := m.tree.Root()
	present := slices.ContainsFunc(values, func(v T) bool {
		_, ok := root.Find(v)
		return ok
	})
	if !present {
		return 0
	}

	removed := 0
	m.mutate(func() {
		for _, v := range values {
			for {
				n, ok := root.Find(v)
				if !ok {
					break
				}
				gone := append(n.ChildValues(), n.Value())
				n.Remove()
				m.dropState(gone)
				removed++
			}
		}
		m.tree.Reindex()
	})
	return removed
}

// ResetTree rebuilds the whole tree from its own flattened values. Use it when
// the inputs of the relation changed behind the model's back. Every node gets
// a new ID; value-keyed state is kept.
func (m *Model[T]) ResetTree() {
	m.mutate(func() {
		values := m.tree.Root().ChildValues()
		m.tree.Reset()
		m.tree.Root().AddAll(values)
		m.autoSortTree()
	})
}

// Clear discards every node and all view state.
func (m *Model[T]) Clear() {
	m.mutate(func() {
		m.tree.Reset()
		m.selection = nil
		m.expansion = nil
		m.ClearCurrent()
	})
}

// Sort re-applies the sibling order to the whole tree.
func (m *Model[T]) Sort() {
	m.mutate(m.sortTree)
}

// Values returns every value in pre-order.
func (m *Model[T]) Values() []T {
	return m.tree.Root().ChildValues()
}

// Len returns the number of values in the tree.
func (m *Model[T]) Len() int {
	return m.tree.Len()
}

// Find returns the node holding v.
func (m *Model[T]) Find(v T) (tree.Node[T], bool) {
	return m.tree.Root().Find(v)
}

// Contains reports whether v is in the tree.
func (m *Model[T]) Contains(v T) bool {
	_, ok := m.Find(v)
	return ok
}

// NodeID returns the ID of the node holding v.
func (m *Model[T]) NodeID(v T) (tree.ID, bool) {
	n, ok := m.Find(v)
	if !ok {
		return tree.RootID, false
	}
	return n.ID(), true
}

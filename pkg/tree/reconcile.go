package tree

import "slices"

// Add places v under the deepest existing node it is a child of. Children are
// searched before the node itself, so a value is never attached higher than
// necessary. The root accepts values nothing else claims; any other node with
// no match returns false.
//
// Add does not deduplicate: adding a value that is already present creates a
// second node for it.
func (n Node[T]) Add(v T) bool {
	_, ok := n.add(v)
	return ok
}

func (n Node[T]) add(v T) (Node[T], bool) {
	if !n.Valid() {
		return Node[T]{}, false
	}
	for i := 0; i < n.ChildCount(); i++ {
		c, _ := n.Child(i)
		if placed, ok := c.add(v); ok {
			return placed, true
		}
	}
	if n.IsRoot() || v.IsChildOf(n.Value()) {
		return n.appendChild(v), true
	}
	return Node[T]{}, false
}

func (n Node[T]) appendChild(v T) Node[T] {
	h := n.t.newNode(n.h, v)
	s := n.slot()
	s.children = append(s.children, h)
	return Node[T]{t: n.t, h: h}
}

// AddAll inserts values so that a value whose parent is also being inserted
// lands after that parent, whatever the input order. Values taking part in a
// relation cycle are inserted in input order. It returns the values no node
// accepted, which can only happen when n is not the root.
func (n Node[T]) AddAll(values []T) []T {
	claimers := make([][]int, len(values))
	for i, v := range values {
		for j, u := range values {
			if i != j && !v.Equal(u) && v.IsChildOf(u) {
				claimers[i] = append(claimers[i], j)
			}
		}
	}

	const (
		pending = iota
		visiting
		done
	)
	state := make([]int, len(values))
	var rejected []T
	var place func(i int)
	place = func(i int) {
		if state[i] != pending {
			return
		}
		state[i] = visiting
		for _, j := range claimers[i] {
			place(j)
		}
		state[i] = done
		if !n.Add(values[i]) {
			rejected = append(rejected, values[i])
		}
	}
	for i := range values {
		place(i)
	}
	return rejected
}

// Set reconciles the subtree below n against values.
//
// Each child whose value is found in values, and for which the relation still
// holds against n, takes the new payload, consumes the value and recurses.
// Every other child is pruned together with its subtree. Values that match
// nothing are left in values for the caller to insert.
func (n Node[T]) Set(values *[]T) {
	n.reconcile(values, true, n.rootHolds(*values, false))
}

// Update is the non-destructive counterpart of Set: children whose value is
// not in values survive and are still recursed into. A matched child whose
// relation changed is pruned; its descendants' values are appended to values
// so that the caller's insertion pass re-places them.
func (n Node[T]) Update(values *[]T) {
	n.reconcile(values, false, n.rootHolds(*values, true))
}

// rootHolds returns the placement check used for top-level children: a value
// stays at the top while nothing in the batch (and, for updates, nothing else
// in the tree) claims it as a child. A claimer is ignored only when it already
// sits in the candidate's subtree and the batch itself closes a cycle back to
// the candidate; an old descendant that is now the candidate's parent still
// counts.
func (n Node[T]) rootHolds(batch []T, includeTree bool) func(Node[T], T) bool {
	if !n.IsRoot() {
		return nil
	}
	pool := slices.Clone(batch)
	if includeTree {
		for _, v := range n.ChildValues() {
			if indexOf(pool, v) < 0 {
				pool = append(pool, v)
			}
		}
	}
	return func(c Node[T], v T) bool {
		var inSubtree []T
		for _, u := range pool {
			if u.Equal(v) || !v.IsChildOf(u) {
				continue
			}
			if inSubtree == nil {
				inSubtree = append(c.ChildValues(), v)
			}
			if indexOf(inSubtree, u) < 0 || !claimedBy(pool, u, v) {
				return false
			}
		}
		return true
	}
}

// claimedBy reports whether v is an ancestor of u under the relation as the
// values in pool declare it.
func claimedBy[T Hierarchical[T]](pool []T, u, v T) bool {
	seen := []T{u}
	queue := []T{u}
	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]
		for _, p := range pool {
			if p.Equal(w) || !w.IsChildOf(p) {
				continue
			}
			if p.Equal(v) {
				return true
			}
			if indexOf(seen, p) < 0 {
				seen = append(seen, p)
				queue = append(queue, p)
			}
		}
	}
	return false
}

func (n Node[T]) reconcile(values *[]T, prune bool, atRoot func(Node[T], T) bool) {
	for i := 0; i < n.ChildCount(); {
		c, _ := n.Child(i)
		idx := indexOf(*values, c.Value())
		if idx < 0 {
			if prune {
				n.RemoveRow(i)
				continue
			}
			c.reconcile(values, false, nil)
			i++
			continue
		}

		v := (*values)[idx]
		var holds bool
		if atRoot != nil {
			holds = atRoot(c, v)
		} else {
			holds = v.IsChildOf(n.Value())
		}
		if !holds {
			if !prune {
				for _, d := range c.ChildValues() {
					if indexOf(*values, d) < 0 {
						*values = append(*values, d)
					}
				}
			}
			n.RemoveRow(i)
			continue
		}

		c.SetValue(v)
		*values = slices.Delete(*values, idx, idx+1)
		c.reconcile(values, prune, nil)
		i++
	}
}

// RemoveRow deletes the child at row and its subtree.
func (n Node[T]) RemoveRow(row int) bool {
	s := n.slot()
	if s == nil || row < 0 || row >= len(s.children) {
		return false
	}
	h := s.children[row]
	s.children = slices.Delete(s.children, row, row+1)
	n.t.release(h)
	return true
}

// Remove detaches n from its parent and frees its subtree. The root cannot be
// removed.
func (n Node[T]) Remove() bool {
	p, ok := n.Parent()
	if !ok {
		return false
	}
	return p.RemoveRow(n.Row())
}

// ChildValues flattens every descendant value in pre-order, excluding n.
func (n Node[T]) ChildValues() []T {
	var out []T
	n.Walk(func(c Node[T]) bool {
		out = append(out, c.Value())
		return true
	})
	return out
}

// Sort stably orders every level below n. A level is ordered before its
// children are visited, so reordering a parent never perturbs the relative
// order of grandchildren.
func (n Node[T]) Sort(cmp func(a, b T) int) {
	s := n.slot()
	if s == nil || cmp == nil {
		return
	}
	slots := n.t.slots
	slices.SortStableFunc(s.children, func(a, b Handle) int {
		return cmp(slots[a.index].value, slots[b.index].value)
	})
	for _, c := range n.Children() {
		c.Sort(cmp)
	}
}

// SortOrdered sorts using the values' own Compare method. It is a no-op when T
// does not implement Ordered.
func (n Node[T]) SortOrdered() {
	if cmp := OrderedComparator[T](); cmp != nil {
		n.Sort(cmp)
	}
}

// OrderedComparator returns T's Compare method as a comparator, or nil when T
// does not implement Ordered.
func OrderedComparator[T any]() func(a, b T) int {
	var zero T
	if _, ok := any(zero).(Ordered[T]); !ok {
		return nil
	}
	return func(a, b T) int {
		return any(a).(Ordered[T]).Compare(b)
	}
}

// Find searches n and its descendants depth-first for a node holding a value
// Equal to v. The root's own value never matches.
func (n Node[T]) Find(v T) (Node[T], bool) {
	if !n.Valid() {
		return Node[T]{}, false
	}
	if !n.IsRoot() && n.Value().Equal(v) {
		return n, true
	}
	for _, c := range n.Children() {
		if found, ok := c.Find(v); ok {
			return found, true
		}
	}
	return Node[T]{}, false
}

func indexOf[T Hierarchical[T]](values []T, v T) int {
	return slices.IndexFunc(values, func(u T) bool { return u.Equal(v) })
}

// Package analysis inspects the parent-child graph behind the tree: cycles,
// dangling parents and depth, plus a content hash for change detection.
package analysis

import (
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/beadtree/pkg/model"
)

// HierarchyGraph is the parent-child relation as a directed graph with an
// edge from every child to each parent it declares.
type HierarchyGraph struct {
	g      *simple.DirectedGraph
	keys   []string
	ids    map[string]int64
	issues map[string]model.Issue

	dangling    []string
	multiParent []string
	cycles      [][]string
	cyclesDone  bool
}

// NewHierarchyGraph indexes issues. Parents that are not among issues are
// recorded as dangling rather than added to the graph.
func NewHierarchyGraph(issues []model.Issue) *HierarchyGraph {
	h := &HierarchyGraph{
		g:      simple.NewDirectedGraph(),
		ids:    make(map[string]int64, len(issues)),
		issues: make(map[string]model.Issue, len(issues)),
	}
	for _, issue := range issues {
		key := issue.Key()
		if _, dup := h.ids[key]; dup {
			continue
		}
		id := int64(len(h.keys))
		h.ids[key] = id
		h.keys = append(h.keys, key)
		h.issues[key] = issue
		h.g.AddNode(simple.Node(id))
	}

	for _, key := range h.keys {
		issue := h.issues[key]
		parents, dangling := 0, false
		for _, pid := range issue.ParentIDs() {
			pkey := model.Issue{ID: pid, SourceRepo: issue.SourceRepo}.Key()
			to, ok := h.ids[pkey]
			if !ok {
				dangling = true
				continue
			}
			from := h.ids[key]
			if from == to || h.g.HasEdgeFromTo(from, to) {
				continue
			}
			parents++
			h.g.SetEdge(h.g.NewEdge(simple.Node(from), simple.Node(to)))
		}
		if dangling {
			h.dangling = append(h.dangling, key)
		}
		if parents > 1 {
			h.multiParent = append(h.multiParent, key)
		}
	}
	return h
}

// Cycles returns every elementary parent-child cycle as a list of issue keys,
// each rotated to start at its smallest key. Self-parenting issues are not
// reported here; the relation already refuses them.
func (h *HierarchyGraph) Cycles() [][]string {
	if !h.cyclesDone {
		h.cycles = h.findCycles()
		h.cyclesDone = true
	}
	return slices.Clone(h.cycles)
}

func (h *HierarchyGraph) findCycles() [][]string {
	var out [][]string
	for _, cyc := range topo.DirectedCyclesIn(h.g) {
		if len(cyc) < 2 {
			continue
		}
		keys := make([]string, 0, len(cyc)-1)
		for _, n := range cyc[:len(cyc)-1] {
			keys = append(keys, h.keys[n.ID()])
		}
		first := 0
		for i, k := range keys {
			if k < keys[first] {
				first = i
			}
		}
		out = append(out, append(keys[first:], keys[:first]...))
	}
	slices.SortFunc(out, func(a, b []string) int { return slices.Compare(a, b) })
	return out
}

// InCycle reports whether key takes part in any parent-child cycle.
func (h *HierarchyGraph) InCycle(key string) bool {
	for _, cyc := range h.Cycles() {
		if slices.Contains(cyc, key) {
			return true
		}
	}
	return false
}

// Dangling returns the keys of issues declaring a parent that is not loaded.
// Such issues show up at the top level.
func (h *HierarchyGraph) Dangling() []string {
	return slices.Clone(h.dangling)
}

// MultiParent returns the keys of issues with more than one loaded parent.
func (h *HierarchyGraph) MultiParent() []string {
	return slices.Clone(h.multiParent)
}

// Stats summarizes the hierarchy.
type Stats struct {
	Issues      int `json:"issues"`
	Roots       int `json:"roots"`
	MaxDepth    int `json:"max_depth"`
	Dangling    int `json:"dangling"`
	MultiParent int `json:"multi_parent"`
	Cycles      int `json:"cycles"`
}

// Stats computes the summary. Depth counts parent hops from a root, so a
// flat list has MaxDepth 0. Issues in or below a cycle do not contribute.
func (h *HierarchyGraph) Stats() Stats {
	s := Stats{
		Issues:      len(h.keys),
		Dangling:    len(h.dangling),
		MultiParent: len(h.multiParent),
		Cycles:      len(h.Cycles()),
	}

	const (
		unvisited = iota
		visiting
		finished
	)
	state := make([]int, len(h.keys))
	depth := make([]int, len(h.keys))
	var visit func(id int64) (int, bool)
	visit = func(id int64) (int, bool) {
		switch state[id] {
		case visiting:
			return 0, false
		case finished:
			return depth[id], depth[id] >= 0
		}
		state[id] = visiting
		d, ok := 0, true
		parents := h.g.From(id)
		for parents.Next() {
			pd, pok := visit(parents.Node().ID())
			if !pok {
				ok = false
				continue
			}
			d = max(d, pd+1)
		}
		state[id] = finished
		if !ok {
			depth[id] = -1
			return 0, false
		}
		depth[id] = d
		return d, true
	}

	for id := range h.keys {
		if h.g.From(int64(id)).Len() == 0 {
			s.Roots++
		}
		if d, ok := visit(int64(id)); ok {
			s.MaxDepth = max(s.MaxDepth, d)
		}
	}
	return s
}

// HierarchyCycles is a shortcut for NewHierarchyGraph(issues).Cycles().
func HierarchyCycles(issues []model.Issue) [][]string {
	return NewHierarchyGraph(issues).Cycles()
}

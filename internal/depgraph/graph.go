// Package depgraph implements the DPOR dependency graph: an arena of
// model.Unique nodes indexed by id, each storing a single parent edge and a
// sorted set of children, plus the QuiescentPeriod tagging used by the
// co-enabledness test.
//
// The arena-by-id design mirrors the teacher's internal/dag.TaskGraph,
// which also stores nodes once, keyed by a stable canonical index, with
// incoming/outgoing adjacency as plain int slices rather than pointer
// graphs.
package depgraph

import (
	"fmt"
	"sort"

	"dporsched/internal/model"
)

// node is an arena entry. parentID is RootID for direct children of the
// sentinel root.
type node struct {
	unique   model.Unique
	parentID uint64
	hasParent bool
	children []uint64 // sorted ascending
}

// Graph is the DPOR dependency graph. It is rooted at model.RootUnique and
// is acyclic by construction: every insertion adds exactly one edge
// child -> parent, and ids are allocated monotonically so no back-edge to
// an existing id can be created.
//
// Graph is not safe for concurrent use; it is owned exclusively by the
// scheduler driver (spec §5).
type Graph struct {
	nodes      map[uint64]*node
	quiescence map[uint64]uint32
}

// New returns a Graph containing only the sentinel root.
func New() *Graph {
	g := &Graph{
		nodes:      make(map[uint64]*node),
		quiescence: make(map[uint64]uint32),
	}
	g.nodes[model.RootID] = &node{unique: model.RootUnique}
	g.quiescence[model.RootID] = 0
	return g
}

// AddChild inserts u as a node with a single outgoing edge to parent. It is
// an error to insert an id that already exists with a different parent
// (insertion is expected to be idempotent for the same (id, parent) pair,
// which happens when GetOrCreateMessage returns an existing sibling).
func (g *Graph) AddChild(u model.Unique, parent model.Unique, epoch uint32) error {
	if existing, ok := g.nodes[u.ID]; ok && u.ID != model.RootID {
		if existing.parentID != parent.ID {
			return fmt.Errorf("depgraph: node %d already has parent %d, cannot reparent to %d", u.ID, existing.parentID, parent.ID)
		}
		return nil
	}
	if _, ok := g.nodes[parent.ID]; !ok {
		return fmt.Errorf("depgraph: parent %d not present in graph", parent.ID)
	}
	n := &node{unique: u, parentID: parent.ID, hasParent: true}
	g.nodes[u.ID] = n
	g.quiescence[u.ID] = epoch

	pn := g.nodes[parent.ID]
	idx := sort.Search(len(pn.children), func(i int) bool { return pn.children[i] >= u.ID })
	if idx == len(pn.children) || pn.children[idx] != u.ID {
		pn.children = append(pn.children, 0)
		copy(pn.children[idx+1:], pn.children[idx:])
		pn.children[idx] = u.ID
	}
	return nil
}

// AddOrphan inserts u as a node with no parent edge (NetworkPartition and
// WaitQuiescence markers are inserted this way, per the data model).
func (g *Graph) AddOrphan(u model.Unique, epoch uint32) {
	if _, ok := g.nodes[u.ID]; ok {
		return
	}
	g.nodes[u.ID] = &node{unique: u}
	g.quiescence[u.ID] = epoch
}

// Has reports whether id is present in the graph.
func (g *Graph) Has(id uint64) bool {
	_, ok := g.nodes[id]
	return ok
}

// Unique returns the Unique stored for id.
func (g *Graph) Unique(id uint64) (model.Unique, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return model.Unique{}, false
	}
	return n.unique, true
}

// Parent returns the parent id of id, if any.
func (g *Graph) Parent(id uint64) (uint64, bool) {
	n, ok := g.nodes[id]
	if !ok || !n.hasParent {
		return 0, false
	}
	return n.parentID, true
}

// Children returns the sorted child ids of id.
func (g *Graph) Children(id uint64) []uint64 {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]uint64, len(n.children))
	copy(out, n.children)
	return out
}

// Siblings returns the sibling ids sharing the given parent id (i.e. the
// parent's children), used by GetOrCreateMessage's sibling lookup.
func (g *Graph) Siblings(parentID uint64) []uint64 {
	return g.Children(parentID)
}

// QuiescentEpoch returns the quiescence tag recorded for id.
func (g *Graph) QuiescentEpoch(id uint64) (uint32, bool) {
	e, ok := g.quiescence[id]
	return e, ok
}

// PathToRoot returns the ids from id up to and including the root, in
// ascending-distance order (id first, RootID last).
func (g *Graph) PathToRoot(id uint64) []uint64 {
	var path []uint64
	cur := id
	for {
		path = append(path, cur)
		if cur == model.RootID {
			return path
		}
		parent, ok := g.Parent(cur)
		if !ok {
			return path
		}
		cur = parent
	}
}

// HasPath reports whether there is a directed path from `from` to `to`
// following parent edges (i.e. `to` is a causal ancestor of `from`).
func (g *Graph) HasPath(from, to uint64) bool {
	cur := from
	for {
		if cur == to {
			return true
		}
		if cur == model.RootID {
			return false
		}
		parent, ok := g.Parent(cur)
		if !ok {
			return false
		}
		cur = parent
	}
}

// LastSharedAncestor returns the id of the deepest node that is an ancestor
// of both a and b (possibly the root itself).
func (g *Graph) LastSharedAncestor(a, b uint64) uint64 {
	ancestorsA := g.PathToRoot(a)
	seen := make(map[uint64]int, len(ancestorsA))
	for i, id := range ancestorsA {
		seen[id] = i
	}
	for _, id := range g.PathToRoot(b) {
		if _, ok := seen[id]; ok {
			return id
		}
	}
	return model.RootID
}

// CheckInvariants verifies invariant 1 from SPEC_FULL.md §3: every
// non-root node has exactly one outgoing parent edge reaching the root
// (i.e. PathToRoot terminates), and invariant 4: every node has a
// quiescence tag. It is used by tests and by the engine's fatal-error path.
func (g *Graph) CheckInvariants() error {
	for id, n := range g.nodes {
		if id == model.RootID {
			continue
		}
		if _, ok := g.quiescence[id]; !ok {
			return fmt.Errorf("depgraph: node %d missing quiescence tag", id)
		}
		if !n.hasParent {
			continue // orphan (partition/quiescence marker) is allowed to lack a parent edge
		}
		path := g.PathToRoot(id)
		if path[len(path)-1] != model.RootID {
			return fmt.Errorf("depgraph: node %d does not reach root", id)
		}
	}
	return nil
}

// Size returns the number of nodes in the graph, including the root.
func (g *Graph) Size() int { return len(g.nodes) }

package graph

import (
	"slices"
	"sort"
)

type slot struct {
	node Node
	live bool
	out  []Edge // discovery order
}

// Graph is a directed multigraph of include occurrences over registry nodes.
// It performs no cycle rejection; traversals bound themselves.
type Graph struct {
	reg     *Registry
	slots   []slot
	edgeSeq uint64
}

// New creates an empty Graph with its own Registry.
func New() *Graph {
	return &Graph{reg: NewRegistry()}
}

// Registry exposes the path registry backing the graph.
func (g *Graph) Registry() *Registry {
	return g.reg
}

func (g *Graph) slot(id NodeID) *slot {
	if int(id) >= len(g.slots) {
		return nil
	}
	s := &g.slots[id]
	if !s.live {
		return nil
	}
	return s
}

// Ensure returns the node for path, creating it when absent.
// The flag reports whether a node was created.
func (g *Graph) Ensure(path string) (NodeID, bool) {
	id := g.reg.Intern(path)
	for int(id) >= len(g.slots) {
		g.slots = append(g.slots, slot{})
	}
	s := &g.slots[id]
	if s.live {
		return id, false
	}
	*s = slot{
		node: Node{ID: id, Path: g.reg.MustLookup(id)},
		live: true,
	}
	return id, true
}

// Find returns the live node for path.
func (g *Graph) Find(path string) (NodeID, bool) {
	id, ok := g.reg.Find(path)
	if !ok || g.slot(id) == nil {
		return 0, false
	}
	return id, true
}

// Node returns a copy of the node state.
func (g *Graph) Node(id NodeID) (Node, bool) {
	s := g.slot(id)
	if s == nil {
		return Node{}, false
	}
	return s.node, true
}

// Path returns the canonical path of any id ever handed out, live or not.
func (g *Graph) Path(id NodeID) string {
	p, _ := g.reg.Lookup(id)
	return p
}

// SetExists records whether the file was readable at its last scan.
func (g *Graph) SetExists(id NodeID, exists bool) {
	if s := g.slot(id); s != nil {
		s.node.Exists = exists
	}
}

// MarkEntry tags the node as a program entry for stage.
func (g *Graph) MarkEntry(id NodeID, stage Stage) {
	if s := g.slot(id); s != nil {
		s.node.Roles |= RoleEntry
		s.node.Stage = stage
	}
}

// AddEdge appends one include occurrence. Duplicate pairs are kept.
func (g *Graph) AddEdge(from, to NodeID, line, colStart, colEnd int) bool {
	src, dst := g.slot(from), g.slot(to)
	if src == nil || dst == nil {
		return false
	}
	g.edgeSeq++
	src.out = append(src.out, Edge{
		From:     from,
		To:       to,
		Line:     line,
		ColStart: colStart,
		ColEnd:   colEnd,
		seq:      g.edgeSeq,
	})
	dst.node.Roles |= RoleInclude
	return true
}

// ClearEdges drops every outgoing edge of from.
func (g *Graph) ClearEdges(from NodeID) {
	if s := g.slot(from); s != nil {
		s.out = nil
	}
}

// OutEdges returns the outgoing edges of from ordered by line, ties broken by
// discovery order.
func (g *Graph) OutEdges(from NodeID) []Edge {
	s := g.slot(from)
	if s == nil {
		return nil
	}
	out := slices.Clone(s.out)
	sortEdges(out)
	return out
}

// EdgesBetween returns every occurrence of child inside parent, ordered by line.
func (g *Graph) EdgesBetween(parent, child NodeID) []Edge {
	s := g.slot(parent)
	if s == nil {
		return nil
	}
	var out []Edge
	for _, e := range s.out {
		if e.To == child {
			out = append(out, e)
		}
	}
	sortEdges(out)
	return out
}

func sortEdges(edges []Edge) {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Line != edges[j].Line {
			return edges[i].Line < edges[j].Line
		}
		return edges[i].seq < edges[j].seq
	})
}

// Successors returns the distinct nodes included by id, ascending.
func (g *Graph) Successors(id NodeID) []NodeID {
	s := g.slot(id)
	if s == nil {
		return nil
	}
	seen := make(map[NodeID]struct{}, len(s.out))
	out := make([]NodeID, 0, len(s.out))
	for _, e := range s.out {
		if _, dup := seen[e.To]; dup {
			continue
		}
		seen[e.To] = struct{}{}
		out = append(out, e.To)
	}
	slices.Sort(out)
	return out
}

// Parents returns the distinct live nodes that include id, ascending.
func (g *Graph) Parents(id NodeID) []NodeID {
	var out []NodeID
	for i := range g.slots {
		s := &g.slots[i]
		if !s.live {
			continue
		}
		for _, e := range s.out {
			if e.To == id {
				out = append(out, s.node.ID)
				break
			}
		}
	}
	return out
}

// Ancestors returns id and every node that transitively includes it.
// Cycles are visited once.
func (g *Graph) Ancestors(id NodeID) []NodeID {
	if g.slot(id) == nil {
		return nil
	}
	visited := map[NodeID]struct{}{id: {}}
	queue := []NodeID{id}
	out := []NodeID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range g.Parents(cur) {
			if _, ok := visited[p]; ok {
				continue
			}
			visited[p] = struct{}{}
			out = append(out, p)
			queue = append(queue, p)
		}
	}
	slices.Sort(out)
	return out
}

// Remove handles an explicit delete of the node's file. Outgoing edges and
// the entry role are dropped. While other files still include it, the node
// stays as a missing placeholder so their edges keep a target; otherwise it
// leaves the graph.
func (g *Graph) Remove(id NodeID) bool {
	s := g.slot(id)
	if s == nil {
		return false
	}
	s.out = nil
	s.node.Exists = false
	s.node.Roles &^= RoleEntry
	s.node.Stage = StageUnknown
	if len(g.Parents(id)) > 0 {
		return true
	}
	s.live = false
	return true
}

// Nodes returns all live nodes ordered by id.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.slots))
	for i := range g.slots {
		if g.slots[i].live {
			out = append(out, g.slots[i].node)
		}
	}
	return out
}

// Entries returns all live entry nodes ordered by id.
func (g *Graph) Entries() []Node {
	var out []Node
	for _, n := range g.Nodes() {
		if n.IsEntry() {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns every edge, grouped by source id and ordered by line.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for i := range g.slots {
		if !g.slots[i].live {
			continue
		}
		out = append(out, g.OutEdges(g.slots[i].node.ID)...)
	}
	return out
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int {
	n := 0
	for i := range g.slots {
		if g.slots[i].live {
			n++
		}
	}
	return n
}

// EdgeCount returns the number of include occurrences.
func (g *Graph) EdgeCount() int {
	n := 0
	for i := range g.slots {
		if g.slots[i].live {
			n += len(g.slots[i].out)
		}
	}
	return n
}

// Clear removes every node and edge. Registry ids stay valid.
func (g *Graph) Clear() {
	g.slots = nil
}

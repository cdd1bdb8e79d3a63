package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"shaderls/internal/graph"
	"shaderls/internal/merge"
)

// CheckGraphInvariants runs the structural checks every graph must pass:
// 1) each node's id and path round-trip through the registry
// 2) every edge joins two live nodes and has sane columns
// 3) every edge target is marked as an include
func CheckGraphInvariants(g *graph.Graph) error {
	if g == nil {
		return fmt.Errorf("nil graph")
	}
	reg := g.Registry()
	nodes := g.Nodes()
	if len(nodes) != g.NodeCount() {
		return fmt.Errorf("node count %d, listed %d", g.NodeCount(), len(nodes))
	}
	for _, n := range nodes {
		idx, err := safecast.Conv[int](n.ID)
		if err != nil {
			return fmt.Errorf("node id overflow: %w", err)
		}
		if idx >= reg.Len() {
			return fmt.Errorf("node %d beyond registry of %d", n.ID, reg.Len())
		}
		if p, ok := reg.Lookup(n.ID); !ok || p != n.Path {
			return fmt.Errorf("registry maps %d to %q, node has %q", n.ID, p, n.Path)
		}
		if id, ok := g.Find(n.Path); !ok || id != n.ID {
			return fmt.Errorf("find %q returned %d, want %d", n.Path, id, n.ID)
		}
	}

	edges := g.Edges()
	if len(edges) != g.EdgeCount() {
		return fmt.Errorf("edge count %d, listed %d", g.EdgeCount(), len(edges))
	}
	for _, e := range edges {
		if _, ok := g.Node(e.From); !ok {
			return fmt.Errorf("edge from dead node %d", e.From)
		}
		to, ok := g.Node(e.To)
		if !ok {
			return fmt.Errorf("edge to dead node %d", e.To)
		}
		if !to.IsInclude() {
			return fmt.Errorf("%s is included but not marked as an include", to.Path)
		}
		if e.Line < 0 || e.ColStart < 0 || e.ColEnd < e.ColStart {
			return fmt.Errorf("bad edge position %d:%d-%d", e.Line, e.ColStart, e.ColEnd)
		}
	}
	return nil
}

// CheckTableInvariants verifies a merge file table against its graph: the
// entry comes first, every id resolves and every path is a graph node.
func CheckTableInvariants(g *graph.Graph, table *merge.FileTable, entry string) error {
	if table == nil {
		return fmt.Errorf("nil table")
	}
	if table.Entry() != entry {
		return fmt.Errorf("table entry %q, want %q", table.Entry(), entry)
	}
	for id := range table.Len() {
		p, ok := table.Path(id)
		if !ok {
			return fmt.Errorf("table id %d does not resolve", id)
		}
		if _, ok := g.Find(p); !ok {
			return fmt.Errorf("table path %q is not in the graph", p)
		}
		if got, ok := table.Resolve(fmt.Sprint(id)); !ok || got != p {
			return fmt.Errorf("token %d resolves to %q, want %q", id, got, p)
		}
	}
	return nil
}

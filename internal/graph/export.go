package graph

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is a serializable copy of the graph used by `shaderls graph`.
type Snapshot struct {
	Root  string         `msgpack:"root"`
	Nodes []SnapshotNode `msgpack:"nodes"`
	Edges []SnapshotEdge `msgpack:"edges"`
}

// SnapshotNode mirrors Node with a path relative to the snapshot root.
type SnapshotNode struct {
	ID     uint32 `msgpack:"id"`
	Path   string `msgpack:"path"`
	Exists bool   `msgpack:"exists"`
	Entry  bool   `msgpack:"entry"`
	Stage  string `msgpack:"stage,omitempty"`
}

// SnapshotEdge mirrors Edge.
type SnapshotEdge struct {
	From     uint32 `msgpack:"from"`
	To       uint32 `msgpack:"to"`
	Line     int    `msgpack:"line"`
	ColStart int    `msgpack:"col_start"`
	ColEnd   int    `msgpack:"col_end"`
}

// Snapshot captures the live graph. Paths under root are made relative.
func (g *Graph) Snapshot(root string) Snapshot {
	snap := Snapshot{Root: root}
	for _, n := range g.Nodes() {
		sn := SnapshotNode{
			ID:     uint32(n.ID),
			Path:   displayPath(root, n.Path),
			Exists: n.Exists,
			Entry:  n.IsEntry(),
		}
		if n.IsEntry() {
			sn.Stage = n.Stage.String()
		}
		snap.Nodes = append(snap.Nodes, sn)
	}
	for _, e := range g.Edges() {
		snap.Edges = append(snap.Edges, SnapshotEdge{
			From:     uint32(e.From),
			To:       uint32(e.To),
			Line:     e.Line,
			ColStart: e.ColStart,
			ColEnd:   e.ColEnd,
		})
	}
	return snap
}

// WriteMsgpack encodes the graph snapshot as msgpack.
func (g *Graph) WriteMsgpack(w io.Writer, root string) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(g.Snapshot(root)); err != nil {
		return fmt.Errorf("encode graph snapshot: %w", err)
	}
	return nil
}

// Dot renders the graph in GraphViz DOT form.
func (g *Graph) Dot(root string) string {
	var b strings.Builder
	b.WriteString("digraph {\n")
	b.WriteString("\tgraph [splines=ortho]\n")
	b.WriteString("\tnode [shape=box]\n")
	for _, n := range g.Nodes() {
		attrs := fmt.Sprintf("label = %q", displayPath(root, n.Path))
		if n.IsEntry() {
			attrs += ", style = bold"
		}
		if !n.Exists {
			attrs += ", style = dashed"
		}
		fmt.Fprintf(&b, "\t%d [ %s ]\n", n.ID, attrs)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "\t%d -> %d [ label = %q ]\n", e.From, e.To, e.String())
	}
	b.WriteString("}\n")
	return b.String()
}

func displayPath(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

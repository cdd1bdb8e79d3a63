package driver

import "shaderls/internal/graph"

// Link is a navigable include directive.
type Link struct {
	Line     int
	ColStart int
	ColEnd   int
	Target   string
	Exists   bool
}

// Links returns one link per include occurrence in path, ordered by line.
func (d *Driver) Links(path string) []Link {
	id, ok := d.graph.Find(path)
	if !ok {
		return nil
	}
	edges := d.graph.OutEdges(id)
	out := make([]Link, 0, len(edges))
	for _, e := range edges {
		out = append(out, Link{
			Line:     e.Line,
			ColStart: e.ColStart,
			ColEnd:   e.ColEnd,
			Target:   d.graph.Path(e.To),
			Exists:   d.exists(e.To),
		})
	}
	return out
}

func (d *Driver) exists(id graph.NodeID) bool {
	n, ok := d.graph.Node(id)
	return ok && n.Exists
}

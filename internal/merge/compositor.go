package merge

import (
	"fmt"
	"log/slog"
	"strings"

	"shaderls/internal/graph"
	"shaderls/internal/include"
	"shaderls/internal/source"
)

// Compositor flattens an entry file and its includes into one translation unit.
type Compositor struct {
	graph *graph.Graph
	files *source.FileSet
	log   *slog.Logger
}

// NewCompositor creates a Compositor. A nil logger discards output.
func NewCompositor(g *graph.Graph, files *source.FileSet, log *slog.Logger) *Compositor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Compositor{graph: g, files: files, log: log}
}

type merger struct {
	*Compositor
	out      strings.Builder
	table    *FileTable
	visiting map[graph.NodeID]struct{}
}

// Merge returns the flattened text for entry and the table of its occurrence ids.
// Includes that are missing, cyclic or deeper than include.MaxDepth are left
// as their original directive line.
func (c *Compositor) Merge(entry graph.NodeID) (string, *FileTable, error) {
	path := c.graph.Path(entry)
	if path == "" {
		return "", nil, fmt.Errorf("merge: unknown node %d", entry)
	}
	file, err := c.files.Load(path)
	if err != nil {
		return "", nil, fmt.Errorf("merge %s: %w", path, err)
	}
	m := &merger{
		Compositor: c,
		table:      &FileTable{},
		visiting:   map[graph.NodeID]struct{}{entry: {}},
	}
	fileID := m.table.add(path)
	m.emit(entry, fileID, file, 0)
	return m.out.String(), m.table, nil
}

func (m *merger) emit(id graph.NodeID, fileID int, file *source.File, depth int) {
	edges := m.graph.OutEdges(id)
	next := 0
	for lineNo, line := range file.Lines {
		for next < len(edges) && edges[next].Line < lineNo {
			next++
		}
		if next < len(edges) && edges[next].Line == lineNo {
			edge := edges[next]
			// later edges on the same line are consumed with the first
			for next < len(edges) && edges[next].Line == lineNo {
				next++
			}
			if m.expand(edge, fileID, depth) {
				continue
			}
		}
		m.out.WriteString(line)
		m.out.WriteByte('\n')
	}
}

func (m *merger) expand(edge graph.Edge, parentID, depth int) bool {
	path := m.graph.Path(edge.To)
	if depth+1 > include.MaxDepth {
		m.log.Debug("include depth limit reached", "path", path, "depth", depth+1)
		return false
	}
	if _, cyclic := m.visiting[edge.To]; cyclic {
		m.log.Warn("cyclic include left unexpanded", "path", path, "includer", m.graph.Path(edge.From), "line", edge.Line)
		return false
	}
	if node, ok := m.graph.Node(edge.To); !ok || !node.Exists {
		return false
	}
	file, err := m.files.Load(path)
	if err != nil {
		m.log.Warn("failed to read include", "path", path, "err", err)
		return false
	}

	childID := m.table.add(path)
	fmt.Fprintf(&m.out, "#line 1 %d\n", childID)
	m.visiting[edge.To] = struct{}{}
	m.emit(edge.To, childID, file, depth+1)
	delete(m.visiting, edge.To)
	fmt.Fprintf(&m.out, "#line %d %d\n", edge.Line+2, parentID)
	return true
}

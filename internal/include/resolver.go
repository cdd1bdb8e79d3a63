package include

import (
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"shaderls/internal/graph"
	"shaderls/internal/source"
)

// MaxDepth bounds include recursion. The scanned file is depth 0; a newly
// discovered include deeper than MaxDepth is added as a leaf.
const MaxDepth = 10

// Resolver discovers include directives and materializes them into the graph.
// It is the only component that mutates the graph.
type Resolver struct {
	graph *graph.Graph
	files *source.FileSet
	root  string
	roots []string // nested workspace roots, longest first
	log   *slog.Logger
}

// NewResolver creates a Resolver rooted at root. A nil logger discards output.
func NewResolver(g *graph.Graph, files *source.FileSet, root string, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		graph: g,
		files: files,
		root:  source.CanonicalPath(root),
		log:   log,
	}
}

// Root returns the canonical workspace root.
func (r *Resolver) Root() string { return r.root }

// AddRoot registers a nested workspace root. Rooted includes in files under
// it resolve against it instead of the workspace root.
func (r *Resolver) AddRoot(path string) {
	canon := source.CanonicalPath(path)
	if slices.Contains(r.roots, canon) {
		return
	}
	r.roots = append(r.roots, canon)
	slices.SortFunc(r.roots, func(a, b string) int { return len(b) - len(a) })
}

// RootFor returns the innermost root enclosing path.
func (r *Resolver) RootFor(path string) string {
	for _, root := range r.roots {
		if within(root, path) {
			return root
		}
	}
	return r.root
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Graph returns the graph the resolver writes to.
func (r *Resolver) Graph() *graph.Graph { return r.graph }

// AddEntry registers path as a program entry for stage and scans it.
func (r *Resolver) AddEntry(path string, stage graph.Stage) graph.NodeID {
	id, _ := r.graph.Ensure(path)
	r.graph.MarkEntry(id, stage)
	r.Scan(id)
	return id
}

// Scan replaces the outgoing edges of id with the directives found in its
// current text, recursing into includes that were not yet in the graph.
func (r *Resolver) Scan(id graph.NodeID) {
	r.scan(id, 0)
}

// Rescan is Scan for a node whose text changed. Nodes that become
// unreachable are left in place.
func (r *Resolver) Rescan(id graph.NodeID) {
	r.scan(id, 0)
}

// Remove deletes the node for path after an explicit delete notification.
func (r *Resolver) Remove(path string) bool {
	id, ok := r.graph.Find(path)
	if !ok {
		return false
	}
	r.log.Debug("remove node", "path", r.graph.Path(id))
	return r.graph.Remove(id)
}

// Reset drops every node, edge and nested root.
func (r *Resolver) Reset() {
	r.graph.Clear()
	r.roots = nil
}

// Resolve turns an include target written inside includer into a canonical
// absolute path. A leading slash anchors the target at the root enclosing
// the includer.
func (r *Resolver) Resolve(includer, target string) string {
	if rest, ok := strings.CutPrefix(target, "/"); ok {
		return source.CanonicalPath(filepath.Join(r.RootFor(includer), source.SlashPath(rest)))
	}
	return source.CanonicalPath(filepath.Join(filepath.Dir(includer), source.SlashPath(target)))
}

func (r *Resolver) scan(id graph.NodeID, depth int) {
	path := r.graph.Path(id)
	r.graph.ClearEdges(id)

	file, err := r.files.Load(path)
	if err != nil {
		r.graph.SetExists(id, false)
		if source.IsNotExist(err) {
			r.log.Debug("include target missing", "path", path)
		} else {
			r.log.Warn("failed to read file", "path", path, "err", err)
		}
		return
	}
	r.graph.SetExists(id, true)

	for lineNo, line := range file.Lines {
		dir, ok := ParseDirective(line)
		if !ok {
			continue
		}
		target := r.Resolve(path, dir.Target)
		child, created := r.graph.Ensure(target)
		r.graph.AddEdge(id, child, lineNo, dir.ColStart, dir.ColEnd)
		if !created {
			r.refresh(child, target, depth+1)
			continue
		}
		if !r.files.Exists(target) {
			r.graph.SetExists(child, false)
			r.log.Debug("include target missing", "path", target, "includer", path, "line", lineNo)
			continue
		}
		if depth+1 > MaxDepth {
			r.graph.SetExists(child, true)
			r.log.Debug("include depth limit reached", "path", target, "depth", depth+1)
			continue
		}
		r.scan(child, depth+1)
	}
}

// refresh re-checks a known include target. A node that was missing is
// scanned once its file appears; a node whose file vanished is marked
// missing. Nodes being scanned are already marked present, so cycles do not
// recurse here.
func (r *Resolver) refresh(child graph.NodeID, target string, depth int) {
	node, ok := r.graph.Node(child)
	if !ok {
		return
	}
	exists := r.files.Exists(target)
	switch {
	case !node.Exists && exists:
		if depth > MaxDepth {
			r.graph.SetExists(child, true)
			return
		}
		r.log.Debug("include target appeared", "path", target)
		r.scan(child, depth)
	case node.Exists && !exists:
		r.graph.SetExists(child, false)
		r.graph.ClearEdges(child)
		r.log.Debug("include target missing", "path", target)
	}
}

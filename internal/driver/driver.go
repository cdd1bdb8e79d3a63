package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"shaderls/internal/diag"
	"shaderls/internal/graph"
	"shaderls/internal/include"
	"shaderls/internal/merge"
	"shaderls/internal/observ"
	"shaderls/internal/project"
	"shaderls/internal/source"
	"shaderls/internal/validator"
)

var (
	// ErrNotTracked is returned for paths that are not part of the graph.
	ErrNotTracked = errors.New("file is not tracked")
	// ErrNotEntry is returned when no entry file depends on a path.
	ErrNotEntry = errors.New("file is not part of any entry")
)

// Options configures a Driver.
type Options struct {
	Root      string
	Validator validator.Validator
	Manifest  project.Manifest
	// ExtraExtensions overrides Manifest.ExtraExtensions when non-nil.
	ExtraExtensions []string
	Log             *slog.Logger
	Timer           *observ.Timer
}

// Driver owns the include graph, the overlays and the lint pipeline. It is
// driven by one goroutine; only LintAll fans out, and it never mutates.
type Driver struct {
	opts       Options
	log        *slog.Logger
	files      *source.FileSet
	graph      *graph.Graph
	resolver   *include.Resolver
	compositor *merge.Compositor
	remapper   *diag.Remapper
	workspace  *project.Workspace
	progress   ProgressSink
}

// New creates a Driver and builds the graph for opts.Root.
func New(ctx context.Context, opts Options) (*Driver, error) {
	if opts.Validator == nil {
		return nil, errors.New("driver: validator is required")
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	files := source.NewFileSet()
	g := graph.New()
	d := &Driver{
		opts:       opts,
		log:        log,
		files:      files,
		graph:      g,
		resolver:   include.NewResolver(g, files, opts.Root, log),
		compositor: merge.NewCompositor(g, files, log),
		remapper:   diag.NewRemapper(diag.SelectGrammar(opts.Validator.Vendor())),
	}
	log.Debug("selected diagnostics grammar", "vendor", opts.Validator.Vendor(), "dialect", d.remapper.Grammar().Dialect.String())
	if err := d.Rebuild(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Rebuild rediscovers the workspace and rescans every entry from scratch.
// Overlays survive.
func (d *Driver) Rebuild(ctx context.Context) error {
	ws, err := project.Discover(d.opts.Root, project.Options{
		Manifest:        d.opts.Manifest,
		ExtraExtensions: d.opts.ExtraExtensions,
		Log:             d.log,
	})
	if err != nil {
		return fmt.Errorf("discover workspace: %w", err)
	}
	d.workspace = ws
	d.resolver.Reset()
	for _, root := range ws.ShaderRoots {
		d.resolver.AddRoot(root)
	}

	idx := d.opts.Timer.Begin("scan")
	_, span := observ.StartScanSpan(ctx, ws.Root)
	for _, e := range ws.Entries {
		d.resolver.AddEntry(e.Path, e.Stage)
	}
	span.End()
	d.opts.Timer.End(idx, fmt.Sprintf("%d entries", len(ws.Entries)))

	d.log.Info("built include graph", "root", ws.Root, "entries", len(ws.Entries),
		"nodes", d.graph.NodeCount(), "edges", d.graph.EdgeCount())
	return nil
}

// SetExtraExtensions replaces the configured extra extensions and rebuilds.
// A nil exts falls back to the manifest.
func (d *Driver) SetExtraExtensions(ctx context.Context, exts []string) error {
	d.opts.ExtraExtensions = slices.Clone(exts)
	return d.Rebuild(ctx)
}

// Root returns the workspace root.
func (d *Driver) Root() string { return d.resolver.Root() }

// Graph exposes the include graph for read-only queries.
func (d *Driver) Graph() *graph.Graph { return d.graph }

// Workspace returns the last discovery result.
func (d *Driver) Workspace() *project.Workspace { return d.workspace }

// Entries returns every entry node.
func (d *Driver) Entries() []graph.Node { return d.graph.Entries() }

// Tracked reports whether path is a node of the graph.
func (d *Driver) Tracked(path string) bool {
	_, ok := d.graph.Find(path)
	return ok
}

// Open records the editor text of path, rescans it and lints its entries.
func (d *Driver) Open(ctx context.Context, path, text string) ([]LintResult, error) {
	d.files.SetOverlay(path, text)
	return d.refresh(ctx, path)
}

// Save records the saved text of path, rescans it and lints its entries.
// A nil text means the file on disk is current.
func (d *Driver) Save(ctx context.Context, path string, text *string) ([]LintResult, error) {
	if text != nil {
		d.files.SetOverlay(path, *text)
	} else {
		d.files.DropOverlay(path)
	}
	return d.refresh(ctx, path)
}

// Close forgets the editor text of path. The graph keeps the last scan.
func (d *Driver) Close(path string) {
	d.files.DropOverlay(path)
}

// Delete handles a delete notification for exactly path. The entries that
// depended on it are linted again.
func (d *Driver) Delete(ctx context.Context, path string) ([]LintResult, error) {
	id, ok := d.graph.Find(path)
	d.files.DropOverlay(path)
	if !ok {
		return nil, nil
	}
	owners := d.owners(id)
	d.resolver.Remove(path)
	var remaining []graph.NodeID
	for _, e := range owners {
		if e != id {
			remaining = append(remaining, e)
		}
	}
	return d.lintAll(ctx, remaining)
}

// WatchedChange handles a created or changed file on disk. Tracked files are
// rescanned; new entry files are added to the graph.
func (d *Driver) WatchedChange(ctx context.Context, path string) ([]LintResult, error) {
	canon := source.CanonicalPath(path)
	if d.Tracked(canon) {
		return d.refresh(ctx, canon)
	}
	stage, ok := d.workspace.Classify(canon)
	if !ok {
		return nil, nil
	}
	if root, ok := project.WorkspaceRootOf(canon); ok {
		d.resolver.AddRoot(root)
	}
	d.log.Info("new entry file", "path", canon, "stage", stage.String())
	id := d.resolver.AddEntry(canon, stage)
	return d.lintAll(ctx, []graph.NodeID{id})
}

// LintPath lints every entry that path belongs to.
func (d *Driver) LintPath(ctx context.Context, path string) ([]LintResult, error) {
	id, ok := d.graph.Find(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotTracked)
	}
	owners := d.owners(id)
	if len(owners) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNotEntry)
	}
	return d.lintAll(ctx, owners)
}

// Merge returns the flattened text of the entry at path.
func (d *Driver) Merge(path string) (string, *merge.FileTable, error) {
	id, ok := d.graph.Find(path)
	if !ok {
		return "", nil, fmt.Errorf("%s: %w", path, ErrNotTracked)
	}
	return d.compositor.Merge(id)
}

// Dot renders the include graph relative to the workspace root.
func (d *Driver) Dot() string {
	return d.graph.Dot(d.Root())
}

func (d *Driver) refresh(ctx context.Context, path string) ([]LintResult, error) {
	id, ok := d.graph.Find(path)
	if !ok {
		return nil, nil
	}
	idx := d.opts.Timer.Begin("scan")
	_, span := observ.StartScanSpan(ctx, d.graph.Path(id))
	d.resolver.Rescan(id)
	span.End()
	d.opts.Timer.End(idx, "")
	return d.lintAll(ctx, d.owners(id))
}

// owners returns the entries that transitively include id, id itself included.
func (d *Driver) owners(id graph.NodeID) []graph.NodeID {
	var out []graph.NodeID
	for _, a := range d.graph.Ancestors(id) {
		if n, ok := d.graph.Node(a); ok && n.IsEntry() {
			out = append(out, a)
		}
	}
	return out
}

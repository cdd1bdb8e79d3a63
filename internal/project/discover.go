package project

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"shaderls/internal/graph"
)

// Entry is a program entry file found by discovery.
type Entry struct {
	Path  string
	Stage graph.Stage
}

// Workspace is the result of scanning an editor root for shader packs.
type Workspace struct {
	Root        string
	ShaderRoots []string // every shaders folder, sorted
	Entries     []Entry  // sorted by path
	Extensions  Extensions
	ignore      *ignore.GitIgnore
}

// Options tunes discovery.
type Options struct {
	Manifest Manifest
	// ExtraExtensions replaces Manifest.ExtraExtensions when non-nil.
	ExtraExtensions []string
	Log             *slog.Logger
}

// Discover walks root for shaders folders and collects their entry files.
func Discover(root string, opts Options) (*Workspace, error) {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %q is not a directory", abs)
	}

	extra := opts.Manifest.ExtraExtensions
	if opts.ExtraExtensions != nil {
		extra = opts.ExtraExtensions
	}
	ws := &Workspace{
		Root:       abs,
		Extensions: NewExtensions(extra...),
	}
	ws.ignore, err = compileIgnore(abs, opts.Manifest.Ignore)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	addEntry := func(path string, stage graph.Stage) {
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		ws.Entries = append(ws.Entries, Entry{Path: path, Stage: stage})
	}

	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("failed to read directory", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != abs && (strings.HasPrefix(d.Name(), ".") || ws.ignoredDir(path)) {
			return fs.SkipDir
		}
		if d.Name() != WorkspaceDirName {
			return nil
		}
		log.Info("found shader workspace", "path", path)
		ws.ShaderRoots = append(ws.ShaderRoots, path)
		for _, e := range ws.programFiles(path, log) {
			addEntry(e, StageOf(e))
		}
		return fs.SkipDir
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk workspace: %w", walkErr)
	}

	for rel, stage := range opts.Manifest.Entries {
		addEntry(filepath.Join(abs, rel), stage)
	}
	sort.Strings(ws.ShaderRoots)
	sort.Slice(ws.Entries, func(i, j int) bool { return ws.Entries[i].Path < ws.Entries[j].Path })
	return ws, nil
}

// programFiles lists the entry files in a shaders folder and its dimension folders.
func (ws *Workspace) programFiles(shaderRoot string, log *slog.Logger) []string {
	var out []string
	dirs := []string{shaderRoot}
	for len(dirs) > 0 {
		dir := dirs[0]
		dirs = dirs[1:]
		items, err := os.ReadDir(dir)
		if err != nil {
			log.Warn("failed to read directory", "path", dir, "err", err)
			continue
		}
		for _, item := range items {
			path := filepath.Join(dir, item.Name())
			if item.IsDir() {
				if dir == shaderRoot && dimensionDirRE.MatchString(item.Name()) && !ws.ignoredDir(path) {
					dirs = append(dirs, path)
				}
				continue
			}
			if IsTopLevelName(item.Name()) && !ws.Ignored(path) {
				out = append(out, path)
			}
		}
	}
	return out
}

// Ignored reports whether path matches the workspace ignore rules.
func (ws *Workspace) Ignored(path string) bool {
	if ws.ignore == nil || !pathWithin(ws.Root, path) {
		return false
	}
	rel, err := filepath.Rel(ws.Root, path)
	if err != nil || rel == "." {
		return false
	}
	return ws.ignore.MatchesPath(filepath.ToSlash(rel))
}

// directory patterns such as "build/" only match with a trailing slash
func (ws *Workspace) ignoredDir(path string) bool {
	if ws.Ignored(path) {
		return true
	}
	if ws.ignore == nil || !pathWithin(ws.Root, path) {
		return false
	}
	rel, err := filepath.Rel(ws.Root, path)
	if err != nil || rel == "." {
		return false
	}
	return ws.ignore.MatchesPath(filepath.ToSlash(rel) + "/")
}

// IsShaderSource reports whether path should be tracked: a recognized
// extension that is not ignored.
func (ws *Workspace) IsShaderSource(path string) bool {
	return ws.Extensions.Match(path) && !ws.Ignored(path)
}

// Classify returns the stage for path when it is an entry file.
func (ws *Workspace) Classify(path string) (graph.Stage, bool) {
	for _, e := range ws.Entries {
		if e.Path == path {
			return e.Stage, true
		}
	}
	if !IsEntryPath(path) || ws.Ignored(path) {
		return graph.StageUnknown, false
	}
	return StageOf(path), true
}

func compileIgnore(root string, extra []string) (*ignore.GitIgnore, error) {
	gitignore := filepath.Join(root, ".gitignore")
	ok, err := fileExists(gitignore)
	if err != nil {
		return nil, err
	}
	if ok {
		gi, err := ignore.CompileIgnoreFileAndLines(gitignore, extra...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", gitignore, err)
		}
		return gi, nil
	}
	if len(extra) == 0 {
		return nil, nil
	}
	return ignore.CompileIgnoreLines(extra...), nil
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return info.Mode().IsRegular(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %q: %w", path, err)
}

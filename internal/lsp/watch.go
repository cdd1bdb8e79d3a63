package lsp

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"shaderls/internal/source"
)

// watcher follows every directory below the shader roots. fsnotify is not
// recursive, so directories are added one by one, including new ones.
type watcher struct {
	fs  *fsnotify.Watcher
	log *slog.Logger
}

func newWatcher(roots []string, log *slog.Logger) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &watcher{fs: fw, log: log}
	for _, root := range roots {
		w.addTree(root)
	}
	return w, nil
}

func (w *watcher) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.log.Warn("failed to watch directory", "path", path, "err", err)
		}
		return nil
	})
}

// events and errors are nil-safe so that Run can select on them without a
// watcher.
func (w *watcher) events() <-chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.fs.Events
}

func (w *watcher) errors() <-chan error {
	if w == nil {
		return nil
	}
	return w.fs.Errors
}

func (w *watcher) close() error {
	if w == nil {
		return nil
	}
	return w.fs.Close()
}

// startWatching (re)creates the watcher over the current shader roots.
func (s *Server) startWatching() {
	if !s.opts.Watch || s.driver == nil {
		return
	}
	s.stopWatching()
	ws := s.driver.Workspace()
	roots := ws.ShaderRoots
	if len(roots) == 0 {
		roots = []string{ws.Root}
	}
	w, err := newWatcher(roots, s.log)
	if err != nil {
		s.log.Warn("file watching disabled", "err", err)
		return
	}
	s.watcher = w
	s.log.Debug("watching shader roots", "roots", roots)
}

func (s *Server) stopWatching() {
	if err := s.watcher.close(); err != nil {
		s.log.Warn("failed to close file watcher", "err", err)
	}
	s.watcher = nil
}

func (s *Server) handleFileEvent(ev fsnotify.Event) error {
	if s.driver == nil {
		return nil
	}
	path := source.CanonicalPath(ev.Name)
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return s.deletePath(path)
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			s.watcher.addTree(path)
			return nil
		}
		return s.changePath(path)
	case ev.Has(fsnotify.Write):
		return s.changePath(path)
	}
	return nil
}

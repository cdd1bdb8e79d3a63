package source

import (
	"errors"
	"io/fs"
	"os"
)

// FileSet reads shader sources, preferring editor overlays over disk content.
// It is owned by the single worker and is not safe for concurrent mutation.
type FileSet struct {
	overlays map[string][]byte // canonical path -> saved/opened text
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		overlays: make(map[string][]byte),
	}
}

// SetOverlay records the editor's full text for path.
func (fileSet *FileSet) SetOverlay(path, text string) {
	fileSet.overlays[CanonicalPath(path)] = []byte(text)
}

// DropOverlay forgets any editor text for path. It reports whether one existed.
func (fileSet *FileSet) DropOverlay(path string) bool {
	key := CanonicalPath(path)
	_, ok := fileSet.overlays[key]
	delete(fileSet.overlays, key)
	return ok
}

// HasOverlay reports whether editor text is recorded for path.
func (fileSet *FileSet) HasOverlay(path string) bool {
	_, ok := fileSet.overlays[CanonicalPath(path)]
	return ok
}

// Load returns the current content of path, normalized for line scanning.
func (fileSet *FileSet) Load(path string) (*File, error) {
	key := CanonicalPath(path)
	flags := FileFlags(0)
	content, ok := fileSet.overlays[key]
	if ok {
		flags |= FileOverlay
	} else {
		// #nosec G304 -- path comes from the include graph
		raw, err := os.ReadFile(key)
		if err != nil {
			return nil, err
		}
		content = raw
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return &File{
		Path:    key,
		Content: content,
		Lines:   splitLines(content),
		Flags:   flags,
	}, nil
}

// Exists reports whether path is readable as a regular file or has an overlay.
func (fileSet *FileSet) Exists(path string) bool {
	key := CanonicalPath(path)
	if _, ok := fileSet.overlays[key]; ok {
		return true
	}
	info, err := os.Stat(key)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// IsNotExist reports whether err means the file is absent rather than unreadable.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

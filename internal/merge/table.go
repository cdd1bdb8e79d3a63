package merge

import "strconv"

// FileTable maps per-merge occurrence ids to original paths. Id 0 is the
// entry file; every include occurrence gets the next id, repeats included.
type FileTable struct {
	paths []string
}

func (t *FileTable) add(path string) int {
	t.paths = append(t.paths, path)
	return len(t.paths) - 1
}

// Len returns the number of occurrence ids.
func (t *FileTable) Len() int { return len(t.paths) }

// Path returns the original path for id.
func (t *FileTable) Path(id int) (string, bool) {
	if id < 0 || id >= len(t.paths) {
		return "", false
	}
	return t.paths[id], true
}

// Entry returns the path of id 0.
func (t *FileTable) Entry() string {
	if len(t.paths) == 0 {
		return ""
	}
	return t.paths[0]
}

// Resolve maps a validator file token to an original path. The token is
// either a decimal occurrence id or one of the table's paths.
func (t *FileTable) Resolve(token string) (string, bool) {
	if id, err := strconv.Atoi(token); err == nil {
		return t.Path(id)
	}
	for _, p := range t.paths {
		if p == token {
			return p, true
		}
	}
	return "", false
}

// Paths returns the distinct participating paths in first-seen order.
func (t *FileTable) Paths() []string {
	seen := make(map[string]struct{}, len(t.paths))
	out := make([]string, 0, len(t.paths))
	for _, p := range t.paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

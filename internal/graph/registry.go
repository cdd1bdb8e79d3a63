package graph

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"shaderls/internal/source"
)

// NodeID is a stable handle for a canonical file path.
type NodeID uint32

// Registry interns canonical paths to NodeIDs. IDs are never reused, so
// Lookup stays total for every ID the registry has handed out.
type Registry struct {
	byID  []string          // id -> canonical path
	cache map[string]NodeID // canonical path -> id
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:  make([]string, 0, 64),
		cache: make(map[string]NodeID, 64),
	}
}

// Intern canonicalizes path and returns its ID, allocating one on first use.
func (r *Registry) Intern(path string) NodeID {
	canon := source.CanonicalPath(path)
	if id, ok := r.Find(canon); ok {
		return id
	}
	n, err := safecast.Conv[NodeID](len(r.byID))
	if err != nil {
		panic(fmt.Errorf("node id overflow: %w", err))
	}
	r.byID = append(r.byID, canon)
	r.cache[canon] = n
	return n
}

// Find returns the ID of a previously interned path. A cache miss falls back
// to a linear scan and repopulates the cache.
func (r *Registry) Find(path string) (NodeID, bool) {
	canon := source.CanonicalPath(path)
	if id, ok := r.cache[canon]; ok {
		return id, true
	}
	idx := slices.Index(r.byID, canon)
	if idx < 0 {
		return 0, false
	}
	id := NodeID(idx) // #nosec G115 -- idx < len(byID), which fit on Intern
	r.cache[canon] = id
	return id, true
}

// Lookup returns the path for id.
func (r *Registry) Lookup(id NodeID) (string, bool) {
	if int(id) >= len(r.byID) {
		return "", false
	}
	return r.byID[id], true
}

// MustLookup returns the path for id and panics on unknown IDs.
func (r *Registry) MustLookup(id NodeID) string {
	p, ok := r.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("invalid node id %d", id))
	}
	return p
}

// Len returns the number of interned paths.
func (r *Registry) Len() int {
	return len(r.byID)
}

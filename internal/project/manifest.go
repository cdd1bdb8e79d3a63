package project

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"shaderls/internal/graph"
)

// Manifest is the [discovery] section of shaderls.toml.
type Manifest struct {
	// ExtraExtensions are recognized as shader sources in addition to the
	// built-in set, without the leading dot.
	ExtraExtensions []string
	// Entries are extra entry files relative to the workspace root, with
	// their stage.
	Entries map[string]graph.Stage
	// Ignore holds gitignore-style patterns excluded from discovery.
	Ignore []string
}

type manifestFile struct {
	Discovery struct {
		ExtraExtensions []string          `toml:"extra_extensions"`
		Entries         map[string]string `toml:"entries"`
		Ignore          []string          `toml:"ignore"`
	} `toml:"discovery"`
}

// LoadManifest parses shaderls.toml at path.
func LoadManifest(path string) (Manifest, error) {
	var cfg manifestFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Manifest{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	m := Manifest{
		ExtraExtensions: normalizeExtensions(cfg.Discovery.ExtraExtensions),
		Entries:         make(map[string]graph.Stage, len(cfg.Discovery.Entries)),
		Ignore:          cfg.Discovery.Ignore,
	}
	rels := make([]string, 0, len(cfg.Discovery.Entries))
	for rel := range cfg.Discovery.Entries {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	for _, rel := range rels {
		stage, err := graph.ParseStage(cfg.Discovery.Entries[rel])
		if err != nil {
			return Manifest{}, fmt.Errorf("%s: entry %q: %w", path, rel, err)
		}
		if filepath.IsAbs(rel) {
			return Manifest{}, fmt.Errorf("%s: entry %q: must be relative", path, rel)
		}
		m.Entries[filepath.Clean(filepath.FromSlash(rel))] = stage
	}
	return m, nil
}

// LoadWorkspaceManifest loads shaderls.toml from root. A missing file yields
// an empty Manifest.
func LoadWorkspaceManifest(root string) (Manifest, error) {
	path := filepath.Join(root, ManifestName)
	ok, err := fileExists(path)
	if err != nil {
		return Manifest{}, err
	}
	if !ok {
		return Manifest{Entries: map[string]graph.Stage{}}, nil
	}
	return LoadManifest(path)
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(strings.TrimSpace(e), ".")
		if e != "" {
			out = append(out, strings.ToLower(e))
		}
	}
	return out
}

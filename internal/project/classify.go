package project

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"shaderls/internal/graph"
)

// WorkspaceDirName is the directory name that marks a shader pack root.
const WorkspaceDirName = "shaders"

var dimensionDirRE = regexp.MustCompile(`^world-?\d+$`)

// BasicExtensions are always treated as shader sources.
var BasicExtensions = []string{
	"vsh", "gsh", "fsh", "csh",
	"vert", "geom", "frag", "comp",
	"vertex", "geometry", "fragment", "compute",
	"glsl",
}

// topLevelFiles is every file name that the shader pack loader compiles
// as a program when it sits in a workspace or dimension folder.
var topLevelFiles = buildTopLevelFiles()

func buildTopLevelFiles() map[string]struct{} {
	set := make(map[string]struct{}, 1716)
	add := func(name string) { set[name] = struct{}{} }
	passes := []string{"composite", "deferred", "prepare", "shadowcomp"}
	programs := []string{
		"composite_pre", "deferred_pre", "final",
		"gbuffers_armor_glint", "gbuffers_basic", "gbuffers_beaconbeam",
		"gbuffers_block", "gbuffers_clouds", "gbuffers_damagedblock",
		"gbuffers_entities", "gbuffers_entities_glowing", "gbuffers_hand",
		"gbuffers_hand_water", "gbuffers_item", "gbuffers_line",
		"gbuffers_skybasic", "gbuffers_skytextured", "gbuffers_spidereyes",
		"gbuffers_terrain", "gbuffers_terrain_cutout", "gbuffers_terrain_cutout_mip",
		"gbuffers_terrain_solid", "gbuffers_textured", "gbuffers_textured_lit",
		"gbuffers_water", "gbuffers_weather",
		"shadow", "shadow_cutout", "shadow_solid",
	}
	for _, ext := range []string{"fsh", "vsh", "gsh", "csh"} {
		for _, pass := range passes {
			add(pass + "." + ext)
			for i := 1; i <= 99; i++ {
				add(fmt.Sprintf("%s%d.%s", pass, i, ext))
			}
		}
		for _, p := range programs {
			add(p + "." + ext)
		}
	}
	for c := 'a'; c <= 'z'; c++ {
		for _, pass := range passes {
			add(fmt.Sprintf("%s_%c.csh", pass, c))
			for i := 1; i <= 99; i++ {
				add(fmt.Sprintf("%s%d_%c.csh", pass, i, c))
			}
		}
	}
	return set
}

// IsTopLevelName reports whether name is a program file name.
func IsTopLevelName(name string) bool {
	_, ok := topLevelFiles[name]
	return ok
}

// StageOf maps an entry file extension to its pipeline stage.
func StageOf(path string) graph.Stage {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "vsh":
		return graph.StageVertex
	case "fsh":
		return graph.StageFragment
	case "gsh":
		return graph.StageGeometry
	case "csh":
		return graph.StageCompute
	}
	return graph.StageUnknown
}

// ProgramDir reports whether dir may hold entry files: a workspace folder
// or a dimension folder directly inside one.
func ProgramDir(dir string) bool {
	base := filepath.Base(dir)
	if base == WorkspaceDirName {
		return true
	}
	return dimensionDirRE.MatchString(base) && filepath.Base(filepath.Dir(dir)) == WorkspaceDirName
}

// IsEntryPath reports whether path is a program entry by location and name.
func IsEntryPath(path string) bool {
	return IsTopLevelName(filepath.Base(path)) && ProgramDir(filepath.Dir(path))
}

// WorkspaceRootOf returns the shaders folder enclosing path, if any.
func WorkspaceRootOf(path string) (string, bool) {
	dir := filepath.Dir(path)
	for {
		if filepath.Base(dir) == WorkspaceDirName {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Extensions is a set of recognized shader source extensions.
type Extensions map[string]struct{}

// NewExtensions returns the basic extensions plus extra.
func NewExtensions(extra ...string) Extensions {
	set := make(Extensions, len(BasicExtensions)+len(extra))
	for _, e := range BasicExtensions {
		set[e] = struct{}{}
	}
	for _, e := range normalizeExtensions(extra) {
		set[e] = struct{}{}
	}
	return set
}

// Match reports whether path has a recognized extension.
func (e Extensions) Match(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	_, ok := e[ext]
	return ok
}

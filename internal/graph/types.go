package graph

import (
	"fmt"
	"strings"
)

// Stage is the pipeline stage an entry file is compiled for.
type Stage uint8

const (
	StageUnknown Stage = iota
	StageVertex
	StageFragment
	StageGeometry
	StageCompute
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageGeometry:
		return "geometry"
	case StageCompute:
		return "compute"
	}
	return "unknown"
}

// ParseStage converts a stage name to a Stage.
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertex", "vert", "vsh":
		return StageVertex, nil
	case "fragment", "frag", "fsh":
		return StageFragment, nil
	case "geometry", "geom", "gsh":
		return StageGeometry, nil
	case "compute", "comp", "csh":
		return StageCompute, nil
	case "unknown", "":
		return StageUnknown, nil
	}
	return StageUnknown, fmt.Errorf("invalid stage: %q (expected: vertex|fragment|geometry|compute)", s)
}

// Role records how a file was discovered. A file may be both an entry and an include.
type Role uint8

const (
	RoleInclude Role = 1 << iota
	RoleEntry
)

// Node is a read-only view of a file in the graph.
type Node struct {
	ID     NodeID
	Path   string
	Exists bool
	Roles  Role
	Stage  Stage // meaningful only with RoleEntry
}

// IsEntry reports whether the node is a program entry point.
func (n Node) IsEntry() bool { return n.Roles&RoleEntry != 0 }

// IsInclude reports whether some file has included the node.
func (n Node) IsInclude() bool { return n.Roles&RoleInclude != 0 }

// Edge is one textual include occurrence.
type Edge struct {
	From     NodeID
	To       NodeID
	Line     int // 0-based line of the directive in From
	ColStart int // 0-based character offset of the path literal
	ColEnd   int
	seq      uint64
}

func (e Edge) String() string {
	return fmt.Sprintf("{line: %d}", e.Line)
}

package diag

import "strings"

// FileTable resolves validator file tokens to original paths.
type FileTable interface {
	Resolve(token string) (string, bool)
	Paths() []string
}

// Remapper converts a validator log over flattened text into per-file
// diagnostics.
type Remapper struct {
	grammar Grammar
}

// NewRemapper creates a Remapper for g.
func NewRemapper(g Grammar) *Remapper {
	return &Remapper{grammar: g}
}

// Grammar returns the grammar selected for the remapper.
func (r *Remapper) Grammar() Grammar { return r.grammar }

// Remap parses log and files each matched line under its original path.
// Lines that do not match the grammar or name an unknown file are dropped.
// An empty log means success and clears every participating file.
func (r *Remapper) Remap(log string, table FileTable) Report {
	if strings.TrimSpace(log) == "" {
		return Cleared(table)
	}
	report := Report{}
	for _, line := range strings.Split(log, "\n") {
		e, ok := r.grammar.parse(line)
		if !ok {
			continue
		}
		path, ok := table.Resolve(e.file)
		if !ok {
			continue
		}
		report.bag(path).Add(Diagnostic{
			Line:     max(e.line-r.grammar.LineOffset, 0),
			Severity: e.severity,
			Code:     e.code,
			Message:  e.message,
		})
	}
	return report
}

// Cleared returns an empty diagnostics list for every path in table.
func Cleared(table FileTable) Report {
	report := Report{}
	for _, p := range table.Paths() {
		report.bag(p)
	}
	return report
}

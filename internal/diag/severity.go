package diag

import "strings"

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// parseSeverity classifies the severity word of a validator log line.
// Anything that is not a warning is reported as an error.
func parseSeverity(word string) Severity {
	if strings.EqualFold(word, "warning") {
		return SevWarning
	}
	return SevError
}

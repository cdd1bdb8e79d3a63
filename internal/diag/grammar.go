package diag

import (
	"regexp"
	"strconv"
	"strings"
)

// Dialect identifies a validator log format.
type Dialect uint8

const (
	// DialectNVIDIA matches `<fileid>(<line>) : <severity> <code>: <message>`.
	DialectNVIDIA Dialect = iota
	// DialectGeneric matches `<SEVERITY>: <file>:<line>: <message>`.
	DialectGeneric
)

func (d Dialect) String() string {
	if d == DialectNVIDIA {
		return "nvidia"
	}
	return "generic"
}

var (
	nvidiaRE  = regexp.MustCompile(`^(\d+)\((\d+)\) : (error|warning) ([A-C]\d+): (.+)`)
	genericRE = regexp.MustCompile(`^(ERROR|WARNING): ([^?<>*|"\n]+):(\d+): (?:'.*' :|[a-z]+\(#\d+\)) +(.+)$`)
)

// Grammar is the log format and line offset for one validator vendor.
// It is selected once per vendor string.
type Grammar struct {
	Dialect    Dialect
	LineOffset int // subtracted from reported lines to get 0-based lines
}

// SelectGrammar picks the grammar for the vendor string reported by the
// validator.
func SelectGrammar(vendor string) Grammar {
	vendor = strings.TrimSpace(vendor)
	g := Grammar{Dialect: DialectGeneric, LineOffset: 1}
	if strings.HasPrefix(vendor, "NVIDIA") {
		g.Dialect = DialectNVIDIA
	}
	if strings.HasPrefix(vendor, "ATI Technologies") {
		g.LineOffset = 0
	}
	return g
}

// entry is one parsed log line before file resolution.
type entry struct {
	file     string
	line     int
	severity Severity
	code     string
	message  string
}

func (g Grammar) parse(line string) (entry, bool) {
	line = strings.TrimRight(line, "\r")
	switch g.Dialect {
	case DialectNVIDIA:
		m := nvidiaRE.FindStringSubmatch(line)
		if m == nil {
			return entry{}, false
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return entry{}, false
		}
		return entry{file: m[1], line: n, severity: parseSeverity(m[3]), code: m[4], message: strings.TrimSpace(m[5])}, true
	default:
		m := genericRE.FindStringSubmatch(line)
		if m == nil {
			return entry{}, false
		}
		n, err := strconv.Atoi(m[3])
		if err != nil {
			return entry{}, false
		}
		return entry{file: strings.TrimSpace(m[2]), line: n, severity: parseSeverity(m[1]), message: strings.TrimSpace(m[4])}, true
	}
}

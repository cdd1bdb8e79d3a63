package include

import (
	"regexp"
	"unicode/utf8"
)

// directiveRE matches one include per line: optional indentation, the
// keyword, then a double-quoted path. Anything after the closing quote is
// ignored.
var directiveRE = regexp.MustCompile(`^\s*#include "([^"]+)"`)

// Directive is a parsed include line.
type Directive struct {
	Target   string
	ColStart int // character offset of the first rune inside the quotes
	ColEnd   int // character offset one past the last rune inside the quotes
}

// ParseDirective reports whether line is an include directive.
func ParseDirective(line string) (Directive, bool) {
	m := directiveRE.FindStringSubmatchIndex(line)
	if m == nil {
		return Directive{}, false
	}
	start, end := m[2], m[3]
	colStart := utf8.RuneCountInString(line[:start])
	return Directive{
		Target:   line[start:end],
		ColStart: colStart,
		ColEnd:   colStart + utf8.RuneCountInString(line[start:end]),
	}, true
}

package lsp

import (
	"fmt"
	"math"

	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"shaderls/internal/diag"
	"shaderls/internal/driver"
)

// Validator logs carry no columns; diagnostics cover the whole line.
const lineEndCharacter = protocol.UInteger(1000)

// publishResults publishes one notification per file of the combined report
// and turns a validator failure into a user-visible message.
func (s *Server) publishResults(results []driver.LintResult, lintErr error) error {
	if len(results) > 0 {
		if _, err := s.publishLint(results); err != nil {
			return err
		}
	}
	if lintErr != nil {
		s.log.Error("validation failed", "err", lintErr)
		return s.showError(fmt.Sprintf("Validation failed: %v", lintErr))
	}
	return nil
}

// publishLint publishes the combined report of results and clears files
// that left an entry's merge since its previous lint.
func (s *Server) publishLint(results []driver.LintResult) (diag.Report, error) {
	report := driver.Combine(results)
	if err := s.publishReport(report); err != nil {
		return report, err
	}
	return report, s.clearDropped(results, report)
}

// clearDropped clears a file that an entry no longer includes, unless this
// batch or another entry's last merge still covers it.
func (s *Server) clearDropped(results []driver.LintResult, report diag.Report) error {
	for _, r := range results {
		now := make(map[string]struct{}, len(r.Report))
		for _, p := range r.Report.Paths() {
			now[p] = struct{}{}
		}
		prev := s.participants[r.Entry]
		s.participants[r.Entry] = now
		for p := range prev {
			if _, ok := now[p]; ok {
				continue
			}
			if _, ok := report[p]; ok || s.participatesElsewhere(p, r.Entry) {
				continue
			}
			if err := s.clearPublished(pathToURI(p)); err != nil {
				return err
			}
			s.log.Debug("cleared diagnostics of dropped include", "path", p, "entry", r.Entry)
		}
	}
	return nil
}

func (s *Server) participatesElsewhere(path, entry string) bool {
	for e, paths := range s.participants {
		if e == entry {
			continue
		}
		if _, ok := paths[path]; ok {
			return true
		}
	}
	return false
}

func (s *Server) publishReport(report diag.Report) error {
	for _, path := range report.Paths() {
		uri := pathToURI(path)
		list := toProtocolDiagnostics(report[path].Items())
		if err := s.sendPublish(uri, list); err != nil {
			return err
		}
		s.published[uri] = struct{}{}
		s.log.Debug("published diagnostics", "uri", uri, "count", len(list))
	}
	return nil
}

func (s *Server) sendPublish(uri string, list []protocol.Diagnostic) error {
	if list == nil {
		list = []protocol.Diagnostic{}
	}
	return s.sendNotification("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Diagnostics: list,
	})
}

// clearPublished sends an empty list for uri if it carries diagnostics.
func (s *Server) clearPublished(uri string) error {
	if _, ok := s.published[uri]; !ok {
		return nil
	}
	delete(s.published, uri)
	return s.sendPublish(uri, nil)
}

func (s *Server) clearPublishedDiagnostics() {
	s.participants = make(map[string]map[string]struct{})
	if len(s.published) == 0 {
		return
	}
	prev := s.published
	s.published = make(map[string]struct{})
	for uri := range prev {
		if err := s.sendPublish(uri, nil); err != nil {
			s.log.Warn("failed to clear diagnostics", "uri", uri, "err", err)
		}
	}
}

func (s *Server) showError(message string) error {
	return s.showMessage(protocol.MessageTypeError, message)
}

func (s *Server) showMessage(typ protocol.MessageType, message string) error {
	return s.sendNotification("window/showMessage", protocol.ShowMessageParams{
		Type:    typ,
		Message: message,
	})
}

func toProtocolDiagnostics(items []diag.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(items))
	for _, d := range items {
		out = append(out, toProtocolDiagnostic(d))
	}
	return out
}

func toProtocolDiagnostic(d diag.Diagnostic) protocol.Diagnostic {
	line := toUInteger(d.Line)
	severity := toProtocolSeverity(d.Severity)
	source := diag.Source
	out := protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: 0},
			End:   protocol.Position{Line: line, Character: lineEndCharacter},
		},
		Severity: &severity,
		Source:   &source,
		Message:  d.Message,
	}
	if d.Code != "" {
		out.Code = &protocol.IntegerOrString{Value: d.Code}
	}
	return out
}

func toProtocolSeverity(sev diag.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case diag.SevWarning:
		return protocol.DiagnosticSeverityWarning
	case diag.SevInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}

// toUInteger clamps v into the unsigned range positions use.
func toUInteger(v int) protocol.UInteger {
	if v < 0 {
		return 0
	}
	n, err := safecast.Conv[protocol.UInteger](v)
	if err != nil {
		return math.MaxUint32
	}
	return n
}

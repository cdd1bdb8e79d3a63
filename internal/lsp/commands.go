package lsp

import (
	"encoding/json"
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"shaderls/internal/driver"
)

func (s *Server) handleDocumentLink(msg *rpcMessage) error {
	var params protocol.DocumentLinkParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	path := uriToPath(string(params.TextDocument.URI))
	if path == "" || !s.driver.Tracked(path) {
		s.log.Warn("document not found in graph", "uri", params.TextDocument.URI)
		return s.sendResponse(msg.ID, []protocol.DocumentLink{})
	}
	return s.sendResponse(msg.ID, toDocumentLinks(s.driver.Links(path)))
}

func toDocumentLinks(links []driver.Link) []protocol.DocumentLink {
	out := make([]protocol.DocumentLink, 0, len(links))
	for _, l := range links {
		target := protocol.DocumentUri(pathToURI(l.Target))
		tooltip := l.Target
		if !l.Exists {
			tooltip = "file not found: " + l.Target
		}
		line := toUInteger(l.Line)
		out = append(out, protocol.DocumentLink{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: toUInteger(l.ColStart)},
				End:   protocol.Position{Line: line, Character: toUInteger(l.ColEnd)},
			},
			Target:  &target,
			Tooltip: &tooltip,
		})
	}
	return out
}

func (s *Server) handleExecuteCommand(msg *rpcMessage) error {
	var params protocol.ExecuteCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	switch params.Command {
	case CommandGraphDot:
		dot := s.driver.Dot()
		s.log.Info("executed command successfully", "command", params.Command)
		if err := s.showMessage(protocol.MessageTypeInfo, fmt.Sprintf("Command %s executed successfully.", params.Command)); err != nil {
			return err
		}
		return s.sendResponse(msg.ID, dot)
	case CommandValidate:
		return s.executeValidate(msg, params.Arguments)
	default:
		return s.sendError(msg.ID, codeInvalidParams, fmt.Sprintf("unknown command %q", params.Command))
	}
}

// executeValidate lints the entries of the document named by the first
// argument and answers with the published diagnostics keyed by URI.
func (s *Server) executeValidate(msg *rpcMessage, args []any) error {
	uri := ""
	if len(args) > 0 {
		uri, _ = args[0].(string)
	}
	path := uriToPath(uri)
	if path == "" {
		return s.sendError(msg.ID, codeInvalidParams, "validate expects a document URI")
	}
	results, err := s.driver.LintPath(s.baseCtx, path)
	report, perr := s.publishLint(results)
	if perr != nil {
		return perr
	}
	if err != nil {
		s.log.Error("failed to execute command", "command", CommandValidate, "err", err)
		if serr := s.showError(fmt.Sprintf("Failed to execute `%s`. Reason: %v", CommandValidate, err)); serr != nil {
			return serr
		}
		return s.sendError(msg.ID, codeRequestFailed, err.Error())
	}
	out := make(map[string][]protocol.Diagnostic, len(report))
	for _, p := range report.Paths() {
		out[pathToURI(p)] = toProtocolDiagnostics(report[p].Items())
	}
	return s.sendResponse(msg.ID, out)
}

package lsp

import (
	"encoding/json"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("invalid didOpen params", "err", err)
		return nil
	}
	uri := canonicalURI(string(params.TextDocument.URI))
	if uri == "" {
		return nil
	}
	s.openDocs[uri] = params.TextDocument.Text
	results, err := s.driver.Open(s.baseCtx, uriToPath(uri), params.TextDocument.Text)
	return s.publishResults(results, err)
}

// handleDidChange only tracks the buffer; the graph follows saves.
func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("invalid didChange params", "err", err)
		return nil
	}
	uri := canonicalURI(string(params.TextDocument.URI))
	if uri == "" || len(params.ContentChanges) == 0 {
		return nil
	}
	s.openDocs[uri] = params.ContentChanges[len(params.ContentChanges)-1].Text
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("invalid didSave params", "err", err)
		return nil
	}
	uri := canonicalURI(string(params.TextDocument.URI))
	if uri == "" {
		return nil
	}
	if params.Text != nil {
		s.openDocs[uri] = *params.Text
	}
	results, err := s.driver.Save(s.baseCtx, uriToPath(uri), params.Text)
	return s.publishResults(results, err)
}

// handleDidClose keeps published diagnostics: the file is still part of the
// graph and its entries.
func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("invalid didClose params", "err", err)
		return nil
	}
	uri := canonicalURI(string(params.TextDocument.URI))
	if uri == "" {
		return nil
	}
	delete(s.openDocs, uri)
	s.driver.Close(uriToPath(uri))
	return nil
}

func (s *Server) handleDidChangeWatchedFiles(msg *rpcMessage) error {
	var params protocol.DidChangeWatchedFilesParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("invalid didChangeWatchedFiles params", "err", err)
		return nil
	}
	for _, ev := range params.Changes {
		path := uriToPath(string(ev.URI))
		if path == "" {
			continue
		}
		var err error
		if int(ev.Type) == int(protocol.FileChangeTypeDeleted) {
			err = s.deletePath(path)
		} else {
			err = s.changePath(path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// changePath reacts to a file created or modified outside the editor.
func (s *Server) changePath(path string) error {
	if !s.driver.Tracked(path) && !s.driver.Workspace().IsShaderSource(path) {
		return nil
	}
	results, err := s.driver.WatchedChange(s.baseCtx, path)
	return s.publishResults(results, err)
}

// deletePath drops path from the graph and clears its diagnostics.
func (s *Server) deletePath(path string) error {
	if !s.driver.Tracked(path) {
		return nil
	}
	results, err := s.driver.Delete(s.baseCtx, path)
	delete(s.participants, path)
	if perr := s.clearPublished(pathToURI(path)); perr != nil {
		return perr
	}
	return s.publishResults(results, err)
}

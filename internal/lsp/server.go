package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"shaderls/internal/driver"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// Commands accepted by workspace/executeCommand.
const (
	CommandGraphDot = "graphDot"
	CommandValidate = "validate"
)

const (
	iconLoading = "$(loading~spin)"
	iconReady   = "$(check)"
	iconError   = "$(error)"
)

// DriverFactory builds the driver for a workspace root. A non-nil extra
// replaces the workspace's configured extra extensions.
type DriverFactory func(ctx context.Context, root string, extra []string) (*driver.Driver, error)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	NewDriver DriverFactory
	Log       *slog.Logger
	// Level is adjusted by the mcglsl.logLevel setting when set.
	Level *slog.LevelVar
	// Watch makes the server watch the shader roots itself instead of
	// relying on client file events.
	Watch   bool
	Version string
}

// Server handles stdio JSON-RPC for the shader language server. Messages and
// file events are handled one at a time on the goroutine that calls Run.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	opts    ServerOptions
	log     *slog.Logger
	baseCtx context.Context

	driver            *driver.Driver
	root              string
	extra             []string
	openDocs          map[string]string
	published         map[string]struct{}
	participants      map[string]map[string]struct{} // entry path -> paths of its last merge
	shutdownRequested bool
	watcher           *watcher
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		in:           bufio.NewReader(in),
		out:          bufio.NewWriter(out),
		opts:         opts,
		log:          log,
		baseCtx:      context.Background(),
		openDocs:     make(map[string]string),
		published:    make(map[string]struct{}),
		participants: make(map[string]map[string]struct{}),
	}
}

// Run serves LSP requests until exit, end of input or ctx cancellation.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.baseCtx = ctx
	defer s.stopWatching()

	payloads := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			payload, err := readMessage(s.in)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case payloads <- payload:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case payload := <-payloads:
			var msg rpcMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				s.log.Warn("failed to parse message", "err", err)
				continue
			}
			if msg.Method == "" {
				continue
			}
			if err := s.handleMessage(&msg); err != nil {
				return err
			}
		case ev, ok := <-s.watcher.events():
			if !ok {
				s.watcher = nil
				continue
			}
			if err := s.handleFileEvent(ev); err != nil {
				return err
			}
		case err, ok := <-s.watcher.errors():
			if !ok {
				s.watcher = nil
				continue
			}
			s.log.Warn("file watcher error", "err", err)
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	}
	if s.driver == nil {
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeNotInitialized, "server not initialized")
		}
		s.log.Debug("dropping notification before initialize", "method", msg.Method)
		return nil
	}
	switch msg.Method {
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "workspace/didChangeWatchedFiles":
		return s.handleDidChangeWatchedFiles(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/documentLink":
		return s.handleDocumentLink(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := workspaceRoot(params)
	if root == "" {
		s.log.Warn("initialize without a workspace root")
		return s.sendErrorData(msg.ID, codeNotInWorkspace, "Must be in workspace", initializeError{Retry: false})
	}
	s.root = root
	s.log.Info("starting server", "root", root)

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    1,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			DocumentLinkProvider: &documentLinkOptions{},
			ExecuteCommandProvider: &executeCommandOptions{
				Commands: []string{CommandGraphDot, CommandValidate},
			},
		},
		ServerInfo: &serverInfo{Name: "shaderls", Version: s.opts.Version},
	}
	if err := s.sendResponse(msg.ID, result); err != nil {
		return err
	}
	return s.build()
}

// build creates the driver for the workspace root and starts watching it.
func (s *Server) build() error {
	if err := s.sendStatus("loading", "Building dependency graph...", iconLoading); err != nil {
		return err
	}
	if s.opts.NewDriver == nil {
		return errors.New("lsp: no driver factory configured")
	}
	d, err := s.opts.NewDriver(s.baseCtx, s.root, s.extra)
	if err != nil {
		s.log.Error("failed to build dependency graph", "root", s.root, "err", err)
		if err := s.sendStatus("failed", "Failed to build dependency graph", iconError); err != nil {
			return err
		}
		return s.showError(fmt.Sprintf("Failed to build dependency graph: %v", err))
	}
	s.driver = d
	s.startWatching()
	return s.sendStatus("ready", "Project initialized", iconReady)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.shutdownRequested = true
	s.log.Warn("shutting down language server")
	s.stopWatching()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	return s.sendErrorData(id, code, message, nil)
}

func (s *Server) sendErrorData(id json.RawMessage, code int, message string, data any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
	return s.send(msg)
}

func (s *Server) sendNotification(method string, params any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}
	return s.send(msg)
}

func (s *Server) sendStatus(status, message, icon string) error {
	return s.sendNotification(statusMethod, statusParams{
		Status:  status,
		Message: message,
		Icon:    icon,
	})
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

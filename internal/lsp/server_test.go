package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shaderls/internal/driver"
	"shaderls/internal/graph"
	"shaderls/internal/validator"
)

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// fakeValidator answers every compile with log and counts the calls.
type fakeValidator struct {
	vendor string
	log    string
	err    error
	calls  int
}

func (f *fakeValidator) Vendor() string { return f.vendor }

func (f *fakeValidator) Validate(context.Context, graph.Stage, string) (string, error) {
	f.calls++
	return f.log, f.err
}

var _ validator.Validator = (*fakeValidator)(nil)

func newTestServer(v validator.Validator, out io.Writer) *Server {
	return NewServer(bytes.NewReader(nil), out, ServerOptions{
		NewDriver: func(ctx context.Context, root string, extra []string) (*driver.Driver, error) {
			return driver.New(ctx, driver.Options{Root: root, Validator: v, ExtraExtensions: extra})
		},
	})
}

func request(t *testing.T, s *Server, id int, method string, params any) error {
	t.Helper()
	msg := &rpcMessage{JSONRPC: "2.0", Method: method}
	if id > 0 {
		msg.ID = mustJSON(t, id)
	}
	if params != nil {
		msg.Params = mustJSON(t, params)
	}
	return s.handleMessage(msg)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return payload
}

func readAll(t *testing.T, out *bytes.Buffer) []rpcMessage {
	t.Helper()
	reader := bufio.NewReader(bytes.NewReader(out.Bytes()))
	var msgs []rpcMessage
	for {
		payload, err := readMessage(reader)
		if errors.Is(err, io.EOF) {
			return msgs
		}
		if err != nil {
			t.Fatalf("read message: %v", err)
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		msgs = append(msgs, msg)
	}
}

type wireDiagnostic struct {
	Range struct {
		Start struct{ Line, Character int }
		End   struct{ Line, Character int }
	}
	Severity int
	Source   string
	Message  string
}

type wirePublish struct {
	URI         string           `json:"uri"`
	Diagnostics []wireDiagnostic `json:"diagnostics"`
}

func publishes(t *testing.T, msgs []rpcMessage) map[string][]wireDiagnostic {
	t.Helper()
	out := make(map[string][]wireDiagnostic)
	for _, msg := range msgs {
		if msg.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var params wirePublish
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			t.Fatalf("decode publish: %v", err)
		}
		if params.Diagnostics == nil {
			t.Fatalf("publish for %s must carry an empty list, not null", params.URI)
		}
		out[params.URI] = params.Diagnostics
	}
	return out
}

func methods(msgs []rpcMessage) []string {
	var out []string
	for _, msg := range msgs {
		if msg.Method != "" {
			out = append(out, msg.Method)
		}
	}
	return out
}

func initialized(t *testing.T, dir string, v validator.Validator) (*Server, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s := newTestServer(v, &out)
	if err := request(t, s, 1, "initialize", initializeParams{RootURI: pathToURI(dir)}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if s.driver == nil {
		t.Fatalf("initialize did not build the driver: %v", methods(readAll(t, &out)))
	}
	out.Reset()
	return s, &out
}

func TestInitializeWithoutRootFails(t *testing.T) {
	var out bytes.Buffer
	s := newTestServer(validator.Static("", ""), &out)
	if err := request(t, s, 1, "initialize", initializeParams{}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	msgs := readAll(t, &out)
	if len(msgs) != 1 || msgs[0].Error == nil {
		t.Fatalf("expected a single error response, got %+v", msgs)
	}
	if msgs[0].Error.Code != codeNotInWorkspace || msgs[0].Error.Message != "Must be in workspace" {
		t.Fatalf("unexpected error %+v", msgs[0].Error)
	}
	if s.driver != nil {
		t.Fatal("driver must not be built without a root")
	}
}

func TestInitializeBuildsGraphAndReportsStatus(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":       "#include \"/lib/common.glsl\"\n",
		"shaders/lib/common.glsl": "float c;\n",
	})
	var out bytes.Buffer
	s := newTestServer(validator.Static("", ""), &out)
	if err := request(t, s, 1, "initialize", initializeParams{RootURI: pathToURI(dir)}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	msgs := readAll(t, &out)
	if len(msgs) != 3 {
		t.Fatalf("expected response and two status notifications, got %d", len(msgs))
	}
	var result initializeResult
	if err := json.Unmarshal(msgs[0].Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	caps := result.Capabilities
	if !caps.TextDocumentSync.OpenClose || caps.TextDocumentSync.Change != 1 || !caps.TextDocumentSync.Save.IncludeText {
		t.Fatalf("unexpected sync options %+v", caps.TextDocumentSync)
	}
	if caps.DocumentLinkProvider == nil || caps.ExecuteCommandProvider == nil {
		t.Fatalf("missing providers %+v", caps)
	}
	if got := strings.Join(caps.ExecuteCommandProvider.Commands, ","); got != "graphDot,validate" {
		t.Fatalf("unexpected commands %q", got)
	}

	var statuses []string
	for _, msg := range msgs[1:] {
		if msg.Method != statusMethod {
			t.Fatalf("unexpected notification %q", msg.Method)
		}
		var st statusParams
		if err := json.Unmarshal(msg.Params, &st); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		statuses = append(statuses, st.Status+":"+st.Message)
	}
	if got := strings.Join(statuses, "|"); got != "loading:Building dependency graph...|ready:Project initialized" {
		t.Fatalf("unexpected statuses %q", got)
	}
	if !s.driver.Tracked(filepath.Join(dir, "shaders", "lib", "common.glsl")) {
		t.Fatal("rooted include not tracked")
	}
}

func TestRequestsBeforeInitialize(t *testing.T) {
	var out bytes.Buffer
	s := newTestServer(validator.Static("", ""), &out)
	if err := request(t, s, 7, "textDocument/documentLink", map[string]any{"textDocument": map[string]string{"uri": "file:///x.fsh"}}); err != nil {
		t.Fatalf("documentLink: %v", err)
	}
	if err := request(t, s, 0, "textDocument/didSave", map[string]any{"textDocument": map[string]string{"uri": "file:///x.fsh"}}); err != nil {
		t.Fatalf("didSave: %v", err)
	}
	msgs := readAll(t, &out)
	if len(msgs) != 1 || msgs[0].Error == nil || msgs[0].Error.Code != codeNotInitialized {
		t.Fatalf("expected one not-initialized error, got %+v", msgs)
	}
}

func TestDidSavePublishesRemappedDiagnostics(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":   "#version 120\n#include \"common.glsl\"\nvoid main() {}\n",
		"shaders/common.glsl": "float c;\nfloat d\n",
	})
	v := &fakeValidator{vendor: "NVIDIA Corporation", log: "1(2) : error C0000: syntax error\n0(3) : warning C7022: unrecognized profile\n"}
	s, out := initialized(t, dir, v)

	common := filepath.Join(dir, "shaders", "common.glsl")
	text := "float c;\nfloat d\n"
	if err := request(t, s, 0, "textDocument/didSave", map[string]any{
		"textDocument": map[string]string{"uri": pathToURI(common)},
		"text":         text,
	}); err != nil {
		t.Fatalf("didSave: %v", err)
	}
	got := publishes(t, readAll(t, out))
	commonDiags := got[pathToURI(common)]
	if len(commonDiags) != 1 {
		t.Fatalf("expected one diagnostic on common.glsl, got %+v", got)
	}
	d := commonDiags[0]
	if d.Range.Start.Line != 1 || d.Range.Start.Character != 0 || d.Severity != 1 || d.Source != "shaderls" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if !strings.Contains(d.Message, "syntax error") {
		t.Fatalf("unexpected message %q", d.Message)
	}
	entry := got[pathToURI(filepath.Join(dir, "shaders", "final.fsh"))]
	if len(entry) != 1 || entry[0].Severity != 2 || entry[0].Range.Start.Line != 2 {
		t.Fatalf("unexpected entry diagnostics %+v", entry)
	}
	if v.calls != 1 {
		t.Fatalf("expected one validation, got %d", v.calls)
	}
}

func TestCleanLintClearsPublishedDiagnostics(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":   "#include \"common.glsl\"\n",
		"shaders/common.glsl": "float c\n",
	})
	v := &fakeValidator{vendor: "NVIDIA Corporation", log: "1(1) : error C0000: syntax error\n"}
	s, out := initialized(t, dir, v)
	final := pathToURI(filepath.Join(dir, "shaders", "final.fsh"))
	common := pathToURI(filepath.Join(dir, "shaders", "common.glsl"))

	if err := request(t, s, 0, "textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{"uri": final, "languageId": "glsl", "version": 1, "text": "#include \"common.glsl\"\n"},
	}); err != nil {
		t.Fatalf("didOpen: %v", err)
	}
	if got := publishes(t, readAll(t, out)); len(got[common]) != 1 {
		t.Fatalf("expected a diagnostic on common.glsl, got %+v", got)
	}
	out.Reset()

	v.log = ""
	if err := request(t, s, 0, "textDocument/didSave", map[string]any{
		"textDocument": map[string]string{"uri": common},
		"text":         "float c;\n",
	}); err != nil {
		t.Fatalf("didSave: %v", err)
	}
	got := publishes(t, readAll(t, out))
	if len(got) != 2 {
		t.Fatalf("expected both files published, got %+v", got)
	}
	for uri, list := range got {
		if len(list) != 0 {
			t.Fatalf("%s not cleared: %+v", uri, list)
		}
	}
}

func TestDroppedIncludeIsCleared(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "#include \"b.glsl\"\nvoid main() {}\n",
		"shaders/b.glsl":    "float b\n",
	})
	v := &fakeValidator{vendor: "NVIDIA Corporation", log: "1(1) : error C0000: syntax error\n"}
	s, out := initialized(t, dir, v)
	final := pathToURI(filepath.Join(dir, "shaders", "final.fsh"))
	b := pathToURI(filepath.Join(dir, "shaders", "b.glsl"))

	if err := request(t, s, 0, "textDocument/didSave", map[string]any{
		"textDocument": map[string]string{"uri": final},
	}); err != nil {
		t.Fatalf("didSave: %v", err)
	}
	if got := publishes(t, readAll(t, out)); len(got[b]) != 1 {
		t.Fatalf("expected a diagnostic on b.glsl, got %+v", got)
	}
	out.Reset()

	v.log = ""
	if err := request(t, s, 0, "textDocument/didSave", map[string]any{
		"textDocument": map[string]string{"uri": final},
		"text":         "void main() {}\n",
	}); err != nil {
		t.Fatalf("didSave: %v", err)
	}
	got := publishes(t, readAll(t, out))
	list, ok := got[b]
	if !ok || len(list) != 0 {
		t.Fatalf("expected b.glsl cleared after the include was removed, got %+v", got)
	}
	if list, ok := got[final]; !ok || len(list) != 0 {
		t.Fatalf("expected final.fsh cleared, got %+v", got)
	}
}

func TestValidatorFailureShowsMessage(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "void main() {}\n",
	})
	v := &fakeValidator{err: validator.ErrTimeout}
	s, out := initialized(t, dir, v)

	if err := request(t, s, 0, "textDocument/didSave", map[string]any{
		"textDocument": map[string]string{"uri": pathToURI(filepath.Join(dir, "shaders", "final.fsh"))},
	}); err != nil {
		t.Fatalf("didSave: %v", err)
	}
	msgs := readAll(t, out)
	if len(msgs) != 1 || msgs[0].Method != "window/showMessage" {
		t.Fatalf("expected a showMessage, got %v", methods(msgs))
	}
	var params struct {
		Type    int    `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(msgs[0].Params, &params); err != nil {
		t.Fatalf("decode showMessage: %v", err)
	}
	if params.Type != 1 || !strings.Contains(params.Message, "timed out") {
		t.Fatalf("unexpected message %+v", params)
	}
}

func TestDocumentLinks(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":   "#include \"common.glsl\"\n  #include \"gone.glsl\"\n",
		"shaders/common.glsl": "float c;\n",
	})
	s, out := initialized(t, dir, validator.Static("", ""))
	final := filepath.Join(dir, "shaders", "final.fsh")

	if err := request(t, s, 2, "textDocument/documentLink", map[string]any{
		"textDocument": map[string]string{"uri": pathToURI(final)},
	}); err != nil {
		t.Fatalf("documentLink: %v", err)
	}
	msgs := readAll(t, out)
	if len(msgs) != 1 {
		t.Fatalf("expected one response, got %d", len(msgs))
	}
	var links []struct {
		Range struct {
			Start struct{ Line, Character int }
			End   struct{ Line, Character int }
		}
		Target  string
		Tooltip string
	}
	if err := json.Unmarshal(msgs[0].Result, &links); err != nil {
		t.Fatalf("decode links: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %+v", links)
	}
	first := links[0]
	if first.Range.Start.Line != 0 || first.Range.Start.Character != 10 || first.Range.End.Character != 21 {
		t.Fatalf("unexpected first range %+v", first.Range)
	}
	if first.Target != pathToURI(filepath.Join(dir, "shaders", "common.glsl")) {
		t.Fatalf("unexpected target %q", first.Target)
	}
	second := links[1]
	if second.Range.Start.Line != 1 || second.Range.Start.Character != 12 || !strings.HasPrefix(second.Tooltip, "file not found") {
		t.Fatalf("unexpected second link %+v", second)
	}
}

func TestExecuteGraphDot(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":   "#include \"common.glsl\"\n",
		"shaders/common.glsl": "float c;\n",
	})
	s, out := initialized(t, dir, validator.Static("", ""))
	if err := request(t, s, 3, "workspace/executeCommand", map[string]any{"command": CommandGraphDot}); err != nil {
		t.Fatalf("executeCommand: %v", err)
	}
	msgs := readAll(t, out)
	if len(msgs) != 2 || msgs[0].Method != "window/showMessage" {
		t.Fatalf("expected showMessage and response, got %+v", msgs)
	}
	var dot string
	if err := json.Unmarshal(msgs[1].Result, &dot); err != nil {
		t.Fatalf("decode dot: %v", err)
	}
	if !strings.HasPrefix(dot, "digraph {") || !strings.Contains(dot, "{line: 0}") {
		t.Fatalf("unexpected dot output:\n%s", dot)
	}
}

func TestExecuteValidate(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":   "#include \"common.glsl\"\n",
		"shaders/common.glsl": "float c\n",
	})
	v := &fakeValidator{vendor: "NVIDIA Corporation", log: "1(1) : error C0000: syntax error\n"}
	s, out := initialized(t, dir, v)
	common := pathToURI(filepath.Join(dir, "shaders", "common.glsl"))

	if err := request(t, s, 4, "workspace/executeCommand", map[string]any{
		"command":   CommandValidate,
		"arguments": []any{common},
	}); err != nil {
		t.Fatalf("executeCommand: %v", err)
	}
	msgs := readAll(t, out)
	last := msgs[len(msgs)-1]
	if last.Error != nil {
		t.Fatalf("unexpected error %+v", last.Error)
	}
	var result map[string][]wireDiagnostic
	if err := json.Unmarshal(last.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result[common]) != 1 || len(result) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := publishes(t, msgs); len(got[common]) != 1 {
		t.Fatalf("validate should also publish, got %+v", got)
	}
	out.Reset()

	v.err = errors.New("validator crashed")
	if err := request(t, s, 5, "workspace/executeCommand", map[string]any{
		"command":   CommandValidate,
		"arguments": []any{common},
	}); err != nil {
		t.Fatalf("executeCommand: %v", err)
	}
	msgs = readAll(t, out)
	last = msgs[len(msgs)-1]
	if last.Error == nil || last.Error.Code != codeRequestFailed {
		t.Fatalf("expected request failed error, got %+v", last)
	}
	out.Reset()

	if err := request(t, s, 6, "workspace/executeCommand", map[string]any{"command": CommandValidate}); err != nil {
		t.Fatalf("executeCommand: %v", err)
	}
	msgs = readAll(t, out)
	if len(msgs) != 1 || msgs[0].Error == nil || msgs[0].Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", msgs)
	}
}

func TestWatchedDeleteClearsAndRelints(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":   "#include \"common.glsl\"\n",
		"shaders/common.glsl": "float c\n",
	})
	v := &fakeValidator{vendor: "NVIDIA Corporation", log: "1(1) : error C0000: syntax error\n"}
	s, out := initialized(t, dir, v)
	commonPath := filepath.Join(dir, "shaders", "common.glsl")
	common := pathToURI(commonPath)
	final := pathToURI(filepath.Join(dir, "shaders", "final.fsh"))

	if err := request(t, s, 0, "textDocument/didSave", map[string]any{"textDocument": map[string]string{"uri": common}}); err != nil {
		t.Fatalf("didSave: %v", err)
	}
	out.Reset()

	if err := os.Remove(commonPath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	v.log = ""
	if err := request(t, s, 0, "workspace/didChangeWatchedFiles", map[string]any{
		"changes": []map[string]any{{"uri": common, "type": 3}},
	}); err != nil {
		t.Fatalf("didChangeWatchedFiles: %v", err)
	}
	got := publishes(t, readAll(t, out))
	if list, ok := got[common]; !ok || len(list) != 0 {
		t.Fatalf("deleted file should be cleared, got %+v", got)
	}
	if list, ok := got[final]; !ok || len(list) != 0 {
		t.Fatalf("entry should be relinted, got %+v", got)
	}
	if _, ok := s.published[common]; ok {
		t.Fatal("deleted file still marked as published")
	}
}

func TestWatchedCreateAddsEntry(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "void main() {}\n",
	})
	v := &fakeValidator{}
	s, out := initialized(t, dir, v)

	composite := filepath.Join(dir, "shaders", "composite.fsh")
	writeTree(t, dir, map[string]string{"shaders/composite.fsh": "void main() {}\n"})
	if err := request(t, s, 0, "workspace/didChangeWatchedFiles", map[string]any{
		"changes": []map[string]any{{"uri": pathToURI(composite), "type": 1}},
	}); err != nil {
		t.Fatalf("didChangeWatchedFiles: %v", err)
	}
	if !s.driver.Tracked(composite) {
		t.Fatal("new entry not tracked")
	}
	if got := publishes(t, readAll(t, out)); len(got) != 1 {
		t.Fatalf("expected the new entry published, got %+v", got)
	}
	if v.calls != 1 {
		t.Fatalf("expected one validation, got %d", v.calls)
	}
}

func TestShutdownClearsPublishedAndExit(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "void main() {}\n",
	})
	s, out := initialized(t, dir, &fakeValidator{})
	if err := request(t, s, 0, "textDocument/didSave", map[string]any{
		"textDocument": map[string]string{"uri": pathToURI(filepath.Join(dir, "shaders", "final.fsh"))},
	}); err != nil {
		t.Fatalf("didSave: %v", err)
	}
	out.Reset()

	if err := request(t, s, 9, "shutdown", nil); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	msgs := readAll(t, out)
	if len(msgs) != 2 || msgs[0].Method != "textDocument/publishDiagnostics" {
		t.Fatalf("expected a clearing publish before the response, got %+v", msgs)
	}
	if err := request(t, s, 0, "exit", nil); !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}

	fresh := newTestServer(validator.Static("", ""), io.Discard)
	if err := request(t, fresh, 0, "exit", nil); !errors.Is(err, ErrExitWithoutShutdown) {
		t.Fatalf("expected ErrExitWithoutShutdown, got %v", err)
	}
}

func TestRunServesFramedInput(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "void main() {}\n",
	})
	var in bytes.Buffer
	for _, msg := range []map[string]any{
		{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": map[string]any{"rootUri": pathToURI(dir)}},
		{"jsonrpc": "2.0", "method": "initialized", "params": map[string]any{}},
		{"jsonrpc": "2.0", "id": 2, "method": "shutdown"},
		{"jsonrpc": "2.0", "method": "exit"},
	} {
		if err := writeMessage(&in, mustJSON(t, msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	var out bytes.Buffer
	v := validator.Static("", "")
	s := NewServer(&in, &out, ServerOptions{
		NewDriver: func(ctx context.Context, root string, extra []string) (*driver.Driver, error) {
			return driver.New(ctx, driver.Options{Root: root, Validator: v, ExtraExtensions: extra})
		},
	})
	if err := s.Run(context.Background()); !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
	var responses int
	for _, msg := range readAll(t, &out) {
		if len(msg.ID) > 0 {
			responses++
		}
	}
	if responses != 2 {
		t.Fatalf("expected 2 responses, got %d", responses)
	}
}

func TestConfigurationChangeRebuilds(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "void main() {}\n",
		"shaders/lib.inc":   "float inc;\n",
	})
	level := new(slog.LevelVar)
	var out bytes.Buffer
	v := &fakeValidator{}
	s := NewServer(bytes.NewReader(nil), &out, ServerOptions{
		Level: level,
		NewDriver: func(ctx context.Context, root string, extra []string) (*driver.Driver, error) {
			return driver.New(ctx, driver.Options{Root: root, Validator: v, ExtraExtensions: extra})
		},
	})
	if err := request(t, s, 1, "initialize", initializeParams{RootURI: pathToURI(dir)}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	inc := filepath.Join(dir, "shaders", "lib.inc")
	if s.driver.Workspace().IsShaderSource(inc) {
		t.Fatal(".inc should not be a shader source before the change")
	}
	out.Reset()

	if err := request(t, s, 0, "workspace/didChangeConfiguration", map[string]any{
		"settings": map[string]any{"mcglsl": map[string]any{"logLevel": "debug", "extraExtension": []string{"inc"}}},
	}); err != nil {
		t.Fatalf("didChangeConfiguration: %v", err)
	}
	if level.Level() != slog.LevelDebug {
		t.Fatalf("log level not applied: %v", level.Level())
	}
	if !s.driver.Workspace().IsShaderSource(inc) {
		t.Fatal("extra extension not applied")
	}
	var statuses []string
	for _, msg := range readAll(t, &out) {
		if msg.Method != statusMethod {
			continue
		}
		var st statusParams
		if err := json.Unmarshal(msg.Params, &st); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		statuses = append(statuses, st.Status+":"+st.Message)
	}
	if got := strings.Join(statuses, "|"); got != "loading:Rebuilding dependency graph...|ready:Project reinitialized" {
		t.Fatalf("unexpected statuses %q", got)
	}
}

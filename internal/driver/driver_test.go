package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"shaderls/internal/diag"
	"shaderls/internal/graph"
	"shaderls/internal/observ"
	"shaderls/internal/testkit"
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

// recorder captures every submitted translation unit and replies with log.
type recorder struct {
	mu      sync.Mutex
	vendor  string
	log     string
	err     error
	sources []string
}

func (r *recorder) Vendor() string { return r.vendor }

func (r *recorder) Validate(_ context.Context, _ graph.Stage, src string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, src)
	return r.log, r.err
}

func newDriver(t *testing.T, dir string, v validator.Validator) *Driver {
	t.Helper()
	d, err := New(context.Background(), Options{Root: dir, Validator: v, Timer: observ.NewTimer()})
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	return d
}

func TestCleanLintClearsEveryFile(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":       "#version 120\n#include \"lib/a.glsl\"\n#include \"lib/b.glsl\"\n",
		"shaders/lib/a.glsl":      "float a;\n",
		"shaders/lib/b.glsl":      "float b;\n",
		"shaders/lib/unused.glsl": "float u;\n",
	})
	d := newDriver(t, dir, &recorder{vendor: "Intel"})

	results, err := d.LintPath(context.Background(), filepath.Join(dir, "shaders", "final.fsh"))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	report := Combine(results)
	if len(report) != 3 {
		t.Fatalf("expected 3 cleared files, got %v", report.Paths())
	}
	for _, p := range report.Paths() {
		if report[p].Len() != 0 {
			t.Fatalf("file %s not cleared", p)
		}
	}
}

func TestLintRemapsToIncludedFile(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":   "#include \"common.glsl\"\nvoid main() {}\n",
		"shaders/common.glsl": "float c;\nfloat d\n",
	})
	rec := &recorder{vendor: "NVIDIA Corporation", log: "1(2) : error C0000: syntax error, unexpected end of file\n"}
	d := newDriver(t, dir, rec)

	results, err := d.LintPath(context.Background(), filepath.Join(dir, "shaders", "common.glsl"))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	report := Combine(results)
	common := report[filepath.Join(dir, "shaders", "common.glsl")]
	if common == nil || common.Len() != 1 {
		t.Fatalf("expected a diagnostic on common.glsl, got %v", report.Paths())
	}
	if got := common.Items()[0]; got.Line != 1 || got.Severity != diag.SevError {
		t.Fatalf("unexpected diagnostic %+v", got)
	}
	entry := report[filepath.Join(dir, "shaders", "final.fsh")]
	if entry == nil || entry.Len() != 0 {
		t.Fatalf("entry should be published empty")
	}
	if !strings.Contains(rec.sources[0], "#line 1 1\nfloat c;\n") {
		t.Fatalf("validator did not receive merged text:\n%s", rec.sources[0])
	}
}

func TestMissingIncludeStillValidates(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "#include \"gone.glsl\"\n",
	})
	rec := &recorder{vendor: "Intel"}
	d := newDriver(t, dir, rec)

	if _, err := d.LintPath(context.Background(), filepath.Join(dir, "shaders", "final.fsh")); err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(rec.sources) != 1 || rec.sources[0] != "#include \"gone.glsl\"\n" {
		t.Fatalf("unexpected validator input %q", rec.sources)
	}
	links := d.Links(filepath.Join(dir, "shaders", "final.fsh"))
	if len(links) != 1 || links[0].Exists || links[0].ColStart != 10 || links[0].ColEnd != 19 {
		t.Fatalf("unexpected links %+v", links)
	}
}

func TestSaveRescansAndLintsOwners(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":     "#include \"common.glsl\"\n",
		"shaders/composite.fsh": "#include \"common.glsl\"\n",
		"shaders/common.glsl":   "float c;\n",
		"shaders/extra.glsl":    "float e;\n",
	})
	rec := &recorder{vendor: "Intel"}
	d := newDriver(t, dir, rec)
	common := filepath.Join(dir, "shaders", "common.glsl")

	text := "#include \"extra.glsl\"\nfloat c;\n"
	results, err := d.Save(context.Background(), common, &text)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both entries linted, got %d", len(results))
	}
	id, _ := d.Graph().Find(common)
	if len(d.Graph().OutEdges(id)) != 1 {
		t.Fatalf("saved text was not rescanned")
	}
	if _, ok := Combine(results)[filepath.Join(dir, "shaders", "extra.glsl")]; !ok {
		t.Fatalf("new include not part of the lint")
	}
	if err := testkit.CheckGraphInvariants(d.Graph()); err != nil {
		t.Fatalf("graph after save: %v", err)
	}
}

func TestSaveExpandsIncludeCreatedOnDisk(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "#version 120\n#include \"new.glsl\"\n",
	})
	rec := &recorder{vendor: "Intel"}
	d := newDriver(t, dir, rec)
	entry := filepath.Join(dir, "shaders", "final.fsh")

	writeTree(t, dir, map[string]string{"shaders/new.glsl": "float n;\n"})
	if _, err := d.Save(context.Background(), entry, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	text, _, err := d.Merge(entry)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !strings.Contains(text, "float n;") {
		t.Fatalf("created include not expanded:\n%s", text)
	}
	if last := rec.sources[len(rec.sources)-1]; !strings.Contains(last, "float n;") {
		t.Fatalf("validator saw the unexpanded directive: %q", last)
	}
}

func TestOpenUsesOverlayAndCloseDropsIt(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "float disk;\n",
	})
	rec := &recorder{vendor: "Intel"}
	d := newDriver(t, dir, rec)
	entry := filepath.Join(dir, "shaders", "final.fsh")

	if _, err := d.Open(context.Background(), entry, "float editor;\n"); err != nil {
		t.Fatalf("open: %v", err)
	}
	d.Close(entry)
	if _, err := d.LintPath(context.Background(), entry); err != nil {
		t.Fatalf("lint: %v", err)
	}
	if rec.sources[0] != "float editor;\n" || rec.sources[1] != "float disk;\n" {
		t.Fatalf("unexpected validator inputs %q", rec.sources)
	}
}

func TestDeleteIncludeRelintsEntries(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":   "#include \"common.glsl\"\n",
		"shaders/common.glsl": "float c;\n",
	})
	rec := &recorder{vendor: "Intel"}
	d := newDriver(t, dir, rec)
	common := filepath.Join(dir, "shaders", "common.glsl")
	if err := os.Remove(common); err != nil {
		t.Fatalf("remove: %v", err)
	}

	results, err := d.Delete(context.Background(), common)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected the entry to be linted again, got %d", len(results))
	}
	if !d.Tracked(common) {
		t.Fatalf("included file should stay as a placeholder")
	}
	if rec.sources[len(rec.sources)-1] != "#include \"common.glsl\"\n" {
		t.Fatalf("deleted include was expanded: %q", rec.sources[len(rec.sources)-1])
	}
	if err := testkit.CheckGraphInvariants(d.Graph()); err != nil {
		t.Fatalf("graph after delete: %v", err)
	}
}

func TestWatchedChangeAddsNewEntry(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "\n",
	})
	d := newDriver(t, dir, &recorder{vendor: "Intel"})
	writeTree(t, dir, map[string]string{
		"shaders/world-1/composite.fsh": "#include \"/lib/x.glsl\"\n",
		"shaders/lib/x.glsl":            "float x;\n",
		"shaders/notes.txt":             "",
	})

	results, err := d.WatchedChange(context.Background(), filepath.Join(dir, "shaders", "world-1", "composite.fsh"))
	if err != nil {
		t.Fatalf("watched change: %v", err)
	}
	if len(results) != 1 || results[0].Stage != graph.StageFragment {
		t.Fatalf("unexpected results %+v", results)
	}
	if !d.Tracked(filepath.Join(dir, "shaders", "lib", "x.glsl")) {
		t.Fatalf("rooted include did not resolve against the shaders folder")
	}
	if results, err := d.WatchedChange(context.Background(), filepath.Join(dir, "shaders", "notes.txt")); err != nil || results != nil {
		t.Fatalf("unrelated file produced results: %v, %v", results, err)
	}
	if err := testkit.CheckGraphInvariants(d.Graph()); err != nil {
		t.Fatalf("graph after watched change: %v", err)
	}
}

func TestLintPathErrors(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "\n",
	})
	d := newDriver(t, dir, &recorder{vendor: "Intel"})
	if _, err := d.LintPath(context.Background(), filepath.Join(dir, "shaders", "nope.glsl")); !errors.Is(err, ErrNotTracked) {
		t.Fatalf("expected ErrNotTracked, got %v", err)
	}

	failing := newDriver(t, dir, &recorder{vendor: "Intel", err: validator.ErrTimeout})
	if _, err := failing.LintPath(context.Background(), filepath.Join(dir, "shaders", "final.fsh")); !errors.Is(err, validator.ErrTimeout) {
		t.Fatalf("expected validator error, got %v", err)
	}
}

func TestLintEntriesInParallel(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":     "#include \"common.glsl\"\n",
		"shaders/final.vsh":     "#include \"common.glsl\"\n",
		"shaders/composite.fsh": "\n",
		"shaders/common.glsl":   "float c;\n",
	})
	rec := &recorder{vendor: "Intel"}
	d := newDriver(t, dir, rec)

	results, err := d.LintEntries(context.Background(), d.Entries(), 2)
	if err != nil {
		t.Fatalf("lint entries: %v", err)
	}
	if len(results) != 3 || len(rec.sources) != 3 {
		t.Fatalf("expected 3 lints, got %d results and %d sources", len(results), len(rec.sources))
	}
	if len(d.opts.Timer.Report().Phases) == 0 {
		t.Fatalf("timer recorded nothing")
	}
}

func TestSetExtraExtensionsRebuilds(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "#include \"a.glsl\"\n",
		"shaders/a.glsl":    "\n",
	})
	d := newDriver(t, dir, &recorder{vendor: "Intel"})
	before := d.Graph().NodeCount()
	if err := d.SetExtraExtensions(context.Background(), []string{"inc"}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if d.Graph().NodeCount() != before {
		t.Fatalf("rebuild changed the graph: %d vs %d", d.Graph().NodeCount(), before)
	}
	if !d.Workspace().IsShaderSource(filepath.Join(dir, "shaders", "x.inc")) {
		t.Fatalf("extension not applied")
	}
}

func TestLintEntriesReportsProgress(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh":     "#include \"common.glsl\"\n",
		"shaders/composite.fsh": "\n",
		"shaders/common.glsl":   "float c;\n",
	})
	d := newDriver(t, dir, &recorder{vendor: "Intel"})
	events := make(chan Event, 64)
	d.SetProgress(ChannelSink{Ch: events})

	if _, err := d.LintEntries(context.Background(), d.Entries(), 2); err != nil {
		t.Fatalf("lint entries: %v", err)
	}
	close(events)

	queued := map[string]bool{}
	done := map[string]bool{}
	for ev := range events {
		switch ev.Status {
		case StatusQueued:
			queued[ev.Entry] = true
		case StatusDone:
			if !queued[ev.Entry] {
				t.Fatalf("%s finished before it was queued", ev.Entry)
			}
			done[ev.Entry] = true
		case StatusError:
			t.Fatalf("unexpected error event for %s: %v", ev.Entry, ev.Err)
		}
	}
	if len(queued) != 2 || len(done) != 2 {
		t.Fatalf("expected 2 queued and 2 done entries, got %v and %v", queued, done)
	}
}

func TestLintReportsValidatorFailure(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"shaders/final.fsh": "\n",
	})
	d := newDriver(t, dir, &recorder{vendor: "Intel", err: errors.New("no context")})
	events := make(chan Event, 16)
	d.SetProgress(ChannelSink{Ch: events})

	if _, err := d.LintEntries(context.Background(), d.Entries(), 1); err == nil {
		t.Fatalf("expected validator failure")
	}
	close(events)

	var last Event
	for ev := range events {
		last = ev
	}
	if last.Status != StatusError || last.Phase != PhaseValidate || last.Err == nil {
		t.Fatalf("expected a validate error event, got %+v", last)
	}
}

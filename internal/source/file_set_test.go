package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadNormalizesBOMAndCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.fsh")
	content := []byte("\xEF\xBB\xBF#version 120\r\n#include \"common.glsl\"\r\nvoid main() {}\r\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	fs := NewFileSet()
	file, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if file.Flags&FileHadBOM == 0 {
		t.Fatalf("expected FileHadBOM flag")
	}
	if file.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("expected FileNormalizedCRLF flag")
	}
	if file.LineCount() != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", file.LineCount(), file.Lines)
	}
	if got := file.Line(1); got != `#include "common.glsl"` {
		t.Fatalf("unexpected line 1: %q", got)
	}
}

func TestOverlayShadowsDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "common.glsl")
	if err := os.WriteFile(path, []byte("disk\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	fs := NewFileSet()
	fs.SetOverlay(path, "buffer\nline2")
	file, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if file.Flags&FileOverlay == 0 {
		t.Fatalf("expected overlay flag")
	}
	if file.Line(0) != "buffer" || file.Line(1) != "line2" {
		t.Fatalf("unexpected overlay lines: %q", file.Lines)
	}

	if !fs.DropOverlay(path) {
		t.Fatalf("expected overlay to be dropped")
	}
	file, err = fs.Load(path)
	if err != nil {
		t.Fatalf("load after drop: %v", err)
	}
	if file.Line(0) != "disk" {
		t.Fatalf("expected disk content after drop, got %q", file.Lines)
	}
}

func TestExistsAndMissing(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileSet()
	missing := filepath.Join(dir, "nope.glsl")
	if fs.Exists(missing) {
		t.Fatalf("missing file reported as existing")
	}
	if _, err := fs.Load(missing); !IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if fs.Exists(dir) {
		t.Fatalf("directory reported as a file")
	}
	fs.SetOverlay(missing, "x")
	if !fs.Exists(missing) {
		t.Fatalf("overlay-only file should exist")
	}
}

func TestCanonicalPathCollapsesAliases(t *testing.T) {
	dir := t.TempDir()
	a := CanonicalPath(filepath.Join(dir, "shaders", "lib", "..", "common.glsl"))
	b := CanonicalPath(dir + `/shaders\common.glsl`)
	want := filepath.Join(dir, "shaders", "common.glsl")
	if a != want || b != want {
		t.Fatalf("aliases not collapsed: %q, %q, want %q", a, b, want)
	}
	// NFD must collapse onto NFC.
	nfd := CanonicalPath(filepath.Join(dir, "cafe\u0301.glsl"))
	nfc := CanonicalPath(filepath.Join(dir, "caf\u00e9.glsl"))
	if nfd != nfc {
		t.Fatalf("unicode forms not collapsed: %q vs %q", nfd, nfc)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\n\nb\n", 3},
	}
	for _, tt := range tests {
		if got := len(splitLines([]byte(tt.in))); got != tt.want {
			t.Fatalf("splitLines(%q) = %d lines, want %d", tt.in, got, tt.want)
		}
	}
}

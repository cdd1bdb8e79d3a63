package validator

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"shaderls/internal/graph"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandCleanCompile(t *testing.T) {
	requireShell(t)
	v, err := NewCommand([]string{"sh", "-c", "cat >/dev/null"}, "Intel", time.Second)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	log, err := v.Validate(context.Background(), graph.StageFragment, "void main() {}\n")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if log != "" {
		t.Fatalf("expected empty log, got %q", log)
	}
}

func TestCommandReportsLogOnFailure(t *testing.T) {
	requireShell(t)
	script := `read first; echo "ERROR: 0:1: '$first' : bad $0"; exit 2`
	v, err := NewCommand([]string{"sh", "-c", script, "{stage}"}, "Intel", time.Second)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	log, err := v.Validate(context.Background(), graph.StageVertex, "oops\n")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(log, "ERROR: 0:1: 'oops' : bad vert") {
		t.Fatalf("unexpected log %q", log)
	}
}

func TestCommandKeepsWarningsOnSuccess(t *testing.T) {
	requireShell(t)
	script := `cat >/dev/null; echo "WARNING: 0:3: 'x' : unused"`
	v, err := NewCommand([]string{"sh", "-c", script}, "Intel", time.Second)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	log, err := v.Validate(context.Background(), graph.StageFragment, "float x;\n")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(log, "WARNING: 0:3:") {
		t.Fatalf("warnings of a clean compile were dropped: %q", log)
	}
}

func TestCommandSilentFailure(t *testing.T) {
	requireShell(t)
	v, err := NewCommand([]string{"sh", "-c", "cat >/dev/null; exit 3"}, "Intel", time.Second)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	_, err = v.Validate(context.Background(), graph.StageFragment, "")
	if !errors.Is(err, ErrSilentFailure) || !strings.Contains(err.Error(), "status 3") {
		t.Fatalf("expected ErrSilentFailure with status, got %v", err)
	}
}

func TestCommandTimeout(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	v, err := NewCommand([]string{"sleep", "5"}, "", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	_, err = v.Validate(context.Background(), graph.StageCompute, "")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestCommandRejectsUnknownStage(t *testing.T) {
	v, err := NewCommand([]string{"true"}, "", 0)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if _, err := v.Validate(context.Background(), graph.StageUnknown, ""); !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
}

func TestNewCommandRequiresProgram(t *testing.T) {
	if _, err := NewCommand(nil, "", 0); err == nil {
		t.Fatalf("expected error for empty command")
	}
}

func TestStaticValidator(t *testing.T) {
	v := Static("NVIDIA Corporation", "0(1) : error C0000: x\n")
	if v.Vendor() != "NVIDIA Corporation" {
		t.Fatalf("unexpected vendor %q", v.Vendor())
	}
	log, err := v.Validate(context.Background(), graph.StageFragment, "")
	if err != nil || log == "" {
		t.Fatalf("unexpected result %q, %v", log, err)
	}
}

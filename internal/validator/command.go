package validator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"shaderls/internal/graph"
)

// StagePlaceholder is replaced with the short stage name in command arguments.
const StagePlaceholder = "{stage}"

// Command runs an external compiler, writing the source to its stdin. The
// combined output is the log; on a zero exit status it can still carry
// warnings. A non-zero exit without output is reported as ErrSilentFailure.
type Command struct {
	argv    []string
	vendor  string
	timeout time.Duration
}

// NewCommand creates a Command validator. A zero timeout disables the limit.
func NewCommand(argv []string, vendor string, timeout time.Duration) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("validator command is empty")
	}
	return &Command{
		argv:    append([]string(nil), argv...),
		vendor:  vendor,
		timeout: timeout,
	}, nil
}

func (c *Command) Vendor() string { return c.vendor }

func (c *Command) Validate(ctx context.Context, stage graph.Stage, src string) (string, error) {
	arg, err := StageArg(stage)
	if err != nil {
		return "", err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := make([]string, len(c.argv)-1)
	for i, a := range c.argv[1:] {
		args[i] = strings.ReplaceAll(a, StagePlaceholder, arg)
	}
	// #nosec G204 -- the command line comes from user configuration
	cmd := exec.CommandContext(ctx, c.argv[0], args...)
	cmd.Stdin = strings.NewReader(src)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = time.Second

	runErr := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
	log := out.String()
	if strings.TrimSpace(log) == "" {
		log = ""
	}
	if runErr == nil {
		return log, nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		if log == "" {
			return "", fmt.Errorf("%w with status %d", ErrSilentFailure, exitErr.ExitCode())
		}
		return log, nil
	}
	return "", fmt.Errorf("run validator %s: %w", c.argv[0], runErr)
}

// Package validator submits flattened shader text to an external compiler.
package validator

import (
	"context"
	"errors"
	"fmt"

	"shaderls/internal/graph"
)

var (
	// ErrTimeout is returned when the validator does not finish in time.
	ErrTimeout = errors.New("validator timed out")
	// ErrUnknownStage is returned for entries without a pipeline stage.
	ErrUnknownStage = errors.New("unknown shader stage")
	// ErrSilentFailure is returned when the validator fails without a log.
	ErrSilentFailure = errors.New("validator failed without output")
)

// Validator compiles one translation unit. An empty log means the source
// compiled cleanly; a log may also come with a clean compile when it only
// holds warnings. err is reserved for failures to run the validator.
type Validator interface {
	Vendor() string
	Validate(ctx context.Context, stage graph.Stage, src string) (log string, err error)
}

// StageArg returns the short stage name validators take on the command line.
func StageArg(stage graph.Stage) (string, error) {
	switch stage {
	case graph.StageVertex:
		return "vert", nil
	case graph.StageFragment:
		return "frag", nil
	case graph.StageGeometry:
		return "geom", nil
	case graph.StageCompute:
		return "comp", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownStage, stage)
}

// Func adapts a function to Validator.
type Func struct {
	VendorName string
	Fn         func(ctx context.Context, stage graph.Stage, src string) (string, error)
}

func (f Func) Vendor() string { return f.VendorName }

func (f Func) Validate(ctx context.Context, stage graph.Stage, src string) (string, error) {
	if _, err := StageArg(stage); err != nil {
		return "", err
	}
	return f.Fn(ctx, stage, src)
}

// Static returns a Validator that reports log for every input.
func Static(vendor, log string) Validator {
	return Func{
		VendorName: vendor,
		Fn: func(context.Context, graph.Stage, string) (string, error) {
			return log, nil
		},
	}
}

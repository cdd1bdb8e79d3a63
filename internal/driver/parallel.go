package driver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"shaderls/internal/graph"
)

// LintEntries lints every entry in parallel. The graph must not change
// while it runs; the language server never calls it.
func (d *Driver) LintEntries(ctx context.Context, entries []graph.Node, jobs int) ([]LintResult, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// indices are unique per goroutine, no mutex needed
	results := make([]LintResult, len(entries))
	for _, e := range entries {
		d.emit(e.Path, PhaseMerge, StatusQueued, nil, 0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(entries)))
	for i, e := range entries {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := d.Lint(gctx, e.ID)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

package driver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"shaderls/internal/diag"
	"shaderls/internal/graph"
	"shaderls/internal/observ"
)

// LintResult is the outcome of validating one entry.
type LintResult struct {
	Entry string
	Stage graph.Stage
	// Report has a bag for every file that took part in the merge, empty
	// for files without diagnostics.
	Report diag.Report
}

// Lint merges, validates and remaps one entry.
func (d *Driver) Lint(ctx context.Context, entry graph.NodeID) (LintResult, error) {
	node, ok := d.graph.Node(entry)
	if !ok || !node.IsEntry() {
		return LintResult{}, fmt.Errorf("%s: %w", d.graph.Path(entry), ErrNotEntry)
	}
	res := LintResult{Entry: node.Path, Stage: node.Stage}
	start := time.Now()

	ctx, span := observ.StartLintSpan(ctx, node.Path, node.Stage.String())
	defer span.End()

	d.emit(node.Path, PhaseMerge, StatusWorking, nil, 0)
	idx := d.opts.Timer.Begin("merge")
	text, table, err := d.compositor.Merge(entry)
	d.opts.Timer.End(idx, "")
	if err != nil {
		// an unreadable entry clears instead of failing the batch
		d.log.Warn("failed to merge entry", "path", node.Path, "err", err)
		res.Report = diag.Report{}
		d.emit(node.Path, PhaseMerge, StatusError, err, time.Since(start))
		return res, nil
	}

	d.emit(node.Path, PhaseValidate, StatusWorking, nil, 0)
	idx = d.opts.Timer.Begin("validate")
	vctx, vspan := observ.StartValidateSpan(ctx, d.opts.Validator.Vendor(), len(text))
	log, err := d.opts.Validator.Validate(vctx, node.Stage, text)
	observ.RecordError(vspan, err)
	vspan.End()
	d.opts.Timer.End(idx, d.opts.Validator.Vendor())
	if err != nil {
		observ.RecordError(span, err)
		d.emit(node.Path, PhaseValidate, StatusError, err, time.Since(start))
		return res, fmt.Errorf("validate %s: %w", node.Path, err)
	}
	if log != "" {
		d.log.Info("validator reported diagnostics", "entry", node.Path, "log", log)
	} else {
		d.log.Info("compilation reported no errors", "entry", node.Path)
	}

	d.emit(node.Path, PhaseRemap, StatusWorking, nil, 0)
	idx = d.opts.Timer.Begin("remap")
	res.Report = d.remapper.Remap(log, table)
	for _, p := range table.Paths() {
		if _, ok := res.Report[p]; !ok {
			res.Report[p] = &diag.Bag{}
		}
	}
	d.opts.Timer.End(idx, "")

	observ.RecordLintResult(span, len(res.Report), res.Report.Count(), res.Report.HasErrors())
	d.emit(node.Path, PhaseRemap, StatusDone, nil, time.Since(start))
	return res, nil
}

// lintAll lints each entry in order. A validator failure on one entry does
// not stop the others; the failures are joined.
func (d *Driver) lintAll(ctx context.Context, entries []graph.NodeID) ([]LintResult, error) {
	var (
		out  []LintResult
		errs []error
	)
	for _, id := range entries {
		res, err := d.Lint(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, res)
	}
	return out, errors.Join(errs...)
}

// Combine folds several results into one report so that a file shared by
// several entries carries all of their diagnostics.
func Combine(results []LintResult) diag.Report {
	out := diag.Report{}
	for _, r := range results {
		for _, p := range r.Report.Paths() {
			bag, ok := out[p]
			if !ok {
				bag = &diag.Bag{}
				out[p] = bag
			}
			for _, d := range r.Report[p].Items() {
				bag.Add(d)
			}
		}
	}
	for _, bag := range out {
		items := bag.Items()
		sort.SliceStable(items, func(i, j int) bool { return items[i].Line < items[j].Line })
	}
	return out
}

package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"shaderls/internal/driver"
	"shaderls/internal/graph"
	"shaderls/internal/ui"
)

type lintOutcome struct {
	results []driver.LintResult
	err     error
}

// runLintWithUI lints entries while a progress view renders their state.
func runLintWithUI(ctx context.Context, d *driver.Driver, root string, entries []graph.Node, jobs int) ([]driver.LintResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan lintOutcome, 1)

	paths := make([]string, 0, len(entries))
	labels := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
		labels = append(labels, relPath(root, e.Path))
	}

	go func() {
		d.SetProgress(driver.ChannelSink{Ch: events})
		res, err := d.LintEntries(ctx, entries, jobs)
		d.SetProgress(nil)
		outcomeCh <- lintOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("lint", paths, labels, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// the view may quit early on ctrl+c; drain so the lint can finish
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}

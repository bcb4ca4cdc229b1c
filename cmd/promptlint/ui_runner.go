package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"promptlint/internal/driver"
	"promptlint/internal/ui"
)

type lintOutcome struct {
	results []*driver.FileResult
	err     error
}

// runLintDirWithUI runs the directory lint behind a live progress display.
// The driver feeds per-file events into a channel consumed by the UI model.
func runLintDirWithUI(ctx context.Context, dir string, opts driver.Options) ([]*driver.FileResult, error) {
	files, err := driver.ListJSONFiles(dir)
	if err != nil {
		return nil, err
	}

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan lintOutcome, 1)

	go func() {
		results, err := driver.LintDir(ctx, dir, opts, func(e driver.Event) {
			events <- e
		})
		outcomeCh <- lintOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("linting "+dir, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}

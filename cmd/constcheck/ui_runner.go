package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"constcheck/internal/driver"
	"constcheck/internal/ui"
)

// runCheckDir checks every snapshot under dir, with a live progress
// display when the UI mode allows it.
func runCheckDir(cmd *cobra.Command, dir string, settings *checkSettings) ([]*driver.CheckResult, error) {
	useTUI := shouldUseTUI(settings.ui) && settings.format == "pretty" && !settings.quiet
	if !useTUI {
		return driver.CheckDir(cmd.Context(), dir, settings.opts)
	}

	files, err := driver.ListSnapshots(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	events := make(chan driver.PhaseEvent, 64)
	opts := settings.opts
	opts.Observer = func(ev driver.PhaseEvent) { events <- ev }

	type dirOutcome struct {
		results []*driver.CheckResult
		err     error
	}
	outcome := make(chan dirOutcome, 1)
	go func() {
		results, err := driver.CheckFiles(cmd.Context(), files, opts)
		close(events)
		outcome <- dirOutcome{results: results, err: err}
	}()

	model := ui.NewProgressModel(fmt.Sprintf("checking %s", dir), files, events)
	if _, teaErr := tea.NewProgram(model, tea.WithOutput(os.Stderr)).Run(); teaErr != nil {
		// Progress display failure must not hide checking results; keep
		// draining so the workers never block on the event channel.
		fmt.Fprintf(os.Stderr, "progress display failed: %v\n", teaErr)
		go func() {
			for range events {
			}
		}()
	}

	res := <-outcome
	return res.results, res.err
}

// runCheckWatch re-renders results on every filesystem change until
// interrupted.
func runCheckWatch(cmd *cobra.Command, dir string, settings *checkSettings) error {
	out := cmd.OutOrStdout()
	err := driver.Watch(cmd.Context(), dir, settings.opts, func(results []*driver.CheckResult, runErr error) {
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "check failed: %v\n", runErr)
		}
		renderResults(cmd, results, settings)
		fmt.Fprintln(out, "watching for changes... (ctrl-c to stop)")
	})
	if err != nil && cmd.Context().Err() != nil {
		return nil
	}
	return err
}

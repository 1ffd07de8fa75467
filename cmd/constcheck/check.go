package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"constcheck/internal/diag"
	"constcheck/internal/diagfmt"
	"constcheck/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <snapshot.toml|directory>",
	Short: "Check const obligations in resolver snapshots",
	Long:  `Check that every trait-mediated call inside a const-required function resolves to a compile-time-evaluable implementation`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	checkCmd.Flags().Bool("dedup", true, "collapse repeated identical diagnostics")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("no-cache", false, "disable the persistent result cache")
	checkCmd.Flags().Bool("watch", false, "re-check whenever snapshots change (directories only)")
	checkCmd.Flags().String("ui", "auto", "interactive progress display (auto|on|off)")
}

type checkSettings struct {
	format    string
	withNotes bool
	suggest   bool
	pathMode  diagfmt.PathMode
	useColor  bool
	quiet     bool
	ui        uiMode
	watch     bool
	opts      driver.CheckOptions
}

func readCheckSettings(cmd *cobra.Command, startDir string) (*checkSettings, error) {
	s := &checkSettings{pathMode: diagfmt.PathModeAuto}

	var err error
	if s.format, err = cmd.Flags().GetString("format"); err != nil {
		return nil, err
	}
	switch s.format {
	case "pretty", "json", "short":
	default:
		return nil, fmt.Errorf("unknown format %q (expected pretty|json|short)", s.format)
	}

	if s.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return nil, err
	}
	if s.suggest, err = cmd.Flags().GetBool("suggest"); err != nil {
		return nil, err
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return nil, err
	}
	if fullPath {
		s.pathMode = diagfmt.PathModeAbsolute
	}
	if s.watch, err = cmd.Flags().GetBool("watch"); err != nil {
		return nil, err
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return nil, err
	}
	if s.ui, err = readUIMode(uiFlag); err != nil {
		return nil, err
	}

	if s.opts.Dedup, err = cmd.Flags().GetBool("dedup"); err != nil {
		return nil, err
	}
	if s.opts.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return nil, err
	}
	if s.opts.MaxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return nil, err
	}
	if s.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return nil, err
	}
	s.useColor = useColor(cmd)

	cfg, err := driver.LoadConfig(startDir)
	if err != nil {
		return nil, err
	}
	setFlags := map[string]bool{
		"dedup":           cmd.Flags().Changed("dedup"),
		"jobs":            cmd.Flags().Changed("jobs"),
		"max-diagnostics": cmd.Root().PersistentFlags().Changed("max-diagnostics"),
	}
	cfg.Check.ApplyTo(&s.opts, setFlags)
	if cfg.Check.Format != "" && !cmd.Flags().Changed("format") {
		s.format = cfg.Check.Format
	}

	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return nil, err
	}
	if !noCache && !cfg.Check.NoCache {
		// Cache open failures degrade to uncached checking.
		if cache, cacheErr := driver.OpenDiskCache("constcheck"); cacheErr == nil {
			s.opts.Cache = cache
		}
	}
	return s, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	target := args[0]

	st, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	startDir := target
	if !st.IsDir() {
		startDir = filepath.Dir(target)
	}
	settings, err := readCheckSettings(cmd, startDir)
	if err != nil {
		return err
	}

	if settings.watch {
		if !st.IsDir() {
			return fmt.Errorf("--watch requires a directory")
		}
		return runCheckWatch(cmd, target, settings)
	}

	var results []*driver.CheckResult
	if st.IsDir() {
		results, err = runCheckDir(cmd, target, settings)
	} else {
		var res *driver.CheckResult
		res, err = driver.CheckSnapshot(target, settings.opts)
		if res != nil {
			results = []*driver.CheckResult{res}
		}
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	hasErrors := renderResults(cmd, results, settings)
	if hasErrors {
		// Diagnostics are already printed; keep cobra quiet.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}

// renderResults prints every result in the chosen format and reports
// whether any snapshot had errors.
func renderResults(cmd *cobra.Command, results []*driver.CheckResult, settings *checkSettings) bool {
	out := cmd.OutOrStdout()
	total := diag.Counter{}
	totalBag := diag.NewBag(1)
	hasErrors := false

	for _, r := range results {
		r.Bag.Sort()
		switch settings.format {
		case "json":
			_ = diagfmt.JSON(out, r.Bag, r.FileSet, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         settings.pathMode,
				IncludeNotes:     settings.withNotes,
				IncludeFixes:     settings.suggest,
			})
		case "short":
			diagfmt.Short(out, r.Bag, r.FileSet, settings.pathMode)
		default:
			diagfmt.Pretty(out, r.Bag, r.FileSet, diagfmt.PrettyOpts{
				Color:     settings.useColor,
				PathMode:  settings.pathMode,
				ShowNotes: settings.withNotes,
				ShowFixes: settings.suggest,
			})
		}
		total.Merge(r.Counter)
		totalBag.Merge(r.Bag)
		if r.Bag.HasErrors() {
			hasErrors = true
		}
	}

	if settings.format == "pretty" && !settings.quiet {
		if total.Errors > 0 {
			fmt.Fprintln(out)
		}
		diagfmt.Summary(out, totalBag, total, settings.useColor)
	}
	return hasErrors
}

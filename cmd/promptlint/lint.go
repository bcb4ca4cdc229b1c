package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"promptlint/internal/config"
	"promptlint/internal/diagfmt"
	"promptlint/internal/driver"
	"promptlint/internal/prompt"
)

// Exit codes: 1 when diagnostics remain, 8 when the input itself could not
// be read or decoded.
const (
	exitDiagnostics = 1
	exitMalformed   = 8
)

var (
	lintFix     bool
	lintWrite   bool
	lintFormat  string
	lintNoFlow  bool
	lintFields  []string
	lintJobs    int
	lintCache   bool
	lintUI      bool
	lintSuggest bool
)

func init() {
	lintCmd.Flags().BoolVar(&lintFix, "fix", false, "repair fields with missing closing delimiters")
	lintCmd.Flags().BoolVar(&lintWrite, "write", false, "write repaired documents back to disk (requires --fix)")
	lintCmd.Flags().StringVar(&lintFormat, "format", "pretty", "output format (pretty|json|short)")
	lintCmd.Flags().BoolVar(&lintNoFlow, "no-flow", false, "skip template flow checks")
	lintCmd.Flags().StringSliceVar(&lintFields, "fields", nil, "restrict linting to string fields under these keys")
	lintCmd.Flags().IntVar(&lintJobs, "jobs", 0, "number of files linted in parallel (0 = GOMAXPROCS)")
	lintCmd.Flags().BoolVar(&lintCache, "cache", false, "skip files the disk cache knows are clean")
	lintCmd.Flags().BoolVar(&lintUI, "ui", false, "show interactive progress for directory runs")
	lintCmd.Flags().BoolVar(&lintSuggest, "suggest", false, "show suggested repairs in pretty output")
}

var lintCmd = &cobra.Command{
	Use:   "lint [flags] <path>",
	Short: "Check prompt documents for unbalanced delimiters",
	Long: `Lint walks every string field of a JSON prompt document, reports
unmatched and unclosed delimiters with precise positions, and validates
conditional template blocks. With --fix, fields missing only closing
delimiters are repaired; stray closers are never touched.

The path may be a .json file, a directory, or - for stdin.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runLint,
}

func runLint(cmd *cobra.Command, args []string) error {
	target := args[0]
	setupColor(cmd)

	switch strings.ToLower(lintFormat) {
	case "pretty", "json", "short":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, json or short)", lintFormat)
	}
	if lintWrite && !lintFix {
		return fmt.Errorf("--write requires --fix")
	}

	opts, err := buildOptions(cmd, target)
	if err != nil {
		return err
	}

	if target == "-" {
		return lintStdin(cmd, opts)
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", target, err)
	}
	if info.IsDir() {
		return lintDirectory(cmd, target, opts)
	}
	return lintSingleFile(cmd, target, opts)
}

// buildOptions merges the discovered promptlint.toml with the command line;
// flags the user set explicitly win.
func buildOptions(cmd *cobra.Command, target string) (driver.Options, error) {
	cfg := config.Default()
	if target != "-" {
		loaded, _, err := config.ForTarget(target)
		if err != nil {
			return driver.Options{}, err
		}
		cfg = loaded
	}

	maxDiags, _ := cmd.Flags().GetInt("max-diagnostics")

	opts := driver.Options{
		Fix:            lintFix,
		Write:          lintWrite,
		Flow:           cfg.Lint.Flow,
		Fields:         cfg.Lint.Fields,
		MaxDiagnostics: maxDiags,
		Config:         cfg,
		EnableCache:    lintCache,
		Jobs:           lintJobs,
	}
	if lintNoFlow {
		opts.Flow = false
	}
	if cmd.Flags().Changed("fields") {
		opts.Fields = lintFields
	}
	return opts, nil
}

func lintSingleFile(cmd *cobra.Command, path string, opts driver.Options) error {
	res, err := driver.LintFile(path, opts)
	if err != nil {
		return err
	}

	// Without --write a repaired document goes to stdout, so the report
	// moves to stderr to keep the output pipeable.
	reportOut := cmd.OutOrStdout()
	printDoc := opts.Fix && !opts.Write && res.Lint != nil && res.Lint.Changed
	if printDoc {
		reportOut = cmd.ErrOrStderr()
	}

	renderResults(reportOut, []*driver.FileResult{res}, opts)
	if printDoc {
		if err := prompt.EncodeIndent(cmd.OutOrStdout(), res.Lint.Document, "  "); err != nil {
			return err
		}
	}
	printSummary(cmd, []*driver.FileResult{res})
	exitForResults([]*driver.FileResult{res})
	return nil
}

func lintStdin(cmd *cobra.Command, opts driver.Options) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	res, err := driver.LintBytes("<stdin>", data, opts)
	if err != nil {
		return err
	}

	reportOut := cmd.OutOrStdout()
	printDoc := opts.Fix && res.Lint != nil && res.Lint.Changed
	if printDoc {
		reportOut = cmd.ErrOrStderr()
	}
	renderResults(reportOut, []*driver.FileResult{res}, opts)
	if printDoc {
		if err := prompt.EncodeIndent(cmd.OutOrStdout(), res.Lint.Document, "  "); err != nil {
			return err
		}
	}
	printSummary(cmd, []*driver.FileResult{res})
	exitForResults([]*driver.FileResult{res})
	return nil
}

func lintDirectory(cmd *cobra.Command, dir string, opts driver.Options) error {
	if opts.Fix && !opts.Write {
		return fmt.Errorf("directory mode needs --write to apply fixes")
	}

	var (
		results []*driver.FileResult
		err     error
	)
	if lintUI && isTerminal(os.Stdout) {
		results, err = runLintDirWithUI(cmd.Context(), dir, opts)
	} else {
		results, err = driver.LintDir(cmd.Context(), dir, opts, nil)
	}
	if err != nil {
		return err
	}

	renderResults(cmd.OutOrStdout(), results, opts)
	printSummary(cmd, results)
	exitForResults(results)
	return nil
}

func renderResults(w io.Writer, results []*driver.FileResult, opts driver.Options) {
	format := strings.ToLower(lintFormat)
	for _, res := range results {
		if res == nil || res.Bag.Len() == 0 {
			continue
		}
		switch format {
		case "json":
			_ = diagfmt.JSON(w, res.Bag, res.FS, diagfmt.JSONOpts{
				IncludePositions: true,
				IncludeNotes:     true,
				IncludeFixes:     true,
				Max:              opts.MaxDiagnostics,
			})
		case "short":
			diagfmt.Short(w, res.Bag, res.FS, diagfmt.PathModeAuto)
		default:
			diagfmt.Pretty(w, res.Bag, res.FS, diagfmt.PrettyOpts{
				Color:     !color.NoColor,
				ShowNotes: true,
				ShowFixes: lintSuggest,
			})
		}
	}
}

func printSummary(cmd *cobra.Command, results []*driver.FileResult) {
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return
	}
	var checked, dirty, fixed, failed int
	for _, res := range results {
		if res == nil {
			continue
		}
		checked++
		if res.Bag.Len() > 0 {
			dirty++
		}
		if res.Lint != nil {
			fixed += res.Lint.Fixed()
		}
		if res.HasErrors() {
			failed++
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d checked, %d with findings, %d fields repaired, %d failing\n",
		checked, dirty, fixed, failed)
}

// exitForResults terminates the process with the documented exit codes when
// anything is wrong. A fully repaired run exits clean.
func exitForResults(results []*driver.FileResult) {
	hasErrors := false
	for _, res := range results {
		if res == nil {
			continue
		}
		if res.Malformed {
			os.Exit(exitMalformed)
		}
		if res.HasErrors() {
			hasErrors = true
		}
	}
	if hasErrors {
		os.Exit(exitDiagnostics)
	}
}

func setupColor(cmd *cobra.Command) {
	mode, _ := cmd.Flags().GetString("color")
	switch strings.ToLower(mode) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stdout)
	}
}

package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"promptlint/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "promptlint",
	Short: "Prompt document linter and fixer",
	Long: `promptlint checks the string fields of JSON prompt documents for
unbalanced delimiters and broken template flow, and can repair missing
closing delimiters in place`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

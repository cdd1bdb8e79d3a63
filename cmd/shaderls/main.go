package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"shaderls/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "shaderls",
	Short: "Language server and linter for include-based shader packs",
	Long: `shaderls resolves #include graphs of shader packs, validates every entry
program with an external compiler and maps the diagnostics back to the files
they came from.`,
}

// main registers subcommands and persistent flags, then executes the root
// command. Any error exits with status 1.
func main() {
	rootCmd.Version = version.String()

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(linksCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(versionCmd)

	// global flags
	rootCmd.PersistentFlags().String("config", "", "path to a configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text|json)")
	rootCmd.PersistentFlags().String("validator", "", "validator command line; {stage} is replaced per entry")
	rootCmd.PersistentFlags().String("vendor", "", "validator vendor string used to pick the log grammar")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a runtime trace to file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Command issue-insights produces label, trend and contributor reports from
// a snapshot of GitHub issues.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time.
var (
	version = "dev"
	commit  = "none"
)

type globalFlags struct {
	configPath string
	verbose    bool
	quiet      bool
	noColor    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "issue-insights",
		Short: "Descriptive reports over a GitHub issue snapshot",
		Long: `issue-insights loads a snapshot of GitHub issues and renders one report.

Commands:
  run       Run one analysis feature over the snapshot
  fetch     Download a snapshot from the GitHub API`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default ./issue-insights.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress log output")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")

	rootCmd.AddCommand(newRunCommand(flags))
	rootCmd.AddCommand(newFetchCommand(flags))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "issue-insights %s (commit: %s)\n", version, commit)
		},
	}
}

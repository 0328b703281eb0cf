// Package main provides the entry point for the repostats CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/repostats/cmd/repostats/commands"
	"github.com/Sumatoshi-tech/repostats/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "repostats",
		Short: "Repostats - concurrent git history statistics",
		Long: `Repostats computes commit statistics for a git repository:
line totals, top contributors, per-commit activity, and monthly frequency,
with chunked parallel diff processing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewBranchesCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "repostats %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

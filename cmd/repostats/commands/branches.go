package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/repostats/pkg/analysis"
)

// BranchesCommand holds the configuration for the branches command.
type BranchesCommand struct {
	configPath string
}

// NewBranchesCommand creates and configures the branches command.
func NewBranchesCommand() *cobra.Command {
	bc := &BranchesCommand{}

	cobraCmd := &cobra.Command{
		Use:   "branches [repository]",
		Short: "List local branches",
		Long: `Branches lists the repository's local branches alphabetically with the
default branch ("main", else "master") pinned first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: bc.run,
	}

	cobraCmd.Flags().StringVarP(&bc.configPath, "config", "c", "", "Config file path")

	return cobraCmd
}

// run lists the branches of the repository.
func (bc *BranchesCommand) run(cmd *cobra.Command, args []string) error {
	repoPath, err := resolveRepoPath(args)
	if err != nil {
		return err
	}

	analyzer := analysis.NewAnalyzer(analysis.DefaultConfig(), nil, nil)

	branches, err := analyzer.ListBranches(repoPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	highlight := color.New(color.FgGreen, color.Bold)

	for i, branch := range branches {
		if i == 0 && (branch == "main" || branch == "master") {
			highlight.Fprintf(out, "* %s\n", branch)

			continue
		}

		fmt.Fprintf(out, "  %s\n", branch)
	}

	return nil
}

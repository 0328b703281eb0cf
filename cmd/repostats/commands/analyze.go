// Package commands implements the repostats CLI commands.
package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/repostats/internal/config"
	"github.com/Sumatoshi-tech/repostats/pkg/analysis"
	"github.com/Sumatoshi-tech/repostats/pkg/observability"
	"github.com/Sumatoshi-tech/repostats/pkg/version"
)

// Output format names.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
	FormatJSON  = "json"
)

// Sentinel errors for the analyze command.
var (
	ErrUnknownFormat = errors.New("unknown output format")
)

// AnalyzeCommand holds the configuration for the analyze command.
type AnalyzeCommand struct {
	branch      string
	contributor string
	format      string
	configPath  string
	metricsAddr string
	noProgress  bool
}

// NewAnalyzeCommand creates and configures the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	ac := &AnalyzeCommand{}

	cobraCmd := &cobra.Command{
		Use:   "analyze [repository]",
		Short: "Analyze commit history of a git repository",
		Long: `Analyze walks the commit history of a branch and reports line totals,
top contributors, per-commit activity, monthly commit frequency, and
processing diagnostics. A missing branch falls back to HEAD.`,
		Args: cobra.MaximumNArgs(1),
		RunE: ac.run,
	}

	cobraCmd.Flags().StringVarP(&ac.branch, "branch", "b", "main", "Branch to analyze (falls back to HEAD when absent)")
	cobraCmd.Flags().StringVarP(&ac.contributor, "contributor", "u", analysis.AllContributors, "Only count commits by this author")
	cobraCmd.Flags().StringVarP(&ac.format, "format", "f", FormatTable, "Output format (table, yaml, json)")
	cobraCmd.Flags().StringVarP(&ac.configPath, "config", "c", "", "Config file path")
	cobraCmd.Flags().StringVar(&ac.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cobraCmd.Flags().BoolVar(&ac.noProgress, "no-progress", false, "Disable progress reporting")

	return cobraCmd
}

// run executes the analysis and renders the result.
func (ac *AnalyzeCommand) run(cmd *cobra.Command, args []string) error {
	if !validFormat(ac.format) {
		return fmt.Errorf("%w: %s (use table, yaml, or json)", ErrUnknownFormat, ac.format)
	}

	repoPath, err := resolveRepoPath(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(ac.configPath)
	if err != nil {
		return err
	}

	if ac.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = ac.metricsAddr
	}

	providers, err := observability.Init(observability.Config{
		ServiceName:    "repostats",
		ServiceVersion: version.Version,
		LogLevel:       observability.LevelFromString(cfg.Logging.Level),
		LogJSON:        cfg.Logging.Format == "json",
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsAddr:    cfg.Metrics.Addr,
	})
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(cmd.Context())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	metrics, err := analysis.NewMetrics(providers.Meter)
	if err != nil {
		return err
	}

	analyzer := analysis.NewAnalyzer(analysis.Config{
		Workers:      cfg.Analysis.Workers,
		MinChunkSize: cfg.Analysis.MinChunkSize,
		MaxChunkSize: cfg.Analysis.MaxChunkSize,
	}, providers.Logger, metrics)

	progress, drained := ac.startProgressRenderer(cfg.Analysis.ProgressBuffer)

	result, err := analyzer.Analyze(cmd.Context(), repoPath, ac.branch, ac.contributor, progress)

	if progress != nil {
		close(progress)
		<-drained
	}

	if err != nil {
		return err
	}

	return renderResult(cmd.OutOrStdout(), result, ac.format)
}

// startProgressRenderer starts the progress consumer goroutine. It returns
// a nil channel when progress reporting is disabled.
func (ac *AnalyzeCommand) startProgressRenderer(buffer int) (chan analysis.ProgressEstimate, <-chan struct{}) {
	if ac.noProgress || ac.format != FormatTable {
		return nil, nil
	}

	progress := make(chan analysis.ProgressEstimate, buffer)
	drained := make(chan struct{})

	go func() {
		defer close(drained)

		for estimate := range progress {
			renderProgress(os.Stderr, estimate)
		}

		fmt.Fprintln(os.Stderr)
	}()

	return progress, drained
}

// validFormat reports whether format is a supported output format.
func validFormat(format string) bool {
	switch format {
	case FormatTable, FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}

// resolveRepoPath resolves the repository path from command args.
func resolveRepoPath(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}

		path = strings.Replace(path, "~", home, 1)
	}

	return path, nil
}

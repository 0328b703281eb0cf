package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/repostats/pkg/analysis"
)

// resultDocument is the serialized shape of an analysis result for the
// yaml and json output formats.
type resultDocument struct {
	CommitCount       int                   `yaml:"commit_count"        json:"commit_count"`
	TotalLinesAdded   int                   `yaml:"total_lines_added"   json:"total_lines_added"`
	TotalLinesDeleted int                   `yaml:"total_lines_deleted" json:"total_lines_deleted"`
	AverageCommitSize float64               `yaml:"average_commit_size" json:"average_commit_size"`
	TopContributors   []contributorDocument `yaml:"top_contributors"    json:"top_contributors"`
	CommitFrequency   map[string]int        `yaml:"commit_frequency"    json:"commit_frequency"`
	CommitActivity    []activityDocument    `yaml:"commit_activity"     json:"commit_activity"`
	AvailableBranches []string              `yaml:"available_branches"  json:"available_branches"`
	ElapsedSeconds    float64               `yaml:"elapsed_seconds"     json:"elapsed_seconds"`
	ProcessingStats   string                `yaml:"processing_stats"    json:"processing_stats"`
}

type contributorDocument struct {
	Name    string `yaml:"name"    json:"name"`
	Commits int    `yaml:"commits" json:"commits"`
}

type activityDocument struct {
	Date    string `yaml:"date"    json:"date"`
	Added   int    `yaml:"added"   json:"added"`
	Deleted int    `yaml:"deleted" json:"deleted"`
}

// renderResult writes the analysis result to w in the requested format.
func renderResult(w io.Writer, result *analysis.AnalysisResult, format string) error {
	switch format {
	case FormatYAML:
		return renderYAML(w, result)
	case FormatJSON:
		return renderJSON(w, result)
	default:
		renderTable(w, result)

		return nil
	}
}

// toDocument converts a result into its serialized shape.
func toDocument(result *analysis.AnalysisResult) resultDocument {
	contributors := make([]contributorDocument, 0, len(result.TopContributors))
	for _, c := range result.TopContributors {
		contributors = append(contributors, contributorDocument{Name: c.Name, Commits: c.Commits})
	}

	activity := make([]activityDocument, 0, len(result.CommitActivity))
	for _, entry := range result.CommitActivity {
		activity = append(activity, activityDocument{Date: entry.Date, Added: entry.Added, Deleted: entry.Deleted})
	}

	return resultDocument{
		CommitCount:       result.CommitCount,
		TotalLinesAdded:   result.TotalLinesAdded,
		TotalLinesDeleted: result.TotalLinesDeleted,
		AverageCommitSize: result.AverageCommitSize,
		TopContributors:   contributors,
		CommitFrequency:   result.CommitFrequency,
		CommitActivity:    activity,
		AvailableBranches: result.AvailableBranches,
		ElapsedSeconds:    result.ElapsedSeconds,
		ProcessingStats:   result.ProcessingStats,
	}
}

// renderYAML writes the result as a YAML document.
func renderYAML(w io.Writer, result *analysis.AnalysisResult) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()

	err := encoder.Encode(toDocument(result))
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return nil
}

// renderJSON writes the result as an indented JSON document.
func renderJSON(w io.Writer, result *analysis.AnalysisResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(toDocument(result))
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// renderTable writes the human-readable report.
func renderTable(w io.Writer, result *analysis.AnalysisResult) {
	header := color.New(color.FgCyan, color.Bold)

	header.Fprintln(w, "Summary")
	renderSummaryTable(w, result)

	if len(result.TopContributors) > 0 {
		fmt.Fprintln(w)
		header.Fprintln(w, "Top contributors")
		renderContributorTable(w, result.TopContributors)
	}

	if len(result.CommitFrequency) > 0 {
		fmt.Fprintln(w)
		header.Fprintln(w, "Commits per month")
		renderFrequencyTable(w, result.CommitFrequency)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, result.ProcessingStats)
}

func renderSummaryTable(w io.Writer, result *analysis.AnalysisResult) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)

	tbl.AppendRows([]table.Row{
		{"Commits", humanize.Comma(int64(result.CommitCount))},
		{"Lines added", humanize.Comma(int64(result.TotalLinesAdded))},
		{"Lines deleted", humanize.Comma(int64(result.TotalLinesDeleted))},
		{"Average commit size", fmt.Sprintf("%.1f lines", result.AverageCommitSize)},
		{"Branches", humanize.Comma(int64(len(result.AvailableBranches)))},
		{"Elapsed", fmt.Sprintf("%.2fs", result.ElapsedSeconds)},
	})

	tbl.Render()
}

func renderContributorTable(w io.Writer, contributors []analysis.Contributor) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "Author", "Commits"})

	for i, c := range contributors {
		tbl.AppendRow(table.Row{i + 1, c.Name, humanize.Comma(int64(c.Commits))})
	}

	tbl.Render()
}

func renderFrequencyTable(w io.Writer, frequency map[string]int) {
	months := make([]string, 0, len(frequency))
	for month := range frequency {
		months = append(months, month)
	}

	sort.Strings(months)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Month", "Commits"})

	for _, month := range months {
		tbl.AppendRow(table.Row{month, frequency[month]})
	}

	tbl.Render()
}

// renderProgress writes one in-place progress line.
func renderProgress(w io.Writer, estimate analysis.ProgressEstimate) {
	fmt.Fprintf(w, "\rProcessed %s/%s commits (%.1f%%), %.1f commits/sec, ~%.0fs remaining",
		humanize.Comma(int64(estimate.ProcessedCommits)),
		humanize.Comma(int64(estimate.TotalCommits)),
		estimate.PercentComplete(),
		estimate.CommitsPerSecond,
		estimate.EstimatedRemainingSeconds(),
	)
}

package analysis

import (
	"fmt"
	"slices"
	"sort"
)

// topContributorCount is the maximum length of the contributor rankings.
const topContributorCount = 5

// frequencyKeyLen is the date-string prefix used for frequency bucketing:
// 7 characters of "YYYY-MM-DD" is the calendar month.
const frequencyKeyLen = 7

// mergePartials folds all chunk results into one aggregate. The merge is
// commutative and associative, so completion order does not affect totals.
func mergePartials(partials []*PartialStats) *PartialStats {
	merged := NewPartialStats()

	for _, partial := range partials {
		merged.Merge(partial)
	}

	return merged
}

// buildResult derives the final immutable snapshot from the merged
// statistics.
func buildResult(merged *PartialStats, branches []string, elapsedSeconds float64, processingStats string) *AnalysisResult {
	top := topContributors(merged.AuthorCommits)

	return &AnalysisResult{
		CommitCount:       merged.CommitCount,
		TotalLinesAdded:   merged.LinesAdded,
		TotalLinesDeleted: merged.LinesDeleted,
		TopContributors:   top,
		CommitActivity:    merged.Activity,
		AverageCommitSize: averageCommitSize(merged),
		CommitFrequency:   commitFrequency(merged.Activity),
		// Ranked by commit count, same as TopContributors.
		TopContributorsByLines: slices.Clone(top),
		AvailableBranches:      branches,
		ElapsedSeconds:         elapsedSeconds,
		ProcessingStats:        processingStats,
	}
}

// topContributors ranks authors by commit count descending, ties broken by
// name ascending, truncated to topContributorCount.
func topContributors(authorCommits map[string]int) []Contributor {
	contributors := make([]Contributor, 0, len(authorCommits))
	for author, count := range authorCommits {
		contributors = append(contributors, Contributor{Name: author, Commits: count})
	}

	sort.Slice(contributors, func(i, j int) bool {
		if contributors[i].Commits != contributors[j].Commits {
			return contributors[i].Commits > contributors[j].Commits
		}

		return contributors[i].Name < contributors[j].Name
	})

	if len(contributors) > topContributorCount {
		contributors = contributors[:topContributorCount]
	}

	return contributors
}

// averageCommitSize is the mean number of changed lines per counted
// commit, or 0 when nothing was counted.
func averageCommitSize(merged *PartialStats) float64 {
	if merged.CommitCount == 0 {
		return 0
	}

	return float64(merged.LinesAdded+merged.LinesDeleted) / float64(merged.CommitCount)
}

// commitFrequency buckets activity entries per calendar month.
func commitFrequency(activity []ActivityEntry) map[string]int {
	frequency := make(map[string]int)

	for _, entry := range activity {
		key := entry.Date
		if len(key) > frequencyKeyLen {
			key = key[:frequencyKeyLen]
		}

		frequency[key]++
	}

	return frequency
}

// pinDefaultBranch sorts branch names alphabetically, then swaps "main"
// (else "master") to the front.
func pinDefaultBranch(branches []string) []string {
	sorted := slices.Clone(branches)
	slices.Sort(sorted)

	for _, name := range []string{"main", "master"} {
		idx := slices.Index(sorted, name)
		if idx >= 0 {
			sorted[0], sorted[idx] = sorted[idx], sorted[0]

			break
		}
	}

	return sorted
}

// summarize renders the diagnostic processing summary.
func summarize(totalCommits int, elapsedSeconds float64, chunkSize, tasks int) string {
	perSecond := 0.0
	if elapsedSeconds > 0 {
		perSecond = float64(totalCommits) / elapsedSeconds
	}

	return fmt.Sprintf(
		"Processed %d commits in %.2fs\nCommits/sec: %.1f\nChunk size: %d\nParallel tasks: %d",
		totalCommits, elapsedSeconds, perSecond, chunkSize, tasks,
	)
}

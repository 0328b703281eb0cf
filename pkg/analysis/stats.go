// Package analysis implements the concurrent commit-history analysis engine:
// commit enumeration, chunked parallel diff computation with bounded
// concurrency, progress estimation, and order-independent result aggregation.
package analysis

import "maps"

// AllContributors is the contributor filter value that matches every author.
const AllContributors = "All"

// ActivityEntry is one commit's contribution to the activity log:
// the commit's UTC calendar date and its line change counts.
type ActivityEntry struct {
	Date    string
	Added   int
	Deleted int
}

// Contributor is an author name with its commit count.
type Contributor struct {
	Name    string
	Commits int
}

// PartialStats is the aggregate produced by one chunk of commits.
//
// Merge is commutative and associative with the zero value as identity:
// counts and line totals add, activity logs concatenate, author maps merge
// by summing matching keys. Chunks therefore combine into identical totals
// regardless of completion order.
type PartialStats struct {
	CommitCount   int
	LinesAdded    int
	LinesDeleted  int
	Activity      []ActivityEntry
	AuthorCommits map[string]int
}

// NewPartialStats creates an empty PartialStats.
func NewPartialStats() *PartialStats {
	return &PartialStats{
		AuthorCommits: make(map[string]int),
	}
}

// Merge folds other into p.
func (p *PartialStats) Merge(other *PartialStats) {
	if other == nil {
		return
	}

	p.CommitCount += other.CommitCount
	p.LinesAdded += other.LinesAdded
	p.LinesDeleted += other.LinesDeleted
	p.Activity = append(p.Activity, other.Activity...)

	if p.AuthorCommits == nil {
		p.AuthorCommits = make(map[string]int, len(other.AuthorCommits))
	}

	for author, count := range other.AuthorCommits {
		p.AuthorCommits[author] += count
	}
}

// ProgressEstimate is a best-effort snapshot of a running analysis.
// It is derived, non-authoritative data meant for display only.
type ProgressEstimate struct {
	TotalCommits          int
	ProcessedCommits      int
	ElapsedSeconds        float64
	CommitsPerSecond      float64
	EstimatedTotalSeconds float64
}

// PercentComplete returns completion as a percentage in [0, 100].
func (pe ProgressEstimate) PercentComplete() float64 {
	if pe.TotalCommits == 0 {
		return 0
	}

	return float64(pe.ProcessedCommits) / float64(pe.TotalCommits) * 100
}

// EstimatedRemainingSeconds returns the estimated time left, or 0 when no
// throughput has been observed yet.
func (pe ProgressEstimate) EstimatedRemainingSeconds() float64 {
	if pe.CommitsPerSecond == 0 {
		return 0
	}

	remaining := pe.TotalCommits - pe.ProcessedCommits

	return float64(remaining) / pe.CommitsPerSecond
}

// AnalysisResult is the immutable final snapshot of one analysis call.
type AnalysisResult struct {
	// CommitCount is the number of commits that passed the contributor filter.
	CommitCount int

	// TotalLinesAdded and TotalLinesDeleted sum diffstat line counts over
	// all counted commits.
	TotalLinesAdded   int
	TotalLinesDeleted int

	// TopContributors holds up to 5 authors ordered by commit count
	// descending, ties broken by name ascending.
	TopContributors []Contributor

	// CommitActivity lists per-commit (date, added, deleted) entries in
	// chunk-completion order, which is not guaranteed to be chronological.
	CommitActivity []ActivityEntry

	// AverageCommitSize is (added+deleted)/commits, or 0 with no commits.
	AverageCommitSize float64

	// CommitFrequency counts activity entries per calendar month, keyed by
	// the first 7 characters of the date string (YYYY-MM).
	CommitFrequency map[string]int

	// TopContributorsByLines mirrors TopContributors; both lists rank by
	// commit count.
	TopContributorsByLines []Contributor

	// AvailableBranches is the alphabetical branch list with "main" (else
	// "master") pinned first.
	AvailableBranches []string

	// ElapsedSeconds is the wall time of the analysis.
	ElapsedSeconds float64

	// ProcessingStats is a human-readable diagnostic summary.
	ProcessingStats string
}

// Clone returns a deep copy of the result.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}

	clone := *r
	clone.TopContributors = append([]Contributor(nil), r.TopContributors...)
	clone.CommitActivity = append([]ActivityEntry(nil), r.CommitActivity...)
	clone.TopContributorsByLines = append([]Contributor(nil), r.TopContributorsByLines...)
	clone.AvailableBranches = append([]string(nil), r.AvailableBranches...)

	if r.CommitFrequency != nil {
		clone.CommitFrequency = maps.Clone(r.CommitFrequency)
	}

	return &clone
}

// CacheKey identifies a cached analysis by branch and contributor filter.
type CacheKey struct {
	Branch      string
	Contributor string
}

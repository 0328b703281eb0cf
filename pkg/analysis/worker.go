package analysis

import (
	"fmt"
	"log/slog"
	"time"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/Sumatoshi-tech/repostats/pkg/gitlib"
	"github.com/Sumatoshi-tech/repostats/pkg/mathutil"
)

// unknownValue is the fallback for absent author names and unresolvable
// commit dates.
const unknownValue = "Unknown"

// processChunk computes the partial statistics for one chunk of commits.
//
// It opens its own repository handle: libgit2 handles are not safely
// shareable across goroutines, so each worker owns an independent handle
// onto the same on-disk object store. A returned error means the whole
// chunk's contribution is lost; per-commit diff failures are recovered
// locally and only drop that commit's line counts.
func processChunk(repoPath string, chunk []gitlib.Hash, contributor string, logger *slog.Logger) (*PartialStats, error) {
	repo, err := gitlib.OpenRepository(repoPath)
	if err != nil {
		return nil, fmt.Errorf("chunk repository handle: %w", err)
	}
	defer repo.Free()

	diffOpts, err := gitlib.StatsDiffOptions()
	if err != nil {
		return nil, err
	}

	stats := NewPartialStats()
	stats.Activity = make([]ActivityEntry, 0, len(chunk))

	for _, hash := range chunk {
		commit, err := repo.LookupCommit(hash)
		if err != nil {
			return nil, fmt.Errorf("lookup commit %s: %w", hash, err)
		}

		processCommit(repo, commit, contributor, &diffOpts, stats, logger)
		commit.Free()
	}

	return stats, nil
}

// processCommit applies the contributor filter and folds one commit into
// the chunk's partial statistics.
func processCommit(
	repo *gitlib.Repository, commit *gitlib.Commit, contributor string,
	diffOpts *git2go.DiffOptions, stats *PartialStats, logger *slog.Logger,
) {
	author := commit.Author().Name
	if author == "" {
		author = unknownValue
	}

	// Filtered-out commits are neither counted nor diffed.
	if contributor != AllContributors && author != contributor {
		return
	}

	stats.CommitCount++
	stats.AuthorCommits[author]++

	added, deleted, err := commitLineStats(repo, commit, diffOpts)
	if err != nil {
		// Count and author attribution stay; only line stats are lost.
		logger.Debug("commit diff failed",
			"commit", commit.Hash().String(),
			"error", err,
		)

		return
	}

	stats.LinesAdded += added
	stats.LinesDeleted += deleted
	stats.Activity = append(stats.Activity, ActivityEntry{
		Date:    commitDate(commit),
		Added:   added,
		Deleted: deleted,
	})
}

// commitDate returns the commit's calendar date in UTC, taken from the
// committer timestamp so rebased and cherry-picked commits land on the day
// they entered the history. A zero timestamp maps to "Unknown" rather than
// aborting the commit.
func commitDate(commit *gitlib.Commit) string {
	when := commit.Committer().When
	if when.IsZero() {
		return unknownValue
	}

	return when.UTC().Format(time.DateOnly)
}

// commitLineStats computes (added, deleted) for one commit.
//
// Commits with zero or one parent are diffed against the parent tree (or
// the empty tree for a root commit). Merge commits are diffed against each
// parent independently and the results combined by elementwise maximum -
// not sum - approximating how far the merge diverges from its closest
// parent without inflating totals by the union of all parent diffs.
func commitLineStats(repo *gitlib.Repository, commit *gitlib.Commit, diffOpts *git2go.DiffOptions) (int, int, error) {
	tree, err := commit.Tree()
	if err != nil {
		return 0, 0, err
	}
	defer tree.Free()

	numParents := commit.NumParents()
	if numParents == 0 {
		return diffLineStats(repo, nil, tree, diffOpts)
	}

	var maxAdded, maxDeleted int

	for n := range numParents {
		added, deleted, parentErr := parentLineStats(repo, commit, n, tree, diffOpts)
		if parentErr != nil {
			return 0, 0, parentErr
		}

		maxAdded = mathutil.Max(maxAdded, added)
		maxDeleted = mathutil.Max(maxDeleted, deleted)
	}

	return maxAdded, maxDeleted, nil
}

// parentLineStats diffs the commit tree against its nth parent's tree.
func parentLineStats(
	repo *gitlib.Repository, commit *gitlib.Commit, n int,
	tree *gitlib.Tree, diffOpts *git2go.DiffOptions,
) (int, int, error) {
	parent, err := commit.Parent(n)
	if err != nil {
		return 0, 0, err
	}
	defer parent.Free()

	parentTree, err := parent.Tree()
	if err != nil {
		return 0, 0, err
	}
	defer parentTree.Free()

	return diffLineStats(repo, parentTree, tree, diffOpts)
}

// diffLineStats runs a tree-to-tree diff and sums its per-hunk line counts.
func diffLineStats(repo *gitlib.Repository, oldTree, newTree *gitlib.Tree, diffOpts *git2go.DiffOptions) (int, int, error) {
	diff, err := repo.DiffTreeToTree(oldTree, newTree, diffOpts)
	if err != nil {
		return 0, 0, err
	}
	defer diff.Free()

	diffStats, err := diff.Stats()
	if err != nil {
		return 0, 0, err
	}
	defer diffStats.Free()

	return diffStats.Insertions(), diffStats.Deletions(), nil
}

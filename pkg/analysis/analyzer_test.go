package analysis_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repostats/pkg/analysis"
	"github.com/Sumatoshi-tech/repostats/pkg/gitlib"
)

// historyRepo builds commit graphs for integration testing. Commits are
// created from explicit file sets via the tree builder, so merge commits
// with arbitrary parents need no working-directory checkouts.
type historyRepo struct {
	t      *testing.T
	path   string
	native *git2go.Repository
	clock  time.Time
}

func newHistoryRepo(t *testing.T) *historyRepo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &historyRepo{
		t:      t,
		path:   dir,
		native: repo,
		clock:  time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
}

// commit creates a commit with exactly the given files as its tree. ref
// "HEAD" advances the current branch; ref "" leaves the commit dangling
// until a later commit lists it as a parent. Each commit is stamped one
// day after the previous one.
func (hr *historyRepo) commit(ref, author string, files map[string]string, parents ...gitlib.Hash) gitlib.Hash {
	hr.t.Helper()

	hr.clock = hr.clock.Add(24 * time.Hour)
	sig := &git2go.Signature{Name: author, Email: "test@example.com", When: hr.clock}

	return hr.commitSigned(ref, sig, sig, files, parents...)
}

// commitSigned creates a commit with separate author and committer
// signatures, as rebase and cherry-pick do.
func (hr *historyRepo) commitSigned(ref string, author, committer *git2go.Signature, files map[string]string, parents ...gitlib.Hash) gitlib.Hash {
	hr.t.Helper()

	builder, err := hr.native.TreeBuilder()
	require.NoError(hr.t, err)

	defer builder.Free()

	for name, content := range files {
		blobID, blobErr := hr.native.CreateBlobFromBuffer([]byte(content))
		require.NoError(hr.t, blobErr)

		err = builder.Insert(name, blobID, git2go.FilemodeBlob)
		require.NoError(hr.t, err)
	}

	treeID, err := builder.Write()
	require.NoError(hr.t, err)

	tree, err := hr.native.LookupTree(treeID)
	require.NoError(hr.t, err)

	defer tree.Free()

	parentCommits := make([]*git2go.Commit, 0, len(parents))
	for _, parent := range parents {
		parentCommit, lookupErr := hr.native.LookupCommit(parent.ToOid())
		require.NoError(hr.t, lookupErr)

		parentCommits = append(parentCommits, parentCommit)
	}

	message := fmt.Sprintf("commit %s", committer.When.Format(time.DateOnly))

	oid, err := hr.native.CreateCommit(ref, author, committer, message, tree, parentCommits...)
	require.NoError(hr.t, err)

	for _, parentCommit := range parentCommits {
		parentCommit.Free()
	}

	return gitlib.HashFromOid(oid)
}

func (hr *historyRepo) createBranch(name string, at gitlib.Hash) {
	hr.t.Helper()

	commit, err := hr.native.LookupCommit(at.ToOid())
	require.NoError(hr.t, err)

	defer commit.Free()

	branch, err := hr.native.CreateBranch(name, commit, false)
	require.NoError(hr.t, err)

	branch.Free()
}

// defaultBranch returns the name of the branch HEAD points at.
func (hr *historyRepo) defaultBranch() string {
	hr.t.Helper()

	head, err := hr.native.Head()
	require.NoError(hr.t, err)

	defer head.Free()

	return strings.TrimPrefix(head.Name(), "refs/heads/")
}

func lines(n int, prefix string) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "%s%d\n", prefix, i)
	}

	return b.String()
}

func newTestAnalyzer(cfg analysis.Config) *analysis.Analyzer {
	return analysis.NewAnalyzer(cfg, nil, nil)
}

func TestAnalyzeLinearHistory(t *testing.T) {
	t.Parallel()

	hr := newHistoryRepo(t)
	root := hr.commit("HEAD", "Alice", nil)
	hr.commit("HEAD", "Alice", map[string]string{"a.txt": lines(10, "line")}, root)

	analyzer := newTestAnalyzer(analysis.DefaultConfig())

	result, err := analyzer.Analyze(context.Background(), hr.path, hr.defaultBranch(), analysis.AllContributors, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.CommitCount)
	assert.Equal(t, 10, result.TotalLinesAdded)
	assert.Equal(t, 0, result.TotalLinesDeleted)
	assert.InDelta(t, 5.0, result.AverageCommitSize, 1e-9)
	assert.Equal(t, []analysis.Contributor{{Name: "Alice", Commits: 2}}, result.TopContributors)
	assert.Equal(t, result.TopContributors, result.TopContributorsByLines)
	assert.Len(t, result.CommitActivity, 2)
	assert.Equal(t, map[string]int{"2024-03": 2}, result.CommitFrequency)
	assert.Contains(t, result.ProcessingStats, "Processed 2 commits")
	assert.Contains(t, result.AvailableBranches, hr.defaultBranch())
}

func TestAnalyzeCountsDeletions(t *testing.T) {
	t.Parallel()

	hr := newHistoryRepo(t)
	root := hr.commit("HEAD", "Alice", map[string]string{"a.txt": lines(5, "l")})
	hr.commit("HEAD", "Alice", map[string]string{"a.txt": lines(2, "l")}, root)

	analyzer := newTestAnalyzer(analysis.DefaultConfig())

	result, err := analyzer.Analyze(context.Background(), hr.path, hr.defaultBranch(), analysis.AllContributors, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.CommitCount)
	assert.Equal(t, 5, result.TotalLinesAdded)
	assert.Equal(t, 3, result.TotalLinesDeleted)
	assert.InDelta(t, 4.0, result.AverageCommitSize, 1e-9)
}

// Activity dates come from the committer timestamp: a rebased or
// cherry-picked commit counts on the day it entered the history, not the
// day it was authored.
func TestAnalyzeDatesUseCommitterTime(t *testing.T) {
	t.Parallel()

	hr := newHistoryRepo(t)

	author := &git2go.Signature{
		Name:  "Alice",
		Email: "test@example.com",
		When:  time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC),
	}
	committer := &git2go.Signature{
		Name:  "Alice",
		Email: "test@example.com",
		When:  time.Date(2024, time.February, 10, 9, 0, 0, 0, time.UTC),
	}

	hr.commitSigned("HEAD", author, committer, map[string]string{"a.txt": "one\n"})

	analyzer := newTestAnalyzer(analysis.DefaultConfig())

	result, err := analyzer.Analyze(context.Background(), hr.path, hr.defaultBranch(), analysis.AllContributors, nil)
	require.NoError(t, err)

	require.Len(t, result.CommitActivity, 1)
	assert.Equal(t, "2024-02-10", result.CommitActivity[0].Date)
	assert.Equal(t, map[string]int{"2024-02": 1}, result.CommitFrequency)
}

func TestAnalyzeUnknownContributor(t *testing.T) {
	t.Parallel()

	hr := newHistoryRepo(t)
	root := hr.commit("HEAD", "Alice", map[string]string{"a.txt": "one\n"})
	hr.commit("HEAD", "Bob", map[string]string{"a.txt": "one\ntwo\n"}, root)

	analyzer := newTestAnalyzer(analysis.DefaultConfig())

	result, err := analyzer.Analyze(context.Background(), hr.path, hr.defaultBranch(), "Nobody", nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.CommitCount)
	assert.Equal(t, 0, result.TotalLinesAdded)
	assert.Equal(t, 0, result.TotalLinesDeleted)
	assert.InDelta(t, 0.0, result.AverageCommitSize, 1e-9)
	assert.Empty(t, result.TopContributors)
	assert.Empty(t, result.CommitActivity)
	assert.NotEmpty(t, result.AvailableBranches)
}

// Per-contributor results must sum to the unfiltered result.
func TestAnalyzeContributorFilterDecomposition(t *testing.T) {
	t.Parallel()

	hr := newHistoryRepo(t)
	first := hr.commit("HEAD", "Alice", map[string]string{"a.txt": lines(4, "a")})
	second := hr.commit("HEAD", "Bob", map[string]string{"a.txt": lines(4, "a"), "b.txt": lines(3, "b")}, first)
	hr.commit("HEAD", "Alice", map[string]string{"a.txt": lines(2, "a"), "b.txt": lines(3, "b")}, second)

	branch := hr.defaultBranch()
	analyzer := newTestAnalyzer(analysis.DefaultConfig())

	all, err := analyzer.Analyze(context.Background(), hr.path, branch, analysis.AllContributors, nil)
	require.NoError(t, err)

	alice, err := analyzer.Analyze(context.Background(), hr.path, branch, "Alice", nil)
	require.NoError(t, err)

	bob, err := analyzer.Analyze(context.Background(), hr.path, branch, "Bob", nil)
	require.NoError(t, err)

	assert.Equal(t, all.CommitCount, alice.CommitCount+bob.CommitCount)
	assert.Equal(t, all.TotalLinesAdded, alice.TotalLinesAdded+bob.TotalLinesAdded)
	assert.Equal(t, all.TotalLinesDeleted, alice.TotalLinesDeleted+bob.TotalLinesDeleted)
	assert.Equal(t, 2, alice.CommitCount)
	assert.Equal(t, 1, bob.CommitCount)
}

// A merge commit contributes the elementwise maximum over its per-parent
// diffs, not their sum.
func TestAnalyzeMergeCommitAttribution(t *testing.T) {
	t.Parallel()

	hr := newHistoryRepo(t)

	base := map[string]string{"a.txt": lines(2, "a")}
	root := hr.commit("HEAD", "Alice", base)

	// One side grows a.txt by 3 lines, the other adds a 2-line b.txt.
	grown := map[string]string{"a.txt": lines(5, "a")}
	left := hr.commit("HEAD", "Alice", grown, root)

	sideFiles := map[string]string{"a.txt": lines(2, "a"), "b.txt": lines(2, "b")}
	right := hr.commit("", "Bob", sideFiles, root)

	mergedFiles := map[string]string{"a.txt": lines(5, "a"), "b.txt": lines(2, "b")}
	hr.commit("HEAD", "Alice", mergedFiles, left, right)

	analyzer := newTestAnalyzer(analysis.DefaultConfig())

	result, err := analyzer.Analyze(context.Background(), hr.path, hr.defaultBranch(), analysis.AllContributors, nil)
	require.NoError(t, err)

	// root=2, left=3, right=2, merge=max(2, 3)=3.
	assert.Equal(t, 4, result.CommitCount)
	assert.Equal(t, 10, result.TotalLinesAdded)
	assert.Equal(t, 0, result.TotalLinesDeleted)
}

// The same history split into different chunk sizes must produce the same
// aggregate.
func TestAnalyzeChunkPartitionInvariance(t *testing.T) {
	t.Parallel()

	hr := newHistoryRepo(t)
	authors := []string{"Alice", "Bob", "Carol"}

	var parent []gitlib.Hash

	for i := range 9 {
		files := map[string]string{"a.txt": lines(i+1, "l")}
		hash := hr.commit("HEAD", authors[i%len(authors)], files, parent...)
		parent = []gitlib.Hash{hash}
	}

	branch := hr.defaultBranch()

	configs := []analysis.Config{
		{},
		{MinChunkSize: 1, MaxChunkSize: 2, Workers: 1},
		{MinChunkSize: 1, MaxChunkSize: 4, Workers: 3},
	}

	var reference *analysis.AnalysisResult

	for _, cfg := range configs {
		result, err := newTestAnalyzer(cfg).Analyze(context.Background(), hr.path, branch, analysis.AllContributors, nil)
		require.NoError(t, err)

		if reference == nil {
			reference = result

			continue
		}

		assert.Equal(t, reference.CommitCount, result.CommitCount)
		assert.Equal(t, reference.TotalLinesAdded, result.TotalLinesAdded)
		assert.Equal(t, reference.TotalLinesDeleted, result.TotalLinesDeleted)
		assert.Equal(t, reference.TopContributors, result.TopContributors)
		assert.Equal(t, reference.CommitFrequency, result.CommitFrequency)
		assert.ElementsMatch(t, reference.CommitActivity, result.CommitActivity)
	}
}

func TestAnalyzeBranchFallbackToHead(t *testing.T) {
	t.Parallel()

	hr := newHistoryRepo(t)
	root := hr.commit("HEAD", "Alice", map[string]string{"a.txt": lines(3, "l")})
	hr.commit("HEAD", "Alice", map[string]string{"a.txt": lines(6, "l")}, root)

	analyzer := newTestAnalyzer(analysis.DefaultConfig())

	named, err := analyzer.Analyze(context.Background(), hr.path, hr.defaultBranch(), analysis.AllContributors, nil)
	require.NoError(t, err)

	fallback, err := analyzer.Analyze(context.Background(), hr.path, "no-such-branch", analysis.AllContributors, nil)
	require.NoError(t, err)

	assert.Equal(t, named.CommitCount, fallback.CommitCount)
	assert.Equal(t, named.TotalLinesAdded, fallback.TotalLinesAdded)
	assert.Equal(t, named.TotalLinesDeleted, fallback.TotalLinesDeleted)
}

func TestAnalyzeCachedResultIsIsolated(t *testing.T) {
	t.Parallel()

	hr := newHistoryRepo(t)
	hr.commit("HEAD", "Alice", map[string]string{"a.txt": lines(3, "l")})

	branch := hr.defaultBranch()
	analyzer := newTestAnalyzer(analysis.DefaultConfig())

	first, err := analyzer.Analyze(context.Background(), hr.path, branch, analysis.AllContributors, nil)
	require.NoError(t, err)

	first.TopContributors[0].Name = "mutated"
	first.CommitFrequency["2024-03"] = 999

	second, err := analyzer.Analyze(context.Background(), hr.path, branch, analysis.AllContributors, nil)
	require.NoError(t, err)

	assert.Equal(t, "Alice", second.TopContributors[0].Name)
	assert.Equal(t, 1, second.CommitFrequency["2024-03"])
}

func TestAnalyzeProgressSnapshots(t *testing.T) {
	t.Parallel()

	hr := newHistoryRepo(t)

	var parent []gitlib.Hash

	for i := range 6 {
		hash := hr.commit("HEAD", "Alice", map[string]string{"a.txt": lines(i+1, "l")}, parent...)
		parent = []gitlib.Hash{hash}
	}

	cfg := analysis.Config{MinChunkSize: 1, MaxChunkSize: 2, Workers: 1}
	progress := make(chan analysis.ProgressEstimate, 16)

	_, err := newTestAnalyzer(cfg).Analyze(context.Background(), hr.path, hr.defaultBranch(), analysis.AllContributors, progress)
	require.NoError(t, err)

	close(progress)

	var snapshots []analysis.ProgressEstimate
	for snapshot := range progress {
		snapshots = append(snapshots, snapshot)
	}

	require.Len(t, snapshots, 3)

	for i, snapshot := range snapshots {
		assert.Equal(t, 6, snapshot.TotalCommits)
		assert.Equal(t, (i+1)*2, snapshot.ProcessedCommits)
	}

	assert.InDelta(t, 100.0, snapshots[2].PercentComplete(), 1e-9)
}

func TestAnalyzeOpenError(t *testing.T) {
	t.Parallel()

	analyzer := newTestAnalyzer(analysis.DefaultConfig())

	_, err := analyzer.Analyze(
		context.Background(),
		filepath.Join(t.TempDir(), "missing"),
		"main", analysis.AllContributors, nil,
	)

	require.ErrorIs(t, err, analysis.ErrRepositoryOpen)
}

func TestAnalyzeEmptyRepository(t *testing.T) {
	t.Parallel()

	hr := newHistoryRepo(t)

	analyzer := newTestAnalyzer(analysis.DefaultConfig())

	_, err := analyzer.Analyze(context.Background(), hr.path, "main", analysis.AllContributors, nil)
	require.ErrorIs(t, err, analysis.ErrCommitWalk)
}

func TestListBranchesPinsDefault(t *testing.T) {
	t.Parallel()

	hr := newHistoryRepo(t)
	root := hr.commit("HEAD", "Alice", map[string]string{"a.txt": "one\n"})
	hr.createBranch("zeta", root)
	hr.createBranch("alpha", root)

	analyzer := newTestAnalyzer(analysis.DefaultConfig())

	branches, err := analyzer.ListBranches(hr.path)
	require.NoError(t, err)

	assert.Equal(t, []string{hr.defaultBranch(), "alpha", "zeta"}, branches)
}

func TestListBranchesOpenError(t *testing.T) {
	t.Parallel()

	analyzer := newTestAnalyzer(analysis.DefaultConfig())

	_, err := analyzer.ListBranches(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, analysis.ErrRepositoryOpen)
}

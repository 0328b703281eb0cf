package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Sumatoshi-tech/repostats/pkg/gitlib"
)

// Config holds the resource knobs for the analysis engine. Zero values
// select the built-in calibration.
type Config struct {
	// Workers is the number of concurrently executing chunk tasks.
	// Zero means ceil(0.75 x available parallelism).
	Workers int

	// MinChunkSize and MaxChunkSize clamp the planned chunk size.
	// Zero means the defaults of 100 and 2000.
	MinChunkSize int
	MaxChunkSize int
}

// DefaultConfig returns a Config using the built-in calibration.
func DefaultConfig() Config {
	return Config{}
}

// Analyzer is the commit-history analysis engine. It is safe for
// concurrent use; completed analyses are cached by (branch, contributor)
// for the lifetime of the process.
type Analyzer struct {
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
	cache   *CacheManager
}

// NewAnalyzer creates an engine with the given configuration. logger may
// be nil to discard engine logs; metrics may be nil to disable
// instrumentation.
func NewAnalyzer(cfg Config, logger *slog.Logger, metrics *Metrics) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Analyzer{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		cache:   NewCacheManager(),
	}
}

// Analyze runs the full analysis of the repository at repoPath for the
// given branch and contributor filter ("All" disables filtering).
//
// progress, if non-nil, receives zero or more best-effort snapshots before
// the call returns; sends never block, so a slow consumer only loses
// snapshots, never stalls workers. Only failing to open the repository,
// construct the commit walk, or acquire a scheduling permit aborts the
// call; chunk and per-commit failures degrade into an under-counted
// result.
func (a *Analyzer) Analyze(
	ctx context.Context, repoPath, branch, contributor string,
	progress chan<- ProgressEstimate,
) (*AnalysisResult, error) {
	key := CacheKey{Branch: branch, Contributor: contributor}

	if cached, found := a.cache.Get(key); found {
		a.metrics.RecordCacheLookup(ctx, true)
		a.logger.Debug("analysis cache hit", "branch", branch, "contributor", contributor)

		return cached, nil
	}

	a.metrics.RecordCacheLookup(ctx, false)

	start := time.Now()

	repo, err := gitlib.OpenRepository(repoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepositoryOpen, err)
	}
	defer repo.Free()

	hashes, err := enumerateCommits(repo, branch)
	if err != nil {
		return nil, err
	}

	plan := planChunks(hashes, a.cfg.MinChunkSize, a.cfg.MaxChunkSize, a.cfg.Workers)

	a.logger.Info("analysis started",
		"repo", repoPath,
		"branch", branch,
		"contributor", contributor,
		"commits", len(hashes),
		"chunks", len(plan.Chunks),
		"workers", plan.TaskCount,
	)

	partials, err := a.runChunks(ctx, repo.Path(), plan, contributor, newProgressTracker(len(hashes), progress))
	if err != nil {
		return nil, err
	}

	branches, err := listBranches(repo)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start).Seconds()
	summary := summarize(len(hashes), elapsed, plan.ChunkSize, plan.TaskCount)
	result := buildResult(mergePartials(partials), branches, elapsed, summary)

	a.cache.Put(key, result)

	a.logger.Info("analysis finished",
		"commits", result.CommitCount,
		"lines_added", result.TotalLinesAdded,
		"lines_deleted", result.TotalLinesDeleted,
		"elapsed", time.Since(start),
	)

	return result, nil
}

// runChunks executes the chunk tasks on a pool bounded by a counting
// semaphore. Tasks are submitted eagerly; submission blocks on permit
// acquisition so at most plan.TaskCount run concurrently. Each task opens
// its own repository handle. Chunks may complete in any order; the merge
// step is order-independent.
func (a *Analyzer) runChunks(
	ctx context.Context, repoPath string, plan chunkPlan,
	contributor string, tracker *progressTracker,
) ([]*PartialStats, error) {
	sem := semaphore.NewWeighted(int64(plan.TaskCount))
	partials := make([]*PartialStats, len(plan.Chunks))

	var wg sync.WaitGroup

	for i, chunk := range plan.Chunks {
		acquireErr := sem.Acquire(ctx, 1)
		if acquireErr != nil {
			wg.Wait()

			return nil, fmt.Errorf("%w: %w", ErrScheduling, acquireErr)
		}

		wg.Add(1)

		go func(i int, chunk []gitlib.Hash) {
			defer wg.Done()
			defer sem.Release(1)

			chunkStart := time.Now()

			stats, chunkErr := processChunk(repoPath, chunk, contributor, a.logger)
			if chunkErr != nil {
				// The chunk's whole contribution is dropped, never retried.
				a.logger.Warn("chunk task failed",
					"commits", len(chunk),
					"error", chunkErr,
				)
				a.metrics.RecordDroppedChunk(ctx)
			} else {
				partials[i] = stats
				a.metrics.RecordChunk(ctx, len(chunk), time.Since(chunkStart))
			}

			tracker.chunkDone(len(chunk))
		}(i, chunk)
	}

	wg.Wait()

	return partials, nil
}

// ListBranches returns the repository's local branches sorted
// alphabetically with "main" (else "master") pinned first.
func (a *Analyzer) ListBranches(repoPath string) ([]string, error) {
	repo, err := gitlib.OpenRepository(repoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepositoryOpen, err)
	}
	defer repo.Free()

	return listBranches(repo)
}

// listBranches lists and pins branches on an already open handle.
func listBranches(repo *gitlib.Repository) ([]string, error) {
	branches, err := repo.LocalBranches()
	if err != nil {
		return nil, err
	}

	return pinDefaultBranch(branches), nil
}

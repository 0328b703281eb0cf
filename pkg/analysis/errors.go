package analysis

import "errors"

// Sentinel errors for whole-analysis-blocking conditions. Finer-grained
// failures (single chunk, single commit diff) degrade gracefully and are
// only logged.
var (
	// ErrRepositoryOpen wraps a failure to open or validate the repository.
	ErrRepositoryOpen = errors.New("failed to open repository")

	// ErrCommitWalk wraps a failure to construct the commit walk.
	ErrCommitWalk = errors.New("failed to enumerate commits")

	// ErrScheduling wraps a failure to acquire a worker permit.
	ErrScheduling = errors.New("failed to acquire worker permit")
)

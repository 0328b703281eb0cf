package analysis

import (
	"fmt"

	"github.com/Sumatoshi-tech/repostats/pkg/gitlib"
)

// enumerateCommits materializes the hashes of all commits reachable from
// branch, in the revwalk's graph order (newest reachable first). When the
// branch does not resolve as a local reference, the walk silently falls
// back to the repository's current HEAD. The walk failing to construct is
// the only error condition.
func enumerateCommits(repo *gitlib.Repository, branch string) ([]gitlib.Hash, error) {
	walk, err := repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommitWalk, err)
	}
	defer walk.Free()

	err = pushStart(walk, repo, branch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommitWalk, err)
	}

	hashes, err := walk.Collect()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommitWalk, err)
	}

	return hashes, nil
}

// pushStart points the walk at the branch reference, or at HEAD when the
// branch is absent.
func pushStart(walk *gitlib.RevWalk, repo *gitlib.Repository, branch string) error {
	refName, err := repo.LookupLocalBranch(branch)
	if err != nil {
		return walk.PushHead()
	}

	return walk.PushRef(refName)
}

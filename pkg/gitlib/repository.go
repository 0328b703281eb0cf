package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// Repository wraps a libgit2 repository handle.
//
// The handle is not safe for concurrent use from multiple goroutines.
// Callers that process commits in parallel must open one Repository per
// worker against the same on-disk path.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens a git repository at the given path. It fails if the
// path does not exist or is not a git repository.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the path the repository was opened with.
func (r *Repository) Path() string {
	return r.path
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Head returns the HEAD reference target.
func (r *Repository) Head() (Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Hash{}, fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), nil
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit: %w", err)
	}

	return &Commit{commit: commit, repo: r}, nil
}

// LocalBranches returns the names of all local branches in no particular
// order. Branches whose name cannot be resolved are skipped.
func (r *Repository) LocalBranches() ([]string, error) {
	iter, err := r.repo.NewBranchIterator(git2go.BranchLocal)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer iter.Free()

	var names []string

	err = iter.ForEach(func(branch *git2go.Branch, _ git2go.BranchType) error {
		name, nameErr := branch.Name()
		if nameErr == nil {
			names = append(names, name)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate branches: %w", err)
	}

	return names, nil
}

// LookupLocalBranch resolves a local branch and returns its full reference
// name (e.g. "refs/heads/main").
func (r *Repository) LookupLocalBranch(name string) (string, error) {
	branch, err := r.repo.LookupBranch(name, git2go.BranchLocal)
	if err != nil {
		return "", fmt.Errorf("lookup branch: %w", err)
	}
	defer branch.Free()

	refName := branch.Reference.Name()
	if refName == "" {
		return "", fmt.Errorf("lookup branch %q: %w", name, ErrUnnamedReference)
	}

	return refName, nil
}

// Walk creates a new revision walker over the commit graph.
func (r *Repository) Walk() (*RevWalk, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}

	return &RevWalk{walk: walk, repo: r}, nil
}

// StatsDiffOptions returns diff options tuned for line-count statistics:
// whitespace-only changes are ignored and hunks carry no context lines.
func StatsDiffOptions() (git2go.DiffOptions, error) {
	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return git2go.DiffOptions{}, fmt.Errorf("get diff options: %w", err)
	}

	opts.Flags |= git2go.DiffIgnoreWhitespace
	opts.ContextLines = 0

	return opts, nil
}

// DiffTreeToTree computes the diff between two trees. Either tree may be
// nil, which stands for the empty tree.
func (r *Repository) DiffTreeToTree(oldTree, newTree *Tree, opts *git2go.DiffOptions) (*Diff, error) {
	var oldT, newT *git2go.Tree

	if oldTree != nil {
		oldT = oldTree.tree
	}

	if newTree != nil {
		newT = newTree.tree
	}

	diff, err := r.repo.DiffTreeToTree(oldT, newT, opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	return &Diff{diff: diff}, nil
}

package gitlib

import (
	"errors"
	"fmt"
	"io"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrUnnamedReference is returned when a branch reference has no name.
var ErrUnnamedReference = errors.New("reference has no name")

// RevWalk wraps a libgit2 revision walker.
type RevWalk struct {
	walk *git2go.RevWalk
	repo *Repository
}

// PushRef adds a reference (by full name) to start walking from.
func (w *RevWalk) PushRef(refName string) error {
	err := w.walk.PushRef(refName)
	if err != nil {
		return fmt.Errorf("push ref to revwalk: %w", err)
	}

	return nil
}

// PushHead adds HEAD to start walking from.
func (w *RevWalk) PushHead() error {
	err := w.walk.PushHead()
	if err != nil {
		return fmt.Errorf("push HEAD to revwalk: %w", err)
	}

	return nil
}

// Next returns the next commit hash in the walk, or io.EOF when the walk
// is exhausted.
func (w *RevWalk) Next() (Hash, error) {
	oid := new(git2go.Oid)

	err := w.walk.Next(oid)
	if err != nil {
		if git2go.IsErrorCode(err, git2go.ErrorCodeIterOver) {
			return Hash{}, io.EOF
		}

		return Hash{}, fmt.Errorf("revwalk next: %w", err)
	}

	return HashFromOid(oid), nil
}

// Collect materializes the remaining hashes of the walk in graph order.
func (w *RevWalk) Collect() ([]Hash, error) {
	var hashes []Hash

	for {
		hash, err := w.Next()
		if errors.Is(err, io.EOF) {
			return hashes, nil
		}

		if err != nil {
			return nil, err
		}

		hashes = append(hashes, hash)
	}
}

// Free releases the walker resources.
func (w *RevWalk) Free() {
	if w.walk != nil {
		w.walk.Free()
		w.walk = nil
	}
}

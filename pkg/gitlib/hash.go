// Package gitlib provides a thin wrapper around libgit2 for the repository
// operations the analysis engine needs: opening repositories, listing
// branches, walking commit history, and computing tree diff statistics.
//
// Wrapped objects own native libgit2 resources and must be released with
// Free. A Repository handle must never be shared across goroutines; open a
// separate handle per worker instead.
package gitlib

import (
	"encoding/hex"

	git2go "github.com/libgit2/git2go/v34"
)

// HashSize is the size of a SHA-1 hash in bytes.
const HashSize = 20

// Hash is an opaque, immutable identifier of a git object (SHA-1).
type Hash [HashSize]byte

// NewHash creates a Hash from a hex string. Malformed input yields the
// zero hash; intended for tests and fixtures.
func NewHash(hexStr string) Hash {
	var h Hash

	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return Hash{}
	}

	copy(h[:], decoded)

	return h
}

// HashFromOid converts a libgit2 Oid to a Hash.
func HashFromOid(oid *git2go.Oid) Hash {
	var h Hash
	copy(h[:], oid[:])

	return h
}

// ToOid converts the Hash back to a libgit2 Oid.
func (h Hash) ToOid() *git2go.Oid {
	oid := new(git2go.Oid)
	copy(oid[:], h[:])

	return oid
}

// String returns the hex representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

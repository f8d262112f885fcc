// Package hash provides the hash implementation used across gitcore.
package hash

import (
	"crypto"
	"errors"
	"fmt"
	"hash"

	"github.com/pjbgf/sha1cd"
)

// Size is the length, in bytes, of the object id produced by New.
const Size = 20

// HexSize is the length, in hex characters, of the object id produced
// by New.
const HexSize = Size * 2

// ErrUnsupportedHashFunction is returned by RegisterHash for any
// algorithm other than crypto.SHA1.
//
// gitcore implements the SHA-1 object format only (spec Non-goals rule
// out SHA-256); the registration indirection below exists solely so
// that hash selection has one explicit call site, the way go-git's
// plumbing/hash package structures it.
var ErrUnsupportedHashFunction = errors.New("unsupported hash function")

var algo func() hash.Hash

func init() {
	reset()
}

func reset() {
	algo = sha1cd.New
}

// RegisterHash overrides the algorithm used to compute object ids.
// Only crypto.SHA1 is accepted.
func RegisterHash(h crypto.Hash, f func() hash.Hash) error {
	if f == nil {
		return fmt.Errorf("cannot register hash: f is nil")
	}
	if h != crypto.SHA1 {
		return fmt.Errorf("%w: %v", ErrUnsupportedHashFunction, h)
	}
	algo = f
	return nil
}

// New returns a new Hash ready to sum object bytes.
func New() hash.Hash {
	return algo()
}

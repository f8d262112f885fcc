package object

import (
	"fmt"
	"strconv"

	"github.com/go-vcs/gitcore/plumbing"
)

// FileMode is a tree entry's mode, stored and compared as the integer
// value of its octal representation.
type FileMode uint32

const (
	// Regular is the only file mode gitcore's working tree fidelity
	// supports (spec.md Non-goals rule out the executable bit and
	// symlinks).
	Regular FileMode = 0o100644
	// Dir marks a tree entry that is itself a tree (a subdirectory).
	Dir FileMode = 0o040000
)

// String renders m the way a tree entry encodes it: an octal string
// with no leading-zero padding.
func (m FileMode) String() string {
	return strconv.FormatUint(uint64(m), 8)
}

// ParseFileMode parses the octal mode string found in a tree entry.
func ParseFileMode(s string) (FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid mode %q", plumbing.ErrInvalidArgument, s)
	}
	return FileMode(v), nil
}

// IsDir reports whether m names a subtree entry.
func (m FileMode) IsDir() bool { return m == Dir }

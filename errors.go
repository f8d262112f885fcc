package gitcore

import (
	"errors"

	"github.com/go-vcs/gitcore/bundle"
	"github.com/go-vcs/gitcore/plumbing"
)

// ErrorKind classifies a gitcore error into the taxonomy spec.md §7
// defines, independent of which package actually returned it. A merge
// conflict is deliberately not part of this taxonomy: Merge reports
// conflicts through MergeOutcome.Conflicts rather than as an error, so
// there is no conflict error for KindOf to classify.
type ErrorKind int

const (
	Unknown ErrorKind = iota
	NotFound
	Corrupt
	DetachedHead
	UnknownBranchKind
	BranchExistsKind
	NonFastForward
	InvalidArgument
	Io
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Corrupt:
		return "corrupt"
	case DetachedHead:
		return "detached_head"
	case UnknownBranchKind:
		return "unknown_branch"
	case BranchExistsKind:
		return "branch_exists"
	case NonFastForward:
		return "non_fast_forward"
	case InvalidArgument:
		return "invalid_argument"
	case Io:
		return "io"
	default:
		return "unknown"
	}
}

// KindOf classifies err against spec.md §7's error-kind table. A nil
// err classifies as Unknown; any error that does not match a known
// sentinel is treated as Io, the catch-all for filesystem and codec
// failures that escape the sentinels below.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return Unknown
	case errors.Is(err, plumbing.ErrObjectNotFound),
		errors.Is(err, plumbing.ErrReferenceNotFound),
		errors.Is(err, ErrNotARepository):
		return NotFound
	case errors.Is(err, plumbing.ErrCorruptObject):
		return Corrupt
	case errors.Is(err, ErrDetachedHead):
		return DetachedHead
	case errors.Is(err, ErrUnknownBranch):
		return UnknownBranchKind
	case errors.Is(err, ErrBranchExists):
		return BranchExistsKind
	case errors.Is(err, bundle.ErrNonFastForward):
		return NonFastForward
	case errors.Is(err, plumbing.ErrInvalidArgument):
		return InvalidArgument
	default:
		return Io
	}
}

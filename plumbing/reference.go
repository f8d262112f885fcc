package plumbing

import (
	"errors"
	"strings"
)

// ErrReferenceNotFound is returned when a ref does not exist.
var ErrReferenceNotFound = errors.New("reference not found")

// ReferenceType distinguishes a ref that points directly at an object id
// from one that points at another ref by name (in gitcore, HEAD when
// attached and the refs/remotes/<remote>/HEAD a bundle ingest mirrors).
type ReferenceType int8

const (
	InvalidReference  ReferenceType = 0
	HashReference     ReferenceType = 1
	SymbolicReference ReferenceType = 2
)

// ReferenceName is a fully qualified ref path, e.g. "refs/heads/master".
type ReferenceName string

// HEAD is the name of the symbolic/detached pointer to the current
// commit.
const HEAD ReferenceName = "HEAD"

const (
	refHeadsPrefix   = "refs/heads/"
	refTagsPrefix    = "refs/tags/"
	refRemotesPrefix = "refs/remotes/"
)

// NewBranchReferenceName builds "refs/heads/<name>".
func NewBranchReferenceName(name string) ReferenceName {
	return ReferenceName(refHeadsPrefix + name)
}

// NewTagReferenceName builds "refs/tags/<name>".
func NewTagReferenceName(name string) ReferenceName {
	return ReferenceName(refTagsPrefix + name)
}

// NewRemoteReferenceName builds "refs/remotes/<remote>/<branch>".
func NewRemoteReferenceName(remote, branch string) ReferenceName {
	return ReferenceName(refRemotesPrefix + remote + "/" + branch)
}

// NewRemoteHEADReferenceName builds "refs/remotes/<remote>/HEAD".
func NewRemoteHEADReferenceName(remote string) ReferenceName {
	return ReferenceName(refRemotesPrefix + remote + "/HEAD")
}

func (n ReferenceName) String() string { return string(n) }

// IsBranch reports whether n lives under refs/heads/.
func (n ReferenceName) IsBranch() bool { return strings.HasPrefix(string(n), refHeadsPrefix) }

// IsTag reports whether n lives under refs/tags/.
func (n ReferenceName) IsTag() bool { return strings.HasPrefix(string(n), refTagsPrefix) }

// IsRemote reports whether n lives under refs/remotes/.
func (n ReferenceName) IsRemote() bool { return strings.HasPrefix(string(n), refRemotesPrefix) }

// Short returns the name with any refs/heads|tags|remotes/ prefix
// stripped.
func (n ReferenceName) Short() string {
	s := string(n)
	for _, prefix := range []string{refHeadsPrefix, refTagsPrefix, refRemotesPrefix} {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimPrefix(s, prefix)
		}
	}
	return s
}

// Reference is a named pointer, either straight at an object id (a
// branch, tag, or remote-tracking ref) or symbolically at another
// reference (HEAD when attached, or a remote's mirrored HEAD).
type Reference struct {
	t      ReferenceType
	n      ReferenceName
	h      Hash
	target ReferenceName
}

// NewHashReference builds a Reference named n pointing directly at h.
func NewHashReference(n ReferenceName, h Hash) *Reference {
	return &Reference{t: HashReference, n: n, h: h}
}

// NewSymbolicReference builds a Reference named n pointing at target.
func NewSymbolicReference(n, target ReferenceName) *Reference {
	return &Reference{t: SymbolicReference, n: n, target: target}
}

func (r *Reference) Type() ReferenceType   { return r.t }
func (r *Reference) Name() ReferenceName   { return r.n }
func (r *Reference) Hash() Hash            { return r.h }
func (r *Reference) Target() ReferenceName { return r.target }

func (r *Reference) String() string {
	switch r.t {
	case HashReference:
		return r.h.String()
	case SymbolicReference:
		return "ref: " + r.target.String()
	default:
		return ""
	}
}

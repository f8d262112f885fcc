package gitcore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/storage/filesystem/dotgit"
)

// ErrDetachedHead is returned by operations that require an attached
// HEAD (spec.md §4.5 current_branch).
var ErrDetachedHead = errors.New("HEAD is detached")

// ErrUnknownBranch is returned when a named branch ref does not exist.
var ErrUnknownBranch = errors.New("unknown branch")

// ErrBranchExists is returned by BranchCreate when name is already a
// branch.
var ErrBranchExists = errors.New("branch already exists")

// ErrInvalidBranchName is returned when a branch name violates spec.md
// §3's invariant: no spaces, no control characters, no "..", no ":",
// and no "/" adjacent to another "/". dotgit's refPath turns a branch
// name directly into a filesystem path component, so an unchecked name
// containing ".." or a leading/trailing "/" could otherwise escape
// refs/heads.
var ErrInvalidBranchName = fmt.Errorf("%w: invalid branch name", plumbing.ErrInvalidArgument)

// validateBranchName checks name against spec.md §3's branch-name
// invariant.
func validateBranchName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: %q: empty", ErrInvalidBranchName, name)
	case strings.ContainsAny(name, " :"):
		return fmt.Errorf("%w: %q: contains a space or colon", ErrInvalidBranchName, name)
	case strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q: contains \"..\"", ErrInvalidBranchName, name)
	case strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || strings.Contains(name, "//"):
		return fmt.Errorf("%w: %q: \"/\" adjacent to another \"/\", or leading/trailing \"/\"", ErrInvalidBranchName, name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %q: contains a control character", ErrInvalidBranchName, name)
		}
	}
	return nil
}

// resolveHash implements spec.md §4.5's resolve: a fully qualified name
// is used verbatim, "HEAD" dereferences HEAD, and anything else is
// probed as a branch, then a tag, then a remote-tracking ref, falling
// back to treating it as a branch name if none exist (so callers that
// need the not-found error still get a refs/heads/<name> one).
func (r *Repository) resolveHash(name plumbing.ReferenceName) (plumbing.Hash, error) {
	switch {
	case name == plumbing.HEAD:
		return r.headCommitHash()
	case hasRefsPrefix(name):
		return r.readHash(name)
	}

	short := name.Short()
	candidates := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(short),
		plumbing.NewTagReferenceName(short),
		plumbing.ReferenceName("refs/remotes/" + short),
	}
	for _, c := range candidates {
		h, err := r.readHash(c)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, err
		}
	}
	return r.readHash(plumbing.NewBranchReferenceName(short))
}

func hasRefsPrefix(name plumbing.ReferenceName) bool {
	const prefix = "refs/"
	return len(name) >= len(prefix) && name[:len(prefix)] == prefix
}

func (r *Repository) readHash(name plumbing.ReferenceName) (plumbing.Hash, error) {
	ref, err := r.store.Reference(name)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

// headCommitHash implements spec.md §4.5's head_commit: if HEAD is
// attached, dereference it once; a detached HEAD's content is the OID
// itself.
func (r *Repository) headCommitHash() (plumbing.Hash, error) {
	head, err := r.store.DotGit().HEAD()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if head.Type() == plumbing.HashReference {
		return head.Hash(), nil
	}
	return r.readHash(head.Target())
}

// CurrentBranch returns the short name of the branch HEAD points at, or
// ErrDetachedHead if HEAD is not attached.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.store.DotGit().HEAD()
	if err != nil {
		return "", err
	}
	if head.Type() != plumbing.SymbolicReference {
		return "", ErrDetachedHead
	}
	return head.Target().Short(), nil
}

// BranchCreate points a new refs/heads/<name> at HEAD's commit.
func (r *Repository) BranchCreate(name string) error {
	if err := validateBranchName(name); err != nil {
		return err
	}

	h, err := r.headCommitHash()
	if err != nil {
		return err
	}

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), h)
	if err := r.store.CheckAndSetReference(ref, nil); err != nil {
		if errors.Is(err, dotgit.ErrRefLocked) {
			return fmt.Errorf("%w: %s", ErrBranchExists, name)
		}
		return err
	}
	return nil
}

// BranchDelete removes refs/heads/<name>.
func (r *Repository) BranchDelete(name string) error {
	err := r.store.RemoveReference(plumbing.NewBranchReferenceName(name))
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownBranch, name)
	}
	return err
}

// BranchList returns every branch name under refs/heads, sorted.
func (r *Repository) BranchList() ([]string, error) {
	names, err := r.store.DotGit().ListBranches()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

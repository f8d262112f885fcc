package filesystem

import (
	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/storage"
)

// SetReference writes r unconditionally, the plain "point this ref
// here" operation branch creation and fast-forward advance use.
func (s *Storage) SetReference(r *plumbing.Reference) error {
	return s.dir.ForceSetRef(r)
}

// CheckAndSetReference advances r only if the ref currently holds old's
// value (or, when old is nil, only if the ref does not yet exist),
// keeping concurrent advances of the same branch race-free (spec.md
// §5).
func (s *Storage) CheckAndSetReference(r, old *plumbing.Reference) error {
	return s.dir.SetRef(r, old)
}

// Reference reads name, or HEAD.
func (s *Storage) Reference(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	return s.dir.ReadRef(name)
}

// RemoveReference deletes name, returning plumbing.ErrReferenceNotFound
// if it does not exist.
func (s *Storage) RemoveReference(name plumbing.ReferenceName) error {
	return s.dir.RemoveRef(name)
}

// IterReferences iterates every ref under refs/heads, refs/tags and
// refs/remotes (not HEAD; read that separately).
func (s *Storage) IterReferences() (storage.ReferenceIter, error) {
	refs, err := s.dir.IterRefs()
	if err != nil {
		return nil, err
	}
	return storage.NewReferenceSliceIter(refs), nil
}

var _ storage.Storer = (*Storage)(nil)

package gitcore

import (
	"errors"
	"path"

	"github.com/go-vcs/gitcore/index"
	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
)

// ErrNothingToCommit is the sentinel spec.md §6 describes: Commit
// returns it instead of a new OID when the staged tree already equals
// the current commit's tree.
var ErrNothingToCommit = errors.New("nothing to commit, working tree matches HEAD")

// StagePaths stages each of paths (files are hashed directly;
// directories are walked recursively, skipping .git) into the
// persisted index.
func (r *Repository) StagePaths(paths []string) error {
	idx, err := r.loadIndex()
	if err != nil {
		return err
	}

	for _, p := range paths {
		p = path.Clean(p)
		fi, err := r.work.Stat(p)
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if err := index.StageDirectory(r.work, r.store, idx, p); err != nil {
				return err
			}
			continue
		}
		if err := index.StageFile(r.work, r.store, idx, p); err != nil {
			return err
		}
	}

	return r.saveIndex(idx)
}

// UnstagePaths removes each of paths from the index, whether it names a
// staged file or a directory whose descendants are staged.
func (r *Repository) UnstagePaths(paths []string) error {
	idx, err := r.loadIndex()
	if err != nil {
		return err
	}
	for _, p := range paths {
		if _, err := index.Unstage(idx, p); err != nil {
			return err
		}
	}
	return r.saveIndex(idx)
}

// Commit writes a new commit from the current index and advances the
// current branch (or, if HEAD is detached, HEAD itself) to it.
// ErrNothingToCommit is returned, with no object written, when the
// staged tree equals the tip commit's tree exactly.
func (r *Repository) Commit(message string, author object.Signature) (plumbing.Hash, error) {
	idx, err := r.loadIndex()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	tree, err := index.BuildTree(idx, r.store)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	head, err := r.store.DotGit().HEAD()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	var parents []plumbing.Hash
	var parentHash plumbing.Hash
	haveParent := false

	if head.Type() == plumbing.HashReference {
		parentHash = head.Hash()
		haveParent = true
	} else {
		h, err := r.readHash(head.Target())
		if err == nil {
			parentHash = h
			haveParent = true
		} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, err
		}
	}

	if haveParent {
		parentCommit, err := object.GetCommit(r.store, parentHash)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if parentCommit.TreeHash == tree {
			return plumbing.ZeroHash, ErrNothingToCommit
		}
		parents = []plumbing.Hash{parentHash}
	}

	c := object.NewCommit(tree, parents, author, author, message)
	h, err := r.store.SetEncodedObject(c.Encode())
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if head.Type() == plumbing.HashReference {
		if err := r.store.DotGit().SetHEAD(plumbing.NewHashReference(plumbing.HEAD, h)); err != nil {
			return plumbing.ZeroHash, err
		}
		return h, nil
	}

	var old *plumbing.Reference
	if haveParent {
		old = plumbing.NewHashReference(head.Target(), parentHash)
	}
	newRef := plumbing.NewHashReference(head.Target(), h)
	if err := r.store.CheckAndSetReference(newRef, old); err != nil {
		return plumbing.ZeroHash, err
	}
	return h, nil
}

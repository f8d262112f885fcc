package gitcore

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
	"github.com/go-vcs/gitcore/storage"
)

// Repack consolidates every object reachable from HEAD and every ref
// under refs/heads, refs/tags and refs/remotes into a single pack file,
// deleting the loose copies the pack now supersedes (spec.md §5's
// "crashes between (3) and (4) leave unreferenced objects that the
// repack can later reclaim" names this as the reclaiming operation).
// Unlike storage/filesystem.Storage.Repack, which only packs the hash
// set it is handed, this computes that set itself by walking the full
// commit -> tree -> blob graph from every live ref, so objects left
// behind by a rewritten branch or a deleted ref's prior tip are not
// carried forward into the new pack.
func (r *Repository) Repack() error {
	hashes, err := r.reachableObjects()
	if err != nil {
		return err
	}
	return r.store.Repack(hashes)
}

// reachableObjects returns every object reachable from HEAD and every
// ref under refs/heads, refs/tags and refs/remotes: each tip commit
// (peeling through annotated tags), every commit in its ancestry, each
// commit's tree and every tree and blob nested beneath it.
func (r *Repository) reachableObjects() ([]plumbing.Hash, error) {
	tips := map[plumbing.Hash]bool{}

	h, err := r.headCommitHash()
	switch {
	case err == nil:
		tips[h] = true
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// unborn HEAD (fresh Init, no commits yet): nothing to add.
	default:
		return nil, err
	}

	refs, err := r.store.DotGit().IterRefs()
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if ref.Type() != plumbing.HashReference {
			continue
		}
		tips[ref.Hash()] = true
	}

	visited := map[plumbing.Hash]bool{}
	var order []plumbing.Hash
	add := func(h plumbing.Hash) { order = append(order, h) }

	for tip := range tips {
		commitHash, err := peelToCommit(r.store, tip)
		if err != nil {
			if errors.Is(err, plumbing.ErrObjectNotFound) {
				continue
			}
			return nil, err
		}
		if err := r.walkCommit(commitHash, visited, add); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// peelToCommit follows annotated-tag indirection (object.Tag.TargetHash)
// until it reaches a commit, tolerating a hash that is already one.
func peelToCommit(store storage.EncodedObjectStorer, h plumbing.Hash) (plumbing.Hash, error) {
	for {
		o, err := store.EncodedObject(plumbing.AnyObject, h)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if o.Type() != plumbing.TagObject {
			return h, nil
		}
		rd, err := o.Reader()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		payload, err := io.ReadAll(rd)
		rd.Close()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		tag, err := object.DecodeTag(h, payload)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		h = tag.TargetHash
	}
}

// walkCommit visits commit and every commit in its ancestry, plus each
// commit's tree and every tree/blob nested beneath it, calling add for
// every object confirmed to exist. visited guards against revisiting a
// shared ancestor (or tree/blob reachable from more than one commit)
// and against looping on a malformed parent cycle; a hash that turns
// out not to resolve is skipped rather than added, so Storage.Repack
// never gets asked to read an object that is not actually there.
func (r *Repository) walkCommit(start plumbing.Hash, visited map[plumbing.Hash]bool, add func(plumbing.Hash)) error {
	queue := []plumbing.Hash{start}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if visited[h] {
			continue
		}
		visited[h] = true

		c, err := object.GetCommit(r.store, h)
		if err != nil {
			if errors.Is(err, plumbing.ErrObjectNotFound) {
				continue
			}
			return err
		}
		add(h)
		if err := r.walkTree(c.TreeHash, visited, add); err != nil {
			return fmt.Errorf("repack: walking tree of commit %s: %w", h, err)
		}
		queue = append(queue, c.ParentHashes...)
	}
	return nil
}

// walkTree visits root and every tree/blob reachable from it, calling
// add for every object confirmed to exist.
func (r *Repository) walkTree(root plumbing.Hash, visited map[plumbing.Hash]bool, add func(plumbing.Hash)) error {
	if visited[root] {
		return nil
	}
	visited[root] = true

	t, err := object.GetTree(r.store, root)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil
		}
		return err
	}
	add(root)

	for _, e := range t.Entries {
		if e.Mode == object.Dir {
			if err := r.walkTree(e.Hash, visited, add); err != nil {
				return err
			}
			continue
		}
		if visited[e.Hash] {
			continue
		}
		visited[e.Hash] = true
		if err := r.store.HasEncodedObject(e.Hash); err != nil {
			if errors.Is(err, plumbing.ErrObjectNotFound) {
				continue
			}
			return err
		}
		add(e.Hash)
	}
	return nil
}

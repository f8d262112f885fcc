// Package revlist answers ancestry questions over the commit graph:
// is one commit reachable from another, and what common ancestor two
// branches should be merged against (C4). Traversal order is grounded
// on go-git's plumbing/object/commitgraph date-order walker, which
// keeps its frontier in a binaryheap ordered by commit time so the
// most recently committed candidates are explored first — the same
// structure is reused here, without that package's generation-number
// fast path, since gitcore has no commit-graph file to source
// generation numbers from.
package revlist

import (
	"errors"

	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
	"github.com/go-vcs/gitcore/storage"
)

// commitTimeDesc orders two *object.Commit values so the heap pops the
// most recently committed one first.
func commitTimeDesc(a, b interface{}) int {
	ca, cb := a.(*object.Commit), b.(*object.Commit)
	switch {
	case cb.Committer.When.Before(ca.Committer.When):
		return -1
	case ca.Committer.When.Before(cb.Committer.When):
		return 1
	default:
		return 0
	}
}

func loadCommit(store storage.EncodedObjectStorer, h plumbing.Hash) (*object.Commit, error) {
	return object.GetCommit(store, h)
}

// IsAncestor reports whether ancestor is reachable from commit by
// following parent edges — true when the two hashes are equal, too.
// Objects that cannot be resolved along the way (e.g. pruned history)
// are skipped rather than treated as an error, per the "tolerant of
// missing objects" edge case.
func IsAncestor(store storage.EncodedObjectStorer, ancestor, commit plumbing.Hash) (bool, error) {
	if ancestor == commit {
		return true, nil
	}

	start, err := loadCommit(store, commit)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return false, nil
		}
		return false, err
	}

	heap := binaryheap.NewWith(commitTimeDesc)
	heap.Push(start)
	visited := map[plumbing.Hash]bool{commit: true}

	for {
		v, ok := heap.Pop()
		if !ok {
			return false, nil
		}
		current := v.(*object.Commit)

		for _, p := range current.ParentHashes {
			if p == ancestor {
				return true, nil
			}
			if visited[p] {
				continue
			}
			visited[p] = true

			parent, err := loadCommit(store, p)
			if err != nil {
				if errors.Is(err, plumbing.ErrObjectNotFound) {
					continue
				}
				return false, err
			}
			heap.Push(parent)
		}
	}
}

// ancestorSet returns every commit reachable from start (start
// included), tolerating unresolvable parents the same way IsAncestor
// does.
func ancestorSet(store storage.EncodedObjectStorer, start plumbing.Hash) (map[plumbing.Hash]bool, error) {
	set := map[plumbing.Hash]bool{start: true}
	queue := []plumbing.Hash{start}

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		c, err := loadCommit(store, h)
		if err != nil {
			if errors.Is(err, plumbing.ErrObjectNotFound) {
				continue
			}
			return nil, err
		}
		for _, p := range c.ParentHashes {
			if set[p] {
				continue
			}
			set[p] = true
			queue = append(queue, p)
		}
	}
	return set, nil
}

// MergeBase finds a common ancestor of a and b by walking b's history
// in commit-time order (via the same binaryheap-backed traversal as
// IsAncestor) against the full ancestor set of a, returning the first
// one found. It reports ok=false when the two histories share no
// common ancestor.
func MergeBase(store storage.EncodedObjectStorer, a, b plumbing.Hash) (base plumbing.Hash, ok bool, err error) {
	ancestorsOfA, err := ancestorSet(store, a)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	if ancestorsOfA[b] {
		return b, true, nil
	}

	start, err := loadCommit(store, b)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return plumbing.ZeroHash, false, nil
		}
		return plumbing.ZeroHash, false, err
	}
	if ancestorsOfA[start.Hash] {
		return start.Hash, true, nil
	}

	heap := binaryheap.NewWith(commitTimeDesc)
	heap.Push(start)
	visited := map[plumbing.Hash]bool{b: true}

	for {
		v, ok := heap.Pop()
		if !ok {
			return plumbing.ZeroHash, false, nil
		}
		current := v.(*object.Commit)

		for _, p := range current.ParentHashes {
			if ancestorsOfA[p] {
				return p, true, nil
			}
			if visited[p] {
				continue
			}
			visited[p] = true

			parent, err := loadCommit(store, p)
			if err != nil {
				if errors.Is(err, plumbing.ErrObjectNotFound) {
					continue
				}
				return plumbing.ZeroHash, false, err
			}
			heap.Push(parent)
		}
	}
}

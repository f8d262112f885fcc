package gitcore

import (
	"errors"
	"fmt"

	"github.com/go-vcs/gitcore/merge"
	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
	"github.com/go-vcs/gitcore/revlist"
)

// MergeOutcome reports what Merge did: exactly one of Commit being set,
// Conflicts being non-empty, or AlreadyUpToDate being true.
type MergeOutcome struct {
	Commit          plumbing.Hash
	Conflicts       []merge.Conflict
	AlreadyUpToDate bool
}

// Merge merges the named branch into the current branch (spec.md
// §4.9). A MergeConflict is a reported outcome, not an error: on
// conflict, Merge leaves the current branch's ref and working tree
// untouched and returns the conflicts in the outcome with a nil error.
func (r *Repository) Merge(theirsBranch string, committer object.Signature) (*MergeOutcome, error) {
	oursBranch, err := r.CurrentBranch()
	if err != nil {
		return nil, err
	}
	if theirsBranch == oursBranch {
		return &MergeOutcome{AlreadyUpToDate: true}, nil
	}

	theirsRef := plumbing.NewBranchReferenceName(theirsBranch)
	theirsHash, err := r.readHash(theirsRef)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBranch, theirsBranch)
		}
		return nil, err
	}

	oursRef := plumbing.NewBranchReferenceName(oursBranch)
	oursHash, err := r.readHash(oursRef)
	if err != nil {
		return nil, err
	}

	if oursHash == theirsHash {
		return &MergeOutcome{AlreadyUpToDate: true}, nil
	}

	base, ok, err := revlist.MergeBase(r.store, oursHash, theirsHash)
	if err != nil {
		return nil, err
	}

	oursCommit, err := object.GetCommit(r.store, oursHash)
	if err != nil {
		return nil, err
	}
	theirsCommit, err := object.GetCommit(r.store, theirsHash)
	if err != nil {
		return nil, err
	}

	var baseTree plumbing.Hash
	if ok {
		if base == theirsHash {
			// theirs is already an ancestor of ours: nothing to merge.
			return &MergeOutcome{AlreadyUpToDate: true}, nil
		}
		// Unlike git itself, Merge does not fast-forward when
		// base==oursHash: it reconciles against the merge base and
		// writes a two-parent merge commit. ThreeWay
		// against that base reduces to "take theirs" for every entry
		// per the B/B/Y row of the reconciliation table, so the
		// resulting tree matches theirs's tree, but the merge commit
		// still records both parents.
		baseCommit, err := object.GetCommit(r.store, base)
		if err != nil {
			return nil, err
		}
		baseTree = baseCommit.TreeHash
	} else {
		baseTree = object.EmptyTreeHash
	}

	result, err := merge.ThreeWay(r.store, baseTree, oursCommit.TreeHash, theirsCommit.TreeHash)
	if err != nil {
		return nil, err
	}
	if len(result.Conflicts) > 0 {
		return &MergeOutcome{Conflicts: result.Conflicts}, nil
	}

	commitHash, err := merge.WriteCommit(r.store, result.Tree, oursHash, theirsHash, theirsBranch, oursBranch, committer, committer)
	if err != nil {
		return nil, err
	}

	if err := r.store.CheckAndSetReference(
		plumbing.NewHashReference(oursRef, commitHash),
		plumbing.NewHashReference(oursRef, oursHash),
	); err != nil {
		return nil, err
	}

	return &MergeOutcome{Commit: commitHash}, nil
}

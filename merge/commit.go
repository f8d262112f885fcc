package merge

import (
	"fmt"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
	"github.com/go-vcs/gitcore/storage"
)

// WriteCommit writes the merge commit for a successful ThreeWay
// result: parents are [ours, theirs] in that order (spec.md §4.9 —
// first parent is the branch receiving the merge) and the message
// follows the teacher's original "Merge branch '<theirs>' into
// <ours>" template (original_source/src/commands/merge.rs).
func WriteCommit(store storage.EncodedObjectStorer, tree, ours, theirs plumbing.Hash, theirsBranch, oursBranch string, author, committer object.Signature) (plumbing.Hash, error) {
	msg := fmt.Sprintf("Merge branch '%s' into %s", theirsBranch, oursBranch)
	c := object.NewCommit(tree, []plumbing.Hash{ours, theirs}, author, committer, msg)
	return store.SetEncodedObject(c.Encode())
}

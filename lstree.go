package gitcore

import (
	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
)

// LsTree lists the direct entries of the tree named h, the way
// original_source/src/commands/cat_file.rs's tree branch prints a
// tree's entries (mode, kind, OID, name) but shallow, not recursive.
func (r *Repository) LsTree(h plumbing.Hash) ([]object.TreeEntry, error) {
	t, err := object.GetTree(r.store, h)
	if err != nil {
		return nil, err
	}
	return t.Entries, nil
}

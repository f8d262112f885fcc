package index

import (
	"strings"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
	"github.com/go-vcs/gitcore/storage"
)

// BuildTree writes the nested tree objects that represent idx's current
// contents and returns the root tree's hash (C7). Unlike the flat,
// single-level tree write_tree in the distilled original left as a
// known shortcut ("In a real implementation, we would handle
// subdirectories by creating subtrees"), this groups entries by their
// leading path component at every level and recurses, so a staged
// "a/b/c.txt" produces a tree->tree->blob chain exactly like git's own
// write-tree.
func BuildTree(idx *Index, store storage.EncodedObjectStorer) (plumbing.Hash, error) {
	return buildTree(store, idx.sorted())
}

// buildTree expects entries' Name fields already relative to the
// directory being built (no trailing slash, no leading path segments
// outside this subtree).
func buildTree(store storage.EncodedObjectStorer, entries []*Entry) (plumbing.Hash, error) {
	var files []*Entry
	subdirs := map[string][]*Entry{}
	var order []string

	for _, e := range entries {
		if slash := strings.IndexByte(e.Name, '/'); slash >= 0 {
			dir, rest := e.Name[:slash], e.Name[slash+1:]
			if _, seen := subdirs[dir]; !seen {
				order = append(order, dir)
			}
			subdirs[dir] = append(subdirs[dir], &Entry{
				Name: rest, Mode: e.Mode, Hash: e.Hash, ModifiedAt: e.ModifiedAt, Size: e.Size,
			})
			continue
		}
		files = append(files, e)
	}

	treeEntries := make([]object.TreeEntry, 0, len(files)+len(order))
	for _, e := range files {
		treeEntries = append(treeEntries, object.TreeEntry{Name: e.Name, Mode: e.Mode, Hash: e.Hash})
	}
	for _, dir := range order {
		h, err := buildTree(store, subdirs[dir])
		if err != nil {
			return plumbing.ZeroHash, err
		}
		treeEntries = append(treeEntries, object.TreeEntry{Name: dir, Mode: object.Dir, Hash: h})
	}

	t := object.NewTree(treeEntries)
	return store.SetEncodedObject(t.Encode())
}

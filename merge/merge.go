// Package merge implements the three-way file-level reconciliation
// engine (C9): given a merge base and two divergent tips, it decides,
// path by path, which side's content survives and flags the paths
// that cannot be decided automatically.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-vcs/gitcore/index"
	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
	"github.com/go-vcs/gitcore/storage"
)

// ConflictKind classifies why a path could not be reconciled
// automatically.
type ConflictKind int

const (
	AddAdd ConflictKind = iota
	EditEdit
	EditDelete
	DeleteEdit
)

func (k ConflictKind) String() string {
	switch k {
	case AddAdd:
		return "add/add"
	case EditEdit:
		return "edit/edit"
	case EditDelete:
		return "edit/delete"
	case DeleteEdit:
		return "delete/edit"
	default:
		return "unknown"
	}
}

// LineRange is a 1-based, inclusive run of disagreeing lines.
type LineRange struct {
	Start, End int
}

func (r LineRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}

// Conflict describes one path the engine could not reconcile.
// Ranges is only populated for EditEdit.
type Conflict struct {
	Path   string
	Kind   ConflictKind
	Ranges []LineRange
}

func (c Conflict) Error() string {
	if len(c.Ranges) == 0 {
		return fmt.Sprintf("Merge conflict in %s", c.Path)
	}
	parts := make([]string, len(c.Ranges))
	for i, r := range c.Ranges {
		parts[i] = r.String()
	}
	return fmt.Sprintf("Merge conflict in %s: %s", c.Path, strings.Join(parts, ", "))
}

// Result is the outcome of ThreeWay. On conflict, Tree is the zero
// hash and nothing was written to store.
type Result struct {
	Tree      plumbing.Hash
	Conflicts []Conflict
}

// ThreeWay reconciles the file sets of baseTree, oursTree and
// theirsTree per the table in spec.md §4.9 and, if every path
// resolves without conflict, writes the merged tree via
// index.BuildTree. baseTree may be the zero hash when ours and theirs
// share no common ancestor, in which case every path behaves as if
// absent from base.
func ThreeWay(store storage.EncodedObjectStorer, baseTree, oursTree, theirsTree plumbing.Hash) (*Result, error) {
	baseFiles, err := flatten(store, baseTree)
	if err != nil {
		return nil, fmt.Errorf("flattening base tree: %w", err)
	}
	oursFiles, err := flatten(store, oursTree)
	if err != nil {
		return nil, fmt.Errorf("flattening ours tree: %w", err)
	}
	theirsFiles, err := flatten(store, theirsTree)
	if err != nil {
		return nil, fmt.Errorf("flattening theirs tree: %w", err)
	}

	pathSet := map[string]bool{}
	for p := range baseFiles {
		pathSet[p] = true
	}
	for p := range oursFiles {
		pathSet[p] = true
	}
	for p := range theirsFiles {
		pathSet[p] = true
	}
	paths := make([]string, 0, len(pathSet))
	for p := range pathSet {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	idx := index.NewIndex()
	var conflicts []Conflict

	for _, p := range paths {
		b, bIn := baseFiles[p]
		o, oIn := oursFiles[p]
		t, tIn := theirsFiles[p]

		resolved, conflict, err := reconcile(store, p, b, bIn, o, oIn, t, tIn)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
			continue
		}
		if resolved != nil {
			idx.Add(&index.Entry{Name: p, Mode: resolved.Mode, Hash: resolved.Hash})
		}
	}

	if len(conflicts) > 0 {
		return &Result{Conflicts: conflicts}, nil
	}

	tree, err := index.BuildTree(idx, store)
	if err != nil {
		return nil, err
	}
	return &Result{Tree: tree}, nil
}

// reconcile decides path's fate per the spec.md §4.9 table. A nil,
// nil, nil return means the path is deleted in the merge result.
func reconcile(store storage.EncodedObjectStorer, path string, b object.TreeEntry, bIn bool, o object.TreeEntry, oIn bool, t object.TreeEntry, tIn bool) (*object.TreeEntry, *Conflict, error) {
	switch {
	case !bIn && !oIn && tIn:
		e := t
		return &e, nil, nil
	case !bIn && oIn && !tIn:
		e := o
		return &e, nil, nil
	case !bIn && oIn && tIn:
		if o.Hash == t.Hash {
			e := o
			return &e, nil, nil
		}
		return nil, &Conflict{Path: path, Kind: AddAdd}, nil

	case bIn && oIn && tIn:
		oEqB, tEqB := o.Hash == b.Hash, t.Hash == b.Hash
		switch {
		case oEqB && tEqB:
			e := b
			return &e, nil, nil
		case oEqB && !tEqB:
			e := t
			return &e, nil, nil
		case !oEqB && tEqB:
			e := o
			return &e, nil, nil
		case o.Hash == t.Hash:
			e := o
			return &e, nil, nil
		default:
			ranges, err := editConflictRanges(store, o.Hash, t.Hash)
			if err != nil {
				return nil, nil, err
			}
			return nil, &Conflict{Path: path, Kind: EditEdit, Ranges: ranges}, nil
		}

	case bIn && oIn && !tIn:
		if o.Hash == b.Hash {
			return nil, nil, nil
		}
		return nil, &Conflict{Path: path, Kind: EditDelete}, nil

	case bIn && !oIn && tIn:
		if t.Hash == b.Hash {
			return nil, nil, nil
		}
		return nil, &Conflict{Path: path, Kind: DeleteEdit}, nil

	default: // bIn && !oIn && !tIn, or the unreachable all-absent case
		return nil, nil, nil
	}
}

func flatten(store storage.EncodedObjectStorer, treeHash plumbing.Hash) (map[string]object.TreeEntry, error) {
	if treeHash.IsZero() {
		return map[string]object.TreeEntry{}, nil
	}
	tree, err := object.GetTree(store, treeHash)
	if err != nil {
		return nil, err
	}
	return tree.Flatten(store)
}

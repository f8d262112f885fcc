// Package index implements the staging area (C6): an in-memory
// path-to-(mtime, mode, OID) map that tracks what the next commit will
// contain, independent of both the working tree and HEAD. Named and
// shaped after go-git's plumbing/format/index package, but persisted in
// a private binary format rather than git's own index wire format — the
// original this spec was distilled from serializes its equivalent
// structure with Rust's bincode, an opaque deterministic binary
// encoding with no real git-index compatibility story, so there is
// nothing to be gained by reproducing git's on-disk layout here.
package index

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
)

// ErrEntryNotFound is returned by Entry and Remove when path is not
// staged.
var ErrEntryNotFound = errors.New("entry not found")

// Entry is a single staged path.
type Entry struct {
	Name       string
	Mode       object.FileMode
	Hash       plumbing.Hash
	ModifiedAt time.Time
	Size       int64
}

// Index is the full set of staged paths. The order of Entries is not
// meaningful; Save always normalizes to path order before writing.
type Index struct {
	Entries []*Entry
}

// NewIndex returns an empty index.
func NewIndex() *Index { return &Index{} }

// Entry returns the entry staged at path.
func (idx *Index) Entry(path string) (*Entry, error) {
	for _, e := range idx.Entries {
		if e.Name == path {
			return e, nil
		}
	}
	return nil, ErrEntryNotFound
}

// Add stages e, replacing any existing entry for the same path.
func (idx *Index) Add(e *Entry) {
	for i, existing := range idx.Entries {
		if existing.Name == e.Name {
			idx.Entries[i] = e
			return
		}
	}
	idx.Entries = append(idx.Entries, e)
}

// Remove unstages the single entry at path.
func (idx *Index) Remove(path string) (*Entry, error) {
	for i, e := range idx.Entries {
		if e.Name == path {
			idx.Entries = append(idx.Entries[:i], idx.Entries[i+1:]...)
			return e, nil
		}
	}
	return nil, ErrEntryNotFound
}

// RemovePrefix unstages every entry at or under the directory prefix,
// returning what was removed.
func (idx *Index) RemovePrefix(prefix string) []*Entry {
	prefix = strings.TrimSuffix(prefix, "/")
	var removed []*Entry
	var kept []*Entry
	for _, e := range idx.Entries {
		if e.Name == prefix || strings.HasPrefix(e.Name, prefix+"/") {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	idx.Entries = kept
	return removed
}

// Paths returns every staged path, sorted.
func (idx *Index) Paths() []string {
	paths := make([]string, len(idx.Entries))
	for i, e := range idx.Entries {
		paths[i] = e.Name
	}
	sort.Strings(paths)
	return paths
}

// sorted returns Entries sorted by Name, the order Save and the tree
// builder (C7) both rely on for deterministic output.
func (idx *Index) sorted() []*Entry {
	out := make([]*Entry, len(idx.Entries))
	copy(out, idx.Entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

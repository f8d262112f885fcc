package object

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/storage"
)

// EmptyTreeHash is the fixed object id of the tree with zero entries. It
// must exist in every repository from the moment it is initialized.
var EmptyTreeHash = plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904")

// TreeEntry is a single "MODE SP NAME NUL OID" record inside a tree
// object.
type TreeEntry struct {
	Name string
	Mode FileMode
	Hash plumbing.Hash
}

// Tree is the decoded form of a tree object: a flat, sorted list of
// entries, each either a blob or a nested subtree.
type Tree struct {
	Hash    plumbing.Hash
	Entries []TreeEntry
}

// sortTreeEntries orders entries by raw, unsigned byte comparison of
// Name, as spec.md §3 requires.
func sortTreeEntries(e []TreeEntry) {
	sort.Slice(e, func(i, j int) bool { return e[i].Name < e[j].Name })
}

// NewTree builds a Tree from entries (not yet sorted or hashed); call
// Encode to produce the canonical framed object.
func NewTree(entries []TreeEntry) *Tree {
	cp := make([]TreeEntry, len(entries))
	copy(cp, entries)
	sortTreeEntries(cp)
	return &Tree{Entries: cp}
}

// Encode produces the canonical tree payload and wraps it in a
// MemoryObject, computing its hash.
func (t *Tree) Encode() *plumbing.MemoryObject {
	sortTreeEntries(t.Entries)

	var buf bytes.Buffer
	for _, e := range t.Entries {
		buf.WriteString(e.Mode.String())
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.Hash.Bytes())
	}

	o := plumbing.NewMemoryObject()
	o.SetType(plumbing.TreeObject)
	o.SetContent(buf.Bytes())
	t.Hash = o.Hash()
	return o
}

// DecodeTree parses a framed tree payload.
func DecodeTree(h plumbing.Hash, payload []byte) (*Tree, error) {
	t := &Tree{Hash: h}
	r := bufio.NewReader(bytes.NewReader(payload))

	for {
		modeField, err := r.ReadString(' ')
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading tree entry mode: %v", plumbing.ErrCorruptObject, err)
		}
		modeField = modeField[:len(modeField)-1]
		mode, err := ParseFileMode(modeField)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", plumbing.ErrCorruptObject, err)
		}

		name, err := r.ReadString(0)
		if err != nil {
			return nil, fmt.Errorf("%w: reading tree entry name: %v", plumbing.ErrCorruptObject, err)
		}
		name = name[:len(name)-1]
		if name == "" {
			return nil, fmt.Errorf("%w: empty tree entry name", plumbing.ErrCorruptObject)
		}

		var raw [20]byte
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return nil, fmt.Errorf("%w: short tree entry hash: %v", plumbing.ErrCorruptObject, err)
		}
		oid, _ := plumbing.FromBytes(raw[:])

		t.Entries = append(t.Entries, TreeEntry{Name: name, Mode: mode, Hash: oid})
	}

	return t, nil
}

// Flatten recursively walks t, reading subtrees from store, and
// returns every blob reachable from it as a path -> (mode, OID) map
// keyed by slash-separated path relative to t's root. Directory
// entries themselves do not appear in the result.
func (t *Tree) Flatten(store storage.EncodedObjectStorer) (map[string]TreeEntry, error) {
	out := map[string]TreeEntry{}
	if err := t.walk(store, "", out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tree) walk(store storage.EncodedObjectStorer, base string, out map[string]TreeEntry) error {
	for _, e := range t.Entries {
		full := path.Join(base, e.Name)

		if e.Mode != Dir {
			out[full] = TreeEntry{Name: full, Mode: e.Mode, Hash: e.Hash}
			continue
		}

		sub, err := GetTree(store, e.Hash)
		if err != nil {
			return fmt.Errorf("flattening %s: %w", full, err)
		}
		if err := sub.walk(store, full, out); err != nil {
			return err
		}
	}
	return nil
}

// GetTree reads and decodes the tree object named h from store.
func GetTree(store storage.EncodedObjectStorer, h plumbing.Hash) (*Tree, error) {
	o, err := store.EncodedObject(plumbing.TreeObject, h)
	if err != nil {
		return nil, err
	}
	r, err := o.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeTree(h, payload)
}

// Find returns the entry named name, if present.
func (t *Tree) Find(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

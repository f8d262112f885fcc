// Package dotgit implements the low-level on-disk layout of a
// repository's .git directory: object shard paths, the pack directory,
// ref files (with lock-file protected writes), and HEAD. It knows
// nothing about object encoding or pack internals; storage/filesystem
// builds the C2/C3/C5 contracts on top of it, the way go-git's
// storage/filesystem/dotgit package underlies storage/filesystem.
package dotgit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-vcs/gitcore/plumbing"
)

const (
	objectsPath = "objects"
	packPath    = "objects/pack"
	refsPath    = "refs"
	headPath    = "HEAD"
	configPath  = "config"
	descPath    = "description"

	defaultDescription = "Unnamed repository; edit this file 'description' to name the repository.\n"
)

// DotGit wraps a billy.Filesystem rooted at a repository's .git
// directory.
type DotGit struct {
	fs billy.Filesystem
}

// New returns a DotGit rooted at fs.
func New(fs billy.Filesystem) *DotGit { return &DotGit{fs: fs} }

// Filesystem returns the underlying filesystem, rooted the same way.
func (d *DotGit) Filesystem() billy.Filesystem { return d.fs }

// Init lays out a fresh repository: the objects/refs directory tree,
// description, and HEAD pointing at refs/heads/master (unborn). It
// writes no objects.
func (d *DotGit) Init() error {
	for _, dir := range []string{objectsPath, packPath, refsPath, "refs/heads", "refs/tags", "refs/remotes"} {
		if err := d.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("init %s: %w", dir, err)
		}
	}

	if _, err := d.fs.Stat(descPath); os.IsNotExist(err) {
		f, err := d.fs.Create(descPath)
		if err != nil {
			return err
		}
		if _, err := f.Write([]byte(defaultDescription)); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	if _, err := d.fs.Stat(headPath); os.IsNotExist(err) {
		if err := d.SetHEAD(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("master"))); err != nil {
			return err
		}
	}

	return nil
}

// --- loose objects ---

// shardPath returns "objects/xx/yy...38hex" for h.
func shardPath(h plumbing.Hash) string {
	s := h.String()
	return filepath.Join(objectsPath, s[:2], s[2:])
}

// HasObject reports whether a loose object for h exists.
func (d *DotGit) HasObject(h plumbing.Hash) bool {
	_, err := d.fs.Stat(shardPath(h))
	return err == nil
}

// ObjectReader opens the loose object file for h.
func (d *DotGit) ObjectReader(h plumbing.Hash) (billy.File, error) {
	f, err := d.fs.Open(shardPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, plumbing.ErrObjectNotFound
		}
		return nil, err
	}
	return f, nil
}

// WriteObject writes raw (already framed+deflated) bytes as the loose
// object for h, creating the shard directory on demand. If the object
// already exists, this is a silent no-op (content-addressed
// deduplication, spec.md §4.2).
func (d *DotGit) WriteObject(h plumbing.Hash, raw []byte) error {
	if d.HasObject(h) {
		return nil
	}

	path := shardPath(h)
	dir := filepath.Dir(path)
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := d.fs.TempFile(dir, "obj-tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		_ = d.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = d.fs.Remove(tmpName)
		return err
	}

	if err := d.fs.Rename(tmpName, path); err != nil {
		_ = d.fs.Remove(tmpName)
		return err
	}
	return nil
}

// IterateObjectHashes lists every loose object hash under objects/.
func (d *DotGit) IterateObjectHashes() ([]plumbing.Hash, error) {
	shards, err := d.fs.ReadDir(objectsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []plumbing.Hash
	for _, shard := range shards {
		if !shard.IsDir() || len(shard.Name()) != 2 {
			continue
		}
		entries, err := d.fs.ReadDir(filepath.Join(objectsPath, shard.Name()))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			h, ok := plumbing.FromHex(shard.Name() + e.Name())
			if !ok {
				continue
			}
			out = append(out, h)
		}
	}
	return out, nil
}

// DeleteObject removes a loose object file.
func (d *DotGit) DeleteObject(h plumbing.Hash) error {
	err := d.fs.Remove(shardPath(h))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// --- packs ---

// PackNames lists the base names (without extension) of every pack in
// objects/pack/.
func (d *DotGit) PackNames() ([]string, error) {
	entries, err := d.fs.ReadDir(packPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pack") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".pack"))
	}
	sort.Strings(names)
	return names, nil
}

// OpenPack opens the .pack file named name (as returned by PackNames)
// for reading.
func (d *DotGit) OpenPack(name string) (billy.File, error) {
	return d.fs.Open(filepath.Join(packPath, name+".pack"))
}

// OpenIndex opens the .idx file named name for reading.
func (d *DotGit) OpenIndex(name string) (billy.File, error) {
	return d.fs.Open(filepath.Join(packPath, name+".idx"))
}

// NewPack creates pack-<name>.pack and pack-<name>.idx for writing,
// returning both handles. Callers must Close both; the pack directory
// is created on demand.
func (d *DotGit) NewPack(name string) (pack, idx billy.File, err error) {
	if err := d.fs.MkdirAll(packPath, 0o755); err != nil {
		return nil, nil, err
	}
	pack, err = d.fs.Create(filepath.Join(packPath, name+".pack"))
	if err != nil {
		return nil, nil, err
	}
	idx, err = d.fs.Create(filepath.Join(packPath, name+".idx"))
	if err != nil {
		pack.Close()
		return nil, nil, err
	}
	return pack, idx, nil
}

// RemovePack deletes both files of the named pack.
func (d *DotGit) RemovePack(name string) error {
	err1 := d.fs.Remove(filepath.Join(packPath, name+".pack"))
	err2 := d.fs.Remove(filepath.Join(packPath, name+".idx"))
	if err1 != nil && !os.IsNotExist(err1) {
		return err1
	}
	if err2 != nil && !os.IsNotExist(err2) {
		return err2
	}
	return nil
}

// --- refs ---

func refPath(name plumbing.ReferenceName) string {
	return filepath.FromSlash(name.String())
}

// ReadRef reads and parses the ref file at name (or HEAD).
func (d *DotGit) ReadRef(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	path := refPath(name)
	f, err := d.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, plumbing.ErrReferenceNotFound
		}
		return nil, err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return parseRefContent(name, raw)
}

func parseRefContent(name plumbing.ReferenceName, raw []byte) (*plumbing.Reference, error) {
	line := strings.TrimRight(string(raw), "\n")
	if strings.HasPrefix(line, "ref: ") {
		target := plumbing.ReferenceName(strings.TrimSpace(strings.TrimPrefix(line, "ref: ")))
		return plumbing.NewSymbolicReference(name, target), nil
	}
	h, ok := plumbing.FromHex(strings.TrimSpace(line))
	if !ok {
		return nil, fmt.Errorf("%w: malformed ref content %q", plumbing.ErrInvalidArgument, line)
	}
	return plumbing.NewHashReference(name, h), nil
}

// ErrRefLocked is returned when a ref's lock file cannot be acquired.
var ErrRefLocked = errors.New("reference is locked")

// SetRef writes r's content atomically, holding an exclusive
// "<name>.lock" file for the duration (spec.md §5). If old is non-nil,
// the write only proceeds when the ref's current value equals old
// (compare-and-swap); pass a nil old to require the ref not yet exist.
func (d *DotGit) SetRef(r, old *plumbing.Reference) error {
	return d.writeRef(r, old, true)
}

// ForceSetRef writes r's content unconditionally (still lock-protected
// against concurrent writers), the way a plain "set this ref" call
// needs to behave regardless of whatever value it held before.
func (d *DotGit) ForceSetRef(r *plumbing.Reference) error {
	return d.writeRef(r, nil, false)
}

func (d *DotGit) writeRef(r, old *plumbing.Reference, enforce bool) error {
	path := refPath(r.Name())
	if dir := filepath.Dir(path); dir != "." {
		if err := d.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	lockPath := path + ".lock"
	lock, err := d.fs.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRefLocked, r.Name())
	}
	defer func() {
		lock.Close()
		_ = d.fs.Remove(lockPath)
	}()

	if enforce {
		current, err := d.ReadRef(r.Name())
		if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return err
		}
		if old != nil {
			if current == nil || current.Hash() != old.Hash() || current.Target() != old.Target() {
				return fmt.Errorf("%w: %s changed concurrently", ErrRefLocked, r.Name())
			}
		} else if current != nil {
			return fmt.Errorf("%w: %s already exists", ErrRefLocked, r.Name())
		}
	}

	if _, err := lock.Write([]byte(refContent(r))); err != nil {
		return err
	}
	if err := lock.Close(); err != nil {
		return err
	}
	return d.fs.Rename(lockPath, path)
}

func refContent(r *plumbing.Reference) string {
	switch r.Type() {
	case plumbing.SymbolicReference:
		return "ref: " + r.Target().String() + "\n"
	default:
		return r.Hash().String() + "\n"
	}
}

// RemoveRef deletes the ref file at name.
func (d *DotGit) RemoveRef(name plumbing.ReferenceName) error {
	err := d.fs.Remove(refPath(name))
	if os.IsNotExist(err) {
		return plumbing.ErrReferenceNotFound
	}
	return err
}

// IterRefs walks refs/heads, refs/tags and refs/remotes, returning every
// ref found (HEAD is not included; read it separately via ReadRef).
func (d *DotGit) IterRefs() ([]*plumbing.Reference, error) {
	var out []*plumbing.Reference
	for _, root := range []string{"refs/heads", "refs/tags", "refs/remotes"} {
		if err := d.walkRefDir(root, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *DotGit) walkRefDir(dir string, out *[]*plumbing.Reference) error {
	entries, err := d.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if err := d.walkRefDir(full, out); err != nil {
				return err
			}
			continue
		}
		if strings.HasSuffix(e.Name(), ".lock") {
			continue
		}
		name := plumbing.ReferenceName(filepath.ToSlash(full))
		r, err := d.ReadRef(name)
		if err != nil {
			return err
		}
		*out = append(*out, r)
	}
	return nil
}

// ListBranches returns the short names under refs/heads, sorted
// lexically.
func (d *DotGit) ListBranches() ([]string, error) {
	entries, err := d.fs.ReadDir("refs/heads")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".lock") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// HEAD reads the HEAD file.
func (d *DotGit) HEAD() (*plumbing.Reference, error) {
	return d.ReadRef(plumbing.HEAD)
}

// SetHEAD overwrites HEAD (no lock contention guard; HEAD is rewritten
// wholesale on every checkout/commit by a single owning process, per
// spec.md §5).
func (d *DotGit) SetHEAD(r *plumbing.Reference) error {
	f, err := d.fs.Create(headPath)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write([]byte(refContent(r)))
	return err
}

// ConfigPath returns the repo-relative path to the config file.
func (d *DotGit) ConfigPath() string { return configPath }

// Fs exposes the underlying filesystem for components (bundle,
// checkout) that need direct file access alongside dotgit's structured
// operations.
func (d *DotGit) Fs() billy.Filesystem { return d.fs }

// Package gitcore is the root-level repository facade (C11): it ties
// together the object store, refs, index, tree/commit builders, merge
// engine and bundle codec behind the operation surface spec.md §6
// describes, the way the teacher's root package wraps Storer and a
// worktree filesystem behind Repository.
package gitcore

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/go-vcs/gitcore/config"
	"github.com/go-vcs/gitcore/index"
	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
	"github.com/go-vcs/gitcore/storage/filesystem"
)

const (
	gitDir    = ".git"
	indexPath = "index"
)

// ErrNotARepository is returned by Open when path has no .git
// directory with a readable HEAD.
var ErrNotARepository = errors.New("not a gitcore repository")

// Repository is a scoped handle on a repository's working tree and its
// .git directory: an on-disk root and a lazily-loaded index, per
// spec.md §9's "Global state" design note. There is no module-level
// state; every operation takes the handle explicitly.
type Repository struct {
	work  billy.Filesystem
	dir   billy.Filesystem
	store *filesystem.Storage
}

// Init creates a fresh repository rooted at path, laying out the
// .git directory (objects/refs tree, description, HEAD pointing at the
// unborn refs/heads/master) the way dotgit.Init does.
func Init(path string) (*Repository, error) {
	work := osfs.New(path)
	dir, err := work.Chroot(gitDir)
	if err != nil {
		return nil, err
	}

	store := filesystem.NewStorage(dir)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("initializing %s: %w", gitDir, err)
	}

	emptyTree := object.NewTree(nil).Encode()
	if _, err := store.SetEncodedObject(emptyTree); err != nil {
		return nil, fmt.Errorf("pre-populating empty tree: %w", err)
	}

	return &Repository{work: work, dir: dir, store: store}, nil
}

// Open returns a handle on the existing repository rooted at path.
func Open(path string) (*Repository, error) {
	work := osfs.New(path)
	dir, err := work.Chroot(gitDir)
	if err != nil {
		return nil, err
	}

	if _, err := dir.Stat("HEAD"); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotARepository, path)
		}
		return nil, err
	}

	return &Repository{work: work, dir: dir, store: filesystem.NewStorage(dir)}, nil
}

// Storer exposes the underlying object/reference store for callers
// that need the lower-level C1-C5 surface directly (revlist, merge,
// bundle all take it).
func (r *Repository) Storer() *filesystem.Storage { return r.store }

// loadIndex reads the staging area, treating a missing file as an
// empty index (spec.md §4.6).
func (r *Repository) loadIndex() (*index.Index, error) {
	f, err := r.dir.Open(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return index.NewIndex(), nil
		}
		return nil, err
	}
	defer f.Close()
	return index.Load(f)
}

// saveIndex persists idx, overwriting any existing index file.
func (r *Repository) saveIndex(idx *index.Index) error {
	f, err := r.dir.Create(indexPath)
	if err != nil {
		return err
	}
	if err := index.Save(f, idx); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// resolveCommit reads name the way spec.md §4.5's resolve describes and
// decodes it as a commit.
func (r *Repository) resolveCommit(name plumbing.ReferenceName) (*object.Commit, error) {
	h, err := r.resolveHash(name)
	if err != nil {
		return nil, err
	}
	return object.GetCommit(r.store, h)
}

// RemoteURL reads the url option of the named remote's section out of
// .git/config (spec.md §6: `[remote "NAME"] url = ...`).
func (r *Repository) RemoteURL(name string) (string, error) {
	cfg, err := config.Load(r.dir, r.store.DotGit().ConfigPath())
	if err != nil {
		return "", err
	}
	return cfg.RemoteURL(name)
}

package index

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
	"github.com/go-vcs/gitcore/storage"
)

// gitDir is the directory StageDirectory always skips.
const gitDir = ".git"

// StageFile hashes the working-tree file at path as a blob, writes it
// to store, and records it in idx.
func StageFile(fs billy.Filesystem, store storage.EncodedObjectStorer, idx *Index, p string) error {
	p = path.Clean(p)
	fi, err := fs.Stat(p)
	if err != nil {
		return fmt.Errorf("%w: %v", plumbing.ErrInvalidArgument, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: %s is a directory", plumbing.ErrInvalidArgument, p)
	}

	f, err := fs.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	blob := object.NewBlob(content)
	h, err := store.SetEncodedObject(blob)
	if err != nil {
		return err
	}

	idx.Add(&Entry{
		Name:       p,
		Mode:       object.Regular,
		Hash:       h,
		ModifiedAt: fi.ModTime(),
		Size:       fi.Size(),
	})
	return nil
}

// StageDirectory recursively stages every file under root, skipping
// .git, updating idx as it goes.
func StageDirectory(fs billy.Filesystem, store storage.EncodedObjectStorer, idx *Index, root string) error {
	return walk(fs, root, func(p string, isDir bool) error {
		if isDir {
			return nil
		}
		return StageFile(fs, store, idx, p)
	})
}

func walk(fs billy.Filesystem, dir string, visit func(path string, isDir bool) error) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := path.Join(dir, e.Name())
		if e.Name() == gitDir {
			continue
		}
		if e.IsDir() {
			if err := visit(name, true); err != nil {
				return err
			}
			if err := walk(fs, name, visit); err != nil {
				return err
			}
			continue
		}
		if err := visit(name, false); err != nil {
			return err
		}
	}
	return nil
}

// ErrNotStaged is returned by Unstage when path matches neither a
// staged file nor a staged directory prefix.
var ErrNotStaged = fmt.Errorf("%w: path is not staged", plumbing.ErrInvalidArgument)

// Unstage removes path from idx, whether it names a single staged file
// or a directory whose descendants are staged, and reports what was
// removed.
func Unstage(idx *Index, p string) ([]*Entry, error) {
	p = strings.TrimSuffix(path.Clean(p), "/")

	if e, err := idx.Remove(p); err == nil {
		return []*Entry{e}, nil
	}

	removed := idx.RemovePrefix(p)
	if len(removed) == 0 {
		return nil, ErrNotStaged
	}
	return removed, nil
}

package bundle

import (
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
)

// fileEntry is one regular file collected from a filesystem walk,
// keyed by its slash-separated path relative to the filesystem root.
type fileEntry struct {
	path    string
	content []byte
}

// collectFiles recursively lists every regular file under root,
// skipping a directory if it does not exist at all (an empty
// objects/pack is normal for a freshly initialized repository).
func collectFiles(fs billy.Filesystem, root string) ([]fileEntry, error) {
	var out []fileEntry
	if err := walk(fs, root, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walk(fs billy.Filesystem, dir string, out *[]fileEntry) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		full := path.Join(dir, e.Name())
		if e.IsDir() {
			if err := walk(fs, full, out); err != nil {
				return err
			}
			continue
		}

		f, err := fs.Open(full)
		if err != nil {
			return err
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}
		*out = append(*out, fileEntry{path: full, content: content})
	}
	return nil
}

// writeFileIfAbsent writes content to filePath, creating any missing parent
// directories first. An existing file at path is left untouched
// (content-addressed loose objects and immutable packs never need
// overwriting; spec.md §4.10 step 2 asks ingest to skip if the
// destination already exists).
func writeFileIfAbsent(fs billy.Filesystem, filePath string, content []byte) error {
	if _, err := fs.Stat(filePath); err == nil {
		return nil
	}
	if dir := path.Dir(filePath); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := fs.Create(filePath)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// removeAll recursively deletes dir and everything under it. billy's
// Filesystem has no RemoveAll of its own (Remove refuses a non-empty
// directory, mirroring os.Remove), so files are removed bottom-up.
func removeAll(fs billy.Filesystem, dir string) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		full := path.Join(dir, e.Name())
		if e.IsDir() {
			if err := removeAll(fs, full); err != nil {
				return err
			}
			continue
		}
		if err := fs.Remove(full); err != nil {
			return err
		}
	}
	return fs.Remove(dir)
}

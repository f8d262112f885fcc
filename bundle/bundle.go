// Package bundle implements the transport codec (C10): a bundle is a
// gzip stream of a tar archive carrying every object a repository
// needs to hand another repository, its branch refs, and its HEAD.
package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/revlist"
	"github.com/go-vcs/gitcore/storage"
	"github.com/go-vcs/gitcore/storage/filesystem/dotgit"
)

const (
	objectsDir      = "objects"
	packedRefsEntry = "packed-refs"
	headEntry       = "HEAD"
	tmpDir          = "bundle-tmp"
)

// ErrNonFastForward is returned when a push-mode ingest's incoming ref
// does not descend from the receiver's current value for that ref.
var ErrNonFastForward = errors.New("receiver ref does not fast-forward")

// Create builds a bundle: every loose and packed object under
// objects/, a packed-refs line per branch, and the sender's HEAD.
func Create(dir *dotgit.DotGit) ([]byte, error) {
	fs := dir.Fs()

	objectFiles, err := collectFiles(fs, objectsDir)
	if err != nil {
		return nil, fmt.Errorf("collecting objects: %w", err)
	}

	refs, err := dir.IterRefs()
	if err != nil {
		return nil, fmt.Errorf("listing refs: %w", err)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name().String() < refs[j].Name().String() })

	var packedRefs bytes.Buffer
	for _, r := range refs {
		if !r.Name().IsBranch() {
			continue
		}
		fmt.Fprintf(&packedRefs, "%s %s\n", r.Hash(), r.Name())
	}

	head, err := dir.HEAD()
	if err != nil {
		return nil, fmt.Errorf("reading HEAD: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, f := range objectFiles {
		if err := writeTarEntry(tw, f.path, f.content); err != nil {
			return nil, err
		}
	}
	if err := writeTarEntry(tw, packedRefsEntry, packedRefs.Bytes()); err != nil {
		return nil, err
	}
	if err := writeTarEntry(tw, headEntry, []byte(renderRef(head))); err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTarEntry(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name: name,
		Mode: 0o644,
		Size: int64(len(content)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}

func renderRef(r *plumbing.Reference) string {
	if r.Type() == plumbing.SymbolicReference {
		return "ref: " + r.Target().String() + "\n"
	}
	return r.Hash().String() + "\n"
}

// Ingest extracts a bundle produced by Create into dir, then applies
// its refs per spec.md §4.10: fetch mode (remoteName non-empty) mirrors
// every branch unconditionally under refs/remotes/<remoteName>/ plus
// refs/remotes/<remoteName>/HEAD; push mode (remoteName == "") advances
// refs/heads/<b> directly, enforcing fast-forward.
func Ingest(dir *dotgit.DotGit, store storage.EncodedObjectStorer, archive []byte, remoteName string) error {
	fs := dir.Fs()

	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return fmt.Errorf("%w: not a gzip stream", plumbing.ErrCorruptObject)
	}
	defer gz.Close()

	if err := extractTar(fs, gz, tmpDir); err != nil {
		return err
	}
	defer removeAll(fs, tmpDir)

	tmpObjects, err := collectFiles(fs, path.Join(tmpDir, objectsDir))
	if err != nil {
		return fmt.Errorf("reading extracted objects: %w", err)
	}
	prefix := path.Join(tmpDir, objectsDir) + "/"
	for _, f := range tmpObjects {
		rel := strings.TrimPrefix(f.path, prefix)
		dest := path.Join(objectsDir, rel)
		if err := writeFileIfAbsent(fs, dest, f.content); err != nil {
			return fmt.Errorf("copying object %s: %w", rel, err)
		}
	}

	packedRefs, err := readTmpFile(fs, path.Join(tmpDir, packedRefsEntry))
	if err != nil {
		return fmt.Errorf("reading packed-refs: %w", err)
	}

	fetchMode := remoteName != ""
	for _, line := range strings.Split(strings.TrimSpace(string(packedRefs)), "\n") {
		if line == "" {
			continue
		}
		oid, name, err := parsePackedRefsLine(line)
		if err != nil {
			return err
		}
		branch := name.Short()

		if fetchMode {
			target := plumbing.NewRemoteReferenceName(remoteName, branch)
			if err := dir.ForceSetRef(plumbing.NewHashReference(target, oid)); err != nil {
				return err
			}
			continue
		}

		if err := ingestPushRef(dir, store, name, oid); err != nil {
			return err
		}
	}

	if fetchMode {
		headRaw, err := readTmpFile(fs, path.Join(tmpDir, headEntry))
		if err != nil {
			return fmt.Errorf("reading HEAD: %w", err)
		}
		if err := mirrorRemoteHEAD(dir, remoteName, headRaw); err != nil {
			return err
		}
	}

	return nil
}

func ingestPushRef(dir *dotgit.DotGit, store storage.EncodedObjectStorer, name plumbing.ReferenceName, oid plumbing.Hash) error {
	existing, err := dir.ReadRef(name)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return dir.SetRef(plumbing.NewHashReference(name, oid), nil)
		}
		return err
	}
	if existing.Hash() == oid {
		return nil
	}

	ok, err := revlist.IsAncestor(store, existing.Hash(), oid)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNonFastForward, name)
	}
	return dir.SetRef(plumbing.NewHashReference(name, oid), existing)
}

func mirrorRemoteHEAD(dir *dotgit.DotGit, remoteName string, raw []byte) error {
	line := strings.TrimSpace(string(raw))
	remoteHEAD := plumbing.NewRemoteHEADReferenceName(remoteName)

	if strings.HasPrefix(line, "ref: ") {
		senderTarget := plumbing.ReferenceName(strings.TrimSpace(strings.TrimPrefix(line, "ref: ")))
		target := plumbing.NewRemoteReferenceName(remoteName, senderTarget.Short())
		return dir.ForceSetRef(plumbing.NewSymbolicReference(remoteHEAD, target))
	}

	h, ok := plumbing.FromHex(line)
	if !ok {
		return fmt.Errorf("%w: malformed sender HEAD %q", plumbing.ErrCorruptObject, line)
	}
	return dir.ForceSetRef(plumbing.NewHashReference(remoteHEAD, h))
}

func parsePackedRefsLine(line string) (plumbing.Hash, plumbing.ReferenceName, error) {
	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return plumbing.ZeroHash, "", fmt.Errorf("%w: malformed packed-refs line %q", plumbing.ErrCorruptObject, line)
	}
	oid, ok := plumbing.FromHex(line[:sp])
	if !ok {
		return plumbing.ZeroHash, "", fmt.Errorf("%w: invalid OID in packed-refs line %q", plumbing.ErrCorruptObject, line)
	}
	return oid, plumbing.ReferenceName(line[sp+1:]), nil
}

func readTmpFile(fs billy.Filesystem, p string) ([]byte, error) {
	f, err := fs.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// extractTar reads a tar stream and writes every entry under dest,
// rooted at fs. Existing files are overwritten; dest is assumed to not
// yet exist (Ingest uses a fresh temporary directory per call).
func extractTar(fs billy.Filesystem, r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: malformed tar stream: %v", plumbing.ErrCorruptObject, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		full := path.Join(dest, hdr.Name)
		if dir := path.Dir(full); dir != "." {
			if err := fs.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		f, err := fs.Create(full)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
}

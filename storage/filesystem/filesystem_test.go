package filesystem

import (
	"io"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"

	"github.com/go-vcs/gitcore/plumbing"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s := NewStorage(memfs.New())
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s
}

func putBlob(t *testing.T, s *Storage, content string) plumbing.Hash {
	t.Helper()
	o := s.NewEncodedObject()
	o.SetType(plumbing.BlobObject)
	w, err := o.Writer()
	if err != nil {
		t.Fatalf("Writer: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	h, err := s.SetEncodedObject(o)
	if err != nil {
		t.Fatalf("SetEncodedObject: %v", err)
	}
	return h
}

func readAll(t *testing.T, o plumbing.EncodedObject) string {
	t.Helper()
	r, err := o.Reader()
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return string(b)
}

func TestLooseObjectRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	h := putBlob(t, s, "hi\n")

	if err := s.HasEncodedObject(h); err != nil {
		t.Fatalf("HasEncodedObject: %v", err)
	}

	o, err := s.EncodedObject(plumbing.BlobObject, h)
	if err != nil {
		t.Fatalf("EncodedObject: %v", err)
	}
	if got := readAll(t, o); got != "hi\n" {
		t.Fatalf("content = %q, want %q", got, "hi\n")
	}

	// Wrong type filter should miss.
	if _, err := s.EncodedObject(plumbing.TreeObject, h); err == nil {
		t.Fatal("expected type mismatch to miss")
	}
}

func TestEncodedObjectNotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.EncodedObject(plumbing.AnyObject, plumbing.NewHash("ffffffffffffffffffffffffffffffffffffff"))
	if err != plumbing.ErrObjectNotFound {
		t.Fatalf("err = %v, want ErrObjectNotFound", err)
	}
}

func TestReferenceLifecycle(t *testing.T) {
	s := newTestStorage(t)
	name := plumbing.NewBranchReferenceName("feature")
	h := plumbing.NewHash("45b983be36b73c0788dc9cbcb76cbb80fc7bb057")

	if err := s.SetReference(plumbing.NewHashReference(name, h)); err != nil {
		t.Fatalf("SetReference: %v", err)
	}
	got, err := s.Reference(name)
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}
	if got.Hash() != h {
		t.Fatalf("Hash = %s, want %s", got.Hash(), h)
	}

	if err := s.RemoveReference(name); err != nil {
		t.Fatalf("RemoveReference: %v", err)
	}
	if _, err := s.Reference(name); err != plumbing.ErrReferenceNotFound {
		t.Fatalf("err after remove = %v", err)
	}
}

func TestCheckAndSetReferenceRejectsStaleOld(t *testing.T) {
	s := newTestStorage(t)
	name := plumbing.NewBranchReferenceName("main")
	h1 := plumbing.NewHash("45b983be36b73c0788dc9cbcb76cbb80fc7bb057")
	h2 := plumbing.NewHash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")

	if err := s.CheckAndSetReference(plumbing.NewHashReference(name, h1), nil); err != nil {
		t.Fatalf("initial CheckAndSetReference: %v", err)
	}
	if err := s.CheckAndSetReference(plumbing.NewHashReference(name, h2), plumbing.NewHashReference(name, h2)); err == nil {
		t.Fatal("expected stale-old rejection")
	}
	if err := s.CheckAndSetReference(plumbing.NewHashReference(name, h2), plumbing.NewHashReference(name, h1)); err != nil {
		t.Fatalf("correct-old CheckAndSetReference: %v", err)
	}
}

func TestRepackMovesLooseObjectsIntoPack(t *testing.T) {
	s := newTestStorage(t)
	h1 := putBlob(t, s, "alpha\n")
	h2 := putBlob(t, s, "alphabet\n")

	if err := s.Repack([]plumbing.Hash{h1, h2}); err != nil {
		t.Fatalf("Repack: %v", err)
	}

	if s.dir.HasObject(h1) {
		t.Fatal("loose copy of h1 survived Repack")
	}

	o, err := s.EncodedObject(plumbing.AnyObject, h1)
	if err != nil {
		t.Fatalf("EncodedObject after repack: %v", err)
	}
	if got := readAll(t, o); got != "alpha\n" {
		t.Fatalf("content = %q", got)
	}

	o2, err := s.EncodedObject(plumbing.AnyObject, h2)
	if err != nil {
		t.Fatalf("EncodedObject after repack: %v", err)
	}
	if got := readAll(t, o2); got != "alphabet\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestIterEncodedObjectsDedupesLooseAndPacked(t *testing.T) {
	s := newTestStorage(t)
	h1 := putBlob(t, s, "one\n")
	h2 := putBlob(t, s, "two\n")
	if err := s.Repack([]plumbing.Hash{h1}); err != nil {
		t.Fatalf("Repack: %v", err)
	}

	it, err := s.IterEncodedObjects(plumbing.BlobObject)
	if err != nil {
		t.Fatalf("IterEncodedObjects: %v", err)
	}
	var count int
	seen := map[plumbing.Hash]bool{}
	err = it.ForEach(func(o plumbing.EncodedObject) error {
		count++
		seen[o.Hash()] = true
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if !seen[h1] || !seen[h2] {
		t.Fatalf("missing objects: seen=%v", seen)
	}
}

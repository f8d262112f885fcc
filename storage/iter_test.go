package storage

import (
	"io"
	"testing"

	"github.com/go-vcs/gitcore/plumbing"
)

func TestObjectSliceIter(t *testing.T) {
	a := plumbing.NewMemoryObject()
	b := plumbing.NewMemoryObject()
	it := NewObjectSliceIter([]plumbing.EncodedObject{a, b})

	got, err := it.Next()
	if err != nil || got != a {
		t.Fatalf("Next() = %v, %v", got, err)
	}
	got, err = it.Next()
	if err != nil || got != b {
		t.Fatalf("Next() = %v, %v", got, err)
	}
	if _, err := it.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReferenceSliceIterForEach(t *testing.T) {
	refs := []*plumbing.Reference{
		plumbing.NewHashReference("refs/heads/a", plumbing.ZeroHash),
		plumbing.NewHashReference("refs/heads/b", plumbing.ZeroHash),
	}
	it := NewReferenceSliceIter(refs)
	var count int
	err := it.ForEach(func(r *plumbing.Reference) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

package index

import (
	"bytes"
	"testing"
	"time"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
)

func TestAddReplacesExistingEntryForSamePath(t *testing.T) {
	idx := NewIndex()
	idx.Add(&Entry{Name: "a.txt", Hash: plumbing.NewHash("45b983be36b73c0788dc9cbcb76cbb80fc7bb057")})
	idx.Add(&Entry{Name: "a.txt", Hash: plumbing.NewHash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")})

	if len(idx.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(idx.Entries))
	}
	e, err := idx.Entry("a.txt")
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if e.Hash.String() != "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391" {
		t.Fatalf("Hash = %s, want replacement", e.Hash)
	}
}

func TestRemoveAndRemovePrefix(t *testing.T) {
	idx := NewIndex()
	idx.Add(&Entry{Name: "a.txt"})
	idx.Add(&Entry{Name: "dir/b.txt"})
	idx.Add(&Entry{Name: "dir/c.txt"})
	idx.Add(&Entry{Name: "dirsibling.txt"})

	if _, err := idx.Remove("a.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := idx.Entry("a.txt"); err != ErrEntryNotFound {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}

	removed := idx.RemovePrefix("dir")
	if len(removed) != 2 {
		t.Fatalf("len(removed) = %d, want 2", len(removed))
	}
	if _, err := idx.Entry("dirsibling.txt"); err != nil {
		t.Fatal("RemovePrefix(\"dir\") incorrectly removed \"dirsibling.txt\"")
	}
}

func TestPathsSorted(t *testing.T) {
	idx := NewIndex()
	idx.Add(&Entry{Name: "zeta.txt"})
	idx.Add(&Entry{Name: "alpha.txt"})

	paths := idx.Paths()
	if paths[0] != "alpha.txt" || paths[1] != "zeta.txt" {
		t.Fatalf("Paths() = %v, want sorted", paths)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	idx := NewIndex()
	idx.Add(&Entry{
		Name:       "b.txt",
		Mode:       object.Regular,
		Hash:       plumbing.NewHash("45b983be36b73c0788dc9cbcb76cbb80fc7bb057"),
		ModifiedAt: time.Unix(1700000000, 0).UTC(),
		Size:       3,
	})
	idx.Add(&Entry{
		Name: "a.txt",
		Mode: object.Regular,
		Hash: plumbing.NewHash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"),
	})

	var buf bytes.Buffer
	if err := Save(&buf, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(got.Entries))
	}
	// Load preserves Save's sorted order.
	if got.Entries[0].Name != "a.txt" || got.Entries[1].Name != "b.txt" {
		t.Fatalf("unexpected order: %s, %s", got.Entries[0].Name, got.Entries[1].Name)
	}
	if got.Entries[1].Size != 3 {
		t.Fatalf("Size = %d, want 3", got.Entries[1].Size)
	}
}

func TestSaveIsDeterministic(t *testing.T) {
	build := func() *Index {
		idx := NewIndex()
		idx.Add(&Entry{Name: "z.txt", Hash: plumbing.NewHash("45b983be36b73c0788dc9cbcb76cbb80fc7bb057")})
		idx.Add(&Entry{Name: "a.txt", Hash: plumbing.NewHash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")})
		return idx
	}

	var buf1, buf2 bytes.Buffer
	if err := Save(&buf1, build()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Save(&buf2, build()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if buf1.String() != buf2.String() {
		t.Fatal("Save produced different bytes for logically identical indexes")
	}
}

func TestLoadRejectsCorruptTrailer(t *testing.T) {
	idx := NewIndex()
	idx.Add(&Entry{Name: "a.txt"})

	var buf bytes.Buffer
	if err := Save(&buf, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	corrupt := append([]byte(nil), buf.Bytes()...)
	corrupt[len(corrupt)-1] ^= 0xff

	if _, err := Load(bytes.NewReader(corrupt)); err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}

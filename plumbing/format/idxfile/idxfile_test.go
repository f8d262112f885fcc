package idxfile

import (
	"bytes"
	"testing"

	"github.com/go-vcs/gitcore/plumbing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	entries := []Entry{
		{Hash: plumbing.NewHash("45b983be36b73c0788dc9cbcb76cbb80fc7bb057"), Offset: 12, CRC32: 0xdeadbeef},
		{Hash: plumbing.NewHash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"), Offset: 512, CRC32: 0x1},
		{Hash: plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904"), Offset: 1 << 32, CRC32: 0x2},
	}
	packHash := plumbing.NewHash("0102030405060708090a0b0c0d0e0f1011121314")

	var buf bytes.Buffer
	if err := Encode(&buf, packHash, entries); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	idx, gotPackHash, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if gotPackHash != packHash {
		t.Fatalf("packHash = %s, want %s", gotPackHash, packHash)
	}
	if idx.Count() != len(entries) {
		t.Fatalf("Count() = %d, want %d", idx.Count(), len(entries))
	}

	for _, e := range entries {
		off, ok := idx.FindOffset(e.Hash)
		if !ok {
			t.Fatalf("FindOffset(%s) not found", e.Hash)
		}
		if off != e.Offset {
			t.Fatalf("FindOffset(%s) = %d, want %d", e.Hash, off, e.Offset)
		}
	}

	if idx.Contains(plumbing.NewHash("ffffffffffffffffffffffffffffffffffffff")) {
		t.Fatal("Contains reported an absent hash as present")
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	buf := bytes.Repeat([]byte{0}, 40)
	if _, _, err := Decode(bytes.NewReader(buf)); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestDecodeRejectsCorruptTrailer(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, plumbing.ZeroHash, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	corrupt := buf.Bytes()
	corrupt[len(corrupt)-1] ^= 0xff
	if _, _, err := Decode(bytes.NewReader(corrupt)); err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}

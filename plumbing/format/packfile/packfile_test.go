package packfile

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/go-vcs/gitcore/plumbing"
)

func TestHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, 42); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	count, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if count != 42 {
		t.Fatalf("count = %d, want 42", count)
	}
}

func TestReadHeaderRejectsBadSignature(t *testing.T) {
	buf := bytes.NewBufferString("XXXX\x00\x00\x00\x02\x00\x00\x00\x01")
	if _, err := ReadHeader(buf); err == nil {
		t.Fatal("expected error for bad signature")
	}
}

func TestObjectHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		typ  plumbing.ObjectType
		size int64
	}{
		{plumbing.BlobObject, 0},
		{plumbing.BlobObject, 15},
		{plumbing.TreeObject, 1000},
		{plumbing.CommitObject, 1 << 20},
		{plumbing.OffsetDeltaObject, 123456789},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		if err := WriteObjectHeader(&buf, c.typ, c.size); err != nil {
			t.Fatalf("WriteObjectHeader(%v, %d): %v", c.typ, c.size, err)
		}
		gotType, gotSize, err := ReadObjectHeader(bufio.NewReader(&buf))
		if err != nil {
			t.Fatalf("ReadObjectHeader: %v", err)
		}
		if gotType != c.typ || gotSize != c.size {
			t.Fatalf("got (%v, %d), want (%v, %d)", gotType, gotSize, c.typ, c.size)
		}
	}
}

func TestOffsetDeltaBaseRoundTrip(t *testing.T) {
	for _, distance := range []int64{1, 127, 128, 16383, 16384, 20000000} {
		var buf bytes.Buffer
		if err := WriteOffsetDeltaBase(&buf, distance); err != nil {
			t.Fatalf("WriteOffsetDeltaBase(%d): %v", distance, err)
		}
		got, err := ReadOffsetDeltaBase(bufio.NewReader(&buf))
		if err != nil {
			t.Fatalf("ReadOffsetDeltaBase: %v", err)
		}
		if got != distance {
			t.Fatalf("got %d, want %d", got, distance)
		}
	}
}

func TestDeltaPatchRoundTrip(t *testing.T) {
	base := []byte("the quick brown fox jumps over the lazy dog\n")
	target := []byte("the quick brown fox leaps over the lazy dog and the lazy cat\n")

	delta := Diff(base, target)
	got, err := Patch(base, delta)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if !bytes.Equal(got, target) {
		t.Fatalf("Patch result = %q, want %q", got, target)
	}
}

func TestDeltaPatchIdenticalContent(t *testing.T) {
	base := bytes.Repeat([]byte("abcdefgh"), 100)
	delta := Diff(base, base)
	got, err := Patch(base, delta)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if !bytes.Equal(got, base) {
		t.Fatal("round trip of identical content changed bytes")
	}
	// A highly repetitive, identical target should compress to far less
	// than its raw size via copy instructions.
	if len(delta) >= len(base) {
		t.Fatalf("delta len %d not smaller than base len %d", len(delta), len(base))
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	objs := []ObjectToPack{
		{Hash: plumbing.HashObject(plumbing.BlobObject, []byte("hi\n")), Type: plumbing.BlobObject, Content: []byte("hi\n")},
		{Hash: plumbing.HashObject(plumbing.BlobObject, []byte("hi\nhi\n")), Type: plumbing.BlobObject, Content: []byte("hi\nhi\n")},
	}

	var buf bytes.Buffer
	trailer, entries, err := Encode(&buf, objs)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if trailer.IsZero() {
		t.Fatal("Encode returned zero trailer hash")
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	decoded, err := Decode(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("len(decoded) = %d, want 2", len(decoded))
	}
	for i, d := range decoded {
		if d.Hash != objs[i].Hash {
			t.Fatalf("decoded[%d].Hash = %s, want %s", i, d.Hash, objs[i].Hash)
		}
		if !bytes.Equal(d.Content, objs[i].Content) {
			t.Fatalf("decoded[%d].Content = %q, want %q", i, d.Content, objs[i].Content)
		}
	}
}

func TestDecodeAtMatchesDecode(t *testing.T) {
	objs := []ObjectToPack{
		{Hash: plumbing.HashObject(plumbing.BlobObject, []byte("hi\n")), Type: plumbing.BlobObject, Content: []byte("hi\n")},
		{Hash: plumbing.HashObject(plumbing.BlobObject, []byte("hi\nhi\n")), Type: plumbing.BlobObject, Content: []byte("hi\nhi\n")},
	}

	var buf bytes.Buffer
	_, entries, err := Encode(&buf, objs)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	findOffset := func(h plumbing.Hash) (int64, bool) {
		for _, e := range entries {
			if e.Hash == h {
				return e.Offset, true
			}
		}
		return 0, false
	}

	r := bytes.NewReader(buf.Bytes())
	for _, e := range entries {
		d, err := DecodeAt(r, e.Offset, findOffset, nil)
		if err != nil {
			t.Fatalf("DecodeAt(%d): %v", e.Offset, err)
		}
		if d.Hash != e.Hash {
			t.Fatalf("DecodeAt(%d).Hash = %s, want %s", e.Offset, d.Hash, e.Hash)
		}
	}
}

package objfile

import (
	"bytes"
	"testing"

	"github.com/go-vcs/gitcore/plumbing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hi\n")
	if err := Encode(&buf, plumbing.BlobObject, payload); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	typ, got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if typ != plumbing.BlobObject {
		t.Fatalf("type = %v, want blob", typ)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload = %q, want %q", got, payload)
	}
}

func TestDecodeTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, plumbing.BlobObject, []byte("hi\n")); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	mangled := buf.Bytes()[:len(buf.Bytes())-2]
	if _, _, err := DecodeBytes(mangled); err == nil {
		t.Fatalf("expected error decoding truncated stream")
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, plumbing.TreeObject, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	typ, got, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if typ != plumbing.TreeObject || len(got) != 0 {
		t.Fatalf("got type=%v payload=%q", typ, got)
	}
}

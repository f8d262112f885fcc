package plumbing

import (
	"io"
	"testing"
)

func TestMemoryObjectRoundTrip(t *testing.T) {
	o := NewMemoryObject()
	o.SetType(BlobObject)

	w, err := o.Writer()
	if err != nil {
		t.Fatalf("Writer: %v", err)
	}
	if _, err := w.Write([]byte("hi\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got, want := o.Size(), int64(3); got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}

	r, err := o.Reader()
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hi\n" {
		t.Fatalf("content = %q, want %q", got, "hi\n")
	}

	want := NewHash("45b983be36b73c0788dc9cbcb76cbb80fc7bb057")
	if o.Hash() != want {
		t.Fatalf("Hash() = %s, want %s", o.Hash(), want)
	}
}

func TestMemoryObjectSetContent(t *testing.T) {
	o := NewMemoryObject()
	o.SetType(BlobObject)
	o.SetContent([]byte("hi\n"))

	want := NewHash("45b983be36b73c0788dc9cbcb76cbb80fc7bb057")
	if o.Hash() != want {
		t.Fatalf("Hash() = %s, want %s", o.Hash(), want)
	}
}

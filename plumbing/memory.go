package plumbing

import (
	"bytes"
	"io"
)

// EncodedObject is a generic, storage-agnostic representation of any of
// the four object kinds. Both the loose and pack stores read and write
// through this interface (the "capability" C4 holds an ordered list of).
type EncodedObject interface {
	Hash() Hash
	Type() ObjectType
	SetType(ObjectType)
	Size() int64
	SetSize(int64)
	Reader() (io.ReadCloser, error)
	Writer() (io.WriteCloser, error)
}

// DeltaObject is an EncodedObject still expressed as edit instructions
// against a base object.
type DeltaObject interface {
	EncodedObject
	BaseHash() Hash
	ActualHash() Hash
	ActualSize() int64
}

// MemoryObject is an EncodedObject fully materialized in memory. It is
// the concrete type every codec in gitcore produces and consumes.
type MemoryObject struct {
	hash Hash
	t    ObjectType
	sz   int64
	buf  bytes.Buffer
}

// NewMemoryObject returns an empty MemoryObject.
func NewMemoryObject() *MemoryObject { return &MemoryObject{} }

func (o *MemoryObject) Hash() Hash {
	if o.hash.IsZero() {
		o.hash = HashObject(o.t, o.buf.Bytes())
	}
	return o.hash
}

func (o *MemoryObject) Type() ObjectType     { return o.t }
func (o *MemoryObject) SetType(t ObjectType) { o.t = t }
func (o *MemoryObject) Size() int64          { return o.sz }
func (o *MemoryObject) SetSize(s int64)      { o.sz = s }

func (o *MemoryObject) Reader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(o.buf.Bytes())), nil
}

func (o *MemoryObject) Writer() (io.WriteCloser, error) {
	o.buf.Reset()
	o.hash = ZeroHash
	return &memoryObjectWriter{o}, nil
}

// SetContent sets the object's payload in one call and invalidates the
// cached hash.
func (o *MemoryObject) SetContent(p []byte) {
	o.buf.Reset()
	o.buf.Write(p)
	o.sz = int64(len(p))
	o.hash = ZeroHash
}

// Bytes returns the current payload.
func (o *MemoryObject) Bytes() []byte { return o.buf.Bytes() }

type memoryObjectWriter struct{ o *MemoryObject }

func (w *memoryObjectWriter) Write(p []byte) (int, error) {
	n, err := w.o.buf.Write(p)
	w.o.sz = int64(w.o.buf.Len())
	return n, err
}

func (w *memoryObjectWriter) Close() error { return nil }

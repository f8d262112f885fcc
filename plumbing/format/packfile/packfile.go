// Package packfile implements the pack file wire format used to
// transfer and store collections of objects as a single blob: a 12
// byte header, a sequence of framed (optionally delta-compressed)
// entries, and a trailing SHA-1 over everything before it. This
// mirrors the shape of go-git's plumbing/format/packfile package, with
// the entry framing and delta codec pinned directly to spec.md §4.3
// since only this package's test surface, not its teacher source, was
// retrieved.
package packfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-vcs/gitcore/plumbing"
)

// Signature is the 4 byte magic every pack file starts with.
var Signature = []byte{'P', 'A', 'C', 'K'}

// VersionSupported is the only pack version this package reads or
// writes.
const VersionSupported uint32 = 2

// ErrMalformedPack is wrapped by every framing error produced while
// reading a pack.
var ErrMalformedPack = errors.New("malformed pack file")

// ErrInvalidVersion is returned when a pack declares a version other
// than VersionSupported.
var ErrInvalidVersion = errors.New("invalid pack version")

// WriteHeader writes the 12 byte pack header: "PACK", version 2, and
// the number of objects the pack contains.
func WriteHeader(w io.Writer, count uint32) error {
	if _, err := w.Write(Signature); err != nil {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[0:4], VersionSupported)
	binary.BigEndian.PutUint32(buf[4:8], count)
	_, err := w.Write(buf[:])
	return err
}

// ReadHeader reads and validates the pack header, returning the object
// count it declares.
func ReadHeader(r io.Reader) (count uint32, err error) {
	var buf [12]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedPack, err)
	}
	if string(buf[0:4]) != string(Signature) {
		return 0, fmt.Errorf("%w: bad signature %q", ErrMalformedPack, buf[0:4])
	}
	version := binary.BigEndian.Uint32(buf[4:8])
	if version != VersionSupported {
		return 0, fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}
	return binary.BigEndian.Uint32(buf[8:12]), nil
}

// entryTypeBits maps the plumbing.ObjectType values legal inside a pack
// entry header to their 3-bit tag.
func entryTypeBits(t plumbing.ObjectType) (byte, bool) {
	switch t {
	case plumbing.CommitObject, plumbing.TreeObject, plumbing.BlobObject, plumbing.TagObject,
		plumbing.OffsetDeltaObject, plumbing.RefDeltaObject:
		return byte(t), true
	default:
		return 0, false
	}
}

func bitsToType(b byte) (plumbing.ObjectType, bool) {
	t := plumbing.ObjectType(b)
	switch t {
	case plumbing.CommitObject, plumbing.TreeObject, plumbing.BlobObject, plumbing.TagObject,
		plumbing.OffsetDeltaObject, plumbing.RefDeltaObject:
		return t, true
	default:
		return 0, false
	}
}

// WriteObjectHeader writes the variable-length (type, size) header that
// precedes every pack entry's compressed payload: the low 4 bits of the
// first byte hold the low bits of size, bits 4-6 hold the type tag, and
// the high bit of every byte (including continuations) signals whether
// another size byte follows, 7 bits at a time afterwards.
func WriteObjectHeader(w io.Writer, t plumbing.ObjectType, size int64) error {
	bits, ok := entryTypeBits(t)
	if !ok {
		return fmt.Errorf("%w: cannot store type %s in a pack entry header", ErrMalformedPack, t)
	}

	first := (bits << 4) & 0x70
	first |= byte(size) & 0x0f
	size >>= 4

	if size == 0 {
		_, err := w.Write([]byte{first})
		return err
	}
	first |= 0x80
	if _, err := w.Write([]byte{first}); err != nil {
		return err
	}

	for {
		b := byte(size) & 0x7f
		size >>= 7
		if size != 0 {
			b |= 0x80
		}
		if _, err := w.Write([]byte{b}); err != nil {
			return err
		}
		if size == 0 {
			return nil
		}
	}
}

// ReadObjectHeader reads the header WriteObjectHeader produces.
func ReadObjectHeader(r io.ByteReader) (t plumbing.ObjectType, size int64, err error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	t, ok := bitsToType((first >> 4) & 0x07)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown entry type tag %d", ErrMalformedPack, (first>>4)&0x07)
	}

	size = int64(first & 0x0f)
	shift := uint(4)
	for first&0x80 != 0 {
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, err
		}
		size |= int64(b&0x7f) << shift
		shift += 7
		first = b
	}
	return t, size, nil
}

// WriteOffsetDeltaBase writes the base-offset field of an offset-delta
// entry: distance (in bytes, always positive) back from this entry's
// own header to its base's header, encoded 7 bits at a time with an
// implicit "+1 per continuation byte" bias so every encoding is unique
// (git's "offset delta" varint, distinct from the plain varint used for
// delta sizes).
func WriteOffsetDeltaBase(w io.Writer, distance int64) error {
	var stack []byte
	stack = append(stack, byte(distance&0x7f))
	distance >>= 7
	for distance != 0 {
		distance--
		stack = append(stack, byte(distance&0x7f)|0x80)
		distance >>= 7
	}
	// stack was built least-significant-byte first; emit most significant
	// first, as git does.
	for i := len(stack) - 1; i >= 0; i-- {
		if _, err := w.Write([]byte{stack[i]}); err != nil {
			return err
		}
	}
	return nil
}

// ReadOffsetDeltaBase reads the field WriteOffsetDeltaBase produces.
func ReadOffsetDeltaBase(r io.ByteReader) (distance int64, err error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	distance = int64(b & 0x7f)
	for b&0x80 != 0 {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		distance++
		distance = (distance << 7) | int64(b&0x7f)
	}
	return distance, nil
}

// newByteReader adapts an io.Reader lacking ReadByte.
func newByteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

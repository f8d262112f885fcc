// Package objfile implements the on-disk encoding of a single loose
// object: a framed object ("type SP length NUL payload") deflated with
// zlib. It has no knowledge of where that byte stream lives on disk;
// that is the loose store's job (storage/filesystem).
package objfile

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strconv"

	"github.com/go-vcs/gitcore/plumbing"
)

// Encode deflates the framed representation of payload as type t and
// writes it to w.
func Encode(w io.Writer, t plumbing.ObjectType, payload []byte) error {
	zw := zlib.NewWriter(w)
	header := t.String() + " " + strconv.Itoa(len(payload)) + "\x00"
	if _, err := zw.Write([]byte(header)); err != nil {
		return err
	}
	if _, err := zw.Write(payload); err != nil {
		return err
	}
	return zw.Close()
}

// Decode inflates r and parses its framed header, returning the object
// type and payload. It returns plumbing.ErrCorruptObject if the stream
// fails to inflate, the header is malformed, or the declared length
// does not match the payload actually read.
func Decode(r io.Reader) (plumbing.ObjectType, []byte, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("%w: %v", plumbing.ErrCorruptObject, err)
	}
	defer zr.Close()

	br := bufio.NewReader(zr)

	typeField, err := br.ReadString(' ')
	if err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("%w: reading type: %v", plumbing.ErrCorruptObject, err)
	}
	typeField = typeField[:len(typeField)-1]

	lenField, err := br.ReadString(0)
	if err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("%w: reading length: %v", plumbing.ErrCorruptObject, err)
	}
	lenField = lenField[:len(lenField)-1]

	size, err := strconv.Atoi(lenField)
	if err != nil || size < 0 {
		return plumbing.InvalidObject, nil, fmt.Errorf("%w: invalid length %q", plumbing.ErrCorruptObject, lenField)
	}

	t, err := plumbing.ParseObjectType(typeField)
	if err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("%w: unknown type %q", plumbing.ErrCorruptObject, typeField)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(br, payload); err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("%w: short payload: %v", plumbing.ErrCorruptObject, err)
	}

	// The header promised exactly size bytes; confirm there is nothing
	// left over, which would mean the length field understated the
	// payload, and that the stream ends cleanly (a truncated stream or a
	// failed zlib checksum surfaces on this read).
	var extra [1]byte
	n, err := br.Read(extra[:])
	if n != 0 {
		return plumbing.InvalidObject, nil, fmt.Errorf("%w: length mismatch, trailing bytes present", plumbing.ErrCorruptObject)
	}
	if err != nil && err != io.EOF {
		return plumbing.InvalidObject, nil, fmt.Errorf("%w: %v", plumbing.ErrCorruptObject, err)
	}

	return t, payload, nil
}

// DecodeBytes is a convenience wrapper around Decode for in-memory
// buffers.
func DecodeBytes(b []byte) (plumbing.ObjectType, []byte, error) {
	return Decode(bytes.NewReader(b))
}

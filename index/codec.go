package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/hash"
	"github.com/go-vcs/gitcore/plumbing/object"
)

// magic identifies gitcore's private index encoding; unrelated to
// git's own "DIRC" index signature.
var magic = [4]byte{'G', 'C', 'I', 'X'}

const formatVersion uint32 = 1

// ErrMalformedIndex is wrapped by every decode error.
var ErrMalformedIndex = fmt.Errorf("malformed index")

// Save writes idx in gitcore's private binary format: a small header,
// each entry in path-sorted order, and a trailing SHA-1 over everything
// before it, the same integrity convention plumbing/format/packfile and
// plumbing/format/idxfile use. Saving the same logical index always
// produces byte-identical output.
func Save(w io.Writer, idx *Index) error {
	h := hash.New()
	mw := io.MultiWriter(w, h)

	if _, err := mw.Write(magic[:]); err != nil {
		return err
	}
	if err := writeUint32(mw, formatVersion); err != nil {
		return err
	}

	entries := idx.sorted()
	if err := writeUint32(mw, uint32(len(entries))); err != nil {
		return err
	}

	for _, e := range entries {
		if err := writeEntry(mw, e); err != nil {
			return err
		}
	}

	_, err := w.Write(h.Sum(nil))
	return err
}

func writeEntry(w io.Writer, e *Entry) error {
	nameBytes := []byte(e.Name)
	if err := writeUint32(w, uint32(len(nameBytes))); err != nil {
		return err
	}
	if _, err := w.Write(nameBytes); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(e.Mode)); err != nil {
		return err
	}
	if _, err := w.Write(e.Hash.Bytes()); err != nil {
		return err
	}
	if err := writeInt64(w, e.ModifiedAt.UnixNano()); err != nil {
		return err
	}
	return writeInt64(w, e.Size)
}

// Load parses the format Save produces.
func Load(r io.Reader) (*Index, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	if len(all) < hash.Size {
		return nil, fmt.Errorf("%w: too short", ErrMalformedIndex)
	}
	body, trailerWant := all[:len(all)-hash.Size], all[len(all)-hash.Size:]

	h := hash.New()
	h.Write(body)
	if !bytes.Equal(h.Sum(nil), trailerWant) {
		return nil, fmt.Errorf("%w: trailer checksum mismatch", ErrMalformedIndex)
	}

	br := bufio.NewReader(bytes.NewReader(body))

	var got [4]byte
	if _, err := io.ReadFull(br, got[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	if got != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedIndex)
	}
	version, err := readUint32(br)
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedIndex, version)
	}

	count, err := readUint32(br)
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, count)
	for i := range entries {
		e, err := readEntry(br)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries[i] = e
	}

	return &Index{Entries: entries}, nil
}

func readEntry(r *bufio.Reader) (*Entry, error) {
	nameLen, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}

	modeRaw, err := readUint32(r)
	if err != nil {
		return nil, err
	}

	var rawHash [hash.Size]byte
	if _, err := io.ReadFull(r, rawHash[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	h, _ := plumbing.FromBytes(rawHash[:])

	modNano, err := readInt64(r)
	if err != nil {
		return nil, err
	}
	size, err := readInt64(r)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Name:       string(name),
		Mode:       object.FileMode(modeRaw),
		Hash:       h,
		ModifiedAt: time.Unix(0, modNano).UTC(),
		Size:       size,
	}, nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func writeInt64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func readInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

package packfile

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/go-vcs/gitcore/plumbing"
	gchash "github.com/go-vcs/gitcore/plumbing/hash"
)

// ObjectToPack is a single object queued for writing into a pack,
// in the order the caller wants it stored.
type ObjectToPack struct {
	Hash    plumbing.Hash
	Type    plumbing.ObjectType
	Content []byte
}

// Entry describes where one object ended up inside an encoded pack,
// the information the idxfile package needs to build the companion
// index.
type Entry struct {
	Hash   plumbing.Hash
	Offset int64
	CRC32  uint32
}

// deltaWindowSize bounds how many of the most recent same-type objects
// are considered as a delta base for the next one: a sliding window
// rather than an all-pairs search, trading ratio for linear-ish encode
// time (spec.md §4.3).
const deltaWindowSize = 10

type windowEntry struct {
	offset  int64
	content []byte
}

// Encode writes objects into w as a single pack, choosing an
// offset-delta base from a bounded window of preceding same-type
// objects whenever that shrinks the entry, and returns the pack's own
// hash (the trailer) plus the offset/CRC32 of each object written, in
// the same order as objects.
func Encode(w io.Writer, objects []ObjectToPack) (plumbing.Hash, []Entry, error) {
	h := gchash.New()
	cw := &countingHashWriter{w: io.MultiWriter(w, h)}

	if err := WriteHeader(cw, uint32(len(objects))); err != nil {
		return plumbing.ZeroHash, nil, err
	}

	windows := map[plumbing.ObjectType][]windowEntry{}
	entries := make([]Entry, 0, len(objects))

	for _, obj := range objects {
		offset := cw.n
		payload := obj.Content
		entryType := obj.Type
		var baseDistance int64 = -1

		for _, cand := range windows[obj.Type] {
			if len(cand.content) >= len(obj.Content) {
				continue
			}
			d := Diff(cand.content, obj.Content)
			if len(d) < len(payload) {
				payload = d
				baseDistance = offset - cand.offset
			}
		}

		var entryBuf bytes.Buffer
		if baseDistance >= 0 {
			if err := WriteObjectHeader(&entryBuf, plumbing.OffsetDeltaObject, int64(len(payload))); err != nil {
				return plumbing.ZeroHash, nil, err
			}
			if err := WriteOffsetDeltaBase(&entryBuf, baseDistance); err != nil {
				return plumbing.ZeroHash, nil, err
			}
		} else {
			if err := WriteObjectHeader(&entryBuf, entryType, int64(len(obj.Content))); err != nil {
				return plumbing.ZeroHash, nil, err
			}
			payload = obj.Content
		}

		zw := zlib.NewWriter(&entryBuf)
		if _, err := zw.Write(payload); err != nil {
			return plumbing.ZeroHash, nil, err
		}
		if err := zw.Close(); err != nil {
			return plumbing.ZeroHash, nil, err
		}

		crc := crc32Of(entryBuf.Bytes())
		if _, err := cw.Write(entryBuf.Bytes()); err != nil {
			return plumbing.ZeroHash, nil, err
		}

		entries = append(entries, Entry{Hash: obj.Hash, Offset: offset, CRC32: crc})

		win := windows[obj.Type]
		win = append(win, windowEntry{offset: offset, content: obj.Content})
		if len(win) > deltaWindowSize {
			win = win[len(win)-deltaWindowSize:]
		}
		windows[obj.Type] = win
	}

	sum := h.Sum(nil)
	trailer, ok := plumbing.FromBytes(sum)
	if !ok {
		return plumbing.ZeroHash, nil, fmt.Errorf("%w: unexpected trailer hash length", ErrMalformedPack)
	}
	if _, err := w.Write(sum); err != nil {
		return plumbing.ZeroHash, nil, err
	}
	return trailer, entries, nil
}

type countingHashWriter struct {
	w io.Writer
	n int64
}

func (c *countingHashWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func crc32Of(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

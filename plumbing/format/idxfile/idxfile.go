// Package idxfile implements the pack index (v2) format: a per-pack
// side file that lets readers binary-search a pack's object hashes
// without scanning the pack itself, sized by a 256-way fanout table
// over the first hash byte. Mirrors go-git's plumbing/format/idxfile
// package; like packfile, only this package's behavioral surface was
// retrieved from the teacher, so the wire layout is pinned directly to
// spec.md §4.3.
package idxfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/hash"
)

// Magic is the 4 byte header every v2 index starts with, followed by
// the version.
var Magic = []byte{0xff, 0x74, 0x4f, 0x63}

// Version is the only index format version this package produces or
// accepts.
const Version uint32 = 2

// offsetOverflowFlag marks a 32-bit offset table entry as an index
// into the 64-bit overflow table rather than a literal offset.
const offsetOverflowFlag = 0x80000000

// ErrMalformedIndex is wrapped by every framing error produced while
// reading an index.
var ErrMalformedIndex = fmt.Errorf("malformed pack index")

// Entry is one object's record inside an index.
type Entry struct {
	Hash   plumbing.Hash
	Offset int64
	CRC32  uint32
}

// Index is a fully decoded pack index, ready for lookups.
type Index struct {
	entries []Entry
	byHash  map[plumbing.Hash]int
}

// New builds an Index from entries, sorting them by hash as the wire
// format requires.
func New(entries []Entry) *Index {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Hash.Compare(sorted[j].Hash.Bytes()) < 0
	})
	idx := &Index{entries: sorted, byHash: make(map[plumbing.Hash]int, len(sorted))}
	for i, e := range sorted {
		idx.byHash[e.Hash] = i
	}
	return idx
}

// Entries returns every record, sorted by hash.
func (idx *Index) Entries() []Entry { return idx.entries }

// FindOffset returns the pack offset of h, if present.
func (idx *Index) FindOffset(h plumbing.Hash) (int64, bool) {
	i, ok := idx.byHash[h]
	if !ok {
		return 0, false
	}
	return idx.entries[i].Offset, true
}

// Contains reports whether h is recorded in the index.
func (idx *Index) Contains(h plumbing.Hash) bool {
	_, ok := idx.byHash[h]
	return ok
}

// Count returns the number of objects indexed.
func (idx *Index) Count() int { return len(idx.entries) }

// Encode writes idx in pack index v2 format: magic, version, a 256
// entry fanout table (cumulative counts by first hash byte), the
// sorted hash table, the CRC32 table, the offset table (with 64-bit
// overflow entries appended when an offset does not fit in 31 bits),
// and finally the pack's own trailer hash followed by a hash of
// everything written so far.
func Encode(w io.Writer, packHash plumbing.Hash, entries []Entry) error {
	sorted := New(entries).entries

	h := hash.New()
	mw := io.MultiWriter(w, h)

	if _, err := mw.Write(Magic); err != nil {
		return err
	}
	if err := writeUint32(mw, Version); err != nil {
		return err
	}

	var fanout [256]uint32
	for _, e := range sorted {
		fanout[e.Hash.Bytes()[0]]++
	}
	var cumulative uint32
	for i := range fanout {
		cumulative += fanout[i]
		fanout[i] = cumulative
	}
	for _, v := range fanout {
		if err := writeUint32(mw, v); err != nil {
			return err
		}
	}

	for _, e := range sorted {
		if _, err := mw.Write(e.Hash.Bytes()); err != nil {
			return err
		}
	}
	for _, e := range sorted {
		if err := writeUint32(mw, e.CRC32); err != nil {
			return err
		}
	}

	var overflow []int64
	for _, e := range sorted {
		if e.Offset > 0x7fffffff {
			overflow = append(overflow, e.Offset)
			if err := writeUint32(mw, offsetOverflowFlag|uint32(len(overflow)-1)); err != nil {
				return err
			}
			continue
		}
		if err := writeUint32(mw, uint32(e.Offset)); err != nil {
			return err
		}
	}
	for _, off := range overflow {
		if err := writeUint64(mw, uint64(off)); err != nil {
			return err
		}
	}

	if _, err := mw.Write(packHash.Bytes()); err != nil {
		return err
	}
	sum := h.Sum(nil)
	_, err := w.Write(sum)
	return err
}

// Decode parses a pack index v2 stream.
func Decode(r io.Reader) (*Index, plumbing.Hash, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	if len(all) < hash.Size {
		return nil, plumbing.ZeroHash, fmt.Errorf("%w: too short", ErrMalformedIndex)
	}
	body, trailerWant := all[:len(all)-hash.Size], all[len(all)-hash.Size:]

	h := hash.New()
	h.Write(body)
	if !bytes.Equal(h.Sum(nil), trailerWant) {
		return nil, plumbing.ZeroHash, fmt.Errorf("%w: trailer checksum mismatch", ErrMalformedIndex)
	}

	br := bufio.NewReader(bytes.NewReader(body))

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	if !bytes.Equal(magic[:], Magic) {
		return nil, plumbing.ZeroHash, fmt.Errorf("%w: bad magic", ErrMalformedIndex)
	}
	version, err := readUint32(br)
	if err != nil {
		return nil, plumbing.ZeroHash, err
	}
	if version != Version {
		return nil, plumbing.ZeroHash, fmt.Errorf("%w: unsupported version %d", ErrMalformedIndex, version)
	}

	var fanout [256]uint32
	for i := range fanout {
		fanout[i], err = readUint32(br)
		if err != nil {
			return nil, plumbing.ZeroHash, err
		}
	}
	count := fanout[255]

	hashes := make([]plumbing.Hash, count)
	for i := range hashes {
		var raw [hash.Size]byte
		if _, err := io.ReadFull(br, raw[:]); err != nil {
			return nil, plumbing.ZeroHash, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
		}
		hashes[i], _ = plumbing.FromBytes(raw[:])
	}

	crcs := make([]uint32, count)
	for i := range crcs {
		if crcs[i], err = readUint32(br); err != nil {
			return nil, plumbing.ZeroHash, err
		}
	}

	rawOffsets := make([]uint32, count)
	for i := range rawOffsets {
		if rawOffsets[i], err = readUint32(br); err != nil {
			return nil, plumbing.ZeroHash, err
		}
	}

	overflowCount := 0
	for _, o := range rawOffsets {
		if o&offsetOverflowFlag != 0 {
			overflowCount++
		}
	}
	overflow := make([]int64, overflowCount)
	for i := range overflow {
		v, err := readUint64(br)
		if err != nil {
			return nil, plumbing.ZeroHash, err
		}
		overflow[i] = int64(v)
	}

	entries := make([]Entry, count)
	for i := range entries {
		offset := int64(rawOffsets[i])
		if rawOffsets[i]&offsetOverflowFlag != 0 {
			offset = overflow[rawOffsets[i]&^offsetOverflowFlag]
		}
		entries[i] = Entry{Hash: hashes[i], Offset: offset, CRC32: crcs[i]}
	}

	var packHashRaw [hash.Size]byte
	if _, err := io.ReadFull(br, packHashRaw[:]); err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	packHash, _ := plumbing.FromBytes(packHashRaw[:])

	idx := &Index{entries: entries, byHash: make(map[plumbing.Hash]int, len(entries))}
	for i, e := range entries {
		idx.byHash[e.Hash] = i
	}
	return idx, packHash, nil
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

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

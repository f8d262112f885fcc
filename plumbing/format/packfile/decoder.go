package packfile

import (
	"bufio"
	"compress/zlib"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/go-vcs/gitcore/plumbing"
)

// DecodedObject is one fully resolved (delta-applied) object recovered
// from a pack, along with its location inside the pack.
type DecodedObject struct {
	Hash    plumbing.Hash
	Type    plumbing.ObjectType
	Content []byte
	Offset  int64
	CRC32   uint32
}

// ResolveExternal looks up an object that a ref-delta entry bases
// itself on but that does not appear earlier in the same pack — a
// commit it already has loose, for instance.
type ResolveExternal func(h plumbing.Hash) (plumbing.ObjectType, []byte, error)

// countingByteReader tracks how many bytes have been consumed, so
// entry offsets and base distances can be computed without a seekable
// source.
type countingByteReader struct {
	*bufio.Reader
	n int64
}

func (c *countingByteReader) ReadByte() (byte, error) {
	b, err := c.Reader.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

func (c *countingByteReader) Read(p []byte) (int, error) {
	n, err := c.Reader.Read(p)
	c.n += int64(n)
	return n, err
}

// Decode reads a pack from r, resolving every delta entry (offset or
// ref based) into its final content. resolveExternal may be nil if the
// caller knows the pack is self-contained (e.g. a freshly created
// bundle).
func Decode(r io.Reader, resolveExternal ResolveExternal) ([]DecodedObject, error) {
	count, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	cr := &countingByteReader{Reader: bufio.NewReader(r), n: 12}

	byOffset := map[int64]DecodedObject{}
	byHash := map[plumbing.Hash]DecodedObject{}
	out := make([]DecodedObject, 0, count)

	for i := uint32(0); i < count; i++ {
		offset := cr.n
		t, size, err := ReadObjectHeader(cr)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		var resolved DecodedObject
		switch t {
		case plumbing.OffsetDeltaObject:
			distance, err := ReadOffsetDeltaBase(cr)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			deltaBytes, crc, err := readEntryPayload(cr, size)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			base, ok := byOffset[offset-distance]
			if !ok {
				return nil, fmt.Errorf("%w: entry %d references unknown base offset %d", ErrMalformedPack, i, offset-distance)
			}
			content, err := Patch(base.Content, deltaBytes)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			resolved = DecodedObject{
				Type:    base.Type,
				Content: content,
				Offset:  offset,
				CRC32:   crc,
				Hash:    plumbing.HashObject(base.Type, content),
			}

		case plumbing.RefDeltaObject:
			var raw [20]byte
			if _, err := io.ReadFull(cr, raw[:]); err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			baseHash, _ := plumbing.FromBytes(raw[:])
			deltaBytes, crc, err := readEntryPayload(cr, size)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}

			baseType, baseContent, err := resolveBase(baseHash, byHash, resolveExternal)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			content, err := Patch(baseContent, deltaBytes)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			resolved = DecodedObject{
				Type:    baseType,
				Content: content,
				Offset:  offset,
				CRC32:   crc,
				Hash:    plumbing.HashObject(baseType, content),
			}

		default:
			content, crc, err := readEntryPayload(cr, size)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			if int64(len(content)) != size {
				return nil, fmt.Errorf("%w: entry %d size mismatch", ErrMalformedPack, i)
			}
			resolved = DecodedObject{
				Type:    t,
				Content: content,
				Offset:  offset,
				CRC32:   crc,
				Hash:    plumbing.HashObject(t, content),
			}
		}

		byOffset[offset] = resolved
		byHash[resolved.Hash] = resolved
		out = append(out, resolved)
	}

	return out, nil
}

func resolveBase(h plumbing.Hash, byHash map[plumbing.Hash]DecodedObject, resolveExternal ResolveExternal) (plumbing.ObjectType, []byte, error) {
	if d, ok := byHash[h]; ok {
		return d.Type, d.Content, nil
	}
	if resolveExternal == nil {
		return 0, nil, fmt.Errorf("%w: ref-delta base %s not found", plumbing.ErrObjectNotFound, h)
	}
	return resolveExternal(h)
}

// readEntryPayload inflates a zlib-compressed entry body and returns
// both the decompressed bytes and the CRC32 of the raw compressed
// stream (used by the pack index).
func readEntryPayload(cr *countingByteReader, _ int64) ([]byte, uint32, error) {
	start := cr.n
	crcReader := &crcCountingReader{r: cr.Reader}
	zr, err := zlib.NewReader(crcReader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedPack, err)
	}
	content, err := io.ReadAll(zr)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedPack, err)
	}
	if err := zr.Close(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedPack, err)
	}
	cr.n = start + int64(crcReader.n)
	return content, crcReader.crc.Sum32(), nil
}

// crcCountingReader wraps the pack's byte stream while an entry's
// compressed payload is being inflated, accumulating both a byte count
// (so the outer counting reader's offset stays correct) and a CRC32
// over exactly the compressed bytes consumed.
type crcCountingReader struct {
	r   io.Reader
	n   int
	crc crc32.Hash32
}

func (c *crcCountingReader) Read(p []byte) (int, error) {
	if c.crc == nil {
		c.crc = crc32.NewIEEE()
	}
	n, err := c.r.Read(p)
	if n > 0 {
		c.crc.Write(p[:n])
		c.n += n
	}
	return n, err
}

// ReadByte makes crcCountingReader a flate.Reader, so zlib reads from it
// directly instead of wrapping it in a read-ahead buffer that would
// consume bytes past the end of the entry.
func (c *crcCountingReader) ReadByte() (byte, error) {
	if c.crc == nil {
		c.crc = crc32.NewIEEE()
	}
	b, err := c.r.(io.ByteReader).ReadByte()
	if err == nil {
		c.crc.Write([]byte{b})
		c.n++
	}
	return b, err
}

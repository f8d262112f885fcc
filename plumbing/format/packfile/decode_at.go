package packfile

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-vcs/gitcore/plumbing"
)

// FindOffset resolves a ref-delta base's hash to a byte offset within
// the same pack, mirroring idxfile.Index.FindOffset without this
// package depending on idxfile directly.
type FindOffset func(h plumbing.Hash) (int64, bool)

// DecodeAt decodes exactly the single object whose entry header starts
// at offset within r, resolving at most the delta chain that entry
// sits on top of, never the rest of the pack. findOffset locates a
// ref-delta's base by hash within this same pack (idxfile.Index's job);
// resolveExternal is consulted only when findOffset reports the base
// is not local. r must support Seek, since a delta chain can reach
// backwards to an arbitrary earlier offset.
//
// This exists alongside the sequential Decode because a single
// EncodedObject lookup (storage/filesystem.Storage.readFromPack) has
// no reason to inflate every other object in the pack just to find
// one: Decode's full walk is the right tool for repacking or bundling,
// DecodeAt is the right tool for point lookups.
func DecodeAt(r io.ReadSeeker, offset int64, findOffset FindOffset, resolveExternal ResolveExternal) (DecodedObject, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return DecodedObject{}, err
	}
	cr := &countingByteReader{Reader: bufio.NewReader(r), n: offset}

	t, size, err := ReadObjectHeader(cr)
	if err != nil {
		return DecodedObject{}, fmt.Errorf("offset %d: %w", offset, err)
	}

	switch t {
	case plumbing.OffsetDeltaObject:
		distance, err := ReadOffsetDeltaBase(cr)
		if err != nil {
			return DecodedObject{}, fmt.Errorf("offset %d: %w", offset, err)
		}
		deltaBytes, _, err := readEntryPayload(cr, size)
		if err != nil {
			return DecodedObject{}, fmt.Errorf("offset %d: %w", offset, err)
		}
		base, err := DecodeAt(r, offset-distance, findOffset, resolveExternal)
		if err != nil {
			return DecodedObject{}, fmt.Errorf("offset %d: resolving offset-delta base: %w", offset, err)
		}
		content, err := Patch(base.Content, deltaBytes)
		if err != nil {
			return DecodedObject{}, fmt.Errorf("offset %d: %w", offset, err)
		}
		return DecodedObject{
			Type:    base.Type,
			Content: content,
			Offset:  offset,
			Hash:    plumbing.HashObject(base.Type, content),
		}, nil

	case plumbing.RefDeltaObject:
		var raw [20]byte
		if _, err := io.ReadFull(cr, raw[:]); err != nil {
			return DecodedObject{}, fmt.Errorf("offset %d: %w", offset, err)
		}
		baseHash, _ := plumbing.FromBytes(raw[:])
		deltaBytes, _, err := readEntryPayload(cr, size)
		if err != nil {
			return DecodedObject{}, fmt.Errorf("offset %d: %w", offset, err)
		}

		baseType, baseContent, err := resolveRefBase(r, baseHash, findOffset, resolveExternal)
		if err != nil {
			return DecodedObject{}, fmt.Errorf("offset %d: %w", offset, err)
		}
		content, err := Patch(baseContent, deltaBytes)
		if err != nil {
			return DecodedObject{}, fmt.Errorf("offset %d: %w", offset, err)
		}
		return DecodedObject{
			Type:    baseType,
			Content: content,
			Offset:  offset,
			Hash:    plumbing.HashObject(baseType, content),
		}, nil

	default:
		content, _, err := readEntryPayload(cr, size)
		if err != nil {
			return DecodedObject{}, fmt.Errorf("offset %d: %w", offset, err)
		}
		if int64(len(content)) != size {
			return DecodedObject{}, fmt.Errorf("%w: offset %d size mismatch", ErrMalformedPack, offset)
		}
		return DecodedObject{
			Type:    t,
			Content: content,
			Offset:  offset,
			Hash:    plumbing.HashObject(t, content),
		}, nil
	}
}

func resolveRefBase(r io.ReadSeeker, h plumbing.Hash, findOffset FindOffset, resolveExternal ResolveExternal) (plumbing.ObjectType, []byte, error) {
	if off, ok := findOffset(h); ok {
		base, err := DecodeAt(r, off, findOffset, resolveExternal)
		if err != nil {
			return 0, nil, err
		}
		return base.Type, base.Content, nil
	}
	if resolveExternal == nil {
		return 0, nil, fmt.Errorf("%w: ref-delta base %s not found", plumbing.ErrObjectNotFound, h)
	}
	return resolveExternal(h)
}

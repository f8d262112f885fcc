package object

import (
	"io"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/storage"
)

// Blob is arbitrary file content addressed by its object id. Unlike
// Tree/Commit/Tag, a blob has no internal structure to decode: the
// payload bytes are the content.
type Blob struct {
	Hash plumbing.Hash
	Size int64
}

// NewBlob wraps content in a MemoryObject, computing its hash.
func NewBlob(content []byte) *plumbing.MemoryObject {
	o := plumbing.NewMemoryObject()
	o.SetType(plumbing.BlobObject)
	o.SetContent(content)
	return o
}

// DecodeBlob builds a Blob header from a framed payload. The payload
// itself is returned unchanged by the caller's store read; Blob only
// tracks identity and size.
func DecodeBlob(h plumbing.Hash, payload []byte) *Blob {
	return &Blob{Hash: h, Size: int64(len(payload))}
}

// GetBlobContent reads the raw content of the blob named h from store.
func GetBlobContent(store storage.EncodedObjectStorer, h plumbing.Hash) ([]byte, error) {
	o, err := store.EncodedObject(plumbing.BlobObject, h)
	if err != nil {
		return nil, err
	}
	r, err := o.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

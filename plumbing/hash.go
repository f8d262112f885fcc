package plumbing

import (
	"bytes"
	"encoding/hex"
	"io"
	"sort"
	"strconv"

	"github.com/go-vcs/gitcore/plumbing/hash"
)

// Hash is a 160-bit SHA-1 object identifier.
type Hash [hash.Size]byte

// ZeroHash is the Hash with all bytes zero; it never names a real object.
var ZeroHash Hash

// NewHash parses a hexadecimal string into a Hash. Invalid input yields
// the zero hash, matching go-git's lenient constructor; callers that
// need to distinguish malformed input should use FromHex instead.
func NewHash(s string) Hash {
	h, _ := FromHex(s)
	return h
}

// FromHex parses a 40-character hexadecimal string into a Hash.
func FromHex(s string) (Hash, bool) {
	var h Hash
	if len(s) != hash.HexSize {
		return h, false
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, false
	}
	copy(h[:], raw)
	return h, true
}

// FromBytes builds a Hash from its 20 raw bytes.
func FromBytes(b []byte) (Hash, bool) {
	var h Hash
	if len(b) != hash.Size {
		return h, false
	}
	copy(h[:], b)
	return h, true
}

// IsHash reports whether s is a well-formed 40-character hex hash.
func IsHash(s string) bool {
	if len(s) != hash.HexSize {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// String returns the 40 lowercase hex characters naming h.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == ZeroHash }

// Bytes returns the 20 raw bytes of h.
func (h Hash) Bytes() []byte { return h[:] }

// Compare compares h's bytes against b.
func (h Hash) Compare(b []byte) int { return bytes.Compare(h[:], b) }

// HashesSort sorts a slice of Hash in increasing byte order.
func HashesSort(a []Hash) { sort.Sort(HashSlice(a)) }

// HashSlice implements sort.Interface for increasing-order Hash slices.
type HashSlice []Hash

func (p HashSlice) Len() int           { return len(p) }
func (p HashSlice) Less(i, j int) bool { return p[i].Compare(p[j][:]) < 0 }
func (p HashSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// Hasher computes the SHA-1 object id of a framed object: the bytes
// "TYPE SP LEN NUL" followed by the payload.
type Hasher struct {
	h interface {
		io.Writer
		Sum([]byte) []byte
		Reset()
	}
}

// NewHasher returns a Hasher ready for use after Reset.
func NewHasher() Hasher {
	return Hasher{h: hash.New()}
}

// Reset rewinds the hasher and writes the object header for type t and
// uncompressed payload size size. Write the payload next, then Sum.
func (h Hasher) Reset(t ObjectType, size int64) {
	h.h.Reset()
	h.h.Write(t.Bytes())
	h.h.Write([]byte{' '})
	h.h.Write([]byte(strconv.FormatInt(size, 10)))
	h.h.Write([]byte{0})
}

// Write feeds payload bytes into the running hash.
func (h Hasher) Write(p []byte) (int, error) { return h.h.Write(p) }

// Sum finalizes the hash into a Hash value.
func (h Hasher) Sum() Hash {
	var out Hash
	copy(out[:], h.h.Sum(nil))
	return out
}

// HashObject returns the object id of payload framed as type t, i.e. the
// SHA-1 of "t SP len(payload) NUL payload".
func HashObject(t ObjectType, payload []byte) Hash {
	h := NewHasher()
	h.Reset(t, int64(len(payload)))
	_, _ = h.Write(payload)
	return h.Sum()
}

// FrameObject returns the canonical framed byte sequence for payload as
// type t: "t SP len(payload) NUL payload".
func FrameObject(t ObjectType, payload []byte) []byte {
	header := t.String() + " " + strconv.Itoa(len(payload)) + "\x00"
	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out
}

// Package plumbing implements the core types shared across gitcore: the
// object identifier, the closed set of object kinds, the generic
// encoded-object representation, and references.
package plumbing

import "errors"

var (
	// ErrObjectNotFound is returned when an object is not present in any
	// store consulted.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidType is returned when an object is read back as a kind
	// other than the one the call site expected.
	ErrInvalidType = errors.New("invalid object type")
	// ErrCorruptObject is returned for malformed framing, a header/length
	// mismatch, or a decompression failure.
	ErrCorruptObject = errors.New("corrupt object")
	// ErrInvalidArgument is returned for malformed paths, hashes, ref
	// names or modes.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ObjectType is the closed tagged variant of object kinds gitcore deals
// with. Values 1-4 are the object kinds proper; 6 and 7 are delta
// encodings only ever seen inside a pack file.
type ObjectType int8

const (
	InvalidObject ObjectType = 0
	CommitObject  ObjectType = 1
	TreeObject    ObjectType = 2
	BlobObject    ObjectType = 3
	TagObject     ObjectType = 4

	OffsetDeltaObject ObjectType = 6
	RefDeltaObject    ObjectType = 7

	// AnyObject is used as a wildcard filter: iterate/lookup without
	// restricting by kind.
	AnyObject ObjectType = InvalidObject
)

func (t ObjectType) String() string {
	switch t {
	case CommitObject:
		return "commit"
	case TreeObject:
		return "tree"
	case BlobObject:
		return "blob"
	case TagObject:
		return "tag"
	case OffsetDeltaObject:
		return "ofs-delta"
	case RefDeltaObject:
		return "ref-delta"
	default:
		return "invalid"
	}
}

// Bytes returns the ASCII byte representation of t, as written into the
// framed object header.
func (t ObjectType) Bytes() []byte { return []byte(t.String()) }

// Valid reports whether t is one of the four storable object kinds.
func (t ObjectType) Valid() bool {
	return t >= CommitObject && t <= TagObject
}

// ParseObjectType parses the textual type tag used in framed objects and
// tree/pack headers.
func ParseObjectType(s string) (ObjectType, error) {
	switch s {
	case "commit":
		return CommitObject, nil
	case "tree":
		return TreeObject, nil
	case "blob":
		return BlobObject, nil
	case "tag":
		return TagObject, nil
	case "ofs-delta":
		return OffsetDeltaObject, nil
	case "ref-delta":
		return RefDeltaObject, nil
	default:
		return InvalidObject, ErrInvalidType
	}
}

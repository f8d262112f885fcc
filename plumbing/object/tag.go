package object

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-vcs/gitcore/plumbing"
)

// Tag is the decoded form of an annotated tag object. No facade
// operation in spec.md §6 creates one (only lightweight branch/tag refs
// pointing straight at a commit are in scope), but the object kind is
// part of the closed variant C1 must round-trip, so decode/encode are
// implemented for completeness and exercised by CatFile.
type Tag struct {
	Hash       plumbing.Hash
	TargetHash plumbing.Hash
	TargetType plumbing.ObjectType
	Name       string
	Tagger     Signature
	Message    string
}

// Encode produces the canonical tag payload.
func (t *Tag) Encode() *plumbing.MemoryObject {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", t.TargetHash)
	fmt.Fprintf(&buf, "type %s\n", t.TargetType)
	fmt.Fprintf(&buf, "tag %s\n", t.Name)
	fmt.Fprintf(&buf, "tagger %s\n", t.Tagger)
	buf.WriteByte('\n')
	buf.WriteString(t.Message)

	o := plumbing.NewMemoryObject()
	o.SetType(plumbing.TagObject)
	o.SetContent(buf.Bytes())
	t.Hash = o.Hash()
	return o
}

// DecodeTag parses a framed tag payload.
func DecodeTag(h plumbing.Hash, payload []byte) (*Tag, error) {
	t := &Tag{Hash: h}
	r := bufio.NewReader(bytes.NewReader(payload))

	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: %v", plumbing.ErrCorruptObject, err)
		}
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			break
		}

		field, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: malformed tag header %q", plumbing.ErrCorruptObject, line)
		}
		switch field {
		case "object":
			h, ok := plumbing.FromHex(value)
			if !ok {
				return nil, fmt.Errorf("%w: invalid object hash %q", plumbing.ErrCorruptObject, value)
			}
			t.TargetHash = h
		case "type":
			typ, err := plumbing.ParseObjectType(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", plumbing.ErrCorruptObject, err)
			}
			t.TargetType = typ
		case "tag":
			t.Name = value
		case "tagger":
			if err := t.Tagger.Decode([]byte(value)); err != nil {
				return nil, err
			}
		}
		if err == io.EOF {
			return t, nil
		}
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plumbing.ErrCorruptObject, err)
	}
	t.Message = string(rest)
	return t, nil
}

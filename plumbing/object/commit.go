package object

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/storage"
)

// Commit is the decoded form of a commit object.
type Commit struct {
	Hash         plumbing.Hash
	TreeHash     plumbing.Hash
	ParentHashes []plumbing.Hash
	Author       Signature
	Committer    Signature
	Message      string
}

// NewCommit builds a Commit ready for Encode. parents are stored in the
// order given: for a merge commit, the first parent is the branch
// receiving the merge (spec.md §4.8).
func NewCommit(tree plumbing.Hash, parents []plumbing.Hash, author, committer Signature, message string) *Commit {
	ph := make([]plumbing.Hash, len(parents))
	copy(ph, parents)
	return &Commit{
		TreeHash:     tree,
		ParentHashes: ph,
		Author:       author,
		Committer:    committer,
		Message:      message,
	}
}

// NumParents returns the number of parent commits.
func (c *Commit) NumParents() int { return len(c.ParentHashes) }

// IsMerge reports whether c has two or more parents.
func (c *Commit) IsMerge() bool { return len(c.ParentHashes) >= 2 }

// Encode produces the canonical commit payload and wraps it in a
// MemoryObject, computing its hash.
func (c *Commit) Encode() *plumbing.MemoryObject {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	for _, p := range c.ParentHashes {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)

	o := plumbing.NewMemoryObject()
	o.SetType(plumbing.CommitObject)
	o.SetContent(buf.Bytes())
	c.Hash = o.Hash()
	return o
}

// DecodeCommit parses a framed commit payload.
func DecodeCommit(h plumbing.Hash, payload []byte) (*Commit, error) {
	c := &Commit{Hash: h}
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
			return nil, fmt.Errorf("%w: malformed commit header %q", plumbing.ErrCorruptObject, line)
		}

		switch field {
		case "tree":
			h, ok := plumbing.FromHex(value)
			if !ok {
				return nil, fmt.Errorf("%w: invalid tree hash %q", plumbing.ErrCorruptObject, value)
			}
			c.TreeHash = h
		case "parent":
			h, ok := plumbing.FromHex(value)
			if !ok {
				return nil, fmt.Errorf("%w: invalid parent hash %q", plumbing.ErrCorruptObject, value)
			}
			c.ParentHashes = append(c.ParentHashes, h)
		case "author":
			if err := c.Author.Decode([]byte(value)); err != nil {
				return nil, err
			}
		case "committer":
			if err := c.Committer.Decode([]byte(value)); err != nil {
				return nil, err
			}
		}

		if err == io.EOF {
			// A header-only commit (no blank line, no message) is
			// still well-formed; stop without consuming a message.
			return c, nil
		}
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plumbing.ErrCorruptObject, err)
	}
	c.Message = string(rest)

	return c, nil
}

// GetCommit reads and decodes the commit object named h from store.
func GetCommit(store storage.EncodedObjectStorer, h plumbing.Hash) (*Commit, error) {
	o, err := store.EncodedObject(plumbing.CommitObject, h)
	if err != nil {
		return nil, err
	}
	r, err := o.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeCommit(h, payload)
}

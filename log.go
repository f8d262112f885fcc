package gitcore

import (
	"io"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
)

// RevCommit resolves name the way spec.md §4.5's resolve describes
// (HEAD, a branch, a tag, or a fully qualified refs/... name) and
// decodes the commit it points at.
func (r *Repository) RevCommit(name string) (*object.Commit, error) {
	return r.resolveCommit(plumbing.ReferenceName(name))
}

// Log returns the first-parent history starting at from (HEAD when
// from is empty), most recent first (original_source/src/commands/log.rs's
// walk, generalized to stop cleanly at a root commit instead of on a
// missing-parent string match, and to start from any revision RevCommit
// can resolve rather than only HEAD).
func (r *Repository) Log(from string) ([]*object.Commit, error) {
	if from == "" {
		from = string(plumbing.HEAD)
	}
	c, err := r.RevCommit(from)
	if err != nil {
		return nil, err
	}

	var commits []*object.Commit
	for {
		commits = append(commits, c)
		if len(c.ParentHashes) == 0 {
			break
		}
		c, err = object.GetCommit(r.store, c.ParentHashes[0])
		if err != nil {
			return nil, err
		}
	}
	return commits, nil
}

// CatFile returns the type and raw decoded payload of the object named
// h, regardless of kind (original_source/src/commands/cat_file.rs).
func (r *Repository) CatFile(h plumbing.Hash) (plumbing.ObjectType, []byte, error) {
	o, err := r.store.EncodedObject(plumbing.AnyObject, h)
	if err != nil {
		return plumbing.InvalidObject, nil, err
	}
	rd, err := o.Reader()
	if err != nil {
		return plumbing.InvalidObject, nil, err
	}
	defer rd.Close()

	buf, err := io.ReadAll(rd)
	if err != nil {
		return plumbing.InvalidObject, nil, err
	}
	return o.Type(), buf, nil
}

package storage

import (
	"io"

	"github.com/go-vcs/gitcore/plumbing"
)

// ObjectSliceIter is an EncodedObjectIter over an in-memory slice,
// mirroring go-git's storer.EncodedObjectIter slice implementations.
type ObjectSliceIter struct {
	series []plumbing.EncodedObject
	pos    int
}

// NewObjectSliceIter returns an iterator over series.
func NewObjectSliceIter(series []plumbing.EncodedObject) *ObjectSliceIter {
	return &ObjectSliceIter{series: series}
}

func (it *ObjectSliceIter) Next() (plumbing.EncodedObject, error) {
	if it.pos >= len(it.series) {
		return nil, io.EOF
	}
	o := it.series[it.pos]
	it.pos++
	return o, nil
}

func (it *ObjectSliceIter) ForEach(cb func(plumbing.EncodedObject) error) error {
	for {
		o, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := cb(o); err != nil {
			return err
		}
	}
}

func (it *ObjectSliceIter) Close() { it.pos = len(it.series) }

// ReferenceSliceIter is a ReferenceIter over an in-memory slice.
type ReferenceSliceIter struct {
	series []*plumbing.Reference
	pos    int
}

// NewReferenceSliceIter returns an iterator over series.
func NewReferenceSliceIter(series []*plumbing.Reference) *ReferenceSliceIter {
	return &ReferenceSliceIter{series: series}
}

func (it *ReferenceSliceIter) Next() (*plumbing.Reference, error) {
	if it.pos >= len(it.series) {
		return nil, io.EOF
	}
	r := it.series[it.pos]
	it.pos++
	return r, nil
}

func (it *ReferenceSliceIter) ForEach(cb func(*plumbing.Reference) error) error {
	for {
		r, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := cb(r); err != nil {
			return err
		}
	}
}

func (it *ReferenceSliceIter) Close() { it.pos = len(it.series) }

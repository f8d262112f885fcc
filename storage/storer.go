// Package storage defines the storer capability contract: the unified
// read/write surface C4 exposes over whatever combination of loose and
// packed storage backs a repository, plus reference storage (C5).
package storage

import "github.com/go-vcs/gitcore/plumbing"

// EncodedObjectStorer is the capability to read and write framed
// objects, regardless of whether they live loose or inside a pack.
type EncodedObjectStorer interface {
	// NewEncodedObject returns an empty object ready to be filled in and
	// passed to SetEncodedObject.
	NewEncodedObject() plumbing.EncodedObject
	// SetEncodedObject writes o to the store (always loose; spec.md
	// §4.4) and returns its hash.
	SetEncodedObject(o plumbing.EncodedObject) (plumbing.Hash, error)
	// EncodedObject looks up h, optionally restricted to type t
	// (plumbing.AnyObject accepts anything). Returns
	// plumbing.ErrObjectNotFound if h is absent from every backend.
	EncodedObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error)
	// HasEncodedObject reports whether h is present, without reading its
	// payload.
	HasEncodedObject(h plumbing.Hash) error
	// IterEncodedObjects iterates every object of type t (or every
	// object, for plumbing.AnyObject) across all backends.
	IterEncodedObjects(t plumbing.ObjectType) (EncodedObjectIter, error)
}

// EncodedObjectIter iterates a sequence of objects.
type EncodedObjectIter interface {
	Next() (plumbing.EncodedObject, error)
	ForEach(func(plumbing.EncodedObject) error) error
	Close()
}

// ReferenceStorer is the capability to read, write, remove and
// enumerate refs (C5).
type ReferenceStorer interface {
	SetReference(r *plumbing.Reference) error
	// CheckAndSetReference sets r only if the current value of r.Name()
	// is old (or old is nil, meaning "must not yet exist"). Used to keep
	// ref advances race-free across processes (spec.md §5).
	CheckAndSetReference(r, old *plumbing.Reference) error
	Reference(name plumbing.ReferenceName) (*plumbing.Reference, error)
	RemoveReference(name plumbing.ReferenceName) error
	IterReferences() (ReferenceIter, error)
}

// ReferenceIter iterates a sequence of references.
type ReferenceIter interface {
	Next() (*plumbing.Reference, error)
	ForEach(func(*plumbing.Reference) error) error
	Close()
}

// Storer combines object and reference storage, the full capability a
// repository handle needs.
type Storer interface {
	EncodedObjectStorer
	ReferenceStorer
}

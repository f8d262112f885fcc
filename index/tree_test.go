package index

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
	"github.com/go-vcs/gitcore/storage/filesystem"
)

func TestBuildTreeNestsSubdirectories(t *testing.T) {
	store := filesystem.NewStorage(memfs.New())
	if err := store.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	idx := NewIndex()
	idx.Add(&Entry{Name: "README.md", Mode: object.Regular, Hash: plumbing.HashObject(plumbing.BlobObject, []byte("hi\n"))})
	idx.Add(&Entry{Name: "src/main.go", Mode: object.Regular, Hash: plumbing.HashObject(plumbing.BlobObject, []byte("package main\n"))})
	idx.Add(&Entry{Name: "src/pkg/util.go", Mode: object.Regular, Hash: plumbing.HashObject(plumbing.BlobObject, []byte("package pkg\n"))})

	root, err := BuildTree(idx, store)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	rootObj, err := store.EncodedObject(plumbing.TreeObject, root)
	if err != nil {
		t.Fatalf("EncodedObject(root): %v", err)
	}
	rootTree, err := object.DecodeTree(root, rootObj.(*plumbing.MemoryObject).Bytes())
	if err != nil {
		t.Fatalf("DecodeTree: %v", err)
	}

	readme, ok := rootTree.Find("README.md")
	if !ok || readme.Mode != object.Regular {
		t.Fatalf("README.md entry missing or wrong mode: %+v, %v", readme, ok)
	}

	srcEntry, ok := rootTree.Find("src")
	if !ok || srcEntry.Mode != object.Dir {
		t.Fatalf("src entry missing or not a directory: %+v, %v", srcEntry, ok)
	}

	srcObj, err := store.EncodedObject(plumbing.TreeObject, srcEntry.Hash)
	if err != nil {
		t.Fatalf("EncodedObject(src): %v", err)
	}
	srcTree, err := object.DecodeTree(srcEntry.Hash, srcObj.(*plumbing.MemoryObject).Bytes())
	if err != nil {
		t.Fatalf("DecodeTree(src): %v", err)
	}

	if _, ok := srcTree.Find("main.go"); !ok {
		t.Fatal("src/main.go missing from src tree")
	}
	pkgEntry, ok := srcTree.Find("pkg")
	if !ok || pkgEntry.Mode != object.Dir {
		t.Fatalf("src/pkg entry missing or not a directory: %+v, %v", pkgEntry, ok)
	}
}

func TestBuildTreeEmptyIndex(t *testing.T) {
	store := filesystem.NewStorage(memfs.New())
	if err := store.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	root, err := BuildTree(NewIndex(), store)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if root != object.EmptyTreeHash {
		t.Fatalf("root = %s, want EmptyTreeHash %s", root, object.EmptyTreeHash)
	}
}

package merge

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"

	"github.com/go-vcs/gitcore/index"
	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
	"github.com/go-vcs/gitcore/storage/filesystem"
)

func newStore(t *testing.T) *filesystem.Storage {
	t.Helper()
	s := filesystem.NewStorage(memfs.New())
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s
}

func putBlob(t *testing.T, store *filesystem.Storage, content string) plumbing.Hash {
	t.Helper()
	h, err := store.SetEncodedObject(object.NewBlob([]byte(content)))
	if err != nil {
		t.Fatalf("SetEncodedObject: %v", err)
	}
	return h
}

func buildTree(t *testing.T, store *filesystem.Storage, files map[string]string) plumbing.Hash {
	t.Helper()
	idx := index.NewIndex()
	for path, content := range files {
		idx.Add(&index.Entry{Name: path, Mode: object.Regular, Hash: putBlob(t, store, content)})
	}
	h, err := index.BuildTree(idx, store)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	return h
}

// TestThreeWayNoConflict covers spec scenario 4: base has "a", master
// adds "b", feat adds "c" — no conflicts, all three files present.
func TestThreeWayNoConflict(t *testing.T) {
	store := newStore(t)
	base := buildTree(t, store, map[string]string{"a": "1\n"})
	ours := buildTree(t, store, map[string]string{"a": "1\n", "b": "2\n"})
	theirs := buildTree(t, store, map[string]string{"a": "1\n", "c": "3\n"})

	result, err := ThreeWay(store, base, ours, theirs)
	if err != nil {
		t.Fatalf("ThreeWay: %v", err)
	}
	if len(result.Conflicts) != 0 {
		t.Fatalf("Conflicts = %v, want none", result.Conflicts)
	}

	merged, err := object.GetTree(store, result.Tree)
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	files, err := merged.Flatten(store)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if _, ok := files[name]; !ok {
			t.Fatalf("merged tree missing %q", name)
		}
	}
}

// TestThreeWayEditEditConflict covers spec scenario 5: both branches
// edit "a" differently from the shared base.
func TestThreeWayEditEditConflict(t *testing.T) {
	store := newStore(t)
	base := buildTree(t, store, map[string]string{"a": "x\n"})
	ours := buildTree(t, store, map[string]string{"a": "y\n"})
	theirs := buildTree(t, store, map[string]string{"a": "z\n"})

	result, err := ThreeWay(store, base, ours, theirs)
	if err != nil {
		t.Fatalf("ThreeWay: %v", err)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("Conflicts = %v, want exactly 1", result.Conflicts)
	}
	c := result.Conflicts[0]
	if c.Path != "a" || c.Kind != EditEdit {
		t.Fatalf("conflict = %+v, want path=a kind=EditEdit", c)
	}
	if c.Error() != "Merge conflict in a: 1" {
		t.Fatalf("Error() = %q, want %q", c.Error(), "Merge conflict in a: 1")
	}
}

func TestThreeWayAddAddConflict(t *testing.T) {
	store := newStore(t)
	base := buildTree(t, store, map[string]string{})
	ours := buildTree(t, store, map[string]string{"new": "ours\n"})
	theirs := buildTree(t, store, map[string]string{"new": "theirs\n"})

	result, err := ThreeWay(store, base, ours, theirs)
	if err != nil {
		t.Fatalf("ThreeWay: %v", err)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Kind != AddAdd {
		t.Fatalf("Conflicts = %v, want one AddAdd", result.Conflicts)
	}
}

func TestThreeWayIdenticalAddIsNotAConflict(t *testing.T) {
	store := newStore(t)
	base := buildTree(t, store, map[string]string{})
	ours := buildTree(t, store, map[string]string{"new": "same\n"})
	theirs := buildTree(t, store, map[string]string{"new": "same\n"})

	result, err := ThreeWay(store, base, ours, theirs)
	if err != nil {
		t.Fatalf("ThreeWay: %v", err)
	}
	if len(result.Conflicts) != 0 {
		t.Fatalf("Conflicts = %v, want none", result.Conflicts)
	}
}

func TestThreeWayEditDeleteConflict(t *testing.T) {
	store := newStore(t)
	base := buildTree(t, store, map[string]string{"a": "1\n"})
	ours := buildTree(t, store, map[string]string{"a": "2\n"})
	theirs := buildTree(t, store, map[string]string{})

	result, err := ThreeWay(store, base, ours, theirs)
	if err != nil {
		t.Fatalf("ThreeWay: %v", err)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Kind != EditDelete {
		t.Fatalf("Conflicts = %v, want one EditDelete", result.Conflicts)
	}
}

func TestThreeWayDeleteEditConflict(t *testing.T) {
	store := newStore(t)
	base := buildTree(t, store, map[string]string{"a": "1\n"})
	ours := buildTree(t, store, map[string]string{})
	theirs := buildTree(t, store, map[string]string{"a": "2\n"})

	result, err := ThreeWay(store, base, ours, theirs)
	if err != nil {
		t.Fatalf("ThreeWay: %v", err)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Kind != DeleteEdit {
		t.Fatalf("Conflicts = %v, want one DeleteEdit", result.Conflicts)
	}
}

func TestThreeWayBothDeletedIsClean(t *testing.T) {
	store := newStore(t)
	base := buildTree(t, store, map[string]string{"a": "1\n", "keep": "k\n"})
	ours := buildTree(t, store, map[string]string{"keep": "k\n"})
	theirs := buildTree(t, store, map[string]string{"keep": "k\n"})

	result, err := ThreeWay(store, base, ours, theirs)
	if err != nil {
		t.Fatalf("ThreeWay: %v", err)
	}
	if len(result.Conflicts) != 0 {
		t.Fatalf("Conflicts = %v, want none", result.Conflicts)
	}
	merged, err := object.GetTree(store, result.Tree)
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	files, err := merged.Flatten(store)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if _, ok := files["a"]; ok {
		t.Fatal("\"a\" should have been deleted, both sides removed it")
	}
}

func TestWriteCommitParentsAndMessage(t *testing.T) {
	store := newStore(t)
	tree := buildTree(t, store, map[string]string{"a": "1\n"})
	ours := putBlob(t, store, "ours-commit-stand-in\n")
	theirs := putBlob(t, store, "theirs-commit-stand-in\n")

	sig := object.Signature{Name: "tester", Email: "tester@example.com"}
	h, err := WriteCommit(store, tree, ours, theirs, "feat", "master", sig, sig)
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	c, err := object.GetCommit(store, h)
	if err != nil {
		t.Fatalf("GetCommit: %v", err)
	}
	if len(c.ParentHashes) != 2 || c.ParentHashes[0] != ours || c.ParentHashes[1] != theirs {
		t.Fatalf("ParentHashes = %v, want [ours, theirs]", c.ParentHashes)
	}
	if c.Message != "Merge branch 'feat' into master" {
		t.Fatalf("Message = %q", c.Message)
	}
}

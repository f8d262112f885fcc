package gitcore

import (
	"testing"

	"github.com/go-vcs/gitcore/plumbing"
	"github.com/go-vcs/gitcore/plumbing/object"
)

func TestRepackGathersHeadAndBranches(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	writeFile(t, dir, "a.txt", "1\n")
	if err := r.StagePaths([]string{"a.txt"}); err != nil {
		t.Fatalf("StagePaths: %v", err)
	}
	first, err := r.Commit("initial", sig())
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := r.Checkout("feature", true); err != nil {
		t.Fatalf("Checkout create: %v", err)
	}
	writeFile(t, dir, "b.txt", "2\n")
	if err := r.StagePaths([]string{"b.txt"}); err != nil {
		t.Fatalf("StagePaths: %v", err)
	}
	second, err := r.Commit("add b", sig())
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := r.Checkout("master", false); err != nil {
		t.Fatalf("Checkout master: %v", err)
	}

	if err := r.Repack(); err != nil {
		t.Fatalf("Repack: %v", err)
	}

	for _, h := range []plumbing.Hash{first, second} {
		if _, _, err := r.CatFile(h); err != nil {
			t.Fatalf("CatFile(%s) after repack: %v", h, err)
		}
	}
	if _, _, err := r.CatFile(object.EmptyTreeHash); err != nil {
		t.Fatalf("CatFile(EmptyTreeHash) after repack: %v", err)
	}
}

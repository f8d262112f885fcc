package plumbing

import "testing"

func TestReferenceNameHelpers(t *testing.T) {
	b := NewBranchReferenceName("master")
	if b.String() != "refs/heads/master" {
		t.Fatalf("branch name = %s", b)
	}
	if !b.IsBranch() || b.IsTag() || b.IsRemote() {
		t.Fatalf("IsBranch/IsTag/IsRemote wrong for %s", b)
	}
	if b.Short() != "master" {
		t.Fatalf("Short() = %s, want master", b.Short())
	}

	tag := NewTagReferenceName("v1.0")
	if !tag.IsTag() || tag.Short() != "v1.0" {
		t.Fatalf("tag ref wrong: %s", tag)
	}

	remote := NewRemoteReferenceName("origin", "main")
	if remote.String() != "refs/remotes/origin/main" {
		t.Fatalf("remote ref = %s", remote)
	}
	if !remote.IsRemote() {
		t.Fatalf("IsRemote false for %s", remote)
	}
}

func TestHashReference(t *testing.T) {
	h := NewHash("45b983be36b73c0788dc9cbcb76cbb80fc7bb057")
	r := NewHashReference(NewBranchReferenceName("master"), h)
	if r.Type() != HashReference {
		t.Fatalf("Type() = %v, want HashReference", r.Type())
	}
	if r.Hash() != h {
		t.Fatalf("Hash() = %s, want %s", r.Hash(), h)
	}
	if r.String() != h.String() {
		t.Fatalf("String() = %s, want %s", r.String(), h)
	}
}

func TestSymbolicReference(t *testing.T) {
	r := NewSymbolicReference(HEAD, NewBranchReferenceName("master"))
	if r.Type() != SymbolicReference {
		t.Fatalf("Type() = %v, want SymbolicReference", r.Type())
	}
	if r.Target() != NewBranchReferenceName("master") {
		t.Fatalf("Target() = %s", r.Target())
	}
	if r.String() != "ref: refs/heads/master" {
		t.Fatalf("String() = %q", r.String())
	}
}

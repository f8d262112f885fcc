package config

import (
	"strings"
	"testing"
)

func TestDecodeRemoteSection(t *testing.T) {
	raw := "[core]\n\tbare = false\n[remote \"origin\"]\n\turl = https://example.com/repo.git\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n"

	c := New()
	if err := NewDecoder(strings.NewReader(raw)).Decode(c); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !c.HasSection("remote") {
		t.Fatalf("expected remote section")
	}
	if got := c.GetOption("remote", "origin", "url"); got != "https://example.com/repo.git" {
		t.Fatalf("url = %q", got)
	}
	if got := c.GetOption("core", "", "bare"); got != "false" {
		t.Fatalf("core.bare = %q", got)
	}
	if got := c.GetOption("remote", "missing", "url"); got != "" {
		t.Fatalf("expected empty url for missing remote, got %q", got)
	}
}

func TestAddOptionBuildsSections(t *testing.T) {
	c := New()
	c.AddOption("remote", "origin", "url", "git@example.com:repo.git")
	if got := c.GetOption("remote", "origin", "url"); got != "git@example.com:repo.git" {
		t.Fatalf("url = %q", got)
	}
}

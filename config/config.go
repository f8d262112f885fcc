// Package config reads a repository's on-disk config file (spec.md
// §6): gitcore only ever needs the "remote \"NAME\"" / "url" surface, so
// this is a thin read-only wrapper over plumbing/format/config rather
// than a full config editor.
package config

import (
	"errors"
	"os"

	"github.com/go-git/go-billy/v5"

	pconfig "github.com/go-vcs/gitcore/plumbing/format/config"
)

// ErrRemoteNotFound is returned when the requested remote has no
// section in the config file.
var ErrRemoteNotFound = errors.New("remote not found")

// Config wraps a parsed repository config file.
type Config struct {
	raw *pconfig.Config
}

// Load reads and decodes the config file at path (repository-relative,
// e.g. dotgit.ConfigPath()) on fs. A missing file decodes as empty
// config, matching a freshly initialized repository with no remotes.
func Load(fs billy.Filesystem, path string) (*Config, error) {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{raw: pconfig.New()}, nil
		}
		return nil, err
	}
	defer f.Close()

	c := pconfig.New()
	if err := pconfig.NewDecoder(f).Decode(c); err != nil {
		return nil, err
	}
	return &Config{raw: c}, nil
}

// RemoteURL returns the url option of the named remote's section
// (spec.md §6: `[remote "NAME"] url = ...`).
func (c *Config) RemoteURL(name string) (string, error) {
	if !c.raw.HasSection("remote") || !c.raw.Section("remote").HasSubsection(name) {
		return "", ErrRemoteNotFound
	}
	return c.raw.GetOption("remote", name, "url"), nil
}

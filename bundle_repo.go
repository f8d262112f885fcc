package gitcore

import "github.com/go-vcs/gitcore/bundle"

// BundleCreate packages every object, branch ref, and HEAD into a
// transportable archive (spec.md §4.10).
func (r *Repository) BundleCreate() ([]byte, error) {
	return bundle.Create(r.store.DotGit())
}

// BundleIngest applies a bundle produced by BundleCreate. A non-empty
// remoteName ingests in fetch mode (mirrors every branch under
// refs/remotes/<remoteName>/); an empty remoteName ingests in push mode
// (advances refs/heads/<b> directly, fast-forward only).
func (r *Repository) BundleIngest(archive []byte, remoteName string) error {
	return bundle.Ingest(r.store.DotGit(), r.store, archive, remoteName)
}

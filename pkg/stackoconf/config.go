// Package stackoconf holds the configurable roots and tunables stacko
// is constructed from. There is no file format of its own; the CLI
// layer builds a Config from flags and the working directory the same way the
// teacher's top-level flag variables are assembled before any
// persistent configuration is consulted.
package stackoconf

import "path/filepath"

const defaultLockPath = "/tmp/stacksDb.lock"

// Config carries the four configurable roots spec.md §4/§6 requires,
// plus an override for the kernel-version-driven strategy selection.
type Config struct {
	// ImagesDir is the root under which images/<name>/<instance>/... live.
	ImagesDir string
	// MountsDir is the root under which mounts/<point>/ live.
	MountsDir string
	// MetadataDir holds images.json and points.json.
	MetadataDir string
	// LockPath is the cross-process advisory lock file.
	LockPath string
	// ForceLegacy overrides KernelProbe's detection when non-nil,
	// primarily for tests that cannot assume a given running kernel.
	ForceLegacy *bool
}

// Default returns a Config rooted at dir, matching
// original_source/stacko/__main__.py's metadata/images/mounts relative
// directories.
func Default(dir string) *Config {
	return &Config{
		ImagesDir:   filepath.Join(dir, "images"),
		MountsDir:   filepath.Join(dir, "mounts"),
		MetadataDir: filepath.Join(dir, "metadata"),
		LockPath:    defaultLockPath,
	}
}

// Package manifest defines the persistent image/stackpoint catalog and
// the codec that serializes it, grounded on
// original_source/stacko/image.py's Image class,
// original_source/stacko/point.py's Point class, and
// original_source/stacko/classDb.py's to_db/from_db.
package manifest

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// SelfInstance is the reserved instance name representing an image's
// own read-only base layer. It is never listed in Image.Instances even
// though the corresponding directory always exists on disk.
const SelfInstance = ".self"

// Image is an immutable-identity node in the image forest.
type Image struct {
	Name      string   `json:"name"`
	Parent    *string  `json:"parent"`
	Version   *string  `json:"version"`
	Instances []string `json:"instances"`
}

// HasInstance reports whether name is recorded as a non-self instance
// of this image.
func (img *Image) HasInstance(name string) bool {
	for _, i := range img.Instances {
		if i == name {
			return true
		}
	}
	return false
}

// Stackpoint is a stable public mount name with a rotation history.
type Stackpoint struct {
	Name         string   `json:"name"`
	ImageHistory []string `json:"imageHistory"`
	CurrentImage string   `json:"currentImage"`
}

// InHistory reports whether image appears in the stackpoint's history.
func (p *Stackpoint) InHistory(image string) bool {
	for _, i := range p.ImageHistory {
		if i == image {
			return true
		}
	}
	return false
}

// Manifest is the in-memory catalog of images and stackpoints: the two
// mappings ManifestStore owns, per spec.md §4.1.
type Manifest struct {
	Images map[string]*Image
	Points map[string]*Stackpoint
}

// New returns an empty manifest, the state produced by loading from a
// metadata directory that has never been written to.
func New() *Manifest {
	return &Manifest{
		Images: make(map[string]*Image),
		Points: make(map[string]*Stackpoint),
	}
}

// ValidateName rejects names that cannot be used as a single path
// segment: empty strings, names containing a path separator or a
// leading dot, and names that are not already in normalized slug form.
// SelfInstance is exempt — it is a fixed, code-level constant, not
// user input, per SPEC_FULL.md's supplemented features.
func ValidateName(name string) error {
	if name == SelfInstance {
		return nil
	}
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("name %q must not contain a path separator", name)
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("name %q must not begin with a dot", name)
	}
	if slug.Make(name) != name {
		return fmt.Errorf("name %q is not a valid slug (try %q)", name, slug.Make(name))
	}
	return nil
}

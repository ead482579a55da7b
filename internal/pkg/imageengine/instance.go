package imageengine

import "github.com/wagoodman/stacko/pkg/manifest"

// InstanceID names either the reserved own-base-layer instance or a
// named per-stackpoint instance. Encoding this as a distinct variant
// rather than a raw string keeps validation and manifest serialization
// from ever mixing the two up, per spec.md §9's design note.
type InstanceID struct {
	name string
	own  bool
}

// Own returns the reserved ".self" instance identifier.
func Own() InstanceID { return InstanceID{own: true} }

// Named returns a named, per-stackpoint instance identifier.
func Named(name string) InstanceID { return InstanceID{name: name} }

// ParseInstanceID recovers an InstanceID from its on-disk/manifest
// string form.
func ParseInstanceID(s string) InstanceID {
	if s == manifest.SelfInstance {
		return Own()
	}
	return Named(s)
}

// IsOwn reports whether this identifies the reserved ".self" instance.
func (i InstanceID) IsOwn() bool { return i.own }

// String returns the on-disk directory name for this instance.
func (i InstanceID) String() string {
	if i.own {
		return manifest.SelfInstance
	}
	return i.name
}

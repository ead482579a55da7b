// Package layout resolves the on-disk directory layout spec.md §6
// fixes: images/<name>/<instance>/{content,mount,working}/ and
// mounts/<point>/. Every path is built through
// github.com/cyphar/filepath-securejoin so an untrusted image,
// instance, or stackpoint name drawn from the manifest or CLI
// arguments can never escape the configured roots — grounded on
// internal/pkg/runtime/launcher/oci/oci_linux.go's
// securejoin.SecureJoin(rootPath, containerPath).
//
// These are named operations (ImageDir/InstanceDir/PointDir), not a
// single dispatcher branching on a union type, resolving spec.md §9's
// design note on getImageDir/getMountPointDir's dynamic type branching.
package layout

import (
	securejoin "github.com/cyphar/filepath-securejoin"
)

// ImageDir returns images/<name> under imagesRoot.
func ImageDir(imagesRoot, name string) (string, error) {
	return securejoin.SecureJoin(imagesRoot, name)
}

// InstanceDir returns images/<name>/<instance> under imagesRoot.
func InstanceDir(imagesRoot, name, instance string) (string, error) {
	imgDir, err := ImageDir(imagesRoot, name)
	if err != nil {
		return "", err
	}
	return securejoin.SecureJoin(imgDir, instance)
}

// ContentDir, MountDir and WorkingDir return the three fixed subdirs of
// an instance directory: the upper, mount, and work roles an overlay
// mount needs per spec.md §4.2.1.

func ContentDir(imagesRoot, name, instance string) (string, error) {
	return joinInstance(imagesRoot, name, instance, "content")
}

func MountDir(imagesRoot, name, instance string) (string, error) {
	return joinInstance(imagesRoot, name, instance, "mount")
}

func WorkingDir(imagesRoot, name, instance string) (string, error) {
	return joinInstance(imagesRoot, name, instance, "working")
}

func joinInstance(imagesRoot, name, instance, leaf string) (string, error) {
	instDir, err := InstanceDir(imagesRoot, name, instance)
	if err != nil {
		return "", err
	}
	return securejoin.SecureJoin(instDir, leaf)
}

// PointDir returns mounts/<point> under mountsRoot.
func PointDir(mountsRoot, point string) (string, error) {
	return securejoin.SecureJoin(mountsRoot, point)
}

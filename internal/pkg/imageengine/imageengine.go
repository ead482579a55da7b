// Package imageengine implements the image and instance CRUD,
// directory layout enforcement, and mount/umount dispatch of spec.md
// §4.2, grounded line-for-line on
// original_source/stacko/image.py's ImageManager.
package imageengine

import (
	"os"
	"sort"

	"github.com/samber/lo"

	"github.com/wagoodman/stacko/internal/pkg/layout"
	"github.com/wagoodman/stacko/internal/pkg/overlay"
	"github.com/wagoodman/stacko/pkg/manifest"
	"github.com/wagoodman/stacko/pkg/stackerr"
)

// Engine is the ImageEngine of spec.md §4.2. It operates directly on
// the manifest maps handed to it by a locked stacksession; it is never
// a process-wide singleton, per spec.md §9.
type Engine struct {
	Manifest   *manifest.Manifest
	Driver     *overlay.Driver
	ImagesRoot string
	Strategy   MountStrategy
}

// New constructs an Engine. strategy should be StandardStrategy{} or
// LegacyStrategy{} depending on kernelprobe.IsLegacy.
func New(m *manifest.Manifest, driver *overlay.Driver, imagesRoot string, strategy MountStrategy) *Engine {
	return &Engine{Manifest: m, Driver: driver, ImagesRoot: imagesRoot, Strategy: strategy}
}

// NewImage creates an image with an optional parent, per spec.md
// §4.2's newImage.
func (e *Engine) NewImage(name string, parent *string) error {
	if err := manifest.ValidateName(name); err != nil {
		return err
	}
	if _, exists := e.Manifest.Images[name]; exists {
		return stackerr.New(stackerr.KindDuplicateImage, "image %q already exists", name)
	}
	if parent != nil {
		parentImg, ok := e.Manifest.Images[*parent]
		if !ok {
			return stackerr.New(stackerr.KindUnknownImage, "parent image %q does not exist", *parent)
		}
		parentDir, err := layout.ImageDir(e.ImagesRoot, parentImg.Name)
		if err != nil {
			return err
		}
		if !dirExists(parentDir) {
			return stackerr.New(stackerr.KindLayoutMismatch, "parent image directory %s missing", parentDir)
		}
	}

	imgDir, err := layout.ImageDir(e.ImagesRoot, name)
	if err != nil {
		return err
	}
	if dirExists(imgDir) {
		return stackerr.New(stackerr.KindLayoutMismatch, "image directory %s already exists", imgDir)
	}

	if err := createInstanceSkeleton(e.ImagesRoot, name, manifest.SelfInstance); err != nil {
		return err
	}

	e.Manifest.Images[name] = &manifest.Image{
		Name:      name,
		Parent:    parent,
		Instances: []string{},
	}
	return nil
}

// DeleteImage removes an image's directory and manifest entry, refusing
// if it has children, live instances, or any mount is live, per
// spec.md §4.2's deleteImage.
func (e *Engine) DeleteImage(name string) error {
	img, ok := e.Manifest.Images[name]
	if !ok {
		return stackerr.New(stackerr.KindUnknownImage, "image %q does not exist", name)
	}
	if children := e.GetChildImages(name); len(children) > 0 {
		return stackerr.New(stackerr.KindHasChildren, "image %q has %d child image(s)", name, len(children))
	}
	if len(img.Instances) > 0 {
		return stackerr.New(stackerr.KindHasInstances, "image %q has instance(s) %v", name, img.Instances)
	}

	selfMount, err := layout.MountDir(e.ImagesRoot, name, manifest.SelfInstance)
	if err != nil {
		return err
	}
	if mounted, err := e.Driver.IsMounted(selfMount); err != nil {
		return err
	} else if mounted {
		return stackerr.New(stackerr.KindEditingActive, "image %q is currently mounted", name)
	}

	imgDir, err := layout.ImageDir(e.ImagesRoot, name)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(imgDir); err != nil {
		return stackerr.Wrap(stackerr.KindLayoutMismatch, err, "removing image directory %s", imgDir)
	}
	delete(e.Manifest.Images, name)
	return nil
}

// MountImage mounts an image's own base layer, equivalent to
// mountInstance(name, ".self", writable), per spec.md §4.2.
func (e *Engine) MountImage(name string, writable bool) (string, error) {
	return e.MountInstance(name, Own(), writable)
}

// UmountImage unmounts an image's own base layer, equivalent to
// umountInstance(name, ".self").
func (e *Engine) UmountImage(name string) error {
	return e.UmountInstance(name, Own())
}

// NewImageInstance creates a new instance directory for an image, per
// spec.md §4.2's newImageInstance. force is required to (re)create the
// reserved ".self" instance.
func (e *Engine) NewImageInstance(name string, instance InstanceID, force bool) error {
	img, ok := e.Manifest.Images[name]
	if !ok {
		return stackerr.New(stackerr.KindUnknownImage, "image %q does not exist", name)
	}
	if instance.IsOwn() && !force {
		return stackerr.New(stackerr.KindReservedInstance, "creating %q requires force", manifest.SelfInstance)
	}
	if !instance.IsOwn() {
		if err := manifest.ValidateName(instance.String()); err != nil {
			return err
		}
		if img.HasInstance(instance.String()) {
			return stackerr.New(stackerr.KindDuplicateInstance, "image %q already has instance %q", name, instance.String())
		}
	}

	instDir, err := layout.InstanceDir(e.ImagesRoot, name, instance.String())
	if err != nil {
		return err
	}
	if dirExists(instDir) {
		return stackerr.New(stackerr.KindLayoutMismatch, "instance directory %s already exists", instDir)
	}

	if err := createInstanceSkeleton(e.ImagesRoot, name, instance.String()); err != nil {
		return err
	}

	if !instance.IsOwn() {
		img.Instances = append(img.Instances, instance.String())
	}
	return nil
}

// DeleteImageInstance removes an instance directory and manifest
// entry, refusing if mounted, per spec.md §4.2's deleteImageInstance.
func (e *Engine) DeleteImageInstance(name string, instance InstanceID, force bool) error {
	img, ok := e.Manifest.Images[name]
	if !ok {
		return stackerr.New(stackerr.KindUnknownImage, "image %q does not exist", name)
	}
	if instance.IsOwn() && !force {
		return stackerr.New(stackerr.KindReservedInstance, "deleting %q requires force", manifest.SelfInstance)
	}
	if !instance.IsOwn() && !img.HasInstance(instance.String()) {
		return stackerr.New(stackerr.KindUnknownInstance, "image %q has no instance %q", name, instance.String())
	}

	mountDir, err := layout.MountDir(e.ImagesRoot, name, instance.String())
	if err != nil {
		return err
	}
	if mounted, err := e.Driver.IsMounted(mountDir); err != nil {
		return err
	} else if mounted {
		return stackerr.New(stackerr.KindInstanceMounted, "instance %q of image %q is mounted", instance.String(), name)
	}

	instDir, err := layout.InstanceDir(e.ImagesRoot, name, instance.String())
	if err != nil {
		return err
	}
	if err := os.RemoveAll(instDir); err != nil {
		return stackerr.Wrap(stackerr.KindLayoutMismatch, err, "removing instance directory %s", instDir)
	}

	if !instance.IsOwn() {
		img.Instances = lo.Filter(img.Instances, func(n string, _ int) bool { return n != instance.String() })
	}
	return nil
}

// ListImages returns every image in the manifest sorted by name,
// matching original_source/stacko/image.py's listImages, which walks
// sorted(self.db.keys()) rather than raw dict order.
func (e *Engine) ListImages() []*manifest.Image {
	images := lo.Values(e.Manifest.Images)
	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
	return images
}

// ListInstances returns the non-self instances of an image, per
// spec.md §8 property 4.
func (e *Engine) ListInstances(name string) ([]string, error) {
	img, ok := e.Manifest.Images[name]
	if !ok {
		return nil, stackerr.New(stackerr.KindUnknownImage, "image %q does not exist", name)
	}
	return append([]string{}, img.Instances...), nil
}

// GetChildImages returns every image whose parent is name.
func (e *Engine) GetChildImages(name string) []*manifest.Image {
	return lo.Filter(lo.Values(e.Manifest.Images), func(img *manifest.Image, _ int) bool {
		return img.Parent != nil && *img.Parent == name
	})
}

// GetImagesWithInstanceName returns every image carrying a
// non-self instance named instance.
func (e *Engine) GetImagesWithInstanceName(instance string) []*manifest.Image {
	return lo.Filter(lo.Values(e.Manifest.Images), func(img *manifest.Image, _ int) bool {
		return img.HasInstance(instance)
	})
}

func dirExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func createInstanceSkeleton(imagesRoot, name, instance string) error {
	for _, leaf := range []string{"content", "mount", "working"} {
		dir, err := joinLeaf(imagesRoot, name, instance, leaf)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stackerr.Wrap(stackerr.KindLayoutMismatch, err, "creating %s", dir)
		}
	}
	return nil
}

func joinLeaf(imagesRoot, name, instance, leaf string) (string, error) {
	switch leaf {
	case "content":
		return layout.ContentDir(imagesRoot, name, instance)
	case "mount":
		return layout.MountDir(imagesRoot, name, instance)
	default:
		return layout.WorkingDir(imagesRoot, name, instance)
	}
}

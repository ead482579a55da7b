// Package stackpointengine implements stackpoint CRUD, history
// rotation, current-image selection, and the public bind mount of
// spec.md §4.3, grounded on original_source/stacko/point.py's
// PointManager.
package stackpointengine

import (
	"github.com/samber/lo"

	"github.com/wagoodman/stacko/internal/pkg/imageengine"
	"github.com/wagoodman/stacko/internal/pkg/layout"
	"github.com/wagoodman/stacko/internal/pkg/overlay"
	"github.com/wagoodman/stacko/pkg/manifest"
	"github.com/wagoodman/stacko/pkg/stackerr"
)

// Engine is the StackpointEngine of spec.md §4.3.
type Engine struct {
	Manifest   *manifest.Manifest
	Images     *imageengine.Engine
	Driver     *overlay.Driver
	MountsRoot string
}

// New constructs an Engine sharing the manifest and ImageEngine of the
// enclosing session.
func New(m *manifest.Manifest, images *imageengine.Engine, driver *overlay.Driver, mountsRoot string) *Engine {
	return &Engine{Manifest: m, Images: images, Driver: driver, MountsRoot: mountsRoot}
}

// NewPoint creates a stackpoint bound to image, per spec.md §4.3's
// newPoint: creates the public mount directory, an instance of image
// named after the stackpoint, and the Stackpoint manifest record.
func (e *Engine) NewPoint(point, image string) error {
	if err := manifest.ValidateName(point); err != nil {
		return err
	}
	if _, exists := e.Manifest.Points[point]; exists {
		return stackerr.New(stackerr.KindDuplicatePoint, "stackpoint %q already exists", point)
	}
	if _, ok := e.Manifest.Images[image]; !ok {
		return stackerr.New(stackerr.KindUnknownImage, "image %q does not exist", image)
	}

	pointDir, err := layout.PointDir(e.MountsRoot, point)
	if err != nil {
		return err
	}
	if dirExists(pointDir) {
		return stackerr.New(stackerr.KindLayoutMismatch, "mount directory %s already exists", pointDir)
	}

	if err := e.Images.NewImageInstance(image, imageengine.Named(point), false); err != nil {
		return err
	}
	if err := mkdirAll(pointDir); err != nil {
		return err
	}

	e.Manifest.Points[point] = &manifest.Stackpoint{
		Name:         point,
		ImageHistory: []string{image},
		CurrentImage: image,
	}
	return nil
}

// SetPointInstance switches the stackpoint's current image to one
// already present in its history, per spec.md §4.3's setPointInstance.
func (e *Engine) SetPointInstance(point, image string) error {
	p, ok := e.Manifest.Points[point]
	if !ok {
		return stackerr.New(stackerr.KindUnknownPoint, "stackpoint %q does not exist", point)
	}
	if !p.InHistory(image) {
		return stackerr.New(stackerr.KindUnknownPointInst, "image %q is not in stackpoint %q's history", image, point)
	}
	p.CurrentImage = image
	return nil
}

// NewPointInstance creates an instance named after the stackpoint on
// image and appends image to the history tail (moving it there if
// already present), per spec.md §4.3's newPointInstance. currentImage
// is left unchanged.
func (e *Engine) NewPointInstance(point, image string) error {
	p, ok := e.Manifest.Points[point]
	if !ok {
		return stackerr.New(stackerr.KindUnknownPoint, "stackpoint %q does not exist", point)
	}

	if img, ok := e.Manifest.Images[image]; !ok || !img.HasInstance(point) {
		if err := e.Images.NewImageInstance(image, imageengine.Named(point), false); err != nil {
			return err
		}
	}

	p.ImageHistory = lo.Filter(p.ImageHistory, func(n string, _ int) bool { return n != image })
	p.ImageHistory = append(p.ImageHistory, image)
	return nil
}

// DeletePointInstance removes image from the stackpoint's history and
// deletes the underlying image instance, refusing if image is current,
// per spec.md §4.3's deletePointInstance.
func (e *Engine) DeletePointInstance(point, image string) error {
	p, ok := e.Manifest.Points[point]
	if !ok {
		return stackerr.New(stackerr.KindUnknownPoint, "stackpoint %q does not exist", point)
	}
	if p.CurrentImage == image {
		return stackerr.New(stackerr.KindCurrentInstance, "image %q is the current instance of stackpoint %q", image, point)
	}

	if err := e.Images.DeleteImageInstance(image, imageengine.Named(point), false); err != nil {
		return err
	}
	p.ImageHistory = lo.Filter(p.ImageHistory, func(n string, _ int) bool { return n != image })
	return nil
}

// Mount mounts the stackpoint's current image instance and bind-mounts
// it onto the stable public path, per spec.md §4.3's mount. A second
// call is a no-op: the public bind is checked via MountProbe first, so
// it tolerates an already-live public path rather than stacking a
// second bind, per DESIGN.md's Open Question decision.
func (e *Engine) Mount(point string) (string, error) {
	p, ok := e.Manifest.Points[point]
	if !ok {
		return "", stackerr.New(stackerr.KindUnknownPoint, "stackpoint %q does not exist", point)
	}

	pointDir, err := layout.PointDir(e.MountsRoot, point)
	if err != nil {
		return "", err
	}
	if mounted, err := e.Driver.IsMounted(pointDir); err != nil {
		return "", err
	} else if mounted {
		return pointDir, nil
	}

	topMount, err := e.Images.MountInstance(p.CurrentImage, imageengine.Named(point), true)
	if err != nil {
		return "", err
	}

	if err := e.Driver.BindMount(topMount, pointDir, false); err != nil {
		return "", err
	}
	return pointDir, nil
}

// Umount unmounts the instance and the public bind, per spec.md §4.3's
// umount.
func (e *Engine) Umount(point string) error {
	p, ok := e.Manifest.Points[point]
	if !ok {
		return stackerr.New(stackerr.KindUnknownPoint, "stackpoint %q does not exist", point)
	}

	if err := e.Images.UmountInstance(p.CurrentImage, imageengine.Named(point)); err != nil {
		return err
	}

	pointDir, err := layout.PointDir(e.MountsRoot, point)
	if err != nil {
		return err
	}
	if mounted, err := e.Driver.IsMounted(pointDir); err != nil {
		return err
	} else if !mounted {
		return nil
	}
	return e.Driver.Unmount(pointDir)
}

// ListPoints returns every stackpoint in the manifest, per spec.md
// §4.3's listPoints query.
func (e *Engine) ListPoints() []*manifest.Stackpoint {
	return lo.Values(e.Manifest.Points)
}

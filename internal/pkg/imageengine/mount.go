package imageengine

import (
	"github.com/wagoodman/stacko/internal/pkg/layout"
	"github.com/wagoodman/stacko/pkg/manifest"
	"github.com/wagoodman/stacko/pkg/stackerr"
)

// MaxLegacyDepth is the deepest ancestor chain (including the target
// image itself) the legacy strategy can emulate with single-lower
// overlay mounts, per spec.md §4.2.1's depth check.
const MaxLegacyDepth = 2

// MountStrategy composes and issues the overlay/bind mounts for one
// (image, instance) pair, per spec.md §4.2.1/§4.2.2. Making this an
// interface with Standard and Legacy implementations lets the engine
// hold one without branching on kernel version at every call site, and
// lets tests inject a stub that records calls without touching the
// kernel, per spec.md §9's design note.
type MountStrategy interface {
	Mount(e *Engine, name string, instance InstanceID, writable bool) (string, error)
	Unmount(e *Engine, name string, instance InstanceID) error
}

// MountInstance dispatches to the engine's configured strategy, per
// spec.md §4.2's mountInstance.
func (e *Engine) MountInstance(name string, instance InstanceID, writable bool) (string, error) {
	img, ok := e.Manifest.Images[name]
	if !ok {
		return "", stackerr.New(stackerr.KindUnknownImage, "image %q does not exist", name)
	}
	if !instance.IsOwn() && !img.HasInstance(instance.String()) {
		return "", stackerr.New(stackerr.KindUnknownInstance, "instance %q does not exist on image %q", instance.String(), name)
	}
	return e.Strategy.Mount(e, name, instance, writable)
}

// UmountInstance dispatches to the engine's configured strategy, per
// spec.md §4.2's umountInstance.
func (e *Engine) UmountInstance(name string, instance InstanceID) error {
	if _, ok := e.Manifest.Images[name]; !ok {
		return stackerr.New(stackerr.KindUnknownImage, "image %q does not exist", name)
	}
	return e.Strategy.Unmount(e, name, instance)
}

// StandardStrategy is the multi-lower overlay strategy for kernel >=
// 3.19, per spec.md §4.2.1.
type StandardStrategy struct{}

func (StandardStrategy) Mount(e *Engine, name string, instance InstanceID, writable bool) (string, error) {
	mountPath, err := layout.MountDir(e.ImagesRoot, name, instance.String())
	if err != nil {
		return "", err
	}
	if mounted, err := e.Driver.IsMounted(mountPath); err != nil {
		return "", err
	} else if mounted {
		return mountPath, nil
	}

	upper, err := layout.ContentDir(e.ImagesRoot, name, instance.String())
	if err != nil {
		return "", err
	}
	work, err := layout.WorkingDir(e.ImagesRoot, name, instance.String())
	if err != nil {
		return "", err
	}

	lower, err := selfLowerChain(e, name)
	if err != nil {
		return "", err
	}

	if err := e.Driver.OverlayMount(mountPath, lower, upper, work, !writable); err != nil {
		return "", err
	}
	return mountPath, nil
}

func (StandardStrategy) Unmount(e *Engine, name string, instance InstanceID) error {
	mountPath, err := layout.MountDir(e.ImagesRoot, name, instance.String())
	if err != nil {
		return err
	}
	mounted, err := e.Driver.IsMounted(mountPath)
	if err != nil {
		return err
	}
	if !mounted {
		return nil
	}
	return e.Driver.Unmount(mountPath)
}

// selfLowerChain builds the ".self" content directory lower stack,
// nearest ancestor first, per spec.md §4.2.1's standard strategy.
func selfLowerChain(e *Engine, name string) ([]string, error) {
	var lower []string
	cur := name
	for {
		dir, err := layout.ContentDir(e.ImagesRoot, cur, manifest.SelfInstance)
		if err != nil {
			return nil, err
		}
		lower = append(lower, dir)

		img, ok := e.Manifest.Images[cur]
		if !ok {
			return nil, stackerr.New(stackerr.KindUnknownImage, "image %q does not exist", cur)
		}
		if img.Parent == nil {
			return lower, nil
		}
		cur = *img.Parent
	}
}

// LegacyStrategy emulates multi-level overlay composition via
// recursive single-lower mounts and a bind-mount fallback for the
// root image, for kernel < 3.19, per spec.md §4.2.1's legacy strategy.
type LegacyStrategy struct{}

func (LegacyStrategy) Mount(e *Engine, name string, instance InstanceID, writable bool) (string, error) {
	depth, err := ancestorDepth(e, name)
	if err != nil {
		return "", err
	}
	if depth+1 > MaxLegacyDepth {
		return "", stackerr.New(stackerr.KindDepthExceeded, "image %q is %d levels deep, legacy strategy supports %d", name, depth+1, MaxLegacyDepth)
	}
	return legacyMount(e, name, instance, writable)
}

func legacyMount(e *Engine, name string, instance InstanceID, writable bool) (string, error) {
	mountPath, err := layout.MountDir(e.ImagesRoot, name, instance.String())
	if err != nil {
		return "", err
	}
	if mounted, err := e.Driver.IsMounted(mountPath); err != nil {
		return "", err
	} else if mounted {
		return mountPath, nil
	}

	upper, err := layout.ContentDir(e.ImagesRoot, name, instance.String())
	if err != nil {
		return "", err
	}
	work, err := layout.WorkingDir(e.ImagesRoot, name, instance.String())
	if err != nil {
		return "", err
	}

	img, ok := e.Manifest.Images[name]
	if !ok {
		return "", stackerr.New(stackerr.KindUnknownImage, "image %q does not exist", name)
	}

	if !instance.IsOwn() {
		// Materialize the image's own read-only base view first.
		if _, err := legacyMount(e, name, Own(), false); err != nil {
			return "", err
		}
		selfMount, err := layout.MountDir(e.ImagesRoot, name, manifest.SelfInstance)
		if err != nil {
			return "", err
		}
		if err := e.Driver.OverlayMount(mountPath, []string{selfMount}, upper, work, !writable); err != nil {
			return "", err
		}
		return mountPath, nil
	}

	if img.Parent == nil {
		// Root image's own base: bind mount upper directly onto mount.
		if err := e.Driver.BindMount(upper, mountPath, !writable); err != nil {
			return "", err
		}
		return mountPath, nil
	}

	if _, err := legacyMount(e, *img.Parent, Own(), false); err != nil {
		return "", err
	}
	parentMount, err := layout.MountDir(e.ImagesRoot, *img.Parent, manifest.SelfInstance)
	if err != nil {
		return "", err
	}
	if err := e.Driver.OverlayMount(mountPath, []string{parentMount}, upper, work, !writable); err != nil {
		return "", err
	}
	return mountPath, nil
}

func (LegacyStrategy) Unmount(e *Engine, name string, instance InstanceID) error {
	mountPath, err := layout.MountDir(e.ImagesRoot, name, instance.String())
	if err != nil {
		return err
	}
	mounted, err := e.Driver.IsMounted(mountPath)
	if err != nil {
		return err
	}
	if !mounted {
		return nil
	}

	if instance.IsOwn() {
		img, ok := e.Manifest.Images[name]
		if !ok {
			return stackerr.New(stackerr.KindUnknownImage, "image %q does not exist", name)
		}
		for _, child := range e.GetChildImages(name) {
			childMount, err := layout.MountDir(e.ImagesRoot, child.Name, manifest.SelfInstance)
			if err != nil {
				return err
			}
			if childMounted, err := e.Driver.IsMounted(childMount); err != nil {
				return err
			} else if childMounted {
				return stackerr.New(stackerr.KindChildrenMounted, "child image %q is still mounted", child.Name)
			}
		}
		for _, inst := range img.Instances {
			instMount, err := layout.MountDir(e.ImagesRoot, name, inst)
			if err != nil {
				return err
			}
			if instMounted, err := e.Driver.IsMounted(instMount); err != nil {
				return err
			} else if instMounted {
				return stackerr.New(stackerr.KindInstancesMounted, "instance %q is still mounted", inst)
			}
		}
	}

	return e.Driver.Unmount(mountPath)
}

// ancestorDepth counts the number of ancestors above name (not
// including name itself), per spec.md §4.2.1's legacy depth check.
func ancestorDepth(e *Engine, name string) (int, error) {
	depth := 0
	cur := name
	for {
		img, ok := e.Manifest.Images[cur]
		if !ok {
			return 0, stackerr.New(stackerr.KindUnknownImage, "image %q does not exist", cur)
		}
		if img.Parent == nil {
			return depth, nil
		}
		depth++
		cur = *img.Parent
	}
}

// Package overlay composes and issues the three mount operations
// spec.md §4.4 assigns to OverlayDriver, shelling out to mount/umount
// through an ExecRunner and probing live mounts through a MountProbe —
// both external collaborators per spec.md §1. Grounded on
// original_source/stacko/point.py and image.py's
// subwrap.run(['mount', ...]) calls, and on
// internal/pkg/util/fs/overlay/overlay_linux.go /
// overlay_set_linux.go's option-string construction.
package overlay

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/wagoodman/stacko/pkg/stackerr"
)

// ExecRunner runs an external binary with arguments and reports its
// outcome. It is the opaque collaborator spec.md §1 calls ExecRunner;
// execRunner (exec_runner.go) is the only implementation stacko ships.
type ExecRunner interface {
	Run(name string, args []string) (stderr string, err error)
}

// MountProbe answers whether a path is currently a live mountpoint. It
// is the opaque collaborator spec.md §1 calls MountProbe;
// procMountProbe (mount_probe_linux.go) is the only implementation
// stacko ships.
type MountProbe interface {
	IsMounted(path string) (bool, error)
}

// Driver is the OverlayDriver of spec.md §4.4.
type Driver struct {
	Runner ExecRunner
	Probe  MountProbe
}

// New returns a Driver using the default, OS-backed ExecRunner and
// MountProbe.
func New() *Driver {
	return &Driver{Runner: execRunner{}, Probe: procMountProbe{}}
}

// IsMounted delegates to the configured MountProbe.
func (d *Driver) IsMounted(path string) (bool, error) {
	return d.Probe.IsMounted(path)
}

// OverlayMount issues a single overlay mount with the given lower
// stack (nearest ancestor first), upper and work directories, per
// spec.md §4.2.1's "single overlay mount with the full lower list plus
// upper and work."
func (d *Driver) OverlayMount(mount string, lower []string, upper, work string, readonly bool) error {
	if err := CheckUpper(upper); err != nil {
		return err
	}
	for _, dir := range lower {
		if err := CheckLower(dir); err != nil {
			return err
		}
	}

	opts := fmt.Sprintf("lowerdir=%s,upperdir=%s,workdir=%s", strings.Join(DedupLower(lower), ":"), upper, work)
	args := []string{"-t", "overlay", "-o", roOrRW(readonly, opts), "overlay", mount}
	return d.run(args)
}

// BindMount issues `mount --bind -o ro|rw src dst`, per spec.md §4.4.
func (d *Driver) BindMount(src, dst string, readonly bool) error {
	args := []string{"--bind", "-o", roOrRW(readonly, ""), src, dst}
	return d.run(args)
}

// Unmount issues `umount path`.
func (d *Driver) Unmount(path string) error {
	stderr, err := d.Runner.Run("umount", []string{path})
	if err != nil {
		return stackerr.Wrap(stackerr.KindMountOperationFail, err, "umount %s: %s", path, stderr)
	}
	return nil
}

func (d *Driver) run(args []string) error {
	stderr, err := d.Runner.Run("mount", args)
	if err != nil {
		return stackerr.Wrap(stackerr.KindMountOperationFail, err, "mount %s: %s", strings.Join(args, " "), stderr)
	}
	return nil
}

func roOrRW(readonly bool, extra string) string {
	mode := "rw"
	if readonly {
		mode = "ro"
	}
	if extra == "" {
		return mode
	}
	return extra + "," + mode
}

// DedupLower removes duplicate lower entries while preserving the
// nearest-ancestor-first order, the same idiom
// overlay_set_linux.go's Set.options applies via lo.FindDuplicatesBy
// before joining the lower stack.
func DedupLower(lower []string) []string {
	seen := make(map[string]struct{}, len(lower))
	return lo.Filter(lower, func(dir string, _ int) bool {
		if _, ok := seen[dir]; ok {
			return false
		}
		seen[dir] = struct{}{}
		return true
	})
}

//go:build linux

package overlay

import (
	"golang.org/x/sys/unix"

	"github.com/wagoodman/stacko/pkg/stackerr"
)

// incompatibleFilesys maps the magic numbers of filesystems that
// cannot back an overlay upper or lower directory to their name, used
// for a readable error. Ported from
// internal/pkg/util/fs/overlay/overlay_linux.go's incompatibleFilesys.
var incompatibleFilesys = map[int64]string{
	0x6969:     "NFS",
	0x65735546: "FUSE",
	0xf15f:     "ecryptfs",
	0x0bd00bd0: "Lustre",
	0x47504653: "GPFS",
	0xaad7aaea: "PanFS",
}

// checkCompatible statfs's dir and refuses if it sits on a filesystem
// known not to support the overlay operations stacko needs from it.
func checkCompatible(dir string) error {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return stackerr.Wrap(stackerr.KindMountOperationFail, err, "statfs %s", dir)
	}
	if name, bad := incompatibleFilesys[int64(st.Type)]; bad {
		return stackerr.New(stackerr.KindMountOperationFail, "%s is on an incompatible filesystem (%s)", dir, name)
	}
	return nil
}

// CheckUpper verifies dir is suitable as an overlay upper directory.
func CheckUpper(dir string) error { return checkCompatible(dir) }

// CheckLower verifies dir is suitable as an overlay lower directory.
func CheckLower(dir string) error { return checkCompatible(dir) }

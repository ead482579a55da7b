package cli

import (
	"errors"
	"os"
)

// requireRoot gates mount-touching commands on effective UID 0, per
// spec.md §6: "Mount-touching commands require effective UID 0;
// exit status 1 otherwise." Generalized here to edit-image,
// close-image, mount-stackpoint and umount-stackpoint, per
// SPEC_FULL.md's supplemented features (the original only gated
// image edit/close). This is a facade-level policy, not a core
// engine error, so it is not part of the stackerr taxonomy.
func requireRoot() error {
	if os.Geteuid() != 0 {
		return errors.New("this command requires root privileges")
	}
	return nil
}

//go:build linux

package overlay

import (
	"bufio"
	"os"
	"strings"
)

// procMountProbe is the default MountProbe, answering against
// /proc/self/mountinfo — the same source
// daemon/graphdriver/overlay2/overlay2.go's mountpk.Mounted(m.path)
// ultimately reads (that subpackage itself was not retrieved; the
// parsing here is local).
type procMountProbe struct{}

func (procMountProbe) IsMounted(path string) (bool, error) {
	f, err := os.Open("/proc/self/mountinfo")
	if err != nil {
		return false, err
	}
	defer f.Close()

	clean := strings.TrimSuffix(path, "/")
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		// Fields: id parent major:minor root mountPoint options ...
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 {
			continue
		}
		mountPoint := strings.TrimSuffix(fields[4], "/")
		if mountPoint == clean {
			return true, nil
		}
	}
	return false, scanner.Err()
}

//go:build linux

// Package kernelprobe detects the running kernel version and selects
// between the legacy and standard overlay mount strategies, grounded
// on original_source/stacko/image.py's
// platform.release().split(".") major/minor comparison and on
// daemon/graphdriver/overlay2/overlay2.go's
// kernel.GetKernelVersion/CompareKernelVersion call pattern (that
// subpackage itself was not retrieved; the comparison here is
// implemented directly against github.com/blang/semver/v4).
package kernelprobe

import (
	"strconv"
	"strings"
	"sync"

	"github.com/blang/semver/v4"
	"github.com/ccoveille/go-safecast"
	"golang.org/x/sys/unix"

	"github.com/wagoodman/stacko/pkg/stackerr"
)

// cutover is the kernel (major, minor) at or above which the standard,
// multi-lower overlay strategy is available.
var cutover = semver.Version{Major: 3, Minor: 19}

var (
	once    sync.Once
	legacy  bool
	probeEr error
)

// IsLegacy reports whether the legacy mount strategy must be used,
// i.e. the running kernel is older than 3.19. The decision is cached
// for the process lifetime. override, when non-nil, short-circuits
// detection entirely — spec.md §4.5's "callers may override via
// configuration (for tests)".
func IsLegacy(override *bool) (bool, error) {
	if override != nil {
		return *override, nil
	}
	once.Do(func() {
		legacy, probeEr = detect()
	})
	return legacy, probeEr
}

func detect() (bool, error) {
	release, err := release()
	if err != nil {
		return false, err
	}
	v, err := parseMajorMinor(release)
	if err != nil {
		return false, err
	}
	return v.LT(cutover), nil
}

func release() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", stackerr.Wrap(stackerr.KindUnsupportedPlatform, err, "reading kernel release")
	}
	return charsToString(uts.Release[:]), nil
}

func charsToString(b []byte) string {
	n := strings.IndexByte(string(b), 0)
	if n < 0 {
		n = len(b)
	}
	return string(b[:n])
}

// parseMajorMinor parses the leading "major.minor" of a kernel release
// string such as "5.15.0-91-generic", ignoring any trailing suffix.
func parseMajorMinor(release string) (semver.Version, error) {
	fields := strings.SplitN(release, ".", 3)
	if len(fields) < 2 {
		return semver.Version{}, stackerr.New(stackerr.KindUnsupportedPlatform, "unparseable kernel release %q", release)
	}
	major, err := parseLeadingInt(fields[0])
	if err != nil {
		return semver.Version{}, stackerr.Wrap(stackerr.KindUnsupportedPlatform, err, "parsing kernel major version %q", release)
	}
	minor, err := parseLeadingInt(fields[1])
	if err != nil {
		return semver.Version{}, stackerr.Wrap(stackerr.KindUnsupportedPlatform, err, "parsing kernel minor version %q", release)
	}
	umajor, err := safecast.ToUint64(major)
	if err != nil {
		return semver.Version{}, stackerr.Wrap(stackerr.KindUnsupportedPlatform, err, "major version out of range %q", release)
	}
	uminor, err := safecast.ToUint64(minor)
	if err != nil {
		return semver.Version{}, stackerr.Wrap(stackerr.KindUnsupportedPlatform, err, "minor version out of range %q", release)
	}
	return semver.Version{Major: umajor, Minor: uminor}, nil
}

// parseLeadingInt parses the leading run of digits in s, stopping at
// the first non-digit rune (kernel release fields sometimes carry a
// "-rc1" style suffix).
func parseLeadingInt(s string) (int, error) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(s[:end])
}

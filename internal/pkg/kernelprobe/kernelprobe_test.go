//go:build linux

package kernelprobe

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestParseMajorMinor(t *testing.T) {
	cases := []struct {
		release string
		major   uint64
		minor   uint64
	}{
		{"5.15.0-91-generic", 5, 15},
		{"3.10.0-1160.el7.x86_64", 3, 10},
		{"3.19.0", 3, 19},
		{"4.9", 4, 9},
	}
	for _, c := range cases {
		v, err := parseMajorMinor(c.release)
		assert.NilError(t, err)
		assert.Equal(t, v.Major, c.major)
		assert.Equal(t, v.Minor, c.minor)
	}
}

func TestParseMajorMinorRejectsGarbage(t *testing.T) {
	_, err := parseMajorMinor("not-a-kernel")
	assert.ErrorContains(t, err, "UnsupportedPlatform")
}

func TestCutoverComparison(t *testing.T) {
	v, err := parseMajorMinor("3.10.0")
	assert.NilError(t, err)
	assert.Assert(t, v.LT(cutover))

	v, err = parseMajorMinor("5.0.0")
	assert.NilError(t, err)
	assert.Assert(t, !v.LT(cutover))
}

func TestIsLegacyOverride(t *testing.T) {
	yes := true
	legacy, err := IsLegacy(&yes)
	assert.NilError(t, err)
	assert.Assert(t, legacy)

	no := false
	legacy, err = IsLegacy(&no)
	assert.NilError(t, err)
	assert.Assert(t, !legacy)
}

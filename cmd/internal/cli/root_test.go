package cli

import (
	"bytes"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/wagoodman/stacko/pkg/manifest"
)

func TestPrintImageTreeOrdersParentBeforeChild(t *testing.T) {
	appParent := "base"
	images := []*manifest.Image{
		{Name: "app", Parent: &appParent},
		{Name: "base"},
	}

	var buf bytes.Buffer
	cmd := newImageCmd()
	cmd.SetOut(&buf)
	printImageTree(cmd, images)

	out := buf.String()
	assert.Assert(t, strings.Contains(out, "base"))
	assert.Assert(t, strings.Contains(out, "app"))
	assert.Assert(t, strings.Index(out, "base") < strings.Index(out, "app"))
}

func TestCurrentConfigAppliesOverrides(t *testing.T) {
	imagesDirFlag = "/tmp/custom-images"
	defer func() { imagesDirFlag = "" }()

	cfg := currentConfig()
	assert.Equal(t, cfg.ImagesDir, "/tmp/custom-images")
}

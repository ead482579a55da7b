package manifest

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestValidateName(t *testing.T) {
	assert.NilError(t, ValidateName("base"))
	assert.NilError(t, ValidateName("app-2"))
	assert.NilError(t, ValidateName(SelfInstance))

	assert.ErrorContains(t, ValidateName(""), "empty")
	assert.ErrorContains(t, ValidateName("a/b"), "path separator")
	assert.ErrorContains(t, ValidateName(".hidden"), "dot")
	assert.ErrorContains(t, ValidateName("Not Slug"), "slug")
}

func TestImageHasInstance(t *testing.T) {
	img := &Image{Name: "base", Instances: []string{"prod", "staging"}}
	assert.Assert(t, img.HasInstance("prod"))
	assert.Assert(t, !img.HasInstance("dev"))
}

func TestStackpointInHistory(t *testing.T) {
	p := &Stackpoint{Name: "prod", ImageHistory: []string{"app", "base"}}
	assert.Assert(t, p.InHistory("base"))
	assert.Assert(t, !p.InHistory("missing"))
}

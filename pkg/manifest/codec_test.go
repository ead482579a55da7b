package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"gotest.tools/v3/assert"
)

func strptr(s string) *string { return &s }

func writeFile(dir, name string, data []byte) error {
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

func TestJSONCodecRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := New()
	m.Images["base"] = &Image{Name: "base", Instances: []string{"prod"}}
	m.Images["app"] = &Image{Name: "app", Parent: strptr("base"), Instances: []string{}}
	m.Points["prod"] = &Stackpoint{Name: "prod", ImageHistory: []string{"app"}, CurrentImage: "app"}

	codec := JSONCodec{}
	assert.NilError(t, codec.Store(dir, m))

	loaded, err := codec.Load(dir)
	assert.NilError(t, err)
	assert.DeepEqual(t, loaded.Images["base"], m.Images["base"])
	assert.DeepEqual(t, loaded.Images["app"], m.Images["app"])
	assert.DeepEqual(t, loaded.Points["prod"], m.Points["prod"])
}

func TestJSONCodecLoadEmptyDir(t *testing.T) {
	dir := t.TempDir()
	codec := JSONCodec{}

	m, err := codec.Load(dir)
	assert.NilError(t, err)
	assert.Equal(t, len(m.Images), 0)
	assert.Equal(t, len(m.Points), 0)
}

func TestJSONCodecCorruptManifest(t *testing.T) {
	dir := t.TempDir()
	assert.NilError(t, writeFile(dir, "images.json", []byte("not json")))

	_, err := (JSONCodec{}).Load(dir)
	assert.ErrorContains(t, err, "CorruptManifest")
}

func TestJSONCodecGolden(t *testing.T) {
	g := goldie.New(t)
	images := []*Image{{Name: "base", Instances: []string{}}}

	data, err := json.MarshalIndent(images, "", "  ")
	assert.NilError(t, err)
	g.Assert(t, "images", data)
}

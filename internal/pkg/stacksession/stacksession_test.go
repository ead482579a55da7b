package stacksession

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/wagoodman/stacko/internal/pkg/overlay"
	"github.com/wagoodman/stacko/pkg/manifest"
	"github.com/wagoodman/stacko/pkg/stackoconf"
)

type fakeProbe struct{}

func (fakeProbe) IsMounted(string) (bool, error) { return false, nil }

type fakeRunner struct{}

func (fakeRunner) Run(string, []string) (string, error) { return "", nil }

func newTestConfig(t *testing.T) *stackoconf.Config {
	t.Helper()
	cfg := stackoconf.Default(t.TempDir())
	cfg.LockPath = cfg.MetadataDir + ".lock"
	forceLegacy := false
	cfg.ForceLegacy = &forceLegacy
	return cfg
}

func TestRunCommitsOnSuccess(t *testing.T) {
	cfg := newTestConfig(t)
	codec := manifest.JSONCodec{}
	driver := &overlay.Driver{Runner: fakeRunner{}, Probe: fakeProbe{}}

	err := Run(context.Background(), cfg, codec, driver, func(s *Session) error {
		return s.Images.NewImage("base", nil)
	})
	assert.NilError(t, err)

	loaded, err := codec.Load(cfg.MetadataDir)
	assert.NilError(t, err)
	_, ok := loaded.Images["base"]
	assert.Assert(t, ok)
}

func TestRunDoesNotFlushOnFailure(t *testing.T) {
	cfg := newTestConfig(t)
	codec := manifest.JSONCodec{}
	driver := &overlay.Driver{Runner: fakeRunner{}, Probe: fakeProbe{}}

	err := Run(context.Background(), cfg, codec, driver, func(s *Session) error {
		return s.Images.DeleteImage("missing")
	})
	assert.ErrorContains(t, err, "UnknownImage")

	loaded, err := codec.Load(cfg.MetadataDir)
	assert.NilError(t, err)
	assert.Equal(t, len(loaded.Images), 0)
}

package imageengine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/wagoodman/stacko/internal/pkg/layout"
	"github.com/wagoodman/stacko/internal/pkg/overlay"
	"github.com/wagoodman/stacko/pkg/manifest"
	"github.com/wagoodman/stacko/pkg/stackerr"
)

type fakeProbe struct{ mounted map[string]bool }

func (f *fakeProbe) IsMounted(path string) (bool, error) { return f.mounted[path], nil }

type fakeRunner struct{ calls [][]string }

func (f *fakeRunner) Run(name string, args []string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return "", nil
}

func newTestEngine(t *testing.T, strategy MountStrategy) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	m := manifest.New()
	driver := &overlay.Driver{Runner: &fakeRunner{}, Probe: &fakeProbe{mounted: map[string]bool{}}}
	return New(m, driver, root, strategy), root
}

func TestNewImageCreatesSkeleton(t *testing.T) {
	e, root := newTestEngine(t, StandardStrategy{})

	assert.NilError(t, e.NewImage("base", nil))

	for _, leaf := range []string{"content", "mount", "working"} {
		assert.Assert(t, dirExists(filepath.Join(root, "base", ".self", leaf)))
	}
	assert.DeepEqual(t, e.Manifest.Images["base"].Instances, []string{})
}

func TestNewImageDuplicate(t *testing.T) {
	e, _ := newTestEngine(t, StandardStrategy{})
	assert.NilError(t, e.NewImage("base", nil))

	err := e.NewImage("base", nil)
	assert.Assert(t, stackerr.OfKind(err, stackerr.KindDuplicateImage))
}

func TestNewImageUnknownParent(t *testing.T) {
	e, _ := newTestEngine(t, StandardStrategy{})
	err := e.NewImage("app", strptr("base"))
	assert.Assert(t, stackerr.OfKind(err, stackerr.KindUnknownImage))
}

func TestDeleteImageRefusesChildren(t *testing.T) {
	e, _ := newTestEngine(t, StandardStrategy{})
	assert.NilError(t, e.NewImage("base", nil))
	assert.NilError(t, e.NewImage("app", strptr("base")))

	err := e.DeleteImage("base")
	assert.Assert(t, stackerr.OfKind(err, stackerr.KindHasChildren))
}

func TestDeleteImageRefusesInstances(t *testing.T) {
	e, _ := newTestEngine(t, StandardStrategy{})
	assert.NilError(t, e.NewImage("base", nil))
	assert.NilError(t, e.NewImageInstance("base", Named("prod"), false))

	err := e.DeleteImage("base")
	assert.Assert(t, stackerr.OfKind(err, stackerr.KindHasInstances))
}

func TestDeleteImageSucceeds(t *testing.T) {
	e, root := newTestEngine(t, StandardStrategy{})
	assert.NilError(t, e.NewImage("base", nil))

	assert.NilError(t, e.DeleteImage("base"))
	assert.Assert(t, !dirExists(filepath.Join(root, "base")))
	_, exists := e.Manifest.Images["base"]
	assert.Assert(t, !exists)
}

func TestNewImageInstanceReservedRequiresForce(t *testing.T) {
	e, root := newTestEngine(t, StandardStrategy{})
	assert.NilError(t, e.NewImage("base", nil))

	err := e.NewImageInstance("base", Own(), false)
	assert.Assert(t, stackerr.OfKind(err, stackerr.KindReservedInstance))

	// Forced creation recreates a missing .self; an existing one is a LayoutMismatch.
	assert.NilError(t, os.RemoveAll(filepath.Join(root, "base", ".self")))
	assert.NilError(t, e.NewImageInstance("base", Own(), true))
}

func TestNewImageInstanceDuplicate(t *testing.T) {
	e, _ := newTestEngine(t, StandardStrategy{})
	assert.NilError(t, e.NewImage("base", nil))
	assert.NilError(t, e.NewImageInstance("base", Named("prod"), false))

	err := e.NewImageInstance("base", Named("prod"), false)
	assert.Assert(t, stackerr.OfKind(err, stackerr.KindDuplicateInstance))
}

func TestDeleteImageInstanceMounted(t *testing.T) {
	e, root := newTestEngine(t, StandardStrategy{})
	assert.NilError(t, e.NewImage("base", nil))
	assert.NilError(t, e.NewImageInstance("base", Named("prod"), false))

	mountPath, err := layout.MountDir(root, "base", "prod")
	assert.NilError(t, err)
	e.Driver.Probe.(*fakeProbe).mounted[mountPath] = true

	err = e.DeleteImageInstance("base", Named("prod"), false)
	assert.Assert(t, stackerr.OfKind(err, stackerr.KindInstanceMounted))
}

func TestListInstancesNeverIncludesSelf(t *testing.T) {
	e, _ := newTestEngine(t, StandardStrategy{})
	assert.NilError(t, e.NewImage("base", nil))
	assert.NilError(t, e.NewImageInstance("base", Named("prod"), false))

	instances, err := e.ListInstances("base")
	assert.NilError(t, err)
	assert.DeepEqual(t, instances, []string{"prod"})
}

func TestStandardMountBuildsLowerChain(t *testing.T) {
	e, root := newTestEngine(t, StandardStrategy{})
	assert.NilError(t, e.NewImage("base", nil))
	assert.NilError(t, e.NewImage("mid", strptr("base")))
	assert.NilError(t, e.NewImage("app", strptr("mid")))
	assert.NilError(t, e.NewImageInstance("app", Named("p"), false))

	mountPath, err := e.MountInstance("app", Named("p"), true)
	assert.NilError(t, err)
	assert.Equal(t, mountPath, filepath.Join(root, "app", "p", "mount"))

	runner := e.Driver.Runner.(*fakeRunner)
	assert.Equal(t, len(runner.calls), 1)
	assert.Assert(t, containsAll(runner.calls[0],
		filepath.Join(root, "app", ".self", "content")+":"+
			filepath.Join(root, "mid", ".self", "content")+":"+
			filepath.Join(root, "base", ".self", "content")))
}

func TestStandardMountIdempotent(t *testing.T) {
	e, root := newTestEngine(t, StandardStrategy{})
	assert.NilError(t, e.NewImage("base", nil))

	mountPath, err := layout.MountDir(root, "base", manifest.SelfInstance)
	assert.NilError(t, err)
	e.Driver.Probe.(*fakeProbe).mounted[mountPath] = true

	got, err := e.MountInstance("base", Own(), true)
	assert.NilError(t, err)
	assert.Equal(t, got, mountPath)
	assert.Equal(t, len(e.Driver.Runner.(*fakeRunner).calls), 0)
}

func TestLegacyDepthExceeded(t *testing.T) {
	e, _ := newTestEngine(t, LegacyStrategy{})
	assert.NilError(t, e.NewImage("a", nil))
	assert.NilError(t, e.NewImage("b", strptr("a")))
	assert.NilError(t, e.NewImage("c", strptr("b")))

	_, err := e.MountImage("c", true)
	assert.Assert(t, stackerr.OfKind(err, stackerr.KindDepthExceeded))
}

func TestLegacyMountsViaRecursiveBind(t *testing.T) {
	e, root := newTestEngine(t, LegacyStrategy{})
	assert.NilError(t, e.NewImage("a", nil))
	assert.NilError(t, e.NewImage("b", strptr("a")))

	mountPath, err := e.MountImage("b", true)
	assert.NilError(t, err)
	assert.Equal(t, mountPath, filepath.Join(root, "b", ".self", "mount"))

	runner := e.Driver.Runner.(*fakeRunner)
	assert.Equal(t, len(runner.calls), 2)
	assert.Equal(t, runner.calls[0][0], "mount")
	assert.Assert(t, containsAll(runner.calls[0], "--bind"))
	assert.Assert(t, containsAll(runner.calls[1], "overlay"))
}

func TestMountInstanceUnknownInstance(t *testing.T) {
	e, _ := newTestEngine(t, StandardStrategy{})
	assert.NilError(t, e.NewImage("base", nil))

	_, err := e.MountInstance("base", Named("missing"), true)
	assert.Assert(t, stackerr.OfKind(err, stackerr.KindUnknownInstance))

	runner := e.Driver.Runner.(*fakeRunner)
	assert.Equal(t, len(runner.calls), 0)
}

func strptr(s string) *string { return &s }

func containsAll(args []string, want string) bool {
	for _, a := range args {
		if strings.Contains(a, want) {
			return true
		}
	}
	return false
}

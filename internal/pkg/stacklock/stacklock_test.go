package stacklock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stacksDb.lock")
	l := New(path)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NilError(t, l.Acquire(ctx))
	assert.NilError(t, l.Release())
}

func TestAcquireBlocksConcurrentHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stacksDb.lock")
	first := New(path)
	second := New(path)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NilError(t, first.Acquire(ctx))

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer waitCancel()
	assert.ErrorIs(t, second.Acquire(waitCtx), context.DeadlineExceeded)

	assert.NilError(t, first.Release())
}

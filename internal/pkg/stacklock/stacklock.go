// Package stacklock provides the cross-process advisory lock guarding
// ManifestStore sessions, grounded on
// original_source/stacko/classDb.py's
// @fasteners.interprocess_locked('/tmp/stacksDb.lock') decorator around
// main(), implemented against github.com/gofrs/flock.
package stacklock

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// pollInterval is how often Acquire retries the non-blocking try-lock
// while waiting for a concurrent session to release.
const pollInterval = 25 * time.Millisecond

// Lock is a blocking, cross-process advisory lock on a fixed path.
type Lock struct {
	fl *flock.Flock
}

// New returns a Lock on path. The lock file is created on first
// acquisition if it does not already exist.
func New(path string) *Lock {
	return &Lock{fl: flock.New(path)}
}

// Acquire blocks until the lock is held or ctx is done. Scope per
// spec.md §4.1: load -> mutate -> flush -> release.
func (l *Lock) Acquire(ctx context.Context) error {
	_, err := l.fl.TryLockContext(ctx, pollInterval)
	return err
}

// Release unlocks the file. Safe to call even if Acquire failed.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

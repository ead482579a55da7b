// Package stacksession implements the session facade: acquire the
// cross-process lock, load the manifest, construct the engines, run
// one operation, flush the manifest, release the lock. Grounded on
// original_source/stacko/classDb.py's locked main(), resolving spec.md
// §9's note to thread the ManifestStore and engines through a session
// value created inside the lock guard rather than process globals.
package stacksession

import (
	"context"

	"github.com/google/uuid"

	"github.com/wagoodman/stacko/internal/pkg/imageengine"
	"github.com/wagoodman/stacko/internal/pkg/kernelprobe"
	"github.com/wagoodman/stacko/internal/pkg/overlay"
	"github.com/wagoodman/stacko/internal/pkg/stacklock"
	"github.com/wagoodman/stacko/internal/pkg/stackpointengine"
	"github.com/wagoodman/stacko/pkg/manifest"
	"github.com/wagoodman/stacko/pkg/stackoconf"
	"github.com/wagoodman/stacko/pkg/stlog"
)

// Session bundles the manifest and the two engines for the duration of
// one locked operation.
type Session struct {
	ID       string
	Manifest *manifest.Manifest
	Images   *imageengine.Engine
	Points   *stackpointengine.Engine
}

// Run acquires cfg.LockPath, loads the manifest, constructs a Session,
// invokes fn, flushes the manifest on success, and releases the lock.
// If fn returns an error the manifest is not written, per spec.md
// §4.1's "on any failure after load but before flush, the manifest is
// not written."
func Run(ctx context.Context, cfg *stackoconf.Config, codec manifest.Codec, driver *overlay.Driver, fn func(*Session) error) error {
	id := uuid.NewString()
	log := stlog.WithField("session", id)

	lock := stacklock.New(cfg.LockPath)
	log.Debug("acquiring lock")
	if err := lock.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warnf("releasing lock: %s", err)
		}
	}()

	m, err := codec.Load(cfg.MetadataDir)
	if err != nil {
		return err
	}

	legacy, err := kernelprobe.IsLegacy(cfg.ForceLegacy)
	if err != nil {
		return err
	}
	var strategy imageengine.MountStrategy = imageengine.StandardStrategy{}
	if legacy {
		strategy = imageengine.LegacyStrategy{}
	}

	images := imageengine.New(m, driver, cfg.ImagesDir, strategy)
	points := stackpointengine.New(m, images, driver, cfg.MountsDir)

	sess := &Session{ID: id, Manifest: m, Images: images, Points: points}

	if err := fn(sess); err != nil {
		log.Warnf("session failed, manifest not flushed: %s", err)
		return err
	}

	if err := codec.Store(cfg.MetadataDir, m); err != nil {
		return err
	}
	log.Debug("session committed")
	return nil
}

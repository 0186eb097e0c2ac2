package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/stacklok/toolhive-bundle-sync/internal/changelog"
	"github.com/stacklok/toolhive-bundle-sync/internal/db"
	"github.com/stacklok/toolhive-bundle-sync/internal/discovery"
	"github.com/stacklok/toolhive-bundle-sync/internal/notify"
	"github.com/stacklok/toolhive-bundle-sync/internal/prefs"
	"github.com/stacklok/toolhive-bundle-sync/internal/push"
	"github.com/stacklok/toolhive-bundle-sync/internal/remote"
	"github.com/stacklok/toolhive-bundle-sync/internal/repository"
	pkgsync "github.com/stacklok/toolhive-bundle-sync/internal/sync"
	"github.com/stacklok/toolhive-bundle-sync/internal/sync/coordinator"
	"github.com/stacklok/toolhive-bundle-sync/internal/telemetry"
)

// Components groups everything the service runs
//
//nolint:revive // This name is fine
type Components struct {
	// Database holds the durable bundle records
	Database *db.Connection

	// Prefs are the mutable user preferences
	Prefs *prefs.Store

	// Repository owns the bundle state
	Repository *repository.Repository

	// Pipeline runs update passes
	Pipeline *pkgsync.Pipeline

	// Coordinator schedules the periodic bundle and manager checks
	Coordinator coordinator.Coordinator

	// Imports is the discovery import queue
	Imports *discovery.Queue

	// Push is the change-feed subscription; nil when no endpoint is configured
	Push *push.Coordinator

	// Discovery queries the external bundle service
	Discovery *remote.DiscoveryClient

	Notices   *notify.Ring
	Changelog *changelog.Store
	Telemetry *telemetry.Telemetry

	// cancel stops the pipeline and the import queue
	cancel context.CancelFunc
}

// Close stops background work and releases the database and telemetry providers.
// The preference watcher stops with the context it was started on.
func (c *Components) Close(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.Imports != nil {
		c.Imports.Wait()
	}

	var errs []error
	if c.Database != nil {
		if err := c.Database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

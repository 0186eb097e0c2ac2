// Package v1 provides the bundle, update, discovery and push handlers of the
// control API.
package v1

import (
	"context"
	"io"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/changelog"
	"github.com/stacklok/toolhive-bundle-sync/internal/discovery"
	"github.com/stacklok/toolhive-bundle-sync/internal/notify"
	"github.com/stacklok/toolhive-bundle-sync/internal/push"
	"github.com/stacklok/toolhive-bundle-sync/internal/repository"
	pkgsync "github.com/stacklok/toolhive-bundle-sync/internal/sync"
)

//go:generate mockgen -destination=mocks/mock_services.go -package=mocks -source=services.go Bundles,Imports,Catalog,Push,Notices,Changelog

// Bundles is the bundle repository
type Bundles interface {
	State() repository.State
	CreateRemote(ctx context.Context, url string, autoUpdate bool, onProgress bundles.ProgressFunc) (int, error)
	CreateLocal(ctx context.Context, content io.Reader) (int, error)
	Remove(ctx context.Context, uids ...int) error
	SetDisplayName(ctx context.Context, uid int, displayName string) (repository.DisplayNameResult, error)
	SetAutoUpdate(ctx context.Context, uid int, autoUpdate bool) error
	Reorder(ctx context.Context, prioritized []int) error
	Reset(ctx context.Context) error
	RestoreDefault(ctx context.Context) error
}

// Imports is the discovery import queue
type Imports interface {
	Enqueue(item discovery.Item) discovery.Outcome
	Progress() *discovery.Progress
	CancelCurrent()
}

// Catalog searches the external bundle discovery service
type Catalog interface {
	Search(ctx context.Context, packageName string, limit, offset int) ([]bundles.ExternalSnapshot, error)
}

// Push is the push subscription coordinator
type Push interface {
	Status() push.Status
	SetForeground(foreground bool)
}

// Notices returns the recent user-visible notices
type Notices interface {
	Recent() []notify.Notice
}

// Changelog reads the release history kept in a bundle directory
type Changelog interface {
	Read(dir string) ([]changelog.Entry, error)
}

// Services are the collaborators behind the routes. Imports, Catalog and Push
// may be nil when the feature is turned off.
type Services struct {
	Bundles   Bundles
	Updates   pkgsync.Manager
	Imports   Imports
	Catalog   Catalog
	Push      Push
	Notices   Notices
	Changelog Changelog
}

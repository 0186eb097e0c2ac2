package sync

import (
	"context"
	"errors"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

// Update phases reported through Error
const (
	PhaseChecking    Phase = "Checking"
	PhaseDownloading Phase = "Downloading"
	PhaseFinalizing  Phase = "Finalizing"
)

// Terminal phases of a pass
const (
	PhaseCompleted Phase = "Completed"
	PhaseFailed    Phase = "Failed"
)

// Phase is the step a pass is in
type Phase string

// ErrNetworkUnavailable is returned to waiters of a pass skipped by the network gate
var ErrNetworkUnavailable = errors.New("network unavailable or metered")

// errBundleCancelled aborts the download of one cancelled bundle
var errBundleCancelled = errors.New("bundle update cancelled")

// Error represents the failure of one bundle inside a pass
type Error struct {
	UID     int
	Phase   Phase
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ManualUpdate describes a newer release of a bundle that is not updated automatically
type ManualUpdate struct {
	LatestVersion string `json:"latestVersion"`
	PageURL       string `json:"pageUrl,omitempty"`
}

// Manager runs update passes for Remote bundles
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/toolhive-bundle-sync/internal/sync Manager
type Manager interface {
	// Request starts a pass, or merges req into the pending one when a pass is running
	Request(ctx context.Context, req Request)

	// RequestAndWait is Request followed by waiting for the pass that serves req
	RequestAndWait(ctx context.Context, req Request) error

	// Cancel stops the updates of uids in the running pass
	Cancel(uids ...int)

	// Progress returns the progress of the running pass, or nil
	Progress() *Progress

	// CheckManualUpdates refreshes the manual update entries of uids, or of every
	// bundle with auto-update turned off when none are given
	CheckManualUpdates(ctx context.Context, uids ...int) error

	// ManualUpdates returns the known manual updates by bundle uid
	ManualUpdates() map[int]ManualUpdate
}

// AutoUpdateOnly selects the bundles with auto-update turned on
func AutoUpdateOnly(r bundles.Remote) bool {
	return r.AutoUpdate()
}

// UpdateCheck requests a pass over the auto-update bundles and refreshes the
// manual update entries of the others
func UpdateCheck(ctx context.Context, m Manager) error {
	m.Request(ctx, Request{Predicate: AutoUpdateOnly})
	return m.CheckManualUpdates(ctx)
}

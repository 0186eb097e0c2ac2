package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/notify"
	"github.com/stacklok/toolhive-bundle-sync/internal/prefs"
	pkgsync "github.com/stacklok/toolhive-bundle-sync/internal/sync"
)

//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks -source=coordinator.go Preferences,ManagerChecker,Coordinator

// Preferences are the user preferences the coordinator schedules by
type Preferences interface {
	BundleCheckInterval() prefs.Interval
	ManagerCheckInterval() prefs.Interval
	UseManagerPrereleases() bool
	Subscribe() (<-chan struct{}, func())
}

// ManagerChecker looks for a newer release of the manager
type ManagerChecker interface {
	// Check returns nil when the running version is the latest
	Check(ctx context.Context, includePrerelease bool) (*bundles.ReleaseInfo, error)
}

// Coordinator manages the periodic update checks
type Coordinator interface {
	// Start runs the check loops. Blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the loops
	Stop() error

	// BundleCheck runs one bundle update check now
	BundleCheck(ctx context.Context)

	// ManagerCheck runs one manager self-update check now
	ManagerCheck(ctx context.Context)

	// ManagerUpdate returns the newest manager release found, or nil
	ManagerUpdate() *bundles.ReleaseInfo
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager  pkgsync.Manager
	prefs    Preferences
	checker  ManagerChecker
	notifier notify.Notifier

	// Lifecycle management
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}

	updateMu      sync.Mutex
	managerUpdate *bundles.ReleaseInfo
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithManagerChecker enables the manager self-update loop
func WithManagerChecker(checker ManagerChecker) Option {
	return func(c *defaultCoordinator) {
		c.checker = checker
	}
}

// WithNotifier sets where newly found manager releases are announced
func WithNotifier(n notify.Notifier) Option {
	return func(c *defaultCoordinator) {
		c.notifier = n
	}
}

// New creates a new coordinator with injected dependencies
func New(manager pkgsync.Manager, p Preferences, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		manager:  manager,
		prefs:    p,
		notifier: notify.Discard{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start runs the bundle loop and, when a checker is configured, the manager loop
func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		return fmt.Errorf("coordinator already started")
	}
	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	slog.Info("Starting update check coordinator",
		"bundle_interval", c.prefs.BundleCheckInterval().String(),
		"manager_interval", c.prefs.ManagerCheckInterval().String(),
	)
	defer func() {
		close(done)
		slog.Info("Update check coordinator shutting down")
	}()

	var wg sync.WaitGroup
	if c.checker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.runLoop(coordCtx, "manager", c.prefs.ManagerCheckInterval, c.ManagerCheck)
		}()
	}
	c.runLoop(coordCtx, "bundle", c.prefs.BundleCheckInterval, c.BundleCheck)
	wg.Wait()
	return nil
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel, done := c.cancelFunc, c.done
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping update check coordinator")
		cancel()
		// Wait for coordinator to finish
		<-done
	}
	return nil
}

// runLoop performs check once at start and then every jittered interval. A
// preference change that alters the interval restarts the wait.
func (c *defaultCoordinator) runLoop(
	ctx context.Context, name string, interval func() prefs.Interval, check func(context.Context),
) {
	changes, unsubscribe := c.prefs.Subscribe()
	defer unsubscribe()

	current := interval()
	if !current.IsNever() {
		check(ctx)
	}

	for {
		var (
			timer *time.Timer
			tick  <-chan time.Time
		)
		if current.IsNever() {
			slog.Debug("Update check disabled", "loop", name)
		} else {
			wait := calculateInterval(current.Duration())
			slog.Debug("Scheduled update check", "loop", name, "interval", current.String(), "wait", wait)
			timer = time.NewTimer(wait)
			tick = timer.C
		}

		fired := c.waitForTick(ctx, tick, changes, interval, &current)
		if timer != nil {
			timer.Stop()
		}
		if ctx.Err() != nil {
			slog.Info("Update check loop stopping", "loop", name)
			return
		}
		if fired {
			check(ctx)
		}
	}
}

// waitForTick returns true when tick fired and false when the interval changed
// or ctx was cancelled
func (*defaultCoordinator) waitForTick(
	ctx context.Context, tick <-chan time.Time, changes <-chan struct{},
	interval func() prefs.Interval, current *prefs.Interval,
) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-tick:
			return true
		case <-changes:
			next := interval()
			if next != *current {
				*current = next
				return false
			}
		}
	}
}

// BundleCheck requests an update pass over the auto-update bundles and checks
// the manual ones
func (c *defaultCoordinator) BundleCheck(ctx context.Context) {
	slog.Info("Running bundle update check")
	if err := pkgsync.UpdateCheck(ctx, c.manager); err != nil && ctx.Err() == nil {
		slog.Error("Manual update check failed", "error", err)
	}
}

// ManagerCheck looks for a newer manager release and announces each new one once
func (c *defaultCoordinator) ManagerCheck(ctx context.Context) {
	if c.checker == nil {
		return
	}
	info, err := c.checker.Check(ctx, c.prefs.UseManagerPrereleases())
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("Manager update check failed", "error", err)
		}
		return
	}
	if info == nil {
		slog.Debug("Manager is up to date")
		return
	}

	c.updateMu.Lock()
	known := c.managerUpdate != nil && c.managerUpdate.Version == info.Version
	c.managerUpdate = info
	c.updateMu.Unlock()

	if !known {
		slog.Info("Manager update available", "version", info.Version)
		c.notifier.Notify(notify.LevelInfo, fmt.Sprintf("Manager update available: %s", info.Version))
	}
}

// ManagerUpdate returns the newest manager release found, or nil
func (c *defaultCoordinator) ManagerUpdate() *bundles.ReleaseInfo {
	c.updateMu.Lock()
	defer c.updateMu.Unlock()
	if c.managerUpdate == nil {
		return nil
	}
	cp := *c.managerUpdate
	return &cp
}

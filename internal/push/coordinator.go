package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"github.com/stacklok/toolhive-bundle-sync/internal/network"
	"github.com/stacklok/toolhive-bundle-sync/internal/prefs"
	"github.com/stacklok/toolhive-bundle-sync/internal/telemetry"
)

//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks -source=coordinator.go Preferences,Checks

const (
	// DefaultIdleTimeout closes a connection that received nothing for this long
	DefaultIdleTimeout = 90 * time.Second
	// DefaultHealthCheckInterval is how often the idle timeout is checked
	DefaultHealthCheckInterval = 15 * time.Second
	// DefaultMinTriggerInterval is the minimum spacing between two triggers
	DefaultMinTriggerInterval = 60 * time.Second
	// DefaultNetworkRetryDelay is the wait between network checks while offline
	DefaultNetworkRetryDelay = 10 * time.Second

	baseReconnectDelay = 2 * time.Second
	maxReconnectDelay  = 60 * time.Second
	dialTimeout        = 15 * time.Second
)

// Trigger outcomes recorded by the push metrics
const (
	outcomeTriggered = "triggered"
	outcomeStatus    = "ignored_status"
	outcomeDuplicate = "duplicate"
	outcomeThrottled = "throttled"
	outcomeDisabled  = "disabled"
)

// Preferences are the user preferences the coordinator reacts to
type Preferences interface {
	BundleCheckInterval() prefs.Interval
	ManagerCheckInterval() prefs.Interval
	DeliveryMode() prefs.DeliveryMode
	LastRefreshCursor() string
	SetLastRefreshCursor(startedAt string) error
	Subscribe() (<-chan struct{}, func())
}

// Checks runs the update checks a trigger launches
type Checks interface {
	BundleCheck(ctx context.Context)
	ManagerCheck(ctx context.Context)
}

// Status is the externally visible push state
type Status struct {
	Desired        DesiredState `json:"desired"`
	Foreground     bool         `json:"foreground"`
	ServiceRunning bool         `json:"serviceRunning"`
	Connected      bool         `json:"connected"`
	Endpoint       string       `json:"endpoint,omitempty"`
	Protocol       string       `json:"protocol,omitempty"`
	LastTriggerAt  *time.Time   `json:"lastTriggerAt,omitempty"`
}

// Coordinator owns the push subscription lifecycle
type Coordinator struct {
	endpoints []string
	prefs     Preferences
	checks    Checks
	monitor   network.Monitor
	service   ForegroundService
	metrics   *telemetry.PushMetrics
	dialer    *websocket.Dialer
	now       func() time.Time

	idleTimeout    time.Duration
	healthInterval time.Duration
	minTrigger     time.Duration
	networkRetry   time.Duration
	newBackOff     func() backoff.BackOff

	foregroundCh chan struct{}

	// Lifecycle management
	lifeMu     sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}

	// mu guards the applied state; only the Start goroutine changes it
	mu             sync.Mutex
	foreground     bool
	desired        DesiredState
	serviceRunning bool
	serviceListen  [2]bool
	loopCancel     context.CancelFunc
	loopDone       chan struct{}

	connMu    sync.Mutex
	connected bool
	endpoint  string
	protocol  Protocol

	triggerMu     sync.Mutex
	lastTriggerAt time.Time
	// checksCtx outlives socket sessions so a check survives a reconnect
	checksCtx context.Context
	checksWG  sync.WaitGroup
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithNetworkMonitor gates dialing on network availability
func WithNetworkMonitor(m network.Monitor) Option {
	return func(c *Coordinator) {
		c.monitor = m
	}
}

// WithForegroundService replaces the default keep-alive
func WithForegroundService(s ForegroundService) Option {
	return func(c *Coordinator) {
		c.service = s
	}
}

// WithMetrics records triggers and reconnects
func WithMetrics(m *telemetry.PushMetrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithTimings overrides the idle timeout, health check interval, minimum
// trigger spacing and offline retry delay. Zero values keep the defaults.
func WithTimings(idle, health, minTrigger, networkRetry time.Duration) Option {
	return func(c *Coordinator) {
		if idle > 0 {
			c.idleTimeout = idle
		}
		if health > 0 {
			c.healthInterval = health
		}
		if minTrigger > 0 {
			c.minTrigger = minTrigger
		}
		if networkRetry > 0 {
			c.networkRetry = networkRetry
		}
	}
}

// WithBackOff replaces the reconnect delay policy
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Coordinator) {
		c.newBackOff = newBackOff
	}
}

// WithClock replaces the time source used by the trigger throttle
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// New creates a coordinator rotating over endpoints
func New(endpoints []string, p Preferences, checks Checks, opts ...Option) *Coordinator {
	c := &Coordinator{
		endpoints:      append([]string(nil), endpoints...),
		prefs:          p,
		checks:         checks,
		service:        &KeepAlive{},
		dialer:         &websocket.Dialer{HandshakeTimeout: dialTimeout, Subprotocols: subprotocols},
		now:            time.Now,
		idleTimeout:    DefaultIdleTimeout,
		healthInterval: DefaultHealthCheckInterval,
		minTrigger:     DefaultMinTriggerInterval,
		networkRetry:   DefaultNetworkRetryDelay,
		newBackOff:     reconnectBackOff,
		foregroundCh:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// reconnectBackOff waits 2s·2^min(attempt,6), capped at 60s
func reconnectBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * baseReconnectDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = maxReconnectDelay
	b.Reset()
	return b
}

// SetForeground records whether a foreground client is attached
func (c *Coordinator) SetForeground(foreground bool) {
	c.mu.Lock()
	changed := c.foreground != foreground
	c.foreground = foreground
	c.mu.Unlock()
	if !changed {
		return
	}
	select {
	case c.foregroundCh <- struct{}{}:
	default:
	}
}

// Status returns the current push state
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	s := Status{Desired: c.desired, Foreground: c.foreground, ServiceRunning: c.serviceRunning}
	c.mu.Unlock()

	c.connMu.Lock()
	s.Connected = c.connected
	if c.connected {
		s.Endpoint, s.Protocol = c.endpoint, c.protocol.String()
	}
	c.connMu.Unlock()

	c.triggerMu.Lock()
	if !c.lastTriggerAt.IsZero() {
		t := c.lastTriggerAt
		s.LastTriggerAt = &t
	}
	c.triggerMu.Unlock()
	return s
}

// Start applies the desired state and follows preference and foreground
// changes. Blocks until ctx is cancelled or Stop is called.
func (c *Coordinator) Start(ctx context.Context) error {
	if len(c.endpoints) == 0 {
		return fmt.Errorf("no push endpoints configured")
	}

	c.lifeMu.Lock()
	if c.done != nil {
		c.lifeMu.Unlock()
		return fmt.Errorf("push coordinator already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	c.done = make(chan struct{})
	done := c.done
	c.lifeMu.Unlock()

	c.triggerMu.Lock()
	c.checksCtx = ctx
	c.triggerMu.Unlock()
	defer close(done)

	changes, unsubscribe := c.prefs.Subscribe()
	defer unsubscribe()

	slog.Info("Starting push coordinator", "endpoints", len(c.endpoints))
	c.apply(ctx, c.derive(), true)
	for {
		select {
		case <-ctx.Done():
			c.apply(ctx, None, false)
			c.checksWG.Wait()
			slog.Info("Push coordinator stopped")
			return nil
		case <-changes:
			c.apply(ctx, c.derive(), false)
		case <-c.foregroundCh:
			c.apply(ctx, c.derive(), false)
		}
	}
}

// Stop gracefully stops the coordinator
func (c *Coordinator) Stop() error {
	c.lifeMu.Lock()
	cancel, done := c.cancelFunc, c.done
	c.lifeMu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (c *Coordinator) derive() DesiredState {
	c.mu.Lock()
	foreground := c.foreground
	c.mu.Unlock()
	return Derive(c.prefs.ManagerCheckInterval(), c.prefs.BundleCheckInterval(), c.prefs.DeliveryMode(), foreground)
}

// apply moves the service and the socket loop to state. Unchanged states are
// ignored unless force is set.
func (c *Coordinator) apply(ctx context.Context, state DesiredState, force bool) {
	c.mu.Lock()
	if !force && state == c.desired {
		c.mu.Unlock()
		return
	}
	c.desired = state
	c.mu.Unlock()

	slog.Debug("Applying push state",
		"run_socket", state.ShouldRunSocket,
		"foreground_service", state.RequiresForegroundService,
		"listen_bundle", state.ListenForBundle,
		"listen_manager", state.ListenForManager,
	)
	c.ensureService(state)
	if state.ShouldRunSocket {
		c.startLoop(ctx)
	} else {
		c.stopLoop()
	}
}

func (c *Coordinator) ensureService(state DesiredState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	listen := [2]bool{state.ListenForBundle, state.ListenForManager}
	if state.RequiresForegroundService == c.serviceRunning &&
		(!c.serviceRunning || c.serviceListen == listen) {
		return
	}
	if !state.RequiresForegroundService {
		c.service.Stop()
		c.serviceRunning = false
		c.serviceListen = [2]bool{}
		return
	}
	if err := c.service.Start(state.ListenForBundle, state.ListenForManager); err != nil {
		slog.Warn("Unable to start push foreground service", "error", err)
		return
	}
	c.serviceRunning = true
	c.serviceListen = listen
}

func (c *Coordinator) startLoop(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loopCancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.loopCancel, c.loopDone = cancel, done
	go func() {
		defer close(done)
		c.runSocket(loopCtx)
	}()
}

func (c *Coordinator) stopLoop() {
	c.mu.Lock()
	cancel, done := c.loopCancel, c.loopDone
	c.loopCancel, c.loopDone = nil, nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// wait sleeps for d unless ctx ends first
func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

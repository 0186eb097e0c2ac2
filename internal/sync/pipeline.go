package sync

import (
	"context"
	"log/slog"
	stdsync "sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/changelog"
	"github.com/stacklok/toolhive-bundle-sync/internal/network"
	"github.com/stacklok/toolhive-bundle-sync/internal/notify"
	"github.com/stacklok/toolhive-bundle-sync/internal/repository"
	"github.com/stacklok/toolhive-bundle-sync/internal/status"
	"github.com/stacklok/toolhive-bundle-sync/internal/telemetry"
)

//go:generate mockgen -destination=mocks/mock_deps.go -package=mocks -source=pipeline.go Repository,Preferences,ChangelogRecorder

// DefaultDismissDelay is how long a finished pass stays visible through Progress
const DefaultDismissDelay = 8 * time.Second

// Repository is the bundle state as seen by the pipeline
type Repository interface {
	State() repository.State
	ApplyUpdateResults(ctx context.Context, results []repository.UpdateResult) error
	Manifest(artifactPath string) (*bundles.Manifest, error)
}

// Preferences are the user preferences the pipeline reads
type Preferences interface {
	AllowMeteredUpdates() bool
}

// ChangelogRecorder appends release history entries
type ChangelogRecorder interface {
	Record(dir string, e changelog.Entry) (bool, error)
}

// Pipeline runs at most one update pass at a time. It implements Manager and
// repository.Updater.
type Pipeline struct {
	ctx      context.Context
	repo     Repository
	prefs    Preferences
	monitor  network.Monitor
	notifier notify.Notifier
	history  ChangelogRecorder
	statuses status.StatusPersistence
	metrics  *telemetry.SyncMetrics
	bundles  *telemetry.BundleMetrics
	tracer   trace.Tracer
	now      func() time.Time

	dismissDelay time.Duration

	// jobMu guards pass ownership and the mailbox
	jobMu   stdsync.Mutex
	running bool
	pending *Request
	wg      stdsync.WaitGroup

	// updateMu guards the active and cancelled sets
	updateMu  stdsync.Mutex
	active    map[int]struct{}
	cancelled map[int]struct{}

	progressMu stdsync.Mutex
	progress   *Progress

	manualMu stdsync.Mutex
	manual   map[int]ManualUpdate
}

var (
	_ Manager            = (*Pipeline)(nil)
	_ repository.Updater = (*Pipeline)(nil)
)

// Option configures a Pipeline
type Option func(*Pipeline)

// WithNotifier sets where pass outcomes are published
func WithNotifier(n notify.Notifier) Option {
	return func(p *Pipeline) {
		p.notifier = n
	}
}

// WithChangelog records a history entry for every downloaded release
func WithChangelog(c ChangelogRecorder) Option {
	return func(p *Pipeline) {
		p.history = c
	}
}

// WithStatusPersistence records the outcome of every bundle update
func WithStatusPersistence(s status.StatusPersistence) Option {
	return func(p *Pipeline) {
		p.statuses = s
	}
}

// WithMetrics records pass durations and bundle counts
func WithMetrics(m *telemetry.SyncMetrics, b *telemetry.BundleMetrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
		p.bundles = b
	}
}

// WithTracer traces every pass and bundle update
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithDismissDelay changes how long a finished pass stays visible
func WithDismissDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		p.dismissDelay = d
	}
}

// New creates a pipeline. Passes run on ctx; cancelling it stops every pass.
func New(ctx context.Context, repo Repository, prefs Preferences, monitor network.Monitor, opts ...Option) *Pipeline {
	p := &Pipeline{
		ctx:          ctx,
		repo:         repo,
		prefs:        prefs,
		monitor:      monitor,
		notifier:     notify.Discard{},
		now:          time.Now,
		dismissDelay: DefaultDismissDelay,
		active:       map[int]struct{}{},
		cancelled:    map[int]struct{}{},
		manual:       map[int]ManualUpdate{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Request implements Manager
func (p *Pipeline) Request(ctx context.Context, req Request) {
	p.jobMu.Lock()
	defer p.jobMu.Unlock()

	if p.running {
		if p.pending == nil {
			p.pending = &req
		} else {
			merged := p.pending.merge(req)
			p.pending = &merged
		}
		slog.DebugContext(ctx, "Update pass running, request merged into the pending pass")
		return
	}

	p.running = true
	p.wg.Add(1)
	go p.drain(req)
}

// RequestAndWait implements Manager
func (p *Pipeline) RequestAndWait(ctx context.Context, req Request) error {
	done := make(chan error, 1)
	req.waiters = append(req.waiters, done)
	p.Request(ctx, req)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until no pass is running or pending
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// drain runs req and then every request merged while it ran
func (p *Pipeline) drain(req Request) {
	defer p.wg.Done()
	for {
		req.finish(p.runPass(p.ctx, req))

		p.jobMu.Lock()
		if p.pending == nil {
			p.running = false
			p.jobMu.Unlock()
			return
		}
		req = *p.pending
		p.pending = nil
		p.jobMu.Unlock()
	}
}

// UpdateBundles implements repository.Updater
func (p *Pipeline) UpdateBundles(
	ctx context.Context, uids []int, allowUnsafeNetwork bool, onProgress bundles.ProgressFunc,
) error {
	req := Request{
		AllowUnsafeNetwork: allowUnsafeNetwork,
		ReportProgress:     true,
		Predicate:          ForUIDs(uids...),
	}
	if onProgress != nil {
		req.OnBundleProgress = func(_ int, read, total int64) {
			_ = onProgress(read, total)
		}
	}
	return p.RequestAndWait(ctx, req)
}

// Cancel implements Manager. Each uid moves from the active set to the
// cancelled set, shrinking the total of the running pass.
func (p *Pipeline) Cancel(uids ...int) {
	p.updateMu.Lock()
	changed := false
	for _, uid := range uids {
		if _, ok := p.active[uid]; !ok {
			continue
		}
		delete(p.active, uid)
		p.cancelled[uid] = struct{}{}
		changed = true
	}
	total := len(p.active)
	p.updateMu.Unlock()

	if changed {
		slog.Info("Cancelled bundle updates", "bundle_uids", uids)
		p.updateProgress(func(pr *Progress) {
			if !pr.Terminal() {
				pr.Total = total
				pr.Completed = min(pr.Completed, total)
			}
		})
	}
}

func (p *Pipeline) markActive(uids []int) {
	p.updateMu.Lock()
	defer p.updateMu.Unlock()
	for _, uid := range uids {
		p.active[uid] = struct{}{}
		delete(p.cancelled, uid)
	}
}

func (p *Pipeline) clearActive(uids []int) {
	p.updateMu.Lock()
	defer p.updateMu.Unlock()
	for _, uid := range uids {
		delete(p.active, uid)
		delete(p.cancelled, uid)
	}
}

func (p *Pipeline) isCancelled(uid int) bool {
	p.updateMu.Lock()
	defer p.updateMu.Unlock()
	_, ok := p.cancelled[uid]
	return ok
}

func (p *Pipeline) activeCount() int {
	p.updateMu.Lock()
	defer p.updateMu.Unlock()
	return len(p.active)
}

// Progress implements Manager
func (p *Pipeline) Progress() *Progress {
	p.progressMu.Lock()
	defer p.progressMu.Unlock()
	if p.progress == nil {
		return nil
	}
	cp := *p.progress
	return &cp
}

func (p *Pipeline) setProgress(pr *Progress) {
	p.progressMu.Lock()
	defer p.progressMu.Unlock()
	p.progress = pr
}

func (p *Pipeline) updateProgress(fn func(*Progress)) {
	p.progressMu.Lock()
	defer p.progressMu.Unlock()
	if p.progress != nil {
		fn(p.progress)
	}
}

// dismissLater clears the progress of passID after the dismiss delay if it is
// still showing that pass's terminal state
func (p *Pipeline) dismissLater(passID string) {
	time.AfterFunc(p.dismissDelay, func() {
		p.progressMu.Lock()
		defer p.progressMu.Unlock()
		if p.progress != nil && p.progress.PassID == passID && p.progress.Terminal() {
			p.progress = nil
		}
	})
}

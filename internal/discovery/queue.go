// Package discovery imports bundles found through the external bundle
// discovery service. Imports are queued and run one at a time; each creates a
// remote bundle pointing at the discovery API and downloads it with a forced
// update pass.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/notify"
	pkgsync "github.com/stacklok/toolhive-bundle-sync/internal/sync"
	"github.com/stacklok/toolhive-bundle-sync/internal/telemetry"
)

//go:generate mockgen -destination=mocks/mock_discovery.go -package=mocks -source=queue.go Repository

// DefaultIdleDelay is how long the banner stays after the queue drained
const DefaultIdleDelay = time.Second

// Outcome is the result of Enqueue
type Outcome string

const (
	// Started means the worker was idle and began with this item
	Started Outcome = "started"
	// Queued means the item waits behind others
	Queued Outcome = "queued"
	// Duplicate means an item with the same key is already queued or running
	Duplicate Outcome = "duplicate"
)

// Repository is the part of the bundle repository imports need
type Repository interface {
	AddRemote(ctx context.Context, url string, autoUpdate bool, prepare func(dir string) error) (bundles.Remote, error)
}

type queued struct {
	id   string
	key  string
	item Item
}

// Queue serializes discovery imports
type Queue struct {
	ctx      context.Context
	repo     Repository
	manager  pkgsync.Manager
	host     string
	lookup   bundles.DiscoveryAPI
	notifier notify.Notifier
	metrics  *telemetry.ImportMetrics
	tracer   trace.Tracer
	idle     time.Duration

	mu        sync.Mutex
	pending   []queued
	keys      map[string]struct{}
	running   bool
	processed int
	cancel    context.CancelFunc
	// currentUID is the bundle created by the running import, 0 before AddRemote
	currentUID int
	wg         sync.WaitGroup

	// progressMu nests inside mu
	progressMu sync.Mutex
	progress   *Progress
	clearTimer *time.Timer
}

// Option configures a Queue
type Option func(*Queue)

// WithNotifier sets where import outcomes are published
func WithNotifier(n notify.Notifier) Option {
	return func(q *Queue) {
		q.notifier = n
	}
}

// WithLookup resolves items that only carry a bundle id
func WithLookup(api bundles.DiscoveryAPI) Option {
	return func(q *Queue) {
		q.lookup = api
	}
}

// WithMetrics records import outcomes
func WithMetrics(m *telemetry.ImportMetrics) Option {
	return func(q *Queue) {
		q.metrics = m
	}
}

// WithTracer traces every import
func WithTracer(t trace.Tracer) Option {
	return func(q *Queue) {
		q.tracer = t
	}
}

// WithIdleDelay overrides how long the finished banner stays visible
func WithIdleDelay(d time.Duration) Option {
	return func(q *Queue) {
		q.idle = d
	}
}

// NewQueue creates a queue whose imports point at the discovery API on host.
// Workers stop when ctx is cancelled.
func NewQueue(ctx context.Context, repo Repository, manager pkgsync.Manager, host string, opts ...Option) *Queue {
	q := &Queue{
		ctx:      ctx,
		repo:     repo,
		manager:  manager,
		host:     host,
		notifier: notify.Discard{},
		idle:     DefaultIdleDelay,
		keys:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds item unless an item with the same key is queued or importing
func (q *Queue) Enqueue(item Item) Outcome {
	key := item.Key()

	q.mu.Lock()
	if _, dup := q.keys[key]; dup {
		q.mu.Unlock()
		slog.Debug("Ignoring duplicate import", "key", key)
		return Duplicate
	}
	q.keys[key] = struct{}{}
	entry := queued{id: uuid.NewString(), key: key, item: item}
	q.pending = append(q.pending, entry)
	if q.running {
		queuedCount := len(q.pending)
		q.updateProgress(func(p *Progress) { p.Queued = queuedCount })
		q.mu.Unlock()
		slog.Info("Import queued", "import_id", entry.id, "key", key)
		return Queued
	}
	q.running = true
	q.processed = 0
	q.wg.Add(1)
	q.mu.Unlock()

	slog.Info("Import started", "import_id", entry.id, "key", key)
	go q.drain()
	return Started
}

// CancelCurrent stops the import in progress; queued imports still run
func (q *Queue) CancelCurrent() {
	q.mu.Lock()
	cancel, uid := q.cancel, q.currentUID
	q.mu.Unlock()
	if uid > 0 {
		q.manager.Cancel(uid)
	}
	if cancel != nil {
		cancel()
	}
}

// Progress returns the import banner, or nil when no import is shown
func (q *Queue) Progress() *Progress {
	q.progressMu.Lock()
	defer q.progressMu.Unlock()
	if q.progress == nil {
		return nil
	}
	cp := *q.progress
	return &cp
}

// Wait blocks until the worker is idle
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) drain() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if len(q.pending) == 0 || q.ctx.Err() != nil {
			for _, rest := range q.pending {
				delete(q.keys, rest.key)
			}
			q.pending = nil
			q.running = false
			q.finishProgress(q.processed)
			q.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending = q.pending[1:]
		ctx, cancel := context.WithCancel(q.ctx)
		q.cancel = cancel
		q.setProgress(&Progress{
			ImportID:  next.id,
			Current:   next.item.Label(),
			Processed: q.processed,
			Queued:    len(q.pending),
		})
		q.mu.Unlock()

		err := q.importOne(ctx, next)
		cancel()
		q.report(next, err)

		q.mu.Lock()
		q.cancel = nil
		q.currentUID = 0
		q.processed++
		delete(q.keys, next.key)
		processed := q.processed
		q.updateProgress(func(p *Progress) { p.Processed = processed })
		q.mu.Unlock()
	}
}

func (q *Queue) report(entry queued, err error) {
	label := entry.item.Label()
	switch {
	case err == nil:
		q.metrics.RecordImport(q.ctx, true)
		slog.Info("Import finished", "import_id", entry.id, "key", entry.key)
		q.notifier.Notify(notify.LevelSuccess, fmt.Sprintf("Imported %s", label))
	case errors.Is(err, context.Canceled):
		slog.Info("Import cancelled", "import_id", entry.id, "key", entry.key)
	default:
		q.metrics.RecordImport(q.ctx, false)
		slog.Error("Import failed", "import_id", entry.id, "key", entry.key, "error", err)
		q.notifier.Notify(notify.LevelError, fmt.Sprintf("Failed to import %s: %s", label, err))
	}
}

func (q *Queue) setProgress(p *Progress) {
	q.progressMu.Lock()
	defer q.progressMu.Unlock()
	if q.clearTimer != nil {
		q.clearTimer.Stop()
		q.clearTimer = nil
	}
	q.progress = p
}

func (q *Queue) updateProgress(fn func(p *Progress)) {
	q.progressMu.Lock()
	defer q.progressMu.Unlock()
	if q.progress != nil {
		fn(q.progress)
	}
}

// finishProgress marks the banner done and clears it after the idle delay
// unless a new import started in the meantime. Called with q.mu held.
func (q *Queue) finishProgress(processed int) {
	q.progressMu.Lock()
	defer q.progressMu.Unlock()
	if q.progress == nil {
		return
	}
	done := *q.progress
	done.Processed, done.Queued, done.Done = processed, 0, true
	done.Current, done.BytesRead, done.BytesTotal = "", 0, 0
	q.progress = &done

	var timer *time.Timer
	timer = time.AfterFunc(q.idle, func() {
		q.progressMu.Lock()
		defer q.progressMu.Unlock()
		if q.clearTimer == timer {
			q.progress = nil
			q.clearTimer = nil
		}
	})
	q.clearTimer = timer
}

// Package repository owns the bundle state. Every mutation runs as a named
// action on a single-writer store, persists through the record store and the
// bundle directories, and publishes a new State snapshot.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/cache"
	"github.com/stacklok/toolhive-bundle-sync/internal/notify"
	"github.com/stacklok/toolhive-bundle-sync/internal/records"
	"github.com/stacklok/toolhive-bundle-sync/internal/store"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks -source=repository.go Preferences,Updater

// Preferences are the user preferences the repository reads and maintains
type Preferences interface {
	AllowMeteredUpdates() bool
	OfficialSortOrder() (int, bool)
	SetOfficialSortOrder(index int) error
	OfficialRemoved() bool
	SetOfficialRemoved(removed bool) error
	OfficialCustomDisplayName() string
	SetOfficialCustomDisplayName(name string) error
}

// Updater is the remote update pipeline as seen by the repository
type Updater interface {
	// UpdateBundles runs an update restricted to uids and waits for it
	UpdateBundles(ctx context.Context, uids []int, allowUnsafeNetwork bool, onProgress bundles.ProgressFunc) error
	// Cancel stops active updates of uids without stopping the pass
	Cancel(uids ...int)
	// CheckManualUpdates refreshes the manual update entries of uids, or of every
	// manual bundle when none are given
	CheckManualUpdates(ctx context.Context, uids ...int) error
	// ForgetManual drops the manual update entries of uids
	ForgetManual(uids ...int)
	// RetainManual drops every manual update entry keep rejects
	RetainManual(keep func(uid int) bool)
}

// Option configures a Repository
type Option func(*Repository)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// WithAppVersion sets the version keying the global derived-cache invalidation
func WithAppVersion(version string) Option {
	return func(r *Repository) {
		r.appVersion = version
	}
}

// WithNotifier sets where user-visible failures are published
func WithNotifier(n notify.Notifier) Option {
	return func(r *Repository) {
		r.notifier = n
	}
}

// Repository exposes the bundle actions
type Repository struct {
	store    *store.Store[State]
	records  records.Store
	loader   *bundles.Loader
	cache    *cache.Invalidator
	meta     bundles.MetadataLoader
	prefs    Preferences
	notifier notify.Notifier

	appVersion string
	now        func() time.Time

	updaterMu sync.RWMutex
	updater   Updater
}

// New creates a repository with an empty state. Call Reload to populate it.
func New(
	ctx context.Context,
	recordStore records.Store,
	loader *bundles.Loader,
	invalidator *cache.Invalidator,
	meta bundles.MetadataLoader,
	prefs Preferences,
	opts ...Option,
) *Repository {
	r := &Repository{
		store:      store.New(ctx, EmptyState()),
		records:    recordStore,
		loader:     loader,
		cache:      invalidator,
		meta:       meta,
		prefs:      prefs,
		notifier:   notify.Discard{},
		appVersion: "dev",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetUpdater connects the update pipeline. Until it is set, update requests are no-ops.
func (r *Repository) SetUpdater(u Updater) {
	r.updaterMu.Lock()
	defer r.updaterMu.Unlock()
	r.updater = u
}

func (r *Repository) updates() Updater {
	r.updaterMu.RLock()
	defer r.updaterMu.RUnlock()
	if r.updater == nil {
		return noopUpdater{}
	}
	return r.updater
}

// State returns the latest snapshot
func (r *Repository) State() State {
	return r.store.State()
}

// Subscribe delivers snapshots, latest wins
func (r *Repository) Subscribe() (<-chan State, func()) {
	return r.store.Subscribe()
}

// Loader returns the bundle loader
func (r *Repository) Loader() *bundles.Loader {
	return r.loader
}

// Manifest reads the manifest of an artifact
func (r *Repository) Manifest(artifactPath string) (*bundles.Manifest, error) {
	return r.meta.ReadManifest(artifactPath)
}

func (r *Repository) dispatch(ctx context.Context, name string, apply func(ctx context.Context, s State) (State, error)) error {
	return r.store.Dispatch(ctx, store.Action[State]{Name: name, Apply: apply})
}

// doReload rebuilds the whole state from the record store and the bundle
// directories. It must only run inside a store action.
func (r *Repository) doReload(ctx context.Context) (State, error) {
	if err := r.cache.EnsureGlobal(ctx, r.appVersion); err != nil {
		slog.Warn("Failed to check derived caches against the app version", "error", err)
	}

	configs, err := r.loadEntitiesEnforcingOfficialOrder(ctx)
	if err != nil {
		return State{}, err
	}

	next := EmptyState()
	for _, cfg := range configs {
		src := r.loader.Load(cfg)

		if remote, ok := bundles.AsRemote(src); ok {
			fetched := bundles.NormalizeVersion(remote.Version())
			if fetched != "" && fetched != bundles.NormalizeVersion(remote.InstalledVersion()) {
				cfg.VersionSignature = remote.Version()
				if err := r.records.Upsert(ctx, cfg); err != nil {
					slog.Warn("Failed to persist version signature", "bundle_uid", cfg.UID, "error", err)
				} else {
					src = r.loader.Load(cfg)
				}
			}
		}

		if src.IsNameOutOfDate() {
			name := strings.TrimSpace(src.Manifest().Name)
			cfg.Name = name
			if err := r.records.Upsert(ctx, cfg); err != nil {
				slog.Warn("Failed to sync bundle name", "bundle_uid", cfg.UID, "error", err)
			} else {
				src = bundles.WithName(src, name)
			}
		}

		next.put(src)
	}

	for _, uid := range next.Order {
		src := next.Sources[uid]
		if src.Availability() != bundles.Available {
			continue
		}
		typ, patches, err := r.cache.LoadMetadata(ctx, src.Dir(), src.ArtifactPath(), r.meta)
		if err != nil {
			if ctx.Err() != nil {
				return State{}, ctx.Err()
			}
			slog.Error("Failed to load bundle", "bundle_uid", uid, "name", src.Name(), "error", err)
			next.Sources[uid] = bundles.WithError(src, err)
			continue
		}
		next.Info[uid] = bundles.Info{
			UID:     uid,
			Name:    src.Title(),
			Version: src.Version(),
			Type:    typ,
			Patches: patches,
		}
	}

	if err := r.reconcileOfficialDisplayName(ctx, &next); err != nil {
		slog.Warn("Failed to reconcile official display name", "error", err)
	}

	r.updates().RetainManual(func(uid int) bool {
		remote, ok := bundles.AsRemote(next.Sources[uid])
		return ok && !remote.AutoUpdate()
	})

	return next, nil
}

func (r *Repository) reconcileOfficialDisplayName(ctx context.Context, s *State) error {
	official, ok := s.Sources[bundles.DefaultUID]
	if !ok {
		return nil
	}
	custom := strings.TrimSpace(r.prefs.OfficialCustomDisplayName())
	current := strings.TrimSpace(official.DisplayName())

	apply := func(name string) error {
		if err := r.updateRecord(ctx, bundles.DefaultUID, func(cfg *bundles.Config) { cfg.DisplayName = name }); err != nil {
			return err
		}
		updated := bundles.WithDisplayName(official, name)
		s.Sources[bundles.DefaultUID] = updated
		if info, ok := s.Info[bundles.DefaultUID]; ok {
			info.Name = updated.Title()
			s.Info[bundles.DefaultUID] = info
		}
		return nil
	}

	switch {
	case custom != "" && current != custom:
		return apply(custom)
	case custom == "" && current == "":
		return apply(bundles.OfficialDisplayName)
	case custom == "" && current != bundles.OfficialDisplayName:
		return r.prefs.SetOfficialCustomDisplayName(current)
	}
	return nil
}

func (r *Repository) loadFromRecords(ctx context.Context) ([]bundles.Config, error) {
	configs, err := r.records.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(configs) > 0 || r.prefs.OfficialRemoved() {
		return configs, nil
	}

	def := r.defaultConfigWithStoredOrder()
	if err := r.records.Upsert(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to restore the official bundle: %w", err)
	}
	return []bundles.Config{def}, nil
}

func (r *Repository) loadEntitiesEnforcingOfficialOrder(ctx context.Context) ([]bundles.Config, error) {
	configs, err := r.loadFromRecords(ctx)
	if err != nil {
		return nil, err
	}
	changed, err := r.enforceOfficialSortOrder(ctx, configs)
	if err != nil {
		return nil, err
	}
	if changed {
		return r.loadFromRecords(ctx)
	}
	return configs, nil
}

// enforceOfficialSortOrder moves the official bundle to its stored index and
// renumbers every bundle. It reports whether anything was renumbered.
func (r *Repository) enforceOfficialSortOrder(ctx context.Context, configs []bundles.Config) (bool, error) {
	current := indexOfUID(configs, bundles.DefaultUID)
	if current < 0 {
		return false, nil
	}

	desired, ok := r.storedOfficialOrder()
	if !ok {
		return false, r.prefs.SetOfficialSortOrder(current)
	}
	target := clamp(desired, 0, len(configs)-1)
	if target == current {
		return false, r.prefs.SetOfficialSortOrder(current)
	}

	order := make([]int, 0, len(configs))
	for _, cfg := range configs {
		order = append(order, cfg.UID)
	}
	order = moveTo(order, current, target)
	if err := r.renumber(ctx, order); err != nil {
		return false, err
	}
	return true, r.prefs.SetOfficialSortOrder(target)
}

func (r *Repository) renumber(ctx context.Context, order []int) error {
	for i, uid := range order {
		if err := r.records.UpdateSortOrder(ctx, uid, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) storedOfficialOrder() (int, bool) {
	order, ok := r.prefs.OfficialSortOrder()
	if !ok || order < 0 {
		return 0, false
	}
	return order, true
}

func (r *Repository) defaultConfigWithStoredOrder() bundles.Config {
	cfg := bundles.DefaultConfig(r.now().UTC())
	if order, ok := r.storedOfficialOrder(); ok {
		cfg.SortOrder = order
	}
	return cfg
}

// updateRecord applies fn to the stored record of uid
func (r *Repository) updateRecord(ctx context.Context, uid int, fn func(cfg *bundles.Config)) error {
	cfg, err := r.records.Get(ctx, uid)
	if err != nil {
		return err
	}
	fn(&cfg)
	cfg.DisplayName = strings.TrimSpace(cfg.DisplayName)
	return r.records.Upsert(ctx, cfg)
}

// ensureUniqueName appends " (n)" until the name differs, case-insensitively,
// from every other non-official bundle
func (r *Repository) ensureUniqueName(ctx context.Context, requested string, self int) (string, error) {
	trimmed := strings.TrimSpace(requested)
	if trimmed == "" {
		return "", nil
	}
	configs, err := r.records.All(ctx)
	if err != nil {
		return "", err
	}
	existing := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		if cfg.IsDefault() || cfg.UID == self {
			continue
		}
		existing[strings.ToLower(strings.TrimSpace(cfg.Name))] = true
	}
	if !existing[strings.ToLower(trimmed)] {
		return trimmed, nil
	}
	for suffix := 2; ; suffix++ {
		candidate := fmt.Sprintf("%s (%d)", trimmed, suffix)
		if !existing[strings.ToLower(candidate)] {
			return candidate, nil
		}
	}
}

func indexOfUID(configs []bundles.Config, uid int) int {
	for i, cfg := range configs {
		if cfg.UID == uid {
			return i
		}
	}
	return -1
}

func moveTo(order []int, from, to int) []int {
	out := append([]int(nil), order...)
	v := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]int{v}, out[to:]...)...)
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func isNotFound(err error) bool {
	return errors.Is(err, bundles.ErrNotFound)
}

type noopUpdater struct{}

func (noopUpdater) UpdateBundles(context.Context, []int, bool, bundles.ProgressFunc) error { return nil }
func (noopUpdater) Cancel(...int)                                                       {}
func (noopUpdater) CheckManualUpdates(context.Context, ...int) error                    { return nil }
func (noopUpdater) ForgetManual(...int)                                                 {}
func (noopUpdater) RetainManual(func(int) bool)                                         {}

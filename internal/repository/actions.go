package repository

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/notify"
)

// DisplayNameResult is the outcome of SetDisplayName
type DisplayNameResult string

const (
	// DisplayNameSuccess means the label was changed
	DisplayNameSuccess DisplayNameResult = "SUCCESS"
	// DisplayNameNoChange means the label already had that value
	DisplayNameNoChange DisplayNameResult = "NO_CHANGE"
	// DisplayNameDuplicate means another bundle already uses the label
	DisplayNameDuplicate DisplayNameResult = "DUPLICATE"
	// DisplayNameNotFound means the uid is unknown
	DisplayNameNotFound DisplayNameResult = "NOT_FOUND"
)

// UpdateResult is one downloaded artifact to persist
type UpdateResult struct {
	UID    int
	Result *bundles.DownloadResult
	// Name is the name the new artifact declares; empty keeps the stored one
	Name string
}

type entityParams struct {
	name        string
	origin      bundles.Origin
	autoUpdate  bool
	displayName string
	uid         *int
	sortOrder   *int
	createdAt   time.Time
	updatedAt   time.Time
}

// createEntity writes a new record, keeping the label, sort order and creation
// time of an existing record with the same uid
func (r *Repository) createEntity(ctx context.Context, p entityParams) (bundles.Config, error) {
	uid := 0
	if p.uid != nil {
		uid = *p.uid
	} else {
		generated, err := r.generateUID(ctx)
		if err != nil {
			return bundles.Config{}, err
		}
		uid = generated
	}

	var existing *bundles.Config
	if cfg, err := r.records.Get(ctx, uid); err == nil {
		existing = &cfg
	} else if !isNotFound(err) {
		return bundles.Config{}, err
	}

	displayName := strings.TrimSpace(p.displayName)
	if displayName == "" && existing != nil {
		displayName = strings.TrimSpace(existing.DisplayName)
	}
	if displayName == "" && uid == bundles.DefaultUID {
		displayName = bundles.OfficialDisplayName
	}

	name, err := r.ensureUniqueName(ctx, p.name, uid)
	if err != nil {
		return bundles.Config{}, err
	}

	var sortOrder int
	switch {
	case p.sortOrder != nil:
		sortOrder = *p.sortOrder
	case existing != nil:
		sortOrder = existing.SortOrder
	default:
		maxOrder, err := r.records.MaxSortOrder(ctx)
		if err != nil {
			return bundles.Config{}, err
		}
		sortOrder = maxOrder + 1
	}

	now := r.now().UTC()
	createdAt := p.createdAt
	if createdAt.IsZero() && existing != nil {
		createdAt = existing.CreatedAt
	}
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := p.updatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	cfg := bundles.Config{
		UID:          uid,
		Name:         name,
		DisplayName:  displayName,
		Origin:       p.origin,
		AutoUpdate:   p.autoUpdate,
		SearchUpdate: true,
		Enabled:      true,
		SortOrder:    sortOrder,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if err := r.records.Upsert(ctx, cfg); err != nil {
		return bundles.Config{}, err
	}
	return cfg, nil
}

// generateUID picks a random positive uid that is not in use
func (r *Repository) generateUID(ctx context.Context) (int, error) {
	for {
		//nolint:gosec // G404: uids only need to be distinct, not unpredictable
		uid := int(rand.Int32N(1<<31-2)) + 1
		_, err := r.records.Get(ctx, uid)
		if isNotFound(err) {
			return uid, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// stableLocalUID derives a uid from the first four bytes of the content's
// SHA-256, read big-endian; 0 maps to 1 so it never collides with the official bundle
func stableLocalUID(sum [sha256.Size]byte) int {
	raw := int32(binary.BigEndian.Uint32(sum[:4])) //nolint:gosec // reinterpretation is intended
	if raw == 0 {
		return 1
	}
	return int(raw)
}

// Reload rebuilds the state from the record store
func (r *Repository) Reload(ctx context.Context) error {
	return r.dispatch(ctx, "Full reload", func(ctx context.Context, _ State) (State, error) {
		return r.doReload(ctx)
	})
}

// CreateLocal imports an artifact from content. The same content always maps to
// the same uid, so importing it again replaces the existing bundle.
func (r *Repository) CreateLocal(ctx context.Context, content io.Reader) (int, error) {
	if err := os.MkdirAll(r.loader.BundlesDir(), 0750); err != nil {
		return 0, fmt.Errorf("failed to create bundles directory: %w", err)
	}
	tmp, err := os.CreateTemp(r.loader.BundlesDir(), ".import-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary artifact: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hash), content)
	if err != nil {
		return 0, fmt.Errorf("failed to read bundle: %w", err)
	}
	if n == 0 {
		return 0, bundles.ErrEmptyArtifact
	}
	var sum [sha256.Size]byte
	copy(sum[:], hash.Sum(nil))
	uid := stableLocalUID(sum)

	var replaceErr error
	err = r.dispatch(ctx, "Add bundle", func(ctx context.Context, _ State) (State, error) {
		manifestName := ""
		if m, err := r.meta.ReadManifest(tmp.Name()); err == nil && m != nil {
			manifestName = strings.TrimSpace(m.Name)
		}

		name := manifestName
		displayName := ""
		if existing, err := r.records.Get(ctx, uid); err == nil {
			if name == "" {
				name = existing.Name
			}
			displayName = existing.DisplayName
		}

		cfg, err := r.createEntity(ctx, entityParams{
			name:        name,
			origin:      bundles.LocalOrigin(),
			uid:         &uid,
			displayName: displayName,
		})
		if err != nil {
			return State{}, err
		}

		local, ok := r.loader.Load(cfg).(*bundles.LocalBundle)
		if !ok {
			return State{}, fmt.Errorf("bundle %d is not a local bundle", uid)
		}
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return State{}, fmt.Errorf("failed to rewind temporary artifact: %w", err)
		}
		if err := local.Replace(tmp); err != nil {
			slog.Error("Got exception while importing bundle", "bundle_uid", uid, "error", err)
			r.notifier.Notify(notify.LevelError, fmt.Sprintf("failed: %v", err))
			_ = bundles.DeleteArtifact(local)
			replaceErr = fmt.Errorf("failed to store bundle: %w", err)
		}

		return r.doReload(ctx)
	})
	if err != nil {
		return 0, err
	}
	if replaceErr != nil {
		return uid, replaceErr
	}
	return uid, nil
}

// AddRemote records a remote bundle without downloading it. prepare, when not
// nil, runs against the new bundle directory before the source is loaded.
func (r *Repository) AddRemote(
	ctx context.Context, url string, autoUpdate bool, prepare func(dir string) error,
) (bundles.Remote, error) {
	var created bundles.Remote
	err := r.dispatch(ctx, fmt.Sprintf("Add bundle (%s)", url), func(ctx context.Context, s State) (State, error) {
		cfg, err := r.createEntity(ctx, entityParams{origin: bundles.OriginFromURL(url), autoUpdate: autoUpdate})
		if err != nil {
			return State{}, err
		}
		if prepare != nil {
			dir := r.loader.Dir(cfg.UID)
			if err := os.MkdirAll(dir, 0750); err != nil {
				return State{}, fmt.Errorf("failed to create bundle directory: %w", err)
			}
			if err := prepare(dir); err != nil {
				_ = r.records.Remove(ctx, cfg.UID)
				_ = os.RemoveAll(dir)
				return State{}, err
			}
		}

		remote, ok := bundles.AsRemote(r.loader.Load(cfg))
		if !ok {
			_ = r.records.Remove(ctx, cfg.UID)
			return State{}, fmt.Errorf("%s is not a remote bundle URL", url)
		}
		created = remote

		next := s.clone()
		next.put(remote)
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateRemote records a remote bundle and downloads it. Metered networks are
// allowed when the preference says so.
func (r *Repository) CreateRemote(
	ctx context.Context, url string, autoUpdate bool, onProgress bundles.ProgressFunc,
) (int, error) {
	remote, err := r.AddRemote(ctx, url, autoUpdate, nil)
	if err != nil {
		return 0, err
	}
	uid := remote.UID()
	if err := r.updates().UpdateBundles(ctx, []int{uid}, r.prefs.AllowMeteredUpdates(), onProgress); err != nil {
		return uid, err
	}
	return uid, nil
}

// Remove deletes bundles with their directories. Removing the official bundle
// is remembered so it is not recreated on the next reload.
func (r *Repository) Remove(ctx context.Context, uids ...int) error {
	if len(uids) == 0 {
		return nil
	}
	r.updates().Cancel(uids...)

	name := fmt.Sprintf("Remove (%s)", joinUIDs(uids))
	err := r.dispatch(ctx, name, func(ctx context.Context, s State) (State, error) {
		next := s.clone()
		for _, uid := range uids {
			if uid == bundles.DefaultUID {
				if err := r.prefs.SetOfficialRemoved(true); err != nil {
					return State{}, err
				}
				stored := 0
				if cfg, err := r.records.Get(ctx, uid); err == nil {
					stored = max(cfg.SortOrder, 0)
				}
				if err := r.prefs.SetOfficialSortOrder(stored); err != nil {
					return State{}, err
				}
			}

			if err := r.records.Remove(ctx, uid); err != nil {
				return State{}, err
			}
			if err := os.RemoveAll(r.loader.Dir(uid)); err != nil {
				slog.Warn("Failed to delete bundle directory", "bundle_uid", uid, "error", err)
			}
			next.remove(uid)
		}
		return next, nil
	})
	if err != nil {
		return err
	}
	r.updates().ForgetManual(uids...)
	return nil
}

// Reset deletes every bundle and restores the official one
func (r *Repository) Reset(ctx context.Context) error {
	current := r.State().Order
	r.updates().Cancel(current...)

	return r.dispatch(ctx, "Reset", func(ctx context.Context, s State) (State, error) {
		if err := r.records.Reset(ctx); err != nil {
			return State{}, err
		}
		if err := r.prefs.SetOfficialRemoved(false); err != nil {
			return State{}, err
		}
		for uid := range s.Sources {
			if err := os.RemoveAll(r.loader.Dir(uid)); err != nil {
				slog.Warn("Failed to delete bundle directory", "bundle_uid", uid, "error", err)
			}
		}
		return r.doReload(ctx)
	})
}

// RestoreDefault recreates the official bundle at its stored position
func (r *Repository) RestoreDefault(ctx context.Context) error {
	return r.dispatch(ctx, "Restore default bundle", func(ctx context.Context, _ State) (State, error) {
		if err := r.prefs.SetOfficialRemoved(false); err != nil {
			return State{}, err
		}
		if _, err := r.records.Get(ctx, bundles.DefaultUID); isNotFound(err) {
			if err := r.records.Upsert(ctx, r.defaultConfigWithStoredOrder()); err != nil {
				return State{}, err
			}
		} else if err != nil {
			return State{}, err
		}
		return r.doReload(ctx)
	})
}

// Reorder moves the prioritized uids to the front, keeping the relative order of
// the rest. Unknown uids are ignored.
func (r *Repository) Reorder(ctx context.Context, prioritized []int) error {
	return r.dispatch(ctx, "Reorder bundles", func(ctx context.Context, s State) (State, error) {
		current := s.Order
		if len(current) == 0 {
			return s, nil
		}

		var sanitized []int
		for _, uid := range prioritized {
			if slices.Contains(current, uid) && !slices.Contains(sanitized, uid) {
				sanitized = append(sanitized, uid)
			}
		}
		if len(sanitized) == 0 {
			return s, nil
		}

		final := append([]int(nil), sanitized...)
		for _, uid := range current {
			if !slices.Contains(sanitized, uid) {
				final = append(final, uid)
			}
		}
		if slices.Equal(final, current) {
			return s, nil
		}

		if err := r.renumber(ctx, final); err != nil {
			return State{}, err
		}
		if idx := slices.Index(final, bundles.DefaultUID); idx >= 0 {
			if err := r.prefs.SetOfficialSortOrder(idx); err != nil {
				return State{}, err
			}
		}
		return r.doReload(ctx)
	})
}

// SetDisplayName changes the label of a bundle. A blank name clears it.
func (r *Repository) SetDisplayName(ctx context.Context, uid int, displayName string) (DisplayNameResult, error) {
	normalized := strings.TrimSpace(displayName)
	result := DisplayNameNotFound

	err := r.dispatch(ctx, fmt.Sprintf("Set display name (%d)", uid), func(ctx context.Context, s State) (State, error) {
		cfg, err := r.records.Get(ctx, uid)
		if isNotFound(err) {
			result = DisplayNameNotFound
			return s, nil
		}
		if err != nil {
			return State{}, err
		}

		if normalized == strings.TrimSpace(cfg.DisplayName) {
			result = DisplayNameNoChange
		} else {
			if normalized != "" {
				conflict, err := r.records.HasDisplayNameConflict(ctx, uid, normalized)
				if err != nil {
					return State{}, err
				}
				if conflict {
					result = DisplayNameDuplicate
					return s, nil
				}
			}
			cfg.DisplayName = normalized
			if err := r.records.Upsert(ctx, cfg); err != nil {
				return State{}, err
			}
			result = DisplayNameSuccess
			if uid == bundles.DefaultUID {
				if err := r.prefs.SetOfficialCustomDisplayName(normalized); err != nil {
					return State{}, err
				}
			}
		}

		src, ok := s.Sources[uid]
		if !ok {
			return s, nil
		}
		next := s.clone()
		updated := bundles.WithDisplayName(src, normalized)
		next.Sources[uid] = updated
		if info, ok := next.Info[uid]; ok {
			info.Name = updated.Title()
			next.Info[uid] = info
		}
		return next, nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// SetAutoUpdate toggles automatic updates of a remote bundle. Turning them off
// checks the bundle for a manual update.
func (r *Repository) SetAutoUpdate(ctx context.Context, uid int, autoUpdate bool) error {
	name := fmt.Sprintf("Set auto update (%d, %t)", uid, autoUpdate)
	err := r.dispatch(ctx, name, func(ctx context.Context, s State) (State, error) {
		if err := r.updateRecord(ctx, uid, func(cfg *bundles.Config) { cfg.AutoUpdate = autoUpdate }); err != nil {
			return State{}, err
		}
		remote, ok := bundles.AsRemote(s.Sources[uid])
		if !ok {
			return s, nil
		}
		next := s.clone()
		next.Sources[uid] = bundles.WithAutoUpdate(remote, autoUpdate)
		return next, nil
	})
	if err != nil {
		return err
	}

	if autoUpdate {
		r.updates().ForgetManual(uid)
		return nil
	}
	return r.updates().CheckManualUpdates(ctx, uid)
}

// UpdateTimestamps overrides the timestamps of a bundle; zero values are kept
func (r *Repository) UpdateTimestamps(ctx context.Context, uid int, createdAt, updatedAt time.Time) error {
	if createdAt.IsZero() && updatedAt.IsZero() {
		return nil
	}
	return r.dispatch(ctx, fmt.Sprintf("Update timestamps (%d)", uid), func(ctx context.Context, s State) (State, error) {
		src, ok := s.Sources[uid]
		if !ok {
			return s, nil
		}
		err := r.updateRecord(ctx, uid, func(cfg *bundles.Config) {
			if !createdAt.IsZero() {
				cfg.CreatedAt = createdAt
			}
			if !updatedAt.IsZero() {
				cfg.UpdatedAt = updatedAt
			}
		})
		if err != nil {
			return State{}, err
		}
		next := s.clone()
		next.Sources[uid] = bundles.WithTimestamps(src, createdAt, updatedAt)
		return next, nil
	})
}

// EnforceOfficialOrder moves the official bundle to its stored index
func (r *Repository) EnforceOfficialOrder(ctx context.Context) error {
	return r.dispatch(ctx, "Enforce official order preference", func(ctx context.Context, s State) (State, error) {
		stored, ok := r.storedOfficialOrder()
		if !ok {
			return s, nil
		}
		configs, err := r.records.All(ctx)
		if err != nil {
			return State{}, err
		}
		current := indexOfUID(configs, bundles.DefaultUID)
		if current < 0 {
			return s, nil
		}
		target := clamp(stored, 0, len(configs)-1)
		if current == target {
			return s, nil
		}

		order := make([]int, 0, len(configs))
		for _, cfg := range configs {
			order = append(order, cfg.UID)
		}
		if err := r.renumber(ctx, moveTo(order, current, target)); err != nil {
			return State{}, err
		}
		return r.doReload(ctx)
	})
}

// ReloadAPIBundles drops the artifacts of bundles following the patches API so
// the next update downloads them again, e.g. after the prerelease preference changed
func (r *Repository) ReloadAPIBundles(ctx context.Context) error {
	return r.dispatch(ctx, "Reload API bundles", func(ctx context.Context, s State) (State, error) {
		for _, src := range s.Ordered() {
			if _, ok := src.(*bundles.APIBundle); !ok {
				continue
			}
			if err := bundles.DeleteArtifact(src); err != nil {
				return State{}, err
			}
			if err := r.updateRecord(ctx, src.UID(), func(cfg *bundles.Config) { cfg.VersionSignature = "" }); err != nil {
				return State{}, err
			}
		}
		if releases := r.loader.Deps().Releases; releases != nil {
			releases.Purge()
		}
		return r.doReload(ctx)
	})
}

// OfficialSortOrder returns the stored index of the official bundle
func (r *Repository) OfficialSortOrder() (int, bool) {
	return r.storedOfficialOrder()
}

// SetOfficialSortOrder stores the index of the official bundle; a negative order clears it
func (r *Repository) SetOfficialSortOrder(order int) error {
	if order < 0 {
		order = -1
	}
	return r.prefs.SetOfficialSortOrder(order)
}

// ApplyUpdateResults persists downloaded artifacts and reloads the state in one action
func (r *Repository) ApplyUpdateResults(ctx context.Context, results []UpdateResult) error {
	return r.dispatch(ctx, "Apply update results", func(ctx context.Context, _ State) (State, error) {
		now := r.now().UTC()
		for _, res := range results {
			if res.Result == nil {
				continue
			}
			err := r.updateRecord(ctx, res.UID, func(cfg *bundles.Config) {
				cfg.VersionSignature = res.Result.VersionSignature
				if name := strings.TrimSpace(res.Name); name != "" {
					cfg.Name = name
				}
				if !res.Result.AssetCreatedAt.IsZero() {
					cfg.CreatedAt = res.Result.AssetCreatedAt
				}
				cfg.UpdatedAt = now
			})
			if isNotFound(err) {
				slog.Debug("Bundle removed before its update was applied", "bundle_uid", res.UID)
				continue
			}
			if err != nil {
				return State{}, err
			}
		}
		return r.doReload(ctx)
	})
}

// SetLastNotifiedVersion records the release a user was last told about
func (r *Repository) SetLastNotifiedVersion(ctx context.Context, uid int, version string) error {
	return r.dispatch(ctx, fmt.Sprintf("Set last notified version (%d)", uid), func(ctx context.Context, _ State) (State, error) {
		if err := r.updateRecord(ctx, uid, func(cfg *bundles.Config) { cfg.LastNotifiedVersion = version }); err != nil {
			return State{}, err
		}
		return r.doReload(ctx)
	})
}

func joinUIDs(uids []int) string {
	parts := make([]string, 0, len(uids))
	for _, uid := range uids {
		parts = append(parts, fmt.Sprint(uid))
	}
	return strings.Join(parts, ",")
}

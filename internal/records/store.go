// Package records is the durable store of bundle configurations.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

// Store persists bundle configurations
type Store interface {
	// All returns every record ordered by sort order, then uid
	All(ctx context.Context) ([]bundles.Config, error)
	// Upsert inserts or replaces a record
	Upsert(ctx context.Context, cfg bundles.Config) error
	// Remove deletes a record; unknown uids are ignored
	Remove(ctx context.Context, uid int) error
	// Get returns bundles.ErrNotFound for unknown uids
	Get(ctx context.Context, uid int) (bundles.Config, error)
	UpdateSortOrder(ctx context.Context, uid, index int) error
	// Reset deletes every record
	Reset(ctx context.Context) error
	// MaxSortOrder returns -1 when the store is empty
	MaxSortOrder(ctx context.Context) (int, error)
	// HasDisplayNameConflict reports whether another bundle already uses name, case-insensitively
	HasDisplayNameConflict(ctx context.Context, uid int, name string) (bool, error)
}

type row struct {
	UID                 int    `db:"uid"`
	Name                string `db:"name"`
	DisplayName         string `db:"display_name"`
	Origin              string `db:"origin"`
	VersionSignature    string `db:"version_signature"`
	AutoUpdate          bool   `db:"auto_update"`
	SearchUpdate        bool   `db:"search_update"`
	Enabled             bool   `db:"enabled"`
	SortOrder           int    `db:"sort_order"`
	CreatedAt           int64  `db:"created_at"`
	UpdatedAt           int64  `db:"updated_at"`
	LastNotifiedVersion string `db:"last_notified_version"`
}

func toRow(cfg bundles.Config) row {
	return row{
		UID:                 cfg.UID,
		Name:                cfg.Name,
		DisplayName:         cfg.DisplayName,
		Origin:              cfg.Origin.String(),
		VersionSignature:    cfg.VersionSignature,
		AutoUpdate:          cfg.AutoUpdate,
		SearchUpdate:        cfg.SearchUpdate,
		Enabled:             cfg.Enabled,
		SortOrder:           cfg.SortOrder,
		CreatedAt:           toMillis(cfg.CreatedAt),
		UpdatedAt:           toMillis(cfg.UpdatedAt),
		LastNotifiedVersion: cfg.LastNotifiedVersion,
	}
}

func (r row) config() (bundles.Config, error) {
	origin, err := bundles.ParseOrigin(r.Origin)
	if err != nil {
		return bundles.Config{}, fmt.Errorf("bundle %d: %w", r.UID, err)
	}
	return bundles.Config{
		UID:                 r.UID,
		Name:                r.Name,
		DisplayName:         r.DisplayName,
		Origin:              origin,
		VersionSignature:    r.VersionSignature,
		AutoUpdate:          r.AutoUpdate,
		SearchUpdate:        r.SearchUpdate,
		Enabled:             r.Enabled,
		SortOrder:           r.SortOrder,
		CreatedAt:           fromMillis(r.CreatedAt),
		UpdatedAt:           fromMillis(r.UpdatedAt),
		LastNotifiedVersion: r.LastNotifiedVersion,
	}, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

const selectColumns = `uid, name, display_name, origin, version_signature, auto_update, search_update,
	enabled, sort_order, created_at, updated_at, last_notified_version`

// sqlStore implements Store over sqlite
type sqlStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a store over an open database with a deployed schema
func NewSQLStore(db *sqlx.DB) Store {
	return &sqlStore{db: db}
}

func (s *sqlStore) All(ctx context.Context) ([]bundles.Config, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows, `SELECT `+selectColumns+` FROM bundles ORDER BY sort_order, uid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}
	configs := make([]bundles.Config, 0, len(rows))
	for _, r := range rows {
		cfg, err := r.config()
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (s *sqlStore) Upsert(ctx context.Context, cfg bundles.Config) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO bundles (`+selectColumns+`)
		VALUES (:uid, :name, :display_name, :origin, :version_signature, :auto_update, :search_update,
			:enabled, :sort_order, :created_at, :updated_at, :last_notified_version)
		ON CONFLICT (uid) DO UPDATE SET
			name = excluded.name,
			display_name = excluded.display_name,
			origin = excluded.origin,
			version_signature = excluded.version_signature,
			auto_update = excluded.auto_update,
			search_update = excluded.search_update,
			enabled = excluded.enabled,
			sort_order = excluded.sort_order,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			last_notified_version = excluded.last_notified_version`, toRow(cfg))
	if err != nil {
		return fmt.Errorf("failed to upsert bundle %d: %w", cfg.UID, err)
	}
	return nil
}

func (s *sqlStore) Remove(ctx context.Context, uid int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bundles WHERE uid = ?`, uid); err != nil {
		return fmt.Errorf("failed to remove bundle %d: %w", uid, err)
	}
	return nil
}

func (s *sqlStore) Get(ctx context.Context, uid int) (bundles.Config, error) {
	var r row
	err := s.db.GetContext(ctx, &r, `SELECT `+selectColumns+` FROM bundles WHERE uid = ?`, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return bundles.Config{}, fmt.Errorf("bundle %d: %w", uid, bundles.ErrNotFound)
	}
	if err != nil {
		return bundles.Config{}, fmt.Errorf("failed to get bundle %d: %w", uid, err)
	}
	return r.config()
}

func (s *sqlStore) UpdateSortOrder(ctx context.Context, uid, index int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE bundles SET sort_order = ? WHERE uid = ?`, index, uid)
	if err != nil {
		return fmt.Errorf("failed to update sort order of bundle %d: %w", uid, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("bundle %d: %w", uid, bundles.ErrNotFound)
	}
	return nil
}

func (s *sqlStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bundles`); err != nil {
		return fmt.Errorf("failed to reset bundles: %w", err)
	}
	return nil
}

func (s *sqlStore) MaxSortOrder(ctx context.Context) (int, error) {
	var max sql.NullInt64
	if err := s.db.GetContext(ctx, &max, `SELECT MAX(sort_order) FROM bundles`); err != nil {
		return 0, fmt.Errorf("failed to read max sort order: %w", err)
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

func (s *sqlStore) HasDisplayNameConflict(ctx context.Context, uid int, name string) (bool, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false, nil
	}
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bundles
		WHERE uid != ? AND (
			LOWER(TRIM(display_name)) = LOWER(?)
			OR (TRIM(display_name) = '' AND LOWER(TRIM(name)) = LOWER(?))
		)`, uid, trimmed, trimmed)
	if err != nil {
		return false, fmt.Errorf("failed to check display name: %w", err)
	}
	return count > 0, nil
}

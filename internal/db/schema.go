package db

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Schema is one numbered schema step
type Schema interface {
	Deploy(tx *sqlx.Tx) error
}

// Schemas maps each version to the step that produces it
var Schemas = map[int]Schema{
	1: v1Schema{},
	2: v2Schema{},
}

// CurrentSchema is the newest version this build knows how to deploy
var CurrentSchema = currentSchema()

// Setup deploys every schema step newer than the stored version, in order
func (c *Connection) Setup() error {
	current, err := c.SchemaVersion()
	if err != nil {
		return err
	}
	if current > CurrentSchema {
		return fmt.Errorf("schema version %d is newer than this build supports (%d)", current, CurrentSchema)
	}

	for _, version := range schemaVersions() {
		if version <= current {
			continue
		}
		tx, err := c.DB.Beginx()
		if err != nil {
			return fmt.Errorf("failed to begin schema v%d: %w", version, err)
		}
		if err := Schemas[version].Deploy(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to deploy schema v%d: %w", version, err)
		}
		if _, err := tx.Exec(`UPDATE schema_info SET version = ?`, version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record schema v%d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit schema v%d: %w", version, err)
		}
	}
	return nil
}

// SchemaVersion returns the deployed version, 0 for an empty database
func (c *Connection) SchemaVersion() (int, error) {
	var v int
	err := c.DB.Get(&v, `SELECT version FROM schema_info LIMIT 1`)
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case strings.Contains(err.Error(), "no such table"):
		return 0, nil
	default:
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid schema version %d found", v)
	}
	return v, nil
}

func schemaVersions() []int {
	versions := make([]int, 0, len(Schemas))
	for k := range Schemas {
		versions = append(versions, k)
	}
	sort.Ints(versions)
	return versions
}

func currentSchema() int {
	versions := schemaVersions()
	return versions[len(versions)-1]
}

type v1Schema struct{}

func (v1Schema) Deploy(tx *sqlx.Tx) error {
	statements := []string{
		`CREATE TABLE schema_info (version INTEGER NOT NULL)`,
		`INSERT INTO schema_info VALUES (0)`,
		`CREATE TABLE bundles (
			uid               INTEGER PRIMARY KEY,
			name              TEXT    NOT NULL DEFAULT '',
			display_name      TEXT    NOT NULL DEFAULT '',
			origin            TEXT    NOT NULL,
			version_signature TEXT    NOT NULL DEFAULT '',
			auto_update       BOOLEAN NOT NULL DEFAULT 0,
			search_update     BOOLEAN NOT NULL DEFAULT 1,
			enabled           BOOLEAN NOT NULL DEFAULT 1,
			sort_order        INTEGER NOT NULL DEFAULT 0,
			created_at        INTEGER NOT NULL DEFAULT 0,
			updated_at        INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX bundles_sort_order ON bundles (sort_order)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type v2Schema struct{}

func (v2Schema) Deploy(tx *sqlx.Tx) error {
	_, err := tx.Exec(`ALTER TABLE bundles ADD COLUMN last_notified_version TEXT NOT NULL DEFAULT ''`)
	return err
}

// Package db opens the sqlite database holding the durable bundle records and
// brings its schema up to date.
package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Needs to be imported for the sqlite driver
)

const (
	// DriverName is the registered sqlite driver
	DriverName = "sqlite3"

	// MemoryPath opens a private in-memory database
	MemoryPath = ":memory:"
)

// Connection wraps the database handle
type Connection struct {
	DB   *sqlx.DB
	Path string
}

// NewConnection opens the database at path and deploys any pending schema versions
func NewConnection(path string) (*Connection, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := path
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = "file:" + path + "?_busy_timeout=5000&_foreign_keys=on"
	}

	sqlDB, err := sqlx.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// A single connection serializes writers and keeps :memory: databases shared
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			slog.Error("Failed to close database connection after ping failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn := &Connection{DB: sqlDB, Path: path}
	if err := conn.Setup(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	slog.Info("Database connection established", "path", path, "schema_version", CurrentSchema)
	return conn, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	if c.DB != nil {
		slog.Info("Closing database connection")
		return c.DB.Close()
	}
	return nil
}

// Ping verifies the database connection is still alive
func (c *Connection) Ping() error {
	if c.DB != nil {
		return c.DB.Ping()
	}
	return fmt.Errorf("database connection is nil")
}

// Package status provides per-bundle sync status tracking and persistence.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

// StatusPersistence defines the interface for sync status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the sync status of one bundle
	SaveStatus(ctx context.Context, uid int, status *BundleStatus) error

	// LoadStatus loads the sync status of one bundle.
	// Returns an empty BundleStatus if nothing was recorded yet
	LoadStatus(ctx context.Context, uid int) (*BundleStatus, error)

	// LoadAllStatus loads sync status for all bundles
	LoadAllStatus(ctx context.Context) (map[int]*BundleStatus, error)

	// RemoveStatus forgets the status of the given bundles
	RemoveStatus(ctx context.Context, uids ...int) error
}

// fileStatusPersistence keeps every bundle's status in one JSON document
type fileStatusPersistence struct {
	path string
	mu   sync.Mutex
}

// NewFileStatusPersistence creates a new file-based status persistence writing to path
func NewFileStatusPersistence(path string) StatusPersistence {
	return &fileStatusPersistence{path: path}
}

// SaveStatus implements StatusPersistence
func (f *fileStatusPersistence) SaveStatus(_ context.Context, uid int, status *BundleStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.read()
	if err != nil {
		return err
	}
	all[strconv.Itoa(uid)] = status
	return f.write(all)
}

// LoadStatus implements StatusPersistence
func (f *fileStatusPersistence) LoadStatus(_ context.Context, uid int) (*BundleStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.read()
	if err != nil {
		return nil, err
	}
	if s, ok := all[strconv.Itoa(uid)]; ok && s != nil {
		return s, nil
	}
	return &BundleStatus{}, nil
}

// LoadAllStatus implements StatusPersistence
func (f *fileStatusPersistence) LoadAllStatus(_ context.Context) (map[int]*BundleStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.read()
	if err != nil {
		return nil, err
	}
	result := make(map[int]*BundleStatus, len(all))
	for key, s := range all {
		uid, err := strconv.Atoi(key)
		if err != nil || s == nil {
			continue
		}
		result[uid] = s
	}
	return result, nil
}

// RemoveStatus implements StatusPersistence
func (f *fileStatusPersistence) RemoveStatus(_ context.Context, uids ...int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.read()
	if err != nil {
		return err
	}
	for _, uid := range uids {
		delete(all, strconv.Itoa(uid))
	}
	return f.write(all)
}

func (f *fileStatusPersistence) read() (map[string]*BundleStatus, error) {
	// #nosec G304 -- path comes from the service configuration
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*BundleStatus), nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}
	all := make(map[string]*BundleStatus)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data: %w", err)
	}
	return all, nil
}

func (f *fileStatusPersistence) write(all map[string]*BundleStatus) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data: %w", err)
	}

	// Write to temporary file first for atomic operation
	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}

	return nil
}

// Package prefs stores mutable user preferences in a JSON file. Writes are
// serialized across processes with a file lock and land atomically; external
// edits are picked up by a file watcher and announced to subscribers.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
)

// ErrUnknownKey is returned for keys outside the known preference set
var ErrUnknownKey = errors.New("unknown preference key")

// Store is the preference file
type Store struct {
	path string
	lock *flock.Flock

	mu     sync.RWMutex
	values map[string]string

	subsMu sync.Mutex
	subs   map[int]chan struct{}
	nextID int

	watcherMu sync.Mutex
	watcher   *fsnotify.Watcher
}

// Open loads the preference file at path; a missing file starts empty
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create preferences directory: %w", err)
	}
	s := &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		values: map[string]string{},
		subs:   map[int]chan struct{}{},
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the preference file location
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the file
func (s *Store) Reload() error {
	values, err := s.readFile()
	if err != nil {
		return err
	}
	s.mu.Lock()
	changed := !maps.Equal(s.values, values)
	s.values = values
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return nil
}

func (s *Store) readFile() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}
	return values, nil
}

// Get returns the stored value, or the key's default with ok=false
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		return v, true
	}
	return known[key].def, false
}

// All returns the effective value of every known key
func (s *Store) All() map[string]string {
	out := make(map[string]string, len(known))
	for key := range known {
		out[key], _ = s.Get(key)
	}
	return out
}

// Set validates and stores a value
func (s *Store) Set(key, value string) error {
	if err := validate(key, value); err != nil {
		return err
	}
	return s.update(func(values map[string]string) {
		values[key] = value
	})
}

// Delete restores a key to its default
func (s *Store) Delete(key string) error {
	if _, ok := known[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return s.update(func(values map[string]string) {
		delete(values, key)
	})
}

// update applies fn to the latest file content under the file lock
func (s *Store) update(fn func(map[string]string)) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock preferences: %w", err)
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	values, err := s.readFile()
	if err != nil {
		return err
	}
	fn(values)

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move preferences into place: %w", err)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	s.notify()
	return nil
}

// Subscribe returns a channel signalled after every change. Signals coalesce.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()
	return ch, func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watch reloads the file whenever it changes on disk. Blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	s.watcherMu.Lock()
	if s.watcher != nil {
		s.watcherMu.Unlock()
		return fmt.Errorf("preferences watcher is already running")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.watcherMu.Unlock()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	s.watcher = watcher
	s.watcherMu.Unlock()

	defer func() {
		s.watcherMu.Lock()
		_ = s.watcher.Close()
		s.watcher = nil
		s.watcherMu.Unlock()
	}()

	// Atomic replacement swaps the inode, so the directory is watched
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch preferences directory: %w", err)
	}
	slog.Info("Watching preferences file", "path", s.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if err := s.Reload(); err != nil {
					slog.Error("Failed to reload preferences", "error", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			slog.Error("Preferences watcher error", "error", err)
		}
	}
}

func (s *Store) boolValue(key string) bool {
	v, _ := s.Get(key)
	b, _ := strconv.ParseBool(v)
	return b
}

func (s *Store) intervalValue(key string) Interval {
	v, _ := s.Get(key)
	i, err := ParseInterval(v)
	if err != nil {
		i, _ = ParseInterval(known[key].def)
	}
	return i
}

// AllowMeteredUpdates reports whether passes may run on metered networks
func (s *Store) AllowMeteredUpdates() bool { return s.boolValue(KeyAllowMeteredUpdates) }

// UsePatchesPrereleases reports whether the official API should serve prereleases
func (s *Store) UsePatchesPrereleases() bool { return s.boolValue(KeyUsePatchesPrereleases) }

// UseManagerPrereleases reports whether the self-update check considers prereleases
func (s *Store) UseManagerPrereleases() bool { return s.boolValue(KeyManagerPrereleases) }

// GitHubToken returns the personal access token used for pull request artifacts
func (s *Store) GitHubToken() string {
	v, _ := s.Get(KeyGitHubPAT)
	return v
}

// BundleCheckInterval is the bundle update polling interval
func (s *Store) BundleCheckInterval() Interval { return s.intervalValue(KeyBundleCheckInterval) }

// ManagerCheckInterval is the self-update polling interval
func (s *Store) ManagerCheckInterval() Interval { return s.intervalValue(KeyManagerCheckInterval) }

// DeliveryMode is the update delivery preference
func (s *Store) DeliveryMode() DeliveryMode {
	v, _ := s.Get(KeyUpdateDeliveryMode)
	m, err := ParseDeliveryMode(v)
	if err != nil {
		return DeliveryAuto
	}
	return m
}

// OfficialSortOrder returns the stored index of the official bundle
func (s *Store) OfficialSortOrder() (int, bool) {
	v, ok := s.Get(KeyOfficialSortOrder)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetOfficialSortOrder stores the index of the official bundle
func (s *Store) SetOfficialSortOrder(index int) error {
	return s.Set(KeyOfficialSortOrder, strconv.Itoa(index))
}

// OfficialRemoved reports whether the user removed the official bundle
func (s *Store) OfficialRemoved() bool { return s.boolValue(KeyOfficialRemoved) }

// SetOfficialRemoved records whether the user removed the official bundle
func (s *Store) SetOfficialRemoved(removed bool) error {
	return s.Set(KeyOfficialRemoved, strconv.FormatBool(removed))
}

// OfficialCustomDisplayName returns the user's label for the official bundle
func (s *Store) OfficialCustomDisplayName() string {
	v, _ := s.Get(KeyOfficialCustomDisplayName)
	return v
}

// SetOfficialCustomDisplayName stores the user's label; empty clears it
func (s *Store) SetOfficialCustomDisplayName(name string) error {
	if name == "" {
		return s.Delete(KeyOfficialCustomDisplayName)
	}
	return s.Set(KeyOfficialCustomDisplayName, name)
}

// CacheAppVersion returns the app version the derived caches were built by
func (s *Store) CacheAppVersion() string {
	v, _ := s.Get(KeyCacheAppVersion)
	return v
}

// SetCacheAppVersion records the app version the derived caches were built by
func (s *Store) SetCacheAppVersion(version string) error {
	return s.Set(KeyCacheAppVersion, version)
}

// LastRefreshCursor returns the started_at of the last change-feed job acted upon
func (s *Store) LastRefreshCursor() string {
	v, _ := s.Get(KeyLastRefreshCursor)
	return v
}

// SetLastRefreshCursor persists the change-feed cursor
func (s *Store) SetLastRefreshCursor(startedAt string) error {
	return s.Set(KeyLastRefreshCursor, startedAt)
}

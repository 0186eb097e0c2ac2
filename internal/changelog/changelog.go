// Package changelog keeps the release history of each bundle next to its artifact
package changelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/versions"
)

const (
	// FileName is the history file inside a bundle directory
	FileName = "changelog.json"

	// MaxEntries bounds the history of one bundle
	MaxEntries = 50
)

// Entry is one release in a bundle's history
type Entry struct {
	Version     string    `json:"version"`
	Description string    `json:"description,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	PageURL     string    `json:"pageUrl,omitempty"`
}

// EntryFromRelease converts release info into a history entry
func EntryFromRelease(info bundles.ReleaseInfo) Entry {
	return Entry{
		Version:     strings.TrimSpace(info.Version),
		Description: info.Description,
		PublishedAt: info.CreatedAt,
		PageURL:     info.PageURL,
	}
}

// Store reads and appends bundle histories. Writers in this process are
// serialized by a mutex, other processes by a file lock.
type Store struct {
	mu sync.Mutex
}

// NewStore creates a history store
func NewStore() *Store {
	return &Store{}
}

// Read returns the history of the bundle in dir, newest first
func (*Store) Read(dir string) ([]Entry, error) {
	return readFile(filepath.Join(dir, FileName))
}

// Record adds e to the history of the bundle in dir. It returns false when an
// entry with the same version, or with the same publish time and description,
// already exists.
func (s *Store) Record(dir string, e Entry) (bool, error) {
	if strings.TrimSpace(e.Version) == "" && e.PublishedAt.IsZero() {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(dir, 0750); err != nil {
		return false, fmt.Errorf("failed to create bundle directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return false, fmt.Errorf("failed to lock changelog: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	entries, err := readFile(path)
	if err != nil {
		return false, err
	}
	for _, existing := range entries {
		if duplicate(existing, e) {
			return false, nil
		}
	}

	entries = append(entries, e)
	sortEntries(entries)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	if err := writeFile(path, entries); err != nil {
		return false, err
	}
	return true, nil
}

// Clear deletes the history of the bundle in dir
func (s *Store) Clear(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(dir, FileName)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove changelog: %w", err)
	}
	_ = os.Remove(path + ".lock")
	return nil
}

func duplicate(a, b Entry) bool {
	if va := bundles.NormalizeVersion(a.Version); va != "" && va == bundles.NormalizeVersion(b.Version) {
		return true
	}
	return !a.PublishedAt.IsZero() && a.PublishedAt.Equal(b.PublishedAt) &&
		strings.TrimSpace(a.Description) == strings.TrimSpace(b.Description)
}

// sortEntries orders newest first: semver when both versions parse, publish time otherwise
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if versions.Valid(a.Version) && versions.Valid(b.Version) {
			if c := versions.Compare(a.Version, b.Version); c != 0 {
				return c > 0
			}
		}
		return a.PublishedAt.After(b.PublishedAt)
	})
}

func readFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read changelog: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse changelog: %w", err)
	}
	return entries, nil
}

func writeFile(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal changelog: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write changelog: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move changelog into place: %w", err)
	}
	return nil
}

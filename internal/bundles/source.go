package bundles

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Source is a loaded bundle. The set of implementations is closed: *LocalBundle,
// *JSONBundle, *APIBundle, *DiscoveryBundle and *PullRequestBundle. Sources are
// immutable; the With* helpers return replaced copies.
type Source interface {
	UID() int
	Name() string
	DisplayName() string
	// Title is the display name when set, otherwise the name
	Title() string
	Origin() Origin
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Enabled() bool
	Availability() Availability
	Err() error
	Dir() string
	ArtifactPath() string
	Manifest() *Manifest
	// Version is the version the cached artifact declares
	Version() string
	IsDefault() bool
	// IsNameOutOfDate reports whether the artifact declares a different name than the record
	IsNameOutOfDate() bool

	core() sourceCore
	withCore(sourceCore) Source
}

// sourceCore is the state shared by every variant
type sourceCore struct {
	uid         int
	name        string
	displayName string
	origin      Origin
	createdAt   time.Time
	updatedAt   time.Time
	enabled     bool
	err         error
	dir         string
	manifest    *Manifest
	hasArtifact bool
}

func (c sourceCore) UID() int             { return c.uid }
func (c sourceCore) Name() string         { return c.name }
func (c sourceCore) DisplayName() string  { return c.displayName }
func (c sourceCore) Origin() Origin       { return c.origin }
func (c sourceCore) CreatedAt() time.Time { return c.createdAt }
func (c sourceCore) UpdatedAt() time.Time { return c.updatedAt }
func (c sourceCore) Enabled() bool        { return c.enabled }
func (c sourceCore) Err() error           { return c.err }
func (c sourceCore) Dir() string          { return c.dir }
func (c sourceCore) Manifest() *Manifest  { return c.manifest }
func (c sourceCore) IsDefault() bool      { return c.uid == DefaultUID }
func (c sourceCore) core() sourceCore     { return c }

func (c sourceCore) Title() string {
	if dn := strings.TrimSpace(c.displayName); dn != "" {
		return dn
	}
	return c.name
}

func (c sourceCore) ArtifactPath() string {
	return filepath.Join(c.dir, ArtifactFileName)
}

func (c sourceCore) Version() string {
	if c.manifest == nil {
		return ""
	}
	return c.manifest.Version
}

func (c sourceCore) Availability() Availability {
	switch {
	case c.err != nil:
		return Failed
	case c.hasArtifact:
		return Available
	default:
		return Missing
	}
}

func (c sourceCore) IsNameOutOfDate() bool {
	if c.manifest == nil {
		return false
	}
	declared := strings.TrimSpace(c.manifest.Name)
	return declared != "" && declared != c.name
}

// artifactPresent checks the filesystem rather than the loaded snapshot
func (c sourceCore) artifactPresent() bool {
	info, err := os.Stat(c.ArtifactPath())
	return err == nil && info.Size() > 0
}

// WithError returns a copy of s marked failed with err, or cleared when err is nil
func WithError(s Source, err error) Source {
	c := s.core()
	c.err = err
	return s.withCore(c)
}

// WithName returns a copy of s with a new name
func WithName(s Source, name string) Source {
	c := s.core()
	c.name = name
	return s.withCore(c)
}

// WithDisplayName returns a copy of s with a new display name
func WithDisplayName(s Source, displayName string) Source {
	c := s.core()
	c.displayName = strings.TrimSpace(displayName)
	return s.withCore(c)
}

// WithTimestamps returns a copy of s with new timestamps; zero values keep the current ones
func WithTimestamps(s Source, createdAt, updatedAt time.Time) Source {
	c := s.core()
	if !createdAt.IsZero() {
		c.createdAt = createdAt
	}
	if !updatedAt.IsZero() {
		c.updatedAt = updatedAt
	}
	return s.withCore(c)
}

// DeleteArtifact removes the cached artifact and its derived cache
func DeleteArtifact(s Source) error {
	if err := os.Remove(s.ArtifactPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(s.Dir(), CacheDirName)); err != nil {
		return fmt.Errorf("failed to delete derived cache: %w", err)
	}
	return nil
}

// LocalBundle is a bundle imported from a local file
type LocalBundle struct {
	sourceCore
}

func (b *LocalBundle) withCore(c sourceCore) Source {
	cp := *b
	cp.sourceCore = c
	return &cp
}

// Replace stores the content of r as the bundle's artifact
func (b *LocalBundle) Replace(r io.Reader) error {
	_, err := writeArtifact(b.ArtifactPath(), func(w io.Writer) (int64, error) {
		return io.Copy(w, r)
	})
	return err
}

// writeArtifact writes through a temporary file and renames it into place so a
// failed transfer never leaves a truncated artifact behind
func writeArtifact(path string, fill func(io.Writer) (int64, error)) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return 0, fmt.Errorf("failed to create bundle directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary artifact: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// Clean up on failure; after a successful rename this is a no-op
		_ = os.Remove(tmpPath)
	}()

	n, err := fill(tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, ErrEmptyArtifact
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return n, fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return n, nil
}

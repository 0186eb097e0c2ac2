package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

//go:generate mockgen -destination=mocks/mock_invalidator.go -package=mocks -source=invalidator.go VersionStore

// VersionStore persists the app version the derived caches were built by
type VersionStore interface {
	CacheAppVersion() string
	SetCacheAppVersion(version string) error
}

// LoadError is returned when metadata could not be loaded even after the derived
// cache was cleared
type LoadError struct {
	ArtifactPath string
	Err          error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load bundle metadata from %s: %v", e.ArtifactPath, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Invalidator purges derived caches whose source artifact changed
type Invalidator struct {
	bundlesDir string
	versions   VersionStore

	initMu      sync.Mutex
	initialized bool

	// hashes counts full content hashes
	hashMu sync.Mutex
	hashes int
}

// NewInvalidator creates an invalidator for the bundle directories under bundlesDir
func NewInvalidator(bundlesDir string, versions VersionStore) *Invalidator {
	return &Invalidator{bundlesDir: bundlesDir, versions: versions}
}

// EnsureGlobal purges every derived cache the first time it runs after an app
// version change. Later calls in the same process are no-ops.
func (i *Invalidator) EnsureGlobal(ctx context.Context, appVersion string) error {
	i.initMu.Lock()
	defer i.initMu.Unlock()
	if i.initialized {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := ""
	if i.versions != nil {
		stored = i.versions.CacheAppVersion()
	}
	if stored != appVersion {
		slog.Info("App version changed, purging derived bundle caches",
			"previous_version", stored, "app_version", appVersion)
		if err := i.purgeAll(); err != nil {
			return err
		}
		if i.versions != nil {
			if err := i.versions.SetCacheAppVersion(appVersion); err != nil {
				return fmt.Errorf("failed to record cache app version: %w", err)
			}
		}
	}
	i.initialized = true
	return nil
}

func (i *Invalidator) purgeAll() error {
	entries, err := os.ReadDir(i.bundlesDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list bundle directories: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(i.bundlesDir, entry.Name())
		if err := os.RemoveAll(filepath.Join(dir, bundles.CacheDirName)); err != nil {
			return fmt.Errorf("failed to purge derived cache of %s: %w", entry.Name(), err)
		}
		if err := removeDigest(dir); err != nil {
			return fmt.Errorf("failed to reset digest of %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Check compares the artifact against its recorded digest and removes the
// derived cache when the content changed. Unchanged size and modification time
// skip hashing.
func (i *Invalidator) Check(ctx context.Context, bundleDir, artifactPath string) error {
	info, err := os.Stat(artifactPath)
	if err != nil {
		return fmt.Errorf("failed to stat artifact: %w", err)
	}

	recorded := readDigest(bundleDir)
	if recorded != nil && recorded.matchesStat(info) {
		return nil
	}

	hash, err := hashFile(ctx, artifactPath)
	if err != nil {
		return err
	}
	i.hashMu.Lock()
	i.hashes++
	i.hashMu.Unlock()

	if recorded == nil || recorded.Hash != hash {
		slog.Debug("Bundle content changed, clearing derived cache", "dir", bundleDir)
		if err := os.RemoveAll(filepath.Join(bundleDir, bundles.CacheDirName)); err != nil {
			return fmt.Errorf("failed to clear derived cache: %w", err)
		}
	}

	return writeDigest(bundleDir, DigestInfo{
		Hash:         hash,
		Size:         info.Size(),
		LastModified: info.ModTime().UnixMilli(),
	})
}

// HashCount returns how many artifacts were fully hashed
func (i *Invalidator) HashCount() int {
	i.hashMu.Lock()
	defer i.hashMu.Unlock()
	return i.hashes
}

// LoadMetadata validates the derived cache and loads the artifact's metadata. A
// failed load clears the derived cache and is retried exactly once.
func (i *Invalidator) LoadMetadata(
	ctx context.Context, bundleDir, artifactPath string, loader bundles.MetadataLoader,
) (string, []bundles.PatchDescriptor, error) {
	if err := i.Check(ctx, bundleDir, artifactPath); err != nil {
		return "", nil, &LoadError{ArtifactPath: artifactPath, Err: err}
	}

	cacheDir := filepath.Join(bundleDir, bundles.CacheDirName)
	typ, patches, err := loader.LoadMetadata(ctx, artifactPath, cacheDir)
	if err == nil {
		return typ, patches, nil
	}
	if ctx.Err() != nil {
		return "", nil, ctx.Err()
	}

	slog.Warn("Bundle metadata load failed, retrying with a clean derived cache",
		"artifact", artifactPath, "error", err)
	if rmErr := os.RemoveAll(cacheDir); rmErr != nil {
		return "", nil, &LoadError{ArtifactPath: artifactPath, Err: errors.Join(err, rmErr)}
	}
	typ, patches, err = loader.LoadMetadata(ctx, artifactPath, cacheDir)
	if err != nil {
		return "", nil, &LoadError{ArtifactPath: artifactPath, Err: err}
	}
	return typ, patches, nil
}

func hashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	d, err := digest.SHA256.FromReader(&contextReader{ctx: ctx, r: f})
	if err != nil {
		return "", fmt.Errorf("failed to hash artifact: %w", err)
	}
	return d.Encoded(), nil
}

// contextReader stops a long hash when ctx is cancelled
type contextReader struct {
	ctx context.Context
	r   *os.File
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

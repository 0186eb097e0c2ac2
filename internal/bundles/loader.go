package bundles

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
)

// MetadataLoader indexes the patches an artifact carries
type MetadataLoader interface {
	ManifestReader
	// LoadMetadata returns the bundle type tag and the patch descriptors of an artifact,
	// using cacheDir for derived data
	LoadMetadata(ctx context.Context, artifactPath, cacheDir string) (string, []PatchDescriptor, error)
}

// Loader turns stored configurations into sources
type Loader struct {
	bundlesDir string
	deps       *Deps
}

// NewLoader creates a loader rooted at bundlesDir
func NewLoader(bundlesDir string, deps *Deps) *Loader {
	if deps == nil {
		deps = &Deps{}
	}
	return &Loader{bundlesDir: bundlesDir, deps: deps}
}

// Deps returns the collaborators handed to remote variants
func (l *Loader) Deps() *Deps {
	return l.deps
}

// Dir returns the cache directory of a bundle
func (l *Loader) Dir(uid int) string {
	return filepath.Join(l.bundlesDir, strconv.Itoa(uid))
}

// BundlesDir returns the root of all bundle directories
func (l *Loader) BundlesDir() string {
	return l.bundlesDir
}

// Load instantiates the variant cfg.Origin selects. It never fails: a manifest
// that cannot be read marks the source Failed.
func (l *Loader) Load(cfg Config) Source {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		if cfg.IsDefault() {
			name = DefaultName
		} else {
			name = FallbackName
		}
	}

	c := sourceCore{
		uid:         cfg.UID,
		name:        name,
		displayName: strings.TrimSpace(cfg.DisplayName),
		origin:      cfg.Origin,
		createdAt:   cfg.CreatedAt,
		updatedAt:   cfg.UpdatedAt,
		enabled:     cfg.Enabled,
		dir:         l.Dir(cfg.UID),
	}
	c.hasArtifact = c.artifactPresent()
	if c.hasArtifact && l.deps.Manifests != nil {
		manifest, err := l.deps.Manifests.ReadManifest(c.ArtifactPath())
		if err != nil {
			c.err = fmt.Errorf("failed to read manifest: %w", err)
		} else {
			c.manifest = manifest
		}
	}

	r := remoteCore{
		endpoint:            cfg.Origin.URL,
		autoUpdate:          cfg.AutoUpdate,
		searchUpdate:        cfg.SearchUpdate,
		installedVersion:    cfg.VersionSignature,
		lastNotifiedVersion: cfg.LastNotifiedVersion,
		deps:                l.deps,
	}

	switch cfg.Origin.Kind {
	case OriginLocal:
		return &LocalBundle{sourceCore: c}
	case OriginAPI:
		return &APIBundle{sourceCore: c, remoteCore: r}
	case OriginPullRequest:
		return &PullRequestBundle{sourceCore: c, remoteCore: r}
	case OriginRemote:
		if meta := l.discoveryMetadata(c.dir, cfg.Origin.URL); meta != nil {
			return &DiscoveryBundle{sourceCore: c, remoteCore: r, meta: &externalState{data: *meta}}
		}
		return &JSONBundle{sourceCore: c, remoteCore: r}
	default:
		slog.Warn("Unknown bundle origin, treating as local", "bundle_uid", cfg.UID, "origin", cfg.Origin.String())
		return &LocalBundle{sourceCore: c}
	}
}

// discoveryMetadata returns non-nil when the bundle should use the discovery variant
func (l *Loader) discoveryMetadata(dir, endpoint string) *ExternalMetadata {
	meta, err := ReadExternalMetadata(dir)
	if err != nil {
		slog.Warn("Ignoring unreadable external bundle metadata", "dir", dir, "error", err)
	}
	if meta != nil {
		return meta
	}
	if IsDiscoveryEndpoint(endpoint, l.deps.DiscoveryHosts) {
		owner, repo, prerelease := parseDiscoveryEndpoint(endpoint)
		return &ExternalMetadata{OwnerName: owner, RepoName: repo, IsPrerelease: prerelease}
	}
	return nil
}

// AsRemote returns s as a Remote when it is refreshed from the network
func AsRemote(s Source) (Remote, bool) {
	r, ok := s.(Remote)
	return r, ok
}

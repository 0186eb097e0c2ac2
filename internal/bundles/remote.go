package bundles

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Remote is a bundle that is refreshed from the network
type Remote interface {
	Source
	Endpoint() string
	AutoUpdate() bool
	SearchUpdate() bool
	// InstalledVersion is the version signature stored with the record
	InstalledVersion() string
	LastNotifiedVersion() string
	// FetchLatestReleaseInfo returns the latest release, cached for ten minutes per bundle
	FetchLatestReleaseInfo(ctx context.Context) (ReleaseInfo, error)
	// Update downloads the latest release unless it is already installed; a nil
	// result means there was nothing to do
	Update(ctx context.Context, onProgress ProgressFunc) (*DownloadResult, error)
	// DownloadLatest downloads the latest release unconditionally
	DownloadLatest(ctx context.Context, onProgress ProgressFunc) (*DownloadResult, error)

	remoteState() remoteCore
	withRemote(remoteCore) Remote
}

// variant is implemented by every remote bundle type
type variant interface {
	Remote
	latestInfo(ctx context.Context) (ReleaseInfo, error)
	cacheIdentity() string
	download(ctx context.Context, info ReleaseInfo, onProgress ProgressFunc) (*DownloadResult, error)
}

type remoteCore struct {
	endpoint            string
	autoUpdate          bool
	searchUpdate        bool
	installedVersion    string
	lastNotifiedVersion string
	deps                *Deps
}

func (r remoteCore) Endpoint() string            { return r.endpoint }
func (r remoteCore) AutoUpdate() bool            { return r.autoUpdate }
func (r remoteCore) SearchUpdate() bool          { return r.searchUpdate }
func (r remoteCore) InstalledVersion() string    { return r.installedVersion }
func (r remoteCore) LastNotifiedVersion() string { return r.lastNotifiedVersion }
func (r remoteCore) remoteState() remoteCore     { return r }
func (r remoteCore) cacheIdentity() string       { return r.endpoint }

// WithAutoUpdate returns a copy of r with a new auto-update flag
func WithAutoUpdate(r Remote, autoUpdate bool) Remote {
	rc := r.remoteState()
	rc.autoUpdate = autoUpdate
	return r.withRemote(rc)
}

// WithInstalledVersion returns a copy of r with a new stored version signature
func WithInstalledVersion(r Remote, signature string) Remote {
	rc := r.remoteState()
	rc.installedVersion = signature
	return r.withRemote(rc)
}

func fetchLatest(ctx context.Context, v variant) (ReleaseInfo, error) {
	deps := v.remoteState().deps
	if deps == nil || deps.Releases == nil {
		return v.latestInfo(ctx)
	}
	key := fmt.Sprintf("%d|%s", v.UID(), v.cacheIdentity())
	return deps.Releases.Get(ctx, key, v.latestInfo)
}

func runUpdate(ctx context.Context, v variant, onProgress ProgressFunc) (*DownloadResult, error) {
	info, err := v.FetchLatestReleaseInfo(ctx)
	if err != nil {
		return nil, err
	}

	latest := NormalizeVersion(info.Version)
	if latest == "" {
		return nil, nil
	}
	installed := NormalizeVersion(v.InstalledVersion())
	declared := NormalizeVersion(v.Version())
	if v.core().artifactPresent() &&
		((installed != "" && latest == installed) || (declared != "" && latest == declared)) {
		return nil, nil
	}

	return v.download(ctx, info, onProgress)
}

// downloadArtifact is the plain HTTP download shared by the non-PR variants
func downloadArtifact(
	ctx context.Context, c sourceCore, deps *Deps, info ReleaseInfo, onProgress ProgressFunc,
) (*DownloadResult, error) {
	if strings.TrimSpace(info.DownloadURL) == "" {
		return nil, ErrNoArtifactURL
	}
	if deps == nil || deps.HTTP == nil {
		return nil, fmt.Errorf("no HTTP client configured")
	}

	_, err := writeArtifact(c.ArtifactPath(), func(w io.Writer) (int64, error) {
		return deps.HTTP.Download(ctx, info.DownloadURL, nil, w, onProgress)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download bundle: %w", err)
	}
	return resultFor(info), nil
}

func resultFor(info ReleaseInfo) *DownloadResult {
	return &DownloadResult{
		VersionSignature: info.Version,
		AssetCreatedAt:   info.CreatedAt,
		Release:          info,
	}
}

// JSONBundle follows a JSON release document at an arbitrary URL
type JSONBundle struct {
	sourceCore
	remoteCore
}

func (b *JSONBundle) withCore(c sourceCore) Source {
	cp := *b
	cp.sourceCore = c
	return &cp
}

func (b *JSONBundle) withRemote(r remoteCore) Remote {
	cp := *b
	cp.remoteCore = r
	return &cp
}

func (b *JSONBundle) latestInfo(ctx context.Context) (ReleaseInfo, error) {
	if b.deps == nil || b.deps.HTTP == nil {
		return ReleaseInfo{}, fmt.Errorf("no HTTP client configured")
	}
	return b.deps.HTTP.FetchRelease(ctx, b.endpoint)
}

func (b *JSONBundle) download(ctx context.Context, info ReleaseInfo, onProgress ProgressFunc) (*DownloadResult, error) {
	return downloadArtifact(ctx, b.sourceCore, b.deps, info, onProgress)
}

// FetchLatestReleaseInfo implements Remote
func (b *JSONBundle) FetchLatestReleaseInfo(ctx context.Context) (ReleaseInfo, error) {
	return fetchLatest(ctx, b)
}

// Update implements Remote
func (b *JSONBundle) Update(ctx context.Context, onProgress ProgressFunc) (*DownloadResult, error) {
	return runUpdate(ctx, b, onProgress)
}

// DownloadLatest implements Remote
func (b *JSONBundle) DownloadLatest(ctx context.Context, onProgress ProgressFunc) (*DownloadResult, error) {
	info, err := b.FetchLatestReleaseInfo(ctx)
	if err != nil {
		return nil, err
	}
	return b.download(ctx, info, onProgress)
}

// APIBundle follows the official patches API
type APIBundle struct {
	sourceCore
	remoteCore
}

func (b *APIBundle) withCore(c sourceCore) Source {
	cp := *b
	cp.sourceCore = c
	return &cp
}

func (b *APIBundle) withRemote(r remoteCore) Remote {
	cp := *b
	cp.remoteCore = r
	return &cp
}

func (b *APIBundle) prerelease() bool {
	return b.deps != nil && b.deps.Prefs != nil && b.deps.Prefs.UsePatchesPrereleases()
}

func (b *APIBundle) cacheIdentity() string {
	return fmt.Sprintf("%s|prerelease=%t", b.endpoint, b.prerelease())
}

func (b *APIBundle) latestInfo(ctx context.Context) (ReleaseInfo, error) {
	if b.deps == nil || b.deps.Patches == nil {
		return ReleaseInfo{}, fmt.Errorf("no patches API configured")
	}
	return b.deps.Patches.LatestPatches(ctx, b.prerelease())
}

func (b *APIBundle) download(ctx context.Context, info ReleaseInfo, onProgress ProgressFunc) (*DownloadResult, error) {
	return downloadArtifact(ctx, b.sourceCore, b.deps, info, onProgress)
}

// FetchLatestReleaseInfo implements Remote
func (b *APIBundle) FetchLatestReleaseInfo(ctx context.Context) (ReleaseInfo, error) {
	return fetchLatest(ctx, b)
}

// Update implements Remote
func (b *APIBundle) Update(ctx context.Context, onProgress ProgressFunc) (*DownloadResult, error) {
	return runUpdate(ctx, b, onProgress)
}

// DownloadLatest implements Remote
func (b *APIBundle) DownloadLatest(ctx context.Context, onProgress ProgressFunc) (*DownloadResult, error) {
	info, err := b.FetchLatestReleaseInfo(ctx)
	if err != nil {
		return nil, err
	}
	return b.download(ctx, info, onProgress)
}

package bundles

import (
	"context"
	"io"
	"net/http"
)

//go:generate mockgen -destination=mocks/mock_deps.go -package=mocks -source=deps.go ReleaseFetcher,PatchesAPI,DiscoveryAPI,PullRequestAPI,Preferences,ManifestReader

// ReleaseFetcher talks plain HTTP to release endpoints and artifact URLs
type ReleaseFetcher interface {
	// FetchRelease reads a release document from a JSON endpoint
	FetchRelease(ctx context.Context, url string) (ReleaseInfo, error)
	// Download streams url into dst and returns the number of bytes written
	Download(ctx context.Context, url string, header http.Header, dst io.Writer, onProgress ProgressFunc) (int64, error)
}

// PatchesAPI is the official patches API
type PatchesAPI interface {
	LatestPatches(ctx context.Context, prerelease bool) (ReleaseInfo, error)
}

// DiscoveryAPI is the external bundle discovery service
type DiscoveryAPI interface {
	// LatestBundle returns nil when the repository has no bundle on that channel
	LatestBundle(ctx context.Context, owner, repo string, prerelease bool) (*ExternalSnapshot, error)
	// BundleByID returns nil when the id is unknown
	BundleByID(ctx context.Context, id int) (*ExternalSnapshot, error)
}

// PullRequestAPI resolves the CI artifact built for a pull request
type PullRequestAPI interface {
	PullRequestArtifact(ctx context.Context, owner, repo string, number int) (ReleaseInfo, error)
}

// Preferences exposes the user preferences remote bundles depend on
type Preferences interface {
	UsePatchesPrereleases() bool
	GitHubToken() string
}

// ManifestReader reads the manifest an artifact declares
type ManifestReader interface {
	ReadManifest(artifactPath string) (*Manifest, error)
}

// Deps are the collaborators remote variants use
type Deps struct {
	HTTP           ReleaseFetcher
	Patches        PatchesAPI
	Discovery      DiscoveryAPI
	PullRequests   PullRequestAPI
	Prefs          Preferences
	Manifests      ManifestReader
	Releases       *ReleaseCache
	DiscoveryHosts []string
}

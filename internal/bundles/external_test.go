package bundles_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/bundles/mocks"
)

func TestDiscoveryEndpoint(t *testing.T) {
	t.Parallel()

	pre := false
	endpoint := bundles.DiscoveryEndpoint(discoveryHosts[0], "acme", "my patches", &pre)
	assert.Equal(t, "https://revanced-external-bundles.brosssh.com/api/v1/bundle/acme/my%20patches?prerelease=false", endpoint)
	assert.True(t, bundles.IsDiscoveryEndpoint(endpoint, discoveryHosts))
	assert.False(t, bundles.IsDiscoveryEndpoint(endpoint, []string{"other.example.com"}))
	assert.False(t, bundles.IsDiscoveryEndpoint("https://revanced-external-bundles.brosssh.com/files/p.rvp", discoveryHosts))
}

func TestMetadataFromSnapshot(t *testing.T) {
	t.Parallel()

	snapshot := bundles.ExternalSnapshot{BundleID: 4, OwnerName: "acme", RepoName: "patches", IsPrerelease: true}

	pinned := bundles.MetadataFromSnapshot(snapshot, false)
	require.NotNil(t, pinned.IsPrerelease)
	assert.True(t, *pinned.IsPrerelease)

	tracking := bundles.MetadataFromSnapshot(snapshot, true)
	assert.Nil(t, tracking.IsPrerelease)
}

func TestDiscoveryBundle_FetchLatestReleaseInfo(t *testing.T) {
	t.Parallel()

	t.Run("newest of both channels when no channel is pinned", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		discovery := mocks.NewMockDiscoveryAPI(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{Discovery: discovery, DiscoveryHosts: discoveryHosts})

		discovery.EXPECT().LatestBundle(gomock.Any(), "acme", "patches", false).Return(&bundles.ExternalSnapshot{
			BundleID: 1, Version: "1.0.0", DownloadURL: "https://cdn.example.com/1.rvp",
			CreatedAt: "2025-01-01T00:00:00Z",
		}, nil)
		discovery.EXPECT().LatestBundle(gomock.Any(), "acme", "patches", true).Return(&bundles.ExternalSnapshot{
			BundleID: 2, Version: "1.1.0-dev.1", DownloadURL: "https://cdn.example.com/2.rvp",
			CreatedAt: "2025-02-01T00:00:00Z", IsPrerelease: true,
		}, nil)

		endpoint := bundles.DiscoveryEndpoint(discoveryHosts[0], "acme", "patches", nil)
		remote, _ := bundles.AsRemote(loader.Load(bundles.Config{UID: 40, Origin: bundles.OriginFromURL(endpoint)}))

		info, err := remote.FetchLatestReleaseInfo(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "1.1.0-dev.1", info.Version)
		assert.Equal(t, "https://cdn.example.com/2.rvp", info.DownloadURL)
		assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), info.CreatedAt)

		meta, err := bundles.ReadExternalMetadata(remote.Dir())
		require.NoError(t, err)
		require.NotNil(t, meta)
		assert.Nil(t, meta.IsPrerelease, "tracking both channels keeps the channel unpinned")
		assert.Equal(t, "1.1.0-dev.1", meta.Version)
	})

	t.Run("falls back to lookup by id", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		discovery := mocks.NewMockDiscoveryAPI(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{Discovery: discovery, DiscoveryHosts: discoveryHosts})

		require.NoError(t, bundles.WriteExternalMetadata(loader.Dir(41), bundles.ExternalMetadata{BundleID: 77}))
		discovery.EXPECT().BundleByID(gomock.Any(), 77).Return(&bundles.ExternalSnapshot{
			BundleID: 77, Version: "3.0.0", DownloadURL: "https://cdn.example.com/77.rvp",
		}, nil)

		remote, _ := bundles.AsRemote(loader.Load(bundles.Config{UID: 41, Origin: bundles.OriginFromURL("https://mirror.example.com/x")}))
		info, err := remote.FetchLatestReleaseInfo(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "3.0.0", info.Version)
	})

	t.Run("rejects artifact urls that point at the discovery api", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		discovery := mocks.NewMockDiscoveryAPI(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{Discovery: discovery, DiscoveryHosts: discoveryHosts})

		pre := false
		endpoint := bundles.DiscoveryEndpoint(discoveryHosts[0], "acme", "patches", &pre)
		discovery.EXPECT().LatestBundle(gomock.Any(), "acme", "patches", false).Return(&bundles.ExternalSnapshot{
			Version: "1.0.0", DownloadURL: endpoint,
		}, nil)

		remote, _ := bundles.AsRemote(loader.Load(bundles.Config{UID: 42, Origin: bundles.OriginFromURL(endpoint)}))
		_, err := remote.FetchLatestReleaseInfo(context.Background())
		require.ErrorIs(t, err, bundles.ErrNoArtifactURL)
	})

	t.Run("official repository goes through the patches api", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		discovery := mocks.NewMockDiscoveryAPI(ctrl)
		patches := mocks.NewMockPatchesAPI(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{
			Discovery: discovery, Patches: patches, DiscoveryHosts: discoveryHosts,
		})

		pre := true
		endpoint := bundles.DiscoveryEndpoint(discoveryHosts[0], "ReVanced", "revanced-patches", &pre)
		patches.EXPECT().LatestPatches(gomock.Any(), true).Return(bundles.ReleaseInfo{
			Version: "v6.0.0-dev.2", DownloadURL: "https://api.revanced.app/p.rvp",
		}, nil)

		remote, _ := bundles.AsRemote(loader.Load(bundles.Config{UID: 43, Origin: bundles.OriginFromURL(endpoint)}))
		info, err := remote.FetchLatestReleaseInfo(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "v6.0.0-dev.2", info.Version)
	})
}

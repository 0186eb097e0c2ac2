package bundles_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/bundles/mocks"
)

var discoveryHosts = []string{"revanced-external-bundles.brosssh.com"}

func writeArtifact(t *testing.T, loader *bundles.Loader, uid int, content string) string {
	t.Helper()
	dir := loader.Dir(uid)
	require.NoError(t, os.MkdirAll(dir, 0750))
	path := filepath.Join(dir, bundles.ArtifactFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoader_Load_Variants(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		cfg      bundles.Config
		expected any
	}{
		{
			name:     "local",
			cfg:      bundles.Config{UID: 7, Name: "mine", Origin: bundles.LocalOrigin()},
			expected: &bundles.LocalBundle{},
		},
		{
			name:     "official api",
			cfg:      bundles.DefaultConfig(now),
			expected: &bundles.APIBundle{},
		},
		{
			name:     "pull request",
			cfg:      bundles.Config{UID: 3, Origin: bundles.OriginFromURL("https://github.com/a/b/pull/9")},
			expected: &bundles.PullRequestBundle{},
		},
		{
			name:     "json endpoint",
			cfg:      bundles.Config{UID: 4, Origin: bundles.OriginFromURL("https://example.com/p.json")},
			expected: &bundles.JSONBundle{},
		},
		{
			name: "discovery endpoint",
			cfg: bundles.Config{UID: 5, Origin: bundles.OriginFromURL(
				bundles.DiscoveryEndpoint(discoveryHosts[0], "acme", "patches", nil))},
			expected: &bundles.DiscoveryBundle{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{DiscoveryHosts: discoveryHosts})

			src := loader.Load(tt.cfg)
			assert.IsType(t, tt.expected, src)
			assert.Equal(t, bundles.Missing, src.Availability())
			_, isRemote := bundles.AsRemote(src)
			assert.Equal(t, tt.cfg.Origin.IsRemote(), isRemote)
		})
	}
}

func TestLoader_Load_NameFallback(t *testing.T) {
	t.Parallel()
	loader := bundles.NewLoader(t.TempDir(), nil)

	official := loader.Load(bundles.DefaultConfig(time.Now()))
	assert.Equal(t, bundles.DefaultName, official.Name())
	assert.True(t, official.IsDefault())

	other := loader.Load(bundles.Config{UID: 12, Name: "  ", Origin: bundles.LocalOrigin()})
	assert.Equal(t, bundles.FallbackName, other.Name())

	titled := loader.Load(bundles.Config{UID: 13, Name: "name", DisplayName: " Shown ", Origin: bundles.LocalOrigin()})
	assert.Equal(t, "Shown", titled.Title())
}

func TestLoader_Load_ExternalMetadataSelectsDiscovery(t *testing.T) {
	t.Parallel()
	loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{})

	pre := true
	require.NoError(t, bundles.WriteExternalMetadata(loader.Dir(8), bundles.ExternalMetadata{
		BundleID: 99, OwnerName: "acme", RepoName: "patches", IsPrerelease: &pre,
	}))

	src := loader.Load(bundles.Config{UID: 8, Origin: bundles.OriginFromURL("https://mirror.example.com/x")})
	discovered, ok := src.(*bundles.DiscoveryBundle)
	require.True(t, ok)
	assert.Equal(t, 99, discovered.Metadata().BundleID)
	require.NotNil(t, discovered.Metadata().IsPrerelease)
	assert.True(t, *discovered.Metadata().IsPrerelease)
}

func TestLoader_Load_Manifest(t *testing.T) {
	t.Parallel()

	t.Run("artifact with readable manifest is available", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		manifests := mocks.NewMockManifestReader(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{Manifests: manifests})
		path := writeArtifact(t, loader, 2, "artifact")

		manifests.EXPECT().ReadManifest(path).Return(&bundles.Manifest{Name: "Declared", Version: "v3.1.0"}, nil)

		src := loader.Load(bundles.Config{UID: 2, Name: "Stored", Origin: bundles.LocalOrigin()})
		assert.Equal(t, bundles.Available, src.Availability())
		assert.Equal(t, "v3.1.0", src.Version())
		assert.True(t, src.IsNameOutOfDate())
	})

	t.Run("unreadable manifest marks the source failed", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		manifests := mocks.NewMockManifestReader(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{Manifests: manifests})
		writeArtifact(t, loader, 2, "garbage")

		manifests.EXPECT().ReadManifest(gomock.Any()).Return(nil, bundles.ErrUnrecognizedFormat)

		src := loader.Load(bundles.Config{UID: 2, Origin: bundles.LocalOrigin()})
		assert.Equal(t, bundles.Failed, src.Availability())
		assert.True(t, errors.Is(src.Err(), bundles.ErrUnrecognizedFormat))
		assert.Nil(t, src.Manifest())
	})
}

func TestSourceCopies(t *testing.T) {
	t.Parallel()
	loader := bundles.NewLoader(t.TempDir(), nil)
	original := loader.Load(bundles.Config{UID: 1, Name: "a", Origin: bundles.LocalOrigin()})

	renamed := bundles.WithName(original, "b")
	failed := bundles.WithError(renamed, errors.New("broken"))

	assert.Equal(t, "a", original.Name())
	assert.Equal(t, "b", renamed.Name())
	assert.Equal(t, bundles.Missing, renamed.Availability())
	assert.Equal(t, bundles.Failed, failed.Availability())
	assert.Equal(t, bundles.Missing, bundles.WithError(failed, nil).Availability())
}

func TestLocalBundle_Replace(t *testing.T) {
	t.Parallel()
	loader := bundles.NewLoader(t.TempDir(), nil)
	src := loader.Load(bundles.Config{UID: 21, Origin: bundles.LocalOrigin()})
	local, ok := src.(*bundles.LocalBundle)
	require.True(t, ok)

	require.ErrorIs(t, local.Replace(emptyReader{}), bundles.ErrEmptyArtifact)
	_, err := os.Stat(local.ArtifactPath())
	assert.True(t, os.IsNotExist(err), "failed import must not leave an artifact")

	require.NoError(t, local.Replace(stringsReader("content")))
	data, err := os.ReadFile(local.ArtifactPath())
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	require.NoError(t, os.MkdirAll(filepath.Join(local.Dir(), bundles.CacheDirName), 0750))
	require.NoError(t, bundles.DeleteArtifact(local))
	_, err = os.Stat(filepath.Join(local.Dir(), bundles.CacheDirName))
	assert.True(t, os.IsNotExist(err))
}

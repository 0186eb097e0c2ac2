package bundles_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/bundles/mocks"
)

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func serve(content []byte) func(context.Context, string, http.Header, io.Writer, bundles.ProgressFunc) (int64, error) {
	return func(_ context.Context, _ string, _ http.Header, dst io.Writer, onProgress bundles.ProgressFunc) (int64, error) {
		n, err := dst.Write(content)
		if err == nil && onProgress != nil {
			err = onProgress(int64(n), int64(len(content)))
		}
		return int64(n), err
	}
}

func TestAPIBundle_Update(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	release := bundles.ReleaseInfo{Version: "v5.1.0", DownloadURL: "https://cdn.example.com/p.rvp", CreatedAt: created}

	t.Run("downloads when the latest version is not installed", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		httpMock := mocks.NewMockReleaseFetcher(ctrl)
		patches := mocks.NewMockPatchesAPI(ctrl)
		prefs := mocks.NewMockPreferences(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{HTTP: httpMock, Patches: patches, Prefs: prefs})

		prefs.EXPECT().UsePatchesPrereleases().Return(false).AnyTimes()
		patches.EXPECT().LatestPatches(gomock.Any(), false).Return(release, nil)
		httpMock.EXPECT().Download(gomock.Any(), release.DownloadURL, gomock.Nil(), gomock.Any(), gomock.Any()).
			DoAndReturn(serve([]byte("new artifact")))

		cfg := bundles.DefaultConfig(created)
		cfg.VersionSignature = "v5.0.0"
		remote, ok := bundles.AsRemote(loader.Load(cfg))
		require.True(t, ok)

		var progressed bool
		result, err := remote.Update(context.Background(), func(read, total int64) error {
			progressed = true
			assert.Equal(t, total, read)
			return nil
		})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "v5.1.0", result.VersionSignature)
		assert.Equal(t, created, result.AssetCreatedAt)
		assert.True(t, progressed)

		data, err := os.ReadFile(remote.ArtifactPath())
		require.NoError(t, err)
		assert.Equal(t, "new artifact", string(data))
	})

	t.Run("returns nil when the installed signature matches", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		httpMock := mocks.NewMockReleaseFetcher(ctrl)
		patches := mocks.NewMockPatchesAPI(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{HTTP: httpMock, Patches: patches})
		writeArtifact(t, loader, bundles.DefaultUID, "installed")

		patches.EXPECT().LatestPatches(gomock.Any(), false).Return(release, nil)

		cfg := bundles.DefaultConfig(created)
		cfg.VersionSignature = "5.1.0+build7"
		remote, _ := bundles.AsRemote(loader.Load(cfg))

		result, err := remote.Update(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("signature match without an artifact still downloads", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		httpMock := mocks.NewMockReleaseFetcher(ctrl)
		patches := mocks.NewMockPatchesAPI(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{HTTP: httpMock, Patches: patches})

		patches.EXPECT().LatestPatches(gomock.Any(), false).Return(release, nil)
		httpMock.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(serve([]byte("x")))

		cfg := bundles.DefaultConfig(created)
		cfg.VersionSignature = "v5.1.0"
		remote, _ := bundles.AsRemote(loader.Load(cfg))

		result, err := remote.Update(context.Background(), nil)
		require.NoError(t, err)
		require.NotNil(t, result)
	})

	t.Run("blank download url is an error", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		patches := mocks.NewMockPatchesAPI(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{HTTP: mocks.NewMockReleaseFetcher(ctrl), Patches: patches})

		patches.EXPECT().LatestPatches(gomock.Any(), false).Return(bundles.ReleaseInfo{Version: "v9"}, nil)

		remote, _ := bundles.AsRemote(loader.Load(bundles.DefaultConfig(created)))
		_, err := remote.DownloadLatest(context.Background(), nil)
		require.ErrorIs(t, err, bundles.ErrNoArtifactURL)
	})
}

func TestAPIBundle_ReleaseCacheTracksPrereleaseFlag(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	patches := mocks.NewMockPatchesAPI(ctrl)
	prefs := mocks.NewMockPreferences(ctrl)
	loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{
		Patches:  patches,
		Prefs:    prefs,
		Releases: bundles.NewReleaseCache(time.Hour),
	})
	remote, _ := bundles.AsRemote(loader.Load(bundles.DefaultConfig(time.Now())))

	gomock.InOrder(
		prefs.EXPECT().UsePatchesPrereleases().Return(false).Times(2),
		prefs.EXPECT().UsePatchesPrereleases().Return(true).Times(2),
	)
	patches.EXPECT().LatestPatches(gomock.Any(), false).Return(bundles.ReleaseInfo{Version: "stable"}, nil).Times(1)
	patches.EXPECT().LatestPatches(gomock.Any(), true).Return(bundles.ReleaseInfo{Version: "dev"}, nil).Times(1)

	first, err := remote.FetchLatestReleaseInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stable", first.Version)

	second, err := remote.FetchLatestReleaseInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dev", second.Version)
}

func zipWith(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestPullRequestBundle_DownloadLatest(t *testing.T) {
	t.Parallel()

	prURL := "https://github.com/acme/patches/pull/17"
	artifact := bundles.ReleaseInfo{Version: "abc123", DownloadURL: "https://api.github.com/artifacts/1/zip"}

	t.Run("token is required", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		prs := mocks.NewMockPullRequestAPI(ctrl)
		prefs := mocks.NewMockPreferences(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{
			HTTP: mocks.NewMockReleaseFetcher(ctrl), PullRequests: prs, Prefs: prefs,
		})

		prs.EXPECT().PullRequestArtifact(gomock.Any(), "acme", "patches", 17).Return(artifact, nil)
		prefs.EXPECT().GitHubToken().Return("  ")

		remote, _ := bundles.AsRemote(loader.Load(bundles.Config{UID: 30, Origin: bundles.OriginFromURL(prURL)}))
		_, err := remote.DownloadLatest(context.Background(), nil)
		require.ErrorIs(t, err, bundles.ErrTokenRequired)
	})

	t.Run("extracts the first bundle entry", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		httpMock := mocks.NewMockReleaseFetcher(ctrl)
		prs := mocks.NewMockPullRequestAPI(ctrl)
		prefs := mocks.NewMockPreferences(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{HTTP: httpMock, PullRequests: prs, Prefs: prefs})

		archive := zipWith(t, map[string]string{"README.md": "docs", "build/patches-1.0.rvp": "bundle bytes"})
		prs.EXPECT().PullRequestArtifact(gomock.Any(), "acme", "patches", 17).Return(artifact, nil)
		prefs.EXPECT().GitHubToken().Return("ghp_token")
		httpMock.EXPECT().Download(gomock.Any(), artifact.DownloadURL, gomock.Any(), gomock.Any(), gomock.Nil()).
			DoAndReturn(func(_ context.Context, _ string, header http.Header, dst io.Writer, _ bundles.ProgressFunc) (int64, error) {
				assert.Equal(t, "Bearer ghp_token", header.Get("Authorization"))
				n, err := dst.Write(archive)
				return int64(n), err
			})

		remote, _ := bundles.AsRemote(loader.Load(bundles.Config{UID: 31, Origin: bundles.OriginFromURL(prURL)}))
		var lastRead int64
		result, err := remote.DownloadLatest(context.Background(), func(read, _ int64) error {
			lastRead = read
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "abc123", result.VersionSignature)
		assert.Equal(t, int64(len("bundle bytes")), lastRead)

		data, err := os.ReadFile(remote.ArtifactPath())
		require.NoError(t, err)
		assert.Equal(t, "bundle bytes", string(data))
	})

	t.Run("archive without a bundle entry fails", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		httpMock := mocks.NewMockReleaseFetcher(ctrl)
		prs := mocks.NewMockPullRequestAPI(ctrl)
		prefs := mocks.NewMockPreferences(ctrl)
		loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{HTTP: httpMock, PullRequests: prs, Prefs: prefs})

		prs.EXPECT().PullRequestArtifact(gomock.Any(), "acme", "patches", 17).Return(artifact, nil)
		prefs.EXPECT().GitHubToken().Return("ghp_token")
		httpMock.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(serve(zipWith(t, map[string]string{"notes.txt": "none"})))

		remote, _ := bundles.AsRemote(loader.Load(bundles.Config{UID: 32, Origin: bundles.OriginFromURL(prURL)}))
		_, err := remote.DownloadLatest(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no .rvp, .mpp, or .arp file")
	})
}

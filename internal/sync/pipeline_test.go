package sync_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	bundlemocks "github.com/stacklok/toolhive-bundle-sync/internal/bundles/mocks"
	"github.com/stacklok/toolhive-bundle-sync/internal/changelog"
	networkmocks "github.com/stacklok/toolhive-bundle-sync/internal/network/mocks"
	"github.com/stacklok/toolhive-bundle-sync/internal/notify"
	"github.com/stacklok/toolhive-bundle-sync/internal/repository"
	"github.com/stacklok/toolhive-bundle-sync/internal/status"
	pkgsync "github.com/stacklok/toolhive-bundle-sync/internal/sync"
)

type fakeRepo struct {
	mu      stdsync.Mutex
	state   repository.State
	applied [][]repository.UpdateResult
	names   map[string]string
}

func (r *fakeRepo) State() repository.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *fakeRepo) ApplyUpdateResults(_ context.Context, results []repository.UpdateResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, results)
	return nil
}

func (r *fakeRepo) Manifest(artifactPath string) (*bundles.Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name, ok := r.names[artifactPath]; ok {
		return &bundles.Manifest{Name: name}, nil
	}
	return nil, errors.New("no manifest")
}

func (r *fakeRepo) appliedUIDs() [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out [][]int
	for _, batch := range r.applied {
		var uids []int
		for _, res := range batch {
			uids = append(uids, res.UID)
		}
		out = append(out, uids)
	}
	return out
}

type prefsStub struct{ metered bool }

func (p prefsStub) AllowMeteredUpdates() bool { return p.metered }

type fixture struct {
	loader  *bundles.Loader
	fetcher *bundlemocks.MockReleaseFetcher
	repo    *fakeRepo
}

func newFixture(t *testing.T, ctrl *gomock.Controller, configs ...bundles.Config) *fixture {
	t.Helper()
	fetcher := bundlemocks.NewMockReleaseFetcher(ctrl)
	loader := bundles.NewLoader(t.TempDir(), &bundles.Deps{HTTP: fetcher})

	state := repository.EmptyState()
	for _, cfg := range configs {
		state.Sources[cfg.UID] = loader.Load(cfg)
		state.Order = append(state.Order, cfg.UID)
	}
	return &fixture{
		loader:  loader,
		fetcher: fetcher,
		repo:    &fakeRepo{state: state, names: map[string]string{}},
	}
}

func remoteConfig(uid int, autoUpdate bool) bundles.Config {
	return bundles.Config{
		UID:        uid,
		Name:       "bundle",
		Origin:     bundles.OriginFromURL("https://example.com/" + string(rune('a'+uid)) + ".json"),
		AutoUpdate: autoUpdate,
		Enabled:    true,
	}
}

func endpointOf(cfg bundles.Config) string {
	return cfg.Origin.URL
}

// expectRelease serves version for cfg and writes a small artifact on download
func (f *fixture) expectRelease(cfg bundles.Config, version string) {
	url := "https://example.com/artifact-" + version
	f.fetcher.EXPECT().FetchRelease(gomock.Any(), endpointOf(cfg)).Return(bundles.ReleaseInfo{
		Version:     version,
		DownloadURL: url,
		Description: "release " + version,
		CreatedAt:   time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}, nil).AnyTimes()
	f.fetcher.EXPECT().Download(gomock.Any(), url, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ http.Header, dst io.Writer, onProgress bundles.ProgressFunc) (int64, error) {
			if onProgress != nil {
				if err := onProgress(4, 8); err != nil {
					return 0, err
				}
			}
			n, err := dst.Write([]byte("artifact"))
			return int64(n), err
		}).AnyTimes()
}

func TestPipeline_UpdatesSelectedBundles(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	auto, manual := remoteConfig(1, true), remoteConfig(2, false)
	f := newFixture(t, ctrl, auto, manual)
	f.expectRelease(auto, "v2.0.0")
	f.repo.names[filepath.Join(f.loader.Dir(1), bundles.ArtifactFileName)] = "Renamed"

	ring := notify.NewRing(10)
	statuses := status.NewFileStatusPersistence(filepath.Join(t.TempDir(), status.StatusFileName))
	history := changelog.NewStore()

	var progressCalls atomic.Int32
	p := pkgsync.New(t.Context(), f.repo, prefsStub{metered: true}, nil,
		pkgsync.WithNotifier(ring),
		pkgsync.WithStatusPersistence(statuses),
		pkgsync.WithChangelog(history),
	)

	err := p.RequestAndWait(t.Context(), pkgsync.Request{
		ShowToast: true,
		Predicate: pkgsync.AutoUpdateOnly,
		OnBundleProgress: func(uid int, read, total int64) {
			assert.Equal(t, 1, uid)
			progressCalls.Add(1)
		},
	})
	require.NoError(t, err)

	require.Len(t, f.repo.applied, 1)
	require.Len(t, f.repo.applied[0], 1)
	res := f.repo.applied[0][0]
	assert.Equal(t, 1, res.UID)
	assert.Equal(t, "v2.0.0", res.Result.VersionSignature)
	assert.Equal(t, "Renamed", res.Name)
	assert.Positive(t, progressCalls.Load())

	notices := ring.Recent()
	require.NotEmpty(t, notices)
	assert.Equal(t, notify.LevelSuccess, notices[len(notices)-1].Level)

	st, err := statuses.LoadStatus(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseComplete, st.Phase)
	assert.Equal(t, "v2.0.0", st.Version)

	entries, err := history.Read(f.loader.Dir(1))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "v2.0.0", entries[0].Version)
}

func TestPipeline_NetworkGate(t *testing.T) {
	t.Parallel()

	t.Run("skips on metered network", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		f := newFixture(t, ctrl, remoteConfig(1, true))
		monitor := networkmocks.NewMockMonitor(ctrl)
		monitor.EXPECT().Available(gomock.Any()).Return(true)
		monitor.EXPECT().Metered().Return(true)

		ring := notify.NewRing(10)
		p := pkgsync.New(t.Context(), f.repo, prefsStub{}, monitor, pkgsync.WithNotifier(ring))

		err := p.RequestAndWait(t.Context(), pkgsync.Request{ShowToast: true})
		require.ErrorIs(t, err, pkgsync.ErrNetworkUnavailable)
		assert.Empty(t, f.repo.applied)
		require.Len(t, ring.Recent(), 1)
		assert.Equal(t, notify.LevelInfo, ring.Recent()[0].Level)
	})

	t.Run("unsafe network override runs the pass", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		cfg := remoteConfig(1, true)
		f := newFixture(t, ctrl, cfg)
		f.expectRelease(cfg, "1.0.0")
		monitor := networkmocks.NewMockMonitor(ctrl)

		p := pkgsync.New(t.Context(), f.repo, prefsStub{}, monitor)
		require.NoError(t, p.RequestAndWait(t.Context(), pkgsync.Request{AllowUnsafeNetwork: true}))
		assert.Len(t, f.repo.applied, 1)
	})
}

func TestPipeline_NoTargets(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl, remoteConfig(1, false))

	ring := notify.NewRing(10)
	p := pkgsync.New(t.Context(), f.repo, prefsStub{metered: true}, nil, pkgsync.WithNotifier(ring))

	require.NoError(t, p.RequestAndWait(t.Context(), pkgsync.Request{ShowToast: true, Predicate: pkgsync.AutoUpdateOnly}))
	require.Len(t, ring.Recent(), 1)
	assert.Equal(t, "No patch bundle updates available", ring.Recent()[0].Message)
}

func TestPipeline_BundleFailureDoesNotStopPass(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	broken, healthy := remoteConfig(1, true), remoteConfig(2, true)
	f := newFixture(t, ctrl, broken, healthy)
	f.fetcher.EXPECT().FetchRelease(gomock.Any(), endpointOf(broken)).
		Return(bundles.ReleaseInfo{}, errors.New("connection reset"))
	f.expectRelease(healthy, "3.0.0")

	ring := notify.NewRing(10)
	statuses := status.NewFileStatusPersistence(filepath.Join(t.TempDir(), status.StatusFileName))
	p := pkgsync.New(t.Context(), f.repo, prefsStub{metered: true}, nil,
		pkgsync.WithNotifier(ring),
		pkgsync.WithStatusPersistence(statuses),
	)

	err := p.RequestAndWait(t.Context(), pkgsync.Request{})
	require.Error(t, err)

	var bundleErr *pkgsync.Error
	require.ErrorAs(t, err, &bundleErr)
	assert.Equal(t, 1, bundleErr.UID)
	assert.Equal(t, pkgsync.PhaseChecking, bundleErr.Phase)
	assert.Contains(t, bundleErr.Message, "connection reset")

	assert.Equal(t, [][]int{{2}}, f.repo.appliedUIDs())
	assert.Contains(t, ring.Recent()[0].Message, "connection reset")

	st, err := statuses.LoadStatus(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseFailed, st.Phase)
	assert.Equal(t, 1, st.AttemptCount)
}

func TestPipeline_CoalescesRequestsIntoOneFollowUp(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	cfg := remoteConfig(1, true)
	f := newFixture(t, ctrl, cfg)
	f.fetcher.EXPECT().FetchRelease(gomock.Any(), endpointOf(cfg)).
		Return(bundles.ReleaseInfo{Version: "1.0.0", DownloadURL: "https://example.com/a.rvp"}, nil).AnyTimes()

	started := make(chan struct{}, 4)
	release := make(chan struct{})
	var inFlight, maxInFlight, downloads atomic.Int32
	f.fetcher.EXPECT().Download(gomock.Any(), "https://example.com/a.rvp", gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ http.Header, dst io.Writer, _ bundles.ProgressFunc) (int64, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				m := maxInFlight.Load()
				if n <= m || maxInFlight.CompareAndSwap(m, n) {
					break
				}
			}
			downloads.Add(1)
			started <- struct{}{}
			<-release
			w, err := dst.Write([]byte("x"))
			return int64(w), err
		}).AnyTimes()

	p := pkgsync.New(t.Context(), f.repo, prefsStub{metered: true}, nil)

	p.Request(t.Context(), pkgsync.Request{Force: true})
	<-started

	for range 3 {
		p.Request(t.Context(), pkgsync.Request{Force: true})
	}
	close(release)
	p.Wait()

	assert.Equal(t, int32(2), downloads.Load())
	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Len(t, f.repo.applied, 2)
}

func TestPipeline_CancelSkipsOneBundle(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	first, second := remoteConfig(1, true), remoteConfig(2, true)
	f := newFixture(t, ctrl, first, second)
	f.expectRelease(second, "2.0.0")
	f.fetcher.EXPECT().FetchRelease(gomock.Any(), endpointOf(first)).
		Return(bundles.ReleaseInfo{Version: "1.0.0", DownloadURL: "https://example.com/slow.rvp"}, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	var reportedAfterCancel atomic.Bool
	f.fetcher.EXPECT().Download(gomock.Any(), "https://example.com/slow.rvp", gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ http.Header, _ io.Writer, onProgress bundles.ProgressFunc) (int64, error) {
			close(started)
			<-release
			if err := onProgress(1, 2); err != nil {
				return 0, err
			}
			reportedAfterCancel.Store(true)
			return 0, nil
		})

	statuses := status.NewFileStatusPersistence(filepath.Join(t.TempDir(), status.StatusFileName))
	p := pkgsync.New(t.Context(), f.repo, prefsStub{metered: true}, nil, pkgsync.WithStatusPersistence(statuses))

	done := make(chan error, 1)
	go func() {
		done <- p.RequestAndWait(t.Context(), pkgsync.Request{ReportProgress: true})
	}()

	<-started
	before := p.Progress()
	require.NotNil(t, before)
	assert.Equal(t, 2, before.Total)

	p.Cancel(1)
	after := p.Progress()
	require.NotNil(t, after)
	assert.Equal(t, 1, after.Total)

	close(release)
	require.NoError(t, <-done)

	assert.False(t, reportedAfterCancel.Load())
	assert.Equal(t, [][]int{{2}}, f.repo.appliedUIDs())

	st, err := statuses.LoadStatus(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseCancelled, st.Phase)
}

func TestPipeline_ProgressIsDismissed(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	cfg := remoteConfig(1, true)
	f := newFixture(t, ctrl, cfg)
	f.expectRelease(cfg, "1.0.0")

	p := pkgsync.New(t.Context(), f.repo, prefsStub{metered: true}, nil,
		pkgsync.WithDismissDelay(20*time.Millisecond))

	require.NoError(t, p.RequestAndWait(t.Context(), pkgsync.Request{ReportProgress: true}))

	pr := p.Progress()
	require.NotNil(t, pr)
	assert.Equal(t, pkgsync.PhaseCompleted, pr.Phase)
	assert.Equal(t, 1, pr.Completed)
	assert.InDelta(t, 1.0, pr.Ratio(), 0.001)

	assert.Eventually(t, func() bool { return p.Progress() == nil }, time.Second, 5*time.Millisecond)
}

func TestPipeline_UpdateBundles(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	target, other := remoteConfig(1, false), remoteConfig(2, true)
	f := newFixture(t, ctrl, target, other)
	f.expectRelease(target, "1.0.0")

	p := pkgsync.New(t.Context(), f.repo, prefsStub{}, nil)

	var reads []int64
	err := p.UpdateBundles(t.Context(), []int{1}, true, func(read, _ int64) error {
		reads = append(reads, read)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1}}, f.repo.appliedUIDs())
	assert.Equal(t, []int64{4}, reads)
}

func TestPipeline_CheckManualUpdates(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	behind := remoteConfig(1, false)
	behind.VersionSignature = "1.0.0"
	current := remoteConfig(2, false)
	current.VersionSignature = "v2.0.0"
	auto := remoteConfig(3, true)

	f := newFixture(t, ctrl, behind, current, auto)
	f.fetcher.EXPECT().FetchRelease(gomock.Any(), endpointOf(behind)).
		Return(bundles.ReleaseInfo{Version: "v1.1.0", PageURL: "https://example.com/releases/1.1.0"}, nil)
	f.fetcher.EXPECT().FetchRelease(gomock.Any(), endpointOf(current)).
		Return(bundles.ReleaseInfo{Version: "2.0.0+build7"}, nil)

	p := pkgsync.New(t.Context(), f.repo, prefsStub{metered: true}, nil)
	require.NoError(t, p.CheckManualUpdates(t.Context()))

	assert.Equal(t, map[int]pkgsync.ManualUpdate{
		1: {LatestVersion: "v1.1.0", PageURL: "https://example.com/releases/1.1.0"},
	}, p.ManualUpdates())

	p.RetainManual(func(uid int) bool { return uid != 1 })
	assert.Empty(t, p.ManualUpdates())
}

func TestPipeline_CheckManualUpdatesForgetsUnknownTargets(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	cfg := remoteConfig(1, false)
	f := newFixture(t, ctrl, cfg)
	f.fetcher.EXPECT().FetchRelease(gomock.Any(), endpointOf(cfg)).
		Return(bundles.ReleaseInfo{Version: "9.0.0"}, nil)

	p := pkgsync.New(t.Context(), f.repo, prefsStub{metered: true}, nil)
	require.NoError(t, p.CheckManualUpdates(t.Context(), 1))
	require.Contains(t, p.ManualUpdates(), 1)

	f.repo.mu.Lock()
	f.repo.state = repository.EmptyState()
	f.repo.mu.Unlock()

	require.NoError(t, p.CheckManualUpdates(t.Context(), 1))
	assert.Empty(t, p.ManualUpdates())
}

func TestPipeline_RootContextCancelsPass(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	cfg := remoteConfig(1, true)
	f := newFixture(t, ctrl, cfg)
	f.fetcher.EXPECT().FetchRelease(gomock.Any(), endpointOf(cfg)).
		DoAndReturn(func(ctx context.Context, _ string) (bundles.ReleaseInfo, error) {
			<-ctx.Done()
			return bundles.ReleaseInfo{}, ctx.Err()
		}).MaxTimes(1)

	ctx, cancel := context.WithCancel(t.Context())
	p := pkgsync.New(ctx, f.repo, prefsStub{metered: true}, nil)

	done := make(chan error, 1)
	go func() { done <- p.RequestAndWait(t.Context(), pkgsync.Request{}) }()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("pass did not stop")
	}
	assert.Empty(t, f.repo.applied)
}

func TestPipeline_TracesPassAndBundles(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	broken, healthy := remoteConfig(1, true), remoteConfig(2, true)
	f := newFixture(t, ctrl, broken, healthy)
	f.fetcher.EXPECT().FetchRelease(gomock.Any(), endpointOf(broken)).
		Return(bundles.ReleaseInfo{}, errors.New("connection reset"))
	f.expectRelease(healthy, "3.0.0")

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	p := pkgsync.New(t.Context(), f.repo, prefsStub{metered: true}, nil,
		pkgsync.WithTracer(tp.Tracer("bundle-sync")),
	)
	require.Error(t, p.RequestAndWait(t.Context(), pkgsync.Request{}))

	byName := map[string][]tracetest.SpanStub{}
	for _, s := range exporter.GetSpans() {
		byName[s.Name] = append(byName[s.Name], s)
	}
	require.Len(t, byName["sync.pass"], 1)
	require.Len(t, byName["sync.update_bundle"], 2)

	passSpan := byName["sync.pass"][0]
	assert.Equal(t, codes.Error, passSpan.Status.Code)
	for _, s := range byName["sync.update_bundle"] {
		assert.Equal(t, passSpan.SpanContext.SpanID(), s.Parent.SpanID())
	}
	assert.Equal(t, codes.Error, byName["sync.update_bundle"][0].Status.Code)
	assert.Equal(t, codes.Unset, byName["sync.update_bundle"][1].Status.Code)
}

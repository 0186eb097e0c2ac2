package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/notify"
	notifymocks "github.com/stacklok/toolhive-bundle-sync/internal/notify/mocks"
	"github.com/stacklok/toolhive-bundle-sync/internal/prefs"
	pkgsync "github.com/stacklok/toolhive-bundle-sync/internal/sync"
	"github.com/stacklok/toolhive-bundle-sync/internal/sync/coordinator/mocks"
	syncmocks "github.com/stacklok/toolhive-bundle-sync/internal/sync/mocks"
)

// fakePrefs holds intervals that tests can change while loops run
type fakePrefs struct {
	mu         sync.Mutex
	bundle     prefs.Interval
	manager    prefs.Interval
	prerelease bool
	changes    chan struct{}
}

func newFakePrefs(t *testing.T, bundle, manager string) *fakePrefs {
	t.Helper()
	b, err := prefs.ParseInterval(bundle)
	require.NoError(t, err)
	m, err := prefs.ParseInterval(manager)
	require.NoError(t, err)
	return &fakePrefs{bundle: b, manager: m, changes: make(chan struct{}, 1)}
}

func (p *fakePrefs) BundleCheckInterval() prefs.Interval {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bundle
}

func (p *fakePrefs) ManagerCheckInterval() prefs.Interval {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.manager
}

func (p *fakePrefs) UseManagerPrereleases() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prerelease
}

// Subscribe hands every loop the same channel; tests only change one loop at a time
func (p *fakePrefs) Subscribe() (<-chan struct{}, func()) {
	return p.changes, func() {}
}

func (p *fakePrefs) setBundle(t *testing.T, raw string) {
	t.Helper()
	i, err := prefs.ParseInterval(raw)
	require.NoError(t, err)
	p.mu.Lock()
	p.bundle = i
	p.mu.Unlock()
	select {
	case p.changes <- struct{}{}:
	default:
	}
}

func TestCalculateInterval(t *testing.T) {
	t.Parallel()

	base := time.Hour
	for range 200 {
		got := calculateInterval(base)
		assert.GreaterOrEqual(t, got, 54*time.Minute)
		assert.LessOrEqual(t, got, 66*time.Minute)
	}
	assert.Equal(t, time.Duration(5), calculateInterval(5))
}

func TestCoordinator_New(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)

	coord := New(manager, newFakePrefs(t, "1h", "1d"))
	require.NotNil(t, coord)
	assert.Nil(t, coord.ManagerUpdate())
}

func TestCoordinator_BundleCheck(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)

	manager.EXPECT().Request(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req pkgsync.Request) {
			require.NotNil(t, req.Predicate)
			assert.False(t, req.Force)
			assert.False(t, req.ShowToast)
		})
	manager.EXPECT().CheckManualUpdates(gomock.Any()).Return(nil)

	New(manager, newFakePrefs(t, "1h", "1d")).BundleCheck(t.Context())
}

func TestCoordinator_ManagerCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		results    []*bundles.ReleaseInfo
		notices    int
		wantUpdate string
	}{
		{
			name:    "up to date",
			results: []*bundles.ReleaseInfo{nil},
		},
		{
			name:       "same release announced once",
			results:    []*bundles.ReleaseInfo{{Version: "2.0.0"}, {Version: "2.0.0"}},
			notices:    1,
			wantUpdate: "2.0.0",
		},
		{
			name:       "newer release announced again",
			results:    []*bundles.ReleaseInfo{{Version: "2.0.0"}, {Version: "2.1.0"}},
			notices:    2,
			wantUpdate: "2.1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			manager := syncmocks.NewMockManager(ctrl)
			checker := mocks.NewMockManagerChecker(ctrl)
			notifier := notifymocks.NewMockNotifier(ctrl)
			p := newFakePrefs(t, "1h", "1d")
			p.prerelease = true

			for _, r := range tt.results {
				checker.EXPECT().Check(gomock.Any(), true).Return(r, nil)
			}
			notifier.EXPECT().Notify(notify.LevelInfo, gomock.Any()).Times(tt.notices)

			coord := New(manager, p, WithManagerChecker(checker), WithNotifier(notifier))
			for range tt.results {
				coord.ManagerCheck(t.Context())
			}

			if tt.wantUpdate == "" {
				assert.Nil(t, coord.ManagerUpdate())
				return
			}
			require.NotNil(t, coord.ManagerUpdate())
			assert.Equal(t, tt.wantUpdate, coord.ManagerUpdate().Version)
		})
	}
}

func TestCoordinator_ManagerCheckWithoutChecker(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	coord := New(syncmocks.NewMockManager(ctrl), newFakePrefs(t, "1h", "1d"))
	coord.ManagerCheck(t.Context())
	assert.Nil(t, coord.ManagerUpdate())
}

func TestCoordinator_StartRunsInitialChecks(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	checker := mocks.NewMockManagerChecker(ctrl)

	var bundleChecks, managerChecks atomic.Int32
	manager.EXPECT().Request(gomock.Any(), gomock.Any()).Do(
		func(context.Context, pkgsync.Request) { bundleChecks.Add(1) })
	manager.EXPECT().CheckManualUpdates(gomock.Any()).Return(nil)
	checker.EXPECT().Check(gomock.Any(), false).DoAndReturn(
		func(context.Context, bool) (*bundles.ReleaseInfo, error) {
			managerChecks.Add(1)
			return nil, nil
		})

	coord := New(manager, newFakePrefs(t, "1h", "1d"), WithManagerChecker(checker))

	errCh := make(chan error, 1)
	go func() { errCh <- coord.Start(t.Context()) }()

	require.Eventually(t, func() bool {
		return bundleChecks.Load() == 1 && managerChecks.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, coord.Stop())
	require.NoError(t, <-errCh)
}

func TestCoordinator_StartTwice(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	coord := New(syncmocks.NewMockManager(ctrl), newFakePrefs(t, "never", "never"))

	errCh := make(chan error, 1)
	go func() { errCh <- coord.Start(t.Context()) }()

	require.Eventually(t, func() bool {
		return coord.Start(t.Context()) != nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, coord.Stop())
	require.NoError(t, <-errCh)
}

func TestCoordinator_TickerRepeatsChecks(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)

	var checks atomic.Int32
	manager.EXPECT().Request(gomock.Any(), gomock.Any()).Do(
		func(context.Context, pkgsync.Request) { checks.Add(1) }).MinTimes(3)
	manager.EXPECT().CheckManualUpdates(gomock.Any()).Return(nil).MinTimes(3)

	coord := New(manager, newFakePrefs(t, "20ms", "never"))

	errCh := make(chan error, 1)
	go func() { errCh <- coord.Start(t.Context()) }()

	require.Eventually(t, func() bool { return checks.Load() >= 3 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, coord.Stop())
	require.NoError(t, <-errCh)
}

func TestCoordinator_NeverWaitsForPreferenceChange(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	p := newFakePrefs(t, "never", "never")

	var checks atomic.Int32
	manager.EXPECT().Request(gomock.Any(), gomock.Any()).Do(
		func(context.Context, pkgsync.Request) { checks.Add(1) }).AnyTimes()
	manager.EXPECT().CheckManualUpdates(gomock.Any()).Return(nil).AnyTimes()

	coord := New(manager, p)

	errCh := make(chan error, 1)
	go func() { errCh <- coord.Start(t.Context()) }()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, checks.Load())

	p.setBundle(t, "20ms")
	require.Eventually(t, func() bool { return checks.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, coord.Stop())
	require.NoError(t, <-errCh)
}

func TestCoordinator_StopBeforeStart(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	coord := New(syncmocks.NewMockManager(ctrl), newFakePrefs(t, "1h", "1d"))
	assert.NoError(t, coord.Stop())
}

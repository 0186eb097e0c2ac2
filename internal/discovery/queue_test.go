package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
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
	"github.com/stacklok/toolhive-bundle-sync/internal/discovery/mocks"
	"github.com/stacklok/toolhive-bundle-sync/internal/notify"
	notifymocks "github.com/stacklok/toolhive-bundle-sync/internal/notify/mocks"
	pkgsync "github.com/stacklok/toolhive-bundle-sync/internal/sync"
	syncmocks "github.com/stacklok/toolhive-bundle-sync/internal/sync/mocks"
)

const testHost = "bundles.example.com"

type fixture struct {
	repo     *mocks.MockRepository
	manager  *syncmocks.MockManager
	notifier *notifymocks.MockNotifier
	loader   *bundles.Loader
	nextUID  atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		repo:     mocks.NewMockRepository(ctrl),
		manager:  syncmocks.NewMockManager(ctrl),
		notifier: notifymocks.NewMockNotifier(ctrl),
		loader:   bundles.NewLoader(t.TempDir(), nil),
	}
	f.nextUID.Store(10)
	return f
}

func (f *fixture) queue(t *testing.T, opts ...Option) *Queue {
	t.Helper()
	opts = append([]Option{WithNotifier(f.notifier), WithIdleDelay(200 * time.Millisecond)}, opts...)
	return NewQueue(t.Context(), f.repo, f.manager, testHost, opts...)
}

// expectAdd accepts an AddRemote for endpoint, runs prepare and returns the loaded remote
func (f *fixture) expectAdd(t *testing.T, endpoint string) *gomock.Call {
	t.Helper()
	return f.repo.EXPECT().AddRemote(gomock.Any(), endpoint, true, gomock.Any()).DoAndReturn(
		func(_ context.Context, url string, autoUpdate bool, prepare func(string) error) (bundles.Remote, error) {
			uid := int(f.nextUID.Add(1))
			require.NoError(t, prepare(f.loader.Dir(uid)))
			src := f.loader.Load(bundles.Config{UID: uid, Origin: bundles.OriginFromURL(url), AutoUpdate: autoUpdate})
			remote, ok := bundles.AsRemote(src)
			require.True(t, ok)
			return remote, nil
		})
}

func item(owner, repo string, channel Channel) Item {
	return Item{
		Snapshot:   bundles.ExternalSnapshot{OwnerName: owner, RepoName: repo, Version: "1.0.0"},
		Channel:    channel,
		AutoUpdate: true,
	}
}

func TestItem_Key(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		item Item
		want string
	}{
		{
			name: "bundle id wins",
			item: Item{Snapshot: bundles.ExternalSnapshot{BundleID: 7, OwnerName: "Acme", RepoName: "Patches"}, Channel: ChannelRelease},
			want: "bundle:7:release",
		},
		{
			name: "blank channel is latest",
			item: Item{Snapshot: bundles.ExternalSnapshot{BundleID: 7}},
			want: "bundle:7:latest",
		},
		{
			name: "repository is lower-cased",
			item: Item{Snapshot: bundles.ExternalSnapshot{OwnerName: "Acme", RepoName: "Patches"}, Channel: ChannelPrerelease},
			want: "repo:acme/patches:prerelease",
		},
		{
			name: "source url",
			item: Item{Snapshot: bundles.ExternalSnapshot{SourceURL: "https://github.com/acme/patches"}},
			want: "source:https://github.com/acme/patches",
		},
		{
			name: "download url",
			item: Item{Snapshot: bundles.ExternalSnapshot{DownloadURL: "https://cdn.example.com/p.rvp"}},
			want: "download:https://cdn.example.com/p.rvp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.item.Key())
		})
	}
}

func TestParseChannel(t *testing.T) {
	t.Parallel()

	c, err := ParseChannel("")
	require.NoError(t, err)
	assert.Equal(t, ChannelLatest, c)

	c, err = ParseChannel(" Prerelease ")
	require.NoError(t, err)
	assert.Equal(t, ChannelPrerelease, c)

	_, err = ParseChannel("nightly")
	assert.Error(t, err)
}

func TestProgress_Ratio(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, Progress{}.Ratio(), 1e-9)
	assert.InDelta(t, 0.5, Progress{Processed: 2, Queued: 1}.Ratio(), 1e-9)
	assert.InDelta(t, 1.0, Progress{Processed: 2, Done: true}.Ratio(), 1e-9)
	assert.InDelta(t, -1.0, Progress{}.ItemRatio(), 1e-9)
	assert.InDelta(t, 0.25, Progress{BytesRead: 1, BytesTotal: 4}.ItemRatio(), 1e-9)
}

func TestQueue_ImportsItem(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.expectAdd(t, "https://bundles.example.com/api/v1/bundle/acme/patches?prerelease=false")

	var sawProgress atomic.Bool
	var q *Queue
	f.manager.EXPECT().RequestAndWait(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req pkgsync.Request) error {
			assert.True(t, req.Force)
			require.NotNil(t, req.Predicate)
			require.NotNil(t, req.OnBundleProgress)
			req.OnBundleProgress(11, 5, 10)
			p := q.Progress()
			require.NotNil(t, p)
			assert.Equal(t, "acme/patches", p.Current)
			assert.Equal(t, int64(5), p.BytesRead)
			sawProgress.Store(true)
			return nil
		})
	f.notifier.EXPECT().Notify(notify.LevelSuccess, "Imported acme/patches")

	q = f.queue(t)
	assert.Equal(t, Started, q.Enqueue(item("acme", "patches", ChannelRelease)))
	q.Wait()

	assert.True(t, sawProgress.Load())
	meta, err := bundles.ReadExternalMetadata(f.loader.Dir(11))
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "acme", meta.OwnerName)
	require.NotNil(t, meta.IsPrerelease)
	assert.False(t, *meta.IsPrerelease)

	p := q.Progress()
	require.NotNil(t, p)
	assert.True(t, p.Done)
	assert.Equal(t, 1, p.Processed)

	require.Eventually(t, func() bool { return q.Progress() == nil }, 2*time.Second, 10*time.Millisecond)
}

func TestQueue_LatestChannelTracksBothChannels(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.expectAdd(t, "https://bundles.example.com/api/v1/bundle/acme/patches")
	f.manager.EXPECT().RequestAndWait(gomock.Any(), gomock.Any()).Return(nil)
	f.notifier.EXPECT().Notify(notify.LevelSuccess, gomock.Any())

	q := f.queue(t)
	q.Enqueue(item("acme", "patches", ""))
	q.Wait()

	meta, err := bundles.ReadExternalMetadata(f.loader.Dir(11))
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Nil(t, meta.IsPrerelease)
	_, err = os.Stat(filepath.Join(f.loader.Dir(11), bundles.ExternalMetadataFile))
	assert.NoError(t, err)
}

func TestQueue_DeduplicatesAndRunsInOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	release := make(chan struct{})
	var order []string

	f.repo.EXPECT().AddRemote(gomock.Any(), gomock.Any(), true, gomock.Any()).DoAndReturn(
		func(_ context.Context, url string, _ bool, _ func(string) error) (bundles.Remote, error) {
			order = append(order, url)
			uid := int(f.nextUID.Add(1))
			remote, _ := bundles.AsRemote(f.loader.Load(bundles.Config{UID: uid, Origin: bundles.OriginFromURL(url)}))
			return remote, nil
		}).Times(2)

	first := true
	f.manager.EXPECT().RequestAndWait(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, pkgsync.Request) error {
			if first {
				first = false
				<-release
			}
			return nil
		}).Times(2)
	f.notifier.EXPECT().Notify(notify.LevelSuccess, gomock.Any()).Times(2)

	q := f.queue(t)
	assert.Equal(t, Started, q.Enqueue(item("acme", "one", ChannelRelease)))
	assert.Equal(t, Duplicate, q.Enqueue(item("ACME", "ONE", ChannelRelease)))
	assert.Equal(t, Queued, q.Enqueue(item("acme", "two", ChannelRelease)))
	assert.Equal(t, Duplicate, q.Enqueue(item("acme", "two", ChannelRelease)))

	require.Eventually(t, func() bool {
		p := q.Progress()
		return p != nil && p.Queued == 1
	}, time.Second, 5*time.Millisecond)
	assert.InDelta(t, 0.0, q.Progress().Ratio(), 1e-9)

	close(release)
	q.Wait()

	require.Len(t, order, 2)
	assert.Contains(t, order[0], "/acme/one")
	assert.Contains(t, order[1], "/acme/two")
	assert.Equal(t, 2, q.Progress().Processed)

	// keys are released once imported
	f.expectAdd(t, "https://bundles.example.com/api/v1/bundle/acme/one?prerelease=false")
	f.manager.EXPECT().RequestAndWait(gomock.Any(), gomock.Any()).Return(nil)
	f.notifier.EXPECT().Notify(notify.LevelSuccess, gomock.Any())
	assert.Equal(t, Started, q.Enqueue(item("acme", "one", ChannelRelease)))
	q.Wait()
}

func TestQueue_FailureDoesNotStopQueue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	gomock.InOrder(
		f.repo.EXPECT().AddRemote(gomock.Any(), gomock.Any(), true, gomock.Any()).
			Return(nil, errors.New("database is locked")),
		f.expectAdd(t, "https://bundles.example.com/api/v1/bundle/acme/two?prerelease=true"),
	)
	f.manager.EXPECT().RequestAndWait(gomock.Any(), gomock.Any()).Return(nil)
	f.notifier.EXPECT().Notify(notify.LevelError, gomock.Any()).Do(func(_ notify.Level, msg string) {
		assert.Contains(t, msg, "Failed to import acme/one")
		assert.Contains(t, msg, "database is locked")
	})
	f.notifier.EXPECT().Notify(notify.LevelSuccess, "Imported acme/two")

	q := f.queue(t)
	q.Enqueue(item("acme", "one", ChannelRelease))
	q.Enqueue(item("acme", "two", ChannelPrerelease))
	q.Wait()
}

func TestQueue_CancelCurrent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.expectAdd(t, "https://bundles.example.com/api/v1/bundle/acme/one?prerelease=false")
	f.expectAdd(t, "https://bundles.example.com/api/v1/bundle/acme/two?prerelease=false")

	started := make(chan struct{})
	gomock.InOrder(
		f.manager.EXPECT().RequestAndWait(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ pkgsync.Request) error {
				close(started)
				<-ctx.Done()
				return ctx.Err()
			}),
		f.manager.EXPECT().RequestAndWait(gomock.Any(), gomock.Any()).Return(nil),
	)
	f.manager.EXPECT().Cancel(11)
	f.notifier.EXPECT().Notify(notify.LevelSuccess, "Imported acme/two")

	q := f.queue(t)
	q.Enqueue(item("acme", "one", ChannelRelease))
	q.Enqueue(item("acme", "two", ChannelRelease))

	<-started
	q.CancelCurrent()
	q.Wait()
}

func TestQueue_ResolvesBundleID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	lookup := bundlemocks.NewMockDiscoveryAPI(gomock.NewController(t))
	lookup.EXPECT().BundleByID(gomock.Any(), 42).Return(&bundles.ExternalSnapshot{
		BundleID: 42, OwnerName: "acme", RepoName: "found", Version: "2.0.0", IsPrerelease: true,
	}, nil)
	lookup.EXPECT().BundleByID(gomock.Any(), 43).Return(nil, nil)

	f.expectAdd(t, "https://bundles.example.com/api/v1/bundle/acme/found?prerelease=true")
	f.manager.EXPECT().RequestAndWait(gomock.Any(), gomock.Any()).Return(nil)
	f.notifier.EXPECT().Notify(notify.LevelSuccess, "Imported bundle #42")
	f.notifier.EXPECT().Notify(notify.LevelError, gomock.Any()).Do(func(_ notify.Level, msg string) {
		assert.Contains(t, msg, "bundle not found")
	})

	q := f.queue(t, WithLookup(lookup))
	q.Enqueue(Item{Snapshot: bundles.ExternalSnapshot{BundleID: 42}, Channel: ChannelPrerelease, AutoUpdate: true})
	q.Enqueue(Item{Snapshot: bundles.ExternalSnapshot{BundleID: 43}, AutoUpdate: true})
	q.Wait()
}

func TestQueue_TracesImports(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := newFixture(t)
	f.expectAdd(t, "https://bundles.example.com/api/v1/bundle/acme/patches?prerelease=true")
	f.manager.EXPECT().RequestAndWait(gomock.Any(), gomock.Any()).Return(errors.New("download failed"))
	f.notifier.EXPECT().Notify(notify.LevelError, gomock.Any())

	q := f.queue(t, WithTracer(tp.Tracer("bundle-sync")))
	q.Enqueue(item("acme", "patches", ChannelPrerelease))
	q.Wait()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "discovery.import", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "repo:acme/patches:prerelease", attrs["discovery.key"])
	assert.Equal(t, "11", attrs["bundle.uid"])
}

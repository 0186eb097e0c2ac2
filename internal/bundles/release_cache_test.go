package bundles

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseCache_Get(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewReleaseCache(time.Minute)
	cache.now = func() time.Time { return now }

	var calls int
	fetch := func(context.Context) (ReleaseInfo, error) {
		calls++
		return ReleaseInfo{Version: "v1"}, nil
	}

	info, err := cache.Get(context.Background(), "1|x", fetch)
	require.NoError(t, err)
	assert.Equal(t, "v1", info.Version)

	_, err = cache.Get(context.Background(), "1|x", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "fresh entry should be served from cache")

	_, err = cache.Get(context.Background(), "2|x", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "different key should fetch")

	now = now.Add(2 * time.Minute)
	_, err = cache.Get(context.Background(), "1|x", fetch)
	require.NoError(t, err)
	assert.Equal(t, 3, calls, "stale entry should be refetched")

	cache.Purge()
	_, err = cache.Get(context.Background(), "1|x", fetch)
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestReleaseCache_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	cache := NewReleaseCache(0)
	assert.Equal(t, DefaultReleaseTTL, cache.ttl)

	boom := errors.New("boom")
	_, err := cache.Get(context.Background(), "k", func(context.Context) (ReleaseInfo, error) {
		return ReleaseInfo{}, boom
	})
	require.ErrorIs(t, err, boom)

	info, err := cache.Get(context.Background(), "k", func(context.Context) (ReleaseInfo, error) {
		return ReleaseInfo{Version: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", info.Version)
}

func TestReleaseCache_ConcurrentLookupsShareOneFetch(t *testing.T) {
	t.Parallel()

	cache := NewReleaseCache(time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (ReleaseInfo, error) {
		calls.Add(1)
		<-release
		return ReleaseInfo{Version: "v2"}, nil
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := cache.Get(context.Background(), "shared", fetch)
			assert.NoError(t, err)
			assert.Equal(t, "v2", info.Version)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
}

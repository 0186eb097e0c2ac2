package bundles

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultReleaseTTL is how long a fetched release stays fresh
const DefaultReleaseTTL = 10 * time.Minute

type cachedRelease struct {
	info      ReleaseInfo
	fetchedAt time.Time
}

// ReleaseCache memoizes latest-release lookups per bundle identity and collapses
// concurrent lookups of the same key into one request
type ReleaseCache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]cachedRelease
}

// NewReleaseCache creates a cache; a non-positive ttl uses DefaultReleaseTTL
func NewReleaseCache(ttl time.Duration) *ReleaseCache {
	if ttl <= 0 {
		ttl = DefaultReleaseTTL
	}
	return &ReleaseCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedRelease),
	}
}

// Get returns the cached release for key, calling fetch when it is missing or stale
func (c *ReleaseCache) Get(
	ctx context.Context, key string, fetch func(context.Context) (ReleaseInfo, error),
) (ReleaseInfo, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Sub(entry.fetchedAt) <= c.ttl {
		return entry.info, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		info, err := fetch(ctx)
		if err != nil {
			return ReleaseInfo{}, err
		}
		c.mu.Lock()
		c.entries[key] = cachedRelease{info: info, fetchedAt: c.now()}
		c.mu.Unlock()
		return info, nil
	})
	if err != nil {
		return ReleaseInfo{}, err
	}
	return v.(ReleaseInfo), nil
}

// Purge drops every cached release
func (c *ReleaseCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedRelease)
}

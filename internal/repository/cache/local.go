// Package cache is the in-process Cache backend used for development and single node deployments.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Guyuepp/package-likes/domain"
	"github.com/Guyuepp/package-likes/internal/metrics"
)

const backendName = "memory"

type localCache struct {
	entries *expirable.LRU[string, Entry]
	// entries stored with a zero ttl, bounded by size only
	persistent *expirable.LRU[string, Entry]
	now        func() time.Time
}

var _ domain.Cache = (*localCache)(nil)

// NewLocalCache creates an in-process cache holding at most size entries with a ttl,
// and at most size entries without one.
// Entries with a ttl are also dropped after maxAge, so keys nobody reads
// again do not pile up; maxAge should be at least the longest ttl in use.
func NewLocalCache(size int, maxAge time.Duration) *localCache {
	return &localCache{
		entries:    expirable.NewLRU[string, Entry](size, nil, maxAge),
		persistent: expirable.NewLRU[string, Entry](size, nil, 0),
		now:        time.Now,
	}
}

func (c *localCache) lookup(key string) (Entry, bool) {
	if entry, ok := c.entries.Get(key); ok {
		return entry, true
	}
	return c.persistent.Get(key)
}

func (c *localCache) Get(_ context.Context, key string, dst any) error {
	entry, ok := c.lookup(key)
	if !ok {
		metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultMiss).Inc()
		return domain.ErrCacheMiss
	}
	if entry.IsExpired(c.now()) {
		c.entries.Remove(key)
		metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultMiss).Inc()
		return domain.ErrCacheMiss
	}

	if err := json.Unmarshal(entry.Value, dst); err != nil {
		metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultError).Inc()
		return err
	}
	metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultHit).Inc()
	return nil
}

func (c *localCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := NewEntry(data, ttl, c.now())
	if ttl <= 0 {
		c.entries.Remove(key)
		c.persistent.Add(key, entry)
		return nil
	}
	c.persistent.Remove(key)
	c.entries.Add(key, entry)
	return nil
}

func (c *localCache) Delete(_ context.Context, key string) error {
	c.entries.Remove(key)
	c.persistent.Remove(key)
	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Guyuepp/package-likes/domain"
	"github.com/Guyuepp/package-likes/internal/metrics"
)

const backendName = "redis"

// redisCache stores JSON values in redis and lets redis expire them
type redisCache struct {
	client *redis.Client
	prefix string
}

var _ domain.Cache = (*redisCache)(nil)

// NewRedisCache creates a Cache whose keys are stored as "<prefix>:<key>".
// An empty prefix stores keys as given.
func NewRedisCache(client *redis.Client, prefix string) *redisCache {
	return &redisCache{
		client: client,
		prefix: prefix,
	}
}

func (c *redisCache) formatKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c *redisCache) Get(ctx context.Context, key string, dst any) error {
	data, err := c.client.Get(ctx, c.formatKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultMiss).Inc()
		return domain.ErrCacheMiss
	} else if err != nil {
		metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultError).Inc()
		return err
	}

	if err = json.Unmarshal(data, dst); err != nil {
		metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultError).Inc()
		return err
	}
	metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultHit).Inc()
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	// a zero expiration keeps the key forever
	return c.client.Set(ctx, c.formatKey(key), string(data), ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.formatKey(key)).Err()
}

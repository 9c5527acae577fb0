// Package repository picks the Cache backend a process runs with.
package repository

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Guyuepp/package-likes/domain"
	"github.com/Guyuepp/package-likes/internal/config"
	"github.com/Guyuepp/package-likes/internal/repository/cache"
	mysqlRepo "github.com/Guyuepp/package-likes/internal/repository/mysql"
	myRedisCache "github.com/Guyuepp/package-likes/internal/repository/redis"
)

// CacheDeps are the connections a backend may need. Only the selected backend's field is used.
type CacheDeps struct {
	Redis *redis.Client
	DB    *gorm.DB
}

// SelectCacheBackend decides once per process which backend to use.
// An explicit CACHE_BACKEND wins; otherwise production with a redis host uses redis
// and everything else runs in memory.
func SelectCacheBackend(cfg config.Config) string {
	switch cfg.CacheBackend {
	case config.CacheBackendMemory, config.CacheBackendRedis, config.CacheBackendMySQL:
		return cfg.CacheBackend
	case config.CacheBackendAuto:
	default:
		logrus.Warnf("unknown cache backend %q, selecting automatically", cfg.CacheBackend)
	}

	if cfg.Production && cfg.RedisAddr() != "" {
		return config.CacheBackendRedis
	}
	return config.CacheBackendMemory
}

// NewCacheAdapter builds the Cache for backend
func NewCacheAdapter(backend string, cfg config.Config, deps CacheDeps) (domain.Cache, error) {
	switch backend {
	case config.CacheBackendRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("cache backend %s: no redis client", backend)
		}
		return myRedisCache.NewRedisCache(deps.Redis, cfg.CachePrefix), nil
	case config.CacheBackendMySQL:
		if deps.DB == nil {
			return nil, fmt.Errorf("cache backend %s: no database", backend)
		}
		return mysqlRepo.NewCacheRepository(deps.DB), nil
	case config.CacheBackendMemory:
		return cache.NewLocalCache(cfg.LocalCacheSize, domain.EnrichmentCacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

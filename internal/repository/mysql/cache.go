package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Guyuepp/package-likes/domain"
	"github.com/Guyuepp/package-likes/internal/metrics"
	"github.com/Guyuepp/package-likes/internal/repository/cache"
	"github.com/Guyuepp/package-likes/internal/repository/mysql/model"
)

const backendName = "mysql"

// cacheRepository is a shared Cache for deployments that have MySQL but no redis.
// Expired rows are invisible to Get and removed in bulk by DeleteExpired.
type cacheRepository struct {
	DB  *gorm.DB
	now func() time.Time
}

var (
	_ domain.Cache               = (*cacheRepository)(nil)
	_ domain.ExpiredEntryDeleter = (*cacheRepository)(nil)
)

// NewCacheRepository creates the gorm backed cache
func NewCacheRepository(db *gorm.DB) *cacheRepository {
	return &cacheRepository{
		DB:  db,
		now: time.Now,
	}
}

// AutoMigrate creates or updates the cache_entries table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.CacheEntry{})
}

func (m *cacheRepository) Get(ctx context.Context, key string, dst any) error {
	var row model.CacheEntry
	err := m.DB.WithContext(ctx).First(&row, "cache_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultMiss).Inc()
		return domain.ErrCacheMiss
	} else if err != nil {
		metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultError).Inc()
		return err
	}

	if row.ToEntry().IsExpired(m.now()) {
		metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultMiss).Inc()
		return domain.ErrCacheMiss
	}

	if err = json.Unmarshal(row.Value, dst); err != nil {
		metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultError).Inc()
		return err
	}
	metrics.CacheRequests.WithLabelValues(backendName, metrics.ResultHit).Inc()
	return nil
}

func (m *cacheRepository) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	row := model.NewCacheEntry(key, cache.NewEntry(data, ttl, m.now()))

	return m.DB.WithContext(ctx).Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(row).Error
}

func (m *cacheRepository) Delete(ctx context.Context, key string) error {
	return m.DB.WithContext(ctx).
		Where("cache_key = ?", key).
		Delete(&model.CacheEntry{}).
		Error
}

// DeleteExpired removes every row whose expiry is before now and returns how many were removed
func (m *cacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := m.DB.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Delete(&model.CacheEntry{})
	return result.RowsAffected, result.Error
}

package model

import (
	"time"

	"github.com/Guyuepp/package-likes/internal/repository/cache"
)

type CacheEntry struct {
	Key       string     `gorm:"column:cache_key;primaryKey;type:varchar(512)"`
	Value     []byte     `gorm:"column:value;type:blob;not null"`
	TTLMillis int64      `gorm:"column:ttl_ms;not null;default:0"`
	CachedAt  time.Time  `gorm:"column:cached_at;type:datetime(3);not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at;type:datetime(3);index"`
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}

func (m *CacheEntry) ToEntry() cache.Entry {
	return cache.Entry{
		Value:    m.Value,
		TTL:      time.Duration(m.TTLMillis) * time.Millisecond,
		CachedAt: m.CachedAt,
	}
}

func NewCacheEntry(key string, e cache.Entry) *CacheEntry {
	row := &CacheEntry{
		Key:       key,
		Value:     e.Value,
		TTLMillis: e.TTL.Milliseconds(),
		CachedAt:  e.CachedAt,
	}
	if e.TTL > 0 {
		expiresAt := e.CachedAt.Add(e.TTL)
		row.ExpiresAt = &expiresAt
	}
	return row
}

package domain

import (
	"context"
	"time"
)

// ExpiredEntryDeleter is a Cache whose expired entries stay stored until removed
type ExpiredEntryDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type CacheSweepWorker interface {
	Start(ctx context.Context)
}

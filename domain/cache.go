package domain

import (
	"context"
	"time"
)

// Cache is a key/value store with per-entry time-to-live.
// Values are JSON encoded by every implementation, so any backend can be swapped in.
type Cache interface {
	// Get decodes the value stored at key into dst.
	// Returns ErrCacheMiss if the key is missing or expired; a stale value is never returned.
	Get(ctx context.Context, key string, dst any) error

	// Set overwrites key unconditionally. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

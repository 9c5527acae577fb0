package cache

import "time"

// Entry is an encoded value with the wall clock time it was stored at
type Entry struct {
	Value    []byte
	TTL      time.Duration // zero means no expiry
	CachedAt time.Time
}

// NewEntry creates an entry cached at now
func NewEntry(value []byte, ttl time.Duration, now time.Time) Entry {
	return Entry{
		Value:    value,
		TTL:      ttl,
		CachedAt: now,
	}
}

// IsExpired reports whether the entry is past cachedAt + ttl
func (e Entry) IsExpired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(e.CachedAt.Add(e.TTL))
}

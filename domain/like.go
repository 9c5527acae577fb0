package domain

import (
	"context"
	"time"
)

const (
	// LikeCollection is the NSID of like records written to a caller's repository
	LikeCollection = "dev.npmx.feed.like"
	// LikeSubjectPath is the record field the index follows from a like to its package
	LikeSubjectPath = ".subjectRef"
	// LikesScope is the OAuth scope a caller needs to like or unlike
	LikesScope = "repo:" + LikeCollection

	// LikesCacheTTL is the lifetime of every like cache entry
	LikesCacheTTL = 5 * time.Minute
	// EnrichmentCacheTTL is the longer tier used by link summaries
	EnrichmentCacheTTL = 50 * time.Minute
)

// PackageLikes is the aggregate view of likes for one package
type PackageLikes struct {
	TotalLikes   int64 // distinct writers that liked the package, never negative
	UserHasLiked bool  // false when the caller is anonymous
}

// Backlink addresses one record that references a subject.
// Cached as the shadow record between a like and its unlike.
type Backlink struct {
	DID        string `json:"did"`
	Collection string `json:"collection"`
	RKey       string `json:"rkey"`
}

// LikeRecord is the record body written to the caller's repository
type LikeRecord struct {
	Type       string    `json:"$type"`
	SubjectRef string    `json:"subjectRef"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewLikeRecord builds the like record for a package
func NewLikeRecord(packageName string, now time.Time) LikeRecord {
	return LikeRecord{
		Type:       LikeCollection,
		SubjectRef: PackageSubjectRef(packageName),
		CreatedAt:  now.UTC(),
	}
}

// Caller is an authenticated identity with its already-verified scopes.
// PDSHost and AccessToken let the record store act on the caller's behalf.
type Caller struct {
	DID         string
	Scopes      []string
	PDSHost     string
	AccessToken string
}

// HasScope reports whether the caller was granted scope
func (c Caller) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// LikeUsecase coordinates like state between the record store, the index and the cache.
type LikeUsecase interface {
	// GetStatus never fails because of the index; it degrades to zero/false.
	// callerDID may be empty for anonymous readers.
	GetStatus(ctx context.Context, packageName, callerDID string) (PackageLikes, error)

	// HasLiked gives the definite answer for one caller, from cache or the index.
	HasLiked(ctx context.Context, packageName, callerDID string) (bool, error)

	// Like is idempotent: an already-liked package is returned unchanged without a write.
	Like(ctx context.Context, packageName string, caller Caller) (PackageLikes, error)

	// Unlike is idempotent: a package the caller has not liked is returned unchanged.
	Unlike(ctx context.Context, packageName string, caller Caller) (PackageLikes, error)
}

package domain

import "context"

// LinkQuery is one backlink lookup against the index
type LinkQuery struct {
	Subject    string   // subject reference the records point at
	Collection string   // collection of the linking records
	Path       string   // record field holding the reference
	Limit      int      // page size, does not affect Total
	Cursor     string   // empty for the first page
	DIDs       []string // restrict to these writers, empty for everyone
	Reverse    bool     // oldest first
}

// BacklinksPage is one page of linking records.
// Total is authoritative even when Records is capped by Limit.
type BacklinksPage struct {
	Total   int64
	Records []Backlink
	Cursor  string
}

// LinkCount counts the records of one collection/path pair pointing at a subject
type LinkCount struct {
	Records      int64 `json:"records"`
	DistinctDIDs int64 `json:"distinct_dids"`
}

// BacklinkIndex is a stateless query facade over the remote backlink index.
// Errors wrap ErrIndexUnavailable and are never turned into zero counts.
type BacklinkIndex interface {
	// CountDistinctWriters returns how many distinct identities have a record of collection
	// referencing subject through path.
	CountDistinctWriters(ctx context.Context, subject, collection, path string) (int64, error)

	// FindWriterRecords returns the records of the given writers that reference subject.
	FindWriterRecords(ctx context.Context, subject, collection, path string, dids []string) ([]Backlink, error)

	// Backlinks runs a raw paginated lookup.
	Backlinks(ctx context.Context, q LinkQuery) (BacklinksPage, error)

	// AllLinks returns counts for every collection and path that references subject,
	// keyed by collection then path.
	AllLinks(ctx context.Context, subject string) (map[string]map[string]LinkCount, error)
}

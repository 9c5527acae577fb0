package domain

import (
	"context"
	"fmt"
	"strings"
)

// RecordStore writes and deletes records in a caller's own repository
type RecordStore interface {
	// CreateRecord writes record into collection and returns its at:// uri.
	CreateRecord(ctx context.Context, caller Caller, collection string, record any) (string, error)

	// DeleteRecord removes the record addressed by collection and rkey.
	DeleteRecord(ctx context.Context, caller Caller, collection, rkey string) error
}

// ParseRecordURI splits at://<did>/<collection>/<rkey> into its parts.
// The did is returned as written, collection and rkey must be non-empty.
func ParseRecordURI(uri string) (did, collection, rkey string, err error) {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return "", "", "", fmt.Errorf("%w: %q", ErrMalformedRecordURI, uri)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("%w: %q", ErrMalformedRecordURI, uri)
	}
	return parts[0], parts[1], parts[2], nil
}

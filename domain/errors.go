package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("your Item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("given Param is not valid")
	// ErrUnauthorized will throw if the caller is not authenticated
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden will throw if the caller lacks the scope for an action
	ErrForbidden = errors.New("missing required scope")

	// ErrCacheMiss is returned by a Cache when a key is absent or expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrIndexUnavailable wraps any failure talking to the backlink index
	ErrIndexUnavailable = errors.New("backlink index unavailable")
	// ErrWriteRejected is returned when the caller's record store refuses a write or delete
	ErrWriteRejected = errors.New("record write rejected")
	// ErrRecordStoreUnavailable wraps transport failures talking to the record store
	ErrRecordStoreUnavailable = errors.New("record store unavailable")
	// ErrMalformedRecordURI is returned when a created record's uri cannot be split
	// into collection and record key. The record may exist remotely.
	ErrMalformedRecordURI = errors.New("malformed record uri")
)

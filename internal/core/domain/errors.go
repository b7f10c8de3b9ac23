package domain

import "errors"

var (
	// ErrUpstreamUnavailable covers network and HTTP failures from any external source.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrMalformedPayload is returned when an external source answers with an unexpected shape.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrPersistenceUnavailable is returned when the key-value store cannot be written.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	// ErrPermissionDenied is returned when location or camera access is refused.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound is returned when a post id is absent from the collection.
	ErrNotFound = errors.New("not found")
	// ErrNoPendingEncounter is returned when a catch is requested with nothing to catch.
	ErrNoPendingEncounter = errors.New("no pending encounter")
)

package apptype

import "errors"

// Error kinds surfaced by graph operations. Callers match them with errors.Is;
// an operation that fails with any of them leaves the store untouched.
var (
	// ErrNotFound is returned when an operation references an entity absent from the graph.
	ErrNotFound = errors.New("entity not found")
	// ErrMalformedSignature is returned when signature text does not match the required shape.
	ErrMalformedSignature = errors.New("malformed signature")
	// ErrMalformedStore is returned when a persisted record is not a valid entity or relation.
	ErrMalformedStore = errors.New("malformed store record")
)

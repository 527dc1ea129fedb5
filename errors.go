package normcache

import "github.com/hanpama/normcache/internal/executor"

// Re-exported so callers never need to import the internal executor
// package to type-switch on a Store error.
type (
	// MissingValue reports a required field or reference absent from the
	// backend while reading, or a non-null field absent from a payload
	// being written.
	MissingValue = executor.MissingValue
	// TypeMismatch reports a stored or supplied value that does not match
	// its schema type.
	TypeMismatch = executor.TypeMismatch
	// BackendFailure wraps an error returned by the RecordStore backend.
	BackendFailure = executor.BackendFailure
)

// ErrDisposed is returned by any Store method called after Dispose.
var ErrDisposed = executor.Disposed

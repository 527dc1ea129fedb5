package executor

import (
	"fmt"

	"github.com/hanpama/normcache/internal/cachekey"
)

// MissingValue reports that a read touched a field or reference the store
// has never seen, or that a payload being normalized lacks a non-null
// field. It aborts the enclosing transaction.
type MissingValue struct {
	Path cachekey.Path
	Key  cachekey.Key
}

func (e *MissingValue) Error() string {
	return fmt.Sprintf("normcache: missing value at %s (key %s)", e.Path, e.Key)
}

// TypeMismatch reports that a stored or supplied value does not match the
// shape its schema type requires (e.g. a scalar where a reference was
// expected, or an argument that could not be coerced).
type TypeMismatch struct {
	Path   cachekey.Path
	Detail string
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("normcache: type mismatch at %s: %s", e.Path, e.Detail)
}

// BackendFailure wraps an error returned by the RecordStore itself (Load or
// Merge), as opposed to one the executor detected in the data it returned.
type BackendFailure struct {
	Path cachekey.Path
	Err  error
}

func (e *BackendFailure) Error() string {
	return fmt.Sprintf("normcache: backend failure at %s: %v", e.Path, e.Err)
}

func (e *BackendFailure) Unwrap() error { return e.Err }

// Disposed is returned by any operation attempted on a Store after Dispose
// has been called.
var Disposed = fmt.Errorf("normcache: store has been disposed")

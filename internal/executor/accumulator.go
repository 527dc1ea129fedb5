package executor

import (
	"time"

	"github.com/hanpama/normcache/internal/cachekey"
	"github.com/hanpama/normcache/internal/record"
)

// FieldAccumulation is one field's contribution to an object, carried both
// by its response name (for building a typed result tree) and its
// canonicalized field key (for writing a Record). Value is whatever the
// owning Accumulator produced for that field: the return of AcceptScalar,
// AcceptList, or a nested AcceptObject.
type FieldAccumulation struct {
	ResponseName string
	FieldKey     record.FieldKey
	Value        any
}

// ObjectMeta describes the object an AcceptObject call is completing: its
// cache key, its concrete object type name, and, for objects read from a
// store, the freshness timestamp of the record that produced it.
type ObjectMeta struct {
	Key            cachekey.Key
	Typename       string
	LastReceivedAt time.Time
}

// Accumulator is the polymorphic visitor driven by the executor's selection
// set walk. A single pass over a selection set can run several
// accumulators side by side via Zip: one builds the typed result tree,
// another collects the set of cache keys touched, another tracks the
// earliest freshness timestamp among them.
type Accumulator interface {
	// AcceptScalar records a leaf JSON value (scalar, enum, or null).
	AcceptScalar(value any) any
	// AcceptList records a completed list from its already-accumulated items.
	AcceptList(items []any) any
	// AcceptObject records a completed object from its ordered field
	// accumulations and the object's identity/freshness metadata.
	AcceptObject(fields []FieldAccumulation, meta ObjectMeta) any
	// Finish is called once, on the accumulation produced for the
	// operation's root selection set, and returns the accumulator's final
	// result.
	Finish(root any) any
}

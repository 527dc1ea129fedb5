// Package record defines the flat, normalized representation stored by a
// RecordStore: Records keyed by field, grouped into a RecordSet for merge,
// and returned as timestamped RecordRows on load.
package record

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/hanpama/normcache/internal/cachekey"
)

// FieldKey is a field's serialized identity within a Record: the field
// name alone, or the field name annotated with its canonicalized argument
// JSON when arguments affect identity, e.g. "friends" or
// "friends({"first":3})".
type FieldKey string

// NewFieldKey builds the serialized field key for fieldName given its
// already-coerced argument values. Arguments are rendered through
// encoding/json, whose map encoding sorts keys, so two semantically equal
// argument sets always serialize identically regardless of call order.
func NewFieldKey(fieldName string, args map[string]any) FieldKey {
	if len(args) == 0 {
		return FieldKey(fieldName)
	}
	b, err := json.Marshal(args)
	if err != nil {
		// Argument values are already coerced scalars/lists/maps produced by
		// this module; a marshal failure here means a caller passed a
		// non-JSON-safe value, which is a programmer error, not a runtime
		// condition to recover from gracefully.
		panic("record: arguments not JSON-serializable: " + err.Error())
	}
	return FieldKey(fieldName + "(" + string(b) + ")")
}

// Record is a flat mapping from field key to value. A value is one of:
// a JSON scalar (nil, bool, float64, string), a cachekey.Reference, or a
// []any whose items are such values (a list of references is a []any of
// cachekey.Reference, not a []cachekey.Reference). Records never nest plain
// objects; nested objects are always represented as references.
type Record map[FieldKey]any

// Clone returns a shallow copy of r, suitable for mutating in place during
// an update() without disturbing the stored original.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// SortedFieldKeys returns the record's field keys in lexical order, used
// wherever a deterministic iteration order is needed (e.g. change-key
// reporting).
func (r Record) SortedFieldKeys() []FieldKey {
	keys := make([]FieldKey, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// RecordSet is the unit of both merge input and normalization output: a
// mapping from CacheKey to the Record most recently produced for it.
type RecordSet map[cachekey.Key]Record

// RecordRow pairs a Record with the timestamp of the merge that last wrote
// any of its fields. Backends return RecordRows from Load so that readers
// can compute the earliest freshness of any dependency they touched.
type RecordRow struct {
	Record         Record
	LastReceivedAt time.Time
}

// Package store defines the pluggable backend behind a normalized cache and
// ships the default in-memory implementation. A RecordStore only needs to
// support concurrent reads; exclusive write access is the caller's
// responsibility (see the root package's transaction lock).
package store

import (
	"context"
	"time"

	"github.com/hanpama/normcache/internal/cachekey"
	"github.com/hanpama/normcache/internal/record"
)

// ChangedKey is a change reported by Merge, at field granularity:
// "<cacheKey>.<fieldKey>". Watchers can prefix-match on the cache key to
// decide whether a change is relevant to them.
type ChangedKey string

// New builds the change-key string for a field write.
func New(key cachekey.Key, field record.FieldKey) ChangedKey {
	return ChangedKey(string(key) + "." + string(field))
}

// RecordStore is the abstract backend behind a normalized cache: load
// records by key, merge a record set and report what changed, and clear
// everything. Implementations must not interpret or wrap errors; they
// propagate as-is to the caller.
type RecordStore interface {
	// Load returns one RecordRow per requested key, positionally aligned
	// with keys; a missing key yields a nil entry at that position.
	Load(ctx context.Context, keys []cachekey.Key) ([]*record.RecordRow, error)

	// Merge writes every record in rs, stamping each touched record with
	// at, and returns the set of field-qualified keys that actually
	// changed. Merging is monotonic: it never drops fields, only overwrites
	// or inserts them. A field overwritten with an identical value (per
	// deep equality) is not reported as changed.
	Merge(ctx context.Context, rs record.RecordSet, at time.Time) (map[ChangedKey]struct{}, error)

	// Clear removes every record from the store.
	Clear(ctx context.Context) error
}

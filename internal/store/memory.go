package store

import (
	"context"
	"reflect"
	"time"

	"github.com/hanpama/normcache/internal/cachekey"
	"github.com/hanpama/normcache/internal/record"
)

// InMemoryRecordStore is the default RecordStore backend: a plain mapping
// from CacheKey to RecordRow held in process memory. It performs no
// internal locking of its own; callers that need concurrent-read/
// exclusive-write semantics get them from the root package's transaction
// lock, not from this type.
type InMemoryRecordStore struct {
	rows map[cachekey.Key]record.RecordRow
}

// NewInMemoryRecordStore returns an empty store.
func NewInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{rows: make(map[cachekey.Key]record.RecordRow)}
}

func (s *InMemoryRecordStore) Load(ctx context.Context, keys []cachekey.Key) ([]*record.RecordRow, error) {
	out := make([]*record.RecordRow, len(keys))
	for i, k := range keys {
		if row, ok := s.rows[k]; ok {
			r := row
			out[i] = &r
		}
	}
	return out, nil
}

func (s *InMemoryRecordStore) Merge(ctx context.Context, rs record.RecordSet, at time.Time) (map[ChangedKey]struct{}, error) {
	changed := make(map[ChangedKey]struct{})
	for key, incoming := range rs {
		existingRow, present := s.rows[key]
		if !present {
			merged := incoming.Clone()
			s.rows[key] = record.RecordRow{Record: merged, LastReceivedAt: at}
			for _, field := range incoming.SortedFieldKeys() {
				changed[New(key, field)] = struct{}{}
			}
			continue
		}

		merged := existingRow.Record.Clone()
		for _, field := range incoming.SortedFieldKeys() {
			newValue := incoming[field]
			if oldValue, ok := merged[field]; !ok || !reflect.DeepEqual(oldValue, newValue) {
				merged[field] = newValue
				changed[New(key, field)] = struct{}{}
			}
		}
		// Every record present in this merge is freshly received, whether or
		// not any of its fields actually changed value.
		s.rows[key] = record.RecordRow{Record: merged, LastReceivedAt: at}
	}
	return changed, nil
}

func (s *InMemoryRecordStore) Clear(ctx context.Context) error {
	s.rows = make(map[cachekey.Key]record.RecordRow)
	return nil
}

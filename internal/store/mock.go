package store

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hanpama/normcache/internal/cachekey"
	"github.com/hanpama/normcache/internal/record"
)

// InstrumentedStore wraps a RecordStore and counts calls, optionally
// delaying Load so tests can exercise the reader/writer lock under
// contention without a real backend's latency.
type InstrumentedStore struct {
	RecordStore
	LoadDelay time.Duration

	loadCalls  int64
	mergeCalls int64
}

// NewInstrumentedStore wraps backend for call counting and artificial
// Load latency.
func NewInstrumentedStore(backend RecordStore) *InstrumentedStore {
	return &InstrumentedStore{RecordStore: backend}
}

func (s *InstrumentedStore) Load(ctx context.Context, keys []cachekey.Key) ([]*record.RecordRow, error) {
	atomic.AddInt64(&s.loadCalls, 1)
	if s.LoadDelay > 0 {
		select {
		case <-time.After(s.LoadDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.RecordStore.Load(ctx, keys)
}

func (s *InstrumentedStore) Merge(ctx context.Context, rs record.RecordSet, at time.Time) (map[ChangedKey]struct{}, error) {
	atomic.AddInt64(&s.mergeCalls, 1)
	return s.RecordStore.Merge(ctx, rs, at)
}

// LoadCalls returns the number of Load calls observed so far.
func (s *InstrumentedStore) LoadCalls() int64 { return atomic.LoadInt64(&s.loadCalls) }

// MergeCalls returns the number of Merge calls observed so far.
func (s *InstrumentedStore) MergeCalls() int64 { return atomic.LoadInt64(&s.mergeCalls) }

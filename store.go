package normcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hanpama/normcache/internal/cachekey"
	eventbus "github.com/hanpama/normcache/internal/eventbus"
	events "github.com/hanpama/normcache/internal/events"
	language "github.com/hanpama/normcache/internal/language"
	"github.com/hanpama/normcache/internal/record"
	reqid "github.com/hanpama/normcache/internal/reqid"
	"github.com/hanpama/normcache/internal/schema"
	"github.com/hanpama/normcache/internal/store"
)

// Subscriber is notified after a publish whose merge actually changed at
// least one field. Identifier is whatever the writer passed to Publish or
// WithinReadWriteTransaction, letting a subscriber recognize and skip
// notifications for its own writes.
type Subscriber interface {
	DidChangeKeys(changed map[store.ChangedKey]struct{}, identifier string)
}

// Store is the public entry point of the cache: a RecordStore backend
// guarded by a reader/writer lock, with subscriber notification on every
// change-producing write. Any number of read transactions may run
// concurrently; a write transaction has the backend to itself.
type Store struct {
	mu        sync.RWMutex
	backend   store.RecordStore
	schema    *schema.Schema
	forObject cachekey.ForObject

	subMu sync.Mutex
	subs  []Subscriber

	disposed atomic.Bool
}

// New returns a Store over backend, resolving GraphQL identity through sch
// and, for non-root objects, forObject (nil falls back to path-derived
// keys, per cachekey.Resolve).
func New(sch *schema.Schema, backend store.RecordStore, forObject cachekey.ForObject) *Store {
	return &Store{schema: sch, backend: backend, forObject: forObject}
}

// Subscribe registers sub for change notifications. Registration order is
// notification order.
func (s *Store) Subscribe(sub Subscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, sub)
}

// Unsubscribe removes sub. A sub not currently registered is a no-op.
func (s *Store) Unsubscribe(sub Subscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for i, existing := range s.subs {
		if existing == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Publish is the writer path outside of a transaction body: it takes the
// write lock, merges rs into the backend, and notifies subscribers with the
// changed keys and identifier before returning.
func (s *Store) Publish(ctx context.Context, rs record.RecordSet, identifier string) (map[store.ChangedKey]struct{}, error) {
	if s.disposed.Load() {
		return nil, ErrDisposed
	}
	ctx, _ = reqid.NewContext(ctx)
	start := time.Now()
	eventbus.Publish(ctx, events.PublishStart{Identifier: identifier})

	s.mu.Lock()
	changed, err := s.backend.Merge(ctx, rs, time.Now())
	s.mu.Unlock()

	eventbus.Publish(ctx, events.PublishFinish{Identifier: identifier, Changed: len(changed), Err: err, Duration: time.Since(start)})
	if err != nil {
		return nil, &BackendFailure{Err: err}
	}
	s.notify(changed, identifier)
	return changed, nil
}

// Clear removes every record from the backend, under the write lock.
func (s *Store) Clear(ctx context.Context) error {
	if s.disposed.Load() {
		return ErrDisposed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Clear(ctx)
}

// Dispose marks the store unusable. Any transaction already holding the
// lock runs to completion; every subsequent call returns ErrDisposed rather
// than observing a backend that might be cleared out from under it.
func (s *Store) Dispose() {
	s.disposed.Store(true)
}

// Load is a convenience wrapper: run document/operationName in a read
// transaction rooted at its operation type and return the typed result.
func (s *Store) Load(ctx context.Context, document *language.QueryDocument, operationName string, variables map[string]any) (*Result, error) {
	return WithinReadTransaction(ctx, s, func(tx *ReadTransaction) (*Result, error) {
		return tx.Read(ctx, document, operationName, variables)
	})
}

// notify delivers changed to every registered subscriber in registration
// order. A subscriber whose DidChangeKeys panics does not stop delivery to
// the remaining subscribers.
func (s *Store) notify(changed map[store.ChangedKey]struct{}, identifier string) {
	if len(changed) == 0 {
		return
	}
	s.subMu.Lock()
	subs := append([]Subscriber(nil), s.subs...)
	s.subMu.Unlock()
	for _, sub := range subs {
		deliver(sub, changed, identifier)
	}
}

func deliver(sub Subscriber, changed map[store.ChangedKey]struct{}, identifier string) {
	defer func() { recover() }()
	sub.DidChangeKeys(changed, identifier)
}

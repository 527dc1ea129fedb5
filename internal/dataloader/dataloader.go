// Package dataloader implements a per-transaction batched loader: many
// callers request values by key during a single read, and one manual
// Dispatch call turns every distinct key requested so far into a single
// batch round-trip to the backend.
//
// A Loader is not safe for reuse across transactions and not safe for
// concurrent Load/Dispatch calls from multiple goroutines; callers own
// their own sequencing, matching the executor's one-loader-per-read
// lifetime.
package dataloader

import (
	"context"
	"fmt"
)

// Future is a single-assignment result cell: Load returns one immediately,
// and it is filled in by the next Dispatch call. Await blocks until a
// result is available.
type Future[V any] struct {
	done  chan struct{}
	value V
	err   error
}

func newFuture[V any]() *Future[V] {
	return &Future[V]{done: make(chan struct{})}
}

func (f *Future[V]) resolve(value V, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Await blocks until the future is resolved by a Dispatch call, or ctx is
// cancelled first.
func (f *Future[V]) Await(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// BatchFunc resolves a batch of distinct keys in one call. It must return
// exactly one result per key, positionally aligned with keys; returning a
// different number of results is a backend-contract violation and fails
// every pending Future in that batch.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, error)

// Loader coalesces Load calls for the same key within one Dispatch cycle
// and batches distinct keys into a single BatchFunc call.
type Loader[K comparable, V any] struct {
	batch   BatchFunc[K, V]
	pending []K
	index   map[K]*Future[V]
}

// New returns a Loader backed by batch.
func New[K comparable, V any](batch BatchFunc[K, V]) *Loader[K, V] {
	return &Loader[K, V]{
		batch: batch,
		index: make(map[K]*Future[V]),
	}
}

// Load registers key for resolution on the next Dispatch and returns its
// Future. A key already pending or already dispatched in this Loader's
// lifetime returns the same Future instead of re-queuing the key.
func (l *Loader[K, V]) Load(key K) *Future[V] {
	if f, ok := l.index[key]; ok {
		return f
	}
	f := newFuture[V]()
	l.index[key] = f
	l.pending = append(l.pending, key)
	return f
}

// Dispatch resolves every key queued since the last Dispatch in a single
// BatchFunc call. It is a no-op if nothing is pending. An error from
// BatchFunc, or a result slice of the wrong length, resolves every pending
// Future in this batch with that error.
func (l *Loader[K, V]) Dispatch(ctx context.Context) error {
	if len(l.pending) == 0 {
		return nil
	}
	keys := l.pending
	l.pending = nil

	futures := make([]*Future[V], len(keys))
	for i, k := range keys {
		futures[i] = l.index[k]
	}

	values, err := l.batch(ctx, keys)
	if err != nil {
		for _, f := range futures {
			f.resolve(*new(V), err)
		}
		return err
	}
	if len(values) != len(keys) {
		err := fmt.Errorf("dataloader: batch function returned %d results for %d keys", len(values), len(keys))
		for _, f := range futures {
			f.resolve(*new(V), err)
		}
		return err
	}
	for i, f := range futures {
		f.resolve(values[i], nil)
	}
	return nil
}

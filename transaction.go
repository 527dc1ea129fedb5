package normcache

import (
	"context"
	"time"

	"github.com/hanpama/normcache/internal/cachekey"
	eventbus "github.com/hanpama/normcache/internal/eventbus"
	"github.com/hanpama/normcache/internal/executor"
	events "github.com/hanpama/normcache/internal/events"
	language "github.com/hanpama/normcache/internal/language"
	"github.com/hanpama/normcache/internal/record"
	reqid "github.com/hanpama/normcache/internal/reqid"
	"github.com/hanpama/normcache/internal/store"
)

const sourceCache = "cache"

// Result is what a transaction's read methods return: a typed response
// tree, the set of cache keys it depended on, and the earliest freshness
// timestamp among them.
type Result struct {
	Data          any
	DependentKeys map[cachekey.Key]struct{}
	Source        string
	FreshAsOf     time.Time
}

// ReadTransaction is the handle a read-transaction body receives. Every
// method it exposes runs against a consistent snapshot: once the
// transaction's read lock is held, no merge can interleave with it.
type ReadTransaction struct {
	store *Store
}

// Read executes document/operationName's selection set from its operation
// type's root cache key.
func (tx *ReadTransaction) Read(ctx context.Context, document *language.QueryDocument, operationName string, variables map[string]any) (*Result, error) {
	res, err := executor.Read(ctx, tx.store.backend, tx.store.schema, document, operationName, variables)
	if err != nil {
		return nil, err
	}
	return &Result{Data: res.Data, DependentKeys: res.Dependencies, Source: sourceCache, FreshAsOf: res.FreshAsOf}, nil
}

// ReadObject executes document/operationName's selection set directly
// against key, as if it were the operation's root, instead of resolving it
// from QUERY_ROOT/MUTATION_ROOT/SUBSCRIPTION_ROOT. typeName names key's
// concrete object type.
func (tx *ReadTransaction) ReadObject(ctx context.Context, typeName string, key cachekey.Key, document *language.QueryDocument, operationName string, variables map[string]any) (*Result, error) {
	res, err := executor.ReadAt(ctx, tx.store.backend, tx.store.schema, document, operationName, variables, typeName, key)
	if err != nil {
		return nil, err
	}
	return &Result{Data: res.Data, DependentKeys: res.Dependencies, Source: sourceCache, FreshAsOf: res.FreshAsOf}, nil
}

// WithinReadTransaction runs body with a read lock held: any number of read
// transactions may overlap, but a concurrent writer blocks until every one
// of them returns.
func WithinReadTransaction[T any](ctx context.Context, s *Store, body func(tx *ReadTransaction) (T, error)) (T, error) {
	var zero T
	if s.disposed.Load() {
		return zero, ErrDisposed
	}
	ctx, _ = reqid.NewContext(ctx)
	start := time.Now()
	eventbus.Publish(ctx, events.TransactionStart{ReadWrite: false})
	s.mu.RLock()
	defer func() {
		s.mu.RUnlock()
		eventbus.Publish(ctx, events.TransactionFinish{ReadWrite: false, Duration: time.Since(start)})
	}()
	if s.disposed.Load() {
		return zero, ErrDisposed
	}
	return body(&ReadTransaction{store: s})
}

// ReadWriteTransaction is the handle a write-transaction body receives. It
// embeds ReadTransaction's read methods and adds writes, all of which merge
// immediately (so later reads in the same transaction observe them) but
// whose changed keys are only broadcast to subscribers once, after the
// transaction body returns successfully.
type ReadWriteTransaction struct {
	ReadTransaction
	changed map[store.ChangedKey]struct{}
}

// Write normalizes data against document/operationName and merges the
// result, rooted at the operation's own root key.
func (tx *ReadWriteTransaction) Write(ctx context.Context, data map[string]any, document *language.QueryDocument, operationName string, variables map[string]any) (map[store.ChangedKey]struct{}, error) {
	rs, _, err := executor.Normalize(tx.store.schema, document, operationName, variables, data, tx.store.forObject)
	if err != nil {
		return nil, err
	}
	return tx.merge(ctx, rs)
}

// WriteObject normalizes object against document/operationName as if it
// were already the value stored at key, and merges the result.
func (tx *ReadWriteTransaction) WriteObject(ctx context.Context, typeName string, key cachekey.Key, object map[string]any, document *language.QueryDocument, operationName string, variables map[string]any) (map[store.ChangedKey]struct{}, error) {
	rs, err := executor.NormalizeAt(tx.store.schema, document, operationName, variables, object, tx.store.forObject, typeName, key)
	if err != nil {
		return nil, err
	}
	return tx.merge(ctx, rs)
}

// Update rereads document/operationName, lets mutate edit the result tree
// in place, then re-normalizes and merges it. There is no diffing: merge's
// own equality check is the only gate on whether this produces a change.
func (tx *ReadWriteTransaction) Update(ctx context.Context, document *language.QueryDocument, operationName string, variables map[string]any, mutate func(data map[string]any) error) (map[store.ChangedKey]struct{}, error) {
	res, err := tx.Read(ctx, document, operationName, variables)
	if err != nil {
		return nil, err
	}
	data, ok := res.Data.(map[string]any)
	if !ok {
		return nil, &TypeMismatch{Detail: "Update: operation root did not produce an object"}
	}
	if err := mutate(data); err != nil {
		return nil, err
	}
	return tx.Write(ctx, data, document, operationName, variables)
}

// UpdateObject is Update scoped to a single object by identity rather than
// an operation's root.
func (tx *ReadWriteTransaction) UpdateObject(ctx context.Context, typeName string, key cachekey.Key, document *language.QueryDocument, operationName string, variables map[string]any, mutate func(data map[string]any) error) (map[store.ChangedKey]struct{}, error) {
	res, err := tx.ReadObject(ctx, typeName, key, document, operationName, variables)
	if err != nil {
		return nil, err
	}
	data, ok := res.Data.(map[string]any)
	if !ok {
		return nil, &TypeMismatch{Detail: "UpdateObject: object did not produce a result"}
	}
	if err := mutate(data); err != nil {
		return nil, err
	}
	return tx.WriteObject(ctx, typeName, key, data, document, operationName, variables)
}

func (tx *ReadWriteTransaction) merge(ctx context.Context, rs record.RecordSet) (map[store.ChangedKey]struct{}, error) {
	changed, err := tx.store.backend.Merge(ctx, rs, time.Now())
	if err != nil {
		return nil, &BackendFailure{Err: err}
	}
	if tx.changed == nil {
		tx.changed = make(map[store.ChangedKey]struct{}, len(changed))
	}
	for c := range changed {
		tx.changed[c] = struct{}{}
	}
	return changed, nil
}

// WithinReadWriteTransaction runs body with the write lock held. On
// successful return, every change accumulated across the transaction's
// Write/WriteObject/Update/UpdateObject calls is broadcast to subscribers
// as one notification, tagged with identifier, before
// WithinReadWriteTransaction itself returns.
func WithinReadWriteTransaction[T any](ctx context.Context, s *Store, identifier string, body func(tx *ReadWriteTransaction) (T, error)) (T, error) {
	var zero T
	if s.disposed.Load() {
		return zero, ErrDisposed
	}
	ctx, _ = reqid.NewContext(ctx)
	start := time.Now()
	eventbus.Publish(ctx, events.TransactionStart{ReadWrite: true})

	tx := &ReadWriteTransaction{ReadTransaction: ReadTransaction{store: s}}
	result, err := func() (T, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return body(tx)
	}()

	eventbus.Publish(ctx, events.TransactionFinish{ReadWrite: true, Err: err, Duration: time.Since(start)})
	if err != nil {
		return zero, err
	}
	s.notify(tx.changed, identifier)
	return result, nil
}

// Package normcache implements a normalized, transactional GraphQL result
// cache: it flattens response payloads into canonical records keyed by
// object identity (internal/cachekey, internal/record), serves typed query
// results back out by re-executing selection sets against those records
// (internal/executor), and batches every reference dereference triggered by
// one read into a single backend round trip (internal/dataloader).
//
// Store is the public entry point. It owns a RecordStore backend
// (internal/store) behind a reader/writer lock: any number of read
// transactions may run concurrently, but a write transaction has the
// backend to itself and its changes are visible to every subsequent read.
package normcache

// Package reqid mints the correlation ID attached to each cache
// transaction or publish. The ID travels through context so that
// instrumentation can group every event emitted on behalf of one
// operation without the core threading an identifier explicitly.
package reqid

import (
	"context"
	"math/rand/v2"
)

type ctxKey struct{}

// NewContext returns a copy of ctx with a fresh random ID attached, and
// the ID itself.
func NewContext(ctx context.Context) (context.Context, int64) {
	id := rand.Int64()
	return context.WithValue(ctx, ctxKey{}, id), id
}

// FromContext reports the ID attached to ctx, if any.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}

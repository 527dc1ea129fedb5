package executor

import "github.com/hanpama/normcache/internal/cachekey"

// DependencyTracker is the Accumulator that records every cache key a read
// actually touched, so a subsequent publish can decide whether the read's
// result is still fresh.
type DependencyTracker struct {
	keys map[cachekey.Key]struct{}
}

// NewDependencyTracker returns an empty tracker.
func NewDependencyTracker() *DependencyTracker {
	return &DependencyTracker{keys: make(map[cachekey.Key]struct{})}
}

func (t *DependencyTracker) AcceptScalar(value any) any { return nil }

func (t *DependencyTracker) AcceptList(items []any) any { return nil }

func (t *DependencyTracker) AcceptObject(fields []FieldAccumulation, meta ObjectMeta) any {
	t.keys[meta.Key] = struct{}{}
	return nil
}

func (t *DependencyTracker) Finish(root any) any {
	return t.keys
}

package executor

import "time"

// TimestampTracker is the Accumulator that computes the earliest
// LastReceivedAt among every record a read touched: the freshness of the
// read's result is only as recent as its stalest dependency.
type TimestampTracker struct {
	earliest time.Time
	seen     bool
}

// NewTimestampTracker returns a tracker with no observations yet.
func NewTimestampTracker() *TimestampTracker {
	return &TimestampTracker{}
}

func (t *TimestampTracker) AcceptScalar(value any) any { return nil }

func (t *TimestampTracker) AcceptList(items []any) any { return nil }

func (t *TimestampTracker) AcceptObject(fields []FieldAccumulation, meta ObjectMeta) any {
	if !t.seen || meta.LastReceivedAt.Before(t.earliest) {
		t.earliest = meta.LastReceivedAt
		t.seen = true
	}
	return nil
}

func (t *TimestampTracker) Finish(root any) any {
	return t.earliest
}

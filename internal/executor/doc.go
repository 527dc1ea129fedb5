// Package executor walks a GraphQL selection set against a schema in two
// directions: Normalize flattens a raw response payload into Records,
// Read walks Records back out of a store into a typed result tree.
//
// Both directions share the same field-collection and argument-coercion
// machinery (fields.go, values.go) and the same Accumulator contract
// (accumulator.go): a polymorphic visitor with AcceptScalar/AcceptList/
// AcceptObject/Finish hooks. Read additionally zips three accumulators
// together in one pass — SelectionSetMapper builds the response tree,
// DependencyTracker records every cache key touched, TimestampTracker
// finds the earliest freshness among them — so a single walk produces all
// three without three separate traversals.
//
// Read batches reference resolution through a per-call dataloader.Loader:
// walkObject queues every Reference field of an object before Dispatching
// once, then recurses into each. A selection set with a list of five
// references becomes one backend Load call, not five.
package executor

// Package cachekey defines the identity primitives of the normalized store:
// the opaque Key that names a record, the Reference value that points to
// one, and the path-based fallback used to derive a Key when the host
// application has no identity for a given object.
package cachekey

import (
	"fmt"
	"strconv"
	"strings"
)

// Key uniquely identifies a normalized object within a RecordStore.
type Key string

// Root sentinels. Every operation is rooted at exactly one of these,
// chosen by its operation type (query, mutation, or subscription).
const (
	QueryRoot        Key = "QUERY_ROOT"
	MutationRoot     Key = "MUTATION_ROOT"
	SubscriptionRoot Key = "SUBSCRIPTION_ROOT"
)

// Reference is a value-typed pointer to another record. It is distinct from
// a plain string so a store can preserve the distinction on round-trip; a
// field whose stored value is a Reference is always dereferenced on read.
type Reference struct {
	Key Key
}

// Ref builds a Reference to key.
func Ref(key Key) Reference { return Reference{Key: key} }

func (r Reference) String() string { return "Ref(" + string(r.Key) + ")" }

// PathElement is one step of a response path: a field's response name
// (string) or a list index (int).
type PathElement any

// Path is the response path from the enclosing root to a given node.
type Path []PathElement

// Append returns a new path with elem appended, leaving p untouched.
func (p Path) Append(elem PathElement) Path {
	next := make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = elem
	return next
}

// String renders a path as "hero.friends.0", matching the fallback key
// format used by PathKey.
func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		switch v := elem.(type) {
		case string:
			b.WriteString(v)
		case int:
			b.WriteString(strconv.Itoa(v))
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	return b.String()
}

// ForObject resolves the cache key of a raw JSON object, returning the raw
// JSON identity value (string or number) and whether it produced one. It is
// supplied once at store construction and is assumed read-only thereafter.
// Returning (nil, false) tells the caller to fall back to a path-derived key.
type ForObject func(object map[string]any) (any, bool)

// PathKey derives a path-based key for a node reached at path from base,
// used whenever ForObject is absent or declines to produce a key.
//
//	PathKey(QueryRoot, Path{"hero", "friends", 0}) == "QUERY_ROOT.hero.friends.0"
func PathKey(base Key, path Path) Key {
	if len(path) == 0 {
		return base
	}
	return Key(string(base) + "." + path.String())
}

// Resolve picks the cache key for a child object reached at path from its
// enclosing object's key: the ForObject hook's answer if it has one,
// otherwise base extended by the path. A nil forObject always falls back
// to the path.
func Resolve(forObject ForObject, base Key, path Path, object map[string]any) Key {
	if forObject != nil {
		if v, ok := forObject(object); ok && v != nil {
			if s, ok := v.(string); ok {
				return Key(s)
			}
			return Key(fmt.Sprintf("%v", v))
		}
	}
	return PathKey(base, path)
}

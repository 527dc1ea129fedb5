package cachekey

import "testing"

func TestPathKey(t *testing.T) {
	got := PathKey(QueryRoot, Path{"hero", "friends", 0})
	want := Key("QUERY_ROOT.hero.friends.0")
	if got != want {
		t.Fatalf("PathKey() = %q, want %q", got, want)
	}

	if got := PathKey(QueryRoot, nil); got != QueryRoot {
		t.Fatalf("PathKey() with empty path = %q, want %q", got, QueryRoot)
	}
}

func TestResolve_UsesForObjectWhenPresent(t *testing.T) {
	forObject := func(o map[string]any) (any, bool) {
		if id, ok := o["id"]; ok {
			return id, true
		}
		return nil, false
	}
	got := Resolve(forObject, QueryRoot, Path{"hero"}, map[string]any{"id": "2001"})
	if got != Key("2001") {
		t.Fatalf("Resolve() = %q, want %q", got, "2001")
	}
}

func TestResolve_FallsBackToPath(t *testing.T) {
	forObject := func(o map[string]any) (any, bool) { return nil, false }
	got := Resolve(forObject, QueryRoot, Path{"hero"}, map[string]any{})
	if got != Key("QUERY_ROOT.hero") {
		t.Fatalf("Resolve() = %q, want %q", got, "QUERY_ROOT.hero")
	}
}

func TestResolve_NilForObject(t *testing.T) {
	got := Resolve(nil, QueryRoot, Path{"hero", 2}, map[string]any{"id": "x"})
	if got != Key("QUERY_ROOT.hero.2") {
		t.Fatalf("Resolve() = %q, want %q", got, "QUERY_ROOT.hero.2")
	}
}

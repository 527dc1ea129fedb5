package executor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/normcache/internal/cachekey"
	"github.com/hanpama/normcache/internal/record"
)

func byID(o map[string]any) (any, bool) {
	if id, ok := o["id"]; ok {
		return id, true
	}
	return nil, false
}

func TestNormalize_SimpleHero(t *testing.T) {
	sch := buildStarWarsSchema()
	doc := mustParseQuery(t, `{ hero { id name } }`)
	data := map[string]any{
		"hero": map[string]any{
			"__typename": "Droid",
			"id":         "2001",
			"name":       "R2-D2",
		},
	}

	rs, root, err := Normalize(sch, doc, "", nil, data, byID)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if root != cachekey.QueryRoot {
		t.Fatalf("root = %q, want %q", root, cachekey.QueryRoot)
	}

	heroRec, ok := rs["2001"]
	if !ok {
		t.Fatalf("RecordSet missing key 2001: %v", rs)
	}
	if heroRec["name"] != "R2-D2" {
		t.Fatalf("hero record name = %v, want R2-D2", heroRec["name"])
	}

	rootRec, ok := rs[cachekey.QueryRoot]
	if !ok {
		t.Fatalf("RecordSet missing root record: %v", rs)
	}
	heroField := record.FieldKey("hero")
	ref, ok := rootRec[heroField].(cachekey.Reference)
	if !ok || ref.Key != "2001" {
		t.Fatalf("root.hero = %v, want Reference(2001)", rootRec[heroField])
	}
}

func TestNormalize_ArgumentsAffectFieldKey(t *testing.T) {
	sch := buildStarWarsSchema()
	doc := mustParseQuery(t, `{ human(id: "1000") { id name } }`)
	data := map[string]any{
		"human": map[string]any{"id": "1000", "name": "Luke Skywalker"},
	}
	rs, root, err := Normalize(sch, doc, "", nil, data, byID)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	rootRec := rs[root]
	if _, ok := rootRec[record.FieldKey("human")]; ok {
		t.Fatalf("expected the field key to be annotated with arguments, got bare 'human': %v", rootRec.SortedFieldKeys())
	}
	want := record.NewFieldKey("human", map[string]any{"id": "1000"})
	if _, ok := rootRec[want]; !ok {
		t.Fatalf("rootRec missing %q, got %v", want, rootRec.SortedFieldKeys())
	}
}

func TestNormalize_FallsBackToPathKeyWithoutForObject(t *testing.T) {
	sch := buildStarWarsSchema()
	doc := mustParseQuery(t, `{ hero { id name } }`)
	data := map[string]any{
		"hero": map[string]any{"__typename": "Droid", "id": "2001", "name": "R2-D2"},
	}
	rs, root, err := Normalize(sch, doc, "", nil, data, nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := cachekey.PathKey(root, cachekey.Path{"hero"})
	if _, ok := rs[want]; !ok {
		t.Fatalf("RecordSet missing path-derived key %q: %v", want, rs)
	}
}

func TestNormalize_PathFallbackAnchorsAtEnclosingKeyedObject(t *testing.T) {
	sch := buildStarWarsSchema()
	doc := mustParseQuery(t, `{ hero { id name friends { name } } }`)
	data := map[string]any{
		"hero": map[string]any{
			"__typename": "Human",
			"id":         "1000",
			"name":       "Luke Skywalker",
			"friends": []any{
				map[string]any{"__typename": "Droid", "name": "R2-D2"},
			},
		},
	}
	rs, _, err := Normalize(sch, doc, "", nil, data, byID)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	// The friend has no id of its own, so its fallback key extends the
	// keyed hero, not the operation root.
	want := cachekey.Key("1000.friends.0")
	if _, ok := rs[want]; !ok {
		t.Fatalf("RecordSet missing %q: %v", want, rs)
	}
	heroRec := rs["1000"]
	friends := heroRec[record.FieldKey("friends")].([]any)
	if ref, ok := friends[0].(cachekey.Reference); !ok || ref.Key != want {
		t.Fatalf("friends[0] = %v, want Reference(%s)", friends[0], want)
	}
}

func TestNormalize_FriendsListBecomesReferenceList(t *testing.T) {
	sch := buildStarWarsSchema()
	doc := mustParseQuery(t, `{ hero { id name friends { id name } } }`)
	data := map[string]any{
		"hero": map[string]any{
			"__typename": "Human",
			"id":         "1000",
			"name":       "Luke Skywalker",
			"friends": []any{
				map[string]any{"__typename": "Human", "id": "1002", "name": "Han Solo"},
				map[string]any{"__typename": "Droid", "id": "2001", "name": "R2-D2"},
			},
		},
	}
	rs, _, err := Normalize(sch, doc, "", nil, data, byID)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	heroRec := rs["1000"]
	friendsVal, ok := heroRec[record.FieldKey("friends")].([]any)
	if !ok || len(friendsVal) != 2 {
		t.Fatalf("friends = %v, want a 2-element list", heroRec[record.FieldKey("friends")])
	}
	for _, f := range friendsVal {
		if _, ok := f.(cachekey.Reference); !ok {
			t.Fatalf("friend list item %v is not a Reference", f)
		}
	}
	if _, ok := rs["1002"]; !ok {
		t.Fatalf("RecordSet missing friend record 1002: %v", rs)
	}
}

func TestNormalize_InlineFragmentOnNonMatchingTypenameIsSkipped(t *testing.T) {
	sch := buildStarWarsSchema()
	doc := mustParseQuery(t, `{
		hero {
			id
			name
			... on Droid { primaryFunction }
			... on Human { homePlanet }
		}
	}`)
	data := map[string]any{
		"hero": map[string]any{"__typename": "Human", "id": "1000", "name": "Luke Skywalker", "homePlanet": "Tatooine"},
	}
	rs, _, err := Normalize(sch, doc, "", nil, data, byID)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	heroRec := rs["1000"]
	if _, ok := heroRec[record.FieldKey("primaryFunction")]; ok {
		t.Fatalf("primaryFunction should not be normalized for a Human: %v", heroRec)
	}
	if heroRec[record.FieldKey("homePlanet")] != "Tatooine" {
		t.Fatalf("homePlanet = %v, want Tatooine", heroRec[record.FieldKey("homePlanet")])
	}
}

func TestNormalize_CyclicReferenceDoesNotInfiniteLoop(t *testing.T) {
	sch := buildStarWarsSchema()
	doc := mustParseQuery(t, `{ hero { id name friends { id name friends { id } } } }`)
	data := map[string]any{
		"hero": map[string]any{"__typename": "Human", "id": "1000", "name": "Luke Skywalker"},
	}
	// Construct a friend list that circles back to hero itself.
	hero := data["hero"].(map[string]any)
	hero["friends"] = []any{hero}

	rs, _, err := Normalize(sch, doc, "", nil, data, byID)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	rec := rs["1000"]
	friends, ok := rec[record.FieldKey("friends")].([]any)
	if !ok || len(friends) != 1 {
		t.Fatalf("friends = %v, want one self-reference", rec[record.FieldKey("friends")])
	}
	ref, ok := friends[0].(cachekey.Reference)
	if !ok || ref.Key != "1000" {
		t.Fatalf("friends[0] = %v, want Reference(1000)", friends[0])
	}
}

func TestNormalize_MissingRequiredFieldIsMissingValue(t *testing.T) {
	sch := buildStarWarsSchema()
	doc := mustParseQuery(t, `{ hero { id name } }`)
	data := map[string]any{
		"hero": map[string]any{"__typename": "Droid", "id": "2001"},
	}
	_, _, err := Normalize(sch, doc, "", nil, data, byID)
	if err == nil {
		t.Fatalf("Normalize() error = nil, want MissingValue for absent required field")
	}
	var mv *MissingValue
	if !asMissingValue(err, &mv) {
		t.Fatalf("Normalize() error = %v (%T), want *MissingValue", err, err)
	}
}

func asMissingValue(err error, target **MissingValue) bool {
	if mv, ok := err.(*MissingValue); ok {
		*target = mv
		return true
	}
	return false
}

// TestNormalize_MatchesExactRecordSetShape pins the whole flattened
// RecordSet tree, not just a couple of fields, so a change to how a nested
// object or its reference gets written is caught even when it leaves every
// field examined by the other tests untouched.
func TestNormalize_MatchesExactRecordSetShape(t *testing.T) {
	sch := buildStarWarsSchema()
	doc := mustParseQuery(t, `{ hero { id name friends { id name } } }`)
	data := map[string]any{
		"hero": map[string]any{
			"__typename": "Human",
			"id":         "1000",
			"name":       "Luke Skywalker",
			"friends": []any{
				map[string]any{"__typename": "Droid", "id": "2001", "name": "R2-D2"},
			},
		},
	}

	rs, root, err := Normalize(sch, doc, "", nil, data, byID)
	require.NoError(t, err)
	require.Equal(t, cachekey.QueryRoot, root)

	want := record.RecordSet{
		cachekey.QueryRoot: record.Record{
			"__typename": "Query",
			"hero":       cachekey.Ref("1000"),
		},
		"1000": record.Record{
			"__typename": "Human",
			"id":         "1000",
			"name":       "Luke Skywalker",
			"friends":    []any{cachekey.Ref("2001")},
		},
		"2001": record.Record{
			"__typename": "Droid",
			"id":         "2001",
			"name":       "R2-D2",
		},
	}
	if diff := cmp.Diff(want, rs); diff != "" {
		t.Fatalf("RecordSet mismatch (-want +got):\n%s", diff)
	}
}

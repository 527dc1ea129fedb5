package normcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hanpama/normcache/internal/cachekey"
	"github.com/hanpama/normcache/internal/language"
	"github.com/hanpama/normcache/internal/record"
	"github.com/hanpama/normcache/internal/schema"
	"github.com/hanpama/normcache/internal/store"
)

func buildTestSchema() *schema.Schema {
	sch := schema.NewSchema()

	droid := schema.NewType("Droid", schema.TypeKindObject)
	droid.AddField(schema.NewField("id", schema.NonNullType(schema.NamedType("ID"))))
	droid.AddField(schema.NewField("name", schema.NonNullType(schema.NamedType("String"))))
	sch.AddType(droid)

	query := schema.NewType("Query", schema.TypeKindObject)
	query.AddField(schema.NewField("hero", schema.NamedType("Droid")))
	sch.AddType(query)
	sch.SetQueryType("Query")

	return sch
}

func heroByID(o map[string]any) (any, bool) {
	if id, ok := o["id"]; ok {
		return id, true
	}
	return nil, false
}

func mustParse(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("ParseQuery() error = %v", err)
	}
	return doc
}

type recordingSubscriber struct {
	mu       sync.Mutex
	notified []map[store.ChangedKey]struct{}
}

func (r *recordingSubscriber) DidChangeKeys(changed map[store.ChangedKey]struct{}, identifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, changed)
}

func (r *recordingSubscriber) calls() []map[store.ChangedKey]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[store.ChangedKey]struct{}(nil), r.notified...)
}

func TestPublish_ChangeNotificationGranularity(t *testing.T) {
	sch := buildTestSchema()
	backend := store.NewInMemoryRecordStore()
	cache := New(sch, backend, nil)
	sub := &recordingSubscriber{}
	cache.Subscribe(sub)

	ctx := context.Background()
	if _, err := cache.Publish(ctx, record.RecordSet{
		cachekey.QueryRoot: record.Record{"hero": cachekey.Ref("2001")},
		"2001":             record.Record{"__typename": "Droid", "id": "2001", "name": "R2-D2"},
	}, "seed"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if _, err := cache.Publish(ctx, record.RecordSet{
		"2001": record.Record{"name": "R2-D2 (refurbished)"},
	}, "update"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	calls := sub.calls()
	if len(calls) != 2 {
		t.Fatalf("got %d notifications, want 2", len(calls))
	}
	last := calls[1]
	if len(last) != 1 {
		t.Fatalf("last notification = %v, want exactly one changed key", last)
	}
	if _, ok := last[store.New("2001", "name")]; !ok {
		t.Fatalf("last notification = %v, want to contain 2001.name", last)
	}
	if _, ok := last[store.New(cachekey.QueryRoot, "hero")]; ok {
		t.Fatalf("last notification = %v, should not contain QUERY_ROOT.hero", last)
	}
}

func TestUpdate_SecondIdenticalUpdateNotifiesNothing(t *testing.T) {
	sch := buildTestSchema()
	backend := store.NewInMemoryRecordStore()
	cache := New(sch, backend, heroByID)
	sub := &recordingSubscriber{}
	cache.Subscribe(sub)

	ctx := context.Background()
	if _, err := cache.Publish(ctx, record.RecordSet{
		cachekey.QueryRoot: record.Record{"hero": cachekey.Ref("2001")},
		"2001":             record.Record{"__typename": "Droid", "id": "2001", "name": "R2-D2"},
	}, "seed"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	doc := mustParse(t, `{ hero { id name } }`)
	rename := func(root map[string]any) error {
		hero := root["hero"].(map[string]any)
		hero["name"] = "C-3PO"
		return nil
	}

	_, err := WithinReadWriteTransaction(ctx, cache, "rename", func(tx *ReadWriteTransaction) (struct{}, error) {
		changed, err := tx.Update(ctx, doc, "", nil, rename)
		if err != nil {
			return struct{}{}, err
		}
		if _, ok := changed[store.New("2001", "name")]; !ok {
			t.Fatalf("first Update() changed = %v, want 2001.name", changed)
		}
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("first WithinReadWriteTransaction() error = %v", err)
	}

	_, err = WithinReadWriteTransaction(ctx, cache, "rename-again", func(tx *ReadWriteTransaction) (struct{}, error) {
		changed, err := tx.Update(ctx, doc, "", nil, rename)
		if err != nil {
			return struct{}{}, err
		}
		if len(changed) != 0 {
			t.Fatalf("second identical Update() changed = %v, want empty", changed)
		}
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("second WithinReadWriteTransaction() error = %v", err)
	}

	calls := sub.calls()
	if len(calls) != 2 {
		t.Fatalf("got %d notifications, want 2 (seed + first rename; repeat rename notifies nothing)", len(calls))
	}
}

func TestConcurrentReadsBlockQueuedWrite(t *testing.T) {
	sch := buildTestSchema()
	backing := store.NewInMemoryRecordStore()
	ctx := context.Background()
	if _, err := backing.Merge(ctx, record.RecordSet{
		cachekey.QueryRoot: record.Record{"hero": cachekey.Ref("2001")},
		"2001":             record.Record{"__typename": "Droid", "id": "2001", "name": "R2-D2"},
	}, time.Unix(1000, 0)); err != nil {
		t.Fatalf("seed Merge() error = %v", err)
	}

	inst := store.NewInstrumentedStore(backing)
	inst.LoadDelay = 50 * time.Millisecond
	cache := New(sch, inst, nil)
	doc := mustParse(t, `{ hero { id name } }`)

	var activeReaders int32
	var maxActiveReaders int32
	var readNames [2]string

	readDone := make(chan struct{})
	for i := 0; i < 2; i++ {
		i := i
		go func() {
			_, _ = WithinReadTransaction(ctx, cache, func(tx *ReadTransaction) (struct{}, error) {
				n := atomic.AddInt32(&activeReaders, 1)
				for {
					cur := atomic.LoadInt32(&maxActiveReaders)
					if n <= cur || atomic.CompareAndSwapInt32(&maxActiveReaders, cur, n) {
						break
					}
				}
				res, err := tx.Read(ctx, doc, "", nil)
				atomic.AddInt32(&activeReaders, -1)
				if err != nil {
					return struct{}{}, err
				}
				readNames[i] = res.Data.(map[string]any)["hero"].(map[string]any)["name"].(string)
				return struct{}{}, nil
			})
			readDone <- struct{}{}
		}()
	}
	// Give both readers a chance to acquire the read lock before publishing.
	time.Sleep(10 * time.Millisecond)

	publishDone := make(chan struct{})
	go func() {
		_, err := cache.Publish(ctx, record.RecordSet{
			"2001": record.Record{"name": "R2-D2 (refurbished)"},
		}, "writer")
		if err != nil {
			t.Errorf("Publish() error = %v", err)
		}
		close(publishDone)
	}()

	<-readDone
	<-readDone
	select {
	case <-publishDone:
	case <-time.After(time.Second):
		t.Fatalf("Publish() did not complete after both readers finished")
	}

	if got := atomic.LoadInt32(&maxActiveReaders); got < 2 {
		t.Fatalf("max concurrent readers = %d, want 2 (reads should overlap)", got)
	}
	for i, name := range readNames {
		if name != "R2-D2" {
			t.Fatalf("reader %d observed name = %q, want R2-D2 (pre-publish value)", i, name)
		}
	}
}

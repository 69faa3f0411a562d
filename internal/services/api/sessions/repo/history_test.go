package repo

import (
	"context"
	"fmt"
	"testing"

	"leadfunnel/internal/core/capture"
)

type listStore struct {
	*capture.MemoryStore
	lists map[string][]string
}

func (l *listStore) PushCapped(_ context.Context, key, value string, n int) error {
	l.lists[key] = append([]string{value}, l.lists[key]...)
	if len(l.lists[key]) > n {
		l.lists[key] = l.lists[key][:n]
	}
	return nil
}

func (l *listStore) Recent(_ context.Context, key string, n int) ([]string, error) {
	ids := l.lists[key]
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

func TestHistory_JSONFallback(t *testing.T) {
	ctx := context.Background()
	kv := capture.NewMemoryStore()
	h := NewHistory(kv)

	for i := range HistoryLimit + 3 {
		if err := h.Push(ctx, "v1", fmt.Sprintf("s%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.Push(ctx, "v1", "s5"); err != nil {
		t.Fatal(err)
	}

	ids, err := h.Recent(ctx, "v1", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != HistoryLimit {
		t.Fatalf("len = %d", len(ids))
	}
	if ids[0] != "s5" || ids[1] != fmt.Sprintf("s%d", HistoryLimit+2) {
		t.Fatalf("order = %v", ids[:3])
	}
	if _, ok, _ := kv.Get(ctx, "visitor:v1:"+capture.KeySessionHistory); !ok {
		t.Fatalf("keys = %v", kv.Keys())
	}

	if ids, _ := h.Recent(ctx, "other", 5); len(ids) != 0 {
		t.Fatalf("other visitor = %v", ids)
	}
}

func TestHistory_CorruptListStartsOver(t *testing.T) {
	ctx := context.Background()
	kv := capture.NewMemoryStore()
	_ = kv.Set(ctx, "visitor:v1:"+capture.KeySessionHistory, "{not json")
	h := NewHistory(kv)
	if err := h.Push(ctx, "v1", "s1"); err != nil {
		t.Fatal(err)
	}
	if ids, _ := h.Recent(ctx, "v1", 5); len(ids) != 1 || ids[0] != "s1" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestHistory_UsesListOps(t *testing.T) {
	ctx := context.Background()
	ls := &listStore{MemoryStore: capture.NewMemoryStore(), lists: map[string][]string{}}
	h := NewHistory(ls)
	_ = h.Push(ctx, "v1", "a")
	_ = h.Push(ctx, "v1", "b")
	ids, _ := h.Recent(ctx, "v1", 1)
	if len(ids) != 1 || ids[0] != "b" {
		t.Fatalf("ids = %v", ids)
	}
	if len(ls.Keys()) != 0 {
		t.Fatalf("list ops should not touch plain keys: %v", ls.Keys())
	}
}

func TestHistory_NilSafe(t *testing.T) {
	var h *History
	if err := h.Push(context.Background(), "v", "s"); err != nil {
		t.Fatal(err)
	}
	if ids, err := NewHistory(nil).Recent(context.Background(), "v", 3); ids != nil || err != nil {
		t.Fatalf("nil kv = %v %v", ids, err)
	}
}

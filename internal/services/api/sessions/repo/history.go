package repo

import (
	"context"
	"encoding/json"
	"slices"

	"leadfunnel/internal/core/capture"
	"leadfunnel/internal/platform/store"
)

// HistoryLimit is how many session ids are kept per visitor
const HistoryLimit = 20

// listKV is implemented by the redis client
type listKV interface {
	PushCapped(ctx context.Context, key, value string, n int) error
	Recent(ctx context.Context, key string, n int) ([]string, error)
}

// History keeps recent session ids per visitor in the key/value store
type History struct {
	kv store.KV
}

// NewHistory wraps kv; a nil kv makes every call a no-op
func NewHistory(kv store.KV) *History { return &History{kv: kv} }

func historyKey(visitorID string) string {
	return "visitor:" + visitorID + ":" + capture.KeySessionHistory
}

// Push records sessionID as the visitor's newest session
func (h *History) Push(ctx context.Context, visitorID, sessionID string) error {
	if h == nil || h.kv == nil || visitorID == "" || sessionID == "" {
		return nil
	}
	key := historyKey(visitorID)
	if l, ok := h.kv.(listKV); ok {
		return l.PushCapped(ctx, key, sessionID, HistoryLimit)
	}
	ids, err := h.load(ctx, key)
	if err != nil {
		return err
	}
	ids = slices.DeleteFunc(ids, func(id string) bool { return id == sessionID })
	ids = append([]string{sessionID}, ids...)
	if len(ids) > HistoryLimit {
		ids = ids[:HistoryLimit]
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return h.kv.Set(ctx, key, string(b))
}

// Recent returns up to n session ids, newest first
func (h *History) Recent(ctx context.Context, visitorID string, n int) ([]string, error) {
	if h == nil || h.kv == nil || visitorID == "" || n <= 0 {
		return nil, nil
	}
	key := historyKey(visitorID)
	if l, ok := h.kv.(listKV); ok {
		return l.Recent(ctx, key, n)
	}
	ids, err := h.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

func (h *History) load(ctx context.Context, key string) ([]string, error) {
	raw, ok, err := h.kv.Get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		// a corrupt list starts over
		return nil, nil
	}
	return ids, nil
}

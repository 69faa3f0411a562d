package consent

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadfunnel/internal/core/capture"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type result struct {
	calls   int
	granted bool
}

func (r *result) cb(g bool) { r.calls++; r.granted = g }

func TestGate_StoredConsentResolvesImmediately(t *testing.T) {
	ctx := context.Background()
	st := capture.NewMemoryStore()
	if err := Grant(ctx, st, Preferences{Necessary: true, Analytics: true}); err != nil {
		t.Fatal(err)
	}
	clk := capture.NewManualClock(t0)
	g := NewGate(ctx, Config{}, clk, st)

	var r result
	g.Await(r.cb)
	if r.calls != 1 || !r.granted || clk.Pending() != 0 {
		t.Fatalf("r=%+v pending=%d", r, clk.Pending())
	}
}

func TestGate_PollsUntilGranted(t *testing.T) {
	ctx := context.Background()
	st := capture.NewMemoryStore()
	clk := capture.NewManualClock(t0)
	g := NewGate(ctx, Config{}, clk, st)

	var r result
	g.Await(r.cb)
	clk.Advance(5 * time.Second)
	if r.calls != 0 {
		t.Fatal("resolved before consent")
	}
	_ = Grant(ctx, st, Preferences{Analytics: true})
	clk.Advance(time.Second)
	if r.calls != 1 || !r.granted {
		t.Fatalf("r = %+v", r)
	}
	if clk.Pending() != 0 {
		t.Fatalf("timers leaked: %d", clk.Pending())
	}
}

func TestGate_TimeoutStopsSilently(t *testing.T) {
	ctx := context.Background()
	st := capture.NewMemoryStore()
	clk := capture.NewManualClock(t0)
	g := NewGate(ctx, Config{}, clk, st)

	var r result
	g.Await(r.cb)
	clk.Advance(DefaultTimeout)
	if r.calls != 1 || r.granted {
		t.Fatalf("r = %+v", r)
	}
	_ = Grant(ctx, st, Preferences{Analytics: true})
	clk.Advance(time.Minute)
	if r.calls != 1 || clk.Pending() != 0 {
		t.Fatalf("gate kept polling: r=%+v pending=%d", r, clk.Pending())
	}
	g.Notify(true)
	if granted, _ := g.Decision(); granted {
		t.Fatal("decision changed after timeout")
	}
}

func TestGate_NotifyWithoutPolling(t *testing.T) {
	ctx := context.Background()
	clk := capture.NewManualClock(t0)
	g := NewGate(ctx, Config{PollInterval: -1}, clk, capture.NewMemoryStore())

	var r result
	g.Await(r.cb)
	if clk.Pending() != 1 {
		t.Fatalf("want only the timeout timer, got %d", clk.Pending())
	}
	g.Notify(true)
	var late result
	g.Await(late.cb)
	if !r.granted || !late.granted || late.calls != 1 {
		t.Fatalf("r=%+v late=%+v", r, late)
	}
}

func TestGate_AnalyticsDeclined(t *testing.T) {
	ctx := context.Background()
	st := capture.NewMemoryStore()
	_ = Grant(ctx, st, Preferences{Necessary: true})
	clk := capture.NewManualClock(t0)
	g := NewGate(ctx, Config{}, clk, st)
	var r result
	g.Await(r.cb)
	g.Notify(false)
	if r.calls != 1 || r.granted {
		t.Fatalf("r = %+v", r)
	}
}

type brokenStore struct{ capture.MemoryStore }

func (*brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage disabled")
}

func TestGate_StoreErrorMeansNotYet(t *testing.T) {
	ctx := context.Background()
	clk := capture.NewManualClock(t0)
	g := NewGate(ctx, Config{Timeout: 3 * time.Second}, clk, &brokenStore{})
	var r result
	g.Await(r.cb)
	clk.Advance(2 * time.Second)
	if r.calls != 0 {
		t.Fatal("store error resolved the gate")
	}
	clk.Advance(time.Second)
	if r.calls != 1 || r.granted {
		t.Fatalf("r = %+v", r)
	}
}

func TestGranted_Formats(t *testing.T) {
	ctx := context.Background()
	st := capture.NewMemoryStore()
	for raw, want := range map[string]bool{
		"true":                true,
		"false":               false,
		`{"analytics":true}`:  true,
		`{"analytics":false}`: false,
		`{"marketing":true}`:  false,
	} {
		_ = st.Set(ctx, capture.KeyConsent, raw)
		got, err := Granted(ctx, st)
		if err != nil || got != want {
			t.Fatalf("Granted(%s) = %v, %v", raw, got, err)
		}
	}
	_ = st.Set(ctx, capture.KeyConsent, "{oops")
	if _, err := Granted(ctx, st); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestGate_StopDropsWaiters(t *testing.T) {
	ctx := context.Background()
	clk := capture.NewManualClock(t0)
	g := NewGate(ctx, Config{}, clk, capture.NewMemoryStore())
	var r result
	g.Await(r.cb)
	g.Stop()
	g.Notify(true)
	clk.Advance(time.Minute)
	if r.calls != 0 || clk.Pending() != 0 {
		t.Fatalf("r=%+v pending=%d", r, clk.Pending())
	}
}

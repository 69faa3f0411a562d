package heatmap

import (
	"context"
	"testing"
	"time"

	"leadfunnel/internal/core/capture"
	"leadfunnel/internal/core/dom"
	"leadfunnel/internal/core/probe"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

const page = `<html><body>
<main>
  <button id="demo" class="btn">Book a demo</button>
  <a href="/pricing"><span id="inner">See pricing</span></a>
  <p id="copy">Just text</p>
</main></body></html>`

func newCollector(t *testing.T, cfg Config) (*Collector, *capture.ManualClock, *capture.MemorySink) {
	t.Helper()
	clk := capture.NewManualClock(t0)
	sink := &capture.MemorySink{}
	win := &probe.StaticWindow{View: probe.Viewport{Width: 1280, Height: 800}}
	c, err := New(context.Background(), cfg, Deps{Clock: clk, Window: win, Analytics: sink}, "s1", "https://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	c.Start()
	return c, clk, sink
}

func TestRecord_BulkEviction(t *testing.T) {
	c, _, _ := newCollector(t, Config{MaxSamples: 100})
	for i := range 100 {
		c.Record(Sample{Kind: KindMove, X: i})
	}
	if c.Len() != 100 {
		t.Fatalf("len = %d before overflow", c.Len())
	}
	c.Record(Sample{Kind: KindMove, X: 100})
	got := c.Samples()
	if len(got) != 90 {
		t.Fatalf("len after overflow = %d, want 90", len(got))
	}
	if got[0].X != 11 || got[len(got)-1].X != 100 {
		t.Fatalf("kept range %d..%d, want newest", got[0].X, got[len(got)-1].X)
	}
	for i := range 20 {
		c.Record(Sample{Kind: KindMove, X: 200 + i})
		if c.Len() > 100 {
			t.Fatalf("buffer exceeded cap: %d", c.Len())
		}
	}
}

func TestMouseMove_DebounceLastWins(t *testing.T) {
	c, clk, _ := newCollector(t, Config{})
	for i := range 10 {
		c.Handle(capture.Event{Type: capture.EventMouseMove, X: i, Y: i * 2})
		clk.Advance(10 * time.Millisecond)
	}
	clk.Advance(100 * time.Millisecond)

	got := c.Samples()
	if len(got) != 1 {
		t.Fatalf("want one sample for the window, got %d", len(got))
	}
	if got[0].X != 9 || got[0].Y != 18 {
		t.Fatalf("first value kept: %+v", got[0])
	}
	if got[0].ViewportW != 1280 || got[0].SessionID != "s1" {
		t.Fatalf("sample not enriched: %+v", got[0])
	}
}

func TestMouseMove_AtMostOnePerWindow(t *testing.T) {
	c, clk, _ := newCollector(t, Config{})
	for range 100 {
		c.Handle(capture.Event{Type: capture.EventMouseMove, X: 1})
		clk.Advance(5 * time.Millisecond)
	}
	clk.Advance(time.Second)
	if n := c.Len(); n > 5 || n < 4 {
		t.Fatalf("500ms of movement produced %d samples", n)
	}
}

func TestScroll_RecordsOffset(t *testing.T) {
	c, clk, _ := newCollector(t, Config{})
	c.Handle(capture.Event{Type: capture.EventScroll, ScrollY: 100})
	c.Handle(capture.Event{Type: capture.EventScroll, ScrollY: 340})
	clk.Advance(100 * time.Millisecond)
	got := c.Samples()
	if len(got) != 1 || got[0].Kind != KindScroll || got[0].ScrollY != 340 {
		t.Fatalf("scroll samples = %+v", got)
	}
}

func TestClick_DescriptorAndSignificant(t *testing.T) {
	c, _, sink := newCollector(t, Config{})
	doc, _ := dom.ParseString(page)

	c.Handle(capture.Event{Type: capture.EventClick, Target: dom.FindByID(doc, "demo"), X: 10, Y: 20})
	c.Handle(capture.Event{Type: capture.EventClick, Target: dom.FindByID(doc, "inner"), X: 30, Y: 40})
	c.Handle(capture.Event{Type: capture.EventClick, Target: dom.FindByID(doc, "copy"), X: 50, Y: 60})

	got := c.Samples()
	if len(got) != 3 || got[0].Selector != "#demo" || got[0].Text != "Book a demo" {
		t.Fatalf("clicks = %+v", got)
	}
	ev := sink.Events()
	if len(ev) != 2 {
		t.Fatalf("significant events = %+v", ev)
	}
	if ev[0].Params["selector"] != "#demo" || ev[1].Params["href"] != "/pricing" || ev[1].Params["tag"] != "a" {
		t.Fatalf("params = %+v / %+v", ev[0].Params, ev[1].Params)
	}
}

func TestHover_RequiresDwell(t *testing.T) {
	c, clk, _ := newCollector(t, Config{})
	doc, _ := dom.ParseString(page)
	btn := dom.FindByID(doc, "demo")

	c.Handle(capture.Event{Type: capture.EventMouseOver, Target: btn})
	clk.Advance(500 * time.Millisecond)
	c.Handle(capture.Event{Type: capture.EventMouseOut, Target: btn})
	clk.Advance(2 * time.Second)
	if c.Len() != 0 {
		t.Fatal("short hover recorded")
	}

	c.Handle(capture.Event{Type: capture.EventMouseOver, Target: btn, X: 5, Y: 6})
	clk.Advance(1100 * time.Millisecond)
	got := c.Samples()
	if len(got) != 1 || got[0].Kind != KindHover || got[0].Selector != "#demo" || got[0].DwellMs != 1000 {
		t.Fatalf("hover samples = %+v", got)
	}
}

func TestSweep_PrunesOldSamples(t *testing.T) {
	c, clk, _ := newCollector(t, Config{})
	c.Record(Sample{Kind: KindClick, At: t0})
	clk.Advance(50 * time.Minute)
	c.Record(Sample{Kind: KindClick})
	clk.Advance(15 * time.Minute)
	if c.Len() != 1 {
		t.Fatalf("sweep kept %d samples", c.Len())
	}
}

func TestStop_CancelsTimersAndIgnoresEvents(t *testing.T) {
	c, clk, _ := newCollector(t, Config{})
	c.Handle(capture.Event{Type: capture.EventMouseMove, X: 1})
	c.Stop()
	c.Stop()
	if clk.Pending() != 0 {
		t.Fatalf("pending timers after stop: %d", clk.Pending())
	}
	c.Handle(capture.Event{Type: capture.EventClick})
	clk.Advance(time.Hour)
	if c.Len() != 0 {
		t.Fatalf("samples after stop: %d", c.Len())
	}
	c.Start()
	c.Handle(capture.Event{Type: capture.EventClick})
	if c.Len() != 0 {
		t.Fatal("collector restarted after stop")
	}
}

func TestNotStarted_IgnoresEvents(t *testing.T) {
	c, err := New(context.Background(), Config{}, Deps{}, "s", "")
	if err != nil {
		t.Fatal(err)
	}
	c.Handle(capture.Event{Type: capture.EventClick})
	if c.Len() != 0 {
		t.Fatal("event before Start recorded")
	}
}

func TestNew_BadSelector(t *testing.T) {
	if _, err := New(context.Background(), Config{SignificantSelector: "a["}, Deps{}, "s", ""); err == nil {
		t.Fatal("expected selector error")
	}
}

func TestCountForSession(t *testing.T) {
	c, _, _ := newCollector(t, Config{})
	c.Record(Sample{Kind: KindClick})
	c.Record(Sample{Kind: KindClick, SessionID: "other"})
	if c.CountForSession("s1") != 1 || c.CountForSession("other") != 1 {
		t.Fatal("per-session count wrong")
	}
}

func TestAggregate(t *testing.T) {
	samples := []Sample{
		{Kind: KindClick, X: 3, Y: 4, Selector: "#demo", Tag: "button"},
		{Kind: KindClick, X: 20, Y: 20, Selector: "#demo", Tag: "button"},
		{Kind: KindMove, X: 30, Y: 4},
		{Kind: KindClick, X: 60, Y: 60, Selector: "a.nav"},
		{Kind: KindScroll, X: 0, Y: 900},
	}
	ex := Aggregate(samples, ExportOptions{Grid: 25, TopN: 1})
	if ex.Samples != 5 || len(ex.Points) != 3 {
		t.Fatalf("export = %+v", ex)
	}
	top := ex.Points[0]
	if top.X != 0 || top.Y != 0 || top.Value != 2 || top.Intensity != 1 {
		t.Fatalf("hottest cell = %+v", top)
	}
	if ex.Points[1].Intensity != 0.5 {
		t.Fatalf("intensity not normalised: %+v", ex.Points[1])
	}
	if len(ex.TopElements) != 1 || ex.TopElements[0].Selector != "#demo" || ex.TopElements[0].Clicks != 2 {
		t.Fatalf("top elements = %+v", ex.TopElements)
	}

	scrolls := Aggregate(samples, ExportOptions{Kinds: []Kind{KindScroll}})
	if len(scrolls.Points) != 1 || scrolls.Points[0].Y != 900 {
		t.Fatalf("scroll export = %+v", scrolls.Points)
	}
	if got := floorDiv(-1, 25); got != -1 {
		t.Fatalf("floorDiv(-1,25) = %d", got)
	}
}

package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadfunnel/internal/core/capture"
	"leadfunnel/internal/core/consent"
	"leadfunnel/internal/core/dom"
	"leadfunnel/internal/core/heatmap"
	"leadfunnel/internal/core/probe"
	"leadfunnel/internal/core/recording"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type memSinks struct {
	summaries []recording.Summary
	samples   []heatmap.Sample
}

func (m *memSinks) Summarize(_ context.Context, s recording.Summary) error {
	m.summaries = append(m.summaries, s)
	return nil
}

func (m *memSinks) Samples(_ context.Context, s []heatmap.Sample) error {
	m.samples = append(m.samples, s...)
	return nil
}

type rig struct {
	tr    *Tracker
	clk   *capture.ManualClock
	bus   *capture.Bus
	st    *capture.MemoryStore
	sinks *memSinks
}

func newRig(t *testing.T, opts Options, granted bool) rig {
	t.Helper()
	ctx := context.Background()
	r := rig{
		clk:   capture.NewManualClock(t0),
		bus:   capture.NewBus(),
		st:    capture.NewMemoryStore(),
		sinks: &memSinks{},
	}
	if granted {
		if err := consent.Grant(ctx, r.st, consent.Preferences{Analytics: true}); err != nil {
			t.Fatal(err)
		}
	}
	r.tr = New(ctx, opts, Deps{
		Clock:     r.clk,
		Store:     r.st,
		Source:    r.bus,
		Window:    &probe.StaticWindow{View: probe.Viewport{Width: 1200, Height: 800}, DocHeight: 2400, PageURL: "https://example.com/?utm_source=ads"},
		Sampler:   capture.SeededSampler(1),
		Summaries: r.sinks,
		Samples:   r.sinks,
	})
	return r
}

func always() Options {
	o := DefaultOptions()
	o.HeatmapRate, o.RecordingRate = 1, 1
	return o
}

func TestTracker_NoCaptureWithoutConsent(t *testing.T) {
	r := newRig(t, always(), false)
	r.tr.Start()
	if r.bus.Subscribers() != 0 || r.tr.Status().State != StateAwaiting {
		t.Fatalf("status=%+v subs=%d", r.tr.Status(), r.bus.Subscribers())
	}
	r.clk.Advance(consent.DefaultTimeout)
	if r.bus.Subscribers() != 0 || r.tr.Status().State != StateDeclined {
		t.Fatalf("status=%+v subs=%d", r.tr.Status(), r.bus.Subscribers())
	}
	if r.clk.Pending() != 0 {
		t.Fatalf("timers left: %d", r.clk.Pending())
	}
}

func TestTracker_LateConsentStartsCapture(t *testing.T) {
	r := newRig(t, always(), false)
	r.tr.Start()
	r.clk.Advance(3 * time.Second)
	r.tr.Gate().Notify(true)
	if st := r.tr.Status(); st.State != StateRunning || !st.Heatmap || !st.Recording {
		t.Fatalf("status = %+v", st)
	}
}

func TestTracker_FullLifecycle(t *testing.T) {
	r := newRig(t, always(), true)
	r.tr.Start()
	st := r.tr.Status()
	if st.State != StateRunning || st.SessionID == "" || st.VisitorID == "" || r.bus.Subscribers() != 1 {
		t.Fatalf("status=%+v subs=%d", st, r.bus.Subscribers())
	}

	doc, _ := dom.ParseString(`<html><body><button id="demo" class="cta">Demo</button></body></html>`)
	r.bus.Publish(capture.Event{Type: capture.EventClick, Target: dom.FindByID(doc, "demo"), X: 5, Y: 5})
	r.bus.Publish(capture.Event{Type: capture.EventScroll, ScrollY: 400})
	r.clk.Advance(time.Second)
	r.bus.Publish(capture.Event{Type: capture.EventUnload})

	if r.tr.Status().State != StateStopped || r.bus.Subscribers() != 0 {
		t.Fatalf("not stopped: %+v", r.tr.Status())
	}
	if r.clk.Pending() != 0 {
		t.Fatalf("timers left: %d", r.clk.Pending())
	}
	if len(r.sinks.summaries) != 1 {
		t.Fatalf("summaries = %d", len(r.sinks.summaries))
	}
	sum := r.sinks.summaries[0]
	if sum.SessionID != st.SessionID || sum.EventCount != 2 || sum.HeatmapSampleCount != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Metadata.UTM.Source != "ads" {
		t.Fatalf("metadata = %+v", sum.Metadata)
	}
	if len(r.sinks.samples) != 2 {
		t.Fatalf("flushed samples = %d", len(r.sinks.samples))
	}

	r.tr.Stop()
	if len(r.sinks.summaries) != 1 || len(r.sinks.samples) != 2 {
		t.Fatal("second stop produced output")
	}
	h, _ := recording.History(context.Background(), r.st)
	if len(h) != 1 {
		t.Fatalf("history = %+v", h)
	}
}

func TestTracker_NotEnrolled(t *testing.T) {
	o := DefaultOptions()
	o.HeatmapRate, o.RecordingRate = 0, 0
	r := newRig(t, o, true)
	r.tr.Start()
	if st := r.tr.Status(); st.State != StateNotEnrolled || r.bus.Subscribers() != 0 {
		t.Fatalf("status = %+v", st)
	}
}

func TestTracker_HeatmapOnly(t *testing.T) {
	o := DefaultOptions()
	o.HeatmapRate, o.RecordingRate = 1, 0
	r := newRig(t, o, true)
	r.tr.Start()
	if r.tr.Recorder() != nil || r.tr.Heatmap() == nil {
		t.Fatal("wrong collectors enrolled")
	}
	r.tr.Stop()
	if len(r.sinks.summaries) != 0 {
		t.Fatal("summary without recording")
	}
}

func TestTracker_StopBeforeConsent(t *testing.T) {
	r := newRig(t, always(), false)
	r.tr.Start()
	r.tr.Stop()
	r.tr.Gate().Notify(true)
	if r.tr.Status().State != StateStopped || r.bus.Subscribers() != 0 || r.clk.Pending() != 0 {
		t.Fatalf("status=%+v subs=%d pending=%d", r.tr.Status(), r.bus.Subscribers(), r.clk.Pending())
	}
}

func TestHTTPSink(t *testing.T) {
	var paths []string
	var visitor string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		visitor = r.Header.Get("X-Visitor-ID")
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.URL.Path == "/api/v1/sessions/samples" {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewHTTPSink(srv.URL+"/api/v1/", "v-9")
	ctx := context.Background()
	if err := s.Summarize(ctx, recording.Summary{SessionID: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Samples(ctx, []heatmap.Sample{{Kind: heatmap.KindClick}}); err == nil {
		t.Fatal("expected error on 413")
	}
	if len(paths) != 2 || paths[0] != "/api/v1/sessions/summaries" || visitor != "v-9" {
		t.Fatalf("paths=%v visitor=%q", paths, visitor)
	}
}

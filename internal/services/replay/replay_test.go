package replay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"leadfunnel/internal/core/dom"
	"leadfunnel/internal/core/tracker"
	perr "leadfunnel/internal/platform/errors"
	pnet "leadfunnel/internal/platform/net"
)

const page = `<html><body>
<header><a class="nav link" href="/pricing">Pricing</a></header>
<main>
  <button id="cta" class="btn">Book a demo</button>
  <form id="lead"><input name="email"><button type="submit">Send</button></form>
</main>
</body></html>`

const events = `{"t_ms":0,"type":"mousemove","x":10,"y":20}
{"t_ms":250,"type":"click","target":"#cta","x":400,"y":300}

{"t_ms":600,"type":"scroll","scroll_y":900}
{"t_ms":900,"type":"click","target":"a.nav","x":30,"y":15}
{"t_ms":2000,"type":"unload"}
`

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func everyone() tracker.Options {
	o := tracker.DefaultOptions()
	o.HeatmapRate, o.RecordingRate = 1, 1
	return o
}

func mustSteps(t *testing.T) ([]Step, Input) {
	t.Helper()
	root, err := dom.ParseString(page)
	if err != nil {
		t.Fatal(err)
	}
	steps, err := ParseEvents(strings.NewReader(events), root)
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	return steps, Input{Page: root, PageURL: "https://example.com/?utm_source=ads", Steps: steps, Options: everyone(), Seed: 7, Start: t0}
}

func TestParseEvents(t *testing.T) {
	steps, _ := mustSteps(t)
	if len(steps) != 5 {
		t.Fatalf("steps=%d want 5", len(steps))
	}
	if steps[1].Offset != 250*time.Millisecond || steps[1].Event.Target == nil {
		t.Fatalf("click step=%+v", steps[1])
	}
	if steps[0].Event.Target != nil {
		t.Fatalf("mousemove should be window level")
	}
}

func TestParseEvents_Errors(t *testing.T) {
	root, _ := dom.ParseString(page)
	tests := []struct {
		name string
		in   string
		code perr.ErrorCode
	}{
		{"bad json", `{"t_ms":`, perr.ErrorCodeJSON},
		{"unknown type", `{"t_ms":0,"type":"wheel"}`, perr.ErrorCodeInvalidArgument},
		{"backwards", "{\"t_ms\":10,\"type\":\"click\"}\n{\"t_ms\":5,\"type\":\"click\"}", perr.ErrorCodeInvalidArgument},
		{"missing target", `{"t_ms":0,"type":"click","target":"#nope"}`, perr.ErrorCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvents(strings.NewReader(tt.in), root)
			if !perr.IsCode(err, tt.code) {
				t.Fatalf("err=%v want code %d", err, tt.code)
			}
		})
	}
}

func TestLoadProfile(t *testing.T) {
	opts, err := LoadProfile(strings.NewReader(`
heatmap_rate: 1
recording_rate: 0.5
consent:
  poll_interval: 2s
heatmap:
  max_samples: 100
recording:
  capture_inputs: true
`))
	if err != nil {
		t.Fatal(err)
	}
	if opts.HeatmapRate != 1 || opts.RecordingRate != 0.5 {
		t.Fatalf("rates=%v/%v", opts.HeatmapRate, opts.RecordingRate)
	}
	if opts.Consent.PollInterval != 2*time.Second || opts.Heatmap.MaxSamples != 100 || !opts.Recording.CaptureInputs {
		t.Fatalf("opts=%+v", opts)
	}

	if _, err := LoadProfile(strings.NewReader("heatmap_rat: 1\n")); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("unknown field err=%v", err)
	}
	opts, err = LoadProfile(strings.NewReader(""))
	if err != nil || opts.HeatmapRate != tracker.DefaultHeatmapRate {
		t.Fatalf("empty profile opts=%+v err=%v", opts, err)
	}
}

func TestRun(t *testing.T) {
	_, in := mustSteps(t)
	res, err := Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status.State != tracker.StateStopped || !res.Status.Heatmap || !res.Status.Recording {
		t.Fatalf("status=%+v", res.Status)
	}
	if res.Summary == nil {
		t.Fatal("no summary")
	}
	if res.Summary.DurationMs != 2000 || res.Summary.EventCount == 0 {
		t.Fatalf("summary=%+v", res.Summary)
	}
	if res.Summary.Metadata.UTM.Source != "ads" {
		t.Fatalf("metadata=%+v", res.Summary.Metadata)
	}
	if res.Export == nil || res.Export.Samples == 0 || res.Samples == 0 {
		t.Fatalf("export=%+v samples=%d", res.Export, res.Samples)
	}
	clicks := 0
	for _, te := range res.Export.TopElements {
		clicks += te.Clicks
	}
	if clicks != 2 {
		t.Fatalf("top elements=%+v", res.Export.TopElements)
	}
	if len(res.History) != 1 || res.History[0].SessionID != res.Summary.SessionID {
		t.Fatalf("history=%+v", res.History)
	}
}

func TestRun_NotEnrolled(t *testing.T) {
	_, in := mustSteps(t)
	in.Options = tracker.Options{}
	res, err := Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary != nil || res.Export != nil || res.Samples != 0 {
		t.Fatalf("res=%+v", res)
	}
}

func TestRun_Forward(t *testing.T) {
	var (
		mu      sync.Mutex
		paths   []string
		visitor string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		visitor = r.Header.Get(pnet.VisitorHeader)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	_, in := mustSteps(t)
	in.Forward = tracker.NewHTTPSink(srv.URL+"/api/v1", "")
	res, err := Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("forward errors=%v", res.Errors)
	}
	mu.Lock()
	defer mu.Unlock()
	if strings.Join(paths, ",") != "/api/v1/sessions/summaries,/api/v1/sessions/samples" {
		t.Fatalf("paths=%v", paths)
	}
	if visitor == "" || visitor != res.Status.VisitorID {
		t.Fatalf("visitor header=%q status=%q", visitor, res.Status.VisitorID)
	}
}

func TestRun_RequiresPage(t *testing.T) {
	if _, err := Run(context.Background(), Input{}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err=%v", err)
	}
}

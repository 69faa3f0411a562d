// Package replay drives the capture tracker headlessly: a saved HTML page,
// a JSON lines interaction log and a manual clock stand in for the browser.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"leadfunnel/internal/core/capture"
	"leadfunnel/internal/core/consent"
	"leadfunnel/internal/core/dom"
	"leadfunnel/internal/core/heatmap"
	"leadfunnel/internal/core/probe"
	"leadfunnel/internal/core/recording"
	"leadfunnel/internal/core/tracker"
	perr "leadfunnel/internal/platform/errors"
	"leadfunnel/internal/platform/logger"
)

// Line is one recorded interaction. OffsetMs is relative to the page load
type Line struct {
	OffsetMs int64  `json:"t_ms"`
	Type     string `json:"type"`
	Target   string `json:"target,omitempty"`
	X        int    `json:"x,omitempty"`
	Y        int    `json:"y,omitempty"`
	Button   int    `json:"button,omitempty"`
	ScrollX  int    `json:"scroll_x,omitempty"`
	ScrollY  int    `json:"scroll_y,omitempty"`
	Value    string `json:"value,omitempty"`
	Key      string `json:"key,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Step is a Line resolved against the page
type Step struct {
	Offset time.Duration
	Event  capture.Event
}

var knownTypes = map[capture.EventType]bool{
	capture.EventClick: true, capture.EventMouseMove: true, capture.EventScroll: true,
	capture.EventMouseOver: true, capture.EventMouseOut: true, capture.EventInput: true,
	capture.EventKeyDown: true, capture.EventSubmit: true, capture.EventResize: true,
	capture.EventFocus: true, capture.EventBlur: true, capture.EventNavigation: true,
	capture.EventUnload: true,
}

// ParseEvents reads JSON lines and resolves each target selector against
// root. Blank lines are skipped; offsets must not go backwards
func ParseEvents(r io.Reader, root *html.Node) ([]Step, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		steps []Step
		last  int64
		n     int
	)
	for sc.Scan() {
		n++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var l Line
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "events line %d", n)
		}
		typ := capture.EventType(l.Type)
		if !knownTypes[typ] {
			return nil, perr.InvalidArgf("events line %d: unknown type %q", n, l.Type)
		}
		if l.OffsetMs < last {
			return nil, perr.InvalidArgf("events line %d: t_ms %d before %d", n, l.OffsetMs, last)
		}
		last = l.OffsetMs

		e := capture.Event{
			Type: typ, X: l.X, Y: l.Y, Button: l.Button,
			ScrollX: l.ScrollX, ScrollY: l.ScrollY,
			Value: l.Value, Key: l.Key, Width: l.Width, Height: l.Height,
		}
		if l.Target != "" {
			sel, err := dom.Compile(l.Target)
			if err != nil {
				return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "events line %d", n), "target")
			}
			if e.Target = sel.First(root); e.Target == nil {
				return nil, perr.NotFoundf("events line %d: no element matches %q", n, l.Target)
			}
		}
		steps = append(steps, Step{Offset: time.Duration(l.OffsetMs) * time.Millisecond, Event: e})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

// LoadProfile decodes a YAML capture profile over the defaults
func LoadProfile(r io.Reader) (tracker.Options, error) {
	opts := tracker.DefaultOptions()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && err != io.EOF {
		return tracker.Options{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "capture profile")
	}
	return opts, nil
}

// Input is one replay run
type Input struct {
	Page    *html.Node
	PageURL string
	Steps   []Step
	Options tracker.Options
	Seed    int64
	Start   time.Time
	View    probe.Viewport
	Height  int
	// Forward receives the summary and samples as well, when set
	Forward *tracker.HTTPSink
}

// Result is what the run produced
type Result struct {
	Status  tracker.Status           `json:"status"`
	Summary *recording.Summary       `json:"summary,omitempty"`
	Export  *heatmap.Export          `json:"heatmap,omitempty"`
	Samples int                      `json:"samples"`
	Errors  []string                 `json:"forward_errors,omitempty"`
	History []recording.HistoryEntry `json:"history,omitempty"`
}

type collector struct {
	fwd       *tracker.HTTPSink
	summaries []recording.Summary
	samples   []heatmap.Sample
	errs      []string
}

func (c *collector) Summarize(ctx context.Context, s recording.Summary) error {
	c.summaries = append(c.summaries, s)
	if c.fwd != nil {
		if err := c.fwd.Summarize(ctx, s); err != nil {
			c.errs = append(c.errs, err.Error())
			return err
		}
	}
	return nil
}

func (c *collector) Samples(ctx context.Context, s []heatmap.Sample) error {
	c.samples = append(c.samples, s...)
	if c.fwd != nil {
		if err := c.fwd.Samples(ctx, s); err != nil {
			c.errs = append(c.errs, err.Error())
			return err
		}
	}
	return nil
}

// Run grants consent, replays every step at its offset and stops the tracker
func Run(ctx context.Context, in Input) (Result, error) {
	if in.Page == nil {
		return Result{}, perr.InvalidArgf("page is required")
	}
	if in.Start.IsZero() {
		in.Start = time.Now().UTC()
	}
	if in.View.Width == 0 || in.View.Height == 0 {
		in.View = probe.Viewport{Width: 1280, Height: 800, DevicePixelRatio: 1}
	}
	if in.Height <= 0 {
		in.Height = in.View.Height * 3
	}

	clk := capture.NewManualClock(in.Start)
	bus := capture.NewBus()
	st := capture.NewMemoryStore()
	win := &probe.StaticWindow{View: in.View, DocHeight: in.Height, PageURL: in.PageURL, UA: "leadfunnel-replay"}
	sink := &collector{fwd: in.Forward}

	if err := consent.Grant(ctx, st, consent.Preferences{Necessary: true, Analytics: true, UpdatedAt: in.Start}); err != nil {
		return Result{}, err
	}

	tr := tracker.New(ctx, in.Options, tracker.Deps{
		Clock:     clk,
		Store:     st,
		Source:    bus,
		Window:    win,
		Sampler:   capture.SeededSampler(in.Seed),
		Analytics: capture.LogSink{Log: logger.Named("replay")},
		Summaries: sink,
		Samples:   sink,
	})
	tr.Start()
	if in.Forward != nil {
		in.Forward.VisitorID = tr.Status().VisitorID
	}

	for _, s := range in.Steps {
		clk.Set(in.Start.Add(s.Offset))
		e := s.Event
		e.At = clk.Now()
		switch e.Type {
		case capture.EventScroll:
			win.ScrollTo(e.ScrollX, e.ScrollY)
		case capture.EventResize:
			win.Resize(e.Width, e.Height)
		}
		bus.Publish(e)
	}
	tr.Stop()

	var export *heatmap.Export
	if h := tr.Heatmap(); h != nil {
		x := h.Export(heatmap.ExportOptions{})
		export = &x
	}
	res := Result{Status: tr.Status(), Export: export, Samples: len(sink.samples), Errors: sink.errs}
	if len(sink.summaries) > 0 {
		res.Summary = &sink.summaries[len(sink.summaries)-1]
	}
	if h, err := recording.History(ctx, st); err == nil {
		res.History = h
	}
	return res, nil
}

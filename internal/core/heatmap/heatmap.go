// Package heatmap buffers pointer, scroll and hover samples for one page load
// and reports clicks on significant elements to the analytics sink.
package heatmap

import (
	"context"
	"sync"
	"time"

	"golang.org/x/net/html"

	"leadfunnel/internal/core/capture"
	"leadfunnel/internal/core/dom"
	"leadfunnel/internal/core/probe"
	"leadfunnel/internal/platform/logger"
)

// Kind of sample
type Kind string

const (
	KindClick  Kind = "click"
	KindMove   Kind = "move"
	KindScroll Kind = "scroll"
	KindHover  Kind = "hover"
)

// DefaultSignificant lists the interactive elements worth a discrete event
const DefaultSignificant = "button, a, .cta, .btn, .pricing-card, .demo-button, .contact-button, " +
	"[data-track], input[type=submit], form"

// Sample is one buffered interaction
type Sample struct {
	Kind      Kind      `json:"kind"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	ScrollY   int       `json:"scroll_y,omitempty"`
	Selector  string    `json:"selector,omitempty"`
	Tag       string    `json:"tag,omitempty"`
	Text      string    `json:"text,omitempty"`
	DwellMs   int64     `json:"dwell_ms,omitempty"`
	ViewportW int       `json:"viewport_w,omitempty"`
	ViewportH int       `json:"viewport_h,omitempty"`
	SessionID string    `json:"session_id"`
	PageURL   string    `json:"page_url,omitempty"`
	At        time.Time `json:"at"`
}

// Config tunes the collector; zero values take defaults
type Config struct {
	MaxSamples          int           `yaml:"max_samples"`
	MoveDebounce        time.Duration `yaml:"move_debounce"`
	ScrollDebounce      time.Duration `yaml:"scroll_debounce"`
	HoverDwell          time.Duration `yaml:"hover_dwell"`
	SweepEvery          time.Duration `yaml:"sweep_every"`
	Retention           time.Duration `yaml:"retention"`
	SignificantSelector string        `yaml:"significant_selector"`
}

// WithDefaults fills zero fields
func (c Config) WithDefaults() Config {
	if c.MaxSamples <= 0 {
		c.MaxSamples = 5000
	}
	if c.MoveDebounce <= 0 {
		c.MoveDebounce = 100 * time.Millisecond
	}
	if c.ScrollDebounce <= 0 {
		c.ScrollDebounce = 100 * time.Millisecond
	}
	if c.HoverDwell <= 0 {
		c.HoverDwell = time.Second
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = 5 * time.Minute
	}
	if c.Retention <= 0 {
		c.Retention = time.Hour
	}
	if c.SignificantSelector == "" {
		c.SignificantSelector = DefaultSignificant
	}
	return c
}

// Deps are the host capabilities the collector uses
type Deps struct {
	Clock     capture.Clock
	Window    probe.Window
	Analytics capture.AnalyticsSink
}

// Collector owns the sample buffer of one session
type Collector struct {
	ctx       context.Context
	cfg       Config
	clock     capture.Clock
	win       probe.Window
	analytics capture.AnalyticsSink
	sig       dom.Selector
	session   string
	pageURL   string

	mu      sync.Mutex
	samples []Sample
	running bool
	stopped bool
	sweep   capture.Timer
	move    throttle
	scroll  throttle
	hover   capture.Timer
	hoverOn *html.Node
}

// throttle keeps the newest pending value of a window
type throttle struct {
	timer   capture.Timer
	pending Sample
}

// New builds a collector for sessionID
func New(ctx context.Context, cfg Config, deps Deps, sessionID, pageURL string) (*Collector, error) {
	cfg = cfg.WithDefaults()
	sig, err := dom.Compile(cfg.SignificantSelector)
	if err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = capture.SystemClock{}
	}
	if deps.Analytics == nil {
		deps.Analytics = capture.NopSink{}
	}
	return &Collector{
		ctx:       ctx,
		cfg:       cfg,
		clock:     deps.Clock,
		win:       deps.Window,
		analytics: deps.Analytics,
		sig:       sig,
		session:   sessionID,
		pageURL:   pageURL,
	}, nil
}

// Config returns the effective configuration
func (c *Collector) Config() Config { return c.cfg }

// Start arms the retention sweep. Events are ignored until Start
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.stopped {
		return
	}
	c.running = true
	c.sweep = c.clock.AfterFunc(c.cfg.SweepEvery, c.runSweep)
}

// Stop cancels every pending timer; pending throttled values are dropped
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped, c.running = true, false
	for _, t := range []capture.Timer{c.sweep, c.move.timer, c.scroll.timer, c.hover} {
		if t != nil {
			t.Stop()
		}
	}
	c.sweep, c.move.timer, c.scroll.timer, c.hover, c.hoverOn = nil, nil, nil, nil, nil
}

// Record appends s. Past the cap the buffer drops to the newest 90% of it
func (c *Collector) Record(s Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordLocked(s)
}

func (c *Collector) recordLocked(s Sample) {
	if s.SessionID == "" {
		s.SessionID = c.session
	}
	if s.PageURL == "" {
		s.PageURL = c.pageURL
	}
	if s.At.IsZero() {
		s.At = c.clock.Now()
	}
	if c.win != nil && s.ViewportW == 0 {
		vp := c.win.Viewport()
		s.ViewportW, s.ViewportH = vp.Width, vp.Height
	}
	c.samples = append(c.samples, s)
	if len(c.samples) > c.cfg.MaxSamples {
		keep := c.cfg.MaxSamples * 9 / 10
		c.samples = append(c.samples[:0:0], c.samples[len(c.samples)-keep:]...)
	}
}

// Samples returns a copy of the buffer
func (c *Collector) Samples() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

// Len is the buffer size
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

// CountForSession counts buffered samples tagged with id
func (c *Collector) CountForSession(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.samples {
		if s.SessionID == id {
			n++
		}
	}
	return n
}

// Handle consumes one host event
func (c *Collector) Handle(e capture.Event) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	if e.At.IsZero() {
		e.At = c.clock.Now()
	}

	var significant *html.Node
	switch e.Type {
	case capture.EventClick:
		s := Sample{Kind: KindClick, X: e.X, Y: e.Y, At: e.At}
		if e.Target != nil {
			d := dom.Describe(e.Target)
			s.Selector, s.Tag, s.Text = d.Selector, d.Tag, d.Text
			significant = c.sig.Closest(e.Target)
		}
		c.recordLocked(s)
	case capture.EventMouseMove:
		c.throttleLocked(&c.move, c.cfg.MoveDebounce, Sample{Kind: KindMove, X: e.X, Y: e.Y, At: e.At})
	case capture.EventScroll:
		c.throttleLocked(&c.scroll, c.cfg.ScrollDebounce,
			Sample{Kind: KindScroll, X: e.ScrollX, Y: e.ScrollY, ScrollY: e.ScrollY, At: e.At})
	case capture.EventMouseOver:
		c.hoverStartLocked(e)
	case capture.EventMouseOut:
		if e.Target == nil || e.Target == c.hoverOn {
			c.hoverCancelLocked()
		}
	}
	c.mu.Unlock()

	if significant != nil {
		c.reportSignificant(significant)
	}
}

// throttleLocked records at most one sample per window, the last one seen
func (c *Collector) throttleLocked(t *throttle, window time.Duration, s Sample) {
	t.pending = s
	if t.timer != nil {
		return
	}
	t.timer = c.clock.AfterFunc(window, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.running {
			return
		}
		t.timer = nil
		c.recordLocked(t.pending)
	})
}

func (c *Collector) hoverStartLocked(e capture.Event) {
	if e.Target == nil {
		return
	}
	c.hoverCancelLocked()
	target, at, x, y := e.Target, e.At, e.X, e.Y
	c.hoverOn = target
	c.hover = c.clock.AfterFunc(c.cfg.HoverDwell, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.running || c.hoverOn != target {
			return
		}
		d := dom.Describe(target)
		c.recordLocked(Sample{
			Kind: KindHover, X: x, Y: y,
			Selector: d.Selector, Tag: d.Tag, Text: d.Text,
			DwellMs: c.cfg.HoverDwell.Milliseconds(), At: at,
		})
		c.hover, c.hoverOn = nil, nil
	})
}

func (c *Collector) hoverCancelLocked() {
	if c.hover != nil {
		c.hover.Stop()
	}
	c.hover, c.hoverOn = nil, nil
}

func (c *Collector) reportSignificant(n *html.Node) {
	d := dom.Describe(n)
	params := map[string]string{
		"selector":   d.Selector,
		"text":       d.Text,
		"tag":        d.Tag,
		"session_id": c.session,
	}
	if href := dom.Attr(n, "href"); href != "" {
		params["href"] = href
	}
	c.analytics.Track("significant_click", params, nil)
	logger.C(c.ctx).Debug().Str("selector", d.Selector).Msg("significant click")
}

func (c *Collector) runSweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.pruneLocked(c.clock.Now().Add(-c.cfg.Retention))
	c.sweep = c.clock.AfterFunc(c.cfg.SweepEvery, c.runSweep)
}

// Prune drops samples older than cutoff and returns how many went
func (c *Collector) Prune(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked(cutoff)
}

func (c *Collector) pruneLocked(cutoff time.Time) int {
	kept := c.samples[:0]
	for _, s := range c.samples {
		if !s.At.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	n := len(c.samples) - len(kept)
	c.samples = kept
	if n > 0 {
		logger.C(c.ctx).Debug().Int("pruned", n).Int("kept", len(kept)).Str("session_id", c.session).Msg("heatmap sweep")
	}
	return n
}

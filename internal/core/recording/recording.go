// Package recording captures a privacy-filtered event log for one session and
// seals it into a summary when the session stops.
package recording

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"leadfunnel/internal/core/capture"
	"leadfunnel/internal/core/dom"
	"leadfunnel/internal/core/probe"
	"leadfunnel/internal/platform/logger"
)

// DefaultExclude never yields input or key events
const DefaultExclude = "input[type=password], .sensitive-data, [data-sensitive]"

// Config tunes the recorder; zero values take defaults
type Config struct {
	MaxDuration       time.Duration `yaml:"max_duration"`
	CaptureInputs     bool          `yaml:"capture_inputs"`
	CaptureKeystrokes bool          `yaml:"capture_keystrokes"`
	ExcludeSelector   string        `yaml:"exclude_selector"`
	HistoryLimit      int           `yaml:"history_limit"`
}

// WithDefaults fills zero fields
func (c Config) WithDefaults() Config {
	if c.MaxDuration <= 0 {
		c.MaxDuration = 30 * time.Minute
	}
	if c.ExcludeSelector == "" {
		c.ExcludeSelector = DefaultExclude
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 10
	}
	return c
}

// FormInfo identifies a submitted form; values are never read
type FormInfo struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	Action     string `json:"action,omitempty"`
	Method     string `json:"method,omitempty"`
	FieldCount int    `json:"field_count"`
}

// Event is one entry of the session log
type Event struct {
	Type        capture.EventType `json:"type"`
	At          time.Time         `json:"at"`
	OffsetMs    int64             `json:"offset_ms"`
	Element     *dom.Descriptor   `json:"element,omitempty"`
	X           int               `json:"x,omitempty"`
	Y           int               `json:"y,omitempty"`
	Button      int               `json:"button,omitempty"`
	ScrollY     int               `json:"scroll_y,omitempty"`
	MaxScroll   int               `json:"max_scroll,omitempty"`
	Width       int               `json:"width,omitempty"`
	Height      int               `json:"height,omitempty"`
	ValueLength int               `json:"value_length,omitempty"`
	Key         string            `json:"key,omitempty"`
	Form        *FormInfo         `json:"form,omitempty"`
}

// StartContext identifies the session being recorded
type StartContext struct {
	SessionID string
	VisitorID string
	PageURL   string
	Metadata  probe.Metadata
}

// Recording is a snapshot of the session
type Recording struct {
	SessionID string         `json:"session_id"`
	VisitorID string         `json:"anonymous_user_id"`
	PageURL   string         `json:"page_url"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at,omitzero"`
	Active    bool           `json:"active"`
	Events    []Event        `json:"events"`
	Metadata  probe.Metadata `json:"metadata"`
}

// SampleCounter reports heatmap samples correlated to a session
type SampleCounter interface {
	CountForSession(sessionID string) int
}

// SummarySink receives sealed summaries
type SummarySink interface {
	Summarize(ctx context.Context, s Summary) error
}

// Deps are the host capabilities the recorder uses
type Deps struct {
	Clock   capture.Clock
	Store   capture.Store
	Window  probe.Window
	Samples SampleCounter
	Sink    SummarySink
}

// Recorder records one session
type Recorder struct {
	ctx     context.Context
	cfg     Config
	deps    Deps
	exclude dom.Selector

	mu      sync.Mutex
	rec     Recording
	started bool
	sealed  bool
	cap     capture.Timer
	maxView int
	summary Summary
}

// New builds a recorder
func New(ctx context.Context, cfg Config, deps Deps) (*Recorder, error) {
	cfg = cfg.WithDefaults()
	ex, err := dom.Compile(cfg.ExcludeSelector)
	if err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = capture.SystemClock{}
	}
	return &Recorder{ctx: ctx, cfg: cfg, deps: deps, exclude: ex}, nil
}

// Config returns the effective configuration
func (r *Recorder) Config() Config { return r.cfg }

// Start begins recording and arms the duration cap. A second call returns
// the running recording unchanged
func (r *Recorder) Start(sc StartContext) Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return r.snapshotLocked()
	}
	if sc.SessionID == "" {
		sc.SessionID = capture.NewSessionID()
	}
	r.started = true
	r.rec = Recording{
		SessionID: sc.SessionID,
		VisitorID: sc.VisitorID,
		PageURL:   sc.PageURL,
		StartedAt: r.deps.Clock.Now(),
		Active:    true,
		Metadata:  sc.Metadata,
	}
	r.maxView = r.visibleBottom(0)
	r.cap = r.deps.Clock.AfterFunc(r.cfg.MaxDuration, func() {
		logger.C(r.ctx).Debug().Str("session_id", sc.SessionID).Msg("recording hit max duration")
		r.Stop()
	})
	return r.snapshotLocked()
}

// SessionID of the current recording
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.SessionID
}

// Recording returns a snapshot
func (r *Recorder) Recording() Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Recorder) snapshotLocked() Recording {
	out := r.rec
	out.Events = append([]Event(nil), r.rec.Events...)
	return out
}

// Handle applies the capture policy to e
func (r *Recorder) Handle(e capture.Event) {
	r.mu.Lock()
	if !r.started || r.sealed {
		r.mu.Unlock()
		return
	}
	now := r.deps.Clock.Now()
	if e.At.IsZero() {
		e.At = now
	}
	overdue := now.Sub(r.rec.StartedAt) >= r.cfg.MaxDuration
	if !overdue {
		if ev, ok := r.convert(e); ok {
			ev.At = e.At
			ev.OffsetMs = e.At.Sub(r.rec.StartedAt).Milliseconds()
			r.rec.Events = append(r.rec.Events, ev)
		}
	}
	r.mu.Unlock()

	if overdue {
		r.Stop()
	}
}

func (r *Recorder) excluded(e capture.Event) bool {
	return e.Target != nil && r.exclude.Closest(e.Target) != nil
}

func describe(e capture.Event) *dom.Descriptor {
	if e.Target == nil {
		return nil
	}
	d := dom.Describe(e.Target)
	return &d
}

// convert maps a host event to a log entry; ok is false when policy drops it
func (r *Recorder) convert(e capture.Event) (Event, bool) {
	switch e.Type {
	case capture.EventClick:
		return Event{Type: e.Type, Element: describe(e), X: e.X, Y: e.Y, Button: e.Button}, true

	case capture.EventInput:
		if !r.cfg.CaptureInputs || r.excluded(e) {
			return Event{}, false
		}
		return Event{Type: e.Type, Element: describe(e), ValueLength: utf8.RuneCountInString(e.Value)}, true

	case capture.EventKeyDown:
		if !r.cfg.CaptureKeystrokes || r.excluded(e) {
			return Event{}, false
		}
		return Event{Type: e.Type, Element: describe(e), Key: keyName(e.Key)}, true

	case capture.EventSubmit:
		form := dom.Form(e.Target)
		if form == nil {
			return Event{}, false
		}
		return Event{Type: e.Type, Form: &FormInfo{
			ID:         dom.Attr(form, "id"),
			Name:       dom.Attr(form, "name"),
			Action:     dom.Attr(form, "action"),
			Method:     dom.Attr(form, "method"),
			FieldCount: dom.FieldCount(form),
		}}, true

	case capture.EventScroll:
		ev := Event{Type: e.Type, X: e.ScrollX, ScrollY: e.ScrollY}
		if r.deps.Window != nil {
			ev.MaxScroll = probe.MaxScroll(r.deps.Window)
		}
		r.maxView = max(r.maxView, r.visibleBottom(e.ScrollY))
		return ev, true

	case capture.EventResize:
		w, h := e.Width, e.Height
		if w == 0 && h == 0 && r.deps.Window != nil {
			vp := r.deps.Window.Viewport()
			w, h = vp.Width, vp.Height
		}
		return Event{Type: e.Type, Width: w, Height: h}, true

	case capture.EventFocus, capture.EventBlur:
		if e.Target != nil {
			return Event{}, false
		}
		return Event{Type: e.Type}, true
	}
	return Event{}, false
}

// keyName keeps named keys and masks printable characters
func keyName(k string) string {
	if utf8.RuneCountInString(k) > 1 {
		return k
	}
	return "*"
}

// visibleBottom is the lowest document pixel visible at scrollY
func (r *Recorder) visibleBottom(scrollY int) int {
	if r.deps.Window == nil {
		return 0
	}
	return scrollY + r.deps.Window.Viewport().Height
}

// Stop seals the session once. Later calls return the sealed recording
func (r *Recorder) Stop() Recording {
	r.mu.Lock()
	if !r.started || r.sealed {
		out := r.snapshotLocked()
		r.mu.Unlock()
		return out
	}
	r.sealed = true
	if r.cap != nil {
		r.cap.Stop()
		r.cap = nil
	}
	r.rec.Active = false
	r.rec.EndedAt = r.deps.Clock.Now()
	rec := r.snapshotLocked()
	r.summary = r.summarizeLocked(rec)
	sum := r.summary
	r.mu.Unlock()

	r.persist(sum)
	return rec
}

// Summary returns the sealed summary
func (r *Recorder) Summary() (Summary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary, r.sealed
}

// Sealed reports whether Stop ran
func (r *Recorder) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

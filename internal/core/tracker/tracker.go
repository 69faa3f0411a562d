// Package tracker wires the consent gate, the samplers and both collectors
// into one page-load lifecycle: construct, gate, start, stop.
package tracker

import (
	"context"
	"sync"

	"leadfunnel/internal/core/capture"
	"leadfunnel/internal/core/consent"
	"leadfunnel/internal/core/heatmap"
	"leadfunnel/internal/core/probe"
	"leadfunnel/internal/core/recording"
	"leadfunnel/internal/platform/logger"
)

// State of the lifecycle
type State string

const (
	StateIdle        State = "idle"
	StateAwaiting    State = "awaiting_consent"
	StateDeclined    State = "declined"
	StateNotEnrolled State = "not_enrolled"
	StateRunning     State = "running"
	StateStopped     State = "stopped"
)

// SampleSink receives the heatmap buffer when tracking stops
type SampleSink interface {
	Samples(ctx context.Context, samples []heatmap.Sample) error
}

// Deps are the host capabilities
type Deps struct {
	Clock     capture.Clock
	Store     capture.Store
	Source    capture.Source
	Window    probe.Window
	Sampler   *capture.Sampler
	Analytics capture.AnalyticsSink
	Summaries recording.SummarySink
	Samples   SampleSink
}

// Status reports the lifecycle and enrolment
type Status struct {
	State     State  `json:"state"`
	SessionID string `json:"session_id,omitempty"`
	VisitorID string `json:"visitor_id,omitempty"`
	Heatmap   bool   `json:"heatmap"`
	Recording bool   `json:"recording"`
}

// Tracker drives capture for one page load
type Tracker struct {
	ctx  context.Context
	opts Options
	deps Deps
	gate *consent.Gate

	mu       sync.Mutex
	status   Status
	detach   func()
	heat     *heatmap.Collector
	recorder *recording.Recorder
}

// New builds an idle tracker
func New(ctx context.Context, opts Options, deps Deps) *Tracker {
	if deps.Clock == nil {
		deps.Clock = capture.SystemClock{}
	}
	if deps.Store == nil {
		deps.Store = capture.NewMemoryStore()
	}
	if deps.Sampler == nil {
		deps.Sampler = capture.NewSampler(nil)
	}
	if deps.Analytics == nil {
		deps.Analytics = capture.NopSink{}
	}
	return &Tracker{
		ctx:    ctx,
		opts:   opts,
		deps:   deps,
		gate:   consent.NewGate(ctx, opts.Consent, deps.Clock, deps.Store),
		status: Status{State: StateIdle},
	}
}

// Gate exposes the consent gate so the host can Notify it
func (t *Tracker) Gate() *consent.Gate { return t.gate }

// Status returns a snapshot
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Heatmap returns the collector when the session is enrolled
func (t *Tracker) Heatmap() *heatmap.Collector {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.heat
}

// Recorder returns the recorder when the session is enrolled
func (t *Tracker) Recorder() *recording.Recorder {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recorder
}

// Start waits for consent and then starts enrolled collectors. It never blocks
func (t *Tracker) Start() {
	t.mu.Lock()
	if t.status.State != StateIdle {
		t.mu.Unlock()
		return
	}
	t.status.State = StateAwaiting
	t.mu.Unlock()

	t.gate.Await(t.onConsent)
}

func (t *Tracker) onConsent(granted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.State != StateAwaiting {
		return
	}
	if !granted {
		t.status.State = StateDeclined
		return
	}

	sessionID := capture.NewSessionID()
	ctx := logger.WithSession(t.ctx, sessionID)
	log := logger.C(ctx)

	heatOn := t.deps.Sampler.Enroll(t.opts.HeatmapRate)
	recOn := t.deps.Sampler.Enroll(t.opts.RecordingRate)
	t.status.Heatmap, t.status.Recording = heatOn, recOn
	if !heatOn && !recOn {
		t.status.State = StateNotEnrolled
		log.Debug().Msg("session not enrolled in capture")
		return
	}

	visitor := capture.VisitorID(ctx, t.deps.Store)
	pageURL := ""
	var md probe.Metadata
	if t.deps.Window != nil {
		pageURL = t.deps.Window.URL()
		md = probe.Collect(t.deps.Window)
	}

	if heatOn {
		c, err := heatmap.New(ctx, t.opts.Heatmap, heatmap.Deps{
			Clock: t.deps.Clock, Window: t.deps.Window, Analytics: t.deps.Analytics,
		}, sessionID, pageURL)
		if err != nil {
			log.Warn().Err(err).Msg("heatmap disabled")
		} else {
			t.heat = c
		}
	}
	if recOn {
		deps := recording.Deps{
			Clock: t.deps.Clock, Store: t.deps.Store, Window: t.deps.Window, Sink: t.deps.Summaries,
		}
		if t.heat != nil {
			deps.Samples = t.heat
		}
		r, err := recording.New(ctx, t.opts.Recording, deps)
		if err != nil {
			log.Warn().Err(err).Msg("recording disabled")
		} else {
			t.recorder = r
		}
	}
	if t.heat == nil && t.recorder == nil {
		t.status.State = StateNotEnrolled
		return
	}

	if t.heat != nil {
		t.heat.Start()
	}
	if t.recorder != nil {
		t.recorder.Start(recording.StartContext{
			SessionID: sessionID, VisitorID: visitor, PageURL: pageURL, Metadata: md,
		})
	}
	if t.deps.Source != nil {
		t.detach = t.deps.Source.Subscribe(t.dispatch)
	}
	t.status.State = StateRunning
	t.status.SessionID, t.status.VisitorID = sessionID, visitor
	log.Info().Bool("heatmap", t.heat != nil).Bool("recording", t.recorder != nil).Msg("capture started")
}

func (t *Tracker) dispatch(e capture.Event) {
	if e.Type == capture.EventUnload {
		t.Stop()
		return
	}
	t.mu.Lock()
	heat, rec := t.heat, t.recorder
	running := t.status.State == StateRunning
	t.mu.Unlock()
	if !running {
		return
	}
	if heat != nil {
		heat.Handle(e)
	}
	if rec != nil {
		rec.Handle(e)
	}
}

// Stop detaches listeners, cancels timers, seals the recording and flushes
// heatmap samples. Safe to call more than once
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.status.State == StateStopped {
		t.mu.Unlock()
		return
	}
	t.status.State = StateStopped
	detach, heat, rec := t.detach, t.heat, t.recorder
	t.detach = nil
	t.mu.Unlock()

	t.gate.Stop()
	if detach != nil {
		detach()
	}
	if heat != nil {
		heat.Stop()
	}
	if rec != nil {
		rec.Stop()
	}
	if heat != nil && t.deps.Samples != nil {
		if samples := heat.Samples(); len(samples) > 0 {
			if err := t.deps.Samples.Samples(t.ctx, samples); err != nil {
				logger.C(t.ctx).Warn().Err(err).Int("samples", len(samples)).Msg("heatmap flush failed")
			}
		}
	}
}

// Package http provides meta endpoints: liveness, readiness, build info,
// client capture configuration and visitor consent
package http

import (
	"context"
	stdhttp "net/http"
	"strings"
	"time"

	"leadfunnel/internal/core/consent"
	"leadfunnel/internal/core/tracker"
	"leadfunnel/internal/core/version"
	"leadfunnel/internal/modkit/httpkit"
	perr "leadfunnel/internal/platform/errors"
	pnet "leadfunnel/internal/platform/net"
	"leadfunnel/internal/platform/store"
)

// Pinger is satisfied by stores that can health check
type Pinger interface {
	Ping(context.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	KV          store.KV
	Capture     tracker.Options
	Now         func() time.Time
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handlers{deps: d}
	r.Get("/health", httpkit.Call(h.health))
	r.Get("/ready", httpkit.Call(h.ready))
	r.Get("/version", httpkit.Call(h.version))
	r.Get("/capture", httpkit.Call(h.capture))
	r.Get("/consent", httpkit.Call(h.consent))
	r.Post("/consent", httpkit.JSON(h.grant))
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok" example:"true"`
	Service string `json:"service" example:"leadfunnel-api"`
	Started string `json:"started" example:"2026-03-02T10:00:00Z"`
	Uptime  int64  `json:"uptime_s" example:"300"`
}

// ReadyCheck is one dependency check
type ReadyCheck struct {
	Name   string `json:"name" example:"pg"`
	Status string `json:"status" example:"ok"` // ok fail skipped unknown
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// CaptureConfig is what the browser tracker needs; durations are milliseconds
type CaptureConfig struct {
	HeatmapRate         float64 `json:"heatmap_rate" example:"0.3"`
	RecordingRate       float64 `json:"recording_rate" example:"0.1"`
	ConsentPollMs       int64   `json:"consent_poll_ms" example:"1000"`
	ConsentTimeoutMs    int64   `json:"consent_timeout_ms" example:"30000"`
	MaxSamples          int     `json:"max_samples" example:"5000"`
	MoveDebounceMs      int64   `json:"move_debounce_ms" example:"100"`
	ScrollDebounceMs    int64   `json:"scroll_debounce_ms" example:"100"`
	HoverDwellMs        int64   `json:"hover_dwell_ms" example:"1000"`
	SignificantSelector string  `json:"significant_selector"`
	MaxRecordingMs      int64   `json:"max_recording_ms" example:"1800000"`
	CaptureInputs       bool    `json:"capture_inputs"`
	CaptureKeystrokes   bool    `json:"capture_keystrokes"`
	ExcludeSelector     string  `json:"exclude_selector"`
	SessionHistoryLimit int     `json:"session_history_limit" example:"10"`
	SummaryEndpoint     string  `json:"summary_endpoint" example:"/api/v1/sessions/summaries"`
	SamplesEndpoint     string  `json:"samples_endpoint" example:"/api/v1/sessions/samples"`
}

// ConsentInput stores a visitor's cookie preference
type ConsentInput struct {
	VisitorID string `json:"visitor_id" validate:"required,max=64" example:"0b7c5d8e-4a51-4c8e-9f4e-6f1f2b8d9a10"`
	Analytics bool   `json:"analytics"`
	Marketing bool   `json:"marketing"`
}

// ConsentResponse is a visitor's stored preference
type ConsentResponse struct {
	VisitorID string `json:"visitor_id"`
	Analytics bool   `json:"analytics"`
}

// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h *handlers) health(_ *stdhttp.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.deps.Now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

// @Summary Readiness probe with dependency checks
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *stdhttp.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	check := func(name string, c any) ReadyCheck {
		if c == nil {
			return ReadyCheck{Name: name, Status: "skipped"}
		}
		p, ok := c.(Pinger)
		if !ok {
			return ReadyCheck{Name: name, Status: "unknown"}
		}
		if err := p.Ping(ctx); err != nil {
			return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
		}
		return ReadyCheck{Name: name, Status: "ok"}
	}

	var kv any
	if h.deps.KV != nil {
		kv = h.deps.KV
	}
	checks := []ReadyCheck{check("pg", h.deps.PG), check("ch", h.deps.CH), check("redis", kv)}
	overall := "ok"
	for _, c := range checks {
		switch c.Status {
		case "fail":
			overall = "fail"
		case "ok":
		default:
			if overall == "ok" {
				overall = "degraded"
			}
		}
	}
	resp := ReadyResponse{Status: overall, Checks: checks, Now: h.deps.Now().UTC().Format(time.RFC3339)}
	if overall == "fail" {
		return httpkit.Response{Status: stdhttp.StatusServiceUnavailable, Body: resp}, nil
	}
	return resp, nil
}

// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(_ *stdhttp.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}

// @Summary Client capture configuration
// @Tags Meta
// @Produce json
// @Success 200 {object} CaptureConfig
// @Router /meta/capture [get]
func (h *handlers) capture(_ *stdhttp.Request) (any, error) {
	return CaptureConfigFrom(h.deps.Capture), nil
}

// CaptureConfigFrom flattens tracker options with their defaults applied
func CaptureConfigFrom(o tracker.Options) CaptureConfig {
	o = o.WithDefaults()
	ms := func(d time.Duration) int64 { return d.Milliseconds() }
	return CaptureConfig{
		HeatmapRate:         o.HeatmapRate,
		RecordingRate:       o.RecordingRate,
		ConsentPollMs:       ms(o.Consent.PollInterval),
		ConsentTimeoutMs:    ms(o.Consent.Timeout),
		MaxSamples:          o.Heatmap.MaxSamples,
		MoveDebounceMs:      ms(o.Heatmap.MoveDebounce),
		ScrollDebounceMs:    ms(o.Heatmap.ScrollDebounce),
		HoverDwellMs:        ms(o.Heatmap.HoverDwell),
		SignificantSelector: o.Heatmap.SignificantSelector,
		MaxRecordingMs:      ms(o.Recording.MaxDuration),
		CaptureInputs:       o.Recording.CaptureInputs,
		CaptureKeystrokes:   o.Recording.CaptureKeystrokes,
		ExcludeSelector:     o.Recording.ExcludeSelector,
		SessionHistoryLimit: o.Recording.HistoryLimit,
		SummaryEndpoint:     httpkit.APIV1 + "/sessions/summaries",
		SamplesEndpoint:     httpkit.APIV1 + "/sessions/samples",
	}
}

// @Summary Stored consent for the calling visitor
// @Tags Meta
// @Produce json
// @Param X-Visitor-ID header string true "Anonymous visitor id"
// @Success 200 {object} ConsentResponse
// @Router /meta/consent [get]
func (h *handlers) consent(r *stdhttp.Request) (any, error) {
	id := pnet.VisitorID(r.Context())
	if id == "" {
		return nil, perr.WithField(perr.InvalidArgf("missing %s header", pnet.VisitorHeader), "visitor_id")
	}
	ok, err := consent.Granted(r.Context(), h.visitorStore(id))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "read consent")
	}
	return ConsentResponse{VisitorID: id, Analytics: ok}, nil
}

// @Summary Store consent for a visitor
// @Tags Meta
// @Accept json
// @Produce json
// @Param payload body ConsentInput true "Preference"
// @Success 200 {object} ConsentResponse
// @Router /meta/consent [post]
func (h *handlers) grant(r *stdhttp.Request, in ConsentInput) (any, error) {
	id := strings.TrimSpace(in.VisitorID)
	if id == "" {
		return nil, perr.WithField(perr.InvalidArgf("visitor_id is blank"), "visitor_id")
	}
	p := consent.Preferences{
		Necessary: true,
		Analytics: in.Analytics,
		Marketing: in.Marketing,
		UpdatedAt: h.deps.Now().UTC(),
	}
	if err := consent.Grant(r.Context(), h.visitorStore(id), p); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "store consent")
	}
	return ConsentResponse{VisitorID: id, Analytics: in.Analytics}, nil
}

func (h *handlers) visitorStore(id string) store.KV {
	return store.Namespace(h.deps.KV, "visitor:"+id+":")
}

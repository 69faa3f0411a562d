// Package service ingests sealed summaries and heatmap samples and serves
// page heatmaps aggregated from storage
package service

import (
	"context"
	"encoding/json"
	"time"

	"leadfunnel/internal/core/heatmap"
	"leadfunnel/internal/core/normalize"
	"leadfunnel/internal/modkit/repokit"
	perr "leadfunnel/internal/platform/errors"
	"leadfunnel/internal/platform/logger"
	"leadfunnel/internal/services/api/sessions/domain"
	"leadfunnel/internal/services/api/sessions/repo"
)

const (
	// DefaultWindow is the heatmap window when since is zero
	DefaultWindow = 7 * 24 * time.Hour
	// MaxWindow bounds one heatmap query
	MaxWindow = 90 * 24 * time.Hour
)

// Service is the sessions service contract
type Service interface{ domain.ServicePort }

// Svc implements Service
type Svc struct {
	db        repokit.TxRunner
	summaries repokit.Binder[repo.Summaries]
	samples   repo.Samples
	history   *repo.History
	now       func() time.Time
}

// New wires the service; db and summaries are required
func New(db repokit.TxRunner, summaries repokit.Binder[repo.Summaries], samples repo.Samples, history *repo.History) *Svc {
	if db == nil {
		panic("sessions.Service requires a non nil TxRunner")
	}
	if summaries == nil || samples == nil {
		panic("sessions.Service requires summary and sample stores")
	}
	return &Svc{db: db, summaries: summaries, samples: samples, history: history, now: time.Now}
}

// EnsureSchema creates the postgres table and, when ClickHouse is enabled, the sample table
func (s *Svc) EnsureSchema(ctx context.Context) error {
	if err := s.summaries.Bind(s.db).EnsureSchema(ctx); err != nil {
		return err
	}
	if err := s.samples.EnsureSchema(ctx); err != nil && !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		return err
	}
	return nil
}

// History exposes the visitor history port
func (s *Svc) History() domain.HistoryPort { return s.history }

// StoreSummary stores a summary once per session id and records the session
// in the visitor's history
func (s *Svc) StoreSummary(ctx context.Context, in domain.SummaryInput, visitorID string) (domain.SummaryAck, error) {
	if in.SessionID == "" {
		return domain.SummaryAck{}, perr.WithField(perr.InvalidArgf("session_id is required"), "session_id")
	}
	if in.DurationMs < 0 || in.EventCount < 0 || in.HeatmapSampleCount < 0 {
		return domain.SummaryAck{}, perr.InvalidArgf("negative counters")
	}
	if in.EndedAt.Before(in.StartedAt) {
		return domain.SummaryAck{}, perr.WithField(perr.InvalidArgf("ended_at precedes started_at"), "ended_at")
	}
	if in.VisitorID == "" {
		in.VisitorID = visitorID
	}

	top, err := json.Marshal(in.TopElements)
	if err != nil {
		return domain.SummaryAck{}, perr.Wrap(err, perr.ErrorCodeJSON, "encode top elements")
	}
	meta, err := json.Marshal(in.Metadata)
	if err != nil {
		return domain.SummaryAck{}, perr.Wrap(err, perr.ErrorCodeJSON, "encode metadata")
	}
	row := repo.SummaryRow{
		SessionID:          normalize.Truncate(in.SessionID, 64),
		VisitorID:          normalize.Truncate(in.VisitorID, 64),
		PageURL:            normalize.Truncate(in.PageURL, 2048),
		StartedAt:          in.StartedAt.UTC(),
		EndedAt:            in.EndedAt.UTC(),
		DurationMs:         in.DurationMs,
		EventCount:         in.EventCount,
		HeatmapSampleCount: in.HeatmapSampleCount,
		ScrollDepthPct:     min(max(in.ScrollDepthPct, 0), 100),
		TopElements:        top,
		Metadata:           meta,
	}

	var stored bool
	err = repokit.WithTx(ctx, s.db, s.summaries, func(r repo.Summaries) error {
		var err error
		stored, err = r.Upsert(ctx, row)
		return err
	})
	if err != nil {
		return domain.SummaryAck{}, perr.WithOp(err, "sessions.StoreSummary")
	}

	if stored {
		if err := s.history.Push(ctx, row.VisitorID, row.SessionID); err != nil {
			logger.C(ctx).Warn().Err(err).Msg("visitor history push failed")
		}
	}
	logger.C(ctx).Debug().
		Str("session_id", row.SessionID).
		Bool("stored", stored).
		Int("events", row.EventCount).
		Msg("session summary")
	return domain.SummaryAck{SessionID: row.SessionID, Stored: stored}, nil
}

// StoreSamples appends a batch of at most MaxSamplesPerBatch samples
func (s *Svc) StoreSamples(ctx context.Context, in domain.SamplesInput, visitorID string) (domain.SamplesAck, error) {
	if len(in.Samples) > domain.MaxSamplesPerBatch {
		return domain.SamplesAck{}, perr.TooLargef("batch of %d samples exceeds %d", len(in.Samples), domain.MaxSamplesPerBatch)
	}
	now := s.now().UTC()
	rows := make([]repo.SampleRow, 0, len(in.Samples))
	for i, sm := range in.Samples {
		if !validKind(sm.Kind) {
			return domain.SamplesAck{}, perr.WithField(perr.InvalidArgf("samples[%d]: unknown kind %q", i, sm.Kind), "kind")
		}
		if sm.SessionID == "" || sm.PageURL == "" {
			return domain.SamplesAck{}, perr.InvalidArgf("samples[%d]: session_id and page_url are required", i)
		}
		at := sm.At.UTC()
		if sm.At.IsZero() {
			at = now
		}
		rows = append(rows, repo.SampleRow{
			SessionID:  normalize.Truncate(sm.SessionID, 64),
			VisitorID:  normalize.Truncate(visitorID, 64),
			PageURL:    normalize.Truncate(sm.PageURL, 2048),
			Kind:       string(sm.Kind),
			X:          int32(sm.X),
			Y:          int32(sm.Y),
			ScrollY:    int32(sm.ScrollY),
			Selector:   normalize.Truncate(sm.Selector, 512),
			Tag:        normalize.Truncate(sm.Tag, 32),
			Text:       normalize.Truncate(sm.Text, 50),
			DwellMs:    sm.DwellMs,
			ViewportW:  int32(sm.ViewportW),
			ViewportH:  int32(sm.ViewportH),
			At:         at,
			ReceivedAt: now,
		})
	}
	if err := s.samples.Insert(ctx, rows); err != nil {
		return domain.SamplesAck{}, perr.WithOp(err, "sessions.StoreSamples")
	}
	return domain.SamplesAck{Accepted: len(rows)}, nil
}

// Heatmap aggregates stored samples for a page over a window
func (s *Svc) Heatmap(ctx context.Context, in domain.HeatmapInput) (domain.HeatmapOutput, error) {
	until := in.Until
	if until.IsZero() {
		until = s.now()
	}
	since := in.Since
	if since.IsZero() {
		since = until.Add(-DefaultWindow)
	}
	if !since.Before(until) {
		return domain.HeatmapOutput{}, perr.WithField(perr.InvalidArgf("since must precede until"), "since")
	}
	if until.Sub(since) > MaxWindow {
		return domain.HeatmapOutput{}, perr.WithField(perr.InvalidArgf("window exceeds %s", MaxWindow), "since")
	}
	kinds := make([]string, 0, len(in.Kinds))
	for _, k := range in.Kinds {
		if !validKind(k) {
			return domain.HeatmapOutput{}, perr.WithField(perr.InvalidArgf("unknown kind %q", k), "kinds")
		}
		kinds = append(kinds, string(k))
	}

	samples, err := s.samples.Range(ctx, in.PageURL, since.UTC(), until.UTC(), kinds)
	if err != nil {
		return domain.HeatmapOutput{}, perr.WithOp(err, "sessions.Heatmap")
	}
	exp := heatmap.Aggregate(samples, heatmap.ExportOptions{Grid: in.Grid, TopN: in.Top, Kinds: in.Kinds})
	return domain.HeatmapOutput{PageURL: in.PageURL, Since: since.UTC(), Until: until.UTC(), Export: exp}, nil
}

func validKind(k heatmap.Kind) bool {
	switch k {
	case heatmap.KindClick, heatmap.KindMove, heatmap.KindScroll, heatmap.KindHover:
		return true
	}
	return false
}

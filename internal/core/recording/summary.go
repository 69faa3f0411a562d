package recording

import (
	"cmp"
	"context"
	"slices"
	"time"

	"leadfunnel/internal/core/capture"
	"leadfunnel/internal/core/heatmap"
	"leadfunnel/internal/core/probe"
	"leadfunnel/internal/platform/logger"
)

// topElementsLimit bounds Summary.TopElements
const topElementsLimit = 5

// Summary is the sealed, shippable view of a session
type Summary struct {
	SessionID          string               `json:"session_id"`
	VisitorID          string               `json:"anonymous_user_id"`
	PageURL            string               `json:"page_url"`
	StartedAt          time.Time            `json:"started_at"`
	EndedAt            time.Time            `json:"ended_at"`
	DurationMs         int64                `json:"duration_ms"`
	EventCount         int                  `json:"event_count"`
	HeatmapSampleCount int                  `json:"heatmap_sample_count"`
	TopElements        []heatmap.TopElement `json:"top_elements"`
	ScrollDepthPct     int                  `json:"scroll_depth_pct"`
	Metadata           probe.Metadata       `json:"metadata"`
}

// HistoryEntry is the local diagnostic record of a past session
type HistoryEntry struct {
	SessionID          string    `json:"session_id"`
	At                 time.Time `json:"at"`
	EventCount         int       `json:"event_count"`
	HeatmapSampleCount int       `json:"heatmap_sample_count"`
	DurationMs         int64     `json:"duration_ms"`
}

func (r *Recorder) summarizeLocked(rec Recording) Summary {
	s := Summary{
		SessionID:  rec.SessionID,
		VisitorID:  rec.VisitorID,
		PageURL:    rec.PageURL,
		StartedAt:  rec.StartedAt,
		EndedAt:    rec.EndedAt,
		DurationMs: rec.EndedAt.Sub(rec.StartedAt).Milliseconds(),
		EventCount: len(rec.Events),
		Metadata:   rec.Metadata,
	}
	if r.deps.Samples != nil {
		s.HeatmapSampleCount = r.deps.Samples.CountForSession(rec.SessionID)
	}
	s.TopElements = topElements(rec.Events, topElementsLimit)
	if r.deps.Window != nil {
		if doc := r.deps.Window.DocumentHeight(); doc > 0 {
			s.ScrollDepthPct = min(100, r.maxView*100/doc)
		}
	}
	return s
}

func topElements(events []Event, n int) []heatmap.TopElement {
	idx := map[string]int{}
	out := []heatmap.TopElement{}
	for _, e := range events {
		if e.Type != capture.EventClick || e.Element == nil || e.Element.Selector == "" {
			continue
		}
		i, ok := idx[e.Element.Selector]
		if !ok {
			i = len(out)
			idx[e.Element.Selector] = i
			out = append(out, heatmap.TopElement{Selector: e.Element.Selector, Tag: e.Element.Tag, Text: e.Element.Text})
		}
		out[i].Clicks++
	}
	slices.SortStableFunc(out, func(a, b heatmap.TopElement) int { return cmp.Compare(b.Clicks, a.Clicks) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// persist writes the summary and history and hands the summary to the sink.
// Failures are logged only
func (r *Recorder) persist(s Summary) {
	ctx := logger.WithSession(r.ctx, s.SessionID)
	log := logger.C(ctx)

	if st := r.deps.Store; st != nil {
		if err := capture.SetJSON(ctx, st, capture.KeySummaryPrefix+s.SessionID, s); err != nil {
			log.Warn().Err(err).Msg("session summary not persisted")
		}
		if err := AppendHistory(ctx, st, HistoryEntry{
			SessionID:          s.SessionID,
			At:                 s.EndedAt,
			EventCount:         s.EventCount,
			HeatmapSampleCount: s.HeatmapSampleCount,
			DurationMs:         s.DurationMs,
		}, r.cfg.HistoryLimit); err != nil {
			log.Warn().Err(err).Msg("session history not updated")
		}
	}
	if r.deps.Sink != nil {
		if err := r.deps.Sink.Summarize(ctx, s); err != nil {
			log.Warn().Err(err).Msg("session summary not delivered")
		}
	}
	log.Info().Int("events", s.EventCount).Int64("duration_ms", s.DurationMs).Msg("session sealed")
}

// History reads the stored history, oldest first. Unreadable history is empty
func History(ctx context.Context, st capture.Store) ([]HistoryEntry, error) {
	var h []HistoryEntry
	if _, err := capture.GetJSON(ctx, st, capture.KeySessionHistory, &h); err != nil {
		return nil, err
	}
	return h, nil
}

// AppendHistory adds e and keeps the newest limit entries
func AppendHistory(ctx context.Context, st capture.Store, e HistoryEntry, limit int) error {
	h, err := History(ctx, st)
	if err != nil {
		logger.C(ctx).Debug().Err(err).Msg("session history reset")
		h = nil
	}
	h = append(h, e)
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return capture.SetJSON(ctx, st, capture.KeySessionHistory, h)
}

// LoadSummary reads a persisted summary
func LoadSummary(ctx context.Context, st capture.Store, sessionID string) (Summary, bool, error) {
	var s Summary
	ok, err := capture.GetJSON(ctx, st, capture.KeySummaryPrefix+sessionID, &s)
	return s, ok, err
}

// Package repo stores session summaries in postgres, heatmap samples in
// ClickHouse and visitor session history in the key/value store
package repo

import (
	"context"
	"time"

	"leadfunnel/internal/modkit/repokit"
	perr "leadfunnel/internal/platform/errors"
)

// Summaries is the postgres summary store
type Summaries interface {
	EnsureSchema(ctx context.Context) error
	// Upsert inserts once per session id; stored is false for a replay
	Upsert(ctx context.Context, row SummaryRow) (stored bool, err error)
}

// SummaryRow is one session_summaries row; TopElements and Metadata are jsonb
type SummaryRow struct {
	SessionID          string
	VisitorID          string
	PageURL            string
	StartedAt          time.Time
	EndedAt            time.Time
	DurationMs         int64
	EventCount         int
	HeatmapSampleCount int
	ScrollDepthPct     int
	TopElements        []byte
	Metadata           []byte
}

// SummariesSchema creates the session_summaries table
const SummariesSchema = `
create table if not exists session_summaries (
	session_id           text primary key,
	visitor_id           text not null default '',
	page_url             text not null default '',
	started_at           timestamptz not null,
	ended_at             timestamptz not null,
	duration_ms          bigint not null,
	event_count          int not null,
	heatmap_sample_count int not null,
	scroll_depth_pct     int not null,
	top_elements         jsonb not null default '[]',
	metadata             jsonb not null default '{}',
	received_at          timestamptz not null default now()
);
create index if not exists session_summaries_visitor_idx on session_summaries (visitor_id, started_at desc);
`

type (
	// PG binds Summaries to postgres
	PG struct{}

	summaries struct{ q repokit.Queryer }
)

// NewPG returns the postgres binder
func NewPG() repokit.Binder[Summaries] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) Summaries { return &summaries{q: q} }

func (r *summaries) EnsureSchema(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, SummariesSchema); err != nil {
		return perr.FromPostgres(err, "ensure session_summaries schema")
	}
	return nil
}

func (r *summaries) Upsert(ctx context.Context, row SummaryRow) (bool, error) {
	const sql = `
insert into session_summaries (
	session_id, visitor_id, page_url, started_at, ended_at, duration_ms,
	event_count, heatmap_sample_count, scroll_depth_pct, top_elements, metadata
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
on conflict (session_id) do nothing
`
	tag, err := r.q.Exec(ctx, sql,
		row.SessionID, row.VisitorID, row.PageURL, row.StartedAt, row.EndedAt, row.DurationMs,
		row.EventCount, row.HeatmapSampleCount, row.ScrollDepthPct, row.TopElements, row.Metadata,
	)
	if err != nil {
		return false, perr.FromPostgres(err, "upsert session summary")
	}
	return tag.RowsAffected() == 1, nil
}

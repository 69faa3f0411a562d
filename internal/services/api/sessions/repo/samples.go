package repo

import (
	"context"
	"fmt"
	"time"

	"leadfunnel/internal/core/heatmap"
	perr "leadfunnel/internal/platform/errors"
	"leadfunnel/internal/platform/store"
)

// SampleTable is the ClickHouse table heatmap samples land in
const SampleTable = "heatmap_samples"

// MaxQueryRows bounds one heatmap aggregation read
const MaxQueryRows = 200_000

// SamplesSchema creates the ClickHouse sample table
const SamplesSchema = `
CREATE TABLE IF NOT EXISTS heatmap_samples (
	session_id  String,
	visitor_id  String,
	page_url    String,
	kind        LowCardinality(String),
	x           Int32,
	y           Int32,
	scroll_y    Int32,
	selector    String,
	tag         LowCardinality(String),
	text        String,
	dwell_ms    Int64,
	viewport_w  Int32,
	viewport_h  Int32,
	at          DateTime64(3, 'UTC'),
	received_at DateTime64(3, 'UTC')
)
ENGINE = MergeTree
PARTITION BY toYYYYMM(at)
ORDER BY (page_url, at, session_id)
TTL toDateTime(at) + INTERVAL 180 DAY
`

// SampleRow is one heatmap_samples row
type SampleRow struct {
	SessionID  string    `ch:"session_id"`
	VisitorID  string    `ch:"visitor_id"`
	PageURL    string    `ch:"page_url"`
	Kind       string    `ch:"kind"`
	X          int32     `ch:"x"`
	Y          int32     `ch:"y"`
	ScrollY    int32     `ch:"scroll_y"`
	Selector   string    `ch:"selector"`
	Tag        string    `ch:"tag"`
	Text       string    `ch:"text"`
	DwellMs    int64     `ch:"dwell_ms"`
	ViewportW  int32     `ch:"viewport_w"`
	ViewportH  int32     `ch:"viewport_h"`
	At         time.Time `ch:"at"`
	ReceivedAt time.Time `ch:"received_at"`
}

// Samples is the ClickHouse sample store
type Samples interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, rows []SampleRow) error
	Range(ctx context.Context, pageURL string, since, until time.Time, kinds []string) ([]heatmap.Sample, error)
}

// NewCH wraps a ClickHouse client; a nil client reports unavailable
func NewCH(ch store.Clickhouse) Samples { return &chSamples{ch: ch} }

type chSamples struct{ ch store.Clickhouse }

func (r *chSamples) ready() error {
	if r.ch == nil {
		return perr.Unavailablef("clickhouse is disabled")
	}
	return nil
}

func (r *chSamples) EnsureSchema(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}
	if err := r.ch.Exec(ctx, SamplesSchema); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "ensure heatmap_samples schema")
	}
	return nil
}

func (r *chSamples) Insert(ctx context.Context, rows []SampleRow) error {
	if err := r.ready(); err != nil {
		return err
	}
	if err := r.ch.Insert(ctx, SampleTable, rows); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "insert heatmap samples")
	}
	return nil
}

func (r *chSamples) Range(ctx context.Context, pageURL string, since, until time.Time, kinds []string) ([]heatmap.Sample, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	where := "page_url = ? AND at >= ? AND at < ?"
	args := []any{pageURL, since, until}
	if len(kinds) > 0 {
		where += " AND kind IN ?"
		args = append(args, kinds)
	}
	sql := fmt.Sprintf(`
SELECT session_id, kind, x, y, scroll_y, selector, tag, text, dwell_ms, viewport_w, viewport_h, at
FROM %s
WHERE %s
ORDER BY at
LIMIT %d`, SampleTable, where, MaxQueryRows)

	rows, err := r.ch.Query(ctx, sql, args...)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "query heatmap samples")
	}
	defer rows.Close()

	var out []heatmap.Sample
	for rows.Next() {
		var (
			kind             string
			x, y, sy, vw, vh int32
			s                heatmap.Sample
		)
		if err := rows.Scan(&s.SessionID, &kind, &x, &y, &sy, &s.Selector, &s.Tag, &s.Text,
			&s.DwellMs, &vw, &vh, &s.At); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "scan heatmap sample")
		}
		s.Kind = heatmap.Kind(kind)
		s.X, s.Y, s.ScrollY = int(x), int(y), int(sy)
		s.ViewportW, s.ViewportH = int(vw), int(vh)
		s.PageURL = pageURL
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "read heatmap samples")
	}
	return out, nil
}

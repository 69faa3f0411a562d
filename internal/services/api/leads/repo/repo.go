// Package repo provides postgres access for leads
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"leadfunnel/internal/modkit/repokit"
	perr "leadfunnel/internal/platform/errors"
)

// Repo is the leads storage contract
type Repo interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, row Row) error
	Get(ctx context.Context, id string) (Row, error)
}

// Row is one leads table row; Breakdown is the jsonb score breakdown
type Row struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	Company    string
	Website    string
	Phone      string
	Service    string
	Message    string
	Source     string
	UserAgent  string
	Referrer   string
	VisitorID  string
	SessionIDs []string
	Total      int
	Priority   string
	Industry   string
	Tags       []string
	Breakdown  []byte
	CreatedAt  time.Time
}

// Schema creates the leads table
const Schema = `
create table if not exists leads (
	id          uuid primary key,
	first_name  text not null default '',
	last_name   text not null default '',
	email       text not null,
	company     text not null default '',
	website     text not null default '',
	phone       text not null default '',
	service     text not null default '',
	message     text not null default '',
	source      text not null default '',
	user_agent  text not null default '',
	referrer    text not null default '',
	visitor_id  text not null default '',
	session_ids text[] not null default '{}',
	score_total int not null,
	priority    text not null,
	industry    text not null default '',
	tags        text[] not null default '{}',
	breakdown   jsonb not null,
	created_at  timestamptz not null default now()
);
create index if not exists leads_priority_created_idx on leads (priority, created_at desc);
create index if not exists leads_email_idx on leads (lower(email));
`

type (
	// PG binds the repo to postgres
	PG struct{}

	queries struct{ q repokit.Queryer }
)

// NewPG returns the postgres binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) EnsureSchema(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, Schema); err != nil {
		return perr.FromPostgres(err, "ensure leads schema")
	}
	return nil
}

func (r *queries) Insert(ctx context.Context, row Row) error {
	const sql = `
insert into leads (
	id, first_name, last_name, email, company, website, phone, service, message, source,
	user_agent, referrer, visitor_id, session_ids, score_total, priority, industry, tags, breakdown, created_at
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
`
	_, err := r.q.Exec(ctx, sql,
		row.ID, row.FirstName, row.LastName, row.Email, row.Company, row.Website, row.Phone,
		row.Service, row.Message, row.Source, row.UserAgent, row.Referrer, row.VisitorID,
		nonNil(row.SessionIDs), row.Total, row.Priority, row.Industry, nonNil(row.Tags),
		row.Breakdown, row.CreatedAt,
	)
	if err != nil {
		return perr.FromPostgres(err, "insert lead")
	}
	return nil
}

func (r *queries) Get(ctx context.Context, id string) (Row, error) {
	const sql = `
select id::text, first_name, last_name, email, company, website, phone, service, message, source,
	user_agent, referrer, visitor_id, session_ids, score_total, priority, industry, tags, breakdown, created_at
from leads
where id = $1
`
	var row Row
	err := r.q.QueryRow(ctx, sql, id).Scan(
		&row.ID, &row.FirstName, &row.LastName, &row.Email, &row.Company, &row.Website, &row.Phone,
		&row.Service, &row.Message, &row.Source, &row.UserAgent, &row.Referrer, &row.VisitorID,
		&row.SessionIDs, &row.Total, &row.Priority, &row.Industry, &row.Tags, &row.Breakdown,
		&row.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, perr.NotFoundf("lead %s not found", id)
	}
	if err != nil {
		return Row{}, perr.FromPostgres(err, "get lead")
	}
	return row, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

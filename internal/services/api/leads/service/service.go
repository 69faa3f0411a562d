// Package service contains the lead workflows: score, sanitize, store, look up
package service

import (
	"context"
	"encoding/json"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"leadfunnel/internal/core/leadscore"
	"leadfunnel/internal/core/normalize"
	"leadfunnel/internal/modkit/repokit"
	perr "leadfunnel/internal/platform/errors"
	"leadfunnel/internal/platform/logger"
	"leadfunnel/internal/services/api/leads/domain"
	"leadfunnel/internal/services/api/leads/repo"
)

// HistoryDepth is how many recent sessions are attached to a new lead
const HistoryDepth = 5

// Service is the leads service contract
type Service interface{ domain.ServicePort }

// Svc implements Service
type Svc struct {
	db      repokit.TxRunner
	binder  repokit.Binder[repo.Repo]
	scorer  *leadscore.Scorer
	history domain.SessionHistory
	policy  *bluemonday.Policy
	now     func() time.Time
}

// Option customizes Svc
type Option func(*Svc)

// WithScorer replaces the embedded rule set
func WithScorer(s *leadscore.Scorer) Option { return func(v *Svc) { v.scorer = s } }

// WithHistory attaches recent visitor sessions to created leads
func WithHistory(h domain.SessionHistory) Option { return func(v *Svc) { v.history = h } }

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option { return func(v *Svc) { v.now = now } }

// New builds the service; db and binder are required
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], opts ...Option) *Svc {
	if db == nil {
		panic("leads.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("leads.Service requires a non nil Repo binder")
	}
	s := &Svc{
		db:     db,
		binder: binder,
		scorer: leadscore.Default(),
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// EnsureSchema creates the leads table
func (s *Svc) EnsureSchema(ctx context.Context) error {
	return s.binder.Bind(s.db).EnsureSchema(ctx)
}

// Score is pure; nothing is stored
func (s *Svc) Score(_ context.Context, in domain.LeadInput) domain.ScoreOutput {
	return s.score(in.Submission(s.now()))
}

func (s *Svc) score(sub leadscore.Submission) domain.ScoreOutput {
	res := s.scorer.Score(sub)
	ind, _ := s.scorer.Industry(sub.Email, sub.Company)
	return domain.ScoreOutput{
		Total:     res.Total,
		Breakdown: res.Breakdown,
		Tags:      res.Tags,
		Priority:  res.Priority,
		Industry:  ind,
	}
}

// Create sanitizes free text, scores, and stores the lead
func (s *Svc) Create(ctx context.Context, in domain.LeadInput, meta domain.RequestMeta) (domain.CreateOutput, error) {
	in = s.clean(in)
	at := s.now().UTC()
	sub := in.Submission(at)
	sub.UserAgent, sub.Referrer = meta.UserAgent, meta.Referrer
	out := s.score(sub)

	bd, err := json.Marshal(out.Breakdown)
	if err != nil {
		return domain.CreateOutput{}, perr.Wrap(err, perr.ErrorCodeJSON, "encode breakdown")
	}
	row := repo.Row{
		ID:         uuid.NewString(),
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		Company:    in.Company,
		Website:    in.Website,
		Phone:      in.Phone,
		Service:    in.Service,
		Message:    in.Message,
		Source:     in.Source,
		UserAgent:  normalize.Truncate(meta.UserAgent, 512),
		Referrer:   normalize.Truncate(meta.Referrer, 2048),
		VisitorID:  meta.VisitorID,
		SessionIDs: s.sessions(ctx, meta.VisitorID),
		Total:      out.Total,
		Priority:   string(out.Priority),
		Industry:   out.Industry,
		Tags:       out.Tags,
		Breakdown:  bd,
		CreatedAt:  at,
	}

	err = repokit.WithTx(ctx, s.db, s.binder, func(r repo.Repo) error { return r.Insert(ctx, row) })
	if err != nil {
		return domain.CreateOutput{}, perr.WithOp(err, "leads.Create")
	}

	logger.C(ctx).Info().
		Str("lead_id", row.ID).
		Int("score", out.Total).
		Str("priority", string(out.Priority)).
		Int("sessions", len(row.SessionIDs)).
		Msg("lead stored")
	return domain.CreateOutput{ID: row.ID, Score: out}, nil
}

// Lookup returns a stored lead
func (s *Svc) Lookup(ctx context.Context, id string) (domain.Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Lead{}, perr.WithField(perr.InvalidArgf("invalid lead id"), "id")
	}
	row, err := s.binder.Bind(s.db).Get(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}
	var bd leadscore.Breakdown
	if len(row.Breakdown) > 0 {
		if err := json.Unmarshal(row.Breakdown, &bd); err != nil {
			return domain.Lead{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode breakdown")
		}
	}
	return domain.Lead{
		ID:         row.ID,
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		Email:      row.Email,
		Company:    row.Company,
		Website:    row.Website,
		Phone:      row.Phone,
		Service:    row.Service,
		Message:    row.Message,
		Source:     row.Source,
		UserAgent:  row.UserAgent,
		Referrer:   row.Referrer,
		VisitorID:  row.VisitorID,
		SessionIDs: row.SessionIDs,
		Score: domain.ScoreOutput{
			Total:     row.Total,
			Breakdown: bd,
			Tags:      row.Tags,
			Priority:  leadscore.Priority(row.Priority),
			Industry:  row.Industry,
		},
		CreatedAt: row.CreatedAt,
	}, nil
}

// clean strips markup from every free text field
func (s *Svc) clean(in domain.LeadInput) domain.LeadInput {
	strip := func(v string) string {
		return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
	}
	in.FirstName = strip(in.FirstName)
	in.LastName = strip(in.LastName)
	in.Company = strip(in.Company)
	in.Message = strip(in.Message)
	in.Email = strings.TrimSpace(in.Email)
	in.Website = strings.TrimSpace(in.Website)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Service = strings.TrimSpace(in.Service)
	in.Source = strings.TrimSpace(in.Source)
	return in
}

// sessions is best effort; history is correlation only
func (s *Svc) sessions(ctx context.Context, visitorID string) []string {
	if s.history == nil || visitorID == "" {
		return nil
	}
	ids, err := s.history.Recent(ctx, visitorID, HistoryDepth)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("visitor session history unavailable")
		return nil
	}
	return ids
}

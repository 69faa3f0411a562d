// Package leadscore turns a lead submission into a 0..100 score, a
// priority band and routing tags. Scoring is pure and total: missing
// fields contribute zero and nothing returns an error.
package leadscore

import (
	"strings"
	"time"
	"unicode/utf8"

	"leadfunnel/internal/core/normalize"
)

// MaxScore caps the total
const MaxScore = 100

// Priority is the routing band derived from the total
type Priority string

// Priority bands
const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Submission is an inbound lead
type Submission struct {
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	Email      string    `json:"email"`
	Company    string    `json:"company,omitempty"`
	Website    string    `json:"website,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Service    string    `json:"service,omitempty"`
	Message    string    `json:"message,omitempty"`
	Source     string    `json:"source,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Referrer   string    `json:"referrer,omitempty"`
}

// Breakdown splits the pre-cap total by contribution
type Breakdown struct {
	Source       int `json:"source"`
	Completeness int `json:"completeness"`
	Intent       int `json:"intent"`
	Engagement   int `json:"engagement"`
}

// Result is the scored lead
type Result struct {
	Total     int       `json:"total"`
	Breakdown Breakdown `json:"breakdown"`
	Tags      []string  `json:"tags"`
	Priority  Priority  `json:"priority"`
}

// EngagementFunc contributes on-site behaviour to a lead. Nil means zero
type EngagementFunc func(Submission) int

// Scorer applies a compiled rule table
type Scorer struct {
	// Engagement is not wired to session data yet; the breakdown keeps the slot
	Engagement EngagementFunc

	rules    *Rules
	intent   *matcher
	industry *matcher
}

// New compiles r into a Scorer
func New(r *Rules) *Scorer {
	return &Scorer{
		rules:    r,
		intent:   newMatcher(keywordGroups(r.Intent)),
		industry: newMatcher(keywordGroups(r.Industries)),
	}
}

func keywordGroups(sets []KeywordSet) [][]string {
	out := make([][]string, len(sets))
	for i, s := range sets {
		out[i] = make([]string, 0, len(s.Keywords))
		for _, k := range s.Keywords {
			if k = normalize.Fold(k); k != "" {
				out[i] = append(out[i], k)
			}
		}
	}
	return out
}

var defaultScorer = func() *Scorer {
	r, err := Load()
	if err != nil {
		panic(err)
	}
	return New(r)
}()

// Default returns the scorer built from the embedded rules
func Default() *Scorer { return defaultScorer }

// Score scores s with the embedded rules
func Score(s Submission) Result { return defaultScorer.Score(s) }

// PriorityFor maps a capped total to its band
func PriorityFor(total int) Priority {
	switch {
	case total >= 100:
		return PriorityUrgent
	case total >= 75:
		return PriorityHigh
	case total >= 50:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func present(s string) bool { return strings.TrimSpace(s) != "" }

// Score scores s
func (sc *Scorer) Score(s Submission) Result {
	var (
		bd   Breakdown
		tags []string
		r    = sc.rules
	)

	if src := strings.TrimSpace(s.Source); src != "" {
		bd.Source = r.Sources[strings.ToLower(src)]
		tags = append(tags, "source_"+src)
	}

	c := r.Completeness
	if present(s.FirstName) {
		bd.Completeness += c.FirstName
	}
	if present(s.LastName) {
		bd.Completeness += c.LastName
	}
	if present(s.Company) {
		bd.Completeness += c.Company
	}
	if present(s.Phone) {
		bd.Completeness += c.Phone
	}
	if utf8.RuneCountInString(strings.TrimSpace(s.Message)) > c.MessageMinRunes {
		bd.Completeness += c.Message
	}

	if msg := normalize.Fold(s.Message); msg != "" {
		for i, hit := range sc.intent.hits(msg) {
			if hit {
				bd.Intent += r.Intent[i].Bonus
				tags = append(tags, r.Intent[i].Tag)
			}
		}
	}

	if present(s.Website) {
		bd.Completeness += c.Website + c.WebsiteBonus
		tags = append(tags, "website_provided")
	}

	if svc := strings.TrimSpace(s.Service); svc != "" {
		bd.Intent += r.Services[strings.ToLower(svc)]
		tags = append(tags, "service_"+svc)
	}

	if ind, ok := sc.Industry(s.Email, s.Company); ok {
		tags = append(tags, "industry_"+ind)
	}

	if sc.Engagement != nil {
		bd.Engagement = max(0, sc.Engagement(s))
	}

	total := min(MaxScore, bd.Source+bd.Completeness+bd.Intent+bd.Engagement)
	p := PriorityFor(total)
	tags = append(tags, "priority_"+string(p))

	return Result{Total: total, Breakdown: bd, Tags: tags, Priority: p}
}

// Industry infers at most one industry from the email domain and company.
// Industries are checked in rule order; the domain and company are scanned
// separately so a match cannot straddle the two.
func (sc *Scorer) Industry(email, company string) (string, bool) {
	domain := ""
	if at := strings.LastIndexByte(email, '@'); at >= 0 {
		domain = normalize.Fold(email[at+1:])
	}
	comp := normalize.Fold(company)

	dh := sc.industry.hits(domain)
	ch := sc.industry.hits(comp)
	for i := range sc.rules.Industries {
		if dh[i] || ch[i] {
			return sc.rules.Industries[i].Name, true
		}
	}
	return "", false
}

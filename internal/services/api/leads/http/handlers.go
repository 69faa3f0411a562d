// Package http provides the leads transport
package http

import (
	stdhttp "net/http"

	"leadfunnel/internal/modkit/httpkit"
	pnet "leadfunnel/internal/platform/net"
	"leadfunnel/internal/services/api/leads/domain"
)

// Register mounts the leads routes
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	r.Post("/score", httpkit.JSON(h.score))
	r.Post("/", httpkit.JSON(h.create))
	r.Post("/lookup", httpkit.JSON(h.lookup))
}

type handlers struct{ svc domain.ServicePort }

// @Summary Score a lead without storing it
// @Tags Leads
// @Accept json
// @Produce json
// @Param payload body domain.LeadInput true "Submission"
// @Success 200 {object} domain.ScoreOutput
// @Router /leads/score [post]
func (h *handlers) score(r *stdhttp.Request, in domain.LeadInput) (any, error) {
	return h.svc.Score(r.Context(), in), nil
}

// @Summary Sanitize, score and store a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param payload body domain.LeadInput true "Submission"
// @Success 201 {object} domain.CreateOutput
// @Router /leads [post]
func (h *handlers) create(r *stdhttp.Request, in domain.LeadInput) (any, error) {
	out, err := h.svc.Create(r.Context(), in, domain.RequestMeta{
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		VisitorID: pnet.VisitorID(r.Context()),
	})
	if err != nil {
		return nil, err
	}
	return httpkit.Created(out), nil
}

// @Summary Fetch a stored lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param payload body domain.LookupInput true "Lead id"
// @Success 200 {object} domain.Lead
// @Router /leads/lookup [post]
func (h *handlers) lookup(r *stdhttp.Request, in domain.LookupInput) (any, error) {
	return h.svc.Lookup(r.Context(), in.ID)
}

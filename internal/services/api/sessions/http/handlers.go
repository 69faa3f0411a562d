// Package http provides the sessions ingest transport
package http

import (
	stdhttp "net/http"

	"leadfunnel/internal/modkit/httpkit"
	pnet "leadfunnel/internal/platform/net"
	"leadfunnel/internal/services/api/sessions/domain"
)

// samplesBodyLimit fits a full batch of samples with long selectors
const samplesBodyLimit = 4 << 20

// Register mounts the sessions routes
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	r.Post("/summaries", httpkit.JSON(h.summary))
	r.Post("/samples", httpkit.JSONLimit(samplesBodyLimit, h.samples))
	r.Post("/heatmap", httpkit.JSON(h.heatmap))
}

type handlers struct{ svc domain.ServicePort }

// @Summary Store a sealed session summary
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body recording.Summary true "Summary"
// @Success 202 {object} domain.SummaryAck
// @Router /sessions/summaries [post]
func (h *handlers) summary(r *stdhttp.Request, in domain.SummaryInput) (any, error) {
	ack, err := h.svc.StoreSummary(r.Context(), in, pnet.VisitorID(r.Context()))
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(ack), nil
}

// @Summary Append heatmap samples
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body domain.SamplesInput true "At most 5000 samples"
// @Success 202 {object} domain.SamplesAck
// @Router /sessions/samples [post]
func (h *handlers) samples(r *stdhttp.Request, in domain.SamplesInput) (any, error) {
	ack, err := h.svc.StoreSamples(r.Context(), in, pnet.VisitorID(r.Context()))
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(ack), nil
}

// @Summary Aggregate stored samples for a page
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body domain.HeatmapInput true "Page and window"
// @Success 200 {object} domain.HeatmapOutput
// @Router /sessions/heatmap [post]
func (h *handlers) heatmap(r *stdhttp.Request, in domain.HeatmapInput) (any, error) {
	return h.svc.Heatmap(r.Context(), in)
}

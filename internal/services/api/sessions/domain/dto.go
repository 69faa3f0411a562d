// Package domain holds the session ingest DTOs and ports
package domain

import (
	"time"

	"leadfunnel/internal/core/heatmap"
	"leadfunnel/internal/core/recording"
)

// MaxSamplesPerBatch caps one POST /sessions/samples body
const MaxSamplesPerBatch = 5000

// SummaryInput is a sealed session summary as the tracker posts it
type SummaryInput = recording.Summary

// SummaryAck reports whether the summary was new
type SummaryAck struct {
	SessionID string `json:"session_id"`
	Stored    bool   `json:"stored"`
}

// SamplesInput is a batch of heatmap samples
type SamplesInput struct {
	Samples []heatmap.Sample `json:"samples" validate:"required,min=1"`
}

// SamplesAck counts accepted samples
type SamplesAck struct {
	Accepted int `json:"accepted"`
}

// HeatmapInput selects stored samples for one page. Zero times default to
// the last seven days
type HeatmapInput struct {
	PageURL string         `json:"page_url" validate:"required,max=2048" example:"https://example.com/pricing"`
	Since   time.Time      `json:"since,omitempty"`
	Until   time.Time      `json:"until,omitempty"`
	Grid    int            `json:"grid,omitempty" validate:"omitempty,min=1,max=500" example:"25"`
	Top     int            `json:"top,omitempty" validate:"omitempty,min=1,max=100" example:"10"`
	Kinds   []heatmap.Kind `json:"kinds,omitempty" validate:"omitempty,max=5"`
}

// HeatmapOutput is the aggregated export for a page and window
type HeatmapOutput struct {
	PageURL string    `json:"page_url"`
	Since   time.Time `json:"since"`
	Until   time.Time `json:"until"`
	heatmap.Export
}

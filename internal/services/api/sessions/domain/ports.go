package domain

import "context"

// ServicePort is the sessions service contract
type ServicePort interface {
	StoreSummary(ctx context.Context, in SummaryInput, visitorID string) (SummaryAck, error)
	StoreSamples(ctx context.Context, in SamplesInput, visitorID string) (SamplesAck, error)
	Heatmap(ctx context.Context, in HeatmapInput) (HeatmapOutput, error)
}

// HistoryPort lists a visitor's most recent session ids, newest first
type HistoryPort interface {
	Recent(ctx context.Context, visitorID string, n int) ([]string, error)
}

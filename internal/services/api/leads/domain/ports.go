package domain

import "context"

// ServicePort is the leads service contract
type ServicePort interface {
	Score(ctx context.Context, in LeadInput) ScoreOutput
	Create(ctx context.Context, in LeadInput, meta RequestMeta) (CreateOutput, error)
	Lookup(ctx context.Context, id string) (Lead, error)
}

// SessionHistory lists a visitor's most recent capture sessions, newest first
type SessionHistory interface {
	Recent(ctx context.Context, visitorID string, n int) ([]string, error)
}

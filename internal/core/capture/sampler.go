package capture

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadfunnel/internal/platform/logger"
)

// Sampler draws cohort decisions
type Sampler struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSampler wraps r; nil seeds from the clock
func NewSampler(r *rand.Rand) *Sampler {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{r: r}
}

// SeededSampler is deterministic for seed
func SeededSampler(seed int64) *Sampler { return NewSampler(rand.New(rand.NewSource(seed))) }

// Enroll draws once: true with probability p
func (s *Sampler) Enroll(p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64() < p
}

// VisitorID returns the persisted anonymous id, creating it on first use.
// Store failures fall back to a fresh id that is not persisted.
func VisitorID(ctx context.Context, s Store) string {
	id, ok, err := s.Get(ctx, KeyVisitor)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("visitor id read failed")
		return uuid.NewString()
	}
	if ok && id != "" {
		return id
	}
	id = uuid.NewString()
	if err := s.Set(ctx, KeyVisitor, id); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("visitor id write failed")
	}
	return id
}

// NewSessionID returns a fresh session id
func NewSessionID() string { return uuid.NewString() }

package capture

import (
	"sync"

	"leadfunnel/internal/platform/logger"
)

// AnalyticsSink receives discrete analytics events
type AnalyticsSink interface {
	Track(name string, params map[string]string, value *float64)
}

// Tracked is one recorded analytics call
type Tracked struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
	Value  *float64          `json:"value,omitempty"`
}

// NopSink drops everything
type NopSink struct{}

func (NopSink) Track(string, map[string]string, *float64) {}

// LogSink writes events to the log at info
type LogSink struct{ Log *logger.Logger }

func (s LogSink) Track(name string, params map[string]string, value *float64) {
	l := s.Log
	if l == nil {
		l = logger.Named("analytics")
	}
	ev := l.Info().Str("event", name)
	for k, v := range params {
		ev = ev.Str(k, v)
	}
	if value != nil {
		ev = ev.Float64("value", *value)
	}
	ev.Msg("analytics event")
}

// MemorySink keeps events in order
type MemorySink struct {
	mu     sync.Mutex
	events []Tracked
}

func (s *MemorySink) Track(name string, params map[string]string, value *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Tracked{Name: name, Params: params, Value: value})
}

// Events returns a copy of what was tracked
func (s *MemorySink) Events() []Tracked {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Tracked, len(s.events))
	copy(out, s.events)
	return out
}

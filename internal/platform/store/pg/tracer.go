package pg

import (
	"context"
	"strings"
	"time"

	"leadfunnel/internal/platform/logger"
)

// QueryEvent describes one statement. Argument values are never logged:
// lead rows carry emails and phone numbers
type QueryEvent struct {
	SQL     string
	NumArgs int
	Elapsed time.Duration
	Err     error
	Slow    bool
}

// QueryTracer observes statements
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs statements at debug, slow ones at warn, failures at error
func Tracer(root logger.Logger) QueryTracer {
	return &zlTracer{log: root.With().Str("component", "pg").Logger()}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	evt := z.log.Debug()
	switch {
	case ev.Err != nil:
		evt = z.log.Error().Err(ev.Err)
	case ev.Slow:
		evt = z.log.Warn()
	}
	evt.Dur("elapsed", ev.Elapsed).
		Bool("slow", ev.Slow).
		Int("args", ev.NumArgs).
		Str("sql", compact(ev.SQL)).
		Msg("pg query")
}

// compact folds runs of whitespace into single spaces
func compact(s string) string { return strings.Join(strings.Fields(s), " ") }

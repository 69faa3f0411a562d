// Package consent gates capture on the visitor's analytics preference.
//
// A Gate is evaluated once per page load. It resolves true as soon as the
// persisted preference or a host notification grants analytics, false on an
// explicit denial, and false silently once the timeout passes.
package consent

import (
	"context"
	"strings"
	"sync"
	"time"

	"leadfunnel/internal/core/capture"
	"leadfunnel/internal/platform/logger"
)

// Defaults
const (
	DefaultPollInterval = time.Second
	DefaultTimeout      = 30 * time.Second
)

// Preferences is the stored consent record
type Preferences struct {
	Necessary bool      `json:"necessary"`
	Analytics bool      `json:"analytics"`
	Marketing bool      `json:"marketing"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Config tunes the gate. Zero values take the defaults; a negative
// PollInterval disables store polling and relies on Notify alone
type Config struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

// WithDefaults fills zero fields; a negative PollInterval stays negative
func (c Config) WithDefaults() Config {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Gate resolves the consent decision for one page load
type Gate struct {
	ctx   context.Context
	cfg   Config
	clock capture.Clock
	store capture.Store

	once    sync.Once
	mu      sync.Mutex
	decided bool
	granted bool
	waiters []func(bool)
	timeout capture.Timer
	poll    capture.Timer
}

// NewGate builds a gate reading preferences from store
func NewGate(ctx context.Context, cfg Config, clock capture.Clock, store capture.Store) *Gate {
	return &Gate{ctx: ctx, cfg: cfg.WithDefaults(), clock: clock, store: store}
}

// Await registers cb for the decision and starts evaluation on first use.
// It never blocks: cb runs immediately when the decision is already known
func (g *Gate) Await(cb func(granted bool)) {
	g.once.Do(g.start)

	g.mu.Lock()
	if !g.decided {
		g.waiters = append(g.waiters, cb)
		g.mu.Unlock()
		return
	}
	granted := g.granted
	g.mu.Unlock()
	cb(granted)
}

// Notify is the host telling the gate the visitor answered the banner
func (g *Gate) Notify(granted bool) {
	g.once.Do(g.start)
	g.resolve(granted)
}

// Decision returns the outcome once known
func (g *Gate) Decision() (granted, decided bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.granted, g.decided
}

// Stop abandons the wait without notifying waiters
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopTimersLocked()
	g.waiters = nil
	g.decided = true
}

func (g *Gate) start() {
	if g.read() {
		g.resolve(true)
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.decided {
		return
	}
	g.timeout = g.clock.AfterFunc(g.cfg.Timeout, func() {
		logger.C(g.ctx).Debug().Dur("after", g.cfg.Timeout).Msg("consent wait timed out")
		g.resolve(false)
	})
	if g.cfg.PollInterval > 0 {
		g.poll = g.clock.AfterFunc(g.cfg.PollInterval, g.tick)
	}
}

func (g *Gate) tick() {
	if g.read() {
		g.resolve(true)
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.decided {
		g.poll = g.clock.AfterFunc(g.cfg.PollInterval, g.tick)
	}
}

// read reports whether the store holds an analytics grant. Errors count as
// not granted yet
func (g *Gate) read() bool {
	ok, err := Granted(g.ctx, g.store)
	if err != nil {
		logger.C(g.ctx).Warn().Err(err).Msg("consent read failed")
		return false
	}
	return ok
}

func (g *Gate) resolve(granted bool) {
	g.mu.Lock()
	if g.decided {
		g.mu.Unlock()
		return
	}
	g.decided, g.granted = true, granted
	g.stopTimersLocked()
	waiters := g.waiters
	g.waiters = nil
	g.mu.Unlock()

	for _, cb := range waiters {
		cb(granted)
	}
}

func (g *Gate) stopTimersLocked() {
	if g.timeout != nil {
		g.timeout.Stop()
		g.timeout = nil
	}
	if g.poll != nil {
		g.poll.Stop()
		g.poll = nil
	}
}

// Granted reads the stored preference. A bare "true" is accepted as well as
// the JSON record
func Granted(ctx context.Context, s capture.Store) (bool, error) {
	raw, ok, err := s.Get(ctx, capture.KeyConsent)
	if err != nil || !ok {
		return false, err
	}
	if v := strings.TrimSpace(raw); v == "true" || v == "false" {
		return v == "true", nil
	}
	var p Preferences
	if _, err := capture.GetJSON(ctx, s, capture.KeyConsent, &p); err != nil {
		return false, err
	}
	return p.Analytics, nil
}

// Grant persists p
func Grant(ctx context.Context, s capture.Store, p Preferences) error {
	return capture.SetJSON(ctx, s, capture.KeyConsent, p)
}

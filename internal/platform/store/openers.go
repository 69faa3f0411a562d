package store

import (
	"context"
	"fmt"
	"time"

	chx "leadfunnel/internal/platform/store/ch"
	"leadfunnel/internal/platform/store/pg"
	"leadfunnel/internal/platform/store/rds"
)

// pingBackoff bounds the startup wait for Postgres in docker compose setups
var pingBackoff = struct {
	attempts      int
	timeout       time.Duration
	start, ceiling time.Duration
}{20, 3 * time.Second, 150 * time.Millisecond, 2 * time.Second}

func openPG(ctx context.Context, cfg PGConfig, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.LogSQL {
		tracer = pg.Tracer(s.Log)
	}
	p, err := pg.Open(ctx, pg.Config{URL: cfg.URL, MaxConns: cfg.MaxConns, SlowMs: cfg.SlowQueryMs}, tracer, nil)
	if err != nil {
		return nil, err
	}

	var lastErr error
	backoff := pingBackoff.start
	for i := 0; i < pingBackoff.attempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingBackoff.timeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()
		if lastErr == nil {
			return newPGAdapter(p), nil
		}
		s.Log.Debug().Err(lastErr).Int("attempt", i+1).Msg("postgres not ready")

		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, pingBackoff.ceiling)
	}
	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", pingBackoff.attempts, lastErr)
}

func openCH(ctx context.Context, cfg CHConfig, app string) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{URL: cfg.URL, App: app})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}

func openRedis(ctx context.Context, cfg RedisConfig) (KV, error) {
	return rds.Open(ctx, rds.Config{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB, TTL: cfg.TTL})
}

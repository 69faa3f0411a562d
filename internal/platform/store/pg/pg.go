// Package pg opens the pgx connection pool
package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config addresses the pool
type Config struct {
	URL      string
	MaxConns int32
	SlowMs   int
}

// PG holds the pool and its query tracer
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	SlowMs int
}

// newPool is a seam for tests
var newPool = pgxpool.NewWithConfig

// Open parses cfg.URL and builds the pool; poolMut may adjust the pool config
func Open(ctx context.Context, cfg Config, tracer QueryTracer, poolMut func(*pgxpool.Config)) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if pcfg.ConnConfig.RuntimeParams == nil {
		pcfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	if _, ok := pcfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		pcfg.ConnConfig.RuntimeParams["application_name"] = "leadfunnel"
	}
	if poolMut != nil {
		poolMut(pcfg)
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &PG{Pool: pool, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

// Close closes the pool
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leadfunnel/internal/platform/config"
)

type mapKV map[string]string

func (m mapKV) Get(_ context.Context, k string) (string, bool, error) {
	v, ok := m[k]
	return v, ok, nil
}

func (m mapKV) Set(_ context.Context, k, v string) error {
	m[k] = v
	return nil
}

type pingKV struct {
	mapKV
	err    error
	closed bool
}

func (p *pingKV) Ping(context.Context) error { return p.err }
func (p *pingKV) Close() error               { p.closed = true; return nil }

func TestNamespace(t *testing.T) {
	ctx := context.Background()
	base := mapKV{}
	kv := Namespace(base, "visitor:v1:")
	_ = kv.Set(ctx, "cookie_consent", "yes")

	if base["visitor:v1:cookie_consent"] != "yes" {
		t.Fatalf("base = %#v", base)
	}
	if v, ok, _ := kv.Get(ctx, "cookie_consent"); !ok || v != "yes" {
		t.Fatalf("Get = %q %v", v, ok)
	}
	if Namespace(base, "") == nil {
		t.Fatalf("empty prefix returns kv as is")
	}
}

func TestGuardAndClose(t *testing.T) {
	ctx := context.Background()
	var nilStore *Store
	if nilStore.Guard(ctx) == nil {
		t.Fatalf("nil store must fail guard")
	}
	if err := nilStore.Close(ctx); err != nil {
		t.Fatalf("nil store close = %v", err)
	}

	kv := &pingKV{mapKV: mapKV{}, err: errors.New("connection refused")}
	s := &Store{KV: kv}
	err := s.Guard(ctx)
	if err == nil || !strings.Contains(err.Error(), "redis: connection refused") {
		t.Fatalf("guard = %v", err)
	}
	kv.err = nil
	if err := s.Guard(ctx); err != nil {
		t.Fatalf("healthy guard = %v", err)
	}
	if err := s.Close(ctx); err != nil || !kv.closed {
		t.Fatalf("close = %v closed=%v", err, kv.closed)
	}
}

func TestFromConf(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_MAX_CONNS", "16")
	t.Setenv("SERVICE_CLICKHOUSE_ENABLED", "false")
	t.Setenv("SERVICE_REDIS_ENABLED", "true")
	t.Setenv("SERVICE_REDIS_TTL", "1h")

	cfg := FromConf(config.New(), "leadfunnel-api")
	if cfg.AppName != "leadfunnel-api" || !cfg.PG.Enabled || cfg.PG.MaxConns != 16 {
		t.Fatalf("pg = %+v", cfg.PG)
	}
	if cfg.CH.Enabled {
		t.Fatalf("ch should be disabled")
	}
	if !cfg.RDS.Enabled || cfg.RDS.TTL != time.Hour || cfg.RDS.Addr != "localhost:6379" {
		t.Fatalf("redis = %+v", cfg.RDS)
	}
}

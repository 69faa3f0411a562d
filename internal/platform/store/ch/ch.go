// Package ch opens the ClickHouse native connection used for heatmap samples
package ch

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config addresses ClickHouse with a clickhouse:// DSN
type Config struct {
	URL     string
	App     string
	Version string
}

// CH wraps a native driver connection
type CH struct {
	conn driver.Conn
}

// openConn is a seam for tests
var openConn = clickhouse.Open

// Open parses the DSN, tags the connection with client info, and pings
func Open(ctx context.Context, cfg Config) (*CH, error) {
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("clickhouse dsn: %w", err)
	}
	opts.ClientInfo = BuildClientInfo(cfg.App, cfg.Version)

	conn, err := openConn(opts)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &CH{conn: conn}, nil
}

// Ping checks the connection
func (c *CH) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

// Exec runs a statement without results (DDL, mutations)
func (c *CH) Exec(ctx context.Context, sql string, args ...any) error {
	return c.conn.Exec(ctx, sql, args...)
}

// Query runs a select
func (c *CH) Query(ctx context.Context, sql string, args ...any) (driver.Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

// Insert appends every element of rows (a slice of `ch`-tagged structs or
// pointers to them) to one batch and sends it
func (c *CH) Insert(ctx context.Context, table string, rows any) error {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("clickhouse insert into %s: want a slice, got %T", table, rows)
	}
	if v.Len() == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return fmt.Errorf("clickhouse prepare %s: %w", table, err)
	}
	for i := 0; i < v.Len(); i++ {
		el := v.Index(i)
		var target any
		if el.Kind() == reflect.Pointer {
			target = el.Interface()
		} else {
			target = el.Addr().Interface()
		}
		if err := batch.AppendStruct(target); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("clickhouse append %s[%d]: %w", table, i, err)
		}
	}
	return batch.Send()
}

// Close closes the connection
func (c *CH) Close() error { return c.conn.Close() }

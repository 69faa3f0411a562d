// Package rds is the Redis-backed key/value store for visitor state
// (consent preference, anonymous id, recent session history)
package rds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config addresses Redis; TTL of zero keeps keys forever
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// Client is a last-write-wins string store over go-redis
type Client struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// Open connects and pings
func Open(ctx context.Context, cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return New(rdb, cfg.TTL, cfg.Prefix), nil
}

// New wraps an existing client
func New(rdb redis.UniversalClient, ttl time.Duration, prefix string) *Client {
	if prefix == "" {
		prefix = "leadfunnel:"
	}
	return &Client{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *Client) key(k string) string { return c.prefix + k }

// Get returns (value, true, nil) on a hit and ("", false, nil) on a miss
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set overwrites key, refreshing the TTL
func (c *Client) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, c.key(key), value, c.ttl).Err()
}

// PushCapped prepends value to the list at key and keeps only the newest n entries
func (c *Client) PushCapped(ctx context.Context, key, value string, n int) error {
	k := c.key(key)
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, k, value)
		p.LTrim(ctx, k, 0, int64(n-1))
		if c.ttl > 0 {
			p.Expire(ctx, k, c.ttl)
		}
		return nil
	})
	return err
}

// Recent returns up to n newest entries pushed with PushCapped
func (c *Client) Recent(ctx context.Context, key string, n int) ([]string, error) {
	return c.rdb.LRange(ctx, c.key(key), 0, int64(n-1)).Result()
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

// Close closes the client
func (c *Client) Close() error { return c.rdb.Close() }

package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/presence/backend/pkg/config"
)

// Client is the optional connection shared by every dashboard instance.
// A disabled Client has no connection: the cache always misses and the
// limiter always allows.
// ⭐ SSOT: Redis connections are only created here
type Client struct {
	rdb  *redis.Client
	addr string
}

// Options maps the Redis configuration onto go-redis options. Timeouts are
// short because the cache is an optimisation and must never hold a page.
func Options(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

// New connects when REDIS_ENABLED is set and returns a disabled Client
// otherwise
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	opts := Options(cfg)
	c := &Client{rdb: redis.NewClient(opts), addr: opts.Addr}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Ping checks the connection. A disabled Client has nothing to check.
func (c *Client) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s unreachable: %w", c.addr, err)
	}
	return nil
}

// Close closes the connection, if any
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether a connection is held
func (c *Client) Enabled() bool {
	return c.rdb != nil
}

// Addr is the host:port connected to, empty when disabled
func (c *Client) Addr() string {
	return c.addr
}

// Redis returns the underlying go-redis client, nil when disabled
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

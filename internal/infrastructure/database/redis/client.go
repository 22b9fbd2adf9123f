// Package redis wraps github.com/redis/go-redis/v9 for the SIMPLE service.
// The cache it provides holds directory data (specialist lookups by category
// set); maturity results are never cached.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/SIMPLE/internal/config"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/pkg/errors"
)

var (
	ErrClientClosed     = errors.New(errors.ErrCodeCacheError, "redis client is closed")
	ErrConnectionFailed = errors.New(errors.ErrCodeCacheError, "failed to connect to redis")
)

const pingTimeout = 5 * time.Second

// Client owns the go-redis connection pool. It is safe for concurrent use.
type Client struct {
	rdb    redis.UniversalClient
	cfg    config.RedisConfig
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewClient dials Redis and verifies the connection with a PING.
func NewClient(cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	rdb := redis.NewUniversalClient(universalOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		log.Error("redis ping failed", logging.String("addr", cfg.Addr), logging.Err(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrConnectionFailed, cfg.Addr, err)
	}

	log.Info("connected to redis",
		logging.String("addr", cfg.Addr),
		logging.Int("db", cfg.DB),
		logging.Int("pool_size", cfg.PoolSize),
	)
	return &Client{rdb: rdb, cfg: cfg, logger: log}, nil
}

// NewClientWithUniversal wraps an existing go-redis client. Tests pass a
// redismock client here.
func NewClientWithUniversal(rdb redis.UniversalClient, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{rdb: rdb, logger: log}
}

func universalOptions(cfg config.RedisConfig) *redis.UniversalOptions {
	return &redis.UniversalOptions{
		Addrs:        []string{cfg.Addr},
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

// HealthCheck is Ping with the error mapped to a cache AppError, for the
// readiness probe.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis health check failed")
	}
	return nil
}

// Close releases the pool. Calling it twice is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.rdb.Close()
	if err == nil {
		c.logger.Info("closed redis client")
	} else {
		c.logger.Error("failed to close redis client", logging.Err(err))
	}
	return err
}

// Raw exposes the underlying go-redis client.
func (c *Client) Raw() redis.UniversalClient {
	return c.rdb
}

// PoolStats reports connection pool usage.
func (c *Client) PoolStats() *redis.PoolStats {
	return c.rdb.PoolStats()
}

// ─────────────────────────────────────────────────────────────────────────────
// Commands
// ─────────────────────────────────────────────────────────────────────────────

func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	if c.isClosed() {
		cmd := redis.NewStringCmd(ctx)
		cmd.SetErr(ErrClientClosed)
		return cmd
	}
	return c.rdb.Get(ctx, key)
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if c.isClosed() {
		cmd := redis.NewStatusCmd(ctx)
		cmd.SetErr(ErrClientClosed)
		return cmd
	}
	return c.rdb.Set(ctx, key, value, expiration)
}

func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	if c.isClosed() {
		cmd := redis.NewBoolCmd(ctx)
		cmd.SetErr(ErrClientClosed)
		return cmd
	}
	return c.rdb.SetNX(ctx, key, value, expiration)
}

func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if c.isClosed() {
		return closedIntCmd(ctx)
	}
	return c.rdb.Del(ctx, keys...)
}

func (c *Client) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	if c.isClosed() {
		return closedIntCmd(ctx)
	}
	return c.rdb.Exists(ctx, keys...)
}

func (c *Client) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	if c.isClosed() {
		cmd := redis.NewScanCmd(ctx, nil)
		cmd.SetErr(ErrClientClosed)
		return cmd
	}
	return c.rdb.Scan(ctx, cursor, match, count)
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func closedIntCmd(ctx context.Context) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	cmd.SetErr(ErrClientClosed)
	return cmd
}

package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SIMPLE/pkg/errors"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "cache serialization failed")
)

// nullMarker is stored when a loader returns nil so that repeated lookups of
// an empty result do not reach the backing store.
const nullMarker = "__null__"

// Cache is a JSON value cache with key prefixing.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	// GetOrSet reads key into dest, calling loader on a miss. Concurrent
	// misses for the same key share one loader call.
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	Ping(ctx context.Context) error
}

type redisCache struct {
	client       *Client
	logger       logging.Logger
	metrics      *prometheus.AppMetrics
	name         string
	prefix       string
	defaultTTL   time.Duration
	nullCacheTTL time.Duration
	jitter       func(time.Duration) time.Duration
	group        singleflight.Group
}

// CacheOption configures a cache built by NewRedisCache.
type CacheOption func(*redisCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *redisCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

func WithNullCacheTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) { c.nullCacheTTL = ttl }
}

// WithMetrics records hits and misses under the given cache name.
func WithMetrics(m *prometheus.AppMetrics, name string) CacheOption {
	return func(c *redisCache) {
		c.metrics = m
		c.name = name
	}
}

// NewRedisCache returns a Cache backed by client.
func NewRedisCache(client *Client, log logging.Logger, opts ...CacheOption) Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &redisCache{
		client:       client,
		logger:       log,
		name:         "default",
		prefix:       "simple:",
		defaultTTL:   10 * time.Minute,
		nullCacheTTL: 30 * time.Second,
		jitter:       jitterTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *redisCache) fullKey(key string) string {
	return c.prefix + key
}

// jitterTTL spreads expirations by +/-10% so that keys written together do
// not expire together.
func jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	j := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(j)
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil || (err == nil && string(data) == nullMarker) {
		prometheus.RecordCacheAccess(c.metrics, c.name, false)
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache").WithDetail(key)
	}
	prometheus.RecordCacheAccess(c.metrics, c.name, true)
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode cached value").WithDetail(key)
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return ErrSerializationFailed
	}
	return c.setRaw(ctx, key, data, ttl)
}

func (c *redisCache) setRaw(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.jitter(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to write cache").WithDetail(key)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	return c.client.Del(ctx, full...).Err()
}

func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.fullKey(key)).Result()
	return n > 0, err
}

func (c *redisCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if err != ErrCacheMiss {
		c.logger.Warn("cache read failed, falling back to loader",
			logging.String("key", key), logging.Err(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		val, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if val == nil {
			if setErr := c.client.Set(ctx, c.fullKey(key), nullMarker, c.nullCacheTTL).Err(); setErr != nil {
				c.logger.Warn("failed to cache empty result", logging.String("key", key), logging.Err(setErr))
			}
			return nil, nil
		}
		data, mErr := json.Marshal(val)
		if mErr != nil {
			return nil, ErrSerializationFailed
		}
		if setErr := c.setRaw(ctx, key, data, ttl); setErr != nil {
			c.logger.Warn("failed to populate cache", logging.String("key", key), logging.Err(setErr))
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	if v == nil {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(v.([]byte), dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode loaded value").WithDetail(key)
	}
	return nil
}

// DeleteByPrefix removes every key under prefix using SCAN, never KEYS.
func (c *redisCache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var (
		deleted int64
		cursor  uint64
	)
	match := c.fullKey(prefix) + "*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

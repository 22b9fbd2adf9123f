package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SIMPLE/internal/config"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SIMPLE/pkg/errors"
)

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr(), PoolSize: 4}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewClient_Success(t *testing.T) {
	_, client := newMiniredisClient(t)
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.HealthCheck(context.Background()))
	assert.NotNil(t, client.PoolStats())
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	cfg := config.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond}

	client, err := NewClient(cfg, logging.NewNopLogger())
	assert.Nil(t, client)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestClient_Commands(t *testing.T) {
	mr, client := newMiniredisClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "foo", "bar", time.Minute).Err())
	val, err := client.Get(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, "bar", val)
	assert.Equal(t, time.Minute, mr.TTL("foo"))

	ok, err := client.SetNX(ctx, "foo", "baz", 0).Result()
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := client.Exists(ctx, "foo", "missing").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = client.Del(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, mr.Exists("foo"))
}

func TestClient_Close(t *testing.T) {
	_, client := newMiniredisClient(t)
	ctx := context.Background()

	require.NoError(t, client.Close())
	assert.NoError(t, client.Close(), "second close is a no-op")

	assert.ErrorIs(t, client.Ping(ctx), ErrClientClosed)
	assert.ErrorIs(t, client.Get(ctx, "k").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Set(ctx, "k", "v", 0).Err(), ErrClientClosed)
	assert.ErrorIs(t, client.SetNX(ctx, "k", "v", 0).Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Del(ctx, "k").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Exists(ctx, "k").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Scan(ctx, 0, "*", 10).Err(), ErrClientClosed)

	err := client.HealthCheck(ctx)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func TestUniversalOptions(t *testing.T) {
	opts := universalOptions(config.RedisConfig{
		Addr:         "cache:6379",
		Password:     "secret",
		DB:           2,
		PoolSize:     20,
		MinIdleConns: 3,
		DialTimeout:  time.Second,
	})
	assert.Equal(t, []string{"cache:6379"}, opts.Addrs)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 3, opts.MinIdleConns)
	assert.Equal(t, time.Second, opts.DialTimeout)
}

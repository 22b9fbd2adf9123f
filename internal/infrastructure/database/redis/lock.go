package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/SIMPLE/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "lock is held by another owner")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

// DefaultLockTTL bounds how long a crashed holder can block others.
const DefaultLockTTL = 30 * time.Second

// Locker hands out single-holder mutexes stored in Redis. The worker uses it
// so that only one replica renders a given report at a time.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (*Mutex, error)
}

// Mutex is an acquired lock. Release it with Unlock.
type Mutex struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

type redisLocker struct {
	client *Client
	prefix string
}

// NewLocker returns a Locker whose keys live under prefix + "lock:".
func NewLocker(client *Client, prefix string) Locker {
	return &redisLocker{client: client, prefix: prefix}
}

// TryLock makes one attempt to take the named lock. It returns
// ErrLockNotAcquired when another owner holds it.
func (l *redisLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (*Mutex, error) {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	m := &Mutex{
		client: l.client,
		key:    l.prefix + "lock:" + name,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
	ok, err := l.client.SetNX(ctx, m.key, m.token, ttl).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to acquire lock").WithDetail(name)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	return m, nil
}

// Key returns the Redis key of the lock.
func (m *Mutex) Key() string { return m.key }

// Unlock releases the lock if this Mutex still owns it.
func (m *Mutex) Unlock(ctx context.Context) error {
	res, err := unlockScript.Run(ctx, m.client.Raw(), []string{m.key}, m.token).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock").WithDetail(m.key)
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Extend pushes the expiry out by the original TTL.
func (m *Mutex) Extend(ctx context.Context) error {
	res, err := extendScript.Run(ctx, m.client.Raw(), []string{m.key}, m.token, m.ttl.Milliseconds()).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to extend lock").WithDetail(m.key)
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	return nil
}

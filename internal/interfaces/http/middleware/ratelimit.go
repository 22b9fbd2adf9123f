package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/turtacn/SIMPLE/pkg/errors"
)

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// KeyFunc extracts the bucket key; defaults to ProfileKeyFunc.
	KeyFunc   func(r *http.Request) string
	SkipPaths []string
	// IdleTTL is how long an unused bucket is kept.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns the limits used when rate limiting is on.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		SkipPaths:         []string{"/healthz", "/readyz", "/metrics"},
		IdleTTL:           10 * time.Minute,
	}
}

// ProfileKeyFunc keys by the authenticated profile, falling back to the
// client address for anonymous routes.
func ProfileKeyFunc(r *http.Request) string {
	if pid := ContextGetProfileID(r.Context()); pid != "" {
		return "profile:" + pid
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter holds one token bucket per key.
type KeyedLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

// NewKeyedLimiter builds a limiter allowing rps requests per second per key
// with the given burst.
func NewKeyedLimiter(rps float64, burst int, idleTTL time.Duration) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	return &KeyedLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
		entries: make(map[string]*limiterEntry),
	}
}

// Reserve takes a token for key. It returns whether the request may proceed
// and, if not, how long to wait.
func (l *KeyedLimiter) Reserve(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	l.sweep(now)
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	if e.limiter.AllowN(now, 1) {
		return true, 0
	}
	r := e.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return false, delay
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// sweep drops idle buckets at most once per idleTTL. Callers hold l.mu.
func (l *KeyedLimiter) sweep(now time.Time) {
	if l.idleTTL <= 0 || now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.entries, k)
		}
	}
}

// RateLimit rejects requests over the per-key budget with 429 and a
// Retry-After header.
func RateLimit(limiter *KeyedLimiter, cfg RateLimitConfig) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = ProfileKeyFunc
	}
	limitHeader := strconv.Itoa(limiter.burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			ok, wait := limiter.Reserve(keyFunc(r))
			w.Header().Set("X-RateLimit-Limit", limitHeader)
			if !ok {
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Max(1, math.Ceil(wait.Seconds())))))
				writeMiddlewareError(w, errors.ErrCodeTooManyRequests, "rate limit exceeded, retry later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

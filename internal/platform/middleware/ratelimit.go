package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig mirrors the RATE_LIMIT_RPS and RATE_LIMIT_BURST settings.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RPS: 100, Burst: 200}
}

const (
	// Buckets idle longer than this are dropped when the map is pruned.
	idleEvictAfter = 10 * time.Minute
	// Pruning runs on insert once the map reaches this size.
	evictCheckSize = 10000
)

// clientBucket is one client's token balance.
type clientBucket struct {
	tokens   float64
	lastSeen time.Time
}

// limiter keeps per-client token buckets behind a single mutex. Refill
// happens lazily from the elapsed time since the client's last request.
type limiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	buckets map[string]*clientBucket
	now     func() time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	return &limiter{cfg: cfg, buckets: make(map[string]*clientBucket), now: time.Now}
}

// allow takes one token from the client's bucket. The second return is the
// suggested Retry-After in seconds when the request is denied.
func (l *limiter) allow(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= evictCheckSize {
			l.evictIdle(now)
		}
		b = &clientBucket{tokens: float64(l.cfg.Burst)}
		l.buckets[key] = b
	} else {
		b.tokens += now.Sub(b.lastSeen).Seconds() * l.cfg.RPS
		if full := float64(l.cfg.Burst); b.tokens > full {
			b.tokens = full
		}
	}
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	retry := 1
	if l.cfg.RPS > 0 {
		retry = int((1-b.tokens)/l.cfg.RPS) + 1
	}
	return false, retry
}

func (l *limiter) evictIdle(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleEvictAfter {
			delete(l.buckets, k)
		}
	}
}

// RateLimit throttles requests per client IP.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	l := newLimiter(cfg)
	limitHeader := strconv.FormatFloat(cfg.RPS, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, retry := l.allow(c.RealIP())
			c.Response().Header().Set("X-RateLimit-Limit", limitHeader)
			if !ok {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

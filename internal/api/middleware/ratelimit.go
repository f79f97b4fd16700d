package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/memory-app/memory-api/internal/api/metrics"
)

const limiterIdleTTL = 15 * time.Minute

// ipLimiter keeps one token bucket per client address. Buckets idle for
// longer than ttl are evicted by a sweep that runs at most once per ttl.
type ipLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	entries   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(limit rate.Limit, burst int, ttl time.Duration) *ipLimiter {
	return &ipLimiter{
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
		entries: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *ipLimiter) allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.entries[key]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = b
	}
	b.lastSeen = now

	if now.Sub(l.lastSweep) >= l.ttl {
		l.sweep(now)
	}
	return b.lim.AllowN(now, 1)
}

// sweep drops idle buckets. Callers hold mu.
func (l *ipLimiter) sweep(now time.Time) {
	for k, v := range l.entries {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.entries, k)
		}
	}
	l.lastSweep = now
}

// LoginRateLimit throttles requests per client IP to perMinute with the given
// burst. Throttled requests get 429 before any password check runs.
func LoginRateLimit(perMinute float64, burst int) echo.MiddlewareFunc {
	lim := newIPLimiter(rate.Limit(perMinute/60), burst, limiterIdleTTL)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !lim.allow(c.RealIP()) {
				metrics.LoginAttemptsTotal.WithLabelValues("rate_limited").Inc()
				c.Response().Header().Set("Retry-After", "60")
				return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "too many login attempts, try again later"})
			}
			return next(c)
		}
	}
}

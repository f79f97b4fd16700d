package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

func TestLoginRateLimit_PerClientIP(t *testing.T) {
	e := echo.New()
	mw := LoginRateLimit(1, 2)
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		_ = handler(e.NewContext(req, rec))
		return rec.Code
	}

	if code := do("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first attempt: expected 200, got %d", code)
	}
	if code := do("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("second attempt: expected 200, got %d", code)
	}
	if code := do("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("third attempt: expected 429, got %d", code)
	}
	if code := do("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other client must not be throttled, got %d", code)
	}
}

func TestIPLimiter_EvictsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPLimiter(rate.Limit(1), 1, time.Minute)
	l.now = func() time.Time { return now }

	l.allow("a")
	now = now.Add(2 * time.Minute)
	l.allow("b")

	if _, ok := l.entries["a"]; ok {
		t.Fatalf("idle bucket must be evicted")
	}
	if len(l.entries) != 1 {
		t.Fatalf("expected one live bucket, got %d", len(l.entries))
	}
}

func TestIPLimiter_SweepsAtMostOncePerTTL(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	l := newIPLimiter(rate.Limit(1), 1, time.Minute)
	l.now = func() time.Time { return now }

	l.allow("a")
	if !l.lastSweep.Equal(start) {
		t.Fatalf("first call must sweep, last sweep %v", l.lastSweep)
	}

	now = start.Add(30 * time.Second)
	l.allow("b")
	if !l.lastSweep.Equal(start) {
		t.Fatalf("calls within the ttl must not sweep, last sweep %v", l.lastSweep)
	}

	now = start.Add(90 * time.Second)
	l.allow("c")
	if !l.lastSweep.Equal(now) {
		t.Fatalf("expected a sweep after the ttl, last sweep %v", l.lastSweep)
	}
	if _, ok := l.entries["a"]; ok {
		t.Fatal("bucket idle past the ttl must be evicted")
	}
	if _, ok := l.entries["b"]; !ok {
		t.Fatal("bucket seen within the ttl must be kept")
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newRateLimitedHandler(cfg RateLimitConfig) echo.HandlerFunc {
	return RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func doRequest(e *echo.Echo, h echo.HandlerFunc, remoteAddr string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	h := newRateLimitedHandler(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		rec, err := doRequest(e, h, "")
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	e := echo.New()
	h := newRateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		if _, err := doRequest(e, h, ""); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	rec, err := doRequest(e, h, "")
	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}

	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || retry < 1 {
		t.Errorf("expected positive Retry-After, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	e := echo.New()
	h := newRateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	if _, err := doRequest(e, h, "10.0.0.1:1234"); err != nil {
		t.Fatalf("client a first request: %v", err)
	}
	if _, err := doRequest(e, h, "10.0.0.1:1234"); err == nil {
		t.Fatal("client a second request: expected rate limit error")
	}
	if _, err := doRequest(e, h, "10.0.0.2:1234"); err != nil {
		t.Fatalf("client b first request: %v", err)
	}
}

func TestAuthRateLimitConfig(t *testing.T) {
	cfg := AuthRateLimitConfig()
	if cfg.RequestsPerSecond != 0.5 {
		t.Errorf("expected RequestsPerSecond 0.5, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 10 {
		t.Errorf("expected BurstSize 10, got %d", cfg.BurstSize)
	}
	if got := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64); got != "0.5" {
		t.Errorf("unexpected header formatting %q", got)
	}
}

func TestTokenBucket_RetryAfterWithZeroRate(t *testing.T) {
	b := newTokenBucket(0, 1)
	b.allow()
	if ra := b.retryAfter(); ra != 1 {
		t.Errorf("expected retryAfter 1 for zero rate, got %d", ra)
	}
}

func TestRateLimit_IgnoresForwardedForWithDirectExtractor(t *testing.T) {
	e := echo.New()
	e.IPExtractor = echo.ExtractIPDirect()
	h := newRateLimitedHandler(RateLimitConfig{RequestsPerSecond: 0.5, BurstSize: 2})

	limited := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		req.Header.Set(echo.HeaderXForwardedFor, "198.51.100."+strconv.Itoa(i))
		if err := h(e.NewContext(req, httptest.NewRecorder())); err != nil {
			limited++
		}
	}
	if limited != 18 {
		t.Errorf("expected 18 limited requests, got %d", limited)
	}
}

func TestRateLimiterStore_EvictsRefilledBuckets(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})
	store.now = func() time.Time { return now }
	store.lastSweep = start
	e := echo.New()
	h := rateLimit(store)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i := 0; i < 100; i++ {
		if _, err := doRequest(e, h, "10.1.0."+strconv.Itoa(i)+":1"); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	_, _ = doRequest(e, h, "10.9.9.9:1")
	_, _ = doRequest(e, h, "10.9.9.9:1")
	if store.size() != 101 {
		t.Fatalf("expected 101 buckets, got %d", store.size())
	}

	// One second later the single-request clients are full again; the
	// drained client still owes a token and must keep its bucket.
	store.mu.Lock()
	store.sweepLocked(start.Add(time.Second))
	store.mu.Unlock()
	if store.size() != 1 {
		t.Errorf("expected only the drained bucket to remain, got %d", store.size())
	}

	now = start.Add(time.Hour)
	if _, err := doRequest(e, h, "10.2.0.1:1"); err != nil {
		t.Fatalf("request after idle period: %v", err)
	}
	if store.size() != 1 {
		t.Errorf("expected the sweep on access to leave one bucket, got %d", store.size())
	}
}

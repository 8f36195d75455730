package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware(t *testing.T) {
	_, ts := newTestServer(t, Config{RateLimitRequests: 1, RateLimitBurst: 2})

	for i := 0; i < 2; i++ {
		resp, _ := do(t, http.MethodGet, ts.URL+"/api/health", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i)
		assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))
	}

	resp, env := do(t, http.MethodGet, ts.URL+"/api/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", env.Error.Code)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
}

func TestTokenBucket(t *testing.T) {
	tb := newTokenBucket(2, 0)
	ok, remaining, _ := tb.take()
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
	ok, _, _ = tb.take()
	assert.True(t, ok)
	ok, remaining, _ = tb.take()
	assert.False(t, ok)
	assert.Zero(t, remaining)

	tb = newTokenBucket(1, 1000)
	tb.take()
	tb.mu.Lock()
	tb.lastRefillTime = tb.lastRefillTime.Add(-time.Second)
	tb.mu.Unlock()
	ok, _, _ = tb.take()
	assert.True(t, ok, "bucket should refill")
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 5})
	assert.True(t, rl.Allow("192.0.2.1"))
	assert.True(t, rl.Allow("192.0.2.2"))

	assert.Zero(t, rl.sweep(time.Now()))
	assert.Equal(t, 2, rl.sweep(time.Now().Add(10*time.Minute)))
}

func TestRateLimiterCleanupStops(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 5})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Cleanup(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Cleanup did not stop")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.7:4321", want: "192.0.2.7"},
		{name: "forwarded leftmost", remoteAddr: "10.0.0.1:80", forwarded: "203.0.113.5, 10.0.0.2", want: "203.0.113.5"},
		{name: "forwarded garbage falls through", remoteAddr: "10.0.0.1:80", forwarded: "not-an-ip", realIP: "203.0.113.9", want: "203.0.113.9"},
		{name: "ipv6", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "unknown", remoteAddr: "pipe", want: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

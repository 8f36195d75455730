package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

// tokenBucket implements a token bucket rate limiter.
type tokenBucket struct {
	tokens         float64
	capacity       float64
	refillRate     float64 // tokens per second
	lastRefillTime time.Time
	mu             sync.Mutex
}

func newTokenBucket(capacity, refillRate float64) *tokenBucket {
	return &tokenBucket{
		tokens:         capacity,
		capacity:       capacity,
		refillRate:     refillRate,
		lastRefillTime: time.Now(),
	}
}

// refill brings the bucket up to date. Callers hold tb.mu.
func (tb *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefillTime = now
}

// take consumes a token if one is available and reports the state of the
// bucket afterwards.
func (tb *tokenBucket) take() (ok bool, remaining int, reset time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.refill(now)
	if tb.tokens >= 1.0 {
		tb.tokens--
		ok = true
	}

	reset = now
	if tb.tokens < tb.capacity && tb.refillRate > 0 {
		secondsUntilFull := (tb.capacity - tb.tokens) / tb.refillRate
		reset = now.Add(time.Duration(secondsUntilFull * float64(time.Second)))
	}
	return ok, int(tb.tokens), reset
}

func (tb *tokenBucket) idleSince(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return now.Sub(tb.lastRefillTime)
}

// RateLimiter manages per-IP rate limiting.
type RateLimiter struct {
	buckets    map[string]*tokenBucket
	config     RateLimiterConfig
	mu         sync.Mutex
	cleanupTTL time.Duration
}

// NewRateLimiter creates a rate limiter. Stale buckets are only dropped
// while Cleanup runs.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*tokenBucket),
		config:     config,
		cleanupTTL: 5 * time.Minute,
	}
}

func (rl *RateLimiter) getBucket(ip string) *tokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if bucket, ok := rl.buckets[ip]; ok {
		return bucket
	}
	// Requests per minute become tokens per second.
	bucket := newTokenBucket(float64(rl.config.BurstSize), float64(rl.config.RequestsPerMinute)/60.0)
	rl.buckets[ip] = bucket
	return bucket
}

// Cleanup removes idle buckets every interval until ctx is done.
func (rl *RateLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, bucket := range rl.buckets {
		if bucket.idleSince(now) > rl.cleanupTTL {
			delete(rl.buckets, ip)
			removed++
		}
	}
	return removed
}

// Allow checks if a request from the given IP should be allowed.
func (rl *RateLimiter) Allow(ip string) bool {
	ok, _, _ := rl.getBucket(ip).take()
	return ok
}

// Middleware returns an HTTP middleware that applies rate limiting.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, remaining, reset := rl.getBucket(getClientIP(r)).take()

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.config.RequestsPerMinute))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset.Unix()))

		if !ok {
			retryAfter := int(time.Until(reset).Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
				fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retryAfter))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP address from the request, preferring
// the leftmost X-Forwarded-For entry, then X-Real-IP, then RemoteAddr.
// Header values that are not IP addresses are ignored.
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) != nil {
		return ip
	}
	return "unknown"
}

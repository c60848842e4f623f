package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/saintvisionai/platform/internal/domain/plan"
)

// RateLimiter is per-client token bucket rate limiting middleware.
// Authenticated clients are keyed by user ID and limited by their plan tier's
// parameters; anonymous clients are keyed by IP with the configured defaults.
type RateLimiter struct {
	mu           sync.Mutex
	buckets      map[string]*bucket
	matrix       *plan.Matrix
	defaultRate  float64 // tokens per second for anonymous clients
	defaultBurst int
	maxBuckets   int // max tracked clients (prevents memory exhaustion)
}

type bucket struct {
	tokens    float64
	rate      float64
	burst     int
	lastSeen  time.Time
	updatedAt time.Time
}

// NewRateLimiter creates a rate limiter drawing per-tier limits from the
// given plan matrix, with the anonymous-client sustained rate (requests per
// second) and burst size as fallback.
func NewRateLimiter(matrix *plan.Matrix, rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets:      make(map[string]*bucket),
		matrix:       matrix,
		defaultRate:  rate,
		defaultBurst: burst,
		maxBuckets:   100000,
	}
}

// Handler returns HTTP middleware that enforces per-client rate limiting.
// Must run after Auth so plan-tier limits can be applied.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, rate, burst := rl.limitsFor(r)

		remaining, retryAfter, allowed := rl.allow(key, rate, burst)

		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Second).Unix()))

		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", math.Ceil(retryAfter)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// limitsFor picks the bucket key and limit parameters for a request.
func (rl *RateLimiter) limitsFor(r *http.Request) (key string, rate float64, burst int) {
	if u := UserFromContext(r.Context()); u != nil && !u.Service {
		if t := rl.matrix.Get(u.Tier); t.RequestsPerSecond > 0 {
			return "user:" + u.ID, t.RequestsPerSecond, t.Burst
		}
		return "user:" + u.ID, rl.defaultRate, rl.defaultBurst
	}
	return "ip:" + realIP(r), rl.defaultRate, rl.defaultBurst
}

// allow checks whether a request under the given key is allowed.
// Returns remaining tokens, seconds until next token, and the verdict.
func (rl *RateLimiter) allow(key string, rate float64, burst int) (remaining int, retryAfter float64, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, exists := rl.buckets[key]
	if !exists {
		// Prevent memory exhaustion: cap the number of tracked clients
		if len(rl.buckets) >= rl.maxBuckets {
			return 0, 1.0 / rate, false
		}
		b = &bucket{
			tokens:    float64(burst) - 1, // consume one token for this request
			rate:      rate,
			burst:     burst,
			updatedAt: now,
			lastSeen:  now,
		}
		rl.buckets[key] = b
		return int(b.tokens), 0, true
	}

	// Plan changes take effect on the next request.
	b.rate = rate
	b.burst = burst

	// Refill tokens based on elapsed time
	elapsed := now.Sub(b.updatedAt).Seconds()
	b.tokens += elapsed * b.rate
	if b.tokens > float64(b.burst) {
		b.tokens = float64(b.burst)
	}
	b.updatedAt = now
	b.lastSeen = now

	if b.tokens < 1 {
		wait := (1 - b.tokens) / b.rate
		return 0, wait, false
	}

	b.tokens--
	return int(b.tokens), 0, true
}

// StartCleanup spawns a goroutine that removes stale buckets every interval.
// A bucket is stale if it has not been seen for longer than maxIdle.
// Returns a cancel function that stops the cleanup goroutine.
func (rl *RateLimiter) StartCleanup(interval, maxIdle time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.cleanup(maxIdle)
			}
		}
	}()
	return cancel
}

// cleanup removes buckets that have been idle longer than maxIdle.
func (rl *RateLimiter) cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// Len returns the number of tracked client buckets (for metrics and testing).
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// realIP extracts the client IP from RemoteAddr.
// Proxy headers (X-Forwarded-For, X-Real-Ip) are NOT trusted because
// they can be spoofed by attackers to bypass rate limiting.
func realIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

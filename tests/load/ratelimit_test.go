//go:build load

// Package load contains load tests that are excluded from regular CI runs.
// Run with: go test -tags load -count=1 -timeout 60s ./tests/load/
package load

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saintvisionai/platform/internal/domain/plan"
	"github.com/saintvisionai/platform/internal/domain/user"
	"github.com/saintvisionai/platform/internal/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestRateLimitSustainedLoad runs 10 goroutines x 100 requests from the same
// IP against a rate=10 burst=10 limiter. With 1000 requests completed
// near-instantly, most should be rate-limited since the bucket only starts
// with 10 tokens and refills at 10/sec.
func TestRateLimitSustainedLoad(t *testing.T) {
	rl := middleware.NewRateLimiter(plan.DefaultMatrix(), 10, 10)
	handler := rl.Handler(okHandler())

	const goroutines = 10
	const reqsPerGoroutine = 100

	var ok, limited atomic.Int64
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range reqsPerGoroutine {
				req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
				req.RemoteAddr = "10.0.0.1"
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				switch rec.Code {
				case http.StatusOK:
					ok.Add(1)
				case http.StatusTooManyRequests:
					limited.Add(1)
				}
			}
		}()
	}

	wg.Wait()

	total := ok.Load() + limited.Load()
	if total != goroutines*reqsPerGoroutine {
		t.Fatalf("expected %d total responses, got %d", goroutines*reqsPerGoroutine, total)
	}
	if ok.Load() < 10 {
		t.Errorf("expected at least the burst of 10 to pass, got %d", ok.Load())
	}
	if limited.Load() < int64(total)/2 {
		t.Errorf("expected most requests limited under sustained load, got %d of %d", limited.Load(), total)
	}
}

// TestRateLimitTierIsolation hammers the limiter with one free-tier and one
// enterprise-tier user concurrently and checks that the enterprise bucket
// admits far more traffic without the free user's pressure bleeding over.
func TestRateLimitTierIsolation(t *testing.T) {
	rl := middleware.NewRateLimiter(plan.DefaultMatrix(), 1, 1)
	handler := rl.Handler(okHandler())

	run := func(id string, tier plan.TierID, n int) int64 {
		var ok atomic.Int64
		var wg sync.WaitGroup
		wg.Add(4)
		for range 4 {
			go func() {
				defer wg.Done()
				for range n / 4 {
					req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
					req.RemoteAddr = "10.0.0.2"
					u := &user.User{ID: id, Tier: tier}
					req = req.WithContext(middleware.WithUserForTest(req.Context(), u))
					rec := httptest.NewRecorder()
					handler.ServeHTTP(rec, req)
					if rec.Code == http.StatusOK {
						ok.Add(1)
					}
				}
			}()
		}
		wg.Wait()
		return ok.Load()
	}

	var freeOK, entOK int64
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); freeOK = run("free-user", plan.TierFree, 400) }()
	go func() { defer wg.Done(); entOK = run("ent-user", plan.TierEnterprise, 400) }()
	wg.Wait()

	// Free tier bursts at 5, enterprise at 200.
	if freeOK > 50 {
		t.Errorf("free tier admitted too much: %d of 400", freeOK)
	}
	if entOK < 200 {
		t.Errorf("enterprise tier should admit at least its burst, got %d of 400", entOK)
	}
}

// TestRateLimitCleanupUnderChurn creates many distinct anonymous clients and
// verifies cleanup reclaims idle buckets.
func TestRateLimitCleanupUnderChurn(t *testing.T) {
	rl := middleware.NewRateLimiter(plan.DefaultMatrix(), 10, 10)
	handler := rl.Handler(okHandler())

	const clients = 5000
	for i := range clients {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.RemoteAddr = fmt.Sprintf("10.%d.%d.%d:1234", i>>16&0xff, i>>8&0xff, i&0xff)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	if rl.Len() == 0 {
		t.Fatal("expected tracked buckets before cleanup")
	}

	stop := rl.StartCleanup(10*time.Millisecond, time.Nanosecond)
	defer stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rl.Len() == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("cleanup did not reclaim idle buckets, %d remain", rl.Len())
}

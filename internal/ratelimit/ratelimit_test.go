package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/amishk599/priceask/internal/model"
)

func TestWait_SameHost_EnforcesMinDelay(t *testing.T) {
	limiter := NewHostRateLimiter(100 * time.Millisecond)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "hvakosterstrommen.no"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "hvakosterstrommen.no"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentHost_NoCrossBlocking(t *testing.T) {
	limiter := NewHostRateLimiter(200 * time.Millisecond)
	ctx := context.Background()

	// Call for the price API.
	if err := limiter.Wait(ctx, "hvakosterstrommen.no"); err != nil {
		t.Fatalf("price api wait: %v", err)
	}

	// Immediately call another host — should NOT block.
	start := time.Now()
	if err := limiter.Wait(ctx, "api.openai.com"); err != nil {
		t.Fatalf("other host wait: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed > 50*time.Millisecond {
		t.Errorf("expected other host wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewHostRateLimiter(5 * time.Second) // long delay
	ctx := context.Background()

	// First call to seed the last-call time.
	if err := limiter.Wait(ctx, "hvakosterstrommen.no"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	// Cancel the context before the wait completes.
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := limiter.Wait(ctx, "hvakosterstrommen.no")
	if err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

// --- Mock for RateLimitedFetcher test ---

type recordingFetcher struct {
	called bool
}

func (f *recordingFetcher) FetchDay(_ context.Context, _ time.Time, _ string) ([]model.PricePoint, error) {
	f.called = true
	return nil, nil
}

func TestRateLimitedFetcher_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewHostRateLimiter(100 * time.Millisecond)
	inner := &recordingFetcher{}
	fetcher := NewRateLimitedFetcher(inner, limiter, "hvakosterstrommen.no")
	ctx := context.Background()

	// First call — seeds limiter, then delegates.
	if _, err := fetcher.FetchDay(ctx, time.Now(), "NO1"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if !inner.called {
		t.Fatal("inner fetcher was not called on first fetch")
	}

	// Reset.
	inner.called = false

	// Second call — should wait for the rate limiter.
	start := time.Now()
	if _, err := fetcher.FetchDay(ctx, time.Now(), "NO1"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	elapsed := time.Since(start)

	if !inner.called {
		t.Fatal("inner fetcher was not called on second fetch")
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second fetch, got %v", elapsed)
	}
}

func TestWait_ConcurrentCallersAreSpaced(t *testing.T) {
	limiter := NewHostRateLimiter(50 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "hvakosterstrommen.no"); err != nil {
		t.Fatalf("seed wait: %v", err)
	}

	start := time.Now()
	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			limiter.Wait(ctx, "hvakosterstrommen.no")
			done <- struct{}{}
		}()
	}
	<-done
	<-done

	// Two queued callers need two slots: ~100ms in total.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms for two queued callers, got %v", elapsed)
	}
}

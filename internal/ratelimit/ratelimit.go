package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/priceask/internal/model"
)

// HostRateLimiter enforces a minimum delay between requests to the same upstream host.
type HostRateLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: upstream host
	minDelay time.Duration        // delay between requests to the same host
}

// NewHostRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same host.
func NewHostRateLimiter(minDelay time.Duration) *HostRateLimiter {
	return &HostRateLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to host.
// Returns an error if the context is cancelled while waiting.
func (r *HostRateLimiter) Wait(ctx context.Context, host string) error {
	r.mu.Lock()
	last, ok := r.lastCall[host]
	now := time.Now()

	if !ok {
		// First request for this host — no wait needed.
		r.lastCall[host] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= r.minDelay {
		r.lastCall[host] = now
		r.mu.Unlock()
		return nil
	}

	// Reserve the next slot before releasing the lock so concurrent callers
	// queue behind each other instead of all waking at once.
	next := last.Add(r.minDelay)
	r.lastCall[host] = next
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", host, ctx.Err())
	case <-time.After(time.Until(next)):
	}

	return nil
}

// RateLimitedFetcher is a decorator that enforces host-level rate limiting
// before delegating to the wrapped PriceFetcher.
type RateLimitedFetcher struct {
	inner   model.PriceFetcher
	limiter *HostRateLimiter
	host    string // which upstream this fetcher targets
}

// NewRateLimitedFetcher wraps a PriceFetcher with host-level rate limiting.
// All fetchers targeting the same host should share the same limiter instance.
func NewRateLimitedFetcher(inner model.PriceFetcher, limiter *HostRateLimiter, host string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
		host:    host,
	}
}

// FetchDay waits for the rate limiter to allow a request, then delegates to
// the wrapped fetcher.
func (f *RateLimitedFetcher) FetchDay(ctx context.Context, date time.Time, region string) ([]model.PricePoint, error) {
	if err := f.limiter.Wait(ctx, f.host); err != nil {
		return nil, err
	}
	return f.inner.FetchDay(ctx, date, region)
}

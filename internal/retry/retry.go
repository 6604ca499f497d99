// Package retry re-attempts price fetches that failed for transient reasons.
package retry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/amishk599/priceask/internal/model"
)

// Policy bounds how a failed fetch is re-attempted.
type Policy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// BaseDelay is the first backoff step; it doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps any single wait, a server Retry-After included.
	// Zero means uncapped.
	MaxDelay time.Duration
}

// outcome is what a failed attempt means for the next one.
type outcome int

const (
	giveUp outcome = iota
	backOff
	notPublished
)

func (o outcome) String() string {
	switch o {
	case backOff:
		return "transient"
	case notPublished:
		return "not published"
	default:
		return "final"
	}
}

// classify sorts a fetch error. A 404 means the day has no prices yet and is
// returned as is; the caller polls again later. A body that did not decode
// is final.
func classify(err error) outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return giveUp
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusNotFound:
			return notPublished
		case httpErr.StatusCode == http.StatusTooManyRequests, httpErr.StatusCode >= 500:
			return backOff
		default:
			return giveUp
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return giveUp
	}

	// network, DNS, truncated body
	return backOff
}

// RetryFetcher wraps a PriceFetcher and re-attempts transient failures.
type RetryFetcher struct {
	inner  model.PriceFetcher
	policy Policy
	logger *slog.Logger
}

// NewRetryFetcher wraps inner with policy. A negative MaxRetries is treated
// as zero.
func NewRetryFetcher(inner model.PriceFetcher, policy Policy, logger *slog.Logger) *RetryFetcher {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &RetryFetcher{inner: inner, policy: policy, logger: logger}
}

// FetchDay fetches one day for region. When every attempt fails the last
// error is returned, still unwrappable to its *model.HTTPError.
func (f *RetryFetcher) FetchDay(ctx context.Context, date time.Time, region string) ([]model.PricePoint, error) {
	for attempt := 0; ; attempt++ {
		points, err := f.inner.FetchDay(ctx, date, region)
		if err == nil {
			return points, nil
		}

		kind := classify(err)
		if kind != backOff {
			return nil, err
		}
		if attempt == f.policy.MaxRetries {
			return nil, fmt.Errorf("%s %s: gave up after %d attempts: %w",
				region, model.DateKey(date), attempt+1, err)
		}

		wait := f.wait(attempt+1, err)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			return nil, fmt.Errorf("%s %s: next attempt in %s is past the deadline: %w",
				region, model.DateKey(date), wait, err)
		}

		f.logger.Warn("price fetch failed, backing off",
			"region", region,
			"date", model.DateKey(date),
			"attempt", attempt+1,
			"max_retries", f.policy.MaxRetries,
			"wait", wait,
			"reason", kind,
			"error", err,
		)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-t.C:
		}
	}
}

// wait returns the pause before retry n (1-based): the server's Retry-After
// if it sent one, otherwise BaseDelay*2^(n-1) with ±30% jitter, capped at
// MaxDelay either way.
func (f *RetryFetcher) wait(n int, err error) time.Duration {
	var d time.Duration
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		d = httpErr.RetryAfter
	} else {
		d = f.policy.BaseDelay << (n - 1)
		d += time.Duration((rand.Float64()*2 - 1) * 0.3 * float64(d))
	}
	if f.policy.MaxDelay > 0 && d > f.policy.MaxDelay {
		d = f.policy.MaxDelay
	}
	return d
}

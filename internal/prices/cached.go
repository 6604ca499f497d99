package prices

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/priceask/internal/model"
)

// Ensure CachedFetcher implements model.PriceFetcher.
var _ model.PriceFetcher = (*CachedFetcher)(nil)

// CachedFetcher is a read-through cache in front of another PriceFetcher.
// Published days never change, so a hit is served without revalidation.
// Cache failures are logged and fall back to the wrapped fetcher.
type CachedFetcher struct {
	inner  model.PriceFetcher
	cache  model.PriceCache
	logger *slog.Logger
}

// NewCachedFetcher wraps inner with cache.
func NewCachedFetcher(inner model.PriceFetcher, cache model.PriceCache, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

// FetchDay returns the cached day when present, otherwise fetches and stores it.
func (f *CachedFetcher) FetchDay(ctx context.Context, date time.Time, region string) ([]model.PricePoint, error) {
	points, ok, err := f.cache.Get(ctx, date, region)
	if err != nil {
		f.logger.Warn("price cache read failed", "region", region, "date", model.DateKey(date), "error", err)
	} else if ok {
		f.logger.Debug("price cache hit", "region", region, "date", model.DateKey(date))
		return points, nil
	}

	points, err = f.inner.FetchDay(ctx, date, region)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Put(ctx, date, region, points); err != nil {
		f.logger.Warn("price cache write failed", "region", region, "date", model.DateKey(date), "error", err)
	}
	return points, nil
}

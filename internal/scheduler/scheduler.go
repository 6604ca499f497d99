package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/priceask/internal/model"
	"github.com/amishk599/priceask/internal/prices"
)

// Scheduler keeps the price cache warm: on every tick it fetches today's and
// tomorrow's prices for each region through a caching fetcher, then prunes
// old cache entries.
type Scheduler struct {
	fetcher   model.PriceFetcher
	cache     model.PriceCache
	regions   []string
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewScheduler creates a warmer for regions. fetcher should write through
// cache (see prices.CachedFetcher); cache is only used for pruning.
func NewScheduler(fetcher model.PriceFetcher, cache model.PriceCache, regions []string, interval, retention time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		fetcher:   fetcher,
		cache:     cache,
		regions:   regions,
		interval:  interval,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Run starts the warm loop. It runs one immediate cycle, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting price prefetch",
		"interval", s.interval.String(),
		"regions", s.regions,
	)

	s.warmAll(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down price prefetch")
			return nil
		case <-time.After(s.interval):
			s.warmAll(ctx)
		}
	}
}

// warmAll fetches today and tomorrow for each region sequentially.
func (s *Scheduler) warmAll(ctx context.Context) {
	today := prices.Today(s.now())
	days := []time.Time{today, today.AddDate(0, 0, 1)}

	for _, region := range s.regions {
		for i, day := range days {
			if ctx.Err() != nil {
				return
			}
			points, err := s.fetcher.FetchDay(ctx, day, region)
			switch {
			case err == nil:
				s.logger.Debug("prices warmed", "region", region, "date", model.DateKey(day), "points", len(points))
			case i > 0 && prices.IsNotPublished(err):
				// Next-day prices appear in the early afternoon.
				s.logger.Debug("tomorrow's prices not published yet", "region", region, "date", model.DateKey(day))
			default:
				s.logger.Error("price prefetch failed", "region", region, "date", model.DateKey(day), "error", err)
			}
		}
	}

	if s.retention > 0 {
		if err := s.cache.Cleanup(ctx, s.retention); err != nil {
			s.logger.Error("price cache cleanup failed", "error", err)
		}
	}
}

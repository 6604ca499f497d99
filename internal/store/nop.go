package store

import (
	"context"
	"time"

	"github.com/amishk599/priceask/internal/model"
)

// NopCache is used when prices.cache.type is "none". It never holds a day,
// so every lookup goes upstream.
type NopCache struct{}

func NewNopCache() *NopCache { return &NopCache{} }

func (NopCache) Get(context.Context, time.Time, string) ([]model.PricePoint, bool, error) {
	return nil, false, nil
}
func (NopCache) Put(context.Context, time.Time, string, []model.PricePoint) error { return nil }
func (NopCache) Cleanup(context.Context, time.Duration) error                   { return nil }
func (NopCache) Close() error                                                    { return nil }

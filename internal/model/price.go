package model

import (
	"context"
	"time"
)

// PricePoint is one hourly (or quarter-hourly) day-ahead spot price as
// published by hvakosterstrommen.no. Field names follow the upstream JSON.
type PricePoint struct {
	NOKPerKWh float64   `json:"NOK_per_kWh"`
	EURPerKWh float64   `json:"EUR_per_kWh"`
	EXR       float64   `json:"EXR"`
	TimeStart time.Time `json:"time_start"`
	TimeEnd   time.Time `json:"time_end"`
}

// PriceFetcher returns the day-ahead prices for one calendar day in one
// bidding zone (e.g. "NO1").
type PriceFetcher interface {
	FetchDay(ctx context.Context, date time.Time, region string) ([]PricePoint, error)
}

// PriceCache stores fetched days so repeated lookups skip the upstream API.
type PriceCache interface {
	Get(ctx context.Context, date time.Time, region string) ([]PricePoint, bool, error)
	Put(ctx context.Context, date time.Time, region string, points []PricePoint) error
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// DateKey formats date as the YYYY-MM-DD key used by caches and URLs.
func DateKey(date time.Time) string {
	return date.Format("2006-01-02")
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/priceask/internal/model"
)

// Ensure RedisCache implements model.PriceCache.
var _ model.PriceCache = (*RedisCache)(nil)

const redisKeyPrefix = "priceask:prices:"

// RedisCache keeps price days in Redis with a TTL, so several relay
// instances can share one cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redisURL (redis://...) and verifies the connection.
// Entries expire after ttl; zero means never.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func redisKey(date time.Time, region string) string {
	return redisKeyPrefix + region + ":" + model.DateKey(date)
}

// Get returns the stored points for the day, or ok=false when absent.
func (c *RedisCache) Get(ctx context.Context, date time.Time, region string) ([]model.PricePoint, bool, error) {
	raw, err := c.client.Get(ctx, redisKey(date, region)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading prices for %s %s: %w", region, model.DateKey(date), err)
	}

	var points []model.PricePoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, false, fmt.Errorf("decoding prices for %s %s: %w", region, model.DateKey(date), err)
	}
	return points, true, nil
}

// Put stores the points for the day with the cache TTL.
func (c *RedisCache) Put(ctx context.Context, date time.Time, region string, points []model.PricePoint) error {
	raw, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("encoding prices for %s %s: %w", region, model.DateKey(date), err)
	}
	if err := c.client.Set(ctx, redisKey(date, region), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("storing prices for %s %s: %w", region, model.DateKey(date), err)
	}
	return nil
}

// Cleanup is a no-op: Redis expires entries on its own.
func (c *RedisCache) Cleanup(context.Context, time.Duration) error { return nil }

// Close closes the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

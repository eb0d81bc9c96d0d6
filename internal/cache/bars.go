// Package cache provides a Redis read-through cache for bar history.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Alias1177/SignalEngine/internal/metrics"
	"github.com/Alias1177/SignalEngine/models"
	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Store is the subset of the Redis client used by the cache
type Store interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// Options configures a BarCache
type Options struct {
	// KeyPrefix namespaces keys, e.g. by provider and interval
	KeyPrefix string
	TTL       time.Duration
	Logger    zerolog.Logger
	Metrics   *metrics.ScanMetrics
}

// BarCache wraps a BarFetcher and serves recent history from Redis. Redis
// failures fall through to the wrapped fetcher.
type BarCache struct {
	next   models.BarFetcher
	store  Store
	opts   Options
	logger zerolog.Logger
}

// NewBarCache creates a read-through cache in front of next
func NewBarCache(next models.BarFetcher, store Store, opts Options) *BarCache {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "bars"
	}
	return &BarCache{
		next:   next,
		store:  store,
		opts:   opts,
		logger: opts.Logger.With().Str("component", "bar_cache").Logger(),
	}
}

// NewRedisClient opens a Redis client and checks the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (c *BarCache) key(symbol string) string {
	return c.opts.KeyPrefix + ":" + symbol
}

// FetchBars returns cached bars when present, otherwise fetches and stores them
func (c *BarCache) FetchBars(ctx context.Context, symbol string) (models.Series, error) {
	key := c.key(symbol)

	data, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var series models.Series
		jsonErr := json.Unmarshal(data, &series)
		if jsonErr == nil {
			c.opts.Metrics.CacheLookup("hit")
			return series, nil
		}
		c.logger.Warn().Err(jsonErr).Str("key", key).Msg("Discarding undecodable cache entry")
		c.opts.Metrics.CacheLookup("error")
	case errors.Is(err, goredis.Nil):
		c.opts.Metrics.CacheLookup("miss")
	default:
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		c.opts.Metrics.CacheLookup("error")
	}

	series, err := c.next.FetchBars(ctx, symbol)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(series)
	if err != nil {
		return series, nil
	}
	if err := c.store.Set(ctx, key, payload, c.opts.TTL).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return series, nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civic-desk/complaint-service/internal/domain"
)

const statsCacheKey = "complaints:stats:v1"

// StatsCache stores the last computed administrator overview.
type StatsCache interface {
	Get(ctx context.Context) (*domain.TicketStats, bool, error)
	Set(ctx context.Context, stats *domain.TicketStats) error
	Invalidate(ctx context.Context) error
}

type redisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatsCache returns a cache backed by client. A nil client yields a no-op cache.
func NewRedisStatsCache(client *redis.Client, ttl time.Duration) StatsCache {
	if client == nil || ttl <= 0 {
		return noopStatsCache{}
	}
	return &redisStatsCache{client: client, ttl: ttl}
}

func (c *redisStatsCache) Get(ctx context.Context) (*domain.TicketStats, bool, error) {
	raw, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stats domain.TicketStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, err
	}
	return &stats, true, nil
}

func (c *redisStatsCache) Set(ctx context.Context, stats *domain.TicketStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsCacheKey, raw, c.ttl).Err()
}

func (c *redisStatsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, statsCacheKey).Err()
}

type noopStatsCache struct{}

func (noopStatsCache) Get(context.Context) (*domain.TicketStats, bool, error) { return nil, false, nil }
func (noopStatsCache) Set(context.Context, *domain.TicketStats) error         { return nil }
func (noopStatsCache) Invalidate(context.Context) error                       { return nil }

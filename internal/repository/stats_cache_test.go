package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRedisClientGivesNoopCache(t *testing.T) {
	ctx := context.Background()
	cache := NewRedisStatsCache(nil, time.Minute)

	require.NoError(t, cache.Set(ctx, newTicketStats().TicketStats))
	stats, hit, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, stats)
	assert.NoError(t, cache.Invalidate(ctx))
}

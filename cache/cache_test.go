package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripease/aggregator"
	"tripease/config"
	"tripease/logger"
	"tripease/services"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, time.Minute, logger.NewTestLogger(t)), mr
}

func imageQuery() aggregator.Query {
	return aggregator.Query{Kind: aggregator.KindImage, Subject: "Bali", Limit: 3}
}

func liveOutcome() aggregator.Outcome[services.Image] {
	return aggregator.Outcome[services.Image]{
		Records: []services.Image{
			{ID: "1", URL: "https://img/1.jpg", SourceID: "unsplash"},
			{ID: "2", URL: "https://img/2.jpg", SourceID: "pexels"},
		},
		PartialFailures: []string{"pixabay"},
	}
}

func TestCache_StoreAndLoad(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	Store(ctx, c, imageQuery(), liveOutcome())

	got, ok := Load[services.Image](ctx, c, imageQuery())
	require.True(t, ok)
	assert.Equal(t, liveOutcome().Records, got.Records)
	assert.Equal(t, []string{"pixabay"}, got.PartialFailures)

	assert.Equal(t, time.Minute, mr.TTL(Key(imageQuery())))
}

func TestCache_SkipsFallbackOutcomes(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	out := liveOutcome()
	out.UsedFallback = true
	Store(ctx, c, imageQuery(), out)

	assert.False(t, mr.Exists(Key(imageQuery())))
	_, ok := Load[services.Image](ctx, c, imageQuery())
	assert.False(t, ok)
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	Store(ctx, c, imageQuery(), liveOutcome())
	mr.FastForward(2 * time.Minute)

	_, ok := Load[services.Image](ctx, c, imageQuery())
	assert.False(t, ok)
}

func TestCache_CorruptEntryIsDropped(t *testing.T) {
	c, mr := setupCache(t)
	key := Key(imageQuery())
	require.NoError(t, mr.Set(key, "{not json"))

	_, ok := Load[services.Image](context.Background(), c, imageQuery())
	assert.False(t, ok)
	assert.False(t, mr.Exists(key))
}

func TestCache_RedisDownIsMiss(t *testing.T) {
	c, mr := setupCache(t)
	mr.Close()

	Store(context.Background(), c, imageQuery(), liveOutcome())
	_, ok := Load[services.Image](context.Background(), c, imageQuery())
	assert.False(t, ok)
	assert.Error(t, c.Ping(context.Background()))
}

func TestCache_NilIsDisabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	assert.False(t, c.Enabled())
	Store(ctx, c, imageQuery(), liveOutcome())
	_, ok := Load[services.Image](ctx, c, imageQuery())
	assert.False(t, ok)
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(ctx))
}

func TestNewFromConfig_NoAddress(t *testing.T) {
	assert.Nil(t, NewFromConfig(config.RedisConfig{}, logger.NewNoOpLogger()))
}

func TestNewFromConfig_URL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := NewFromConfig(config.RedisConfig{Address: "redis://" + mr.Addr() + "/0", TTL: time.Minute}, logger.NewNoOpLogger())
	require.NotNil(t, c)
	t.Cleanup(func() { _ = c.Close() })
	assert.NoError(t, c.Ping(context.Background()))
}

func TestKey(t *testing.T) {
	bus := aggregator.Query{Kind: aggregator.KindBus, Subject: " Paris", Origin: "London", Date: "2026-06-01", Limit: 5}
	other := bus
	other.Origin = "Brussels"

	assert.Equal(t, "tripease:agg:bus-booking|paris|5|london|2026-06-01", Key(bus))
	assert.NotEqual(t, Key(bus), Key(other))

	place := aggregator.Query{Kind: aggregator.KindPlace, Subject: "48.85,2.35", Lat: 48.85, Lon: 2.35, RadiusMeters: 5000, Limit: 10}
	assert.Equal(t, "tripease:agg:place|48.85,2.35|10|48.8500|2.3500|5000", Key(place))
}

// Package cache keeps recent live aggregation results in Redis so repeated
// page loads do not hit every provider again. Fallback results are never
// stored. A nil *Cache is valid and behaves as an always-empty cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tripease/aggregator"
	"tripease/config"
	"tripease/logger"
)

const keyPrefix = "tripease:agg:"

// Entry is what gets stored per query.
type Entry[T any] struct {
	Records         []T       `json:"records"`
	PartialFailures []string  `json:"partialFailures"`
	StoredAt        time.Time `json:"storedAt"`
}

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, log: log}
}

// NewFromConfig dials Redis. It returns a nil Cache when no address is set.
func NewFromConfig(cfg config.RedisConfig, log logger.Logger) *Cache {
	if cfg.Address == "" {
		return nil
	}
	var opts *redis.Options
	if strings.HasPrefix(cfg.Address, "redis://") || strings.HasPrefix(cfg.Address, "rediss://") {
		parsed, err := redis.ParseURL(cfg.Address)
		if err != nil {
			log.Warn("invalid redis URL, cache disabled", map[string]interface{}{"error": err.Error()})
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 10
	opts.MinIdleConns = 2

	return New(redis.NewClient(opts), cfg.TTL, log)
}

// Enabled reports whether lookups can ever hit.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Ping tests the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("cache disabled")
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Key builds the cache key for q. Every field an adapter reads is part of it.
func Key(q aggregator.Query) string {
	parts := []string{
		string(q.Kind),
		strings.ToLower(strings.TrimSpace(q.Subject)),
		strconv.Itoa(q.Limit),
	}
	switch q.Kind {
	case aggregator.KindBus:
		parts = append(parts, strings.ToLower(strings.TrimSpace(q.Origin)), q.Date)
	case aggregator.KindPlace:
		parts = append(parts,
			strconv.FormatFloat(q.Lat, 'f', 4, 64),
			strconv.FormatFloat(q.Lon, 'f', 4, 64),
			strconv.Itoa(q.RadiusMeters))
	}
	return keyPrefix + strings.Join(parts, "|")
}

// Load returns the cached entry for q. Redis errors count as a miss.
func Load[T any](ctx context.Context, c *Cache, q aggregator.Query) (Entry[T], bool) {
	var e Entry[T]
	if !c.Enabled() {
		return e, false
	}
	key := Key(q)
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return e, false
	}
	if err := json.Unmarshal([]byte(val), &e); err != nil || len(e.Records) == 0 {
		c.log.Warn("discarding unreadable cache entry", map[string]interface{}{"key": key})
		_ = c.client.Del(ctx, key).Err()
		return Entry[T]{}, false
	}
	return e, true
}

// Store saves a live outcome for q. Fallback outcomes are skipped.
func Store[T aggregator.Record](ctx context.Context, c *Cache, q aggregator.Query, out aggregator.Outcome[T]) {
	if !c.Enabled() || out.UsedFallback || len(out.Records) == 0 {
		return
	}
	data, err := json.Marshal(Entry[T]{
		Records:         out.Records,
		PartialFailures: out.PartialFailures,
		StoredAt:        time.Now().UTC(),
	})
	if err != nil {
		c.log.Warn("cache encode failed", map[string]interface{}{"error": err.Error()})
		return
	}
	key := Key(q)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// Package cache is a Redis-backed read-through cache for list and detail
// queries, invalidated by key prefix after writes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stwalsh4118/brokerage/internal/logger"
)

// Key prefixes for cached query families.
const (
	PrefixPropertyList   = "properties:list:"
	PrefixPropertyDetail = "properties:detail:"
	PrefixChangeRequests = "change-requests:"
	PrefixReference      = "reference:"
	PrefixLeads          = "leads:"
)

// Store is the cache surface services depend on.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, prefixes ...string) error
}

// NewClient connects to the Redis server at redisURL.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// QueryCache stores JSON-encoded query results with a fixed TTL.
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewQueryCache creates a cache on client whose entries live for ttl.
func NewQueryCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *QueryCache {
	return &QueryCache{client: client, ttl: ttl, log: log}
}

// Get decodes the entry at key into dest and reports whether it was present.
func (c *QueryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value at key.
func (c *QueryCache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes every key starting with one of prefixes.
func (c *QueryCache) Invalidate(ctx context.Context, prefixes ...string) error {
	removed := 0
	for _, prefix := range prefixes {
		iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		var batch []string
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("cache scan %s: %w", prefix, err)
		}
		if len(batch) == 0 {
			continue
		}
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", prefix, err)
		}
		removed += len(batch)
	}

	if c.log != nil {
		c.log.Debug("Cache invalidated", map[string]interface{}{
			"prefixes": prefixes,
			"removed":  removed,
		})
	}
	return nil
}

// Key joins parts onto prefix.
func Key(prefix string, parts ...string) string {
	return prefix + strings.Join(parts, ":")
}

// Fetch returns the cached value at key, or calls load and caches its result.
// Cache failures degrade to calling load; they never fail the read.
func Fetch[T any](ctx context.Context, store Store, log *logger.Logger, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	hit, err := store.Get(ctx, key, &cached)
	if err != nil && log != nil {
		log.Warn("Cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	if hit {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if err := store.Set(ctx, key, value); err != nil && log != nil {
		log.Warn("Cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return value, nil
}

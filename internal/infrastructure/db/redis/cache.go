package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	keyNamespace = "memory:"
	scanBatch    = 100
	opTimeout    = 500 * time.Millisecond
)

// Cache is a JSON value cache on Redis. Every failure, including a nil
// client, is reported as a miss so callers fall back to the store.
type Cache struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewCache wraps client. A nil client yields a cache that always misses.
func NewCache(client *redis.Client, log zerolog.Logger) *Cache {
	return &Cache{client: client, log: log}
}

func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, keyNamespace+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry undecodable")
		return false
	}
	return true
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache value not encodable")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, keyNamespace+key, raw, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// DeletePrefix removes every key starting with prefix. SCAN is used rather
// than KEYS so large keyspaces do not block the server.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) {
	if c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*opTimeout)
	defer cancel()

	iter := c.client.Scan(ctx, 0, keyNamespace+prefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			c.del(ctx, batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Warn().Err(err).Str("prefix", prefix).Msg("cache scan failed")
	}
	if len(batch) > 0 {
		c.del(ctx, batch)
	}
}

func (c *Cache) del(ctx context.Context, keys []string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Int("keys", len(keys)).Msg("cache delete failed")
	}
}

// Ping reports backend health. A nil client counts as disabled, not failed.
func (c *Cache) Ping(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Enabled reports whether the cache has a backend.
func (c *Cache) Enabled() bool {
	return c.client != nil
}

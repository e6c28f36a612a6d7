package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by RedisCache.
const DefaultRedisPrefix = "library"

// RedisConfig configures the Redis cache backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string

	// Client reuses an existing client.
	Client *redis.Client
}

// RedisCache stores cache entries as JSON values with a TTL derived from ExpiresAt.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(config *RedisConfig) (*RedisCache, error) {
	if config == nil {
		return nil, ErrRedisConfigRequired
	}

	client := config.Client
	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:     config.Addr,
			Password: config.Password,
			DB:       config.DB,
		})
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	return &RedisCache{client: client, prefix: prefix}, nil
}

// Key returns the namespaced Redis key.
func (c *RedisCache) Key(key string) string {
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

// Get retrieves an entry.
func (c *RedisCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	data, err := c.client.Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("reading redis entry: %w", err)
	}

	var entry CacheEntry

	err = json.Unmarshal(data, &entry)
	if err != nil {
		return nil, fmt.Errorf("decoding redis entry: %w", err)
	}

	if entry.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: %s", ErrEntryExpired, key)
	}

	return &entry, nil
}

// Set stores an entry.
func (c *RedisCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding redis entry: %w", err)
	}

	var ttl time.Duration
	if !entry.ExpiresAt.IsZero() {
		ttl = time.Until(entry.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	err = c.client.Set(ctx, c.Key(key), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("writing redis entry: %w", err)
	}

	return nil
}

// Delete removes an entry.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	err := c.client.Del(ctx, c.Key(key)).Err()
	if err != nil {
		return fmt.Errorf("deleting redis entry: %w", err)
	}

	return nil
}

// Clear removes every key under the prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			return fmt.Errorf("deleting redis entry: %w", err)
		}
	}

	err := iter.Err()
	if err != nil {
		return fmt.Errorf("scanning redis keys: %w", err)
	}

	return nil
}

// Has checks if a live entry exists.
func (c *RedisCache) Has(ctx context.Context, key string) bool {
	n, err := c.client.Exists(ctx, c.Key(key)).Result()

	return err == nil && n > 0
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

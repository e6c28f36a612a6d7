package library

import (
	"context"
	"fmt"
)

// CacheType names a persistent backend for cached API envelopes.
type CacheType string

const (
	// CacheTypeMemory keeps entries for the life of the process.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS stores entries in a NATS JetStream key-value bucket.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeRedis stores entries in Redis.
	CacheTypeRedis CacheType = "redis"

	// CacheTypeNone disables persistence.
	CacheTypeNone CacheType = "none"
)

// DefaultCacheSize is the default number of entries kept by the memory backend.
const DefaultCacheSize = 256

// ParseCacheType validates a backend name. The empty string selects memory.
func ParseCacheType(value string) (CacheType, error) {
	switch cacheType := CacheType(value); cacheType {
	case "":
		return CacheTypeMemory, nil
	case CacheTypeMemory, CacheTypeNATS, CacheTypeRedis, CacheTypeNone:
		return cacheType, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCacheType, value)
	}
}

// CacheConfig selects and configures the backend.
type CacheConfig struct {
	Type CacheType

	// MaxEntries bounds the memory backend. Zero means DefaultCacheSize.
	MaxEntries int

	NATS  *NATSKVConfig
	Redis *RedisConfig
}

// DefaultCacheConfig returns a memory backend configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:       CacheTypeMemory,
		MaxEntries: DefaultCacheSize,
	}
}

// NewCacheFromConfig creates the backend described by config.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	cacheType, err := ParseCacheType(string(config.Type))
	if err != nil {
		return nil, err
	}

	switch cacheType {
	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(config.NATS)
	case CacheTypeRedis:
		if config.Redis == nil {
			return nil, ErrRedisConfigRequired
		}

		return NewRedisCache(config.Redis)
	case CacheTypeNone:
		return NewNoOpCache(), nil
	default:
		maxEntries := config.MaxEntries
		if maxEntries <= 0 {
			maxEntries = DefaultCacheSize
		}

		return NewMemoryCache(maxEntries), nil
	}
}

// NoOpCache stores nothing.
type NoOpCache struct{}

// NewNoOpCache creates a backend that disables persistence.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always reports ErrCacheDisabled.
func (c *NoOpCache) Get(context.Context, string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

// Set discards entry.
func (c *NoOpCache) Set(context.Context, string, *CacheEntry) error {
	return nil
}

// Delete does nothing.
func (c *NoOpCache) Delete(context.Context, string) error {
	return nil
}

// Clear does nothing.
func (c *NoOpCache) Clear(context.Context) error {
	return nil
}

// Has always returns false.
func (c *NoOpCache) Has(context.Context, string) bool {
	return false
}

package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/agoraboard/agora/pkg/config"
	"github.com/agoraboard/agora/pkg/logging"
)

// Cache wraps Redis client
type Cache struct {
	client *redis.Client
}

// New creates a new Redis cache client
func New(cfg *config.RedisConfig) (*Cache, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Redis cache disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetLogger().Info("Redis connection established")

	return &Cache{client: client}, nil
}

// namespaceKey prefixes keys with the application namespace
func (c *Cache) namespaceKey(key string) string {
	return "agora:" + key
}

// HashKey builds a stable cache key from its parts
func HashKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Get retrieves a value from cache
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if c == nil || c.client == nil {
		return "", ErrCacheDisabled
	}
	return c.client.Get(ctx, c.namespaceKey(key)).Result()
}

// Set sets a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	return c.client.Set(ctx, c.namespaceKey(key), value, ttl).Err()
}

// GetJSON retrieves a JSON-encoded value from cache
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dest)
}

// SetJSON stores a JSON-encoded value in cache with TTL
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}

// Delete removes a key from cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	return c.client.Del(ctx, c.namespaceKey(key)).Err()
}

// Exists checks if a key exists
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if c == nil || c.client == nil {
		return false, ErrCacheDisabled
	}
	count, err := c.client.Exists(ctx, c.namespaceKey(key)).Result()
	return count > 0, err
}

// incrWindowSrc increments and anchors the expiry window in one
// server-side step. The PTTL guard also heals counters that ended up
// without a TTL, so no key can rate-limit an actor forever.
const incrWindowSrc = `
local count = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count`

var incrWindowScript = redis.NewScript(incrWindowSrc)

// IncrWindow atomically increments a counter and starts its expiry
// window on the first hit. Callers compare the returned count against
// their budget.
func (c *Cache) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	if c == nil || c.client == nil {
		return 0, ErrCacheDisabled
	}
	return incrWindowScript.Run(ctx, c.client, []string{c.namespaceKey(key)}, window.Milliseconds()).Int64()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Health checks Redis health
func (c *Cache) Health(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	return c.client.Ping(ctx).Err()
}

var (
	// ErrCacheDisabled is returned when cache operations are attempted but cache is disabled
	ErrCacheDisabled = fmt.Errorf("cache is disabled")
)

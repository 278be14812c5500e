package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long a cached verdict is trusted.
const DefaultCacheTTL = 30 * 24 * time.Hour

// Cache stores oracle verdicts by token.
type Cache interface {
	// Get returns the verdict and whether one was cached.
	Get(ctx context.Context, token string) (verdict, found bool, err error)
	Set(ctx context.Context, token string, verdict bool, ttl time.Duration) error
}

// Cached memoizes a Lookup. Cache failures fall through to the underlying
// lookup; lookup errors are never cached.
type Cached struct {
	next   Lookup
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps next with cache.
func NewCached(next Lookup, cache Cache, ttl time.Duration, logger *slog.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Lookup implements Lookup.
func (c *Cached) Lookup(ctx context.Context, token string) (bool, error) {
	key := strings.ToLower(token)
	verdict, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("oracle cache read failed", "token", token, "error", err)
	} else if found {
		return verdict, nil
	}

	verdict, err = c.next.Lookup(ctx, token)
	if err != nil {
		return false, err
	}
	if err := c.cache.Set(ctx, key, verdict, c.ttl); err != nil {
		c.logger.Warn("oracle cache write failed", "token", token, "error", err)
	}
	return verdict, nil
}

// MemoryCache is a process-local Cache. Entries expire lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	verdict bool
	expires time.Time
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements Cache.
func (m *MemoryCache) Get(_ context.Context, token string) (bool, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[token]
	m.mu.RUnlock()
	if !ok || m.now().After(e.expires) {
		return false, false, nil
	}
	return e.verdict, true, nil
}

// Set implements Cache.
func (m *MemoryCache) Set(_ context.Context, token string, verdict bool, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[token] = memoryEntry{verdict: verdict, expires: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// redisKeyPrefix namespaces verdict keys.
const redisKeyPrefix = "edgar:oracle:given:"

// redisCmdable is the subset of the go-redis client used by RedisCache.
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache shares verdicts between processes through Redis.
type RedisCache struct {
	client redisCmdable
}

// NewRedisCache creates a cache on client. The client lifecycle is managed
// by the caller.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get implements Cache.
func (r *RedisCache) Get(ctx context.Context, token string) (bool, bool, error) {
	v, err := r.client.Get(ctx, redisKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("redis get: %w", err)
	}
	return v == "1", true, nil
}

// Set implements Cache.
func (r *RedisCache) Set(ctx context.Context, token string, verdict bool, ttl time.Duration) error {
	v := "0"
	if verdict {
		v = "1"
	}
	if err := r.client.Set(ctx, redisKeyPrefix+token, v, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// NewRedisClient connects to addr and verifies the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/model"
)

// Cache stores one collected aggregate per source set.
type Cache interface {
	Get(ctx context.Context, key string) ([]model.NewsItem, bool)
	Set(ctx context.Context, key string, items []model.NewsItem, ttl time.Duration)
}

// cacheKey identifies a source set independent of configuration order.
func cacheKey(feeds, queries []string) string {
	f := append([]string(nil), feeds...)
	q := append([]string(nil), queries...)
	sort.Strings(f)
	sort.Strings(q)
	return "feeds=" + strings.Join(f, ",") + ";queries=" + strings.Join(q, ",")
}

type memoryEntry struct {
	items   []model.NewsItem
	expires time.Time
}

// MemoryCache is a process-local TTL cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]model.NewsItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.items, true
}

func (c *MemoryCache) Set(_ context.Context, key string, items []model.NewsItem, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{items: items, expires: c.now().Add(ttl)}
	c.mu.Unlock()
}

const redisKeyPrefix = "moexsentinel:events:"

// RedisCache shares collected aggregates between processes.
// Redis failures degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisCache(cfg config.RedisConfig, log zerolog.Logger) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		log:    log,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]model.NewsItem, bool) {
	b, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("redis cache read failed")
		}
		return nil, false
	}
	var items []model.NewsItem
	if err := json.Unmarshal(b, &items); err != nil {
		c.log.Warn().Err(err).Msg("redis cache entry is corrupt")
		return nil, false
	}
	return items, true
}

func (c *RedisCache) Set(ctx context.Context, key string, items []model.NewsItem, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	b, err := json.Marshal(items)
	if err != nil {
		c.log.Warn().Err(err).Msg("redis cache encode failed")
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, b, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("redis cache write failed")
	}
}

func (c *RedisCache) Close() error { return c.client.Close() }

// NewCache picks the configured backend.
func NewCache(backend string, redisCfg config.RedisConfig, log zerolog.Logger) Cache {
	if backend == "redis" {
		return NewRedisCache(redisCfg, log)
	}
	return NewMemoryCache()
}

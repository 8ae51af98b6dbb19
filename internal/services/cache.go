package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/utils"
)

/*
ResponseCache is a best-effort Redis cache for read endpoints. A miss or a
Redis outage degrades to the database path; cache errors are logged and
swallowed, never surfaced to the caller.

Keys are namespaced per owner so one user's invalidation cannot evict
another's entries.
*/
type ResponseCache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any)
	// Invalidate removes every key under the given prefix.
	Invalidate(ctx context.Context, prefix string)
	Close() error
}

type responseCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewResponseCache(baseLog *logger.Logger) (ResponseCache, error) {
	log := baseLog.With("service", "ResponseCache")
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttl := time.Duration(utils.GetEnvAsInt("CACHE_TTL_SECONDS", 60, log)) * time.Second

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &responseCache{log: log, rdb: rdb, ttl: ttl}, nil
}

func (c *responseCache) Get(ctx context.Context, key string, dest any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Cache get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("Cache entry undecodable; dropping", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *responseCache) Set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("Cache set skipped; value not serializable", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("Cache set failed", "key", key, "error", err)
	}
}

func (c *responseCache) Invalidate(ctx context.Context, prefix string) {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("Cache invalidation scan failed", "prefix", prefix, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("Cache invalidation delete failed", "prefix", prefix, "error", err)
	}
}

func (c *responseCache) Close() error {
	return c.rdb.Close()
}

// noopCache stands in when Redis is not configured; reads always miss.
type noopCache struct{}

func NewNoopCache() ResponseCache { return noopCache{} }

func (noopCache) Get(context.Context, string, any) bool { return false }
func (noopCache) Set(context.Context, string, any)      {}
func (noopCache) Invalidate(context.Context, string)    {}
func (noopCache) Close() error                          { return nil }

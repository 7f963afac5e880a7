// Package rate implements fixed-window request limiting.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/socialgate/internal/cache"
	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func result(hits, max int64, ttl, window time.Duration) Result {
	res := Result{Allowed: hits <= max, Remaining: max - hits}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = ttl
		if res.RetryAfter <= 0 {
			res.RetryAfter = window
		}
	}
	return res
}

// RedisLimiter is a fixed window shared by every replica (INCR + EXPIRE).
type RedisLimiter struct {
	Client *rdb.Client
	Prefix string
	Max    int64
	Window time.Duration
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{Client: client, Prefix: prefix, Max: int64(max), Window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	winStart := time.Now().UTC().Truncate(l.Window)
	redisKey := fmt.Sprintf("%s%s:%d", l.Prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}
	left := ttl.Val()
	// first hit of the window owns the expiry
	if incr.Val() == 1 {
		if err := l.Client.Expire(ctx, redisKey, l.Window).Err(); err != nil {
			return Result{}, err
		}
		left = l.Window
	}
	return result(incr.Val(), l.Max, left, l.Window), nil
}

// MemoryLimiter is the single-process fallback used with the memory cache.
type MemoryLimiter struct {
	cache  *cache.Memory
	max    int64
	window time.Duration
}

func NewMemoryLimiter(c *cache.Memory, max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{cache: c, max: int64(max), window: window}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	hits, ttl := l.cache.Incr("rl:"+key, l.window)
	return result(hits, l.max, ttl, l.window), nil
}

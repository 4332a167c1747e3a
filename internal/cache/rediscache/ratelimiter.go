package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// RateLimiter ограничивает частоту submit-запросов по ключу клиента.
// Делит соединение с кэшем.
type RateLimiter struct {
	cache  *RedisCache
	limit  int64
	window time.Duration
}

func NewRateLimiter(cache *RedisCache, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{cache: cache, limit: limit, window: window}
}

// Allow делает INCR по ключу и ставит TTL, если ключ создаётся впервые.
// Возвращает (allowed, currentCount).
func (rl *RateLimiter) Allow(ctx context.Context, clientKey string) (bool, int64, error) {
	key := fmt.Sprintf("ratelimit:submit:%s", clientKey)

	pipe := rl.cache.c.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	n := incr.Val()
	return n <= rl.limit, n, nil
}

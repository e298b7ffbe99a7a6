package security

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"llaveo.org/internal/obs"
)

// RedisLimiter is a fixed-window limiter shared across instances. INCR with
// an expiry set on the first hit gives the same window semantics as
// MemoryLimiter with the count held centrally.
//
// Redis errors fail open: a broken limiter backend should degrade
// enforcement, not availability.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
}

// RedisOption configures RedisLimiter.
type RedisOption func(*RedisLimiter)

// WithPrefix overrides the key namespace.
func WithPrefix(prefix string) RedisOption {
	return func(l *RedisLimiter) {
		l.prefix = strings.Trim(prefix, ":")
	}
}

// NewRedisLimiter wraps an existing redis client.
func NewRedisLimiter(rdb *redis.Client, opts ...RedisOption) *RedisLimiter {
	l := &RedisLimiter{
		rdb:    rdb,
		prefix: "ratelimit",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string, max int, window time.Duration) bool {
	if max <= 0 || window <= 0 {
		return false
	}

	fullKey := l.prefix + ":" + key

	pipe := l.rdb.Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	// NX keeps the original window start; later hits must not extend it.
	pipe.ExpireNX(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		obs.Log("error", "rate_limit_backend_error", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
		return true
	}
	return incr.Val() <= int64(max)
}

var _ Limiter = (*RedisLimiter)(nil)
var _ Limiter = (*MemoryLimiter)(nil)

package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests in Redis so the ceiling holds across
// processes. INCR is atomic; the first increment in a window sets the TTL.
// Any Redis failure fails open: the request is allowed and the error logged.
type RedisLimiter struct {
	client *redis.Client
}

// NewRedisLimiter returns a limiter backed by the given Redis client.
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// NewRedisLimiterFromURL parses url (e.g. redis://localhost:6379/0), connects,
// and verifies the connection with a ping.
func NewRedisLimiterFromURL(url string) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisLimiter{client: client}, nil
}

// Close closes the underlying Redis client.
func (l *RedisLimiter) Close() error { return l.client.Close() }

// Allow increments the window counter for key and reports whether it is
// within rule.Max. Fails open on any Redis error.
func (l *RedisLimiter) Allow(ctx context.Context, key string, rule Rule) bool {
	if rule.Max <= 0 || rule.Window <= 0 {
		return true
	}
	count, err := l.client.Incr(ctx, "ratelimit:"+key).Result()
	if err != nil {
		log.Printf("ratelimit: redis incr failed, allowing request: %v", err)
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, "ratelimit:"+key, rule.Window).Err(); err != nil {
			log.Printf("ratelimit: redis expire failed: %v", err)
		}
	}
	return count <= int64(rule.Max)
}

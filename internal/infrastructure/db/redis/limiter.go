package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/userauth/auth-service/internal/core/ports"
)

// RateLimiter implements ports.RateLimiter as a fixed-window request counter backed by Redis.
// Key format: ratelimit:<route>:<client>
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

var _ ports.RateLimiter = (*RateLimiter)(nil)

// NewRateLimiter allows limit requests per client per window.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: int64(limit), window: window}
}

// Allow counts one request for client on route.
func (l *RateLimiter) Allow(ctx context.Context, route, client string) (ports.RateDecision, error) {
	key := l.key(route, client)

	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return ports.RateDecision{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit ttl: %w", err)
	}
	// A key left without expiry by a failed EXPIRE would never reset.
	if ttl < 0 {
		_ = l.client.Expire(ctx, key, l.window).Err()
		ttl = l.window
	}

	return decide(n, l.limit, ttl), nil
}

func decide(count, limit int64, ttl time.Duration) ports.RateDecision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return ports.RateDecision{Allowed: count <= limit, Remaining: remaining, ResetIn: ttl}
}

// Limit is the configured per-window allowance.
func (l *RateLimiter) Limit() int64 { return l.limit }

func (l *RateLimiter) key(route, client string) string {
	return fmt.Sprintf("ratelimit:%s:%s", route, client)
}

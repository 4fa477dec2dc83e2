package ports

import (
	"context"
	"time"
)

// RateDecision is the outcome of counting one request.
type RateDecision struct {
	Allowed   bool
	Remaining int64
	ResetIn   time.Duration
}

// RateLimiter counts requests per route and client in a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, route, client string) (RateDecision, error)
	// Limit is the per-window allowance.
	Limit() int64
}

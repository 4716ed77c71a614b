package ratelimit

import "context"

// Limiter checks and consumes one request's worth of budget for key.
type Limiter struct {
	store  Store
	config Config
}

func NewLimiter(store Store, config Config) *Limiter {
	return &Limiter{store: store, config: config}
}

// Allow consumes a single token for key and reports the outcome.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	remaining, resetAt, err := l.store.ConsumeTokens(ctx, key, 1, l.config)
	if err != nil {
		return Result{}, err
	}
	return Result{Limit: l.config.Capacity, Remaining: remaining, ResetAt: resetAt}, nil
}

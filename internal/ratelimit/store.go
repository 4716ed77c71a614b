package ratelimit

import (
	"context"
	"time"
)

// Store is the token-bucket backend. A Redis-backed implementation
// (RedisStore) is what the gateway runs in production, so that every
// gateway replica shares one bucket per tenant; MemoryStore exists for
// single-process tests.
type Store interface {
	// ConsumeTokens attempts to take n tokens from key's bucket,
	// refilling it first according to config. remaining may be
	// negative, meaning the request should be denied.
	ConsumeTokens(ctx context.Context, key string, n int, config Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

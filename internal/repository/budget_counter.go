package repository

import (
	"context"
	"time"
)

// BudgetCounterStore is the atomic counter primitive backing the alert
// budget limiter. IncrBy must be an indivisible increment-and-read against
// the shared store so concurrent callers never observe stale totals.
type BudgetCounterStore interface {
	IncrBy(ctx context.Context, key string, amount int64) (int64, error)
	// ExpireIfUnset sets a TTL on the key only if it has none yet, so a
	// bucket's lifetime is fixed from its first increment.
	ExpireIfUnset(ctx context.Context, key string, ttl time.Duration) error
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/magnus-flipper/sniper-service/internal/repository"
	"github.com/redis/go-redis/v9"
)

type budgetCounterStore struct {
	client *redis.Client
}

// NewBudgetCounterStore exposes Redis INCRBY/EXPIRE NX as the atomic counter
// primitive the budget limiter needs. INCRBY is a single indivisible
// increment-and-read, so concurrent callers never base a decision on a stale
// total.
func NewBudgetCounterStore(client *redis.Client) repository.BudgetCounterStore {
	return &budgetCounterStore{client: client}
}

func (s *budgetCounterStore) IncrBy(ctx context.Context, key string, amount int64) (int64, error) {
	total, err := s.client.IncrBy(ctx, key, amount).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment budget counter %s: %w", key, err)
	}
	return total, nil
}

func (s *budgetCounterStore) ExpireIfUnset(ctx context.Context, key string, ttl time.Duration) error {
	// NX keeps the bucket's lifetime anchored to its first increment.
	if err := s.client.ExpireNX(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set expiry on budget counter %s: %w", key, err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCounterStore is an in-process BudgetCounterStore. err makes every call
// fail, mimicking a lost Redis connection.
type fakeCounterStore struct {
	counts map[string]int64
	ttls   map[string]time.Duration
	err    error
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{
		counts: make(map[string]int64),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeCounterStore) IncrBy(ctx context.Context, key string, amount int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key] += amount
	return f.counts[key], nil
}

func (f *fakeCounterStore) ExpireIfUnset(ctx context.Context, key string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if _, set := f.ttls[key]; !set {
		f.ttls[key] = ttl
	}
	return nil
}

// newTestLimiter pins the clock so a test never straddles a minute boundary.
func newTestLimiter(store *fakeCounterStore, cfg BudgetLimiterConfig) *budgetLimiter {
	limiter := NewBudgetLimiter(store, NewNoOpLogger(), nil, cfg).(*budgetLimiter)
	frozen := time.Date(2025, 6, 1, 10, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return frozen }
	return limiter
}

func TestBudgetLimiter_DeniesCallPastLimit(t *testing.T) {
	store := newFakeCounterStore()
	limiter := newTestLimiter(store, BudgetLimiterConfig{RatePerMin: 60, BurstMultiplier: 1})

	ctx := context.Background()
	for i := 0; i < 60; i++ {
		decision := limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1)
		assert.True(t, decision.Allowed, "call %d should be within budget", i+1)
	}

	decision := limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(61), decision.Used)
	assert.Equal(t, int64(0), decision.Remaining)
}

func TestBudgetLimiter_UsedCountIsMonotonic(t *testing.T) {
	store := newFakeCounterStore()
	limiter := newTestLimiter(store, BudgetLimiterConfig{RatePerMin: 5, BurstMultiplier: 1})

	ctx := context.Background()
	var lastUsed int64
	for i := 0; i < 10; i++ {
		decision := limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1)
		assert.Greater(t, decision.Used, lastUsed)
		lastUsed = decision.Used
	}
	// Denied calls still count, so retry storms cannot sneak back under.
	assert.Equal(t, int64(10), lastUsed)
}

func TestBudgetLimiter_BurstMultiplierRaisesCap(t *testing.T) {
	store := newFakeCounterStore()
	limiter := newTestLimiter(store, BudgetLimiterConfig{RatePerMin: 60, BurstMultiplier: 2})

	ctx := context.Background()
	for i := 0; i < 120; i++ {
		decision := limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1)
		assert.True(t, decision.Allowed, "call %d should be within burst cap", i+1)
	}

	decision := limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(120), decision.Cap)
	assert.Equal(t, int64(60), decision.Limit)
}

func TestBudgetLimiter_WindowRollsOverByMinute(t *testing.T) {
	store := newFakeCounterStore()
	limiter := newTestLimiter(store, BudgetLimiterConfig{RatePerMin: 2, BurstMultiplier: 1})

	now := time.Date(2025, 6, 1, 10, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	assert.True(t, limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1).Allowed)
	assert.True(t, limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1).Allowed)
	assert.False(t, limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1).Allowed)

	now = now.Add(time.Minute)
	decision := limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1)
	assert.True(t, decision.Allowed)
	assert.Equal(t, int64(1), decision.Used)
}

func TestBudgetLimiter_OrganizationsAreIsolated(t *testing.T) {
	store := newFakeCounterStore()
	limiter := newTestLimiter(store, BudgetLimiterConfig{RatePerMin: 1, BurstMultiplier: 1})

	ctx := context.Background()
	assert.True(t, limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1).Allowed)
	assert.False(t, limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1).Allowed)
	assert.True(t, limiter.TakeTokens(ctx, BudgetKindAlerts, "org-2", 1).Allowed)
}

func TestBudgetLimiter_StoreFailureDenies(t *testing.T) {
	store := newFakeCounterStore()
	store.err = errors.New("connection refused")
	limiter := newTestLimiter(store, BudgetLimiterConfig{RatePerMin: 60, BurstMultiplier: 1})

	decision := limiter.TakeTokens(context.Background(), BudgetKindAlerts, "org-1", 1)

	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(0), decision.Remaining)
	assert.Greater(t, decision.Used, decision.Limit)
}

func TestBudgetLimiter_BucketExpirySetOnce(t *testing.T) {
	store := newFakeCounterStore()
	limiter := newTestLimiter(store, BudgetLimiterConfig{RatePerMin: 60, BurstMultiplier: 1, BucketExpiry: 90 * time.Second})

	now := time.Date(2025, 6, 1, 10, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1)
	limiter.TakeTokens(ctx, BudgetKindAlerts, "org-1", 1)

	require.Len(t, store.ttls, 1)
	for _, ttl := range store.ttls {
		assert.Equal(t, 90*time.Second, ttl)
	}
}

func TestBudgetLimiter_ZeroRateFallsBackToDefault(t *testing.T) {
	store := newFakeCounterStore()
	limiter := newTestLimiter(store, BudgetLimiterConfig{})

	decision := limiter.TakeTokens(context.Background(), BudgetKindAlerts, "org-1", 1)

	assert.True(t, decision.Allowed)
	assert.Equal(t, int64(60), decision.Limit)
}

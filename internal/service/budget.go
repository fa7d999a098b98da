package service

import (
	"context"
	"fmt"
	"time"

	"github.com/magnus-flipper/sniper-service/internal/platform/logger"
	"github.com/magnus-flipper/sniper-service/internal/platform/metrics"
	"github.com/magnus-flipper/sniper-service/internal/repository"
)

const (
	BudgetKindAlerts = "alerts"
)

// BudgetDecision reports the result of one token take. Used counts the
// bucket total after the increment; Remaining is headroom below the cap.
type BudgetDecision struct {
	Allowed   bool
	Used      int64
	Remaining int64
	Limit     int64
	Cap       int64
}

// BudgetLimiter enforces a per-minute alert budget per (kind, organization).
// Increments count even when they push past the cap, so retry storms cannot
// free-ride under the limit. A store failure is a denial: unmetered traffic
// on infra failure is the worse failure mode for a rate limiter.
type BudgetLimiter interface {
	TakeTokens(ctx context.Context, kind, orgID string, amount int64) BudgetDecision
}

type budgetLimiter struct {
	store        repository.BudgetCounterStore
	log          logger.Logger
	metrics      *metrics.PipelineMetrics
	limit        int64
	burst        float64
	bucketExpiry time.Duration
	now          func() time.Time
}

type BudgetLimiterConfig struct {
	RatePerMin      int
	BurstMultiplier float64
	BucketExpiry    time.Duration
}

const (
	defaultBudgetRatePerMin = 60
	minBucketExpiry         = 60 * time.Second
)

func NewBudgetLimiter(store repository.BudgetCounterStore, log logger.Logger, m *metrics.PipelineMetrics, cfg BudgetLimiterConfig) BudgetLimiter {
	limit := int64(cfg.RatePerMin)
	if limit <= 0 {
		limit = defaultBudgetRatePerMin
	}
	expiry := cfg.BucketExpiry
	if expiry < minBucketExpiry {
		expiry = 90 * time.Second
	}
	return &budgetLimiter{
		store:        store,
		log:          log,
		metrics:      m,
		limit:        limit,
		burst:        cfg.BurstMultiplier,
		bucketExpiry: expiry,
		now:          time.Now,
	}
}

func (l *budgetLimiter) TakeTokens(ctx context.Context, kind, orgID string, amount int64) BudgetDecision {
	capacity := l.capacity()

	key := l.bucketKey(kind, orgID)
	used, err := l.store.IncrBy(ctx, key, amount)
	if err != nil {
		// Fail closed: an unconfirmed increment is treated as over budget.
		l.log.Errorf("Budget counter increment failed for %s, denying: %v", key, err)
		l.metrics.ObserveBudgetDenied(kind)
		return BudgetDecision{Allowed: false, Used: l.limit + 1, Remaining: 0, Limit: l.limit, Cap: capacity}
	}

	if err := l.store.ExpireIfUnset(ctx, key, l.bucketExpiry); err != nil {
		// The count is already applied; a missed expiry only delays cleanup.
		l.log.Warnf("Failed to set expiry on budget bucket %s: %v", key, err)
	}

	decision := BudgetDecision{
		Allowed:   used <= capacity,
		Used:      used,
		Remaining: max64(0, capacity-used),
		Limit:     l.limit,
		Cap:       capacity,
	}
	if !decision.Allowed {
		l.metrics.ObserveBudgetDenied(kind)
	}
	return decision
}

func (l *budgetLimiter) capacity() int64 {
	burst := l.burst
	if burst < 1 {
		burst = 1
	}
	return int64(float64(l.limit) * burst)
}

func (l *budgetLimiter) bucketKey(kind, orgID string) string {
	minute := l.now().UTC().Unix() / 60
	return fmt.Sprintf("budget:%s:%s:%d", kind, orgID, minute)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

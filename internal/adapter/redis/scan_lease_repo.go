package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/magnus-flipper/sniper-service/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	scanLeaseKeyPrefix = "scanlock:"
)

type scanLeaseRepository struct {
	client *redis.Client
}

// NewScanLeaseRepository implements the per-profile scan lock with SET NX
// plus a TTL, so a crashed worker releases its lease by expiry.
func NewScanLeaseRepository(client *redis.Client) repository.ScanLease {
	return &scanLeaseRepository{client: client}
}

func (r *scanLeaseRepository) getKey(profileID string) string {
	return scanLeaseKeyPrefix + profileID
}

func (r *scanLeaseRepository) Acquire(ctx context.Context, profileID string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.getKey(profileID), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire scan lease for profile %s: %w", profileID, err)
	}
	return ok, nil
}

func (r *scanLeaseRepository) Release(ctx context.Context, profileID string) error {
	if err := r.client.Del(ctx, r.getKey(profileID)).Err(); err != nil {
		return fmt.Errorf("failed to release scan lease for profile %s: %w", profileID, err)
	}
	return nil
}

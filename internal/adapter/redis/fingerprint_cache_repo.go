package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/magnus-flipper/sniper-service/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	fingerprintKeyPrefix = "fingerprint:"
)

type fingerprintCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFingerprintCacheRepository backs the fingerprint cache with Redis so
// every analyzer worker classifies against the same last-seen snapshots.
// A zero ttl disables eviction.
func NewFingerprintCacheRepository(client *redis.Client, ttl time.Duration) repository.FingerprintCache {
	return &fingerprintCacheRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *fingerprintCacheRepository) getKey(marketplace entity.Marketplace, scopeID, fingerprint string) string {
	return fmt.Sprintf("%s%s:%s:%s", fingerprintKeyPrefix, marketplace, scopeID, fingerprint)
}

func (r *fingerprintCacheRepository) getLatestKey(marketplace entity.Marketplace, scopeID, externalID, day string) string {
	return fmt.Sprintf("%s%s:%s:latest:%s:%s", fingerprintKeyPrefix, marketplace, scopeID, externalID, day)
}

func (r *fingerprintCacheRepository) Get(ctx context.Context, marketplace entity.Marketplace, scopeID, fingerprint string) (*entity.ScoredListing, error) {
	return r.getListing(ctx, r.getKey(marketplace, scopeID, fingerprint))
}

func (r *fingerprintCacheRepository) GetDayLatest(ctx context.Context, marketplace entity.Marketplace, scopeID, externalID, day string) (*entity.ScoredListing, error) {
	return r.getListing(ctx, r.getLatestKey(marketplace, scopeID, externalID, day))
}

func (r *fingerprintCacheRepository) getListing(ctx context.Context, key string) (*entity.ScoredListing, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}

	var listing entity.ScoredListing
	if err := json.Unmarshal([]byte(val), &listing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached listing for %s: %w", key, err)
	}
	return &listing, nil
}

func (r *fingerprintCacheRepository) Set(ctx context.Context, marketplace entity.Marketplace, scopeID, fingerprint string, listing *entity.ScoredListing) error {
	if listing == nil || fingerprint == "" {
		return errors.New("cannot cache nil listing or empty fingerprint")
	}

	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to marshal listing %s: %w", listing.ExternalID, err)
	}

	key := r.getKey(marketplace, scopeID, fingerprint)
	latestKey := r.getLatestKey(marketplace, scopeID, listing.ExternalID, listing.ObservationDay())

	// Both keys go in one pipeline; per-key last-write-wins is acceptable
	// because scans of one profile never run concurrently.
	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, data, r.ttl)
	pipe.Set(ctx, latestKey, data, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set fingerprint %s to redis: %w", key, err)
	}
	return nil
}

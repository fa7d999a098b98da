package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/magnus-flipper/sniper-service/internal/platform/logger"
	"github.com/magnus-flipper/sniper-service/internal/platform/metrics"
	"github.com/magnus-flipper/sniper-service/internal/repository"
)

// ChangeDetector classifies freshly scored listings against the fingerprint
// cache into NEW, PRICE_DROP, or unchanged. Listings are classified
// independently, so the outcome of a batch does not depend on its order.
type ChangeDetector interface {
	DetectChanges(ctx context.Context, marketplace entity.Marketplace, scopeID string, listings []entity.ScoredListing) (*ChangeResult, error)
}

// ChangeResult holds the events of one scan cycle plus per-listing failures.
// A failure means the listing's classification is unknown this cycle — it is
// skipped, never guessed as NEW.
type ChangeResult struct {
	Events   []entity.ChangeEvent
	Failures []ListingFailure
}

type ListingFailure struct {
	ExternalID string
	Err        error
}

type changeDetector struct {
	cache   repository.FingerprintCache
	log     logger.Logger
	metrics *metrics.PipelineMetrics
}

func NewChangeDetector(cache repository.FingerprintCache, log logger.Logger, m *metrics.PipelineMetrics) ChangeDetector {
	return &changeDetector{
		cache:   cache,
		log:     log,
		metrics: m,
	}
}

func (d *changeDetector) DetectChanges(ctx context.Context, marketplace entity.Marketplace, scopeID string, listings []entity.ScoredListing) (*ChangeResult, error) {
	if scopeID == "" {
		return nil, errors.New("scope ID cannot be empty")
	}

	deduped := dedupeByIdentity(listings)

	result := &ChangeResult{}
	for i := range deduped {
		event, err := d.classify(ctx, marketplace, scopeID, &deduped[i])
		if err != nil {
			d.log.Warnf("Skipping listing %s in scope %s, classification failed: %v", deduped[i].ExternalID, scopeID, err)
			result.Failures = append(result.Failures, ListingFailure{ExternalID: deduped[i].ExternalID, Err: err})
			d.metrics.ObserveListingFailed()
			continue
		}
		if event != nil {
			result.Events = append(result.Events, *event)
		}
		d.metrics.ObserveListingClassified(event)
	}
	return result, nil
}

// classify runs the per-listing state machine. A fingerprint hit means the
// exact (identity, price, day) triple was already seen: unchanged, no event,
// and no cache refresh since the fingerprint already encodes the day. On a
// miss the day-scoped identity pointer tells a genuinely new listing apart
// from one whose price moved: absent means NEW, a lower price means
// PRICE_DROP, an equal or higher price means unchanged.
func (d *changeDetector) classify(ctx context.Context, marketplace entity.Marketplace, scopeID string, listing *entity.ScoredListing) (*entity.ChangeEvent, error) {
	if err := listing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid listing: %w", err)
	}

	fingerprint := ComputeFingerprint(listing.Listing)
	cached, err := d.cache.Get(ctx, marketplace, scopeID, fingerprint)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("cache lookup failed: %w", err)
	}
	if cached != nil {
		return nil, nil
	}

	previous, err := d.cache.GetDayLatest(ctx, marketplace, scopeID, listing.ExternalID, listing.ObservationDay())
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("cache identity lookup failed: %w", err)
	}

	if previous == nil {
		if err := d.cache.Set(ctx, marketplace, scopeID, fingerprint, listing); err != nil {
			return nil, fmt.Errorf("cache write failed: %w", err)
		}
		return &entity.ChangeEvent{Kind: entity.ChangeKindNew, Listing: *listing}, nil
	}

	if listing.Price < previous.Price {
		if err := d.cache.Set(ctx, marketplace, scopeID, fingerprint, listing); err != nil {
			return nil, fmt.Errorf("cache overwrite failed: %w", err)
		}
		return &entity.ChangeEvent{Kind: entity.ChangeKindPriceDrop, Listing: *listing, PreviousListing: previous}, nil
	}

	return nil, nil
}

// dedupeByIdentity collapses repeated observations of one listing within a
// batch, keeping the lowest-priced one. Classifying duplicates separately
// would let the first write shadow the rest, making the emitted events
// depend on batch order. Listings without an external ID pass through so
// each still surfaces its own validation failure.
func dedupeByIdentity(listings []entity.ScoredListing) []entity.ScoredListing {
	deduped := make([]entity.ScoredListing, 0, len(listings))
	index := make(map[string]int, len(listings))
	for i := range listings {
		if listings[i].ExternalID == "" {
			deduped = append(deduped, listings[i])
			continue
		}
		key := fmt.Sprintf("%s|%s", listings[i].ExternalID, listings[i].ObservationDay())
		at, seen := index[key]
		if !seen {
			index[key] = len(deduped)
			deduped = append(deduped, listings[i])
			continue
		}
		if listings[i].Price < deduped[at].Price {
			deduped[at] = listings[i]
		}
	}
	return deduped
}

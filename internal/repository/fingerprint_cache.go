package repository

import (
	"context"

	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
)

// FingerprintCache is the content-addressed last-seen-listing store the
// change detector classifies against. It must be backed by a store shared by
// all analyzer workers; an in-process map is only acceptable in tests.
//
// Alongside the fingerprint entries the cache maintains a day-scoped pointer
// to the latest snapshot per listing identity. A price change produces a new
// fingerprint, so the pointer is what lets the detector find the previous
// price instead of mistaking every drop for a new listing.
type FingerprintCache interface {
	// Get returns the cached snapshot for a fingerprint, or ErrNotFound.
	Get(ctx context.Context, marketplace entity.Marketplace, scopeID, fingerprint string) (*entity.ScoredListing, error)
	// GetDayLatest returns the most recent snapshot written for a listing
	// identity on the given UTC day, or ErrNotFound.
	GetDayLatest(ctx context.Context, marketplace entity.Marketplace, scopeID, externalID, day string) (*entity.ScoredListing, error)
	// Set writes the snapshot under its fingerprint and updates the
	// day-scoped identity pointer. A Get immediately after Set with the same
	// key must return the just-written listing.
	Set(ctx context.Context, marketplace entity.Marketplace, scopeID, fingerprint string, listing *entity.ScoredListing) error
}

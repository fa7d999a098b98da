package entity

import (
	"errors"
	"time"
)

type Marketplace string

const (
	MarketplaceFacebook   Marketplace = "facebook"
	MarketplaceEbay       Marketplace = "ebay"
	MarketplaceGumtree    Marketplace = "gumtree"
	MarketplaceVinted     Marketplace = "vinted"
	MarketplaceCraigslist Marketplace = "craigslist"
)

func (m Marketplace) IsValid() bool {
	switch m {
	case MarketplaceFacebook, MarketplaceEbay, MarketplaceGumtree, MarketplaceVinted, MarketplaceCraigslist:
		return true
	}
	return false
}

type DemandVelocity string

const (
	DemandVelocityLow    DemandVelocity = "LOW"
	DemandVelocityMedium DemandVelocity = "MEDIUM"
	DemandVelocityHigh   DemandVelocity = "HIGH"
)

// Listing is a single marketplace item observation as produced by a crawler.
// It is immutable once scored; a later observation of the same item is a new
// Listing, never a mutation of an old one.
type Listing struct {
	Marketplace  Marketplace `json:"marketplace" bson:"marketplace"`
	ExternalID   string      `json:"external_id" bson:"external_id"`
	Title        string      `json:"title" bson:"title"`
	Price        float64     `json:"price" bson:"price"`
	Currency     string      `json:"currency" bson:"currency"`
	Location     string      `json:"location" bson:"location"`
	URL          string      `json:"url" bson:"url"`
	ThumbnailURL string      `json:"thumbnail_url" bson:"thumbnail_url"`
	SellerScore  *float64    `json:"seller_score,omitempty" bson:"seller_score,omitempty"`
	ObservedAt   time.Time   `json:"observed_at" bson:"observed_at"`
}

// ObservationDay is the day-granularity component of the listing's
// fingerprint, formatted as a UTC date.
func (l *Listing) ObservationDay() string {
	if l.ObservedAt.IsZero() {
		return "no-timestamp"
	}
	return l.ObservedAt.UTC().Format("2006-01-02")
}

func (l *Listing) Validate() error {
	if l.ExternalID == "" {
		return errors.New("listing external ID cannot be empty")
	}
	if !l.Marketplace.IsValid() {
		return errors.New("listing marketplace is not recognized")
	}
	if l.Price < 0 {
		return errors.New("listing price cannot be negative")
	}
	return nil
}

// Scores holds the derived valuation metrics attached by the valuation
// service. All score fields are bounded to [0,100].
type Scores struct {
	EstimatedResaleValue float64        `json:"estimated_resale_value" bson:"estimated_resale_value"`
	UndervalueScore      int            `json:"undervalue_score" bson:"undervalue_score"`
	DemandVelocity       DemandVelocity `json:"demand_velocity" bson:"demand_velocity"`
	QuickFlipScore       int            `json:"quick_flip_score" bson:"quick_flip_score"`
	RarityScore          int            `json:"rarity_score" bson:"rarity_score"`
	ProfitabilityScore   int            `json:"profitability_score" bson:"profitability_score"`
}

// ScoredListing is a Listing with valuation scores attached.
type ScoredListing struct {
	Listing `bson:",inline"`
	Scores  Scores `json:"scores" bson:"scores"`
}

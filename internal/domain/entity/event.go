package entity

type ChangeKind string

const (
	ChangeKindNew       ChangeKind = "NEW"
	ChangeKindPriceDrop ChangeKind = "PRICE_DROP"
)

// ChangeEvent is the classified outcome the change detector emits for a
// listing. PreviousListing is set only for PRICE_DROP events.
type ChangeEvent struct {
	Kind            ChangeKind     `json:"kind" bson:"kind"`
	Listing         ScoredListing  `json:"listing" bson:"listing"`
	PreviousListing *ScoredListing `json:"previous_listing,omitempty" bson:"previous_listing,omitempty"`
}

// PriceDropPercent returns the percentage drop relative to the previous
// price, or 0 when the event carries no previous listing.
func (e *ChangeEvent) PriceDropPercent() float64 {
	if e.PreviousListing == nil || e.PreviousListing.Price <= 0 {
		return 0
	}
	return (e.PreviousListing.Price - e.Listing.Price) / e.PreviousListing.Price * 100
}

package service

import (
	"testing"
	"time"

	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestRenderAlert_NewListing(t *testing.T) {
	listing := scoredListing("listing-1", 250, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	listing.Scores.UndervalueScore = 17
	listing.Scores.QuickFlipScore = 37
	listing.Scores.DemandVelocity = entity.DemandVelocityHigh

	rendered := RenderAlert(&entity.ChangeEvent{Kind: entity.ChangeKindNew, Listing: listing})

	assert.Contains(t, rendered.Subject, "NEW LISTING")
	assert.Contains(t, rendered.Subject, "PS5 Disc Edition")
	assert.Contains(t, rendered.Body, "PS5 Disc Edition")
	assert.Contains(t, rendered.Body, "£250.00")
	assert.Contains(t, rendered.Body, "Undervalued 17%")
	assert.Contains(t, rendered.Body, "QuickFlip Score: 37/100")
	assert.Contains(t, rendered.Body, "Demand Velocity: HIGH")
	assert.Contains(t, rendered.Body, "https://example.com/listing-1")
}

func TestRenderAlert_PriceDrop(t *testing.T) {
	observedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	previous := scoredListing("listing-1", 300, observedAt)
	current := scoredListing("listing-1", 250, observedAt.Add(time.Hour))

	rendered := RenderAlert(&entity.ChangeEvent{
		Kind:            entity.ChangeKindPriceDrop,
		Listing:         current,
		PreviousListing: &previous,
	})

	assert.Contains(t, rendered.Subject, "PRICE DROP")
	assert.Contains(t, rendered.Body, "Old Price: £300.00")
	assert.Contains(t, rendered.Body, "New Price: £250.00")
	assert.Contains(t, rendered.Body, "-17%")
	assert.Contains(t, rendered.Body, "https://example.com/listing-1")
}

func TestRenderAlert_PriceDropWithoutPrevious(t *testing.T) {
	current := scoredListing("listing-1", 250, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	rendered := RenderAlert(&entity.ChangeEvent{Kind: entity.ChangeKindPriceDrop, Listing: current})

	assert.Contains(t, rendered.Body, "New Price: £250.00")
	assert.NotContains(t, rendered.Body, "Old Price")
}

func TestRenderAlert_CurrencySymbols(t *testing.T) {
	observedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	cases := map[string]string{
		"GBP": "£250.00",
		"":    "£250.00",
		"USD": "$250.00",
		"EUR": "€250.00",
		"PLN": "PLN 250.00",
	}
	for currency, expected := range cases {
		listing := scoredListing("listing-1", 250, observedAt)
		listing.Currency = currency
		rendered := RenderAlert(&entity.ChangeEvent{Kind: entity.ChangeKindNew, Listing: listing})
		assert.Contains(t, rendered.Body, expected, "currency %q", currency)
	}
}

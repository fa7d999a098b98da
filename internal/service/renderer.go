package service

import (
	"fmt"
	"strings"

	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
)

// RenderedAlert is the channel-ready form of a change event. Body is
// Markdown-flavored text; Subject suits channels with a separate title line.
type RenderedAlert struct {
	Subject string
	Body    string
}

// RenderAlert formats a change event for delivery. The exact template is
// presentation, not contract, but title, current price, percent change on
// drops, and the listing URL are always present.
func RenderAlert(event *entity.ChangeEvent) RenderedAlert {
	listing := event.Listing
	symbol := currencySymbol(listing.Currency)

	var b strings.Builder
	var subject string

	switch event.Kind {
	case entity.ChangeKindPriceDrop:
		subject = fmt.Sprintf("📉 PRICE DROP: %s", listing.Title)
		fmt.Fprintf(&b, "📉 *PRICE DROP*: %s\n", listing.Title)
		if event.PreviousListing != nil {
			fmt.Fprintf(&b, "Old Price: %s%.2f, New Price: %s%.2f (-%.0f%%)\n",
				symbol, event.PreviousListing.Price, symbol, listing.Price, event.PriceDropPercent())
		} else {
			fmt.Fprintf(&b, "New Price: %s%.2f\n", symbol, listing.Price)
		}
	default:
		subject = fmt.Sprintf("🔥 NEW LISTING: %s", listing.Title)
		fmt.Fprintf(&b, "🔥 *NEW LISTING*: %s – %s%.2f\n", listing.Title, symbol, listing.Price)
	}

	fmt.Fprintf(&b, "Undervalued %d%%\n", listing.Scores.UndervalueScore)
	fmt.Fprintf(&b, "QuickFlip Score: %d/100\n", listing.Scores.QuickFlipScore)
	fmt.Fprintf(&b, "Demand Velocity: %s\n", listing.Scores.DemandVelocity)
	fmt.Fprintf(&b, "👉 View Now: %s", listing.URL)

	return RenderedAlert{Subject: subject, Body: b.String()}
}

func currencySymbol(currency string) string {
	switch strings.ToUpper(currency) {
	case "GBP", "":
		return "£"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	default:
		return currency + " "
	}
}

package service

import (
	"math"
	"sort"
	"strings"

	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
)

// ValuationService attaches resale valuation scores to raw listings. It is a
// pure function of the listing's title and price: no I/O, deterministic, and
// it never fails — malformed listings simply score zero.
type ValuationService interface {
	Score(listing entity.Listing) entity.ScoredListing
}

type valuationService struct {
	resaleEntries      []resaleEntry
	highDemandKeywords []string
	rarityKeywords     []string
}

// resaleEntry pairs a title keyword with its expected resale price. Entries
// are matched in a fixed order so a title hitting several keywords always
// resolves to the same value.
type resaleEntry struct {
	keyword string
	value   float64
}

type ValuationConfig struct {
	// ResaleValues maps lowercase title keywords to expected resale prices.
	// An unmatched title is valued at 0, which forces the undervalue score to
	// 0 so unknown items never qualify as steep discounts.
	ResaleValues       map[string]float64
	HighDemandKeywords []string
	RarityKeywords     []string
}

func DefaultValuationConfig() ValuationConfig {
	return ValuationConfig{
		ResaleValues: map[string]float64{
			"iphone 15 pro max": 750,
			"ps5 disc":          300,
		},
		HighDemandKeywords: []string{"iphone", "ps5"},
		RarityKeywords:     []string{"limited edition", "vintage"},
	}
}

func NewValuationService(cfg ValuationConfig) ValuationService {
	if len(cfg.ResaleValues) == 0 && len(cfg.HighDemandKeywords) == 0 && len(cfg.RarityKeywords) == 0 {
		cfg = DefaultValuationConfig()
	}
	entries := make([]resaleEntry, 0, len(cfg.ResaleValues))
	for k, v := range cfg.ResaleValues {
		entries = append(entries, resaleEntry{keyword: strings.ToLower(k), value: v})
	}
	// Longest keyword first, so the most specific match wins; ties break
	// lexicographically to keep the order stable across processes.
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].keyword) != len(entries[j].keyword) {
			return len(entries[i].keyword) > len(entries[j].keyword)
		}
		return entries[i].keyword < entries[j].keyword
	})
	return &valuationService{
		resaleEntries:      entries,
		highDemandKeywords: lowerAll(cfg.HighDemandKeywords),
		rarityKeywords:     lowerAll(cfg.RarityKeywords),
	}
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func (s *valuationService) Score(listing entity.Listing) entity.ScoredListing {
	title := strings.ToLower(listing.Title)

	resaleValue := s.estimatedResaleValue(title)
	undervalue := undervalueScore(listing.Price, resaleValue)
	velocity := s.demandVelocity(title)

	return entity.ScoredListing{
		Listing: listing,
		Scores: entity.Scores{
			EstimatedResaleValue: resaleValue,
			UndervalueScore:      undervalue,
			DemandVelocity:       velocity,
			QuickFlipScore:       quickFlipScore(undervalue, velocity),
			RarityScore:          s.rarityScore(title),
			ProfitabilityScore:   profitabilityScore(listing.Price, resaleValue),
		},
	}
}

func (s *valuationService) estimatedResaleValue(title string) float64 {
	for _, entry := range s.resaleEntries {
		if strings.Contains(title, entry.keyword) {
			return entry.value
		}
	}
	return 0
}

func undervalueScore(price, resaleValue float64) int {
	if price <= 0 || resaleValue <= 0 {
		return 0
	}
	undervalue := (resaleValue - price) / resaleValue * 100
	return clampScore(undervalue)
}

// demandVelocity only ever returns HIGH or MEDIUM, matching the production
// heuristic. LOW stays representable for the quick-flip math.
func (s *valuationService) demandVelocity(title string) entity.DemandVelocity {
	for _, keyword := range s.highDemandKeywords {
		if strings.Contains(title, keyword) {
			return entity.DemandVelocityHigh
		}
	}
	return entity.DemandVelocityMedium
}

func quickFlipScore(undervalue int, velocity entity.DemandVelocity) int {
	switch velocity {
	case entity.DemandVelocityHigh:
		if undervalue+20 > 100 {
			return 100
		}
		return undervalue + 20
	case entity.DemandVelocityMedium:
		return undervalue
	default:
		if undervalue-20 < 0 {
			return 0
		}
		return undervalue - 20
	}
}

func (s *valuationService) rarityScore(title string) int {
	for _, keyword := range s.rarityKeywords {
		if strings.Contains(title, keyword) {
			return 90
		}
	}
	return 50
}

func profitabilityScore(price, resaleValue float64) int {
	if price <= 0 || resaleValue <= 0 {
		return 0
	}
	margin := (resaleValue - price) / price * 100
	return clampScore(margin)
}

func clampScore(v float64) int {
	rounded := int(math.Round(v))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

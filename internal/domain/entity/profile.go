package entity

import (
	"errors"
	"time"
)

// SniperProfile is a user's saved search. Profiles are created and edited
// through the public API; the pipeline consumes them read-only as scan
// parameters.
type SniperProfile struct {
	ID                  string      `json:"id" bson:"_id"`
	UserID              string      `json:"user_id" bson:"user_id"`
	Marketplace         Marketplace `json:"marketplace" bson:"marketplace"`
	Query               string      `json:"query" bson:"query"`
	MinPrice            float64     `json:"min_price" bson:"min_price"`
	MaxPrice            float64     `json:"max_price" bson:"max_price"`
	Location            string      `json:"location" bson:"location"`
	RadiusKM            int         `json:"radius_km" bson:"radius_km"`
	Conditions          []string    `json:"conditions" bson:"conditions"`
	AlertThreshold      int         `json:"alert_threshold" bson:"alert_threshold"`
	ScanIntervalSeconds int         `json:"scan_interval_seconds" bson:"scan_interval_seconds"`
	IsActive            bool        `json:"is_active" bson:"is_active"`
	CreatedAt           time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" bson:"updated_at"`
}

func (p *SniperProfile) Validate() error {
	if p.ID == "" {
		return errors.New("profile ID cannot be empty")
	}
	if p.UserID == "" {
		return errors.New("profile user ID cannot be empty")
	}
	if !p.Marketplace.IsValid() {
		return errors.New("profile marketplace is not recognized")
	}
	return nil
}

// ScanInterval returns the configured interval with a floor so that a
// misconfigured profile cannot hammer the queue.
func (p *SniperProfile) ScanInterval() time.Duration {
	const minInterval = 30 * time.Second
	interval := time.Duration(p.ScanIntervalSeconds) * time.Second
	if interval < minInterval {
		return minInterval
	}
	return interval
}

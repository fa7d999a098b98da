package worker

import (
	"time"

	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
)

// Pipeline subjects. The crawler consumes scan.profile and produces
// listings.analyze; the analyzer produces alerts.dispatch.
const (
	SubjectScanProfile     = "scan.profile"
	SubjectAnalyzeListings = "listings.analyze"
	SubjectDispatchAlert   = "alerts.dispatch"

	queueGroupAnalyzer = "sniper-analyzer"
	queueGroupAlerts   = "sniper-alerts"
)

// ScanProfileJob asks a crawler worker to scan one saved search.
type ScanProfileJob struct {
	JobID      string               `json:"job_id"`
	Profile    entity.SniperProfile `json:"profile"`
	EnqueuedAt time.Time            `json:"enqueued_at"`
}

// AnalyzeListingsJob carries one scan cycle's raw crawler output.
type AnalyzeListingsJob struct {
	Profile     entity.SniperProfile `json:"profile"`
	RawListings []entity.Listing     `json:"raw_listings"`
}

// DispatchAlertJob carries one change event to the alerts worker.
type DispatchAlertJob struct {
	Profile entity.SniperProfile `json:"profile"`
	Event   entity.ChangeEvent   `json:"event"`
}

package worker

import (
	"context"
	"encoding/json"
	"fmt"

	natsadapter "github.com/magnus-flipper/sniper-service/internal/adapter/nats"
	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/magnus-flipper/sniper-service/internal/platform/logger"
	"github.com/magnus-flipper/sniper-service/internal/service"
	"github.com/nats-io/nats.go"
)

// AnalyzerWorker consumes raw crawler output, attaches valuation scores,
// classifies the batch against the fingerprint cache, and enqueues one
// dispatch job per change event.
type AnalyzerWorker struct {
	consumer  *natsadapter.Consumer
	publisher natsadapter.MessagePublisher
	valuation service.ValuationService
	detector  service.ChangeDetector
	log       logger.Logger
	sub       *nats.Subscription
}

func NewAnalyzerWorker(
	consumer *natsadapter.Consumer,
	publisher natsadapter.MessagePublisher,
	valuation service.ValuationService,
	detector service.ChangeDetector,
	log logger.Logger,
) *AnalyzerWorker {
	return &AnalyzerWorker{
		consumer:  consumer,
		publisher: publisher,
		valuation: valuation,
		detector:  detector,
		log:       log,
	}
}

func (w *AnalyzerWorker) Start() error {
	sub, err := w.consumer.Subscribe(SubjectAnalyzeListings, queueGroupAnalyzer, w.handle)
	if err != nil {
		return fmt.Errorf("analyzer worker failed to subscribe: %w", err)
	}
	w.sub = sub
	w.log.Infof("Analyzer worker subscribed to %s", SubjectAnalyzeListings)
	return nil
}

func (w *AnalyzerWorker) Stop() {
	if w.sub != nil {
		if err := w.sub.Drain(); err != nil {
			w.log.Warnf("Failed to drain analyzer subscription: %v", err)
		}
	}
}

func (w *AnalyzerWorker) handle(ctx context.Context, data []byte) error {
	var job AnalyzeListingsJob
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("failed to unmarshal analyze job: %w", err)
	}
	if err := job.Profile.Validate(); err != nil {
		return fmt.Errorf("analyze job carries invalid profile: %w", err)
	}

	scored := make([]entity.ScoredListing, 0, len(job.RawListings))
	for _, raw := range job.RawListings {
		scored = append(scored, w.valuation.Score(raw))
	}

	result, err := w.detector.DetectChanges(ctx, job.Profile.Marketplace, job.Profile.ID, scored)
	if err != nil {
		return fmt.Errorf("change detection failed for profile %s: %w", job.Profile.ID, err)
	}
	if len(result.Failures) > 0 {
		w.log.Warnf("Profile %s scan: %d of %d listings failed classification", job.Profile.ID, len(result.Failures), len(scored))
	}

	for i := range result.Events {
		dispatch := DispatchAlertJob{Profile: job.Profile, Event: result.Events[i]}
		if err := w.publisher.Publish(ctx, SubjectDispatchAlert, dispatch); err != nil {
			w.log.Errorf("Failed to enqueue %s alert for profile %s: %v", result.Events[i].Kind, job.Profile.ID, err)
		}
	}

	w.log.Infof("Profile %s scan: %d listings, %d events", job.Profile.ID, len(scored), len(result.Events))
	return nil
}

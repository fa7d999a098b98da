package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/magnus-flipper/sniper-service/internal/adapter/channel"
	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/magnus-flipper/sniper-service/internal/platform/logger"
	"github.com/magnus-flipper/sniper-service/internal/platform/metrics"
	"github.com/magnus-flipper/sniper-service/internal/repository"
)

// AlertDispatcher fans a change event out to a user's linked channels. Each
// channel is budget-checked, rendered, and sent independently: one channel
// failing or being throttled never blocks the others. Deduplication within a
// cycle is the change detector's one-event-per-listing guarantee; the
// dispatcher adds no state of its own.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, event *entity.ChangeEvent, profile *entity.SniperProfile, channels []entity.NotificationChannel) []entity.DeliveryOutcome
}

type alertDispatcher struct {
	budget   BudgetLimiter
	senders  map[entity.ChannelType]channel.Sender
	outcomes repository.OutcomeRepository
	log      logger.Logger
	metrics  *metrics.PipelineMetrics
}

func NewAlertDispatcher(
	budget BudgetLimiter,
	senders []channel.Sender,
	outcomes repository.OutcomeRepository,
	log logger.Logger,
	m *metrics.PipelineMetrics,
) AlertDispatcher {
	byType := make(map[entity.ChannelType]channel.Sender, len(senders))
	for _, s := range senders {
		byType[s.Type()] = s
	}
	return &alertDispatcher{
		budget:   budget,
		senders:  byType,
		outcomes: outcomes,
		log:      log,
		metrics:  m,
	}
}

func (d *alertDispatcher) Dispatch(ctx context.Context, event *entity.ChangeEvent, profile *entity.SniperProfile, channels []entity.NotificationChannel) []entity.DeliveryOutcome {
	rendered := RenderAlert(event)
	results := make([]entity.DeliveryOutcome, 0, len(channels))

	for _, ch := range channels {
		if !ch.Enabled {
			continue
		}

		outcome := entity.DeliveryOutcome{
			ID:          uuid.NewString(),
			ProfileID:   profile.ID,
			UserID:      profile.UserID,
			ChannelType: ch.Type,
			EventKind:   event.Kind,
			ListingID:   event.Listing.ExternalID,
			CreatedAt:   time.Now().UTC(),
		}

		sender, ok := d.senders[ch.Type]
		if !ok {
			outcome.Status = entity.DeliveryStatusFailed
			outcome.Error = "no sender configured for channel type"
			d.log.Warnf("No sender configured for channel type %s (user %s)", ch.Type, profile.UserID)
			results = append(results, d.record(ctx, outcome))
			continue
		}

		decision := d.budget.TakeTokens(ctx, BudgetKindAlerts, profile.UserID, 1)
		if !decision.Allowed {
			// Throttling is terminal for this cycle; the queue layer owns
			// retries and a budget denial is not a retryable failure.
			outcome.Status = entity.DeliveryStatusThrottled
			d.log.Infof("Alert throttled for user %s on %s: used %d of cap %d", profile.UserID, ch.Type, decision.Used, decision.Cap)
			results = append(results, d.record(ctx, outcome))
			continue
		}

		if err := sender.Send(ctx, ch.Address, channel.Message{Subject: rendered.Subject, Body: rendered.Body}); err != nil {
			outcome.Status = entity.DeliveryStatusFailed
			outcome.Error = err.Error()
			d.log.Errorf("Failed to deliver %s alert to user %s via %s: %v", event.Kind, profile.UserID, ch.Type, err)
			results = append(results, d.record(ctx, outcome))
			continue
		}

		outcome.Status = entity.DeliveryStatusSuccess
		results = append(results, d.record(ctx, outcome))
	}

	return results
}

func (d *alertDispatcher) record(ctx context.Context, outcome entity.DeliveryOutcome) entity.DeliveryOutcome {
	d.metrics.ObserveDispatch(outcome.ChannelType, outcome.Status)
	if d.outcomes == nil {
		return outcome
	}
	if err := d.outcomes.Record(ctx, &outcome); err != nil {
		d.log.Warnf("Failed to persist delivery outcome %s: %v", outcome.ID, err)
	}
	return outcome
}

package worker

import (
	"context"
	"encoding/json"
	"fmt"

	natsadapter "github.com/magnus-flipper/sniper-service/internal/adapter/nats"
	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/magnus-flipper/sniper-service/internal/platform/logger"
	"github.com/magnus-flipper/sniper-service/internal/repository"
	"github.com/magnus-flipper/sniper-service/internal/service"
	"github.com/nats-io/nats.go"
)

// AlertsWorker consumes dispatch jobs and fans each change event out to the
// profile owner's linked channels.
type AlertsWorker struct {
	consumer   *natsadapter.Consumer
	channels   repository.ChannelRepository
	dispatcher service.AlertDispatcher
	log        logger.Logger
	sub        *nats.Subscription
}

func NewAlertsWorker(
	consumer *natsadapter.Consumer,
	channels repository.ChannelRepository,
	dispatcher service.AlertDispatcher,
	log logger.Logger,
) *AlertsWorker {
	return &AlertsWorker{
		consumer:   consumer,
		channels:   channels,
		dispatcher: dispatcher,
		log:        log,
	}
}

func (w *AlertsWorker) Start() error {
	sub, err := w.consumer.Subscribe(SubjectDispatchAlert, queueGroupAlerts, w.handle)
	if err != nil {
		return fmt.Errorf("alerts worker failed to subscribe: %w", err)
	}
	w.sub = sub
	w.log.Infof("Alerts worker subscribed to %s", SubjectDispatchAlert)
	return nil
}

func (w *AlertsWorker) Stop() {
	if w.sub != nil {
		if err := w.sub.Drain(); err != nil {
			w.log.Warnf("Failed to drain alerts subscription: %v", err)
		}
	}
}

func (w *AlertsWorker) handle(ctx context.Context, data []byte) error {
	var job DispatchAlertJob
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("failed to unmarshal dispatch job: %w", err)
	}

	channels, err := w.channels.ListByUserID(ctx, job.Profile.UserID)
	if err != nil {
		return fmt.Errorf("failed to load channels for user %s: %w", job.Profile.UserID, err)
	}
	if len(channels) == 0 {
		w.log.Debugf("User %s has no enabled channels, dropping %s alert", job.Profile.UserID, job.Event.Kind)
		return nil
	}

	outcomes := w.dispatcher.Dispatch(ctx, &job.Event, &job.Profile, channels)

	succeeded := 0
	for _, o := range outcomes {
		if o.Status == entity.DeliveryStatusSuccess {
			succeeded++
		}
	}
	w.log.Infof("Dispatched %s alert for profile %s: %d/%d channels succeeded", job.Event.Kind, job.Profile.ID, succeeded, len(outcomes))
	return nil
}

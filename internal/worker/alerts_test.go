package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChannelRepository struct {
	mock.Mock
}

func (m *MockChannelRepository) ListByUserID(ctx context.Context, userID string) ([]entity.NotificationChannel, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.NotificationChannel), args.Error(1)
}

type MockAlertDispatcher struct {
	mock.Mock
}

func (m *MockAlertDispatcher) Dispatch(ctx context.Context, event *entity.ChangeEvent, profile *entity.SniperProfile, channels []entity.NotificationChannel) []entity.DeliveryOutcome {
	args := m.Called(ctx, event, profile, channels)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]entity.DeliveryOutcome)
}

func dispatchJobPayload(t *testing.T, job DispatchAlertJob) []byte {
	t.Helper()
	data, err := json.Marshal(job)
	require.NoError(t, err)
	return data
}

func newListingEvent() entity.ChangeEvent {
	return entity.ChangeEvent{
		Kind: entity.ChangeKindNew,
		Listing: entity.ScoredListing{
			Listing: entity.Listing{
				Marketplace: entity.MarketplaceEbay,
				ExternalID:  "listing-1",
				Title:       "PS5 Disc Edition",
				Price:       250,
				Currency:    "GBP",
				URL:         "https://example.com/listing-1",
				ObservedAt:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			},
		},
	}
}

func TestAlertsWorker_DispatchesToUserChannels(t *testing.T) {
	channels := new(MockChannelRepository)
	dispatcher := new(MockAlertDispatcher)
	userChannels := []entity.NotificationChannel{
		{UserID: "user-1", Type: entity.ChannelTypeTelegram, Address: "12345", Enabled: true},
	}

	channels.On("ListByUserID", mock.Anything, "user-1").Return(userChannels, nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.AnythingOfType("*entity.ChangeEvent"), mock.AnythingOfType("*entity.SniperProfile"), userChannels).
		Return([]entity.DeliveryOutcome{{Status: entity.DeliveryStatusSuccess}}).Once()

	worker := NewAlertsWorker(nil, channels, dispatcher, NewNoOpLogger())
	err := worker.handle(context.Background(), dispatchJobPayload(t, DispatchAlertJob{
		Profile: activeProfile("profile-1"),
		Event:   newListingEvent(),
	}))

	require.NoError(t, err)
	channels.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestAlertsWorker_DropsAlertWhenUserHasNoChannels(t *testing.T) {
	channels := new(MockChannelRepository)
	dispatcher := new(MockAlertDispatcher)

	channels.On("ListByUserID", mock.Anything, "user-1").Return([]entity.NotificationChannel{}, nil).Once()

	worker := NewAlertsWorker(nil, channels, dispatcher, NewNoOpLogger())
	err := worker.handle(context.Background(), dispatchJobPayload(t, DispatchAlertJob{
		Profile: activeProfile("profile-1"),
		Event:   newListingEvent(),
	}))

	require.NoError(t, err)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAlertsWorker_ChannelLookupFailureIsRetryable(t *testing.T) {
	channels := new(MockChannelRepository)
	dispatcher := new(MockAlertDispatcher)

	channels.On("ListByUserID", mock.Anything, "user-1").Return(nil, errors.New("mongo down")).Once()

	worker := NewAlertsWorker(nil, channels, dispatcher, NewNoOpLogger())
	err := worker.handle(context.Background(), dispatchJobPayload(t, DispatchAlertJob{
		Profile: activeProfile("profile-1"),
		Event:   newListingEvent(),
	}))

	assert.Error(t, err)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAlertsWorker_RejectsMalformedPayload(t *testing.T) {
	channels := new(MockChannelRepository)
	dispatcher := new(MockAlertDispatcher)

	worker := NewAlertsWorker(nil, channels, dispatcher, NewNoOpLogger())
	err := worker.handle(context.Background(), []byte("{not json"))

	assert.Error(t, err)
	channels.AssertNotCalled(t, "ListByUserID", mock.Anything, mock.Anything)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/magnus-flipper/sniper-service/internal/adapter/channel"
	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
	channelType entity.ChannelType
}

func (m *MockSender) Type() entity.ChannelType {
	return m.channelType
}

func (m *MockSender) Send(ctx context.Context, address string, msg channel.Message) error {
	args := m.Called(ctx, address, msg)
	return args.Error(0)
}

type MockBudgetLimiter struct {
	mock.Mock
}

func (m *MockBudgetLimiter) TakeTokens(ctx context.Context, kind, orgID string, amount int64) BudgetDecision {
	args := m.Called(ctx, kind, orgID, amount)
	return args.Get(0).(BudgetDecision)
}

type MockOutcomeRepository struct {
	mock.Mock
}

func (m *MockOutcomeRepository) Record(ctx context.Context, outcome *entity.DeliveryOutcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}

func allowAll() BudgetDecision {
	return BudgetDecision{Allowed: true, Used: 1, Remaining: 59, Limit: 60, Cap: 60}
}

func denyAll() BudgetDecision {
	return BudgetDecision{Allowed: false, Used: 61, Remaining: 0, Limit: 60, Cap: 60}
}

func testEvent() *entity.ChangeEvent {
	return &entity.ChangeEvent{
		Kind: entity.ChangeKindNew,
		Listing: scoredListing("listing-1", 250,
			time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)),
	}
}

func testProfile() *entity.SniperProfile {
	return &entity.SniperProfile{
		ID:          "profile-1",
		UserID:      "user-1",
		Marketplace: entity.MarketplaceEbay,
		Query:       "ps5 disc",
		IsActive:    true,
	}
}

func TestAlertDispatcher_DeliversToAllEnabledChannels(t *testing.T) {
	telegram := &MockSender{channelType: entity.ChannelTypeTelegram}
	email := &MockSender{channelType: entity.ChannelTypeEmail}
	budget := new(MockBudgetLimiter)
	outcomes := new(MockOutcomeRepository)

	budget.On("TakeTokens", mock.Anything, BudgetKindAlerts, "user-1", int64(1)).Return(allowAll()).Twice()
	telegram.On("Send", mock.Anything, "12345", mock.AnythingOfType("channel.Message")).Return(nil).Once()
	email.On("Send", mock.Anything, "user@example.com", mock.AnythingOfType("channel.Message")).Return(nil).Once()
	outcomes.On("Record", mock.Anything, mock.AnythingOfType("*entity.DeliveryOutcome")).Return(nil).Twice()

	dispatcher := NewAlertDispatcher(budget, []channel.Sender{telegram, email}, outcomes, NewNoOpLogger(), nil)
	results := dispatcher.Dispatch(context.Background(), testEvent(), testProfile(), []entity.NotificationChannel{
		{UserID: "user-1", Type: entity.ChannelTypeTelegram, Address: "12345", Enabled: true},
		{UserID: "user-1", Type: entity.ChannelTypeEmail, Address: "user@example.com", Enabled: true},
	})

	require.Len(t, results, 2)
	for _, outcome := range results {
		assert.Equal(t, entity.DeliveryStatusSuccess, outcome.Status)
		assert.Equal(t, "profile-1", outcome.ProfileID)
		assert.Equal(t, entity.ChangeKindNew, outcome.EventKind)
	}
	telegram.AssertExpectations(t)
	email.AssertExpectations(t)
	budget.AssertExpectations(t)
	outcomes.AssertExpectations(t)
}

func TestAlertDispatcher_OneChannelFailingDoesNotBlockOthers(t *testing.T) {
	telegram := &MockSender{channelType: entity.ChannelTypeTelegram}
	email := &MockSender{channelType: entity.ChannelTypeEmail}
	budget := new(MockBudgetLimiter)

	budget.On("TakeTokens", mock.Anything, BudgetKindAlerts, "user-1", int64(1)).Return(allowAll()).Twice()
	telegram.On("Send", mock.Anything, "12345", mock.Anything).Return(errors.New("bot was blocked by the user")).Once()
	email.On("Send", mock.Anything, "user@example.com", mock.Anything).Return(nil).Once()

	dispatcher := NewAlertDispatcher(budget, []channel.Sender{telegram, email}, nil, NewNoOpLogger(), nil)
	results := dispatcher.Dispatch(context.Background(), testEvent(), testProfile(), []entity.NotificationChannel{
		{UserID: "user-1", Type: entity.ChannelTypeTelegram, Address: "12345", Enabled: true},
		{UserID: "user-1", Type: entity.ChannelTypeEmail, Address: "user@example.com", Enabled: true},
	})

	require.Len(t, results, 2)
	byType := make(map[entity.ChannelType]entity.DeliveryOutcome, 2)
	for _, outcome := range results {
		byType[outcome.ChannelType] = outcome
	}
	assert.Equal(t, entity.DeliveryStatusFailed, byType[entity.ChannelTypeTelegram].Status)
	assert.Contains(t, byType[entity.ChannelTypeTelegram].Error, "blocked")
	assert.Equal(t, entity.DeliveryStatusSuccess, byType[entity.ChannelTypeEmail].Status)
	email.AssertExpectations(t)
}

func TestAlertDispatcher_BudgetDenialThrottlesWithoutSending(t *testing.T) {
	telegram := &MockSender{channelType: entity.ChannelTypeTelegram}
	budget := new(MockBudgetLimiter)

	budget.On("TakeTokens", mock.Anything, BudgetKindAlerts, "user-1", int64(1)).Return(denyAll()).Once()

	dispatcher := NewAlertDispatcher(budget, []channel.Sender{telegram}, nil, NewNoOpLogger(), nil)
	results := dispatcher.Dispatch(context.Background(), testEvent(), testProfile(), []entity.NotificationChannel{
		{UserID: "user-1", Type: entity.ChannelTypeTelegram, Address: "12345", Enabled: true},
	})

	require.Len(t, results, 1)
	assert.Equal(t, entity.DeliveryStatusThrottled, results[0].Status)
	telegram.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestAlertDispatcher_DisabledChannelIsSkipped(t *testing.T) {
	telegram := &MockSender{channelType: entity.ChannelTypeTelegram}
	budget := new(MockBudgetLimiter)

	dispatcher := NewAlertDispatcher(budget, []channel.Sender{telegram}, nil, NewNoOpLogger(), nil)
	results := dispatcher.Dispatch(context.Background(), testEvent(), testProfile(), []entity.NotificationChannel{
		{UserID: "user-1", Type: entity.ChannelTypeTelegram, Address: "12345", Enabled: false},
	})

	assert.Empty(t, results)
	budget.AssertNotCalled(t, "TakeTokens", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAlertDispatcher_UnconfiguredChannelTypeFails(t *testing.T) {
	budget := new(MockBudgetLimiter)

	dispatcher := NewAlertDispatcher(budget, nil, nil, NewNoOpLogger(), nil)
	results := dispatcher.Dispatch(context.Background(), testEvent(), testProfile(), []entity.NotificationChannel{
		{UserID: "user-1", Type: entity.ChannelTypeWhatsApp, Address: "+447700900000", Enabled: true},
	})

	require.Len(t, results, 1)
	assert.Equal(t, entity.DeliveryStatusFailed, results[0].Status)
	assert.Contains(t, results[0].Error, "no sender configured")
	budget.AssertNotCalled(t, "TakeTokens", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAlertDispatcher_OutcomePersistenceFailureStillReturnsOutcome(t *testing.T) {
	telegram := &MockSender{channelType: entity.ChannelTypeTelegram}
	budget := new(MockBudgetLimiter)
	outcomes := new(MockOutcomeRepository)

	budget.On("TakeTokens", mock.Anything, BudgetKindAlerts, "user-1", int64(1)).Return(allowAll()).Once()
	telegram.On("Send", mock.Anything, "12345", mock.Anything).Return(nil).Once()
	outcomes.On("Record", mock.Anything, mock.Anything).Return(errors.New("mongo down")).Once()

	dispatcher := NewAlertDispatcher(budget, []channel.Sender{telegram}, outcomes, NewNoOpLogger(), nil)
	results := dispatcher.Dispatch(context.Background(), testEvent(), testProfile(), []entity.NotificationChannel{
		{UserID: "user-1", Type: entity.ChannelTypeTelegram, Address: "12345", Enabled: true},
	})

	require.Len(t, results, 1)
	assert.Equal(t, entity.DeliveryStatusSuccess, results[0].Status)
}

package repository

import (
	"context"

	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
)

// ProfileRepository exposes saved searches to the pipeline. Profiles are
// mutated elsewhere (CRUD API); the pipeline only reads them.
type ProfileRepository interface {
	ListActive(ctx context.Context) ([]entity.SniperProfile, error)
	GetByID(ctx context.Context, profileID string) (*entity.SniperProfile, error)
}

// ChannelRepository returns a user's linked notification channels.
type ChannelRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]entity.NotificationChannel, error)
}

// OutcomeRepository persists delivery outcomes for observability.
type OutcomeRepository interface {
	Record(ctx context.Context, outcome *entity.DeliveryOutcome) error
}

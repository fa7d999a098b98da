package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/magnus-flipper/sniper-service/internal/app/config"
	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/magnus-flipper/sniper-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	profileCollectionName = "sniper_profiles"
)

type profileRepository struct {
	collection *mongo.Collection
}

// NewProfileRepository reads saved searches. The pipeline never writes to
// this collection; the CRUD API owns it.
func NewProfileRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.ProfileRepository {
	return &profileRepository{
		collection: client.Database(cfg.Database).Collection(profileCollectionName),
	}
}

func (r *profileRepository) ListActive(ctx context.Context) ([]entity.SniperProfile, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list active profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []entity.SniperProfile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode active profiles: %w", err)
	}
	return profiles, nil
}

func (r *profileRepository) GetByID(ctx context.Context, profileID string) (*entity.SniperProfile, error) {
	var profile entity.SniperProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": profileID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile by ID %s: %w", profileID, err)
	}
	return &profile, nil
}

package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/magnus-flipper/sniper-service/internal/app/config"
	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/magnus-flipper/sniper-service/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	outcomeCollectionName = "delivery_outcomes"
)

type outcomeRepository struct {
	collection *mongo.Collection
}

func NewOutcomeRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.OutcomeRepository {
	return &outcomeRepository{
		collection: client.Database(cfg.Database).Collection(outcomeCollectionName),
	}
}

func (r *outcomeRepository) Record(ctx context.Context, outcome *entity.DeliveryOutcome) error {
	if outcome == nil {
		return errors.New("cannot record nil delivery outcome")
	}
	if outcome.ID == "" {
		outcome.ID = uuid.NewString()
	}
	if outcome.CreatedAt.IsZero() {
		outcome.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, outcome); err != nil {
		return fmt.Errorf("failed to record delivery outcome %s: %w", outcome.ID, err)
	}
	return nil
}

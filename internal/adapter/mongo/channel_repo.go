package mongo

import (
	"context"
	"fmt"

	"github.com/magnus-flipper/sniper-service/internal/app/config"
	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/magnus-flipper/sniper-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	channelCollectionName = "notification_channels"
)

type channelRepository struct {
	collection *mongo.Collection
}

// NewChannelRepository reads linked notification channels. Linking and
// verification happen outside the pipeline.
func NewChannelRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.ChannelRepository {
	return &channelRepository{
		collection: client.Database(cfg.Database).Collection(channelCollectionName),
	}
}

func (r *channelRepository) ListByUserID(ctx context.Context, userID string) ([]entity.NotificationChannel, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID, "enabled": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list channels for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var channels []entity.NotificationChannel
	if err = cursor.All(ctx, &channels); err != nil {
		return nil, fmt.Errorf("failed to decode channels for user %s: %w", userID, err)
	}
	return channels, nil
}

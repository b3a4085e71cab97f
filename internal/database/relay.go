package repository

import (
	"InstaFlow/entity"
	"context"
	"fmt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

const relayRetentionDays = 30

// SaveRelayRecord inserts one relay audit row.
func (m *MongoDB) SaveRelayRecord(ctx context.Context, record entity.RelayRecord) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	collection := connection.Database(m.database).Collection(relaysCollection)
	_, err = collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("mongodb insert relay record: %w", err)
	}
	return nil
}

// EnsureRelayIndexes creates the lookup index and a TTL index that expires
// records after relayRetentionDays.
func (m *MongoDB) EnsureRelayIndexes(ctx context.Context) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(relaysCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "sender_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(relayRetentionDays * 24 * 60 * 60)),
		},
	}

	_, err = collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("mongodb create relay indexes: %w", err)
	}
	return nil
}

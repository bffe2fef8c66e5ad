package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UnlockStore persists achievement grants
type UnlockStore interface {
	// ListByPlayer returns every unlock record for the player
	ListByPlayer(ctx context.Context, player string) ([]UnlockRecord, error)

	// InsertIfAbsent grants the achievement unless the player already
	// holds it. Returns true when a new record was created. Safe under
	// concurrent calls for the same pair: at most one record survives.
	InsertIfAbsent(ctx context.Context, player, achievementID string, at time.Time) (bool, error)
}

// MongoUnlockStore implements UnlockStore over a MongoDB collection
type MongoUnlockStore struct {
	coll *mongo.Collection
}

// NewMongoUnlockStore creates a new MongoUnlockStore instance
func NewMongoUnlockStore(coll *mongo.Collection) *MongoUnlockStore {
	return &MongoUnlockStore{coll: coll}
}

// EnsureIndexes creates the unique (player_name, achievement_id) index
// backing the at-most-once grant invariant
func (s *MongoUnlockStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "player_name", Value: 1},
			{Key: "achievement_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create unlock index: %w", err)
	}
	return nil
}

// ListByPlayer returns every unlock record for the player
func (s *MongoUnlockStore) ListByPlayer(ctx context.Context, player string) ([]UnlockRecord, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"player_name": player})
	if err != nil {
		return nil, fmt.Errorf("failed to query unlocks: %w", err)
	}
	defer cursor.Close(ctx)

	var records []UnlockRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode unlocks: %w", err)
	}
	return records, nil
}

// InsertIfAbsent grants the achievement unless the player already holds it
func (s *MongoUnlockStore) InsertIfAbsent(ctx context.Context, player, achievementID string, at time.Time) (bool, error) {
	filter := bson.M{
		"player_name":    player,
		"achievement_id": achievementID,
	}
	// $setOnInsert with upsert is atomic server-side, so two concurrent
	// grants for the same pair resolve to a single document
	update := bson.M{"$setOnInsert": bson.M{
		"_id":            uuid.NewString(),
		"player_name":    player,
		"achievement_id": achievementID,
		"unlocked_at":    at.UTC(),
	}}

	res, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// The upsert itself can race on the unique index; the loser sees a
		// duplicate key error, which means the pair already exists
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to upsert unlock: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

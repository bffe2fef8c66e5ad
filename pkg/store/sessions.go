package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SessionStore persists play sessions
type SessionStore interface {
	// Insert writes a new session record
	Insert(ctx context.Context, rec SessionRecord) error

	// UpdateByID writes the session's final state and stamps end_time.
	// Returns ErrNotFound when no session matches the id.
	UpdateByID(ctx context.Context, id string, final SessionFinal) error
}

// MongoSessionStore implements SessionStore over a MongoDB collection
type MongoSessionStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoSessionStore creates a new MongoSessionStore instance
func NewMongoSessionStore(coll *mongo.Collection) *MongoSessionStore {
	return &MongoSessionStore{coll: coll, now: time.Now}
}

// Insert writes a new session record
func (s *MongoSessionStore) Insert(ctx context.Context, rec SessionRecord) error {
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// UpdateByID writes the session's final state and stamps end_time
func (s *MongoSessionStore) UpdateByID(ctx context.Context, id string, final SessionFinal) error {
	update := bson.M{"$set": bson.M{
		"final_height": final.FinalHeight,
		"completed":    final.Completed,
		"play_time":    final.PlayTime,
		"end_time":     s.now().UTC(),
	}}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

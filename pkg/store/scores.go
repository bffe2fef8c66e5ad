package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ScoreStore persists score records and answers the aggregate queries
// the leaderboard, stats and achievement evaluation are built on
type ScoreStore interface {
	// Insert writes a new score record
	Insert(ctx context.Context, rec ScoreRecord) error

	// CountByPlayer returns the player's run count, optionally restricted
	// to completed runs
	CountByPlayer(ctx context.Context, player string, completedOnly bool) (int64, error)

	// BestHeight returns the player's highest recorded height.
	// ok is false when the player has no records.
	BestHeight(ctx context.Context, player string) (height int, ok bool, err error)

	// Leaderboard aggregates one entry per player, ordered by best height
	// descending with completion count breaking ties
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// Stats returns the global aggregates across all records
	Stats(ctx context.Context) (StatsResult, error)

	// Each streams every score record to fn in insertion order.
	// Iteration stops at the first error fn returns.
	Each(ctx context.Context, fn func(ScoreRecord) error) error
}

// MongoScoreStore implements ScoreStore over a MongoDB collection
type MongoScoreStore struct {
	coll *mongo.Collection
}

// NewMongoScoreStore creates a new MongoScoreStore instance
func NewMongoScoreStore(coll *mongo.Collection) *MongoScoreStore {
	return &MongoScoreStore{coll: coll}
}

// Insert writes a new score record
func (s *MongoScoreStore) Insert(ctx context.Context, rec ScoreRecord) error {
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

// CountByPlayer returns the player's run count
func (s *MongoScoreStore) CountByPlayer(ctx context.Context, player string, completedOnly bool) (int64, error) {
	filter := bson.M{"player_name": player}
	if completedOnly {
		filter["completed"] = true
	}
	n, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count scores: %w", err)
	}
	return n, nil
}

// BestHeight returns the player's highest recorded height
func (s *MongoScoreStore) BestHeight(ctx context.Context, player string) (int, bool, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "height", Value: -1}}).
		SetProjection(bson.M{"height": 1})

	var doc struct {
		Height int `bson:"height"`
	}
	err := s.coll.FindOne(ctx, bson.M{"player_name": player}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to query best height: %w", err)
	}
	return doc.Height, true, nil
}

// Leaderboard aggregates one entry per player
func (s *MongoScoreStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$player_name"},
			{Key: "max_height", Value: bson.D{{Key: "$max", Value: "$height"}}},
			{Key: "completions", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{"$completed", 1, 0}},
			}}}},
			// $min skips nulls, so non-completed runs never contribute a time
			{Key: "best_time", Value: bson.D{{Key: "$min", Value: bson.D{
				{Key: "$cond", Value: bson.A{"$completed", "$completion_time", nil}},
			}}}},
			{Key: "score_id", Value: bson.D{{Key: "$first", Value: "$_id"}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "max_height", Value: -1},
			{Key: "completions", Value: -1},
		}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []LeaderboardEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}
	return entries, nil
}

// Stats returns the global aggregates across all records
func (s *MongoScoreStore) Stats(ctx context.Context) (StatsResult, error) {
	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return StatsResult{}, fmt.Errorf("failed to count plays: %w", err)
	}
	if total == 0 {
		return StatsResult{}, nil
	}

	completed, err := s.coll.CountDocuments(ctx, bson.M{"completed": true})
	if err != nil {
		return StatsResult{}, fmt.Errorf("failed to count completions: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg_height", Value: bson.D{{Key: "$avg", Value: "$height"}}},
		}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return StatsResult{}, fmt.Errorf("failed to aggregate average height: %w", err)
	}
	defer cursor.Close(ctx)

	var avg []struct {
		AvgHeight float64 `bson:"avg_height"`
	}
	if err := cursor.All(ctx, &avg); err != nil {
		return StatsResult{}, fmt.Errorf("failed to decode average height: %w", err)
	}

	result := StatsResult{
		TotalPlays:     total,
		CompletedPlays: completed,
	}
	if len(avg) > 0 {
		result.AverageHeight = avg[0].AvgHeight
	}
	return result, nil
}

// Each streams every score record to fn in insertion order
func (s *MongoScoreStore) Each(ctx context.Context, fn func(ScoreRecord) error) error {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("failed to open score cursor: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var rec ScoreRecord
		if err := cursor.Decode(&rec); err != nil {
			return fmt.Errorf("failed to decode score: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return cursor.Err()
}

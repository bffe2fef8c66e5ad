package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an update or lookup matches no document
var ErrNotFound = errors.New("not found")

// ScoreRecord is one finished run. Immutable once written.
type ScoreRecord struct {
	ID             string    `bson:"_id" json:"id"`
	PlayerName     string    `bson:"player_name" json:"player_name"`
	Height         int       `bson:"height" json:"height"`
	Completed      bool      `bson:"completed" json:"completed"`
	CompletionTime *int      `bson:"completion_time,omitempty" json:"completion_time,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// SessionRecord tracks a single play attempt from start to end
type SessionRecord struct {
	ID          string     `bson:"_id" json:"id"`
	PlayerName  string     `bson:"player_name,omitempty" json:"player_name,omitempty"`
	StartTime   time.Time  `bson:"start_time" json:"start_time"`
	EndTime     *time.Time `bson:"end_time,omitempty" json:"end_time,omitempty"`
	FinalHeight int        `bson:"final_height" json:"final_height"`
	Completed   bool       `bson:"completed" json:"completed"`
	PlayTime    int        `bson:"play_time" json:"play_time"`
}

// SessionFinal carries the terminal state written by a session update
type SessionFinal struct {
	FinalHeight int
	Completed   bool
	PlayTime    int
}

// UnlockRecord marks an achievement granted to a player.
// The (player_name, achievement_id) pair is unique; records are never
// updated or deleted.
type UnlockRecord struct {
	ID            string    `bson:"_id" json:"id"`
	PlayerName    string    `bson:"player_name" json:"player_name"`
	AchievementID string    `bson:"achievement_id" json:"achievement_id"`
	UnlockedAt    time.Time `bson:"unlocked_at" json:"unlocked_at"`
}

// LeaderboardEntry is one player's aggregated best performance
type LeaderboardEntry struct {
	ID          string `bson:"score_id" json:"id"`
	Name        string `bson:"_id" json:"name"`
	Height      int    `bson:"max_height" json:"height"`
	Completions int    `bson:"completions" json:"completions"`
	BestTime    *int   `bson:"best_time" json:"best_time"`
}

// StatsResult holds the raw global aggregates before presentation rounding
type StatsResult struct {
	TotalPlays     int64
	CompletedPlays int64
	AverageHeight  float64
}

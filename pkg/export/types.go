package export

import (
	"time"

	"bagking/pkg/store"
)

// ScoreRow is a score record shaped for the analytics table
type ScoreRow struct {
	ID             string    `db:"id"`
	PlayerName     string    `db:"player_name"`
	Height         int       `db:"height"`
	Completed      bool      `db:"completed"`
	CompletionTime *int      `db:"completion_time"`
	CreatedAt      time.Time `db:"created_at"`
}

// RowFromRecord converts a score record into its analytics row
func RowFromRecord(rec store.ScoreRecord) ScoreRow {
	return ScoreRow{
		ID:             rec.ID,
		PlayerName:     rec.PlayerName,
		Height:         rec.Height,
		Completed:      rec.Completed,
		CompletionTime: rec.CompletionTime,
		CreatedAt:      rec.CreatedAt,
	}
}

package export

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"bagking/pkg/logger"
)

// copyThreshold is the batch size at which COPY beats row-by-row upserts
const copyThreshold = 100

// Writer defines the interface for writing score batches to PostgreSQL
type Writer interface {
	// WriteBatch writes a batch of score rows.
	// Uses COPY protocol for large batches, prepared statements for small batches.
	WriteBatch(ctx context.Context, rows []ScoreRow) error

	// Close closes the database connection pool
	Close() error
}

// PGWriter implements Writer using pgxpool
type PGWriter struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// PostgresConfig holds database connection settings
type PostgresConfig struct {
	URI      string
	MinConns int32
	MaxConns int32
}

// NewPGWriter creates a new PGWriter instance
func NewPGWriter(ctx context.Context, cfg PostgresConfig, l *logger.Logger) (*PGWriter, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PGWriter{pool: pool, logger: l}, nil
}

// WriteBatch writes the rows using the best available protocol
func (w *PGWriter) WriteBatch(ctx context.Context, rows []ScoreRow) error {
	if len(rows) == 0 {
		return nil
	}

	if len(rows) >= copyThreshold {
		return w.writeBatchCopy(ctx, rows)
	}
	return w.writeBatchInsert(ctx, rows)
}

// writeBatchInsert uses standard INSERT with UPSERT logic for smaller batches.
// Scores are immutable, so a conflicting id is simply left alone.
func (w *PGWriter) writeBatchInsert(ctx context.Context, rows []ScoreRow) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO game_scores (id, player_name, height, completed, completion_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	for _, r := range rows {
		tag, err := tx.Exec(ctx, query, r.ID, r.PlayerName, r.Height, r.Completed, r.CompletionTime, r.CreatedAt)
		if err != nil {
			return err
		}

		status := "skipped"
		if tag.RowsAffected() == 1 {
			status = "inserted"
		}
		w.logger.Debug("export row complete", zap.String("id", r.ID), zap.String("status", status))
	}
	return tx.Commit(ctx)
}

// writeBatchCopy uses the COPY protocol for faster bulk ingest
func (w *PGWriter) writeBatchCopy(ctx context.Context, rows []ScoreRow) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "CREATE TEMP TABLE game_scores_temp (LIKE game_scores) ON COMMIT DROP")
	if err != nil {
		return fmt.Errorf("failed to create temp table: %w", err)
	}

	copyRows := make([][]interface{}, len(rows))
	for i, r := range rows {
		copyRows[i] = []interface{}{r.ID, r.PlayerName, r.Height, r.Completed, r.CompletionTime, r.CreatedAt}
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"game_scores_temp"},
		[]string{"id", "player_name", "height", "completed", "completion_time", "created_at"},
		pgx.CopyFromRows(copyRows),
	)
	if err != nil {
		return fmt.Errorf("copy from failed: %w", err)
	}

	const insertQuery = `
		INSERT INTO game_scores SELECT * FROM game_scores_temp
		ON CONFLICT (id) DO NOTHING
	`
	_, err = tx.Exec(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("insert from temp table failed: %w", err)
	}

	return tx.Commit(ctx)
}

// Close closes the pool
func (w *PGWriter) Close() error {
	w.pool.Close()
	return nil
}

// ShouldUseCopy is exported for testing protocol selection
func (w *PGWriter) ShouldUseCopy(rows []ScoreRow) bool {
	return len(rows) >= copyThreshold
}

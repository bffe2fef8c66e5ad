package export

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"bagking/pkg/checkpoint"
	"bagking/pkg/export"
	"bagking/pkg/logger"
	"bagking/pkg/metrics"
	"bagking/pkg/retry"
	"bagking/pkg/store"
	"bagking/pkg/stream"
)

// Config controls batching and follow behavior
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	Follow        bool
}

// Service ships score records from MongoDB into the analytics table.
// A run starts with a full sync of existing records; with Follow set it
// then tails the change stream and checkpoints its resume token.
type Service struct {
	logger     *logger.Logger
	cfg        Config
	scores     store.ScoreStore
	writer     export.Writer
	watcher    stream.Watcher
	checkpoint checkpoint.Store
	retryOpts  retry.Options
}

// NewService creates a new export service instance
func NewService(
	l *logger.Logger,
	cfg Config,
	scores store.ScoreStore,
	w export.Writer,
	watcher stream.Watcher,
	cp checkpoint.Store,
) *Service {
	return &Service{
		logger:     l,
		cfg:        cfg,
		scores:     scores,
		writer:     w,
		watcher:    watcher,
		checkpoint: cp,
		retryOpts:  retry.DefaultOptions(),
	}
}

// Run performs the export. Returns when the full sync finishes, or, in
// follow mode, when the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	token, err := s.checkpoint.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	// A saved token means a previous run already completed the full sync
	if token == nil {
		if err := s.fullSync(ctx); err != nil {
			return err
		}
	} else {
		s.logger.Info("resuming from checkpoint, skipping full sync")
	}

	if !s.cfg.Follow {
		return nil
	}
	return s.follow(ctx, token)
}

// fullSync streams every existing score record through the buffer
func (s *Service) fullSync(ctx context.Context) error {
	s.logger.Info("starting full sync")
	buf := export.NewBuffer(s.cfg.BatchSize)
	var total int

	err := s.scores.Each(ctx, func(rec store.ScoreRecord) error {
		total++
		if full := buf.Add(export.RowFromRecord(rec)); full {
			return s.flush(ctx, buf)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("full sync failed: %w", err)
	}

	if err := s.flush(ctx, buf); err != nil {
		return err
	}

	s.logger.Info("full sync complete", zap.Int("records", total))
	return nil
}

// follow tails the change stream, flushing on batch size or interval and
// checkpointing the resume token after each successful flush
func (s *Service) follow(ctx context.Context, token bson.Raw) error {
	s.logger.Info("following score inserts")

	buf := export.NewBuffer(s.cfg.BatchSize)
	eventChan, errChan := s.watcher.Watch(ctx, token)

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	var lastToken bson.Raw

	flushAndCheckpoint := func() error {
		if err := s.flush(ctx, buf); err != nil {
			return err
		}
		if lastToken == nil {
			return nil
		}
		if err := s.checkpoint.Save(ctx, lastToken); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
		metrics.ExportCheckpointSavesTotal.Inc()
		return nil
	}

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return flushAndCheckpoint()
			}
			lastToken = event.ResumeToken
			if full := buf.Add(export.RowFromRecord(event.Score)); full {
				if err := flushAndCheckpoint(); err != nil {
					return err
				}
			}

		case <-ticker.C:
			if buf.ShouldFlush(s.cfg.FlushInterval) {
				if err := flushAndCheckpoint(); err != nil {
					return err
				}
			}

		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("watcher error: %w", err)
			}

		case <-ctx.Done():
			// Use a fresh context so the final flush is not cancelled with us
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			ctx = flushCtx
			return flushAndCheckpoint()
		}
	}
}

// flush drains the buffer into the writer with retries
func (s *Service) flush(ctx context.Context, buf *export.Buffer) error {
	rows := buf.Flush()
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	err := retry.Do(ctx, func() error {
		return s.writer.WriteBatch(ctx, rows)
	}, s.retryOpts)
	if err != nil {
		metrics.ExportWriteErrorsTotal.Inc()
		return fmt.Errorf("failed to write batch of %d rows: %w", len(rows), err)
	}

	metrics.ExportWriteLatency.Observe(time.Since(start).Seconds())
	metrics.ExportRowsTotal.Add(float64(len(rows)))
	metrics.ExportBatchWritesTotal.Inc()
	s.logger.Debug("batch written", zap.Int("rows", len(rows)))
	return nil
}

// Shutdown stops the service gracefully
func (s *Service) Shutdown() error {
	s.logger.Info("shutting down export service")

	errWatch := s.watcher.Close()
	errWriter := s.writer.Close()

	if errWatch != nil || errWriter != nil {
		return fmt.Errorf("shutdown errors: watcher=%v, writer=%v", errWatch, errWriter)
	}
	return nil
}

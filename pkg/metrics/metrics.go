package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	ScoresSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagking_scores_saved_total",
		Help: "The total number of score records saved",
	})
	NewRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagking_new_records_total",
		Help: "The total number of new personal records",
	})
	SessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagking_sessions_started_total",
		Help: "The total number of play sessions started",
	})
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bagking_http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// Achievement Metrics
	AchievementsUnlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagking_achievements_unlocked_total",
		Help: "The total number of achievement unlock records created",
	})
	AchievementEvalErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagking_achievement_eval_errors_total",
		Help: "The total number of achievement evaluations that failed and were contained",
	})

	// Cache Metrics
	LeaderboardCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagking_leaderboard_cache_hits_total",
		Help: "The total number of leaderboard reads served from cache",
	})
	LeaderboardCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagking_leaderboard_cache_misses_total",
		Help: "The total number of leaderboard reads that fell through to the store",
	})

	// Event Metrics
	EventPublishErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagking_event_publish_errors_total",
		Help: "The total number of errors occurred while publishing game events",
	})

	// Exporter Metrics
	ExportRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagking_export_rows_total",
		Help: "The total number of score rows exported to PostgreSQL",
	})
	ExportBatchWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagking_export_batch_writes_total",
		Help: "The total number of batch write operations to PostgreSQL",
	})
	ExportWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagking_export_write_errors_total",
		Help: "The total number of errors occurred during PostgreSQL writes",
	})
	ExportCheckpointSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagking_export_checkpoint_saves_total",
		Help: "The total number of change-stream checkpoint saves",
	})
	ExportWriteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bagking_export_write_latency_seconds",
		Help:    "Latency of PostgreSQL batch writes",
		Buckets: prometheus.DefBuckets,
	})
)

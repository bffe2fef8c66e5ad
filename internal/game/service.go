package game

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bagking/pkg/achievements"
	"bagking/pkg/cache"
	"bagking/pkg/events"
	"bagking/pkg/logger"
	"bagking/pkg/metrics"
	"bagking/pkg/store"
)

// playTimeEstimate is the assumed duration of one run for the global
// play-time figure; there is no per-run wall clock on score records
const playTimeEstimate = 120 * time.Second

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// ValidationError marks a malformed request; the API layer surfaces it
// as a client error
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...interface{}) error {
	return ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// SaveScoreInput is a score-save request after JSON decoding
type SaveScoreInput struct {
	PlayerName     string
	Height         int
	Completed      bool
	CompletionTime *int
}

// SaveScoreResult reports the outcome of a score save
type SaveScoreResult struct {
	ScoreID         string
	NewRecord       bool
	NewAchievements []achievements.Definition
}

// Stats is the presentation form of the global aggregates
type Stats struct {
	TotalPlays     int64   `json:"total_plays"`
	AverageHeight  float64 `json:"average_height"`
	CompletionRate float64 `json:"completion_rate"`
	TotalPlayTime  string  `json:"total_play_time"`
}

// AchievementStatus is a catalog definition annotated with a player's unlock state
type AchievementStatus struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// Service composes the stores, evaluator, cache and event publisher
// behind the HTTP API
type Service struct {
	logger    *logger.Logger
	scores    store.ScoreStore
	sessions  store.SessionStore
	unlocks   store.UnlockStore
	evaluator *Evaluator
	cache     cache.LeaderboardCache // nil when disabled
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates a new Service instance. cache may be nil; publisher
// must not be (use events.NoopPublisher when eventing is disabled).
func NewService(
	l *logger.Logger,
	scores store.ScoreStore,
	sessions store.SessionStore,
	unlocks store.UnlockStore,
	evaluator *Evaluator,
	lbCache cache.LeaderboardCache,
	publisher events.Publisher,
) *Service {
	return &Service{
		logger:    l,
		scores:    scores,
		sessions:  sessions,
		unlocks:   unlocks,
		evaluator: evaluator,
		cache:     lbCache,
		publisher: publisher,
		now:       time.Now,
	}
}

// SaveScore persists a run, determines whether it set a personal record,
// and evaluates achievements. Achievement bookkeeping is best-effort: a
// failure there is logged and counted but the score stays saved.
func (s *Service) SaveScore(ctx context.Context, in SaveScoreInput) (SaveScoreResult, error) {
	in.PlayerName = strings.TrimSpace(in.PlayerName)
	if in.PlayerName == "" {
		return SaveScoreResult{}, validationErrorf("player_name is required")
	}
	if in.Height < 0 {
		return SaveScoreResult{}, validationErrorf("height must not be negative")
	}
	if in.CompletionTime != nil && *in.CompletionTime <= 0 {
		return SaveScoreResult{}, validationErrorf("completion_time must be positive")
	}
	// A completion time on a non-completed run has no meaning; drop it
	// rather than reject the save
	if !in.Completed {
		in.CompletionTime = nil
	}

	// The prior best must be read before the insert, otherwise the new
	// score would be compared against itself
	prior, hasPrior, err := s.scores.BestHeight(ctx, in.PlayerName)
	if err != nil {
		return SaveScoreResult{}, err
	}

	rec := store.ScoreRecord{
		ID:             uuid.NewString(),
		PlayerName:     in.PlayerName,
		Height:         in.Height,
		Completed:      in.Completed,
		CompletionTime: in.CompletionTime,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.scores.Insert(ctx, rec); err != nil {
		return SaveScoreResult{}, err
	}
	metrics.ScoresSavedTotal.Inc()

	result := SaveScoreResult{
		ScoreID:   rec.ID,
		NewRecord: !hasPrior || in.Height > prior,
	}
	if result.NewRecord {
		metrics.NewRecordsTotal.Inc()
	}

	newly, err := s.evaluator.Evaluate(ctx, GameResult{
		PlayerName:     in.PlayerName,
		Height:         in.Height,
		Completed:      in.Completed,
		CompletionTime: in.CompletionTime,
	})
	if err != nil {
		// Contained: the score is saved regardless of achievement bookkeeping
		metrics.AchievementEvalErrorsTotal.Inc()
		s.logger.Error("achievement evaluation failed", err, zap.String("player", in.PlayerName))
		newly = nil
	}
	result.NewAchievements = newly
	metrics.AchievementsUnlockedTotal.Add(float64(len(newly)))

	s.invalidateLeaderboard(ctx)
	s.publishScoreEvents(ctx, rec, newly)

	return result, nil
}

func (s *Service) invalidateLeaderboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate leaderboard cache", zap.Error(err))
	}
}

func (s *Service) publishScoreEvents(ctx context.Context, rec store.ScoreRecord, newly []achievements.Definition) {
	envelopes := make([]events.Envelope, 0, len(newly)+1)
	envelopes = append(envelopes, events.Envelope{
		Type:       events.TypeScoreSaved,
		PlayerName: rec.PlayerName,
		ScoreID:    rec.ID,
		Height:     rec.Height,
		Completed:  rec.Completed,
		OccurredAt: rec.CreatedAt,
	})
	for _, d := range newly {
		envelopes = append(envelopes, events.Envelope{
			Type:          events.TypeAchievementUnlocked,
			PlayerName:    rec.PlayerName,
			AchievementID: d.ID,
			OccurredAt:    rec.CreatedAt,
		})
	}

	for _, env := range envelopes {
		resultChan := s.publisher.PublishAsync(ctx, env)
		go func(env events.Envelope) {
			if res := <-resultChan; res.Error != nil {
				metrics.EventPublishErrorsTotal.Inc()
				s.logger.Warn("failed to publish game event",
					zap.Error(res.Error), zap.String("type", env.Type))
			}
		}(env)
	}
}

// Leaderboard returns up to limit entries, one per player, best height
// first. Served from cache when a fresh page exists.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	if s.cache != nil {
		entries, ok, err := s.cache.Get(ctx, limit)
		if err != nil {
			s.logger.Warn("leaderboard cache read failed", zap.Error(err))
		} else if ok {
			metrics.LeaderboardCacheHitsTotal.Inc()
			return entries, nil
		}
		metrics.LeaderboardCacheMissesTotal.Inc()
	}

	entries, err := s.scores.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, limit, entries); err != nil {
			s.logger.Warn("leaderboard cache write failed", zap.Error(err))
		}
	}
	return entries, nil
}

// Stats returns the global game statistics
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	raw, err := s.scores.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalPlays:    raw.TotalPlays,
		AverageHeight: round1(raw.AverageHeight),
	}
	if raw.TotalPlays > 0 {
		stats.CompletionRate = round1(float64(raw.CompletedPlays) / float64(raw.TotalPlays) * 100)
	}

	total := time.Duration(raw.TotalPlays) * playTimeEstimate
	hours := int(total.Hours())
	minutes := int(total.Minutes()) % 60
	stats.TotalPlayTime = fmt.Sprintf("%dh %dm", hours, minutes)

	return stats, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// StartSession creates a new play session and returns its id
func (s *Service) StartSession(ctx context.Context, playerName string) (string, error) {
	rec := store.SessionRecord{
		ID:         uuid.NewString(),
		PlayerName: strings.TrimSpace(playerName),
		StartTime:  s.now().UTC(),
	}
	if err := s.sessions.Insert(ctx, rec); err != nil {
		return "", err
	}
	metrics.SessionsStartedTotal.Inc()
	return rec.ID, nil
}

// UpdateSession writes a session's final state.
// Returns store.ErrNotFound when the id does not exist.
func (s *Service) UpdateSession(ctx context.Context, id string, final store.SessionFinal) error {
	if strings.TrimSpace(id) == "" {
		return validationErrorf("session id is required")
	}
	if final.FinalHeight < 0 {
		return validationErrorf("height must not be negative")
	}
	if final.PlayTime < 0 {
		return validationErrorf("play_time must not be negative")
	}
	return s.sessions.UpdateByID(ctx, id, final)
}

// PlayerAchievements returns the whole catalog annotated with the
// player's unlock status
func (s *Service) PlayerAchievements(ctx context.Context, player string) ([]AchievementStatus, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return nil, validationErrorf("player_name is required")
	}

	unlocked, err := s.unlocks.ListByPlayer(ctx, player)
	if err != nil {
		return nil, err
	}

	unlockedAt := make(map[string]time.Time, len(unlocked))
	for _, rec := range unlocked {
		unlockedAt[rec.AchievementID] = rec.UnlockedAt
	}

	statuses := make([]AchievementStatus, 0, len(achievements.Catalog))
	for _, d := range achievements.Catalog {
		status := AchievementStatus{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Icon:        d.Icon,
		}
		if at, ok := unlockedAt[d.ID]; ok {
			status.Unlocked = true
			at := at
			status.UnlockedAt = &at
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// ManualUnlock grants an achievement directly, bypassing criteria evaluation
func (s *Service) ManualUnlock(ctx context.Context, player, achievementID string) (UnlockResult, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return UnlockResult{}, validationErrorf("player_name is required")
	}
	if strings.TrimSpace(achievementID) == "" {
		return UnlockResult{}, validationErrorf("achievement_id is required")
	}

	result, err := s.evaluator.ManualUnlock(ctx, player, achievementID)
	if err != nil {
		return UnlockResult{}, err
	}
	if !result.AlreadyUnlocked {
		metrics.AchievementsUnlockedTotal.Inc()
	}
	return result, nil
}

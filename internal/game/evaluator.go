package game

import (
	"context"
	"fmt"
	"time"

	"bagking/pkg/achievements"
	"bagking/pkg/logger"
	"bagking/pkg/store"

	"go.uber.org/zap"
)

// GameResult is the outcome of a just-finished run, as seen by the evaluator
type GameResult struct {
	PlayerName     string
	Height         int
	Completed      bool
	CompletionTime *int
}

// UnlockResult is the outcome of a manual unlock request
type UnlockResult struct {
	AlreadyUnlocked bool
	// Definition is nil when the achievement id is not in the catalog.
	// The unlock is still recorded; an unknown id is informational, not an error.
	Definition *achievements.Definition
}

// Evaluator decides which achievements a run newly earns and grants them
// exactly once per player. All granting goes through the unlock store's
// insert-if-absent, so concurrent evaluations for the same player cannot
// double-grant.
type Evaluator struct {
	logger  *logger.Logger
	unlocks store.UnlockStore
	scores  store.ScoreStore
	now     func() time.Time
}

// NewEvaluator creates a new Evaluator instance
func NewEvaluator(l *logger.Logger, unlocks store.UnlockStore, scores store.ScoreStore) *Evaluator {
	return &Evaluator{
		logger:  l,
		unlocks: unlocks,
		scores:  scores,
		now:     time.Now,
	}
}

// Evaluate returns the definitions newly unlocked by the run, already
// persisted. Re-running with identical inputs yields an empty result.
func (e *Evaluator) Evaluate(ctx context.Context, res GameResult) ([]achievements.Definition, error) {
	existing, err := e.unlocks.ListByPlayer(ctx, res.PlayerName)
	if err != nil {
		return nil, fmt.Errorf("failed to load unlocked achievements: %w", err)
	}

	unlockedIDs := make(map[string]bool, len(existing))
	for _, rec := range existing {
		unlockedIDs[rec.AchievementID] = true
	}

	var earned []achievements.Definition
	seen := make(map[string]bool)
	add := func(d achievements.Definition) {
		if unlockedIDs[d.ID] || seen[d.ID] {
			return
		}
		seen[d.ID] = true
		earned = append(earned, d)
	}

	// Height-based grants
	for _, d := range achievements.ForHeight(res.Height) {
		add(d)
	}

	// Completion-based grants
	if res.Completed {
		var completions int64
		counted := false

		for _, d := range achievements.CompletionAchievements() {
			if unlockedIDs[d.ID] {
				continue
			}
			switch d.Criteria.Kind {
			case achievements.KindCompletion:
				add(d)
			case achievements.KindCompletionTime:
				if res.CompletionTime != nil && *res.CompletionTime <= d.Criteria.Threshold {
					add(d)
				}
			case achievements.KindCompletions:
				if !counted {
					completions, err = e.scores.CountByPlayer(ctx, res.PlayerName, true)
					if err != nil {
						return nil, fmt.Errorf("failed to count completions: %w", err)
					}
					counted = true
				}
				if completions >= int64(d.Criteria.Threshold) {
					add(d)
				}
			}
		}
	}

	// Games-played grants apply whether or not the run completed
	pending := false
	for _, d := range achievements.GamesPlayedAchievements() {
		if !unlockedIDs[d.ID] {
			pending = true
			break
		}
	}
	if pending {
		total, err := e.scores.CountByPlayer(ctx, res.PlayerName, false)
		if err != nil {
			return nil, fmt.Errorf("failed to count games played: %w", err)
		}
		for _, d := range achievements.GamesPlayedAchievements() {
			if !unlockedIDs[d.ID] && total >= int64(d.Criteria.Threshold) {
				add(d)
			}
		}
	}

	// Persist the grants. Only records actually created are reported, so
	// a concurrent evaluation that won the race silences this one.
	var granted []achievements.Definition
	for _, d := range earned {
		inserted, err := e.unlocks.InsertIfAbsent(ctx, res.PlayerName, d.ID, e.now())
		if err != nil {
			return granted, fmt.Errorf("failed to grant achievement %s: %w", d.ID, err)
		}
		if inserted {
			granted = append(granted, d)
			e.logger.Debug("achievement unlocked",
				zap.String("player", res.PlayerName),
				zap.String("achievement", d.ID))
		}
	}

	return granted, nil
}

// ManualUnlock grants an achievement directly, bypassing criteria evaluation
func (e *Evaluator) ManualUnlock(ctx context.Context, player, achievementID string) (UnlockResult, error) {
	inserted, err := e.unlocks.InsertIfAbsent(ctx, player, achievementID, e.now())
	if err != nil {
		return UnlockResult{}, fmt.Errorf("failed to unlock achievement: %w", err)
	}
	if !inserted {
		return UnlockResult{AlreadyUnlocked: true}, nil
	}

	result := UnlockResult{}
	if d, ok := achievements.ByID(achievementID); ok {
		result.Definition = &d
	}
	return result, nil
}

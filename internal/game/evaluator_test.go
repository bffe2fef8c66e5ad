package game

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bagking/pkg/achievements"
	"bagking/pkg/logger"
	"bagking/pkg/store"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Config{Level: "error", ServiceName: "test"})
	require.NoError(t, err)
	return l
}

func grantedIDs(defs []achievements.Definition) []string {
	ids := make([]string, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	return ids
}

func intPtr(v int) *int { return &v }

func seedScore(t *testing.T, scores *fakeScoreStore, player string, height int, completed bool) {
	t.Helper()
	require.NoError(t, scores.Insert(context.Background(), store.ScoreRecord{
		ID:         uuid.NewString(),
		PlayerName: player,
		Height:     height,
		Completed:  completed,
	}))
}

func TestEvaluateHeightGrant(t *testing.T) {
	scores := &fakeScoreStore{}
	unlocks := newFakeUnlockStore()
	e := NewEvaluator(testLogger(t), unlocks, scores)

	seedScore(t, scores, "Ana", 10, false)

	granted, err := e.Evaluate(context.Background(), GameResult{
		PlayerName: "Ana",
		Height:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first_steps"}, grantedIDs(granted))
}

func TestEvaluateIdempotence(t *testing.T) {
	scores := &fakeScoreStore{}
	unlocks := newFakeUnlockStore()
	e := NewEvaluator(testLogger(t), unlocks, scores)

	seedScore(t, scores, "Ana", 120, false)
	res := GameResult{PlayerName: "Ana", Height: 120}

	first, err := e.Evaluate(context.Background(), res)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"first_steps", "getting_high", "sky_walker"}, grantedIDs(first))

	second, err := e.Evaluate(context.Background(), res)
	require.NoError(t, err)
	assert.Empty(t, second, "identical re-evaluation must grant nothing")
}

func TestEvaluateCompletedRun(t *testing.T) {
	scores := &fakeScoreStore{}
	unlocks := newFakeUnlockStore()
	e := NewEvaluator(testLogger(t), unlocks, scores)

	seedScore(t, scores, "Ana", 300, true)

	granted, err := e.Evaluate(context.Background(), GameResult{
		PlayerName:     "Ana",
		Height:         300,
		Completed:      true,
		CompletionTime: intPtr(280),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"first_steps", "getting_high", "sky_walker", "stratosphere",
		"redemption", "speed_runner",
	}, grantedIDs(granted))
}

func TestEvaluateCompletionTimeTooSlow(t *testing.T) {
	scores := &fakeScoreStore{}
	unlocks := newFakeUnlockStore()
	e := NewEvaluator(testLogger(t), unlocks, scores)

	seedScore(t, scores, "Ana", 300, true)

	granted, err := e.Evaluate(context.Background(), GameResult{
		PlayerName:     "Ana",
		Height:         300,
		Completed:      true,
		CompletionTime: intPtr(400),
	})
	require.NoError(t, err)
	assert.NotContains(t, grantedIDs(granted), "speed_runner")
	assert.Contains(t, grantedIDs(granted), "redemption")
}

func TestEvaluateMissingCompletionTime(t *testing.T) {
	// An absent completion time never satisfies the time criteria but
	// does not abort evaluation
	scores := &fakeScoreStore{}
	unlocks := newFakeUnlockStore()
	e := NewEvaluator(testLogger(t), unlocks, scores)

	seedScore(t, scores, "Ana", 0, true)

	granted, err := e.Evaluate(context.Background(), GameResult{
		PlayerName: "Ana",
		Height:     0,
		Completed:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"redemption"}, grantedIDs(granted))
}

func TestEvaluateCompletionsCount(t *testing.T) {
	scores := &fakeScoreStore{}
	unlocks := newFakeUnlockStore()
	e := NewEvaluator(testLogger(t), unlocks, scores)

	// Two prior completions plus the run being evaluated
	seedScore(t, scores, "Ana", 300, true)
	seedScore(t, scores, "Ana", 300, true)
	seedScore(t, scores, "Ana", 300, true)

	granted, err := e.Evaluate(context.Background(), GameResult{
		PlayerName: "Ana",
		Height:     0,
		Completed:  true,
	})
	require.NoError(t, err)
	assert.Contains(t, grantedIDs(granted), "master_jumper")
}

func TestEvaluateGamesPlayed(t *testing.T) {
	scores := &fakeScoreStore{}
	unlocks := newFakeUnlockStore()
	e := NewEvaluator(testLogger(t), unlocks, scores)

	for i := 0; i < 10; i++ {
		seedScore(t, scores, "Ana", 1, false)
	}

	// Games-played grants apply even on a non-completed run
	granted, err := e.Evaluate(context.Background(), GameResult{
		PlayerName: "Ana",
		Height:     1,
	})
	require.NoError(t, err)
	assert.Contains(t, grantedIDs(granted), "persistent")
}

func TestEvaluateConcurrentUniqueness(t *testing.T) {
	scores := &fakeScoreStore{}
	unlocks := newFakeUnlockStore()
	e := NewEvaluator(testLogger(t), unlocks, scores)

	seedScore(t, scores, "Ana", 60, false)
	res := GameResult{PlayerName: "Ana", Height: 60}

	const workers = 16
	grantCounts := make(map[string]int)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted, err := e.Evaluate(context.Background(), res)
			assert.NoError(t, err)
			mu.Lock()
			for _, d := range granted {
				grantCounts[d.ID]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Height 60 reaches first_steps and getting_high; each is granted
	// exactly once across all racers and one record exists per pair
	assert.Equal(t, map[string]int{"first_steps": 1, "getting_high": 1}, grantCounts)
	assert.Equal(t, 2, unlocks.count())
}

func TestEvaluateListFailure(t *testing.T) {
	scores := &fakeScoreStore{}
	unlocks := newFakeUnlockStore()
	unlocks.listErr = errors.New("connection reset")
	e := NewEvaluator(testLogger(t), unlocks, scores)

	_, err := e.Evaluate(context.Background(), GameResult{PlayerName: "Ana", Height: 10})
	assert.Error(t, err)
}

func TestManualUnlock(t *testing.T) {
	scores := &fakeScoreStore{}
	unlocks := newFakeUnlockStore()
	e := NewEvaluator(testLogger(t), unlocks, scores)
	ctx := context.Background()

	res, err := e.ManualUnlock(ctx, "Ana", "redemption")
	require.NoError(t, err)
	assert.False(t, res.AlreadyUnlocked)
	require.NotNil(t, res.Definition)
	assert.Equal(t, "redemption", res.Definition.ID)

	// Second unlock is a no-op, not a duplicate
	res, err = e.ManualUnlock(ctx, "Ana", "redemption")
	require.NoError(t, err)
	assert.True(t, res.AlreadyUnlocked)
	assert.Equal(t, 1, unlocks.count())
}

func TestManualUnlockUnknownID(t *testing.T) {
	scores := &fakeScoreStore{}
	unlocks := newFakeUnlockStore()
	e := NewEvaluator(testLogger(t), unlocks, scores)

	res, err := e.ManualUnlock(context.Background(), "Ana", "not_in_catalog")
	require.NoError(t, err)
	assert.False(t, res.AlreadyUnlocked)
	assert.Nil(t, res.Definition, "unknown ids are informational, not errors")
	assert.Equal(t, 1, unlocks.count())
}

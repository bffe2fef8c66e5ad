package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bagking/pkg/events"
	"bagking/pkg/store"
)

// fakeScoreStore is an in-memory ScoreStore mirroring the aggregation
// semantics of the Mongo implementation
type fakeScoreStore struct {
	mu      sync.Mutex
	records []store.ScoreRecord

	insertErr error
	queryErr  error

	leaderboardCalls int
	lastLimit        int
}

func (f *fakeScoreStore) Insert(ctx context.Context, rec store.ScoreRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeScoreStore) CountByPlayer(ctx context.Context, player string, completedOnly bool) (int64, error) {
	if f.queryErr != nil {
		return 0, f.queryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.records {
		if r.PlayerName == player && (!completedOnly || r.Completed) {
			n++
		}
	}
	return n, nil
}

func (f *fakeScoreStore) BestHeight(ctx context.Context, player string) (int, bool, error) {
	if f.queryErr != nil {
		return 0, false, f.queryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	best, found := 0, false
	for _, r := range f.records {
		if r.PlayerName != player {
			continue
		}
		if !found || r.Height > best {
			best = r.Height
		}
		found = true
	}
	return best, found, nil
}

func (f *fakeScoreStore) Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardEntry, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaderboardCalls++
	f.lastLimit = limit

	byPlayer := make(map[string]*store.LeaderboardEntry)
	var order []string
	for _, r := range f.records {
		e, ok := byPlayer[r.PlayerName]
		if !ok {
			e = &store.LeaderboardEntry{ID: r.ID, Name: r.PlayerName}
			byPlayer[r.PlayerName] = e
			order = append(order, r.PlayerName)
		}
		if r.Height > e.Height {
			e.Height = r.Height
		}
		if r.Completed {
			e.Completions++
			if r.CompletionTime != nil && (e.BestTime == nil || *r.CompletionTime < *e.BestTime) {
				t := *r.CompletionTime
				e.BestTime = &t
			}
		}
	}

	entries := make([]store.LeaderboardEntry, 0, len(byPlayer))
	for _, name := range order {
		entries = append(entries, *byPlayer[name])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Height != entries[j].Height {
			return entries[i].Height > entries[j].Height
		}
		return entries[i].Completions > entries[j].Completions
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f *fakeScoreStore) Stats(ctx context.Context) (store.StatsResult, error) {
	if f.queryErr != nil {
		return store.StatsResult{}, f.queryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	res := store.StatsResult{TotalPlays: int64(len(f.records))}
	if res.TotalPlays == 0 {
		return res, nil
	}
	var sum int
	for _, r := range f.records {
		sum += r.Height
		if r.Completed {
			res.CompletedPlays++
		}
	}
	res.AverageHeight = float64(sum) / float64(res.TotalPlays)
	return res, nil
}

func (f *fakeScoreStore) Each(ctx context.Context, fn func(store.ScoreRecord) error) error {
	if f.queryErr != nil {
		return f.queryErr
	}
	f.mu.Lock()
	records := append([]store.ScoreRecord(nil), f.records...)
	f.mu.Unlock()
	for _, r := range records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// fakeSessionStore is an in-memory SessionStore
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]store.SessionRecord
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]store.SessionRecord)}
}

func (f *fakeSessionStore) Insert(ctx context.Context, rec store.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[rec.ID] = rec
	return nil
}

func (f *fakeSessionStore) UpdateByID(ctx context.Context, id string, final store.SessionFinal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	rec.FinalHeight = final.FinalHeight
	rec.Completed = final.Completed
	rec.PlayTime = final.PlayTime
	rec.EndTime = &now
	f.sessions[id] = rec
	return nil
}

// fakeUnlockStore enforces the unique-pair invariant under a mutex, so
// concurrent evaluator runs exercise the same race the store resolves
type fakeUnlockStore struct {
	mu      sync.Mutex
	records map[string]store.UnlockRecord // key: player + "\x00" + achievement id

	listErr   error
	insertErr error
}

func newFakeUnlockStore() *fakeUnlockStore {
	return &fakeUnlockStore{records: make(map[string]store.UnlockRecord)}
}

func unlockKey(player, achievementID string) string {
	return player + "\x00" + achievementID
}

func (f *fakeUnlockStore) ListByPlayer(ctx context.Context, player string) ([]store.UnlockRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.UnlockRecord
	for _, rec := range f.records {
		if rec.PlayerName == player {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeUnlockStore) InsertIfAbsent(ctx context.Context, player, achievementID string, at time.Time) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := unlockKey(player, achievementID)
	if _, exists := f.records[key]; exists {
		return false, nil
	}
	f.records[key] = store.UnlockRecord{
		ID:            uuid.NewString(),
		PlayerName:    player,
		AchievementID: achievementID,
		UnlockedAt:    at,
	}
	return true, nil
}

func (f *fakeUnlockStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakePublisher records envelopes and reports success
type fakePublisher struct {
	mu        sync.Mutex
	envelopes []events.Envelope
}

func (f *fakePublisher) PublishAsync(ctx context.Context, event events.Envelope) <-chan events.PublishResult {
	f.mu.Lock()
	f.envelopes = append(f.envelopes, event)
	f.mu.Unlock()

	ch := make(chan events.PublishResult, 1)
	ch <- events.PublishResult{}
	close(ch)
	return ch
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) published() []events.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.Envelope(nil), f.envelopes...)
}

package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// fakeWorkoutStore is an in-memory WorkoutStore recording every call, with
// injectable failures and a switch to scramble insert-acknowledgement order.
type fakeWorkoutStore struct {
	mu sync.Mutex

	insertWorkoutErr error
	insertLinksErr   error
	insertSetsErr    error
	deleteErr        error
	lastSetsErr      error

	// reverseLinkOrder returns InsertWorkoutExercises acknowledgements in
	// reverse request order, exercising the order-index correlation.
	reverseLinkOrder bool

	// dropLastLinkAck returns one acknowledgement fewer than requested,
	// as a misbehaving store might after a partial write.
	dropLastLinkAck bool

	workouts []models.WorkoutRow
	links    []models.WorkoutExerciseRow
	sets     []models.WorkoutSetRow
	deleted  []uuid.UUID
	lastSets []models.WorkoutSetRow

	calls int
}

func (f *fakeWorkoutStore) InsertWorkout(_ context.Context, row models.WorkoutRow) (models.WorkoutRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.insertWorkoutErr != nil {
		return models.WorkoutRow{}, f.insertWorkoutErr
	}
	row.ID = uuid.New()
	f.workouts = append(f.workouts, row)
	return row, nil
}

func (f *fakeWorkoutStore) InsertWorkoutExercises(_ context.Context, rows []models.WorkoutExerciseRow) ([]models.WorkoutExerciseRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.insertLinksErr != nil {
		return nil, f.insertLinksErr
	}
	out := make([]models.WorkoutExerciseRow, len(rows))
	for i, r := range rows {
		r.ID = uuid.New()
		f.links = append(f.links, r)
		out[i] = r
	}
	if f.reverseLinkOrder {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if f.dropLastLinkAck && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeWorkoutStore) InsertWorkoutSets(_ context.Context, rows []models.WorkoutSetRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.insertSetsErr != nil {
		return f.insertSetsErr
	}
	f.sets = append(f.sets, rows...)
	return nil
}

func (f *fakeWorkoutStore) DeleteWorkout(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeWorkoutStore) FetchLastPerformedSets(_ context.Context, _ uuid.UUID, _ int) ([]models.WorkoutSetRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.lastSetsErr != nil {
		return nil, f.lastSetsErr
	}
	return f.lastSets, nil
}

// ctxWorkoutStore honors context cancellation on the last-sets fetch, the
// way a real database driver does.
type ctxWorkoutStore struct {
	fakeWorkoutStore
	fetchDelay time.Duration
}

func (f *ctxWorkoutStore) FetchLastPerformedSets(ctx context.Context, _ uuid.UUID, _ int) ([]models.WorkoutSetRow, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.fetchDelay):
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.lastSets, nil
}

func (f *fakeWorkoutStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSettingsStore returns a fixed settings row or a fixed error.
type fakeSettingsStore struct {
	settings models.Settings
	err      error
}

func (f *fakeSettingsStore) FetchSettings(_ context.Context, userID int) (models.Settings, error) {
	if f.err != nil {
		return models.Settings{}, f.err
	}
	s := f.settings
	s.UserID = userID
	return s, nil
}

// fakeJournal records draft operations in memory.
type fakeJournal struct {
	mu      sync.Mutex
	drafts  map[int]Draft
	deletes int
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{drafts: make(map[int]Draft)}
}

func (f *fakeJournal) SaveDraft(userID int, d Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts[userID] = d
	return nil
}

func (f *fakeJournal) DeleteDraft(userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drafts, userID)
	f.deletes++
	return nil
}

func (f *fakeJournal) ListDrafts() ([]Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Draft, 0, len(f.drafts))
	for _, d := range f.drafts {
		out = append(out, d)
	}
	return out, nil
}

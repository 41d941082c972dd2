package session

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

func snapshotWith(setCounts ...int) *models.Session {
	started := time.Now().Add(-45 * time.Minute)
	ended := time.Now()
	s := &models.Session{
		ID:         uuid.New(),
		UserID:     1,
		StartedAt:  started,
		EndedAt:    &ended,
		Name:       "Leg Day",
		Visibility: models.VisibilityPrivate,
	}
	for _, count := range setCounts {
		ex := models.SessionExercise{
			ID:          uuid.New(),
			Exercise:    models.Exercise{ID: uuid.New(), Name: "Squat"},
			RestSeconds: 90,
		}
		for j := 0; j < count; j++ {
			ex.Sets = append(ex.Sets, models.SessionSet{
				ID:        uuid.New(),
				Weight:    float64(100 + 10*j),
				Reps:      5,
				Completed: true,
			})
		}
		s.Exercises = append(s.Exercises, ex)
	}
	return s
}

func newTestGateway(store *fakeWorkoutStore, settings *fakeSettingsStore) *Gateway {
	return NewGateway(store, settings, testLogger())
}

// TestSaveRowCountsAndOrder verifies N exercises with set counts [s1..sN]
// produce 1 workout, N links with order indices 0..N-1 in snapshot order, and
// sum(si) sets with per-exercise indices 0..si-1 — even when the store
// acknowledges link inserts in reverse order.
func TestSaveRowCountsAndOrder(t *testing.T) {
	store := &fakeWorkoutStore{reverseLinkOrder: true}
	g := newTestGateway(store, &fakeSettingsStore{settings: kgSettings()})

	snap := snapshotWith(3, 1, 2)
	workout, err := g.Save(context.Background(), snap)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if workout.ID == uuid.Nil {
		t.Fatal("workout missing server-assigned identity")
	}

	if len(store.workouts) != 1 {
		t.Fatalf("workout rows = %d, want 1", len(store.workouts))
	}
	if len(store.links) != 3 {
		t.Fatalf("link rows = %d, want 3", len(store.links))
	}
	for i, link := range store.links {
		if link.OrderIndex != i {
			t.Errorf("link %d order index = %d", i, link.OrderIndex)
		}
		if link.WorkoutID != workout.ID {
			t.Errorf("link %d references workout %s", i, link.WorkoutID)
		}
		if link.ExerciseID != snap.Exercises[i].Exercise.ID {
			t.Errorf("link %d does not reference snapshot exercise %d", i, i)
		}
	}

	if len(store.sets) != 6 {
		t.Fatalf("set rows = %d, want 6", len(store.sets))
	}

	// Group persisted sets by link identity and check correlation despite the
	// reversed acknowledgement order.
	byLink := make(map[uuid.UUID][]models.WorkoutSetRow)
	for _, set := range store.sets {
		byLink[set.WorkoutExerciseID] = append(byLink[set.WorkoutExerciseID], set)
	}
	wantCounts := []int{3, 1, 2}
	for i, link := range store.links {
		sets := byLink[link.ID]
		if len(sets) != wantCounts[i] {
			t.Errorf("exercise %d has %d sets, want %d", i, len(sets), wantCounts[i])
		}
		for j, set := range sets {
			if set.OrderIndex != j {
				t.Errorf("exercise %d set %d order index = %d", i, j, set.OrderIndex)
			}
			if want := float64(100 + 10*j); set.WeightKg != want {
				t.Errorf("exercise %d set %d weight = %v, want %v", i, j, set.WeightKg, want)
			}
		}
	}
}

// TestSaveNormalizesWeight verifies lbs display weights are stored as kg.
func TestSaveNormalizesWeight(t *testing.T) {
	store := &fakeWorkoutStore{}
	settings := kgSettings()
	settings.WeightUnit = "lbs"
	g := newTestGateway(store, &fakeSettingsStore{settings: settings})

	snap := snapshotWith(1)
	snap.Exercises[0].Sets[0].Weight = 225 // lbs
	if _, err := g.Save(context.Background(), snap); err != nil {
		t.Fatal(err)
	}

	got := store.sets[0].WeightKg
	if math.Abs(got-102.058) > 0.01 {
		t.Errorf("stored weight = %v kg, want ~102.06", got)
	}
}

// TestSaveSettingsFetchFailureAssumesKg verifies the degradation path: when
// settings cannot be fetched, weights pass through unconverted.
func TestSaveSettingsFetchFailureAssumesKg(t *testing.T) {
	store := &fakeWorkoutStore{}
	g := newTestGateway(store, &fakeSettingsStore{err: errors.New("timeout")})

	snap := snapshotWith(1)
	snap.Exercises[0].Sets[0].Weight = 80
	if _, err := g.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save degraded path failed: %v", err)
	}
	if got := store.sets[0].WeightKg; got != 80 {
		t.Errorf("stored weight = %v, want unconverted 80", got)
	}
}

// TestSaveNoExercises verifies the defensive re-check fails fast with zero
// network calls.
func TestSaveNoExercises(t *testing.T) {
	store := &fakeWorkoutStore{}
	g := newTestGateway(store, &fakeSettingsStore{settings: kgSettings()})

	_, err := g.Save(context.Background(), snapshotWith())
	if !errors.Is(err, ErrNoExercises) {
		t.Fatalf("error = %v, want ErrNoExercises", err)
	}
	if store.callCount() != 0 {
		t.Errorf("store calls = %d, want 0", store.callCount())
	}
}

// TestSaveRollbackOnLinkFailure verifies a step-2 failure deletes the parent
// exactly once and reports the originating error.
func TestSaveRollbackOnLinkFailure(t *testing.T) {
	cause := errors.New("link insert rejected")
	store := &fakeWorkoutStore{insertLinksErr: cause}
	g := newTestGateway(store, &fakeSettingsStore{settings: kgSettings()})

	_, err := g.Save(context.Background(), snapshotWith(2))
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("error = %v, want WriteError", err)
	}
	if writeErr.Step != StepExerciseLink || !errors.Is(err, cause) {
		t.Errorf("error = %v, want step workout_exercise wrapping cause", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != store.workouts[0].ID {
		t.Errorf("deletes = %v, want exactly the parent workout", store.deleted)
	}
}

// TestSaveRollbackOnShortLinkAck verifies a store acknowledging fewer link
// rows than requested is treated as a step-2 failure and rolled back, rather
// than indexing past the acknowledgements while building set rows.
func TestSaveRollbackOnShortLinkAck(t *testing.T) {
	store := &fakeWorkoutStore{dropLastLinkAck: true}
	g := newTestGateway(store, &fakeSettingsStore{settings: kgSettings()})

	_, err := g.Save(context.Background(), snapshotWith(2, 2))
	var writeErr *WriteError
	if !errors.As(err, &writeErr) || writeErr.Step != StepExerciseLink {
		t.Fatalf("error = %v, want WriteError at step workout_exercise", err)
	}
	if len(store.sets) != 0 {
		t.Errorf("set rows = %d, want none after short acknowledgement", len(store.sets))
	}
	if len(store.deleted) != 1 || store.deleted[0] != store.workouts[0].ID {
		t.Errorf("deletes = %v, want exactly the parent workout", store.deleted)
	}
}

// TestSaveRollbackOnSetFailure verifies the same for step 3.
func TestSaveRollbackOnSetFailure(t *testing.T) {
	cause := errors.New("set insert rejected")
	store := &fakeWorkoutStore{insertSetsErr: cause}
	g := newTestGateway(store, &fakeSettingsStore{settings: kgSettings()})

	_, err := g.Save(context.Background(), snapshotWith(1, 1))
	var writeErr *WriteError
	if !errors.As(err, &writeErr) || writeErr.Step != StepSet {
		t.Fatalf("error = %v, want WriteError at step workout_set", err)
	}
	if len(store.deleted) != 1 {
		t.Errorf("delete calls = %d, want 1", len(store.deleted))
	}
}

// TestSaveRollbackFailureDoesNotMaskCause verifies a failing compensating
// delete never overrides the original write error.
func TestSaveRollbackFailureDoesNotMaskCause(t *testing.T) {
	cause := errors.New("set insert rejected")
	store := &fakeWorkoutStore{
		insertSetsErr: cause,
		deleteErr:     errors.New("delete also failed"),
	}
	g := newTestGateway(store, &fakeSettingsStore{settings: kgSettings()})

	_, err := g.Save(context.Background(), snapshotWith(1))
	if !errors.Is(err, cause) {
		t.Fatalf("reported error = %v, want original cause", err)
	}
}

// TestSaveWorkoutFailureNoRollback verifies a step-1 failure rolls nothing
// back because nothing was written.
func TestSaveWorkoutFailureNoRollback(t *testing.T) {
	store := &fakeWorkoutStore{insertWorkoutErr: errors.New("insert rejected")}
	g := newTestGateway(store, &fakeSettingsStore{settings: kgSettings()})

	_, err := g.Save(context.Background(), snapshotWith(1))
	var writeErr *WriteError
	if !errors.As(err, &writeErr) || writeErr.Step != StepWorkout {
		t.Fatalf("error = %v, want WriteError at step workout", err)
	}
	if len(store.deleted) != 0 {
		t.Errorf("delete calls = %d, want 0", len(store.deleted))
	}
}

// TestSaveDuration verifies the denormalized duration column comes from the
// start/end timestamps.
func TestSaveDuration(t *testing.T) {
	store := &fakeWorkoutStore{}
	g := newTestGateway(store, &fakeSettingsStore{settings: kgSettings()})

	snap := snapshotWith(1)
	started := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	ended := started.Add(52 * time.Minute)
	snap.StartedAt = started
	snap.EndedAt = &ended

	if _, err := g.Save(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	if got := store.workouts[0].DurationSec; got != 52*60 {
		t.Errorf("duration = %d, want %d", got, 52*60)
	}
}

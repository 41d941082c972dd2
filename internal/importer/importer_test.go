package importer

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// fakeStore backs the importer with an in-memory exercise catalog shared
// across runs, the way the database catalog persists between imports.
type fakeStore struct {
	catalog  map[string]models.Exercise
	workouts []models.WorkoutRow
	sets     []models.WorkoutSetRow
}

func newFakeStore() *fakeStore {
	return &fakeStore{catalog: make(map[string]models.Exercise)}
}

func (f *fakeStore) InsertWorkout(_ context.Context, row models.WorkoutRow) (models.WorkoutRow, error) {
	row.ID = uuid.New()
	f.workouts = append(f.workouts, row)
	return row, nil
}

func (f *fakeStore) GetOrCreateExerciseByName(_ context.Context, name string, userID int) (models.Exercise, bool, error) {
	if ex, ok := f.catalog[name]; ok {
		return ex, false, nil
	}
	ex := models.Exercise{ID: uuid.New(), Name: name, OwnerID: &userID}
	f.catalog[name] = ex
	return ex, true, nil
}

func (f *fakeStore) InsertWorkoutExercises(_ context.Context, rows []models.WorkoutExerciseRow) ([]models.WorkoutExerciseRow, error) {
	out := make([]models.WorkoutExerciseRow, len(rows))
	for i, r := range rows {
		r.ID = uuid.New()
		out[i] = r
	}
	return out, nil
}

func (f *fakeStore) InsertWorkoutSets(_ context.Context, rows []models.WorkoutSetRow) error {
	f.sets = append(f.sets, rows...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestImportCountsAndRows verifies one run of the sample export produces the
// expected workout, set, and exercise-creation counts.
func TestImportCountsAndRows(t *testing.T) {
	store := newFakeStore()
	stats, err := New(store, discardLogger(), false).Import(context.Background(), strings.NewReader(sampleExport), 1)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.SessionsParsed != 2 || stats.WorkoutsInserted != 2 {
		t.Errorf("sessions/workouts = %d/%d, want 2/2", stats.SessionsParsed, stats.WorkoutsInserted)
	}
	if stats.SetsInserted != 5 || len(store.sets) != 5 {
		t.Errorf("sets = %d (stored %d), want 5", stats.SetsInserted, len(store.sets))
	}
	if stats.ExercisesCreated != 3 {
		t.Errorf("exercises created = %d, want 3", stats.ExercisesCreated)
	}
}

// TestImportRepeatCreatesNoExercises verifies a second import of the same
// export finds every exercise already in the catalog and reports zero
// creations, even though the catalog entries are user-owned.
func TestImportRepeatCreatesNoExercises(t *testing.T) {
	store := newFakeStore()
	if _, err := New(store, discardLogger(), false).Import(context.Background(), strings.NewReader(sampleExport), 1); err != nil {
		t.Fatalf("first import: %v", err)
	}

	stats, err := New(store, discardLogger(), false).Import(context.Background(), strings.NewReader(sampleExport), 1)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if stats.ExercisesCreated != 0 {
		t.Errorf("exercises created on repeat = %d, want 0", stats.ExercisesCreated)
	}
	if stats.WorkoutsInserted != 2 {
		t.Errorf("workouts inserted on repeat = %d, want 2", stats.WorkoutsInserted)
	}
}

// TestImportDryRunWritesNothing verifies dry-run parses but never writes.
func TestImportDryRunWritesNothing(t *testing.T) {
	store := newFakeStore()
	stats, err := New(store, discardLogger(), true).Import(context.Background(), strings.NewReader(sampleExport), 1)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.SessionsParsed != 2 {
		t.Errorf("sessions parsed = %d, want 2", stats.SessionsParsed)
	}
	if stats.WorkoutsInserted != 0 || len(store.workouts) != 0 || len(store.sets) != 0 {
		t.Errorf("dry run wrote rows: %+v", stats)
	}
}

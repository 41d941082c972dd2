package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/units"
)

// Gateway translates a finalized session snapshot into the three dependent
// remote writes: workout → workout_exercises → workout_sets. From the
// caller's point of view the chain is atomic: a failure after the parent row
// exists triggers a best-effort compensating delete of the parent (children
// cascade in the schema).
type Gateway struct {
	workouts WorkoutStore
	settings SettingsStore
	log      *slog.Logger
}

// NewGateway creates a Gateway. All collaborators are required.
func NewGateway(workouts WorkoutStore, settings SettingsStore, log *slog.Logger) *Gateway {
	return &Gateway{workouts: workouts, settings: settings, log: log}
}

// Save persists the snapshot and returns the server-assigned workout row.
// It is not idempotent; the state machine ensures at most one call per
// completed session. Errors are ErrNoExercises or a *WriteError naming the
// failed step.
func (g *Gateway) Save(ctx context.Context, snapshot *models.Session) (*models.WorkoutRow, error) {
	if len(snapshot.Exercises) == 0 {
		return nil, ErrNoExercises
	}

	// Unit settings are fetched once per save. A failed fetch degrades to
	// "weights are already normalized" instead of failing the save.
	unit := units.Kilograms
	if settings, err := g.settings.FetchSettings(ctx, snapshot.UserID); err != nil {
		g.log.Warn("settings fetch failed during save, assuming kg",
			"user_id", snapshot.UserID, "session_id", snapshot.ID, "error", err)
	} else {
		unit = units.ParseWeightUnit(settings.WeightUnit)
	}

	endTime := time.Now()
	if snapshot.EndedAt != nil {
		endTime = *snapshot.EndedAt
	}

	// Step 1: parent workout row. Nothing to roll back on failure.
	workout, err := g.workouts.InsertWorkout(ctx, models.WorkoutRow{
		UserID:      snapshot.UserID,
		Name:        snapshot.Name,
		Comment:     snapshot.Comment,
		Visibility:  string(snapshot.Visibility),
		StartTime:   snapshot.StartedAt,
		EndTime:     endTime,
		DurationSec: int(endTime.Sub(snapshot.StartedAt).Seconds()),
		ImageURLs:   snapshot.ImageURLs,
	})
	if err != nil {
		return nil, &WriteError{Step: StepWorkout, Err: err}
	}

	// Step 2: link rows, one per exercise, carrying their snapshot position.
	links := make([]models.WorkoutExerciseRow, len(snapshot.Exercises))
	for i, ex := range snapshot.Exercises {
		links[i] = models.WorkoutExerciseRow{
			WorkoutID:   workout.ID,
			ExerciseID:  ex.Exercise.ID,
			OrderIndex:  i,
			RestSeconds: ex.RestSeconds,
			Memo:        ex.Memo,
		}
	}
	inserted, err := g.workouts.InsertWorkoutExercises(ctx, links)
	if err != nil {
		g.rollback(ctx, workout, err)
		return nil, &WriteError{Step: StepExerciseLink, Err: err}
	}
	if len(inserted) != len(snapshot.Exercises) {
		err := fmt.Errorf("expected %d link rows, store acknowledged %d",
			len(snapshot.Exercises), len(inserted))
		g.rollback(ctx, workout, err)
		return nil, &WriteError{Step: StepExerciseLink, Err: err}
	}
	// The store's insert acknowledgements may come back in any order; the
	// explicit order index is the only reliable correlation key back to the
	// snapshot position.
	sort.Slice(inserted, func(a, b int) bool {
		return inserted[a].OrderIndex < inserted[b].OrderIndex
	})

	// Step 3: all sets, referencing the confirmed link identities, weights
	// normalized to kg.
	var sets []models.WorkoutSetRow
	for i, ex := range snapshot.Exercises {
		for j, set := range ex.Sets {
			sets = append(sets, models.WorkoutSetRow{
				WorkoutExerciseID: inserted[i].ID,
				OrderIndex:        j,
				WeightKg:          units.StoreWeight(set.Weight, unit),
				Reps:              set.Reps,
				IsCompleted:       set.Completed,
			})
		}
	}
	if err := g.workouts.InsertWorkoutSets(ctx, sets); err != nil {
		g.rollback(ctx, workout, err)
		return nil, &WriteError{Step: StepSet, Err: err}
	}

	return &workout, nil
}

// rollback deletes the parent workout so a partially written chain leaves no
// orphan. Best-effort: its own failure is logged and never masks cause.
func (g *Gateway) rollback(ctx context.Context, workout models.WorkoutRow, cause error) {
	g.log.Error("save failed, rolling back workout",
		"workout_id", workout.ID, "user_id", workout.UserID, "error", cause)
	if err := g.workouts.DeleteWorkout(ctx, workout.ID); err != nil {
		g.log.Error("rollback delete failed, workout row may be orphaned",
			"workout_id", workout.ID, "error", err)
	}
}

package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// WorkoutStore is the remote workout persistence consumed by the gateway and
// by auto-fill. *storage.DB satisfies it.
type WorkoutStore interface {
	// InsertWorkout inserts the parent row and returns it with its
	// server-assigned identity.
	InsertWorkout(ctx context.Context, row models.WorkoutRow) (models.WorkoutRow, error)
	// InsertWorkoutExercises inserts link rows and returns them with their
	// server-assigned identities. Return order is not guaranteed to match
	// request order; callers correlate via OrderIndex.
	InsertWorkoutExercises(ctx context.Context, rows []models.WorkoutExerciseRow) ([]models.WorkoutExerciseRow, error)
	InsertWorkoutSets(ctx context.Context, rows []models.WorkoutSetRow) error
	DeleteWorkout(ctx context.Context, id uuid.UUID) error
	// FetchLastPerformedSets returns the completed sets of the user's most
	// recent workout containing the exercise, in set order.
	FetchLastPerformedSets(ctx context.Context, exerciseID uuid.UUID, userID int) ([]models.WorkoutSetRow, error)
}

// SettingsStore provides per-user preferences.
type SettingsStore interface {
	FetchSettings(ctx context.Context, userID int) (models.Settings, error)
}

// Journal persists in-progress session drafts so a restart does not lose a
// recording in flight. Implementations are best-effort; callers log failures.
type Journal interface {
	SaveDraft(userID int, d Draft) error
	DeleteDraft(userID int) error
	ListDrafts() ([]Draft, error)
}

// Draft is the journaled form of an in-progress session.
type Draft struct {
	Session        models.Session `json:"session"`
	ElapsedSeconds int            `json:"elapsed_seconds"`
	WeightUnit     string         `json:"weight_unit"`
	DefaultRest    int            `json:"default_rest"`
	AutoFill       bool           `json:"auto_fill"`
}

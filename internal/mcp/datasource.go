package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	QueryUserWorkouts(ctx context.Context, userID, limit, offset int) ([]models.WorkoutRow, error)
	GetWorkoutDetail(ctx context.Context, id uuid.UUID) (*models.WorkoutDetail, error)
	FetchLastPerformedSets(ctx context.Context, exerciseID uuid.UUID, userID int) ([]models.WorkoutSetRow, error)
	SearchExercises(ctx context.Context, filter models.ExerciseFilter, userID int) ([]models.Exercise, error)
	GetPersonalBest(ctx context.Context, exerciseID uuid.UUID, userID int) (*storage.PersonalBest, error)
	GetTrainingVolume(ctx context.Context, userID int, start, end time.Time, bucket string) ([]storage.VolumePeriod, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)

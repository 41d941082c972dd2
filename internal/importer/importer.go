// Package importer loads workout history from a CSV export into the
// database, reusing the catalog and the workout insert chain.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/meltforce/liftlog/internal/models"
)

// Store is the subset of the database the importer writes through.
type Store interface {
	InsertWorkout(ctx context.Context, row models.WorkoutRow) (models.WorkoutRow, error)
	GetOrCreateExerciseByName(ctx context.Context, name string, userID int) (models.Exercise, bool, error)
	InsertWorkoutExercises(ctx context.Context, rows []models.WorkoutExerciseRow) ([]models.WorkoutExerciseRow, error)
	InsertWorkoutSets(ctx context.Context, rows []models.WorkoutSetRow) error
}

// Stats tracks import progress.
type Stats struct {
	SessionsParsed   int `json:"sessions_parsed"`
	WorkoutsInserted int `json:"workouts_inserted"`
	SetsInserted     int `json:"sets_inserted"`
	ExercisesCreated int `json:"exercises_created"`
}

// Importer inserts parsed history sessions for one user.
type Importer struct {
	db     Store
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer.
func New(db Store, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{db: db, log: log, dryRun: dryRun}
}

// Import parses the export and inserts each session as a workout with its
// exercises and sets. Imported sets are marked completed; imported workouts
// are private.
func (imp *Importer) Import(ctx context.Context, r io.Reader, userID int) (*Stats, error) {
	sessions, err := Parse(r)
	if err != nil {
		return &imp.stats, fmt.Errorf("parsing export: %w", err)
	}
	imp.stats.SessionsParsed = len(sessions)

	if imp.dryRun {
		for _, s := range sessions {
			imp.log.Info("dry run: would import workout",
				"name", s.Name, "date", s.Date, "exercises", len(s.Exercises))
		}
		return &imp.stats, nil
	}

	for _, s := range sessions {
		if err := imp.importSession(ctx, s, userID); err != nil {
			return &imp.stats, fmt.Errorf("importing %q (%s): %w", s.Name, s.Date.Format("2006-01-02"), err)
		}
	}
	return &imp.stats, nil
}

func (imp *Importer) importSession(ctx context.Context, s ParsedSession, userID int) error {
	workout, err := imp.db.InsertWorkout(ctx, models.WorkoutRow{
		UserID:      userID,
		Name:        s.Name,
		Visibility:  string(models.VisibilityPrivate),
		StartTime:   s.Date,
		EndTime:     s.Date.Add(s.Duration),
		DurationSec: int(s.Duration.Seconds()),
	})
	if err != nil {
		return err
	}

	links := make([]models.WorkoutExerciseRow, 0, len(s.Exercises))
	for i, ex := range s.Exercises {
		catalogEntry, created, err := imp.db.GetOrCreateExerciseByName(ctx, ex.Name, userID)
		if err != nil {
			return fmt.Errorf("resolving exercise %q: %w", ex.Name, err)
		}
		if created {
			imp.stats.ExercisesCreated++
		}
		links = append(links, models.WorkoutExerciseRow{
			WorkoutID:  workout.ID,
			ExerciseID: catalogEntry.ID,
			OrderIndex: i,
		})
	}

	inserted, err := imp.db.InsertWorkoutExercises(ctx, links)
	if err != nil {
		return err
	}
	byIndex := make(map[int]int)
	for i, link := range inserted {
		byIndex[link.OrderIndex] = i
	}

	var sets []models.WorkoutSetRow
	for i, ex := range s.Exercises {
		link := inserted[byIndex[i]]
		for j, set := range ex.Sets {
			sets = append(sets, models.WorkoutSetRow{
				WorkoutExerciseID: link.ID,
				OrderIndex:        j,
				WeightKg:          set.WeightKg,
				Reps:              set.Reps,
				IsCompleted:       true,
			})
		}
	}
	if err := imp.db.InsertWorkoutSets(ctx, sets); err != nil {
		return err
	}

	imp.stats.WorkoutsInserted++
	imp.stats.SetsInserted += len(sets)
	imp.log.Info("imported workout",
		"name", s.Name, "date", s.Date.Format("2006-01-02"),
		"exercises", len(s.Exercises), "sets", len(sets))
	return nil
}

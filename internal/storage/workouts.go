package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// InsertWorkout inserts the parent workout row and returns it with its
// server-assigned identity and creation timestamp.
func (db *DB) InsertWorkout(ctx context.Context, row models.WorkoutRow) (models.WorkoutRow, error) {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO workouts (user_id, name, comment, visibility, start_time, end_time, duration_sec, image_urls)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING id, created_at`,
		row.UserID, row.Name, row.Comment, row.Visibility,
		row.StartTime, row.EndTime, row.DurationSec, row.ImageURLs,
	).Scan(&row.ID, &row.CreatedAt)
	if err != nil {
		return models.WorkoutRow{}, fmt.Errorf("inserting workout: %w", err)
	}
	return row, nil
}

// InsertWorkoutExercises batch-inserts link rows and returns them with their
// server-assigned identities. The returned order follows the statement, not
// necessarily the request; callers correlate by order_index.
func (db *DB) InsertWorkoutExercises(ctx context.Context, rows []models.WorkoutExerciseRow) ([]models.WorkoutExerciseRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	query := `INSERT INTO workout_exercises (workout_id, exercise_id, order_index, rest_seconds, memo) VALUES `
	args := make([]any, 0, len(rows)*5)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 5
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5,
		))
		args = append(args, r.WorkoutID, r.ExerciseID, r.OrderIndex, r.RestSeconds, r.Memo)
	}

	query += strings.Join(valueStrings, ",") +
		" RETURNING id, workout_id, exercise_id, order_index, rest_seconds, memo"

	result, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inserting workout exercises: %w", err)
	}
	defer result.Close()

	var inserted []models.WorkoutExerciseRow
	for result.Next() {
		var r models.WorkoutExerciseRow
		if err := result.Scan(&r.ID, &r.WorkoutID, &r.ExerciseID, &r.OrderIndex, &r.RestSeconds, &r.Memo); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		inserted = append(inserted, r)
	}
	return inserted, result.Err()
}

// InsertWorkoutSets batch-inserts set rows.
func (db *DB) InsertWorkoutSets(ctx context.Context, rows []models.WorkoutSetRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO workout_sets (workout_exercise_id, order_index, weight_kg, reps, is_completed) VALUES `
	args := make([]any, 0, len(rows)*5)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 5
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5,
		))
		args = append(args, r.WorkoutExerciseID, r.OrderIndex, r.WeightKg, r.Reps, r.IsCompleted)
	}

	query += strings.Join(valueStrings, ",")

	if _, err := db.Pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting workout sets: %w", err)
	}
	return nil
}

// DeleteWorkout removes a workout row; child rows cascade.
func (db *DB) DeleteWorkout(ctx context.Context, id uuid.UUID) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM workouts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	return nil
}

// DeleteUserWorkout removes a workout only if it belongs to the user.
// Returns true when a row was deleted.
func (db *DB) DeleteUserWorkout(ctx context.Context, id uuid.UUID, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting workout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FetchLastPerformedSets returns the completed sets of the user's most recent
// workout containing the exercise, in set order. Used by auto-fill.
func (db *DB) FetchLastPerformedSets(ctx context.Context, exerciseID uuid.UUID, userID int) ([]models.WorkoutSetRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT ws.id, ws.workout_exercise_id, ws.order_index, ws.weight_kg, ws.reps, ws.is_completed
		 FROM workout_sets ws
		 JOIN workout_exercises we ON we.id = ws.workout_exercise_id
		 WHERE we.exercise_id = $1
		   AND ws.is_completed
		   AND we.workout_id = (
			 SELECT w.id FROM workouts w
			 JOIN workout_exercises inner_we ON inner_we.workout_id = w.id
			 WHERE inner_we.exercise_id = $1 AND w.user_id = $2
			 ORDER BY w.start_time DESC
			 LIMIT 1)
		 ORDER BY ws.order_index ASC`,
		exerciseID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying last performed sets: %w", err)
	}
	defer rows.Close()

	return scanSetRows(rows)
}

// QueryUserWorkouts retrieves a user's workouts, newest first, paged.
func (db *DB) QueryUserWorkouts(ctx context.Context, userID, limit, offset int) ([]models.WorkoutRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, comment, visibility, start_time, end_time, duration_sec, image_urls, created_at
		 FROM workouts
		 WHERE user_id = $1
		 ORDER BY start_time DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	return scanWorkoutRows(rows)
}

// QueryTimeline retrieves the feed: public workouts of all users plus the
// requesting user's own, newest first.
func (db *DB) QueryTimeline(ctx context.Context, userID, limit, offset int) ([]models.WorkoutRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, comment, visibility, start_time, end_time, duration_sec, image_urls, created_at
		 FROM workouts
		 WHERE visibility = 'public' OR user_id = $1
		 ORDER BY start_time DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying timeline: %w", err)
	}
	defer rows.Close()

	return scanWorkoutRows(rows)
}

// GetWorkoutDetail retrieves a workout with its exercises (joined with the
// catalog) and sets, ordered by their order indices.
func (db *DB) GetWorkoutDetail(ctx context.Context, id uuid.UUID) (*models.WorkoutDetail, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, comment, visibility, start_time, end_time, duration_sec, image_urls, created_at
		 FROM workouts WHERE id = $1`, id)

	var w models.WorkoutRow
	err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Comment, &w.Visibility,
		&w.StartTime, &w.EndTime, &w.DurationSec, &w.ImageURLs, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}

	detail := &models.WorkoutDetail{Workout: w}

	exRows, err := db.Pool.Query(ctx,
		`SELECT we.id, we.workout_id, we.exercise_id, we.order_index, we.rest_seconds, we.memo,
		        e.id, e.name, e.muscle_groups, e.equipment, e.media_url, e.owner_id, e.created_at
		 FROM workout_exercises we
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE we.workout_id = $1
		 ORDER BY we.order_index ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	defer exRows.Close()

	byLink := make(map[uuid.UUID]int)
	for exRows.Next() {
		var d models.WorkoutExerciseDetail
		if err := exRows.Scan(&d.ID, &d.WorkoutID, &d.ExerciseID, &d.OrderIndex, &d.RestSeconds, &d.Memo,
			&d.Exercise.ID, &d.Exercise.Name, &d.Exercise.MuscleGroups, &d.Exercise.Equipment,
			&d.Exercise.MediaURL, &d.Exercise.OwnerID, &d.Exercise.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		byLink[d.ID] = len(detail.Exercises)
		detail.Exercises = append(detail.Exercises, d)
	}
	if err := exRows.Err(); err != nil {
		return nil, err
	}

	setRows, err := db.Pool.Query(ctx,
		`SELECT ws.id, ws.workout_exercise_id, ws.order_index, ws.weight_kg, ws.reps, ws.is_completed
		 FROM workout_sets ws
		 JOIN workout_exercises we ON we.id = ws.workout_exercise_id
		 WHERE we.workout_id = $1
		 ORDER BY ws.order_index ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var s models.WorkoutSetRow
		if err := setRows.Scan(&s.ID, &s.WorkoutExerciseID, &s.OrderIndex, &s.WeightKg, &s.Reps, &s.IsCompleted); err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		if i, ok := byLink[s.WorkoutExerciseID]; ok {
			detail.Exercises[i].Sets = append(detail.Exercises[i].Sets, s)
		}
	}
	return detail, setRows.Err()
}

// PersonalBest is a user's heaviest completed set for an exercise.
type PersonalBest struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	WeightKg   float64   `json:"weight_kg"`
	Reps       int       `json:"reps"`
}

// GetPersonalBest returns the heaviest completed set the user has logged for
// an exercise, or nil when none exists.
func (db *DB) GetPersonalBest(ctx context.Context, exerciseID uuid.UUID, userID int) (*PersonalBest, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT ws.weight_kg, ws.reps
		 FROM workout_sets ws
		 JOIN workout_exercises we ON we.id = ws.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 WHERE we.exercise_id = $1 AND w.user_id = $2 AND ws.is_completed
		 ORDER BY ws.weight_kg DESC, ws.reps DESC
		 LIMIT 1`,
		exerciseID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying personal best: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	pb := &PersonalBest{ExerciseID: exerciseID}
	if err := rows.Scan(&pb.WeightKg, &pb.Reps); err != nil {
		return nil, fmt.Errorf("scanning personal best: %w", err)
	}
	return pb, rows.Err()
}

func scanWorkoutRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.WorkoutRow, error) {
	var result []models.WorkoutRow
	for rows.Next() {
		var w models.WorkoutRow
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Comment, &w.Visibility,
			&w.StartTime, &w.EndTime, &w.DurationSec, &w.ImageURLs, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

func scanSetRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.WorkoutSetRow, error) {
	var result []models.WorkoutSetRow
	for rows.Next() {
		var s models.WorkoutSetRow
		if err := rows.Scan(&s.ID, &s.WorkoutExerciseID, &s.OrderIndex, &s.WeightKg, &s.Reps, &s.IsCompleted); err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Storage-boundary row types. Field names here (and their snake_case JSON
// keys) match the database columns; the in-memory session types above use
// their own naming. Translation between the two happens only in the session
// gateway and the storage layer.

// WorkoutRow is a persisted workout (parent row of the insert chain).
type WorkoutRow struct {
	ID          uuid.UUID `json:"workout_id"`
	UserID      int       `json:"user_id"`
	Name        string    `json:"name"`
	Comment     string    `json:"comment,omitempty"`
	Visibility  string    `json:"visibility"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	DurationSec int       `json:"duration_sec"`
	ImageURLs   []string  `json:"image_urls,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkoutExerciseRow links a workout to a catalog exercise at a position.
type WorkoutExerciseRow struct {
	ID          uuid.UUID `json:"workout_exercise_id"`
	WorkoutID   uuid.UUID `json:"workout_id"`
	ExerciseID  uuid.UUID `json:"exercise_id"`
	OrderIndex  int       `json:"order_index"`
	RestSeconds int       `json:"rest_seconds"`
	Memo        string    `json:"memo,omitempty"`
}

// WorkoutSetRow is one persisted set. Weight is always stored in kg.
type WorkoutSetRow struct {
	ID                uuid.UUID `json:"workout_set_id"`
	WorkoutExerciseID uuid.UUID `json:"workout_exercise_id"`
	OrderIndex        int       `json:"order_index"`
	WeightKg          float64   `json:"weight_kg"`
	Reps              int       `json:"reps"`
	IsCompleted       bool      `json:"is_completed"`
}

// WorkoutDetail is a workout with its exercises and sets, as returned by the
// read paths. Exercises and sets are ordered by their order indices.
type WorkoutDetail struct {
	Workout   WorkoutRow              `json:"workout"`
	Exercises []WorkoutExerciseDetail `json:"exercises"`
}

// WorkoutExerciseDetail joins a link row with its catalog entry and sets.
type WorkoutExerciseDetail struct {
	WorkoutExerciseRow
	Exercise Exercise        `json:"exercise"`
	Sets     []WorkoutSetRow `json:"sets"`
}

// Template converts a persisted workout into a session template, so a past
// workout can seed a new session ("repeat workout").
func (d *WorkoutDetail) Template() Template {
	t := Template{Name: d.Workout.Name}
	for _, ex := range d.Exercises {
		te := TemplateExercise{
			Exercise:    ex.Exercise,
			RestSeconds: ex.RestSeconds,
		}
		for _, set := range ex.Sets {
			te.Sets = append(te.Sets, TemplateSet{WeightKg: set.WeightKg, Reps: set.Reps})
		}
		t.Exercises = append(t.Exercises, te)
	}
	return t
}

package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

const exerciseColumns = `id, name, muscle_groups, equipment, media_url, owner_id, created_at`

// FetchSystemExercises returns the built-in catalog (rows with no owner).
func (db *DB) FetchSystemExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE owner_id IS NULL ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying system exercises: %w", err)
	}
	defer rows.Close()

	return scanExercises(rows)
}

// FetchUserExercises returns exercises created by the user.
func (db *DB) FetchUserExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE owner_id = $1 ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user exercises: %w", err)
	}
	defer rows.Close()

	return scanExercises(rows)
}

// FetchAllAvailable returns everything visible to the user: system exercises
// plus their own. Other users' exercises never appear.
func (db *DB) FetchAllAvailable(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises
		 WHERE owner_id IS NULL OR owner_id = $1
		 ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying available exercises: %w", err)
	}
	defer rows.Close()

	return scanExercises(rows)
}

// SearchExercises filters the user's visible catalog by name substring,
// muscle groups and equipment. Empty filter fields match everything.
func (db *DB) SearchExercises(ctx context.Context, filter models.ExerciseFilter, userID int) ([]models.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises
		 WHERE (owner_id IS NULL OR owner_id = $1)`
	args := []any{userID}

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if len(filter.MuscleGroups) > 0 {
		args = append(args, filter.MuscleGroups)
		query += fmt.Sprintf(" AND muscle_groups && $%d", len(args))
	}
	if len(filter.Equipment) > 0 {
		args = append(args, filter.Equipment)
		query += fmt.Sprintf(" AND equipment && $%d", len(args))
	}
	query += ` ORDER BY name ASC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching exercises: %w", err)
	}
	defer rows.Close()

	return scanExercises(rows)
}

// CreateExercise inserts a user-owned catalog entry and returns it with its
// server-assigned identity.
func (db *DB) CreateExercise(ctx context.Context, ex models.Exercise) (models.Exercise, error) {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (name, muscle_groups, equipment, media_url, owner_id)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING id, created_at`,
		ex.Name, ex.MuscleGroups, ex.Equipment, ex.MediaURL, ex.OwnerID,
	).Scan(&ex.ID, &ex.CreatedAt)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("creating exercise: %w", err)
	}
	return ex, nil
}

// GetExercise fetches a single catalog entry visible to the user.
func (db *DB) GetExercise(ctx context.Context, id uuid.UUID, userID int) (*models.Exercise, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises
		 WHERE id = $1 AND (owner_id IS NULL OR owner_id = $2)`, id, userID)

	var ex models.Exercise
	if err := row.Scan(&ex.ID, &ex.Name, &ex.MuscleGroups, &ex.Equipment,
		&ex.MediaURL, &ex.OwnerID, &ex.CreatedAt); err != nil {
		return nil, fmt.Errorf("querying exercise: %w", err)
	}
	return &ex, nil
}

// GetOrCreateExerciseByName finds a visible exercise by exact name or creates
// a user-owned one, reporting whether a new row was written. Used by the
// history importer.
func (db *DB) GetOrCreateExerciseByName(ctx context.Context, name string, userID int) (models.Exercise, bool, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises
		 WHERE name = $1 AND (owner_id IS NULL OR owner_id = $2)
		 ORDER BY owner_id NULLS FIRST
		 LIMIT 1`, name, userID)

	var ex models.Exercise
	err := row.Scan(&ex.ID, &ex.Name, &ex.MuscleGroups, &ex.Equipment,
		&ex.MediaURL, &ex.OwnerID, &ex.CreatedAt)
	if err == nil {
		return ex, false, nil
	}

	owner := userID
	created, err := db.CreateExercise(ctx, models.Exercise{
		Name:         name,
		MuscleGroups: []string{"other"},
		OwnerID:      &owner,
	})
	return created, err == nil, err
}

func scanExercises(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.Exercise, error) {
	var result []models.Exercise
	for rows.Next() {
		var ex models.Exercise
		if err := rows.Scan(&ex.ID, &ex.Name, &ex.MuscleGroups, &ex.Equipment,
			&ex.MediaURL, &ex.OwnerID, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, ex)
	}
	return result, rows.Err()
}

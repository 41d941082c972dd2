package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftlog/internal/models"
)

// FetchSettings returns the user's settings row, or the defaults when no row
// exists yet.
func (db *DB) FetchSettings(ctx context.Context, userID int) (models.Settings, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT user_id, weight_unit, distance_unit, length_unit, default_rest_seconds,
		        auto_fill_previous_values, sound_enabled, theme, app_lock_enabled
		 FROM user_settings WHERE user_id = $1`, userID)

	var s models.Settings
	err := row.Scan(&s.UserID, &s.WeightUnit, &s.DistanceUnit, &s.LengthUnit,
		&s.DefaultRestSeconds, &s.AutoFillPreviousValues, &s.SoundEnabled,
		&s.Theme, &s.AppLockEnabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultSettings(userID), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("querying settings: %w", err)
	}
	return s, nil
}

// UpdateSettings applies a partial update, creating the row from defaults on
// first write, and returns the resulting settings.
func (db *DB) UpdateSettings(ctx context.Context, userID int, patch models.SettingsPatch) (models.Settings, error) {
	current, err := db.FetchSettings(ctx, userID)
	if err != nil {
		return models.Settings{}, err
	}

	if patch.WeightUnit != nil {
		current.WeightUnit = *patch.WeightUnit
	}
	if patch.DistanceUnit != nil {
		current.DistanceUnit = *patch.DistanceUnit
	}
	if patch.LengthUnit != nil {
		current.LengthUnit = *patch.LengthUnit
	}
	if patch.DefaultRestSeconds != nil {
		current.DefaultRestSeconds = *patch.DefaultRestSeconds
	}
	if patch.AutoFillPreviousValues != nil {
		current.AutoFillPreviousValues = *patch.AutoFillPreviousValues
	}
	if patch.SoundEnabled != nil {
		current.SoundEnabled = *patch.SoundEnabled
	}
	if patch.Theme != nil {
		current.Theme = *patch.Theme
	}
	if patch.AppLockEnabled != nil {
		current.AppLockEnabled = *patch.AppLockEnabled
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO user_settings (user_id, weight_unit, distance_unit, length_unit, default_rest_seconds,
		                            auto_fill_previous_values, sound_enabled, theme, app_lock_enabled)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (user_id) DO UPDATE SET
		   weight_unit = EXCLUDED.weight_unit,
		   distance_unit = EXCLUDED.distance_unit,
		   length_unit = EXCLUDED.length_unit,
		   default_rest_seconds = EXCLUDED.default_rest_seconds,
		   auto_fill_previous_values = EXCLUDED.auto_fill_previous_values,
		   sound_enabled = EXCLUDED.sound_enabled,
		   theme = EXCLUDED.theme,
		   app_lock_enabled = EXCLUDED.app_lock_enabled`,
		current.UserID, current.WeightUnit, current.DistanceUnit, current.LengthUnit,
		current.DefaultRestSeconds, current.AutoFillPreviousValues, current.SoundEnabled,
		current.Theme, current.AppLockEnabled)
	if err != nil {
		return models.Settings{}, fmt.Errorf("updating settings: %w", err)
	}
	return current, nil
}

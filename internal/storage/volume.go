package storage

import (
	"context"
	"fmt"
	"time"
)

// VolumePeriod holds aggregated training volume for one time period. Only
// completed sets count toward the totals.
type VolumePeriod struct {
	Period            string  `json:"period"`
	Workouts          int     `json:"workouts"`
	WorkingSets       int     `json:"working_sets"`
	TotalReps         int     `json:"total_reps"`
	TonnageKg         float64 `json:"tonnage_kg"`
	AvgSetsPerWorkout float64 `json:"avg_sets_per_workout"`
}

// GetTrainingVolume returns per-period set, rep, and tonnage totals for the
// user's workouts between start and end.
func (db *DB) GetTrainingVolume(ctx context.Context, userID int, start, end time.Time, bucket string) ([]VolumePeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, w.start_time)::date AS period,
		        COUNT(DISTINCT w.id)::int AS workouts,
		        COUNT(s.id) FILTER (WHERE s.is_completed)::int AS working_sets,
		        COALESCE(SUM(s.reps) FILTER (WHERE s.is_completed), 0)::int AS total_reps,
		        COALESCE(SUM(s.weight_kg * s.reps) FILTER (WHERE s.is_completed), 0) AS tonnage
		 FROM workouts w
		 JOIN workout_exercises we ON we.workout_id = w.id
		 JOIN workout_sets s ON s.workout_exercise_id = we.id
		 WHERE w.user_id = $2 AND w.start_time >= $3 AND w.start_time < $4
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying training volume: %w", err)
	}
	defer rows.Close()

	var result []VolumePeriod
	for rows.Next() {
		var periodTime time.Time
		var vp VolumePeriod
		if err := rows.Scan(&periodTime, &vp.Workouts, &vp.WorkingSets, &vp.TotalReps, &vp.TonnageKg); err != nil {
			return nil, fmt.Errorf("scanning training volume: %w", err)
		}
		vp.Period = periodTime.Format("2006-01-02")
		if vp.Workouts > 0 {
			vp.AvgSetsPerWorkout = float64(vp.WorkingSets) / float64(vp.Workouts)
		}
		result = append(result, vp)
	}
	return result, rows.Err()
}

// truncInterval converts bucket strings like "1 month" to the unit name
// date_trunc expects.
func truncInterval(bucket string) string {
	switch bucket {
	case "1 week":
		return "week"
	case "1 month":
		return "month"
	case "1 day":
		return "day"
	default:
		return "week"
	}
}

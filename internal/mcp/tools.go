package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/liftlog/internal/models"
)

// defaultTimeRange returns start/end defaulting to the last 90 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -90)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetRecentWorkouts = mcp.NewTool("get_recent_workouts",
	mcp.WithDescription("List the user's most recent workouts. Returns workout summaries including name, start/end time, duration, and visibility."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts to return. Defaults to 20, max 100.")),
	mcp.WithNumber("offset", mcp.Description("Number of workouts to skip for pagination.")),
)

var toolGetWorkoutDetail = mcp.NewTool("get_workout_detail",
	mcp.WithDescription("Get a single workout with its full exercise and set breakdown: each exercise in order with every logged set (weight in kg, reps, completion)."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout UUID")),
)

var toolGetLastPerformedSets = mcp.NewTool("get_last_performed_sets",
	mcp.WithDescription("Get the completed sets from the most recent workout containing a given exercise. Useful for answering 'what did I lift last time'."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise UUID")),
)

var toolSearchExercises = mcp.NewTool("search_exercises",
	mcp.WithDescription("Search the exercise catalog by name, muscle group, or equipment. Returns system exercises plus the user's own."),
	mcp.WithString("query", mcp.Description("Name substring to match (case-insensitive)")),
	mcp.WithString("muscle_groups", mcp.Description("Comma-separated muscle groups (e.g. 'chest,triceps')")),
	mcp.WithString("equipment", mcp.Description("Comma-separated equipment (e.g. 'barbell,dumbbell')")),
)

var toolGetPersonalBest = mcp.NewTool("get_personal_best",
	mcp.WithDescription("Get the heaviest completed set the user has ever logged for an exercise."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise UUID")),
)

var toolGetTrainingVolume = mcp.NewTool("get_training_volume",
	mcp.WithDescription("Per-period workout counts, completed sets, reps, and tonnage (kg lifted). Returns training volume aggregated by week or month."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to '1 week'."), mcp.Enum("1 day", "1 week", "1 month")),
)

// --- Tool handlers ---

func (h *handlers) getRecentWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := req.GetInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	uid := UserIDFromContext(ctx)
	workouts, err := h.ds.QueryUserWorkouts(ctx, uid, limit, offset)
	if err != nil {
		h.log.Error("mcp get_recent_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("workout_id")
	if err != nil {
		return mcp.NewToolResultError("workout_id parameter is required"), nil
	}
	workoutID, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid workout_id: " + err.Error()), nil
	}

	detail, err := h.ds.GetWorkoutDetail(ctx, workoutID)
	if err != nil {
		h.log.Error("mcp get_workout_detail", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if detail.Workout.UserID != UserIDFromContext(ctx) {
		return mcp.NewToolResultError("workout not found"), nil
	}

	result, err := mcp.NewToolResultJSON(detail)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getLastPerformedSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	exerciseID, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid exercise_id: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	sets, err := h.ds.FetchLastPerformedSets(ctx, exerciseID, uid)
	if err != nil {
		h.log.Error("mcp get_last_performed_sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sets)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) searchExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := models.ExerciseFilter{
		Query: req.GetString("query", ""),
	}
	if groups := req.GetString("muscle_groups", ""); groups != "" {
		filter.MuscleGroups = strings.Split(groups, ",")
	}
	if equipment := req.GetString("equipment", ""); equipment != "" {
		filter.Equipment = strings.Split(equipment, ",")
	}

	uid := UserIDFromContext(ctx)
	exercises, err := h.ds.SearchExercises(ctx, filter, uid)
	if err != nil {
		h.log.Error("mcp search_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPersonalBest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	exerciseID, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid exercise_id: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	pb, err := h.ds.GetPersonalBest(ctx, exerciseID, uid)
	if err != nil {
		h.log.Error("mcp get_personal_best", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if pb == nil {
		return mcp.NewToolResultText("no completed sets logged for this exercise"), nil
	}

	result, err := mcp.NewToolResultJSON(pb)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	bucket := req.GetString("bucket", "1 week")

	uid := UserIDFromContext(ctx)
	periods, err := h.ds.GetTrainingVolume(ctx, uid, start, end, bucket)
	if err != nil {
		h.log.Error("mcp get_training_volume", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(periods)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

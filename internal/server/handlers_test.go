package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/session"
)

// stubWorkoutStore satisfies session.WorkoutStore with canned responses,
// enough to drive the HTTP layer without Postgres.
type stubWorkoutStore struct{}

func (stubWorkoutStore) InsertWorkout(_ context.Context, row models.WorkoutRow) (models.WorkoutRow, error) {
	row.ID = uuid.New()
	return row, nil
}

func (stubWorkoutStore) InsertWorkoutExercises(_ context.Context, rows []models.WorkoutExerciseRow) ([]models.WorkoutExerciseRow, error) {
	for i := range rows {
		rows[i].ID = uuid.New()
	}
	return rows, nil
}

func (stubWorkoutStore) InsertWorkoutSets(context.Context, []models.WorkoutSetRow) error {
	return nil
}

func (stubWorkoutStore) DeleteWorkout(context.Context, uuid.UUID) error { return nil }

func (stubWorkoutStore) FetchLastPerformedSets(context.Context, uuid.UUID, int) ([]models.WorkoutSetRow, error) {
	return nil, nil
}

type stubSettingsStore struct{}

func (stubSettingsStore) FetchSettings(_ context.Context, userID int) (models.Settings, error) {
	return models.DefaultSettings(userID), nil
}

func newTestServer() *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewManager(stubWorkoutStore{}, stubSettingsStore{}, nil, log)
	return New(nil, sessions, "test-key", log)
}

func doRequest(t *testing.T, s *Server, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// TestSessionLifecycleOverHTTP drives start, fetch, a failed completion
// attempt, and cancel through the router.
func TestSessionLifecycleOverHTTP(t *testing.T) {
	s := newTestServer()

	rec := doRequest(t, s, http.MethodPost, "/api/v1/session", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var view sessionView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if view.State != models.StateActive {
		t.Errorf("state = %q, want active", view.State)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/v1/session", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d, want 200", rec.Code)
	}

	// Completing an empty session must fail validation.
	rec = doRequest(t, s, http.MethodPost, "/api/v1/session/complete", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("complete status = %d, want 422", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/v1/session", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("cancel status = %d, want 200", rec.Code)
	}
}

// TestGetSessionWithoutOne verifies 404 when no recording is in flight.
func TestGetSessionWithoutOne(t *testing.T) {
	s := newTestServer()

	rec := doRequest(t, s, http.MethodGet, "/api/v1/session", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestStartTwiceConflicts verifies the single-active-session rule surfaces
// as 409.
func TestStartTwiceConflicts(t *testing.T) {
	s := newTestServer()

	if rec := doRequest(t, s, http.MethodPost, "/api/v1/session", nil); rec.Code != http.StatusCreated {
		t.Fatalf("first start status = %d, want 201", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodPost, "/api/v1/session", nil); rec.Code != http.StatusConflict {
		t.Errorf("second start status = %d, want 409", rec.Code)
	}
}

// TestSaveBeforeCompletion verifies save is rejected while still recording.
func TestSaveBeforeCompletion(t *testing.T) {
	s := newTestServer()

	if rec := doRequest(t, s, http.MethodPost, "/api/v1/session", nil); rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want 201", rec.Code)
	}
	rec := doRequest(t, s, http.MethodPost, "/api/v1/session/save", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("save status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

// TestAddSetUnknownExercise verifies 404 for an exercise not in the session.
func TestAddSetUnknownExercise(t *testing.T) {
	s := newTestServer()

	if rec := doRequest(t, s, http.MethodPost, "/api/v1/session", nil); rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want 201", rec.Code)
	}
	path := "/api/v1/session/exercises/" + uuid.NewString() + "/sets"
	rec := doRequest(t, s, http.MethodPost, path, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

// TestUpdateSetBadIndex verifies the path parameter is validated.
func TestUpdateSetBadIndex(t *testing.T) {
	s := newTestServer()

	if rec := doRequest(t, s, http.MethodPost, "/api/v1/session", nil); rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want 201", rec.Code)
	}
	path := "/api/v1/session/exercises/" + uuid.NewString() + "/sets/abc"
	rec := doRequest(t, s, http.MethodPatch, path, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestImportRequiresAPIKey verifies the history import route sits behind
// API key auth.
func TestImportRequiresAPIKey(t *testing.T) {
	s := newTestServer()

	rec := doRequest(t, s, http.MethodPost, "/api/v1/import", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/session"
)

// sessionView is the session state snapshot returned by every session
// endpoint, mirroring what the recording screen renders.
type sessionView struct {
	State          models.SessionState `json:"state"`
	ElapsedSeconds int                 `json:"elapsed_seconds"`
	Elapsed        string              `json:"elapsed"`
	RestRemaining  int                 `json:"rest_remaining"`
	RestActive     bool                `json:"rest_active"`
	Error          string              `json:"error,omitempty"`
	Session        *models.Session     `json:"session,omitempty"`
}

func viewOf(c *session.Container) sessionView {
	remaining, active := c.RestRemaining()
	elapsed := c.Elapsed()
	return sessionView{
		State:          c.State(),
		ElapsedSeconds: elapsed,
		Elapsed:        session.FormatElapsed(elapsed),
		RestRemaining:  remaining,
		RestActive:     active,
		Error:          c.SaveError(),
		Session:        c.Snapshot(),
	}
}

type startSessionRequest struct {
	// FromWorkout repeats a past workout as a template.
	FromWorkout *uuid.UUID `json:"from_workout,omitempty"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	var req startSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}

	var template *models.Template
	if req.FromWorkout != nil {
		detail, err := s.db.GetWorkoutDetail(r.Context(), *req.FromWorkout)
		if err != nil || detail.Workout.UserID != uid {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
			return
		}
		t := detail.Template()
		template = &t
	}

	c, err := s.sessions.Start(r.Context(), uid, template)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(c))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessions.Get(userIDFromContext(r))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	if err := s.sessions.Cancel(uid); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessions.Get(userIDFromContext(r))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if err := c.PrepareForCompletion(); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessions.Get(userIDFromContext(r))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if err := c.ResumeEditing(); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	var meta session.CompletionMeta
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}

	workout, err := s.sessions.Save(r.Context(), uid, meta)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, workout)
}

type addExerciseRequest struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	var req addExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	exercise, err := s.db.GetExercise(r.Context(), req.ExerciseID, uid)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return
	}

	c, err := s.sessions.Get(uid)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if _, err := c.AddExercise(r.Context(), *exercise); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

type moveExerciseRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (s *Server) handleMoveExercise(w http.ResponseWriter, r *http.Request) {
	var req moveExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	c, err := s.sessions.Get(userIDFromContext(r))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if err := c.MoveExercise(req.From, req.To); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	c, exerciseID, ok := s.sessionExercise(w, r)
	if !ok {
		return
	}
	if err := c.RemoveExercise(exerciseID); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

type updateExerciseRequest struct {
	RestSeconds *int    `json:"rest_seconds,omitempty"`
	Memo        *string `json:"memo,omitempty"`
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	c, exerciseID, ok := s.sessionExercise(w, r)
	if !ok {
		return
	}

	var req updateExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.RestSeconds != nil {
		if err := c.SetExerciseRest(exerciseID, *req.RestSeconds); err != nil {
			s.writeSessionError(w, err)
			return
		}
	}
	if req.Memo != nil {
		if err := c.SetExerciseMemo(exerciseID, *req.Memo); err != nil {
			s.writeSessionError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	c, exerciseID, ok := s.sessionExercise(w, r)
	if !ok {
		return
	}
	if err := c.AddSet(exerciseID); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	c, exerciseID, ok := s.sessionExercise(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid set index"})
		return
	}

	var patch session.SetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := c.UpdateSet(exerciseID, index, patch); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	c, exerciseID, ok := s.sessionExercise(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid set index"})
		return
	}
	if err := c.RemoveSet(exerciseID, index); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

// sessionExercise resolves the caller's container and the exercise path
// parameter, writing the error response itself on failure.
func (s *Server) sessionExercise(w http.ResponseWriter, r *http.Request) (*session.Container, uuid.UUID, bool) {
	exerciseID, err := uuid.Parse(chi.URLParam(r, "exerciseID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise ID"})
		return nil, uuid.Nil, false
	}
	c, err := s.sessions.Get(userIDFromContext(r))
	if err != nil {
		s.writeSessionError(w, err)
		return nil, uuid.Nil, false
	}
	return c, exerciseID, true
}

// writeSessionError maps core errors onto HTTP statuses.
func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	var stateErr *session.StateError
	var writeErr *session.WriteError
	switch {
	case errors.Is(err, session.ErrNoSession):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrSessionInProgress),
		errors.As(err, &stateErr):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrNoExercises),
		errors.Is(err, session.ErrIncompleteSets):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrExerciseNotFound),
		errors.Is(err, session.ErrSetOutOfRange):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &writeErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

package session

import (
	"errors"
	"fmt"

	"github.com/meltforce/liftlog/internal/models"
)

// Validation errors. These are reported synchronously, never transition the
// state machine, and are recoverable by continuing to edit.
var (
	ErrNoExercises    = errors.New("workout has no exercises")
	ErrIncompleteSets = errors.New("workout has incomplete sets")

	ErrExerciseNotFound = errors.New("exercise not in session")
	ErrSetOutOfRange    = errors.New("set index out of range")

	// ErrSessionInProgress is returned by the manager when a user already has
	// an active session (one recording session per user).
	ErrSessionInProgress = errors.New("a session is already in progress")

	ErrNoSession = errors.New("no session in progress")
)

// StateError reports an operation attempted in a state that does not allow it.
type StateError struct {
	Op    string
	State models.SessionState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s not valid in state %q", e.Op, e.State)
}

// WriteStep identifies which step of the save chain failed.
type WriteStep string

const (
	StepWorkout      WriteStep = "workout"
	StepExerciseLink WriteStep = "workout_exercise"
	StepSet          WriteStep = "workout_set"
)

// WriteError wraps a storage failure from one step of the save chain. The
// wrapped error is the originating storage error; rollback failures are
// logged but never replace it.
type WriteError struct {
	Step WriteStep
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Step, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

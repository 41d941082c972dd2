package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the lifecycle state of an in-memory recording session.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateActive     SessionState = "active"
	StateCompleting SessionState = "completing"
	StateSaving     SessionState = "saving"
	StateSaved      SessionState = "saved"
	StateError      SessionState = "error"
)

// Session is one in-progress workout, held entirely in memory until saved.
// It is owned by a single session container; nothing else mutates it.
type Session struct {
	ID        uuid.UUID         `json:"id"`
	UserID    int               `json:"user_id"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   *time.Time        `json:"ended_at,omitempty"`
	Exercises []SessionExercise `json:"exercises"`

	// Completion metadata, reset to defaults when completion starts.
	Name       string     `json:"name"`
	Comment    string     `json:"comment"`
	Visibility Visibility `json:"visibility"`
	ImageURLs  []string   `json:"image_urls,omitempty"`
}

// SessionExercise is one exercise within a session, with its ordered sets.
type SessionExercise struct {
	ID          uuid.UUID    `json:"id"`
	Exercise    Exercise     `json:"exercise"`
	RestSeconds int          `json:"rest_seconds"`
	Memo        string       `json:"memo,omitempty"`
	Sets        []SessionSet `json:"sets"`
}

// SessionSet is a single set. Weight is expressed in the user's current
// display unit; normalization to kg happens at save time.
type SessionSet struct {
	ID        uuid.UUID `json:"id"`
	Weight    float64   `json:"weight"`
	Reps      int       `json:"reps"`
	Completed bool      `json:"completed"`
}

// Visibility controls who can see a persisted workout.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityFollowers Visibility = "followers"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityFollowers:
		return true
	}
	return false
}

// Template pre-populates a new session with exercises and sets copied from a
// previous workout or a saved routine. Weights are normalized (kg).
type Template struct {
	Name      string             `json:"name"`
	Exercises []TemplateExercise `json:"exercises"`
}

// TemplateExercise is one planned exercise within a template.
type TemplateExercise struct {
	Exercise    Exercise      `json:"exercise"`
	RestSeconds int           `json:"rest_seconds"`
	Sets        []TemplateSet `json:"sets"`
}

// TemplateSet carries the planned weight (kg) and reps for one set.
type TemplateSet struct {
	WeightKg float64 `json:"weight_kg"`
	Reps     int     `json:"reps"`
}

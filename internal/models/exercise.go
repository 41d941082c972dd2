package models

import (
	"time"

	"github.com/google/uuid"
)

// Exercise is a catalog entry. System exercises have no owner; user-created
// exercises are visible only to their creator.
type Exercise struct {
	ID           uuid.UUID `json:"exercise_id"`
	Name         string    `json:"name"`
	MuscleGroups []string  `json:"muscle_groups"`
	Equipment    []string  `json:"equipment,omitempty"`
	MediaURL     *string   `json:"media_url,omitempty"`
	OwnerID      *int      `json:"owner_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsSystem reports whether this is a system-provided catalog entry.
func (e Exercise) IsSystem() bool {
	return e.OwnerID == nil
}

// VisibleTo reports whether the exercise may appear in userID's catalog.
func (e Exercise) VisibleTo(userID int) bool {
	return e.OwnerID == nil || *e.OwnerID == userID
}

// ExerciseFilter narrows catalog searches.
type ExerciseFilter struct {
	Query        string   `json:"query,omitempty"`
	MuscleGroups []string `json:"muscle_groups,omitempty"`
	Equipment    []string `json:"equipment,omitempty"`
}

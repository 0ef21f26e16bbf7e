package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WorkoutSession is one execution attempt of a scheduled workout. It exclusively
// owns its exercises, which exclusively own their sets; children are addressed
// by (session id, exercise order, set number), never by back-references.
//
// A session makes exactly one terminal transition (Completed or Aborted) and is
// immutable afterwards, except for the notes line appended during abort.
type WorkoutSession struct {
	ID                 uuid.UUID         `json:"id"`
	UserID             int               `json:"-"`
	ScheduledWorkoutID uuid.UUID         `json:"scheduled_workout_id"`
	Status             SessionStatus     `json:"status"`
	StartedAt          time.Time         `json:"started_at"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	DurationSec        *int              `json:"duration_sec,omitempty"`
	Notes              string            `json:"notes"`
	QuickComplete      bool              `json:"quick_complete"`
	Exercises          []SessionExercise `json:"exercises"`
}

// SessionExercise is a snapshot of one planned exercise. Order is assigned at
// snapshot time, 1-based in plan sequence, and never renumbered. Name is copied
// by value so later plan edits cannot leak into a started session.
type SessionExercise struct {
	Order          int          `json:"order"`
	Name           string       `json:"name"`
	PlannedRestSec int          `json:"planned_rest_sec"`
	ActualRestSec  *int         `json:"actual_rest_sec,omitempty"`
	Sets           []SessionSet `json:"sets"`
}

// SessionSet is one planned/performed set. Planned values are immutable after
// snapshot; only the four actual-value fields change, and only while the owning
// session is in progress.
type SessionSet struct {
	SetNumber     int              `json:"set_number"`
	RepsPlanned   int              `json:"reps_planned"`
	WeightPlanned decimal.Decimal  `json:"weight_planned"`
	RepsDone      *int             `json:"reps_done,omitempty"`
	WeightDone    *decimal.Decimal `json:"weight_done,omitempty"`
	RPE           *decimal.Decimal `json:"rpe,omitempty"`
	IsFailure     *bool            `json:"is_failure,omitempty"`
}

// Exercise returns the exercise with the given 1-based order, or nil.
func (s *WorkoutSession) Exercise(order int) *SessionExercise {
	for i := range s.Exercises {
		if s.Exercises[i].Order == order {
			return &s.Exercises[i]
		}
	}
	return nil
}

// Set returns the set with the given 1-based number, or nil.
func (e *SessionExercise) Set(number int) *SessionSet {
	for i := range e.Sets {
		if e.Sets[i].SetNumber == number {
			return &e.Sets[i]
		}
	}
	return nil
}

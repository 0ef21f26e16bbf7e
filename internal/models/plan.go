package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduledWorkout is a planned training day: an ordered list of exercises,
// each with an ordered list of target sets. Sessions snapshot it at start;
// the plan itself is never referenced by a running session.
type ScheduledWorkout struct {
	ID           uuid.UUID         `json:"id"`
	UserID       int               `json:"-"`
	Name         string            `json:"name"`
	ScheduledFor time.Time         `json:"scheduled_for"`
	Status       ScheduleStatus    `json:"status"`
	Exercises    []PlannedExercise `json:"exercises"`
	CreatedAt    time.Time         `json:"created_at"`
}

// PlannedExercise is one exercise slot within a scheduled workout.
// Position is 1-based and contiguous within the workout.
type PlannedExercise struct {
	Position    int          `json:"position"`
	Name        string       `json:"name"`
	RestSeconds int          `json:"rest_seconds"`
	Sets        []PlannedSet `json:"sets"`
}

// PlannedSet is one target set. SetNumber is 1-based and contiguous
// within its exercise.
type PlannedSet struct {
	SetNumber int             `json:"set_number"`
	Reps      int             `json:"reps"`
	WeightKg  decimal.Decimal `json:"weight_kg"`
}

// Package session implements the workout-session lifecycle: snapshotting a
// scheduled workout into an independent session record, the in-progress ->
// completed/aborted state machine, and partial updates to performed sets.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meltforce/liftlog/internal/models"
)

// Snapshot deep-copies a scheduled workout into a fresh in-progress session.
// Exercise order is assigned 1-based in plan sequence; set numbers are copied
// verbatim. No reference to the plan is retained, so later plan edits cannot
// alter a started session.
func Snapshot(plan *models.ScheduledWorkout, userID int, now time.Time) *models.WorkoutSession {
	sess := &models.WorkoutSession{
		ID:                 uuid.New(),
		UserID:             userID,
		ScheduledWorkoutID: plan.ID,
		Status:             models.SessionInProgress,
		StartedAt:          now.UTC(),
		Exercises:          make([]models.SessionExercise, 0, len(plan.Exercises)),
	}

	for i, ex := range plan.Exercises {
		snap := models.SessionExercise{
			Order:          i + 1,
			Name:           ex.Name,
			PlannedRestSec: ex.RestSeconds,
			Sets:           make([]models.SessionSet, 0, len(ex.Sets)),
		}
		for _, set := range ex.Sets {
			snap.Sets = append(snap.Sets, models.SessionSet{
				SetNumber:     set.SetNumber,
				RepsPlanned:   set.Reps,
				WeightPlanned: set.WeightKg,
			})
		}
		sess.Exercises = append(sess.Exercises, snap)
	}

	return sess
}

// Complete transitions an in-progress session to completed. The completion
// timestamp defaults to now when the caller omits it; duration is clamped to
// zero for out-of-order timestamps. Non-empty notes overwrite existing notes.
func Complete(sess *models.WorkoutSession, completedAt *time.Time, notes string, now time.Time) error {
	if sess.Status != models.SessionInProgress {
		return fmt.Errorf("completing session %s in state %s: %w", sess.ID, sess.Status, models.ErrInvalidState)
	}

	at := now.UTC()
	if completedAt != nil {
		at = completedAt.UTC()
	}
	sess.Status = models.SessionCompleted
	sess.CompletedAt = &at
	dur := durationSec(sess.StartedAt, at)
	sess.DurationSec = &dur
	if notes != "" {
		sess.Notes = notes
	}
	return nil
}

// Abort transitions an in-progress session to aborted. Unlike Complete, an
// abort reason is appended to existing notes rather than overwriting them,
// and the source scheduled workout is left untouched.
func Abort(sess *models.WorkoutSession, reason string, now time.Time) error {
	if sess.Status != models.SessionInProgress {
		return fmt.Errorf("aborting session %s in state %s: %w", sess.ID, sess.Status, models.ErrInvalidState)
	}

	at := now.UTC()
	sess.Status = models.SessionAborted
	sess.CompletedAt = &at
	dur := durationSec(sess.StartedAt, at)
	sess.DurationSec = &dur
	if reason != "" {
		line := "Aborted: " + reason
		if sess.Notes != "" {
			sess.Notes += "\n" + line
		} else {
			sess.Notes = line
		}
	}
	return nil
}

// SetPatch is a partial update to one set's actual values. Nil fields are
// left unchanged; supplied fields overwrite (last write wins).
type SetPatch struct {
	RepsDone   *int
	WeightDone *decimal.Decimal
	RPE        *decimal.Decimal
	IsFailure  *bool
}

// ApplySetPatch overwrites the supplied actual-value fields on the set
// addressed by (exerciseOrder, setNumber). The session must be in progress.
func ApplySetPatch(sess *models.WorkoutSession, exerciseOrder, setNumber int, patch SetPatch) error {
	if sess.Status != models.SessionInProgress {
		return fmt.Errorf("patching set in session %s in state %s: %w", sess.ID, sess.Status, models.ErrInvalidState)
	}

	ex := sess.Exercise(exerciseOrder)
	if ex == nil {
		return fmt.Errorf("session %s has no exercise with order %d: %w", sess.ID, exerciseOrder, models.ErrNotFound)
	}
	set := ex.Set(setNumber)
	if set == nil {
		return fmt.Errorf("exercise %d of session %s has no set %d: %w", exerciseOrder, sess.ID, setNumber, models.ErrNotFound)
	}

	if patch.RepsDone != nil {
		set.RepsDone = patch.RepsDone
	}
	if patch.WeightDone != nil {
		set.WeightDone = patch.WeightDone
	}
	if patch.RPE != nil {
		set.RPE = patch.RPE
	}
	if patch.IsFailure != nil {
		set.IsFailure = patch.IsFailure
	}
	return nil
}

// durationSec returns the whole seconds between start and end, never negative.
func durationSec(start, end time.Time) int {
	d := int(end.Sub(start) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}

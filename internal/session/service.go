package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/models"
)

// Store is the persistence boundary for session operations. All methods are
// scoped to a single user; a lookup that matches no row owned by that user
// reports models.ErrNotFound.
type Store interface {
	// ScheduledWorkout loads a plan with its full exercise/set tree.
	ScheduledWorkout(ctx context.Context, userID int, id uuid.UUID) (*models.ScheduledWorkout, error)

	// InsertSession persists a new session with its full tree atomically.
	InsertSession(ctx context.Context, sess *models.WorkoutSession) error

	// Session loads one session with its full tree.
	Session(ctx context.Context, userID int, id uuid.UUID) (*models.WorkoutSession, error)

	// SessionsInRange returns sessions with started_at in [from, to),
	// newest first, with full trees.
	SessionsInRange(ctx context.Context, userID int, from, to time.Time) ([]models.WorkoutSession, error)

	// UpdateSession loads the session under an exclusive row lock, applies fn,
	// and persists the mutated tree in the same transaction. Two racing updates
	// to one session serialize on the lock, so the loser of a racing terminal
	// transition observes the terminal state and fails its precondition.
	//
	// When fn transitions the session to completed, the source scheduled
	// workout is promoted from planned to completed inside that transaction.
	// The promotion is one-way and skipped if the plan is already completed.
	UpdateSession(ctx context.Context, userID int, id uuid.UUID, fn func(*models.WorkoutSession) error) (*models.WorkoutSession, error)
}

// Service exposes the session lifecycle operations. The caller's user id is an
// explicit argument on every method; the service never resolves identity itself.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Start snapshots the scheduled workout into a new in-progress session and
// persists it.
func (s *Service) Start(ctx context.Context, userID int, scheduledWorkoutID uuid.UUID) (*models.WorkoutSession, error) {
	plan, err := s.store.ScheduledWorkout(ctx, userID, scheduledWorkoutID)
	if err != nil {
		return nil, fmt.Errorf("loading scheduled workout %s: %w", scheduledWorkoutID, err)
	}

	sess := Snapshot(plan, userID, s.now())
	if err := s.store.InsertSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return sess, nil
}

// QuickComplete logs a scheduled workout as done-as-planned: it snapshots the
// plan, copies every planned value into the actuals, and completes the session
// immediately. The resulting session carries the quick-complete flag.
func (s *Service) QuickComplete(ctx context.Context, userID int, scheduledWorkoutID uuid.UUID) (*models.WorkoutSession, error) {
	plan, err := s.store.ScheduledWorkout(ctx, userID, scheduledWorkoutID)
	if err != nil {
		return nil, fmt.Errorf("loading scheduled workout %s: %w", scheduledWorkoutID, err)
	}

	now := s.now()
	sess := Snapshot(plan, userID, now)
	sess.QuickComplete = true
	for i := range sess.Exercises {
		for j := range sess.Exercises[i].Sets {
			set := &sess.Exercises[i].Sets[j]
			reps := set.RepsPlanned
			weight := set.WeightPlanned
			set.RepsDone = &reps
			set.WeightDone = &weight
		}
	}
	if err := Complete(sess, nil, "", now); err != nil {
		return nil, err
	}

	if err := s.store.InsertSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("inserting quick-completed session: %w", err)
	}
	return sess, nil
}

// PatchSet applies a partial update to one set of an in-progress session and
// returns the full updated session so the caller can reconcile local state.
func (s *Service) PatchSet(ctx context.Context, userID int, sessionID uuid.UUID, exerciseOrder, setNumber int, patch SetPatch) (*models.WorkoutSession, error) {
	return s.store.UpdateSession(ctx, userID, sessionID, func(sess *models.WorkoutSession) error {
		return ApplySetPatch(sess, exerciseOrder, setNumber, patch)
	})
}

// Complete transitions a session to completed. completedAt defaults to the
// current UTC time when nil; non-empty notes replace the session notes.
func (s *Service) Complete(ctx context.Context, userID int, sessionID uuid.UUID, completedAt *time.Time, notes string) (*models.WorkoutSession, error) {
	return s.store.UpdateSession(ctx, userID, sessionID, func(sess *models.WorkoutSession) error {
		return Complete(sess, completedAt, notes, s.now())
	})
}

// Abort transitions a session to aborted, appending the reason to its notes.
func (s *Service) Abort(ctx context.Context, userID int, sessionID uuid.UUID, reason string) (*models.WorkoutSession, error) {
	return s.store.UpdateSession(ctx, userID, sessionID, func(sess *models.WorkoutSession) error {
		return Abort(sess, reason, s.now())
	})
}

// Get returns one session with its full tree.
func (s *Service) Get(ctx context.Context, userID int, sessionID uuid.UUID) (*models.WorkoutSession, error) {
	return s.store.Session(ctx, userID, sessionID)
}

// ListRange returns sessions started in [from, to), newest first. A reversed
// range is normalized rather than rejected. The result is never nil, so an
// empty range serializes as an empty JSON array.
func (s *Service) ListRange(ctx context.Context, userID int, from, to time.Time) ([]models.WorkoutSession, error) {
	if from.After(to) {
		from, to = to, from
	}
	sessions, err := s.store.SessionsInRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = make([]models.WorkoutSession, 0)
	}
	return sessions, nil
}

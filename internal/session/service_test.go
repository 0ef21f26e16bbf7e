package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meltforce/liftlog/internal/models"
)

// fakeStore is an in-memory Store. UpdateSession mimics the real store's
// load-mutate-persist cycle, including the one-way plan promotion on
// completion, but without transactions or locking.
type fakeStore struct {
	plans    map[uuid.UUID]*models.ScheduledWorkout
	sessions map[uuid.UUID]*models.WorkoutSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plans:    make(map[uuid.UUID]*models.ScheduledWorkout),
		sessions: make(map[uuid.UUID]*models.WorkoutSession),
	}
}

func (f *fakeStore) ScheduledWorkout(_ context.Context, userID int, id uuid.UUID) (*models.ScheduledWorkout, error) {
	plan, ok := f.plans[id]
	if !ok || plan.UserID != userID {
		return nil, fmt.Errorf("scheduled workout %s: %w", id, models.ErrNotFound)
	}
	cp := *plan
	return &cp, nil
}

func (f *fakeStore) InsertSession(_ context.Context, sess *models.WorkoutSession) error {
	cp := *sess
	f.sessions[sess.ID] = &cp
	return nil
}

func (f *fakeStore) Session(_ context.Context, userID int, id uuid.UUID) (*models.WorkoutSession, error) {
	sess, ok := f.sessions[id]
	if !ok || sess.UserID != userID {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	cp := *sess
	return &cp, nil
}

func (f *fakeStore) SessionsInRange(_ context.Context, userID int, from, to time.Time) ([]models.WorkoutSession, error) {
	var out []models.WorkoutSession
	for _, sess := range f.sessions {
		if sess.UserID != userID {
			continue
		}
		if sess.StartedAt.Before(from) || !sess.StartedAt.Before(to) {
			continue
		}
		out = append(out, *sess)
	}
	return out, nil
}

func (f *fakeStore) UpdateSession(_ context.Context, userID int, id uuid.UUID, fn func(*models.WorkoutSession) error) (*models.WorkoutSession, error) {
	sess, ok := f.sessions[id]
	if !ok || sess.UserID != userID {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}

	wasTerminal := sess.Status.Terminal()
	if err := fn(sess); err != nil {
		return nil, err
	}

	if !wasTerminal && sess.Status == models.SessionCompleted {
		if plan, ok := f.plans[sess.ScheduledWorkoutID]; ok && plan.Status == models.SchedulePlanned {
			plan.Status = models.ScheduleCompleted
		}
	}

	cp := *sess
	return &cp, nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *models.ScheduledWorkout) {
	t.Helper()
	store := newFakeStore()
	plan := testPlan()
	store.plans[plan.ID] = plan
	svc := NewService(store)
	return svc, store, plan
}

// TestServiceStart verifies that starting persists a snapshot of the plan.
func TestServiceStart(t *testing.T) {
	svc, store, plan := newTestService(t)

	sess, err := svc.Start(context.Background(), 1, plan.ID)
	require.NoError(t, err)

	stored, ok := store.sessions[sess.ID]
	require.True(t, ok, "session not persisted")
	assert.Equal(t, models.SessionInProgress, stored.Status)
	assert.Equal(t, plan.ID, stored.ScheduledWorkoutID)
	assert.Len(t, stored.Exercises, 2)
}

// TestServiceStartUnknownPlan verifies ErrNotFound for a missing or foreign
// scheduled workout.
func TestServiceStartUnknownPlan(t *testing.T) {
	svc, _, plan := newTestService(t)

	_, err := svc.Start(context.Background(), 1, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Start(context.Background(), 2, plan.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// TestServiceFullLifecycle drives a session end to end: start, record actuals
// on every set, complete 40 minutes in, and check the persisted result.
func TestServiceFullLifecycle(t *testing.T) {
	svc, store, plan := newTestService(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	sess, err := svc.Start(ctx, 1, plan.ID)
	require.NoError(t, err)

	for _, ex := range sess.Exercises {
		for _, set := range ex.Sets {
			reps := set.RepsPlanned
			weight := set.WeightPlanned
			_, err := svc.PatchSet(ctx, 1, sess.ID, ex.Order, set.SetNumber, SetPatch{
				RepsDone:   &reps,
				WeightDone: &weight,
			})
			require.NoError(t, err)
		}
	}

	end := start.Add(40 * time.Minute)
	done, err := svc.Complete(ctx, 1, sess.ID, &end, "solid session")
	require.NoError(t, err)

	assert.Equal(t, models.SessionCompleted, done.Status)
	assert.Equal(t, 2400, *done.DurationSec)
	assert.Equal(t, "solid session", done.Notes)
	for _, ex := range done.Exercises {
		for _, set := range ex.Sets {
			assert.NotNil(t, set.RepsDone)
			assert.NotNil(t, set.WeightDone)
		}
	}

	// Completing a session promotes its plan.
	assert.Equal(t, models.ScheduleCompleted, store.plans[plan.ID].Status)
}

// TestServiceQuickComplete verifies the log-as-planned shortcut: one call
// yields a completed session whose actuals equal the plan.
func TestServiceQuickComplete(t *testing.T) {
	svc, store, plan := newTestService(t)

	sess, err := svc.QuickComplete(context.Background(), 1, plan.ID)
	require.NoError(t, err)

	assert.True(t, sess.QuickComplete)
	assert.Equal(t, models.SessionCompleted, sess.Status)
	assert.Equal(t, 0, *sess.DurationSec)
	for _, ex := range sess.Exercises {
		for _, set := range ex.Sets {
			require.NotNil(t, set.RepsDone)
			assert.Equal(t, set.RepsPlanned, *set.RepsDone)
			require.NotNil(t, set.WeightDone)
			assert.True(t, set.WeightPlanned.Equal(*set.WeightDone))
		}
	}
	assert.Equal(t, models.ScheduleCompleted, store.plans[plan.ID].Status)
}

// TestServiceAbortLeavesPlanPlanned verifies that aborting never promotes the
// scheduled workout.
func TestServiceAbortLeavesPlanPlanned(t *testing.T) {
	svc, store, plan := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, 1, plan.ID)
	require.NoError(t, err)

	aborted, err := svc.Abort(ctx, 1, sess.ID, "gym closed")
	require.NoError(t, err)

	assert.Equal(t, models.SessionAborted, aborted.Status)
	assert.Equal(t, "Aborted: gym closed", aborted.Notes)
	assert.Equal(t, models.SchedulePlanned, store.plans[plan.ID].Status)
}

// TestServiceDoubleTerminal verifies that the second of two terminal
// transitions fails and the stored session keeps the first outcome.
func TestServiceDoubleTerminal(t *testing.T) {
	svc, store, plan := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, 1, plan.ID)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, 1, sess.ID, nil, "")
	require.NoError(t, err)

	_, err = svc.Abort(ctx, 1, sess.ID, "changed my mind")
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.Equal(t, models.SessionCompleted, store.sessions[sess.ID].Status)
}

// TestServicePatchSetAfterComplete verifies no writes land on a terminal
// session's sets.
func TestServicePatchSetAfterComplete(t *testing.T) {
	svc, store, plan := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, 1, plan.ID)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, 1, sess.ID, nil, "")
	require.NoError(t, err)

	reps := 3
	_, err = svc.PatchSet(ctx, 1, sess.ID, 1, 1, SetPatch{RepsDone: &reps})
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.Nil(t, store.sessions[sess.ID].Exercise(1).Set(1).RepsDone)
}

// TestServiceListRangeNormalizes verifies that a reversed range still returns
// the sessions inside it.
func TestServiceListRangeNormalizes(t *testing.T) {
	svc, _, plan := newTestService(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	_, err := svc.Start(ctx, 1, plan.ID)
	require.NoError(t, err)

	from := start.Add(-time.Hour)
	to := start.Add(time.Hour)

	sessions, err := svc.ListRange(ctx, 1, to, from)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

// TestServiceListRangeEmptyIsNotNil verifies that an empty range yields an
// empty slice, not nil, so the handler renders [] rather than JSON null.
func TestServiceListRangeEmptyIsNotNil(t *testing.T) {
	svc, _, _ := newTestService(t)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sessions, err := svc.ListRange(context.Background(), 1, from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

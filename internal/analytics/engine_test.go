package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meltforce/liftlog/internal/models"
)

// fakeStore serves canned sessions and scheduled-workout counts.
type fakeStore struct {
	sessions  []models.WorkoutSession
	planned   int
	completed int
}

func (f *fakeStore) CompletedSessions(_ context.Context, userID int, from, to time.Time) ([]models.WorkoutSession, error) {
	var out []models.WorkoutSession
	for _, sess := range f.sessions {
		if sess.UserID != userID || sess.Status != models.SessionCompleted {
			continue
		}
		if sess.StartedAt.Before(from) || !sess.StartedAt.Before(to) {
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

func (f *fakeStore) Session(_ context.Context, userID int, id uuid.UUID) (*models.WorkoutSession, error) {
	for i := range f.sessions {
		if f.sessions[i].ID == id && f.sessions[i].UserID == userID {
			return &f.sessions[i], nil
		}
	}
	return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
}

func (f *fakeStore) ScheduledWorkoutCounts(_ context.Context, _ int, _, _ time.Time) (int, int, error) {
	return f.planned, f.completed, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(i int) *int                      { return &i }
func decPtr(s string) *decimal.Decimal       { d := dec(s); return &d }
func completedSession(userID int, startedAt time.Time, exercises ...models.SessionExercise) models.WorkoutSession {
	return models.WorkoutSession{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    models.SessionCompleted,
		StartedAt: startedAt,
		Exercises: exercises,
	}
}

var rangeStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
var rangeEnd = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

// TestSetVolumeFallback verifies the per-field planned fallback: each of reps
// and weight independently falls back to its planned value.
func TestSetVolumeFallback(t *testing.T) {
	planned := models.SessionSet{RepsPlanned: 8, WeightPlanned: dec("80")}

	// Nothing recorded: planned x planned.
	assert.True(t, dec("640").Equal(setVolume(planned)), "planned only")

	// Only reps recorded: actual reps x planned weight.
	withReps := planned
	withReps.RepsDone = intPtr(6)
	assert.True(t, dec("480").Equal(setVolume(withReps)), "reps only")

	// Only weight recorded: planned reps x actual weight.
	withWeight := planned
	withWeight.WeightDone = decPtr("82.5")
	assert.True(t, dec("660").Equal(setVolume(withWeight)), "weight only")

	// Both recorded: actual x actual.
	both := planned
	both.RepsDone = intPtr(6)
	both.WeightDone = decPtr("82.5")
	assert.True(t, dec("495").Equal(setVolume(both)), "both recorded")
}

// TestOverview checks the aggregate numbers over two completed sessions.
func TestOverview(t *testing.T) {
	store := &fakeStore{
		planned:   4,
		completed: 3,
		sessions: []models.WorkoutSession{
			completedSession(1, rangeStart.Add(24*time.Hour), models.SessionExercise{
				Order: 1, Name: "Squat",
				Sets: []models.SessionSet{
					{SetNumber: 1, RepsPlanned: 5, WeightPlanned: dec("100"), RepsDone: intPtr(5), WeightDone: decPtr("100")},
					{SetNumber: 2, RepsPlanned: 5, WeightPlanned: dec("100"), RepsDone: intPtr(4), WeightDone: decPtr("102.5")},
				},
			}),
			completedSession(1, rangeStart.Add(72*time.Hour), models.SessionExercise{
				Order: 1, Name: "Deadlift",
				Sets: []models.SessionSet{
					// No actuals recorded, volume falls back to the plan.
					{SetNumber: 1, RepsPlanned: 3, WeightPlanned: dec("140")},
				},
			}),
		},
	}
	engine := NewEngine(store)

	overview, err := engine.Overview(context.Background(), 1, rangeStart, rangeEnd)
	require.NoError(t, err)

	// 5x100 + 4x102.5 + 3x140 = 500 + 410 + 420
	assert.Equal(t, "1330", overview.TotalVolume.String())
	// Mean of the two recorded weights: (100 + 102.5) / 2
	assert.Equal(t, "101.25", overview.AvgIntensity.String())
	assert.Equal(t, 2, overview.SessionsCount)
	// 3 of 4 scheduled workouts completed.
	assert.Equal(t, "75", overview.AdherencePct.String())
	assert.Equal(t, 0, overview.NewPRs)
}

// TestOverviewEmptyRange verifies the zero-data shape: all zeros, no division
// by zero anywhere.
func TestOverviewEmptyRange(t *testing.T) {
	engine := NewEngine(&fakeStore{})

	overview, err := engine.Overview(context.Background(), 1, rangeStart, rangeEnd)
	require.NoError(t, err)

	assert.True(t, overview.TotalVolume.IsZero())
	assert.True(t, overview.AvgIntensity.IsZero())
	assert.Equal(t, 0, overview.SessionsCount)
	assert.True(t, overview.AdherencePct.IsZero())
}

// TestAdherencePct checks the rounding of the percentage to one decimal.
func TestAdherencePct(t *testing.T) {
	assert.Equal(t, "75", adherencePct(4, 3).String())
	assert.Equal(t, "66.7", adherencePct(3, 2).String())
	assert.Equal(t, "0", adherencePct(0, 0).String())
	assert.Equal(t, "100", adherencePct(5, 5).String())
}

// TestAdherence verifies the raw counts endpoint.
func TestAdherence(t *testing.T) {
	engine := NewEngine(&fakeStore{planned: 5, completed: 2})

	adherence, err := engine.Adherence(context.Background(), 1, rangeStart, rangeEnd)
	require.NoError(t, err)
	assert.Equal(t, 5, adherence.Planned)
	assert.Equal(t, 2, adherence.Completed)
}

// TestPlanVsActual verifies row order (exercise order, then set number) and the
// carried-over actuals.
func TestPlanVsActual(t *testing.T) {
	sess := completedSession(1, rangeStart,
		models.SessionExercise{
			Order: 1, Name: "Bench Press",
			Sets: []models.SessionSet{
				{SetNumber: 1, RepsPlanned: 8, WeightPlanned: dec("80"), RepsDone: intPtr(8), WeightDone: decPtr("80")},
				{SetNumber: 2, RepsPlanned: 8, WeightPlanned: dec("80"), RepsDone: intPtr(6), WeightDone: decPtr("80"), RPE: decPtr("9.5")},
			},
		},
		models.SessionExercise{
			Order: 2, Name: "Overhead Press",
			Sets: []models.SessionSet{
				{SetNumber: 1, RepsPlanned: 10, WeightPlanned: dec("40")},
			},
		},
	)
	engine := NewEngine(&fakeStore{sessions: []models.WorkoutSession{sess}})

	rows, err := engine.PlanVsActual(context.Background(), 1, sess.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Bench Press", rows[0].ExerciseName)
	assert.Equal(t, 1, rows[0].SetNumber)
	assert.Equal(t, "Bench Press", rows[1].ExerciseName)
	assert.Equal(t, 2, rows[1].SetNumber)
	require.NotNil(t, rows[1].RPE)
	assert.Equal(t, "9.5", rows[1].RPE.String())
	assert.Equal(t, "Overhead Press", rows[2].ExerciseName)
	assert.Nil(t, rows[2].RepsDone)
}

// TestPlanVsActualForeignSession verifies that a missing or foreign session
// yields an empty list, not an error, so existence cannot be probed.
func TestPlanVsActualForeignSession(t *testing.T) {
	sess := completedSession(2, rangeStart, models.SessionExercise{
		Order: 1, Name: "Squat",
		Sets:  []models.SessionSet{{SetNumber: 1, RepsPlanned: 5, WeightPlanned: dec("100")}},
	})
	engine := NewEngine(&fakeStore{sessions: []models.WorkoutSession{sess}})

	rows, err := engine.PlanVsActual(context.Background(), 1, sess.ID)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	rows, err = engine.PlanVsActual(context.Background(), 1, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// TestOverviewReversedRange verifies that from > to is normalized.
func TestOverviewReversedRange(t *testing.T) {
	store := &fakeStore{
		sessions: []models.WorkoutSession{
			completedSession(1, rangeStart.Add(24*time.Hour), models.SessionExercise{
				Order: 1, Name: "Squat",
				Sets:  []models.SessionSet{{SetNumber: 1, RepsPlanned: 5, WeightPlanned: dec("100")}},
			}),
		},
	}
	engine := NewEngine(store)

	overview, err := engine.Overview(context.Background(), 1, rangeEnd, rangeStart)
	require.NoError(t, err)
	assert.Equal(t, 1, overview.SessionsCount)
}

// Package analytics derives performance time series from recorded workout
// sessions: volume over time, estimated one-rep-max, adherence, and
// plan-vs-actual comparisons. All set arithmetic is exact decimal arithmetic;
// rounding happens once, on output values.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meltforce/liftlog/internal/models"
)

// Store is the read-only persistence boundary for the engine. Every session
// read sees a fully committed tree; the engine never observes a session
// mid-mutation.
type Store interface {
	// CompletedSessions returns completed sessions with started_at in
	// [from, to), with full trees.
	CompletedSessions(ctx context.Context, userID int, from, to time.Time) ([]models.WorkoutSession, error)

	// Session loads one session with its full tree, or models.ErrNotFound
	// when it does not exist or belongs to another user.
	Session(ctx context.Context, userID int, id uuid.UUID) (*models.WorkoutSession, error)

	// ScheduledWorkoutCounts returns how many scheduled workouts fall in the
	// date range [from, to) and how many of those are completed.
	ScheduledWorkoutCounts(ctx context.Context, userID int, from, to time.Time) (planned, completed int, err error)
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Overview summarizes one time range.
type Overview struct {
	TotalVolume   decimal.Decimal `json:"total_volume"`
	AvgIntensity  decimal.Decimal `json:"avg_intensity"`
	SessionsCount int             `json:"sessions_count"`
	AdherencePct  decimal.Decimal `json:"adherence_pct"`
	// NewPRs is reserved; personal-record detection is not implemented.
	NewPRs int `json:"new_prs"`
}

// Adherence reports the scheduled-workout counts behind the adherence ratio.
type Adherence struct {
	Planned   int `json:"planned"`
	Completed int `json:"completed"`
}

// PlanVsActualRow compares one set's targets against recorded performance.
type PlanVsActualRow struct {
	ExerciseName  string           `json:"exercise_name"`
	SetNumber     int              `json:"set_number"`
	RepsPlanned   int              `json:"reps_planned"`
	WeightPlanned decimal.Decimal  `json:"weight_planned"`
	RepsDone      *int             `json:"reps_done,omitempty"`
	WeightDone    *decimal.Decimal `json:"weight_done,omitempty"`
	RPE           *decimal.Decimal `json:"rpe,omitempty"`
	IsFailure     *bool            `json:"is_failure,omitempty"`
}

// Overview computes the range summary: total volume (2 decimals), mean of the
// recorded weights (2 decimals, 0 when none recorded), completed-session count,
// and the adherence percentage (1 decimal, 0 when nothing was scheduled).
func (e *Engine) Overview(ctx context.Context, userID int, from, to time.Time) (*Overview, error) {
	from, to = normalizeRange(from, to)

	sessions, err := e.store.CompletedSessions(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading completed sessions: %w", err)
	}

	total := decimal.Zero
	weightSum := decimal.Zero
	weightCount := 0
	for _, sess := range sessions {
		for _, ex := range sess.Exercises {
			for _, set := range ex.Sets {
				total = total.Add(setVolume(set))
				if set.WeightDone != nil {
					weightSum = weightSum.Add(*set.WeightDone)
					weightCount++
				}
			}
		}
	}

	avgIntensity := decimal.Zero
	if weightCount > 0 {
		avgIntensity = weightSum.DivRound(decimal.NewFromInt(int64(weightCount)), 2)
	}

	planned, completed, err := e.store.ScheduledWorkoutCounts(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("counting scheduled workouts: %w", err)
	}

	return &Overview{
		TotalVolume:   total.Round(2),
		AvgIntensity:  avgIntensity,
		SessionsCount: len(sessions),
		AdherencePct:  adherencePct(planned, completed),
		NewPRs:        0,
	}, nil
}

// Adherence exposes the raw planned/completed scheduled-workout counts for a
// date range.
func (e *Engine) Adherence(ctx context.Context, userID int, from, to time.Time) (*Adherence, error) {
	from, to = normalizeRange(from, to)
	planned, completed, err := e.store.ScheduledWorkoutCounts(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("counting scheduled workouts: %w", err)
	}
	return &Adherence{Planned: planned, Completed: completed}, nil
}

// PlanVsActual lists every set of one session, ordered by exercise order then
// set number. A session that does not exist or belongs to another user yields
// an empty list rather than an error, so callers cannot probe for existence.
func (e *Engine) PlanVsActual(ctx context.Context, userID int, sessionID uuid.UUID) ([]PlanVsActualRow, error) {
	sess, err := e.store.Session(ctx, userID, sessionID)
	if errors.Is(err, models.ErrNotFound) {
		return []PlanVsActualRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	rows := make([]PlanVsActualRow, 0)
	for _, ex := range sess.Exercises {
		for _, set := range ex.Sets {
			rows = append(rows, PlanVsActualRow{
				ExerciseName:  ex.Name,
				SetNumber:     set.SetNumber,
				RepsPlanned:   set.RepsPlanned,
				WeightPlanned: set.WeightPlanned,
				RepsDone:      set.RepsDone,
				WeightDone:    set.WeightDone,
				RPE:           set.RPE,
				IsFailure:     set.IsFailure,
			})
		}
	}
	return rows, nil
}

// setVolume is effectiveReps x effectiveWeight, where each actual value falls
// back to its planned counterpart independently when not recorded.
func setVolume(set models.SessionSet) decimal.Decimal {
	reps := set.RepsPlanned
	if set.RepsDone != nil {
		reps = *set.RepsDone
	}
	weight := set.WeightPlanned
	if set.WeightDone != nil {
		weight = *set.WeightDone
	}
	return weight.Mul(decimal.NewFromInt(int64(reps)))
}

// adherencePct is completed/planned x 100 rounded to 1 decimal, 0 when
// nothing was planned.
func adherencePct(planned, completed int) decimal.Decimal {
	if planned == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(completed) * 100).
		DivRound(decimal.NewFromInt(int64(planned)), 1)
}

// normalizeRange swaps a reversed range instead of rejecting it.
func normalizeRange(from, to time.Time) (time.Time, time.Time) {
	if from.After(to) {
		return to, from
	}
	return from, to
}

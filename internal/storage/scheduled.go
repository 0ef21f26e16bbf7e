package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meltforce/liftlog/internal/models"
)

// CreateScheduledWorkout inserts a plan with its full exercise/set tree in one
// transaction. The caller is expected to have numbered exercises and sets
// 1-based and contiguous.
func (db *DB) CreateScheduledWorkout(ctx context.Context, w *models.ScheduledWorkout) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO scheduled_workouts (id, user_id, name, scheduled_for, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		w.ID, w.UserID, w.Name, w.ScheduledFor, w.Status.String())
	if err != nil {
		return fmt.Errorf("inserting scheduled workout: %w", err)
	}

	for _, ex := range w.Exercises {
		_, err = tx.Exec(ctx,
			`INSERT INTO scheduled_exercises (workout_id, position, name, rest_seconds)
			 VALUES ($1, $2, $3, $4)`,
			w.ID, ex.Position, ex.Name, ex.RestSeconds)
		if err != nil {
			return fmt.Errorf("inserting scheduled exercise %d: %w", ex.Position, err)
		}
		if len(ex.Sets) == 0 {
			continue
		}

		query := `INSERT INTO scheduled_sets (workout_id, exercise_position, set_number, reps, weight_kg) VALUES `
		args := make([]any, 0, len(ex.Sets)*5)
		valueStrings := make([]string, 0, len(ex.Sets))
		for i, set := range ex.Sets {
			base := i * 5
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
			args = append(args, w.ID, ex.Position, set.SetNumber, set.Reps, set.WeightKg)
		}
		if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
			return fmt.Errorf("inserting scheduled sets for exercise %d: %w", ex.Position, err)
		}
	}

	return tx.Commit(ctx)
}

// ScheduledWorkout retrieves one plan with its full tree.
// Returns models.ErrNotFound when absent or owned by another user.
func (db *DB) ScheduledWorkout(ctx context.Context, userID int, id uuid.UUID) (*models.ScheduledWorkout, error) {
	return db.scheduledWorkout(ctx, db.Pool, userID, id)
}

func (db *DB) scheduledWorkout(ctx context.Context, q querier, userID int, id uuid.UUID) (*models.ScheduledWorkout, error) {
	var w models.ScheduledWorkout
	var status string
	err := q.QueryRow(ctx,
		`SELECT id, user_id, name, scheduled_for, status, created_at
		 FROM scheduled_workouts
		 WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(&w.ID, &w.UserID, &w.Name, &w.ScheduledFor, &status, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("scheduled workout %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying scheduled workout: %w", err)
	}
	if w.Status, err = models.ParseScheduleStatus(status); err != nil {
		return nil, err
	}

	exRows, err := q.Query(ctx,
		`SELECT position, name, rest_seconds
		 FROM scheduled_exercises
		 WHERE workout_id = $1
		 ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled exercises: %w", err)
	}
	defer exRows.Close()

	byPosition := make(map[int]*models.PlannedExercise)
	for exRows.Next() {
		var ex models.PlannedExercise
		if err := exRows.Scan(&ex.Position, &ex.Name, &ex.RestSeconds); err != nil {
			return nil, fmt.Errorf("scanning scheduled exercise: %w", err)
		}
		w.Exercises = append(w.Exercises, ex)
	}
	if err := exRows.Err(); err != nil {
		return nil, err
	}
	for i := range w.Exercises {
		byPosition[w.Exercises[i].Position] = &w.Exercises[i]
	}

	setRows, err := q.Query(ctx,
		`SELECT exercise_position, set_number, reps, weight_kg
		 FROM scheduled_sets
		 WHERE workout_id = $1
		 ORDER BY exercise_position ASC, set_number ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var position int
		var set models.PlannedSet
		if err := setRows.Scan(&position, &set.SetNumber, &set.Reps, &set.WeightKg); err != nil {
			return nil, fmt.Errorf("scanning scheduled set: %w", err)
		}
		if ex := byPosition[position]; ex != nil {
			ex.Sets = append(ex.Sets, set)
		}
	}
	return &w, setRows.Err()
}

// ScheduledWorkoutsInRange lists plans with scheduled_for in [from, to),
// newest first, without their trees.
func (db *DB) ScheduledWorkoutsInRange(ctx context.Context, userID int, from, to time.Time) ([]models.ScheduledWorkout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, scheduled_for, status, created_at
		 FROM scheduled_workouts
		 WHERE scheduled_for >= $1 AND scheduled_for < $2 AND user_id = $3
		 ORDER BY scheduled_for DESC`,
		from, to, userID)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled workouts: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty range serializes as an empty JSON array.
	result := make([]models.ScheduledWorkout, 0)
	for rows.Next() {
		var w models.ScheduledWorkout
		var status string
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.ScheduledFor, &status, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning scheduled workout: %w", err)
		}
		if w.Status, err = models.ParseScheduleStatus(status); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// ScheduledWorkoutCounts returns the number of plans scheduled in [from, to)
// and how many of those are completed.
func (db *DB) ScheduledWorkoutCounts(ctx context.Context, userID int, from, to time.Time) (planned, completed int, err error) {
	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*)::int,
		        COUNT(*) FILTER (WHERE status = 'completed')::int
		 FROM scheduled_workouts
		 WHERE scheduled_for >= $1 AND scheduled_for < $2 AND user_id = $3`,
		from, to, userID).Scan(&planned, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("counting scheduled workouts: %w", err)
	}
	return planned, completed, nil
}

// promoteScheduledWorkout advances a plan from planned to completed. The WHERE
// clause makes the promotion one-way; promoting an already-completed plan is a
// no-op, not an error.
func promoteScheduledWorkout(ctx context.Context, q querier, userID int, id uuid.UUID) error {
	_, err := q.Exec(ctx,
		`UPDATE scheduled_workouts
		 SET status = 'completed'
		 WHERE id = $1 AND user_id = $2 AND status = 'planned'`,
		id, userID)
	if err != nil {
		return fmt.Errorf("promoting scheduled workout %s: %w", id, err)
	}
	return nil
}

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

// InsertSession persists a new session with its full exercise/set tree in one
// transaction.
func (db *DB) InsertSession(ctx context.Context, sess *models.WorkoutSession) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, scheduled_workout_id, status,
		 started_at, completed_at, duration_sec, notes, quick_complete)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sess.ID, sess.UserID, sess.ScheduledWorkoutID, sess.Status.String(),
		sess.StartedAt, sess.CompletedAt, sess.DurationSec, sess.Notes, sess.QuickComplete)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	for _, ex := range sess.Exercises {
		_, err = tx.Exec(ctx,
			`INSERT INTO session_exercises (session_id, position, name, planned_rest_sec, actual_rest_sec)
			 VALUES ($1, $2, $3, $4, $5)`,
			sess.ID, ex.Order, ex.Name, ex.PlannedRestSec, ex.ActualRestSec)
		if err != nil {
			return fmt.Errorf("inserting session exercise %d: %w", ex.Order, err)
		}
		if len(ex.Sets) == 0 {
			continue
		}

		query := `INSERT INTO session_sets (session_id, exercise_position, set_number,
			reps_planned, weight_planned, reps_done, weight_done, rpe, is_failure) VALUES `
		args := make([]any, 0, len(ex.Sets)*9)
		valueStrings := make([]string, 0, len(ex.Sets))
		for i, set := range ex.Sets {
			base := i * 9
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
			args = append(args, sess.ID, ex.Order, set.SetNumber,
				set.RepsPlanned, set.WeightPlanned, set.RepsDone, set.WeightDone, set.RPE, set.IsFailure)
		}
		if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
			return fmt.Errorf("inserting session sets for exercise %d: %w", ex.Order, err)
		}
	}

	return tx.Commit(ctx)
}

// Session retrieves one session with its full tree.
// Returns models.ErrNotFound when absent or owned by another user.
func (db *DB) Session(ctx context.Context, userID int, id uuid.UUID) (*models.WorkoutSession, error) {
	return db.session(ctx, db.Pool, userID, id, false)
}

func (db *DB) session(ctx context.Context, q querier, userID int, id uuid.UUID, forUpdate bool) (*models.WorkoutSession, error) {
	query := `SELECT id, user_id, scheduled_workout_id, status, started_at,
	          completed_at, duration_sec, notes, quick_complete
	          FROM workout_sessions
	          WHERE id = $1 AND user_id = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}

	sess, err := scanSession(q.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	trees, err := loadSessionTrees(ctx, q, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	sess.Exercises = trees[id]
	return sess, nil
}

// SessionsInRange returns sessions with started_at in [from, to), newest
// first, with full trees.
func (db *DB) SessionsInRange(ctx context.Context, userID int, from, to time.Time) ([]models.WorkoutSession, error) {
	return db.sessionsInRange(ctx, userID, from, to, "")
}

// CompletedSessions returns completed sessions with started_at in [from, to),
// newest first, with full trees.
func (db *DB) CompletedSessions(ctx context.Context, userID int, from, to time.Time) ([]models.WorkoutSession, error) {
	return db.sessionsInRange(ctx, userID, from, to, "completed")
}

func (db *DB) sessionsInRange(ctx context.Context, userID int, from, to time.Time, statusFilter string) ([]models.WorkoutSession, error) {
	query := `SELECT id, user_id, scheduled_workout_id, status, started_at,
	          completed_at, duration_sec, notes, quick_complete
	          FROM workout_sessions
	          WHERE started_at >= $1 AND started_at < $2 AND user_id = $3`
	args := []any{from, to, userID}
	if statusFilter != "" {
		query += " AND status = $4"
		args = append(args, statusFilter)
	}
	query += " ORDER BY started_at DESC"

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty range serializes as an empty JSON array.
	sessions := make([]models.WorkoutSession, 0)
	var ids []uuid.UUID
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, *sess)
		ids = append(ids, sess.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	trees, err := loadSessionTrees(ctx, db.Pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Exercises = trees[sessions[i].ID]
	}
	return sessions, nil
}

// UpdateSession runs fn against the session under an exclusive row lock and
// persists the mutated tree in the same transaction. Racing updates to one
// session serialize on the lock: the second complete/abort of a race observes
// the terminal state and fails its precondition inside fn.
//
// When fn transitions the session to completed, the source scheduled workout
// is promoted from planned to completed within the transaction.
func (db *DB) UpdateSession(ctx context.Context, userID int, id uuid.UUID, fn func(*models.WorkoutSession) error) (*models.WorkoutSession, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	sess, err := db.session(ctx, tx, userID, id, true)
	if err != nil {
		return nil, err
	}

	wasCompleted := sess.Status == models.SessionCompleted
	if err := fn(sess); err != nil {
		return nil, err
	}

	if err := persistSessionTree(ctx, tx, sess); err != nil {
		return nil, err
	}

	if !wasCompleted && sess.Status == models.SessionCompleted {
		if err := promoteScheduledWorkout(ctx, tx, userID, sess.ScheduledWorkoutID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing session update: %w", err)
	}
	return sess, nil
}

// persistSessionTree writes back the mutable parts of a session: the session
// row itself, per-exercise actual rest, and per-set actual values. Planned
// values are immutable after snapshot and are never rewritten.
func persistSessionTree(ctx context.Context, tx pgx.Tx, sess *models.WorkoutSession) error {
	batch := &pgx.Batch{}
	batch.Queue(
		`UPDATE workout_sessions
		 SET status = $1, completed_at = $2, duration_sec = $3, notes = $4
		 WHERE id = $5`,
		sess.Status.String(), sess.CompletedAt, sess.DurationSec, sess.Notes, sess.ID)

	for _, ex := range sess.Exercises {
		batch.Queue(
			`UPDATE session_exercises SET actual_rest_sec = $1
			 WHERE session_id = $2 AND position = $3`,
			ex.ActualRestSec, sess.ID, ex.Order)
		for _, set := range ex.Sets {
			batch.Queue(
				`UPDATE session_sets
				 SET reps_done = $1, weight_done = $2, rpe = $3, is_failure = $4
				 WHERE session_id = $5 AND exercise_position = $6 AND set_number = $7`,
				set.RepsDone, set.WeightDone, set.RPE, set.IsFailure,
				sess.ID, ex.Order, set.SetNumber)
		}
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("persisting session tree: %w", err)
		}
	}
	return nil
}

func scanSession(row pgx.Row) (*models.WorkoutSession, error) {
	var sess models.WorkoutSession
	var status string
	err := row.Scan(&sess.ID, &sess.UserID, &sess.ScheduledWorkoutID, &status,
		&sess.StartedAt, &sess.CompletedAt, &sess.DurationSec, &sess.Notes, &sess.QuickComplete)
	if err != nil {
		return nil, err
	}
	if sess.Status, err = models.ParseSessionStatus(status); err != nil {
		return nil, err
	}
	return &sess, nil
}

// loadSessionTrees fetches the exercises and sets for a batch of sessions in
// two queries and assembles them in (position, set number) order.
func loadSessionTrees(ctx context.Context, q querier, ids []uuid.UUID) (map[uuid.UUID][]models.SessionExercise, error) {
	trees := make(map[uuid.UUID][]models.SessionExercise, len(ids))

	exRows, err := q.Query(ctx,
		`SELECT session_id, position, name, planned_rest_sec, actual_rest_sec
		 FROM session_exercises
		 WHERE session_id = ANY($1)
		 ORDER BY session_id, position ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("querying session exercises: %w", err)
	}
	defer exRows.Close()

	for exRows.Next() {
		var sessionID uuid.UUID
		var ex models.SessionExercise
		if err := exRows.Scan(&sessionID, &ex.Order, &ex.Name, &ex.PlannedRestSec, &ex.ActualRestSec); err != nil {
			return nil, fmt.Errorf("scanning session exercise: %w", err)
		}
		trees[sessionID] = append(trees[sessionID], ex)
	}
	if err := exRows.Err(); err != nil {
		return nil, err
	}

	byExercise := make(map[uuid.UUID]map[int]*models.SessionExercise)
	for sessionID := range trees {
		byExercise[sessionID] = make(map[int]*models.SessionExercise)
		for i := range trees[sessionID] {
			ex := &trees[sessionID][i]
			byExercise[sessionID][ex.Order] = ex
		}
	}

	setRows, err := q.Query(ctx,
		`SELECT session_id, exercise_position, set_number,
		        reps_planned, weight_planned, reps_done, weight_done, rpe, is_failure
		 FROM session_sets
		 WHERE session_id = ANY($1)
		 ORDER BY session_id, exercise_position ASC, set_number ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("querying session sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var sessionID uuid.UUID
		var position int
		var set models.SessionSet
		if err := setRows.Scan(&sessionID, &position, &set.SetNumber,
			&set.RepsPlanned, &set.WeightPlanned, &set.RepsDone, &set.WeightDone, &set.RPE, &set.IsFailure); err != nil {
			return nil, fmt.Errorf("scanning session set: %w", err)
		}
		if ex := byExercise[sessionID][position]; ex != nil {
			ex.Sets = append(ex.Sets, set)
		}
	}
	return trees, setRows.Err()
}

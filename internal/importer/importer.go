// Package importer loads historical training data from LiftLog CSV exports.
// Each exported session becomes a completed scheduled workout plus a completed
// session whose planned values mirror what was performed, so imported history
// participates in volume, e1RM, and adherence analytics like live data.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/models"
)

// store is the subset of storage the importer writes through.
type store interface {
	CreateScheduledWorkout(ctx context.Context, w *models.ScheduledWorkout) error
	InsertSession(ctx context.Context, sess *models.WorkoutSession) error
}

// Result summarizes one import run.
type Result struct {
	SessionsImported int `json:"sessions_imported"`
	SetsImported     int `json:"sets_imported"`
	FilesSkipped     int `json:"files_skipped,omitempty"`
}

type Importer struct {
	db  store
	log *slog.Logger
}

func New(db store, log *slog.Logger) *Importer {
	return &Importer{db: db, log: log}
}

// ImportReader parses one export stream and persists its sessions for the
// given user.
func (imp *Importer) ImportReader(ctx context.Context, userID int, r io.Reader) (*Result, error) {
	parsed, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}

	result := &Result{}
	for _, hs := range parsed {
		sets, err := imp.importSession(ctx, userID, hs)
		if err != nil {
			return nil, err
		}
		result.SessionsImported++
		result.SetsImported += sets
	}
	return result, nil
}

// ImportDir imports every .csv file under dir, using the state database in
// stateDir to skip files that were already imported with the same content.
func (imp *Importer) ImportDir(ctx context.Context, userID int, dir, stateDir string) (*Result, error) {
	state, err := OpenStateDB(stateDir)
	if err != nil {
		return nil, err
	}
	defer state.Close()

	total := &Result{}
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			relPath = path
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hash, err := HashFile(path)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", path, err)
		}

		done, err := state.IsImported(relPath, info.Size(), hash)
		if err != nil {
			return err
		}
		if done {
			imp.log.Info("skipping already-imported file", "path", relPath)
			total.FilesSkipped++
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		result, err := imp.ImportReader(ctx, userID, f)
		if err != nil {
			return fmt.Errorf("importing %s: %w", relPath, err)
		}
		imp.log.Info("imported file", "path", relPath,
			"sessions", result.SessionsImported, "sets", result.SetsImported)

		total.SessionsImported += result.SessionsImported
		total.SetsImported += result.SetsImported
		return state.MarkImported(relPath, info.Size(), hash)
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

// importSession converts one parsed session into a completed scheduled workout
// plus a completed session. Returns the number of sets written.
func (imp *Importer) importSession(ctx context.Context, userID int, hs HistorySession) (int, error) {
	plan := &models.ScheduledWorkout{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         hs.Name,
		ScheduledFor: hs.StartedAt.Truncate(24 * time.Hour),
		Status:       models.ScheduleCompleted,
	}

	startedAt := hs.StartedAt
	completedAt := startedAt.Add(time.Duration(hs.DurationMin) * time.Minute)
	durationSec := hs.DurationMin * 60

	sess := &models.WorkoutSession{
		ID:                 uuid.New(),
		UserID:             userID,
		ScheduledWorkoutID: plan.ID,
		Status:             models.SessionCompleted,
		StartedAt:          startedAt,
		CompletedAt:        &completedAt,
		DurationSec:        &durationSec,
	}

	setCount := 0
	for i, hx := range hs.Exercises {
		plannedEx := models.PlannedExercise{
			Position:    i + 1,
			Name:        hx.Name,
			RestSeconds: hx.RestSec,
		}
		sessEx := models.SessionExercise{
			Order:          i + 1,
			Name:           hx.Name,
			PlannedRestSec: hx.RestSec,
		}
		for _, set := range hx.Sets {
			// Historical exports carry no separate targets, so the performed
			// values double as the plan.
			plannedEx.Sets = append(plannedEx.Sets, models.PlannedSet{
				SetNumber: set.Number,
				Reps:      set.Reps,
				WeightKg:  set.WeightKg,
			})
			reps := set.Reps
			weight := set.WeightKg
			sessEx.Sets = append(sessEx.Sets, models.SessionSet{
				SetNumber:     set.Number,
				RepsPlanned:   set.Reps,
				WeightPlanned: set.WeightKg,
				RepsDone:      &reps,
				WeightDone:    &weight,
				RPE:           set.RPE,
			})
			setCount++
		}
		plan.Exercises = append(plan.Exercises, plannedEx)
		sess.Exercises = append(sess.Exercises, sessEx)
	}

	if err := imp.db.CreateScheduledWorkout(ctx, plan); err != nil {
		return 0, fmt.Errorf("creating scheduled workout for %q: %w", hs.Name, err)
	}
	if err := imp.db.InsertSession(ctx, sess); err != nil {
		return 0, fmt.Errorf("inserting session for %q: %w", hs.Name, err)
	}
	return setCount, nil
}

package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VolumeGrouping selects the group key for a volume series.
type VolumeGrouping string

const (
	GroupByDay      VolumeGrouping = "day"      // calendar date of the session start (UTC)
	GroupByWeek     VolumeGrouping = "week"     // ISO-8601 week of the session start
	GroupByExercise VolumeGrouping = "exercise" // exercise name, exact match
)

// ParseVolumeGrouping validates a wire-level group_by value.
func ParseVolumeGrouping(s string) (VolumeGrouping, error) {
	switch VolumeGrouping(s) {
	case GroupByDay, GroupByWeek, GroupByExercise:
		return VolumeGrouping(s), nil
	}
	return "", fmt.Errorf("unknown volume grouping %q", s)
}

// VolumePoint is one row of a volume series.
type VolumePoint struct {
	Period       string          `json:"period"`
	Value        decimal.Decimal `json:"value"`
	ExerciseName string          `json:"exercise_name,omitempty"`
}

// E1RMPoint is one day's best estimated one-rep-max for an exercise, with a
// representative session from that day.
type E1RMPoint struct {
	Day       string          `json:"day"`
	E1RM      decimal.Decimal `json:"e1rm"`
	SessionID uuid.UUID       `json:"session_id"`
}

// VolumeSeries sums per-set volume over completed sessions in [from, to),
// grouped by day, ISO week, or exercise name. An optional exercise filter
// (exact name match) restricts the set population before grouping; it has no
// effect for exercise grouping, which already yields one row per name.
// Rows are sorted ascending by group key, values rounded to 2 decimals.
func (e *Engine) VolumeSeries(ctx context.Context, userID int, from, to time.Time, groupBy VolumeGrouping, exerciseFilter string) ([]VolumePoint, error) {
	from, to = normalizeRange(from, to)

	sessions, err := e.store.CompletedSessions(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading completed sessions: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, sess := range sessions {
		for _, ex := range sess.Exercises {
			if groupBy != GroupByExercise && exerciseFilter != "" && ex.Name != exerciseFilter {
				continue
			}
			key := groupKey(groupBy, sess.StartedAt, ex.Name)
			for _, set := range ex.Sets {
				totals[key] = totals[key].Add(setVolume(set))
			}
		}
	}

	keys := make([]string, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	points := make([]VolumePoint, 0, len(keys))
	for _, key := range keys {
		p := VolumePoint{Period: key, Value: totals[key].Round(2)}
		if groupBy == GroupByExercise {
			p.ExerciseName = key
		}
		points = append(points, p)
	}
	return points, nil
}

// E1RMSeries estimates one-rep-max for a named exercise per calendar day,
// over sets that have both actual reps and actual weight recorded. Each day
// reports the maximum estimate observed that day.
func (e *Engine) E1RMSeries(ctx context.Context, userID int, exerciseName string, from, to time.Time) ([]E1RMPoint, error) {
	from, to = normalizeRange(from, to)

	sessions, err := e.store.CompletedSessions(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading completed sessions: %w", err)
	}

	best := make(map[string]E1RMPoint)
	for _, sess := range sessions {
		day := dayKey(sess.StartedAt)
		for _, ex := range sess.Exercises {
			if ex.Name != exerciseName {
				continue
			}
			for _, set := range ex.Sets {
				if set.RepsDone == nil || set.WeightDone == nil {
					continue
				}
				est := EstimateOneRM(*set.WeightDone, *set.RepsDone)
				if cur, ok := best[day]; !ok || est.GreaterThan(cur.E1RM) {
					best[day] = E1RMPoint{Day: day, E1RM: est, SessionID: sess.ID}
				}
			}
		}
	}

	days := make([]string, 0, len(best))
	for day := range best {
		days = append(days, day)
	}
	sort.Strings(days)

	points := make([]E1RMPoint, 0, len(days))
	for _, day := range days {
		p := best[day]
		p.E1RM = p.E1RM.Round(2)
		points = append(points, p)
	}
	return points, nil
}

// EstimateOneRM applies the Epley formula, weight x (1 + reps/30), computed as
// weight x (30 + reps) / 30 so the only division happens once, in decimal.
func EstimateOneRM(weight decimal.Decimal, reps int) decimal.Decimal {
	return weight.Mul(decimal.NewFromInt(int64(30 + reps))).
		Div(decimal.NewFromInt(30))
}

func groupKey(groupBy VolumeGrouping, startedAt time.Time, exerciseName string) string {
	switch groupBy {
	case GroupByWeek:
		return weekKey(startedAt)
	case GroupByExercise:
		return exerciseName
	default:
		return dayKey(startedAt)
	}
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// weekKey formats the ISO-8601 week of t, e.g. "2026-W09". The ISO year can
// differ from the calendar year near year boundaries.
func weekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

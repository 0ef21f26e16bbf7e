package importer

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HistorySession is one parsed training session from a history export.
type HistorySession struct {
	Name        string
	StartedAt   time.Time
	DurationMin int
	Exercises   []HistoryExercise
}

// HistoryExercise is one exercise block within a history session.
type HistoryExercise struct {
	Number     int
	Name       string
	TargetReps int
	RestSec    int
	Sets       []HistorySet
}

// HistorySet is one performed set. RPE is nil when the export left it blank.
type HistorySet struct {
	Number   int
	WeightKg decimal.Decimal
	Reps     int
	RPE      *decimal.Decimal
}

var (
	// sessionHeaderRe matches: "Push Day";"2026-02-19 17:10";"62 min"
	sessionHeaderRe = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d{1,2}:\d{2})";"(\d+)\s*min"$`)

	// exerciseHeaderRe matches: "1. Bench Press · 8 reps · 90 s rest"
	exerciseHeaderRe = regexp.MustCompile(`^"(\d+)\.\s+(.+?)\s+·\s+(\d+)\s+reps(?:\s+·\s+(\d+)\s*s\s+rest)?"$`)

	// setDataRe matches: 1;80;8;8 or 2;62,5;7; (RPE may be blank)
	setDataRe = regexp.MustCompile(`^(\d+);([\d.,]+);(\d+);(.*)$`)

	// columnHeaderRe matches: #;KG;REPS;RPE
	columnHeaderRe = regexp.MustCompile(`^#;KG;REPS;RPE$`)
)

// Parse reads a LiftLog history CSV export and returns the parsed sessions.
// Sessions are separated by blank lines; unknown lines are skipped.
func Parse(r io.Reader) ([]HistorySession, error) {
	scanner := bufio.NewScanner(r)
	var sessions []HistorySession
	var current *HistorySession
	var currentExercise *HistoryExercise

	flushExercise := func() {
		if current != nil && currentExercise != nil {
			current.Exercises = append(current.Exercises, *currentExercise)
			currentExercise = nil
		}
	}
	flushSession := func() {
		flushExercise()
		if current != nil {
			sessions = append(sessions, *current)
			current = nil
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Blank line = session boundary
		if line == "" {
			flushSession()
			continue
		}

		if columnHeaderRe.MatchString(line) {
			continue
		}

		if m := sessionHeaderRe.FindStringSubmatch(line); m != nil {
			flushSession()
			startedAt, err := parseSessionStart(m[2])
			if err != nil {
				return nil, fmt.Errorf("parsing session start %q: %w", m[2], err)
			}
			durationMin, _ := strconv.Atoi(m[3])
			current = &HistorySession{
				Name:        m[1],
				StartedAt:   startedAt,
				DurationMin: durationMin,
			}
			continue
		}

		if m := exerciseHeaderRe.FindStringSubmatch(line); m != nil {
			if current == nil {
				return nil, fmt.Errorf("exercise without session: %q", line)
			}
			flushExercise()
			num, _ := strconv.Atoi(m[1])
			targetReps, _ := strconv.Atoi(m[3])
			restSec := 0
			if m[4] != "" {
				restSec, _ = strconv.Atoi(m[4])
			}
			currentExercise = &HistoryExercise{
				Number:     num,
				Name:       strings.TrimSpace(m[2]),
				TargetReps: targetReps,
				RestSec:    restSec,
			}
			continue
		}

		if m := setDataRe.FindStringSubmatch(line); m != nil {
			if currentExercise == nil {
				return nil, fmt.Errorf("set data without exercise: %q", line)
			}
			setNum, _ := strconv.Atoi(m[1])
			weight, err := parseDecimal(m[2])
			if err != nil {
				return nil, fmt.Errorf("parsing weight %q: %w", m[2], err)
			}
			reps, _ := strconv.Atoi(m[3])
			set := HistorySet{
				Number:   setNum,
				WeightKg: weight,
				Reps:     reps,
			}
			if rpeStr := strings.TrimSpace(m[4]); rpeStr != "" {
				rpe, err := parseDecimal(rpeStr)
				if err != nil {
					return nil, fmt.Errorf("parsing RPE %q: %w", rpeStr, err)
				}
				set.RPE = &rpe
			}
			currentExercise.Sets = append(currentExercise.Sets, set)
			continue
		}

		// Unknown line, skip silently (could be notes or other metadata)
	}

	flushSession()
	return sessions, scanner.Err()
}

// parseSessionStart parses "2026-02-19 17:10" (or single-digit hours) as UTC.
func parseSessionStart(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", s)
}

// parseDecimal accepts both "102.5" and the European "102,5".
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return decimal.NewFromString(s)
}

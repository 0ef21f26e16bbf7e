package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meltforce/liftlog/internal/analytics"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/session"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

// --- Scheduled workout data entry ---

type createWorkoutExercise struct {
	Name        string `json:"name"`
	RestSeconds int    `json:"rest_seconds"`
	Sets        []struct {
		Reps     int             `json:"reps"`
		WeightKg decimal.Decimal `json:"weight_kg"`
	} `json:"sets"`
}

type createWorkoutRequest struct {
	Name         string                  `json:"name"`
	ScheduledFor string                  `json:"scheduled_for"`
	Exercises    []createWorkoutExercise `json:"exercises"`
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}

	var req createWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	scheduledFor, err := time.Parse("2006-01-02", req.ScheduledFor)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scheduled_for must be YYYY-MM-DD"})
		return
	}

	workout := &models.ScheduledWorkout{
		ID:           uuid.New(),
		UserID:       uid,
		Name:         req.Name,
		ScheduledFor: scheduledFor,
		Status:       models.SchedulePlanned,
	}
	for i, ex := range req.Exercises {
		planned := models.PlannedExercise{
			Position:    i + 1,
			Name:        ex.Name,
			RestSeconds: ex.RestSeconds,
		}
		for j, set := range ex.Sets {
			planned.Sets = append(planned.Sets, models.PlannedSet{
				SetNumber: j + 1,
				Reps:      set.Reps,
				WeightKg:  set.WeightKg,
			})
		}
		workout.Exercises = append(workout.Exercises, planned)
	}

	if err := s.db.CreateScheduledWorkout(r.Context(), workout); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, workout)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	workouts, err := s.db.ScheduledWorkoutsInRange(r.Context(), uid, start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}

	workout, err := s.db.ScheduledWorkout(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

// --- Session lifecycle ---

type startSessionRequest struct {
	ScheduledWorkoutID uuid.UUID `json:"scheduled_workout_id"`
	// QuickComplete logs the workout as done-as-planned in one step.
	QuickComplete bool `json:"quick_complete"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.ScheduledWorkoutID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scheduled_workout_id is required"})
		return
	}

	var (
		sess *models.WorkoutSession
		err  error
	)
	if req.QuickComplete {
		sess, err = s.sessions.QuickComplete(r.Context(), uid, req.ScheduledWorkoutID)
	} else {
		sess, err = s.sessions.Start(r.Context(), uid, req.ScheduledWorkoutID)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sessions, err := s.sessions.ListRange(r.Context(), uid, start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	sess, err := s.sessions.Get(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type patchSetRequest struct {
	RepsDone   *int             `json:"reps_done"`
	WeightDone *decimal.Decimal `json:"weight_done"`
	RPE        *decimal.Decimal `json:"rpe"`
	IsFailure  *bool            `json:"is_failure"`
}

func (s *Server) handlePatchSet(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}
	order, err := strconv.Atoi(chi.URLParam(r, "order"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise order"})
		return
	}
	setNumber, err := strconv.Atoi(chi.URLParam(r, "set"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid set number"})
		return
	}

	var req patchSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess, err := s.sessions.PatchSet(r.Context(), uid, id, order, setNumber, session.SetPatch{
		RepsDone:   req.RepsDone,
		WeightDone: req.WeightDone,
		RPE:        req.RPE,
		IsFailure:  req.IsFailure,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type completeSessionRequest struct {
	CompletedAt *time.Time `json:"completed_at"`
	Notes       string     `json:"notes"`
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var req completeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess, err := s.sessions.Complete(r.Context(), uid, id, req.CompletedAt, req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type abortSessionRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleAbortSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var req abortSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess, err := s.sessions.Abort(r.Context(), uid, id, req.Reason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// --- Analytics ---

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	overview, err := s.analytics.Overview(r.Context(), uid, start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleVolumeSeries(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	groupByParam := r.URL.Query().Get("group_by")
	if groupByParam == "" {
		groupByParam = "day"
	}
	groupBy, err := analytics.ParseVolumeGrouping(groupByParam)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	points, err := s.analytics.VolumeSeries(r.Context(), uid, start, end, groupBy, r.URL.Query().Get("exercise"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleE1RMSeries(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	exercise := r.URL.Query().Get("exercise")
	if exercise == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise parameter required"})
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	points, err := s.analytics.E1RMSeries(r.Context(), uid, exercise, start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleAdherence(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	adherence, err := s.analytics.Adherence(r.Context(), uid, start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adherence)
}

func (s *Server) handlePlanVsActual(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	rows, err := s.analytics.PlanVsActual(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// --- Bulk import ---

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}

	result, err := s.importer.ImportReader(r.Context(), uid, r.Body)
	if err != nil {
		s.log.Error("import error", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- Helpers ---

func (s *Server) mustUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	uid := userIDFromContext(r)
	if uid == 0 {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return 0, false
	}
	return uid, true
}

// writeError maps domain sentinel errors to status codes. Unexpected errors
// are logged with detail and surfaced as a generic failure.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, models.ErrInvalidState):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "invalid session state"})
	case errors.Is(err, models.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	default:
		s.log.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 7 days
		end = time.Now().UTC()
		start = end.AddDate(0, 0, -7)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now().UTC()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}

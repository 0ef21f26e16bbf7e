package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/liftlog/internal/analytics"
)

// defaultTimeRange returns start/end defaulting to the last `days` days.
func defaultTimeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now().UTC()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// requireUserID resolves the caller's user ID from the context. The transport
// injects it via WithUserID; a context without one yields a tool error instead
// of data from a default user.
func requireUserID(ctx context.Context) (int, *mcp.CallToolResult) {
	uid := UserIDFromContext(ctx)
	if uid == 0 {
		return 0, mcp.NewToolResultError("no user identity on this connection")
	}
	return uid, nil
}

// --- Tool handlers ---

func (h *handlers) getOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, errResult := requireUserID(ctx)
	if errResult != nil {
		return errResult, nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 7)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	overview, err := h.engine.Overview(ctx, uid, start, end)
	if err != nil {
		h.log.Error("mcp get_overview", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolResultJSON(overview)
}

func (h *handlers) getVolumeSeries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, errResult := requireUserID(ctx)
	if errResult != nil {
		return errResult, nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 7)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	groupBy, err := analytics.ParseVolumeGrouping(req.GetString("group_by", "day"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	points, err := h.engine.VolumeSeries(ctx, uid, start, end, groupBy, req.GetString("exercise", ""))
	if err != nil {
		h.log.Error("mcp get_volume_series", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolResultJSON(points)
}

func (h *handlers) getE1RMSeries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, errResult := requireUserID(ctx)
	if errResult != nil {
		return errResult, nil
	}

	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 90)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	points, err := h.engine.E1RMSeries(ctx, uid, exercise, start, end)
	if err != nil {
		h.log.Error("mcp get_e1rm_series", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolResultJSON(points)
}

func (h *handlers) getAdherence(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, errResult := requireUserID(ctx)
	if errResult != nil {
		return errResult, nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 7)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	adherence, err := h.engine.Adherence(ctx, uid, start, end)
	if err != nil {
		h.log.Error("mcp get_adherence", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolResultJSON(adherence)
}

func (h *handlers) getPlanVsActual(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, errResult := requireUserID(ctx)
	if errResult != nil {
		return errResult, nil
	}

	idStr, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("session_id must be a UUID"), nil
	}

	rows, err := h.engine.PlanVsActual(ctx, uid, id)
	if err != nil {
		h.log.Error("mcp get_plan_vs_actual", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolResultJSON(rows)
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, errResult := requireUserID(ctx)
	if errResult != nil {
		return errResult, nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 7)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sessions, err := h.sessions.ListRange(ctx, uid, start, end)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolResultJSON(sessions)
}

func toolResultJSON(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// Package mcp exposes LiftLog analytics to LLM clients over the Model Context
// Protocol. All tools are read-only; writes stay behind the HTTP API.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/liftlog/internal/analytics"
	"github.com/meltforce/liftlog/internal/session"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
// Returns 0 when no identity was injected; handlers reject that rather than
// falling back to any default user.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 0
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools registered.
func New(engine *analytics.Engine, sessions *session.Service, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithInstructions("LiftLog workout tracking server. Query training volume, estimated one-rep-max trends, plan adherence, and per-session plan-vs-actual breakdowns. All data is scoped to the authenticated user."),
	)

	h := &handlers{engine: engine, sessions: sessions, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetOverview, Handler: h.getOverview},
		server.ServerTool{Tool: toolGetVolumeSeries, Handler: h.getVolumeSeries},
		server.ServerTool{Tool: toolGetE1RMSeries, Handler: h.getE1RMSeries},
		server.ServerTool{Tool: toolGetAdherence, Handler: h.getAdherence},
		server.ServerTool{Tool: toolGetPlanVsActual, Handler: h.getPlanVsActual},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool handlers.
type handlers struct {
	engine   *analytics.Engine
	sessions *session.Service
	log      *slog.Logger
}

// --- Tool definitions ---

var toolGetOverview = mcp.NewTool("get_overview",
	mcp.WithDescription("Training summary for a time range: total volume (kg), average set intensity, completed session count, and plan adherence percentage."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetVolumeSeries = mcp.NewTool("get_volume_series",
	mcp.WithDescription("Training volume over time. Volume per set is reps x weight, falling back to planned values for sets without recorded actuals."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("group_by", mcp.Description("Grouping key. Defaults to 'day'."), mcp.Enum("day", "week", "exercise")),
	mcp.WithString("exercise", mcp.Description("Filter to one exercise name (exact match).")),
)

var toolGetE1RMSeries = mcp.NewTool("get_e1rm_series",
	mcp.WithDescription("Estimated one-rep-max trend for an exercise, using the Epley formula over sets with recorded reps and weight. One point per day: the best estimate of that day."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name (exact match, e.g. 'Bench Press')")),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetAdherence = mcp.NewTool("get_adherence",
	mcp.WithDescription("How many workouts were scheduled in a date range and how many of those were completed."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetPlanVsActual = mcp.NewTool("get_plan_vs_actual",
	mcp.WithDescription("Per-set comparison of planned vs performed reps, weight, RPE, and failure for one session."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("List workout sessions started in a time range, newest first, with their full exercise and set trees."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

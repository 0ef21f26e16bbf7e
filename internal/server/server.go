package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/liftlog/internal/analytics"
	"github.com/meltforce/liftlog/internal/importer"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db        *storage.DB
	sessions  *session.Service
	analytics *analytics.Engine
	importer  *importer.Importer
	log       *slog.Logger
	apiKey    string
	identity  func(http.Handler) http.Handler
	router    chi.Router
}

// New creates a new Server with all routes configured. The identity middleware
// defaults to DevIdentity; call SetTailscale to switch to WhoIs resolution.
func New(db *storage.DB, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:        db,
		sessions:  session.NewService(db),
		analytics: analytics.NewEngine(db),
		importer:  importer.New(db, log),
		log:       log,
		apiKey:    apiKey,
		identity:  DevIdentity,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale switches identity resolution to Tailscale WhoIs. Must be called
// before the server starts handling requests.
func (s *Server) SetTailscale(lc WhoIsClient) {
	s.identity = TailscaleIdentity(lc, s.db, s.log)
	s.router = chi.NewRouter()
	s.routes()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		r.Get("/me", s.handleMe)

		// Scheduled workout data entry
		r.Post("/workouts", s.handleCreateWorkout)
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)

		// Session lifecycle
		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Patch("/sessions/{id}/exercises/{order}/sets/{set}", s.handlePatchSet)
		r.Post("/sessions/{id}/complete", s.handleCompleteSession)
		r.Post("/sessions/{id}/abort", s.handleAbortSession)

		// Analytics
		r.Get("/analytics/overview", s.handleOverview)
		r.Get("/analytics/volume", s.handleVolumeSeries)
		r.Get("/analytics/e1rm", s.handleE1RMSeries)
		r.Get("/analytics/adherence", s.handleAdherence)
		r.Get("/analytics/plan-vs-actual/{id}", s.handlePlanVsActual)

		// Bulk history import (API key required on top of identity)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/import", s.handleImport)
		})
	})
}

package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/storage"
	"tailscale.com/client/tailscale"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	sessions *session.Manager
	log      *slog.Logger
	apiKey   string
	ts       *tailscale.LocalClient // nil in dev mode
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, sessions *session.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		sessions: sessions,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale installs the tsnet local client used to resolve identities.
// Without it, DevIdentity maps every request to user 1.
func (s *Server) SetTailscale(lc *tailscale.LocalClient) {
	s.ts = lc
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Recording session (in-memory state machine).
		r.Route("/session", func(r chi.Router) {
			r.Post("/", s.handleStartSession)
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCancelSession)
			r.Post("/complete", s.handleCompleteSession)
			r.Post("/resume", s.handleResumeSession)
			r.Post("/save", s.handleSaveSession)
			r.Post("/exercises", s.handleAddExercise)
			r.Post("/exercises/move", s.handleMoveExercise)
			r.Delete("/exercises/{exerciseID}", s.handleRemoveExercise)
			r.Patch("/exercises/{exerciseID}", s.handleUpdateExercise)
			r.Post("/exercises/{exerciseID}/sets", s.handleAddSet)
			r.Patch("/exercises/{exerciseID}/sets/{index}", s.handleUpdateSet)
			r.Delete("/exercises/{exerciseID}/sets/{index}", s.handleRemoveSet)
		})

		// Exercise catalog.
		r.Get("/exercises", s.handleListExercises)
		r.Post("/exercises", s.handleCreateExercise)
		r.Get("/exercises/{id}/pb", s.handlePersonalBest)
		r.Get("/exercises/{id}/last-sets", s.handleLastSets)

		// Settings.
		r.Get("/settings", s.handleGetSettings)
		r.Patch("/settings", s.handleUpdateSettings)

		// History import (API key required; used by scripted bulk uploads).
		r.Route("/import", func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/", s.handleImportHistory)
		})

		// Workout history and timeline.
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Delete("/workouts/{id}", s.handleDeleteWorkout)
		r.Get("/timeline", s.handleTimeline)
		r.Get("/volume", s.handleTrainingVolume)
	})
}

// identity picks the identity middleware based on serving mode. The check
// runs per request because SetTailscale is called after routes are built.
func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.ts != nil {
			TailscaleIdentity(s.ts, s.db, s.log)(next).ServeHTTP(w, r)
			return
		}
		dev.ServeHTTP(w, r)
	})
}

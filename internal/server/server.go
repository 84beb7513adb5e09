// Package server exposes the planner over a JSON REST API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/fitharmony/internal/models"
	"github.com/claude/fitharmony/internal/planner"
	"github.com/claude/fitharmony/internal/storage"
)

// Planner runs schedule optimizations. *planner.Planner satisfies it.
type Planner interface {
	Plan(ctx context.Context, req planner.Request) (*models.PlanResult, error)
	PlanForUser(ctx context.Context, src storage.Source, userID int, req planner.Request) (*models.PlanResult, time.Time, error)
}

var _ Planner = (*planner.Planner)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	planner Planner
	source  storage.Source // nil when no health store is configured
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// New creates a new Server with all routes configured. source may be nil.
func New(p Planner, source storage.Source, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		planner: p,
		source:  source,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestID)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/api/v1/health", s.handleHealth)
	s.router.Get("/api/v1/biomarkers", s.handleBiomarkers)

	// Planning endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/plans", s.handleCreatePlan)
		r.Post("/api/v1/users/{id}/plans", s.handleCreateUserPlan)
	})
}

// MountMCP serves an MCP transport at /mcp behind the API key.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(APIKeyAuth(s.apiKey)).Handle("/mcp", h)
}

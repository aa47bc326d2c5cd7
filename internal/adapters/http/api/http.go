// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/bracketpool/internal/adapters/http/swagger"
	"github.com/okian/bracketpool/internal/adapters/repository"
	"github.com/okian/bracketpool/internal/domain/aggregate"
	"github.com/okian/bracketpool/internal/domain/dedupe"
	"github.com/okian/bracketpool/internal/domain/model"
	"github.com/okian/bracketpool/internal/domain/standings"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SimulateOnce runs and stores a batch of trials. A repeated non-empty
	// key returns the earlier run with replayed set.
	SimulateOnce(ctx context.Context, key string, req aggregate.Request) (run repository.Run, replayed bool, err error)

	// Read operations expose stored runs.
	GetRun(ctx context.Context, id string) (repository.Run, error)
	ListRuns(ctx context.Context, limit int) ([]repository.Summary, error)
	Standings(ctx context.Context, id string, limit int) ([]standings.Entry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	simulationsHandler *SimulationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		simulationsHandler: NewSimulationsHandler(deps),
	}
}

// Router returns the chi router with every route attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Handle("/metrics", s.healthHandler.MetricsHandler())
	r.Get("/stats", s.statsHandler.HandleStats)
	swagger.Register(r)

	r.Route("/simulations", func(r chi.Router) {
		r.Post("/", s.simulationsHandler.HandleCreate)
		r.Get("/", s.simulationsHandler.HandleList)
		r.Get("/{id}", s.simulationsHandler.HandleGet)
		r.Get("/{id}/standings", s.simulationsHandler.HandleStandings)
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps upstream error kinds to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, model.ErrConfiguration), errors.Is(err, repository.ErrInvalidLimit), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, dedupe.ErrInProgress):
		writeError(w, http.StatusConflict, "in_progress", err)
	case errors.Is(err, dedupe.ErrKeyReused):
		writeError(w, http.StatusUnprocessableEntity, "key_reused", err)
	case errors.Is(err, model.ErrDataIntegrity):
		writeError(w, http.StatusUnprocessableEntity, "data_integrity", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

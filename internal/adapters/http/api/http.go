// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/teammatch/internal/adapters/repository"
	service "github.com/okian/teammatch/internal/app"
	"github.com/okian/teammatch/internal/domain/matching"
	"github.com/okian/teammatch/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ShortlistDependencies
	MatchDependencies
	RosterDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	shortlistHandler *ShortlistHandler
	matchHandler     *MatchHandler
	rosterHandler    *RosterHandler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithRoleSeparator sets the delimiter used for user role ids in roster
// documents.
func WithRoleSeparator(sep string) Option {
	return func(s *Server) {
		if sep != "" {
			s.rosterHandler.sep = sep
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		shortlistHandler: NewShortlistHandler(deps),
		matchHandler:     NewMatchHandler(deps),
		rosterHandler:    NewRosterHandler(deps, model.DefaultRoleSeparator),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/teams/", MetricsMiddleware(s.shortlistHandler.HandleShortlist, "shortlist"))
	mux.HandleFunc("/match-requests", MetricsMiddleware(s.matchHandler.HandlePostMatchRequest, "match_requests"))
	mux.HandleFunc("/roster", MetricsMiddleware(s.rosterHandler.HandleRoster, "roster"))
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

// writeFailure maps err to a status code and error code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, matching.ErrTeamNotFound):
		return http.StatusNotFound, "team_not_found"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidLimit),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, repository.ErrInvalidRoster):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/teammatch/internal/adapters/mq/queue"
	service "github.com/okian/teammatch/internal/app"
	"github.com/okian/teammatch/internal/domain/model"
)

// MatchDependencies defines the interface for queued match requests.
type MatchDependencies interface {
	// Submit queues req and reports its id and whether it was a duplicate.
	Submit(ctx context.Context, req model.MatchRequest) (string, bool, error)
}

// MatchHandler handles match requests.
type MatchHandler struct {
	deps MatchDependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps MatchDependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// matchRequest mirrors the OpenAPI schema for POST /match-requests.
type matchRequest struct {
	RequestID string `json:"request_id"`
	TeamID    string `json:"team_id"`
	Limit     int    `json:"limit"`
}

func (m matchRequest) validate() error {
	switch {
	case strings.TrimSpace(m.TeamID) == "":
		return errors.New("missing team_id")
	case m.Limit < 0:
		return errors.New("limit must not be negative")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostMatchRequest handles POST /match-requests requests.
func (h *MatchHandler) HandlePostMatchRequest(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_match_request"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	id, dup, err := h.deps.Submit(r.Context(), model.MatchRequest{
		RequestID: req.RequestID,
		TeamID:    req.TeamID,
		Limit:     req.Limit,
	})
	if err != nil {
		writeFailure(w, submitError(op, err))
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", RequestID: id, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", RequestID: id})
}

// submitError classifies queue and lifecycle failures so clients can tell a
// retryable backpressure from an unavailable service.
func submitError(op string, err error) error {
	switch {
	case errors.Is(err, queue.ErrFull):
		return WrapKind(op, ErrBackpressure, err)
	case errors.Is(err, queue.ErrClosed), errors.Is(err, service.ErrNotStarted):
		return WrapKind(op, ErrUnavailable, err)
	default:
		return Wrap(op, err)
	}
}

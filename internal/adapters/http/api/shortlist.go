package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/teammatch/internal/adapters/repository"
)

// ShortlistDependencies defines the interface for shortlist operations.
type ShortlistDependencies interface {
	// Shortlist ranks candidates for teamID now. A limit of 0 means the default.
	Shortlist(ctx context.Context, teamID string, limit int) (repository.Shortlist, error)
	// Latest returns the last shortlist computed for a queued request.
	Latest(ctx context.Context, teamID string) (repository.Shortlist, error)
}

// ShortlistHandler handles /teams/{team_id}/shortlist requests.
type ShortlistHandler struct {
	deps ShortlistDependencies
}

// NewShortlistHandler creates a new shortlist handler.
func NewShortlistHandler(deps ShortlistDependencies) *ShortlistHandler {
	return &ShortlistHandler{deps: deps}
}

type shortlistResponse struct {
	RequestID    string   `json:"request_id,omitempty"`
	TeamID       string   `json:"team_id"`
	UserIDs      []string `json:"user_ids"`
	Skipped      []string `json:"skipped"`
	SkippedCount int      `json:"skipped_count"`
	Limit        int      `json:"limit"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

func newShortlistResponse(sl repository.Shortlist, withMeta bool) shortlistResponse {
	resp := shortlistResponse{
		TeamID:       sl.TeamID,
		UserIDs:      sl.UserIDs,
		Skipped:      sl.Skipped,
		SkippedCount: len(sl.Skipped),
		Limit:        sl.Limit,
	}
	if resp.UserIDs == nil {
		resp.UserIDs = []string{}
	}
	if resp.Skipped == nil {
		resp.Skipped = []string{}
	}
	if withMeta {
		resp.RequestID = sl.RequestID
		resp.CreatedAt = sl.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return resp
}

// HandleShortlist handles POST and GET /teams/{team_id}/shortlist requests.
func (h *ShortlistHandler) HandleShortlist(w http.ResponseWriter, r *http.Request) {
	teamID, ok := parseShortlistPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPost:
		h.rank(w, r, teamID)
	case http.MethodGet:
		h.latest(w, r, teamID)
	default:
		http.NotFound(w, r)
	}
}

func (h *ShortlistHandler) rank(w http.ResponseWriter, r *http.Request, teamID string) {
	const op = "api.rank_shortlist"
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	sl, err := h.deps.Shortlist(r.Context(), teamID, limit)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newShortlistResponse(sl, false))
}

func (h *ShortlistHandler) latest(w http.ResponseWriter, r *http.Request, teamID string) {
	const op = "api.latest_shortlist"
	sl, err := h.deps.Latest(r.Context(), teamID)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newShortlistResponse(sl, true))
}

// parseShortlistPath extracts team_id from /teams/{team_id}/shortlist.
func parseShortlistPath(path string) (string, bool) {
	rest := strings.TrimPrefix(path, "/teams/")
	teamID, tail, found := strings.Cut(rest, "/")
	if !found || tail != "shortlist" || strings.TrimSpace(teamID) == "" {
		return "", false
	}
	return teamID, true
}

// parseLimit reads an optional positive limit; empty means the default.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	if n < 1 {
		return 0, errors.New("limit must be positive")
	}
	return n, nil
}

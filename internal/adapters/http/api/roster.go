package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/teammatch/internal/adapters/repository"
)

const maxRosterBytes = 32 << 20

// RosterDependencies defines the interface for roster reads and writes.
type RosterDependencies interface {
	Roster(ctx context.Context) (repository.Snapshot, error)
	ReplaceRoster(ctx context.Context, snap repository.Snapshot)
}

// RosterHandler handles /roster requests.
type RosterHandler struct {
	deps RosterDependencies
	sep  string
}

// NewRosterHandler creates a new roster handler. sep delimits user role ids.
func NewRosterHandler(deps RosterDependencies, sep string) *RosterHandler {
	return &RosterHandler{deps: deps, sep: sep}
}

type replaceResponse struct {
	Status  string         `json:"status"`
	Records map[string]int `json:"records"`
}

// HandleRoster handles GET and PUT /roster requests.
func (h *RosterHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.put(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *RosterHandler) get(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_roster"
	snap, err := h.deps.Roster(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, repository.NewDocument(snap, h.sep))
}

func (h *RosterHandler) put(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_roster"
	var doc repository.Document
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRosterBytes)).Decode(&doc); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	snap, err := doc.Snapshot(h.sep)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	h.deps.ReplaceRoster(r.Context(), snap)
	writeJSON(w, http.StatusOK, replaceResponse{Status: "replaced", Records: snap.Counts()})
}

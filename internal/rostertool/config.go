// Package rostertool implements the shortlist command line tool: local
// ranking of a roster file, calls against a running service and synthetic
// roster generation.
package rostertool

import (
	"errors"
	"time"
)

// Default flag values.
const (
	defaultBaseURL = "http://localhost:9080"
	defaultTimeout = 10 * time.Second
	defaultWait    = 30 * time.Second
	pollInterval   = 200 * time.Millisecond
	rosterFileMode = 0o600
)

// Sentinel kinds for tool errors.
var (
	ErrMissingFlag = errors.New("missing required flag")
	ErrRemote      = errors.New("remote call failed")
	ErrTimeout     = errors.New("timed out waiting for shortlist")
)

// ShortlistResponse mirrors the service's shortlist payload.
type ShortlistResponse struct {
	RequestID    string   `json:"request_id,omitempty"`
	TeamID       string   `json:"team_id"`
	UserIDs      []string `json:"user_ids"`
	Skipped      []string `json:"skipped"`
	SkippedCount int      `json:"skipped_count"`
	Limit        int      `json:"limit"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

// AckResponse mirrors the response to POST /match-requests.
type AckResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

package model

import "time"

// MatchRequest asks for a shortlist to be computed asynchronously.
type MatchRequest struct {
	RequestID string
	TeamID    string
	Limit     int
	TS        time.Time
}

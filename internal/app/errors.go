package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrInvalidLimit   = errors.New("invalid limit")
	ErrInvalidRequest = errors.New("invalid match request")
	ErrRosterLoad     = errors.New("roster load failed")
)

package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("shortlist not found")
	ErrInvalidRoster = errors.New("invalid roster")
	ErrLoadRoster    = errors.New("load roster failed")
)

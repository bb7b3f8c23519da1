package metrics

import "errors"

// Sentinel kinds for metrics errors.
var (
	ErrUnknownOutcome = errors.New("unknown match outcome")
)

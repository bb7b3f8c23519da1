package matching

import "errors"

// Sentinel kinds for matching errors.
var (
	ErrTeamNotFound    = errors.New("team not found")
	ErrUserNotResolved = errors.New("member user not resolved")
)

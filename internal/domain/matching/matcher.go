// Package matching ranks unassigned members against a team's posted role needs.
//
// Rank is a pure function over caller-owned snapshots: it performs no I/O,
// keeps no state and never mutates its inputs, so it is safe to call
// concurrently.
package matching

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/okian/teammatch/internal/domain/model"
)

// Result is the outcome of one ranking run.
type Result struct {
	// UserIDs holds the shortlist, best candidate first.
	UserIDs []string
	// Skipped lists eligible members whose user record could not be resolved.
	Skipped []string
}

// Fault reports the skipped members as an error wrapping ErrUserNotResolved,
// or nil when every eligible member was scored.
func (r Result) Fault() error {
	if len(r.Skipped) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d skipped (%s)", ErrUserNotResolved, len(r.Skipped), strings.Join(r.Skipped, ", "))
}

type candidate struct {
	userID string
	score  int
}

// Rank scores every eligible member against the beacons of teamID and returns
// the top candidates by descending score. Among equal scores the member listed
// later in members ranks first, so a limit that cuts through a tie keeps the
// last listed members. A user record repeated in users resolves to its last
// occurrence.
//
// ErrTeamNotFound is returned when teamID is not present in teams. Members whose
// user record is missing are left out and reported in Result.Skipped.
func Rank(teamID string, members []model.Member, teams []model.Team, users []model.User, beacons []model.Beacon, opts ...Option) (Result, error) {
	o := options{limit: DefaultLimit}
	for _, opt := range opts {
		opt(&o)
	}

	if !hasTeam(teams, teamID) {
		return Result{}, fmt.Errorf("%w: %q", ErrTeamNotFound, teamID)
	}

	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	needs := teamBeacons(teamID, beacons)

	var (
		scored  []candidate
		skipped []string
		seen    = make(map[string]struct{})
	)
	for _, m := range members {
		if !m.Eligible() {
			continue
		}
		if _, dup := seen[m.UserID]; dup {
			continue
		}
		seen[m.UserID] = struct{}{}

		u, ok := byID[m.UserID]
		if !ok {
			skipped = append(skipped, m.UserID)
			continue
		}
		scored = append(scored, candidate{userID: m.UserID, score: score(u, needs)})
	}

	slices.Reverse(scored)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > o.limit {
		scored = scored[:o.limit]
	}

	ids := make([]string, len(scored))
	for i, c := range scored {
		ids[i] = c.userID
	}
	return Result{UserIDs: ids, Skipped: skipped}, nil
}

// Score returns the compatibility score of user for teamID: one point for every
// role of every beacon posted by the team that the user holds. A role demanded by
// several beacons counts once per beacon.
func Score(teamID string, user model.User, beacons []model.Beacon) int {
	return score(user, teamBeacons(teamID, beacons))
}

func score(user model.User, needs []model.Beacon) int {
	total := 0
	for _, b := range needs {
		for _, role := range b.RoleIDs {
			if user.Roles.Has(role) {
				total++
			}
		}
	}
	return total
}

func hasTeam(teams []model.Team, teamID string) bool {
	for _, t := range teams {
		if t.ID == teamID {
			return true
		}
	}
	return false
}

func teamBeacons(teamID string, beacons []model.Beacon) []model.Beacon {
	var out []model.Beacon
	for _, b := range beacons {
		if b.TeamID == teamID {
			out = append(out, b)
		}
	}
	return out
}

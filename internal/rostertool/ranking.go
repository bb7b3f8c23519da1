package rostertool

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/teammatch/internal/adapters/repository"
	"github.com/okian/teammatch/internal/domain/matching"
	"github.com/okian/teammatch/internal/domain/model"
)

// Candidate is one shortlisted user with the score that placed it.
type Candidate struct {
	Rank   int
	UserID string
	Score  int
}

// RankFile loads the roster at path and ranks candidates for teamID.
func RankFile(ctx context.Context, path, sep, teamID string, limit int) ([]Candidate, matching.Result, error) {
	snap, err := repository.LoadFile(ctx, path, sep)
	if err != nil {
		return nil, matching.Result{}, err
	}
	return RankSnapshot(snap, teamID, limit)
}

// RankSnapshot ranks candidates for teamID and attaches each one's score.
func RankSnapshot(snap repository.Snapshot, teamID string, limit int) ([]Candidate, matching.Result, error) {
	res, err := matching.Rank(teamID, snap.Members, snap.Teams, snap.Users, snap.Beacons, matching.WithLimit(limit))
	if err != nil {
		return nil, matching.Result{}, err
	}

	users := make(map[string]model.User, len(snap.Users))
	for _, u := range snap.Users {
		users[u.ID] = u
	}
	out := make([]Candidate, len(res.UserIDs))
	for i, id := range res.UserIDs {
		out[i] = Candidate{
			Rank:   i + 1,
			UserID: id,
			Score:  matching.Score(teamID, users[id], snap.Beacons),
		}
	}
	return out, res, nil
}

func printCandidates(w io.Writer, teamID string, cands []Candidate, skipped []string) {
	fmt.Fprintf(w, "shortlist for team %s\n", teamID)
	if len(cands) == 0 {
		fmt.Fprintln(w, "  no eligible candidates")
	}
	for _, c := range cands {
		fmt.Fprintf(w, "  %d. %s (score %d)\n", c.Rank, c.UserID, c.Score)
	}
	printSkipped(w, skipped)
}

func printRemote(w io.Writer, sl ShortlistResponse) {
	fmt.Fprintf(w, "shortlist for team %s (limit %d)\n", sl.TeamID, sl.Limit)
	if len(sl.UserIDs) == 0 {
		fmt.Fprintln(w, "  no eligible candidates")
	}
	for i, id := range sl.UserIDs {
		fmt.Fprintf(w, "  %d. %s\n", i+1, id)
	}
	printSkipped(w, sl.Skipped)
}

func printSkipped(w io.Writer, skipped []string) {
	if len(skipped) > 0 {
		fmt.Fprintf(w, "skipped %d member(s) without a user record: %v\n", len(skipped), skipped)
	}
}

package repository

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Shortlist is a computed ranking kept for later reads.
type Shortlist struct {
	RequestID string    `json:"request_id"`
	TeamID    string    `json:"team_id"`
	UserIDs   []string  `json:"user_ids"`
	Skipped   []string  `json:"skipped"`
	Limit     int       `json:"limit"`
	CreatedAt time.Time `json:"created_at"`
}

// ShortlistStore keeps the latest shortlist per team.
type ShortlistStore struct {
	mu     sync.RWMutex
	byTeam map[string]Shortlist
}

// NewShortlistStore creates an empty store.
func NewShortlistStore() *ShortlistStore {
	return &ShortlistStore{byTeam: make(map[string]Shortlist)}
}

// Put stores sl as the latest shortlist of its team. Older results never
// replace newer ones.
func (s *ShortlistStore) Put(_ context.Context, sl Shortlist) bool {
	sl.UserIDs = slices.Clone(sl.UserIDs)
	sl.Skipped = slices.Clone(sl.Skipped)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.byTeam[sl.TeamID]; ok && cur.CreatedAt.After(sl.CreatedAt) {
		return false
	}
	s.byTeam[sl.TeamID] = sl
	return true
}

// Get returns the latest shortlist for teamID or ErrNotFound.
func (s *ShortlistStore) Get(_ context.Context, teamID string) (Shortlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.byTeam[teamID]
	if !ok {
		return Shortlist{}, ErrNotFound
	}
	sl.UserIDs = slices.Clone(sl.UserIDs)
	sl.Skipped = slices.Clone(sl.Skipped)
	return sl, nil
}

// Count returns the number of teams with a stored shortlist.
func (s *ShortlistStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byTeam)
}

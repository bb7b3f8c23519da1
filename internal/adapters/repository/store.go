// Package repository holds roster snapshots and computed shortlists.
package repository

import (
	"context"
	"slices"

	"github.com/okian/teammatch/internal/domain/model"
)

// Snapshot is one consistent view of the four roster collections.
type Snapshot struct {
	Teams   []model.Team
	Members []model.Member
	Users   []model.User
	Beacons []model.Beacon
}

// Source provides roster snapshots.
type Source interface {
	// Snapshot returns a copy the caller may read without further locking.
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Teams:   slices.Clone(s.Teams),
		Members: slices.Clone(s.Members),
		Users:   make([]model.User, len(s.Users)),
		Beacons: make([]model.Beacon, len(s.Beacons)),
	}
	for i, u := range s.Users {
		roles := make(model.RoleSet, len(u.Roles))
		for r := range u.Roles {
			roles[r] = struct{}{}
		}
		out.Users[i] = model.User{ID: u.ID, Roles: roles}
	}
	for i, b := range s.Beacons {
		out.Beacons[i] = model.Beacon{TeamID: b.TeamID, RoleIDs: slices.Clone(b.RoleIDs)}
	}
	return out
}

// Counts reports the number of records per kind.
func (s Snapshot) Counts() map[string]int {
	return map[string]int{
		"teams":   len(s.Teams),
		"members": len(s.Members),
		"users":   len(s.Users),
		"beacons": len(s.Beacons),
	}
}

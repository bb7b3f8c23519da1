package repository

import (
	"fmt"
	"strings"

	"github.com/okian/teammatch/internal/domain/model"
)

// Document is the serialised roster shared by the YAML file, the HTTP API and
// the CLI. User roles travel as a delimited string, as upstream stores keep them.
type Document struct {
	Teams   []model.Team   `json:"teams" koanf:"teams" yaml:"teams"`
	Members []model.Member `json:"members" koanf:"members" yaml:"members"`
	Users   []UserRecord   `json:"users" koanf:"users" yaml:"users"`
	Beacons []model.Beacon `json:"beacons" koanf:"beacons" yaml:"beacons"`
}

// UserRecord is a user as stored upstream.
type UserRecord struct {
	UserID  string `json:"user_id" koanf:"user_id" yaml:"user_id"`
	RoleIDs string `json:"role_ids" koanf:"role_ids" yaml:"role_ids"`
}

// Snapshot converts the document, parsing role strings with sep.
func (d Document) Snapshot(sep string) (Snapshot, error) {
	if err := d.validate(); err != nil {
		return Snapshot{}, err
	}
	users := make([]model.User, len(d.Users))
	for i, u := range d.Users {
		users[i] = model.User{ID: u.UserID, Roles: model.ParseRoles(u.RoleIDs, sep)}
	}
	return Snapshot{
		Teams:   d.Teams,
		Members: d.Members,
		Users:   users,
		Beacons: d.Beacons,
	}.Clone(), nil
}

// NewDocument serialises a snapshot.
func NewDocument(s Snapshot, sep string) Document {
	users := make([]UserRecord, len(s.Users))
	for i, u := range s.Users {
		users[i] = UserRecord{UserID: u.ID, RoleIDs: u.Roles.String(sep)}
	}
	c := s.Clone()
	return Document{Teams: c.Teams, Members: c.Members, Users: users, Beacons: c.Beacons}
}

func (d Document) validate() error {
	teams := make(map[string]struct{}, len(d.Teams))
	for i, t := range d.Teams {
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("%w: teams[%d]: missing team_id", ErrInvalidRoster, i)
		}
		if _, dup := teams[t.ID]; dup {
			return fmt.Errorf("%w: duplicate team_id %q", ErrInvalidRoster, t.ID)
		}
		teams[t.ID] = struct{}{}
	}
	users := make(map[string]struct{}, len(d.Users))
	for i, u := range d.Users {
		if strings.TrimSpace(u.UserID) == "" {
			return fmt.Errorf("%w: users[%d]: missing user_id", ErrInvalidRoster, i)
		}
		if _, dup := users[u.UserID]; dup {
			return fmt.Errorf("%w: duplicate user_id %q", ErrInvalidRoster, u.UserID)
		}
		users[u.UserID] = struct{}{}
	}
	for i, m := range d.Members {
		if strings.TrimSpace(m.UserID) == "" {
			return fmt.Errorf("%w: members[%d]: missing user_id", ErrInvalidRoster, i)
		}
	}
	for i, b := range d.Beacons {
		if strings.TrimSpace(b.TeamID) == "" {
			return fmt.Errorf("%w: beacons[%d]: missing team_id", ErrInvalidRoster, i)
		}
	}
	return nil
}

// Package model contains the roster records the matcher works on.
package model

// Team identifies a team being staffed.
type Team struct {
	ID         string `json:"team_id" koanf:"team_id" yaml:"team_id"`
	Name       string `json:"name,omitempty" koanf:"name" yaml:"name,omitempty"`
	MaxMembers int    `json:"max_members,omitempty" koanf:"max_members" yaml:"max_members,omitempty"`
}

// Member links a user to a team. An empty TeamID means the member is unassigned.
type Member struct {
	UserID    string `json:"user_id" koanf:"user_id" yaml:"user_id"`
	TeamID    string `json:"team_id,omitempty" koanf:"team_id" yaml:"team_id,omitempty"`
	WantsTeam bool   `json:"wants_team" koanf:"wants_team" yaml:"wants_team"`
}

// Eligible reports whether the member wants a team and has none.
func (m Member) Eligible() bool {
	return m.WantsTeam && m.TeamID == ""
}

// User describes a person's qualifications.
type User struct {
	ID    string  `json:"user_id"`
	Roles RoleSet `json:"-"`
}

// Beacon is a posted need: the team wants these roles.
type Beacon struct {
	TeamID  string   `json:"team_id" koanf:"team_id" yaml:"team_id"`
	RoleIDs []string `json:"role_ids" koanf:"role_ids" yaml:"role_ids"`
}

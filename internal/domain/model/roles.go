package model

import (
	"sort"
	"strings"
)

// DefaultRoleSeparator is the delimiter used by upstream stores for user role lists.
const DefaultRoleSeparator = ","

// RoleSet is a set of role identifiers.
type RoleSet map[string]struct{}

// NewRoleSet builds a set from the given identifiers, ignoring blanks.
func NewRoleSet(roles ...string) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		s[r] = struct{}{}
	}
	return s
}

// ParseRoles splits a delimited role string such as "R1,R2" into a set.
// An empty separator falls back to DefaultRoleSeparator.
func ParseRoles(raw, sep string) RoleSet {
	if sep == "" {
		sep = DefaultRoleSeparator
	}
	if strings.TrimSpace(raw) == "" {
		return RoleSet{}
	}
	return NewRoleSet(strings.Split(raw, sep)...)
}

// Has reports whether role is in the set.
func (s RoleSet) Has(role string) bool {
	_, ok := s[role]
	return ok
}

// Len returns the number of roles.
func (s RoleSet) Len() int { return len(s) }

// Slice returns the roles in sorted order.
func (s RoleSet) Slice() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// String serialises the set back to its delimited form.
func (s RoleSet) String(sep string) string {
	if sep == "" {
		sep = DefaultRoleSeparator
	}
	return strings.Join(s.Slice(), sep)
}

package rostertool

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/teammatch/internal/adapters/repository"
	"github.com/okian/teammatch/internal/domain/model"
)

// Generation shape. A quarter of the members already have a team and a tenth
// do not want one, so every roster exercises the eligibility filter.
const (
	assignedEvery    = 4
	notWantingEvery  = 10
	maxRolesPerUser  = 3
	maxRolesPerNeed  = 4
	beaconsPerTeam   = 2
	teamCapacityBase = 4
)

// GenerateOptions controls the synthetic roster.
type GenerateOptions struct {
	Teams int
	Users int
	Roles int
	Seed  uint64
	Sep   string
}

// Generate builds a reproducible roster document for opts.
func Generate(opts GenerateOptions) (repository.Document, error) {
	if opts.Teams < 1 || opts.Users < 1 || opts.Roles < 1 {
		return repository.Document{}, fmt.Errorf("teams, users and roles must be positive")
	}
	if opts.Sep == "" {
		opts.Sep = model.DefaultRoleSeparator
	}
	rnd := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	roles := make([]string, opts.Roles)
	for i := range roles {
		roles[i] = fmt.Sprintf("R%d", i+1)
	}

	var doc repository.Document
	for i := 0; i < opts.Teams; i++ {
		id := fmt.Sprintf("T%d", i+1)
		doc.Teams = append(doc.Teams, model.Team{
			ID:         id,
			Name:       fmt.Sprintf("Team %d", i+1),
			MaxMembers: teamCapacityBase + rnd.IntN(teamCapacityBase),
		})
		for b := 0; b < beaconsPerTeam; b++ {
			doc.Beacons = append(doc.Beacons, model.Beacon{
				TeamID:  id,
				RoleIDs: pick(rnd, roles, 1+rnd.IntN(maxRolesPerNeed)),
			})
		}
	}

	for i := 0; i < opts.Users; i++ {
		id := fmt.Sprintf("U%d", i+1)
		doc.Users = append(doc.Users, repository.UserRecord{
			UserID:  id,
			RoleIDs: strings.Join(pick(rnd, roles, 1+rnd.IntN(maxRolesPerUser)), opts.Sep),
		})
		m := model.Member{UserID: id, WantsTeam: true}
		switch {
		case i%assignedEvery == assignedEvery-1:
			m.TeamID = doc.Teams[rnd.IntN(len(doc.Teams))].ID
		case i%notWantingEvery == notWantingEvery-1:
			m.WantsTeam = false
		}
		doc.Members = append(doc.Members, m)
	}
	return doc, nil
}

// WriteYAML writes doc to path in the format LoadFile reads.
func WriteYAML(path string, doc repository.Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	if err := os.WriteFile(path, data, rosterFileMode); err != nil {
		return fmt.Errorf("write roster %s: %w", path, err)
	}
	return nil
}

// pick returns n distinct roles, possibly fewer when the pool is smaller.
func pick(rnd *rand.Rand, pool []string, n int) []string {
	if n > len(pool) {
		n = len(pool)
	}
	idx := rnd.Perm(len(pool))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

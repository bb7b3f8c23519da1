package matching_test

import (
	"errors"
	"testing"

	"github.com/okian/teammatch/internal/domain/matching"
	"github.com/okian/teammatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func user(id, roles string) model.User {
	return model.User{ID: id, Roles: model.ParseRoles(roles, ",")}
}

func free(userID string) model.Member {
	return model.Member{UserID: userID, WantsTeam: true}
}

func TestRank_Example(t *testing.T) {
	Convey("Given team T1 with one beacon wanting R1 and R2", t, func() {
		teams := []model.Team{{ID: "T1"}}
		beacons := []model.Beacon{{TeamID: "T1", RoleIDs: []string{"R1", "R2"}}}
		users := []model.User{user("U1", "R1,R2"), user("U2", "R1"), user("U3", "R3")}
		members := []model.Member{free("U3"), free("U2"), free("U1")}

		Convey("When scoring each user", func() {
			Convey("Then U1=2, U2=1, U3=0", func() {
				So(matching.Score("T1", users[0], beacons), ShouldEqual, 2)
				So(matching.Score("T1", users[1], beacons), ShouldEqual, 1)
				So(matching.Score("T1", users[2], beacons), ShouldEqual, 0)
			})
		})

		Convey("When ranking with limit 3", func() {
			res, err := matching.Rank("T1", members, teams, users, beacons, matching.WithLimit(3))

			Convey("Then the shortlist is ordered by descending score", func() {
				So(err, ShouldBeNil)
				So(res.UserIDs, ShouldResemble, []string{"U1", "U2", "U3"})
				So(res.Skipped, ShouldBeEmpty)
				So(res.Fault(), ShouldBeNil)
			})
		})

		Convey("When ranking with the default limit", func() {
			res, err := matching.Rank("T1", members, teams, users, beacons)

			Convey("Then the default of 3 applies", func() {
				So(err, ShouldBeNil)
				So(len(res.UserIDs), ShouldEqual, matching.DefaultLimit)
			})
		})

		Convey("When ranking with limit 1", func() {
			res, err := matching.Rank("T1", members, teams, users, beacons, matching.WithLimit(1))

			Convey("Then only the best candidate is returned", func() {
				So(err, ShouldBeNil)
				So(res.UserIDs, ShouldResemble, []string{"U1"})
			})
		})

		Convey("When ranking with a non-positive limit", func() {
			res, err := matching.Rank("T1", members, teams, users, beacons, matching.WithLimit(0))

			Convey("Then the default limit is kept", func() {
				So(err, ShouldBeNil)
				So(len(res.UserIDs), ShouldEqual, 3)
			})
		})
	})
}

func TestRank_Errors(t *testing.T) {
	Convey("Given a roster", t, func() {
		teams := []model.Team{{ID: "T1"}}
		beacons := []model.Beacon{{TeamID: "T1", RoleIDs: []string{"R1"}}}
		users := []model.User{user("U1", "R1"), user("U2", "R2")}

		Convey("When the team is unknown", func() {
			res, err := matching.Rank("T9", []model.Member{free("U1")}, teams, users, beacons)

			Convey("Then ErrTeamNotFound is reported with no partial list", func() {
				So(errors.Is(err, matching.ErrTeamNotFound), ShouldBeTrue)
				So(res.UserIDs, ShouldBeNil)
			})
		})

		Convey("When the team exists but nobody is eligible", func() {
			members := []model.Member{
				{UserID: "U1", TeamID: "T1", WantsTeam: true},
				{UserID: "U2", WantsTeam: false},
			}
			res, err := matching.Rank("T1", members, teams, users, beacons)

			Convey("Then the result is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(res.UserIDs, ShouldBeEmpty)
			})
		})

		Convey("When an eligible member references a missing user", func() {
			members := []model.Member{free("U1"), free("GHOST"), free("U2")}
			res, err := matching.Rank("T1", members, teams, users, beacons)

			Convey("Then the member is skipped and the rest are ranked", func() {
				So(err, ShouldBeNil)
				So(res.UserIDs, ShouldResemble, []string{"U1", "U2"})
				So(res.Skipped, ShouldResemble, []string{"GHOST"})
				So(len(res.Skipped), ShouldEqual, 1)
			})

			Convey("And the fault wraps ErrUserNotResolved", func() {
				fault := res.Fault()
				So(errors.Is(fault, matching.ErrUserNotResolved), ShouldBeTrue)
				So(fault.Error(), ShouldContainSubstring, "GHOST")
			})
		})
	})
}

func TestRank_Properties(t *testing.T) {
	Convey("Given a larger roster", t, func() {
		teams := []model.Team{{ID: "T1"}, {ID: "T2"}}
		beacons := []model.Beacon{
			{TeamID: "T1", RoleIDs: []string{"go", "sql"}},
			{TeamID: "T1", RoleIDs: []string{"go", "ui"}},
			{TeamID: "T2", RoleIDs: []string{"ml"}},
		}
		users := []model.User{
			user("a", "ui"),
			user("b", "go,sql,ui"),
			user("c", "go"),
			user("d", "ml"),
			user("e", "sql"),
			user("f", "go,ui"),
			user("g", "go"),
		}
		members := []model.Member{
			free("a"), free("b"), free("c"), free("d"),
			{UserID: "e", WantsTeam: false},
			{UserID: "f", TeamID: "T2", WantsTeam: true},
			free("g"),
		}
		byID := map[string]model.User{}
		for _, u := range users {
			byID[u.ID] = u
		}

		Convey("When a role is demanded by several beacons", func() {
			Convey("Then it counts once per beacon", func() {
				So(matching.Score("T1", byID["c"], beacons), ShouldEqual, 2)
				So(matching.Score("T1", byID["b"], beacons), ShouldEqual, 4)
			})
		})

		Convey("When ranking", func() {
			res, err := matching.Rank("T1", members, teams, users, beacons, matching.WithLimit(10))
			So(err, ShouldBeNil)

			Convey("Then scores are non-increasing", func() {
				So(res.UserIDs, ShouldNotBeEmpty)
				for i := 1; i < len(res.UserIDs); i++ {
					prev := matching.Score("T1", byID[res.UserIDs[i-1]], beacons)
					cur := matching.Score("T1", byID[res.UserIDs[i]], beacons)
					So(prev, ShouldBeGreaterThanOrEqualTo, cur)
				}
			})

			Convey("And ineligible members never appear", func() {
				So(res.UserIDs, ShouldNotContain, "e")
				So(res.UserIDs, ShouldNotContain, "f")
			})

			Convey("And later members rank first among ties", func() {
				So(res.UserIDs, ShouldResemble, []string{"b", "g", "c", "a", "d"})
			})
		})

		Convey("When ranking with a limit", func() {
			res, err := matching.Rank("T1", members, teams, users, beacons, matching.WithLimit(2))

			Convey("Then at most limit ids are returned", func() {
				So(err, ShouldBeNil)
				So(len(res.UserIDs), ShouldEqual, 2)
			})
		})

		Convey("When ranking twice with identical inputs", func() {
			first, err1 := matching.Rank("T1", members, teams, users, beacons, matching.WithLimit(5))
			second, err2 := matching.Rank("T1", members, teams, users, beacons, matching.WithLimit(5))

			Convey("Then the output is identical, including tie order", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second.UserIDs, ShouldResemble, first.UserIDs)
			})
		})

		Convey("When the team has no beacons", func() {
			lone := append([]model.Team{{ID: "T3"}}, teams...)
			res, err := matching.Rank("T3", members, lone, users, beacons)

			Convey("Then everyone scores 0 and the last eligible members are kept", func() {
				So(err, ShouldBeNil)
				So(res.UserIDs, ShouldResemble, []string{"g", "d", "c"})
			})
		})

		Convey("When a user is listed by two members", func() {
			dup := append([]model.Member{free("g")}, members...)
			res, err := matching.Rank("T1", dup, teams, users, beacons, matching.WithLimit(10))

			Convey("Then the user is ranked once", func() {
				So(err, ShouldBeNil)
				count := 0
				for _, id := range res.UserIDs {
					if id == "g" {
						count++
					}
				}
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When ranking without mutating the inputs", func() {
			snapshot := make([]model.Member, len(members))
			copy(snapshot, members)
			_, _ = matching.Rank("T1", members, teams, users, beacons)

			Convey("Then the inputs are left untouched", func() {
				So(members, ShouldResemble, snapshot)
			})
		})
	})
}

func TestRank_Ties(t *testing.T) {
	Convey("Given four members with equal scores", t, func() {
		teams := []model.Team{{ID: "T1"}}
		users := []model.User{user("a", "go"), user("b", "go"), user("c", "go"), user("d", "go")}
		members := []model.Member{free("a"), free("b"), free("c"), free("d")}

		Convey("When the team has no beacons", func() {
			res, err := matching.Rank("T1", members, teams, users, nil)

			Convey("Then the last listed members come first", func() {
				So(err, ShouldBeNil)
				So(res.UserIDs, ShouldResemble, []string{"d", "c", "b"})
			})
		})

		Convey("When every member scores 1 and the limit is 2", func() {
			beacons := []model.Beacon{{TeamID: "T1", RoleIDs: []string{"go"}}}
			res, err := matching.Rank("T1", members, teams, users, beacons, matching.WithLimit(2))

			Convey("Then the limit keeps the last listed members", func() {
				So(err, ShouldBeNil)
				So(res.UserIDs, ShouldResemble, []string{"d", "c"})
			})
		})

		Convey("When a higher score follows the tie", func() {
			beacons := []model.Beacon{{TeamID: "T1", RoleIDs: []string{"go", "sql"}}}
			withSQL := append([]model.User{}, users...)
			withSQL[0] = user("a", "go,sql")
			res, err := matching.Rank("T1", members, teams, withSQL, beacons)

			Convey("Then score still dominates position", func() {
				So(err, ShouldBeNil)
				So(res.UserIDs, ShouldResemble, []string{"a", "d", "c"})
			})
		})
	})
}

func TestRank_RepeatedUserRecord(t *testing.T) {
	Convey("Given a users collection that lists one id twice", t, func() {
		teams := []model.Team{{ID: "T1"}}
		beacons := []model.Beacon{{TeamID: "T1", RoleIDs: []string{"go", "sql"}}}
		members := []model.Member{free("a"), free("b")}
		users := []model.User{user("a", "go,sql"), user("b", "go"), user("a", "ui")}

		Convey("When ranking", func() {
			res, err := matching.Rank("T1", members, teams, users, beacons)

			Convey("Then the last record for the id is the one scored", func() {
				So(err, ShouldBeNil)
				So(res.UserIDs, ShouldResemble, []string{"b", "a"})
				So(res.Skipped, ShouldBeEmpty)
			})
		})
	})
}

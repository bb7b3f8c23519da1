package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/teammatch/internal/adapters/repository"
	service "github.com/okian/teammatch/internal/app"
	"github.com/okian/teammatch/internal/domain/matching"
	"github.com/okian/teammatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleRoster() repository.Snapshot {
	return repository.Snapshot{
		Teams: []model.Team{{ID: "T1", Name: "Rockets"}},
		Members: []model.Member{
			{UserID: "U1", WantsTeam: true},
			{UserID: "U2", WantsTeam: true},
			{UserID: "U3", WantsTeam: true},
			{UserID: "U4", WantsTeam: true, TeamID: "T9"},
		},
		Users: []model.User{
			{ID: "U1", Roles: model.NewRoleSet("R1", "R2")},
			{ID: "U2", Roles: model.NewRoleSet("R2")},
			{ID: "U3", Roles: model.NewRoleSet("R3")},
			{ID: "U4", Roles: model.NewRoleSet("R1", "R2")},
		},
		Beacons: []model.Beacon{{TeamID: "T1", RoleIDs: []string{"R1", "R2"}}},
	}
}

type stubSource struct {
	snap  repository.Snapshot
	err   error
	calls atomic.Int32
}

func (s *stubSource) Snapshot(_ context.Context) (repository.Snapshot, error) {
	s.calls.Add(1)
	if s.err != nil {
		return repository.Snapshot{}, s.err
	}
	return s.snap.Clone(), nil
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it reports sensible defaults", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["defaultLimit"], ShouldEqual, matching.DefaultLimit)
			So(stats["maxLimit"], ShouldEqual, 50)
		})
	})

	Convey("Given a max limit below the default limit", t, func() {
		svc := service.New(service.WithDefaultLimit(10), service.WithMaxLimit(5))

		Convey("Then the max limit is raised to the default", func() {
			So(svc.GetStats()["maxLimit"], ShouldEqual, 10)
		})
	})
}

func TestService_Shortlist(t *testing.T) {
	Convey("Given a service with a roster", t, func() {
		ctx := context.Background()
		svc := service.New()
		svc.ReplaceRoster(ctx, sampleRoster())

		Convey("When ranking with the default limit", func() {
			sl, err := svc.Shortlist(ctx, "T1", 0)

			Convey("Then candidates are ordered by score", func() {
				So(err, ShouldBeNil)
				So(sl.TeamID, ShouldEqual, "T1")
				So(sl.UserIDs, ShouldResemble, []string{"U1", "U2", "U3"})
				So(sl.Limit, ShouldEqual, 3)
				So(sl.Skipped, ShouldBeEmpty)
			})
		})

		Convey("When ranking with an explicit limit", func() {
			sl, err := svc.Shortlist(ctx, "T1", 1)

			Convey("Then the list is truncated", func() {
				So(err, ShouldBeNil)
				So(sl.UserIDs, ShouldResemble, []string{"U1"})
			})
		})

		Convey("When the limit is out of range", func() {
			_, errNeg := svc.Shortlist(ctx, "T1", -1)
			_, errBig := svc.Shortlist(ctx, "T1", 51)

			Convey("Then ErrInvalidLimit is returned", func() {
				So(errors.Is(errNeg, service.ErrInvalidLimit), ShouldBeTrue)
				So(errors.Is(errBig, service.ErrInvalidLimit), ShouldBeTrue)
			})
		})

		Convey("When the team does not exist", func() {
			_, err := svc.Shortlist(ctx, "nope", 0)

			Convey("Then ErrTeamNotFound is returned", func() {
				So(errors.Is(err, matching.ErrTeamNotFound), ShouldBeTrue)
			})
		})

		Convey("When a member has no user record", func() {
			snap := sampleRoster()
			snap.Members = append(snap.Members, model.Member{UserID: "GHOST", WantsTeam: true})
			svc.ReplaceRoster(ctx, snap)
			sl, err := svc.Shortlist(ctx, "T1", 5)

			Convey("Then it is skipped and reported", func() {
				So(err, ShouldBeNil)
				So(sl.UserIDs, ShouldResemble, []string{"U1", "U2", "U3"})
				So(sl.Skipped, ShouldResemble, []string{"GHOST"})
			})
		})
	})
}

func TestService_Roster(t *testing.T) {
	Convey("Given a service whose roster was replaced", t, func() {
		ctx := context.Background()
		svc := service.New()
		svc.ReplaceRoster(ctx, sampleRoster())

		Convey("When reading it back and modifying the copy", func() {
			snap, err := svc.Roster(ctx)
			So(err, ShouldBeNil)
			snap.Teams[0].Name = "changed"

			Convey("Then the stored roster is unaffected", func() {
				again, _ := svc.Roster(ctx)
				So(again.Teams[0].Name, ShouldEqual, "Rockets")
				So(svc.GetStats()["roster"], ShouldResemble, map[string]int{
					"teams": 1, "members": 4, "users": 4, "beacons": 1,
				})
			})
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a service that is not started", t, func() {
		svc := service.New()

		Convey("When submitting a request", func() {
			_, _, err := svc.Submit(context.Background(), model.MatchRequest{TeamID: "T1"})

			Convey("Then ErrNotStarted is returned", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})

	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(16))
		svc.ReplaceRoster(ctx, sampleRoster())
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When submitting without a request id", func() {
			id, dup, err := svc.Submit(ctx, model.MatchRequest{TeamID: "T1", Limit: 2})

			Convey("Then an id is generated and the shortlist is stored", func() {
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(id, ShouldNotBeEmpty)

				var sl repository.Shortlist
				So(waitFor(func() bool {
					var err error
					sl, err = svc.Latest(ctx, "T1")
					return err == nil
				}), ShouldBeTrue)
				So(sl.RequestID, ShouldEqual, id)
				So(sl.UserIDs, ShouldResemble, []string{"U1", "U2"})
				So(sl.Limit, ShouldEqual, 2)
			})
		})

		Convey("When the same request id is submitted twice", func() {
			_, first, err1 := svc.Submit(ctx, model.MatchRequest{RequestID: "req-1", TeamID: "T1"})
			_, second, err2 := svc.Submit(ctx, model.MatchRequest{RequestID: "req-1", TeamID: "T1"})

			Convey("Then the second is a duplicate", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
			})
		})

		Convey("When the request is invalid", func() {
			_, _, errTeam := svc.Submit(ctx, model.MatchRequest{})
			_, _, errLimit := svc.Submit(ctx, model.MatchRequest{TeamID: "T1", Limit: 500})

			Convey("Then it is rejected", func() {
				So(errors.Is(errTeam, service.ErrInvalidRequest), ShouldBeTrue)
				So(errors.Is(errLimit, service.ErrInvalidLimit), ShouldBeTrue)
			})
		})

		Convey("When the team is unknown", func() {
			_, _, err := svc.Submit(ctx, model.MatchRequest{TeamID: "nope"})

			Convey("Then it is accepted but no shortlist appears", func() {
				So(err, ShouldBeNil)
				time.Sleep(50 * time.Millisecond)
				_, err := svc.Latest(ctx, "nope")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New()

		Convey("When it is started and stopped", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldBeTrue)
			svc.Stop()

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldBeFalse)
			})

			Convey("And stopping again is harmless", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})
	})
}

func TestService_Source(t *testing.T) {
	Convey("Given a service backed by a roster source", t, func() {
		ctx := context.Background()
		src := &stubSource{snap: sampleRoster()}
		svc := service.New(service.WithSource(src), service.WithRosterRefresh(10*time.Millisecond))

		Convey("When the service starts", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the roster is loaded", func() {
				sl, err := svc.Shortlist(ctx, "T1", 0)
				So(err, ShouldBeNil)
				So(sl.UserIDs, ShouldResemble, []string{"U1", "U2", "U3"})
			})

			Convey("And it is refreshed periodically", func() {
				So(waitFor(func() bool { return src.calls.Load() >= 3 }), ShouldBeTrue)
			})
		})
	})

	Convey("Given a source that fails", t, func() {
		src := &stubSource{err: errors.New("connection refused")}
		svc := service.New(service.WithSource(src))

		Convey("When the service starts", func() {
			err := svc.Start(context.Background())

			Convey("Then ErrRosterLoad is returned and nothing runs", func() {
				So(errors.Is(err, service.ErrRosterLoad), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})
	})
}

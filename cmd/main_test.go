package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/teammatch/internal/adapters/repository"
	"github.com/okian/teammatch/internal/config"
	"github.com/okian/teammatch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const rosterYAML = `
teams:
  - team_id: "T1"
    name: Rockets
members:
  - user_id: "U1"
    wants_team: true
  - user_id: "U2"
    wants_team: true
  - user_id: "U3"
    wants_team: true
  - user_id: "GHOST"
    wants_team: true
users:
  - user_id: "U1"
    role_ids: "R1,R2"
  - user_id: "U2"
    role_ids: "R2"
  - user_id: "U3"
    role_ids: "R3"
beacons:
  - team_id: "T1"
    role_ids: [R1, R2]
`

func TestConfigFromEnv(t *testing.T) {
	convey.Convey("Given TEAMMATCH_ environment variables", t, func() {
		_ = os.Setenv("TEAMMATCH_ADDR", ":8080")
		_ = os.Setenv("TEAMMATCH_QUEUE_SIZE", "1000")
		_ = os.Setenv("TEAMMATCH_DEFAULT_LIMIT", "5")
		defer func() {
			_ = os.Unsetenv("TEAMMATCH_ADDR")
			_ = os.Unsetenv("TEAMMATCH_QUEUE_SIZE")
			_ = os.Unsetenv("TEAMMATCH_DEFAULT_LIMIT")
		}()

		convey.Convey("Then configuration picks them up", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.DefaultLimit, convey.ShouldEqual, 5)
		})
	})
}

func TestBuildSource(t *testing.T) {
	convey.Convey("Given a configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("When neither a file nor a database is set", func() {
			src, err := buildSource(ctx, cfg)

			convey.Convey("Then there is no source", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(src, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a roster file is set", func() {
			cfg.RosterFile = "roster.yaml"
			src, err := buildSource(ctx, cfg)

			convey.Convey("Then a file source is used", func() {
				convey.So(err, convey.ShouldBeNil)
				fs, ok := src.(*repository.FileSource)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(fs.Path, convey.ShouldEqual, "roster.yaml")
			})
		})

		convey.Convey("When the database url is malformed", func() {
			cfg.DatabaseURL = "postgres://%zz"
			_, err := buildSource(ctx, cfg)

			convey.Convey("Then an error is returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestEndToEnd(t *testing.T) {
	convey.Convey("Given the service seeded from a roster file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "roster.yaml")
		convey.So(os.WriteFile(path, []byte(rosterYAML), 0o600), convey.ShouldBeNil)

		cfg := config.New(ctx)
		cfg.RosterFile = path
		cfg.WorkerCount = 2

		src, err := buildSource(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		svc := newService(cfg, src, logger.Nop())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newHandler(ctx, cfg, svc))
		defer srv.Close()

		convey.Convey("When a shortlist is requested over HTTP", func() {
			resp, err := http.Post(srv.URL+"/teams/T1/shortlist", "application/json", http.NoBody)
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			var body struct {
				UserIDs      []string `json:"user_ids"`
				Skipped      []string `json:"skipped"`
				SkippedCount int      `json:"skipped_count"`
				Limit        int      `json:"limit"`
			}
			convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)

			convey.Convey("Then the ranking follows role overlap", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(body.UserIDs, convey.ShouldResemble, []string{"U1", "U2", "U3"})
				convey.So(body.Skipped, convey.ShouldResemble, []string{"GHOST"})
				convey.So(body.SkippedCount, convey.ShouldEqual, 1)
				convey.So(body.Limit, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the docs are requested", func() {
			resp, err := http.Get(srv.URL + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			convey.Convey("Then they are served", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When the roster is read back", func() {
			resp, err := http.Get(srv.URL + "/roster")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			var doc repository.Document
			convey.So(json.NewDecoder(resp.Body).Decode(&doc), convey.ShouldBeNil)

			convey.Convey("Then it matches the file", func() {
				convey.So(len(doc.Teams), convey.ShouldEqual, 1)
				convey.So(len(doc.Members), convey.ShouldEqual, 4)
				convey.So(strings.Join([]string{doc.Users[0].UserID, doc.Users[0].RoleIDs}, ":"), convey.ShouldEqual, "U1:R1,R2")
			})
		})
	})
}

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/bracketpool/internal/app"
	"github.com/okian/bracketpool/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}
	cfg := config.New()
	cfg.Addr = "127.0.0.1:0"
	cfg.Workers = 2
	cfg.ShutdownTimeout = time.Second
	cfg.TeamsFile = write("teams.csv", "team,rating\nA,90\nB,85\nC,80\nD,75\n")
	cfg.SeedsFile = write("seeds.csv", "round,slot,team\n0,0,A\n0,1,B\n0,2,C\n0,3,D\n")
	cfg.PicksFile = write("picks.csv", "participant,round,slot,team,points\nAlice,2,0,A,20\nBob,2,0,D,20\n")
	return cfg
}

func TestHTTPServer(t *testing.T) {
	convey.Convey("Given a service built from configuration", t, func() {
		cfg := testConfig(t)
		svc, err := app.Build(context.Background(), cfg)
		convey.So(err, convey.ShouldBeNil)

		srv := newHTTPServer(cfg, svc)

		convey.Convey("Then the server carries the configured address and timeouts", func() {
			convey.So(srv.Addr, convey.ShouldEqual, cfg.Addr)
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
			convey.So(srv.WriteTimeout, convey.ShouldEqual, writeTimeout)
		})

		convey.Convey("Then its handler serves the API", func() {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

			rec = httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"participants":2`)
		})

		convey.Convey("Then the metrics updater stops with its context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestServe(t *testing.T) {
	convey.Convey("Given a valid configuration", t, func() {
		cfg := testConfig(t)

		convey.Convey("When the context is cancelled the server shuts down cleanly", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			convey.So(serve(ctx, cfg), convey.ShouldBeNil)
		})

		convey.Convey("When an input file is missing serving fails", func() {
			cfg.PicksFile = filepath.Join(t.TempDir(), "absent.csv")
			convey.So(serve(context.Background(), cfg), convey.ShouldNotBeNil)
		})

		convey.Convey("When the address is unusable serving fails", func() {
			cfg.Addr = "256.0.0.1:99999"
			convey.So(serve(context.Background(), cfg), convey.ShouldNotBeNil)
		})
	})
}

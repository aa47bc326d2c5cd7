package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/bracketpool/internal/app"
	"github.com/okian/bracketpool/internal/adapters/repository"
	"github.com/okian/bracketpool/internal/config"
	"github.com/okian/bracketpool/internal/domain/aggregate"
	"github.com/okian/bracketpool/internal/domain/bracket"
	"github.com/okian/bracketpool/internal/domain/dedupe"
	"github.com/okian/bracketpool/internal/domain/matchup"
	"github.com/okian/bracketpool/internal/domain/model"
	"github.com/okian/bracketpool/internal/domain/rating"
	"github.com/okian/bracketpool/internal/domain/scoring"
)

func seed(v int64) *int64 { return &v }

func fourTeams(t *testing.T, ratings []rating.Record) *service.Dataset {
	t.Helper()
	seeds := []bracket.SeedRecord{
		{Round: 0, Slot: 0, Team: "A"},
		{Round: 0, Slot: 1, Team: "B"},
		{Round: 0, Slot: 2, Team: "C"},
		{Round: 0, Slot: 3, Team: "D"},
	}
	picks := []scoring.PickRecord{
		{Participant: "Alice", Round: 1, Slot: 0, Team: "A", Points: 10},
		{Participant: "Alice", Round: 2, Slot: 0, Team: "A", Points: 20},
		{Participant: "Bob", Round: 1, Slot: 1, Team: "D", Points: 10},
		{Participant: "Bob", Round: 2, Slot: 0, Team: "D", Points: 20},
	}
	d, err := service.NewDataset(ratings, seeds, picks, []scoring.BaseRecord{{Participant: "Carol", Points: 15}})
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	return d
}

var allRated = []rating.Record{{Team: "A", Rating: 90}, {Team: "B", Rating: 85}, {Team: "C", Rating: 80}, {Team: "D", Rating: 75}}

func TestNew(t *testing.T) {
	Convey("Given datasets of varying completeness", t, func() {
		Convey("A nil dataset is rejected", func() {
			_, err := service.New(nil)
			So(errors.Is(err, service.ErrNoDataset), ShouldBeTrue)
		})

		Convey("A missing rating fails in scaled mode", func() {
			d := fourTeams(t, allRated[:3])
			So(d.MissingRatings(), ShouldResemble, []string{"D"})

			_, err := service.New(d)
			So(errors.Is(err, model.ErrDataIntegrity), ShouldBeTrue)
		})

		Convey("A missing rating is fine for coin flips", func() {
			svc, err := service.New(fourTeams(t, allRated[:3]), service.WithProbability(matchup.ModeEven))
			So(err, ShouldBeNil)
			So(svc.Dataset().ParticipantNames(), ShouldResemble, []string{"Alice", "Bob", "Carol"})

			run, err := svc.Simulate(context.Background(), aggregate.Request{Trials: 200, Seed: seed(1)})
			So(err, ShouldBeNil)
			So(run.Stats.Trials, ShouldEqual, 200)
			So(run.Stats.Participants["Bob"].FirstPlace, ShouldBeGreaterThan, 0)
		})
	})
}

func TestSimulate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a four team pool", t, func() {
		svc, err := service.New(fourTeams(t, allRated),
			service.WithWorkers(3),
			service.WithBatchSize(50),
			service.WithMaxTrials(5000),
			service.WithStore(repository.NewMemoryStore(repository.WithMaxRuns(10))),
		)
		So(err, ShouldBeNil)

		Convey("When a seeded run completes", func() {
			run, err := svc.Simulate(ctx, aggregate.Request{Trials: 1000, Seed: seed(11)})
			So(err, ShouldBeNil)

			Convey("Then it is stored with its resolved parameters", func() {
				So(run.ID, ShouldNotBeEmpty)
				So(run.Stats.Trials, ShouldEqual, 1000)
				So(*run.Request.Seed, ShouldEqual, int64(11))
				So(run.Request.TiePolicy, ShouldEqual, model.TieCreditAll)

				got, err := svc.GetRun(ctx, run.ID)
				So(err, ShouldBeNil)
				So(got.Stats, ShouldResemble, run.Stats)

				list, err := svc.ListRuns(ctx, 5)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 1)
				So(list[0].ID, ShouldEqual, run.ID)

				ranked, err := svc.Standings(ctx, run.ID, 10)
				So(err, ShouldBeNil)
				So(ranked, ShouldHaveLength, 3)
				So(ranked[0].Rank, ShouldEqual, 1)
			})

			Convey("Then a replay on a different pool size matches", func() {
				other, err := service.New(fourTeams(t, allRated), service.WithWorkers(1))
				So(err, ShouldBeNil)
				replay, err := other.Simulate(ctx, run.Request)
				So(err, ShouldBeNil)
				So(replay.Stats, ShouldResemble, run.Stats)
			})
		})

		Convey("When the champion is forced", func() {
			run, err := svc.Simulate(ctx, aggregate.Request{
				Trials: 200,
				Seed:   seed(3),
				Forced: []model.ForcedOutcome{{Team: "D", Round: 2, Result: model.ResultWin}},
			})

			Convey("Then the participant who picked it always wins", func() {
				So(err, ShouldBeNil)
				So(run.Stats.Participants["Bob"].FirstPlace, ShouldEqual, 200)
				So(run.Stats.Participants["Bob"].FirstPlacePct, ShouldEqual, 1.0)
			})
		})

		Convey("When a request asks for too many trials", func() {
			_, err := svc.Simulate(ctx, aggregate.Request{Trials: 5001})

			Convey("Then it is rejected as a configuration error", func() {
				So(errors.Is(err, service.ErrTooManyTrials), ShouldBeTrue)
				So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When the focal participant is unknown", func() {
			_, err := svc.Simulate(ctx, aggregate.Request{Trials: 10, Focal: "Zed"})
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Simulate(cctx, aggregate.Request{Trials: 1000, Seed: seed(1)})

			Convey("Then nothing is stored", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				list, err := svc.ListRuns(ctx, 5)
				So(err, ShouldBeNil)
				So(list, ShouldBeEmpty)
			})
		})

		Convey("When an unknown run is requested", func() {
			_, err := svc.GetRun(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a keyed request is repeated", func() {
			first, replayed, err := svc.SimulateOnce(ctx, "key-1", aggregate.Request{Trials: 100, Seed: seed(2)})
			So(err, ShouldBeNil)
			So(replayed, ShouldBeFalse)

			again, replayed, err := svc.SimulateOnce(ctx, "key-1", aggregate.Request{Trials: 100, Seed: seed(2)})
			So(err, ShouldBeNil)

			Convey("Then the stored run is returned", func() {
				So(replayed, ShouldBeTrue)
				So(again.ID, ShouldEqual, first.ID)
				list, _ := svc.ListRuns(ctx, 10)
				So(list, ShouldHaveLength, 1)
			})

			Convey("Then the key cannot be reused for another request", func() {
				_, _, err := svc.SimulateOnce(ctx, "key-1", aggregate.Request{Trials: 100, Seed: seed(3)})
				So(errors.Is(err, dedupe.ErrKeyReused), ShouldBeTrue)
				list, _ := svc.ListRuns(ctx, 10)
				So(list, ShouldHaveLength, 1)
			})
		})

		Convey("When a keyed request fails", func() {
			_, _, err := svc.SimulateOnce(ctx, "key-2", aggregate.Request{Trials: 10, Focal: "Zed"})
			So(err, ShouldNotBeNil)

			Convey("Then the key can be used again", func() {
				run, replayed, err := svc.SimulateOnce(ctx, "key-2", aggregate.Request{Trials: 10})
				So(err, ShouldBeNil)
				So(replayed, ShouldBeFalse)
				So(run.ID, ShouldNotBeEmpty)
			})
		})

		Convey("When a key is still claimed by a running request", func() {
			keys := dedupe.NewInMemoryDeduper()
			_, _, err := keys.Claim(ctx, "busy", aggregate.Request{Trials: 10}.Fingerprint())
			So(err, ShouldBeNil)
			busy, err := service.New(fourTeams(t, allRated), service.WithDeduper(keys))
			So(err, ShouldBeNil)

			_, _, err = busy.SimulateOnce(ctx, "busy", aggregate.Request{Trials: 10})
			So(errors.Is(err, dedupe.ErrInProgress), ShouldBeTrue)
		})

		Convey("When the keyed run was evicted from the store", func() {
			small, err := service.New(fourTeams(t, allRated), service.WithStore(repository.NewMemoryStore(repository.WithMaxRuns(1))))
			So(err, ShouldBeNil)
			first, _, err := small.SimulateOnce(ctx, "old", aggregate.Request{Trials: 10})
			So(err, ShouldBeNil)
			_, err = small.Simulate(ctx, aggregate.Request{Trials: 10})
			So(err, ShouldBeNil)

			again, replayed, err := small.SimulateOnce(ctx, "old", aggregate.Request{Trials: 10})
			So(err, ShouldBeNil)
			So(replayed, ShouldBeFalse)
			So(again.ID, ShouldNotEqual, first.ID)
		})

		Convey("When stats are requested", func() {
			stats := svc.GetStats(ctx)
			So(stats["workers"], ShouldEqual, 3)
			So(stats["teams"], ShouldEqual, 4)
			So(stats["participants"], ShouldEqual, 3)
			So(stats["max_trials"], ShouldEqual, 5000)
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given a configuration naming CSV inputs", t, func() {
		dir := t.TempDir()
		write := func(name, body string) string {
			path := filepath.Join(dir, name)
			So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)
			return path
		}
		cfg := config.New()
		cfg.Workers = 2
		cfg.MaxTrials = 50
		cfg.TeamsFile = write("teams.csv", "team,rating\nA,90\nB,80\n")
		cfg.SeedsFile = write("seeds.csv", "round,slot,team\n0,0,A\n0,1,B\n")
		cfg.PicksFile = write("picks.csv", "participant,round,slot,team,points\nAlice,1,0,A,10\n")

		Convey("The service takes its limits from it", func() {
			svc, err := service.Build(context.Background(), cfg)
			So(err, ShouldBeNil)
			So(svc.MaxTrials(), ShouldEqual, 50)
			So(svc.GetStats(context.Background())["workers"], ShouldEqual, 2)
		})

		Convey("An unknown probability mode is rejected", func() {
			cfg.Probability = "loaded"
			_, err := service.Build(context.Background(), cfg)
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})
	})
}

func TestLoadDataset(t *testing.T) {
	Convey("Given CSV files on disk", t, func() {
		dir := t.TempDir()
		write := func(name, body string) string {
			path := filepath.Join(dir, name)
			So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)
			return path
		}
		files := service.Files{
			Teams: write("teams.csv", "team,rating\nA,90\nB,80\n"),
			Seeds: write("seeds.csv", "round,slot,team\n0,0,A\n0,1,B\n"),
			Picks: write("picks.csv", "participant,round,slot,team,points\nAlice,1,*,A,10\n"),
		}

		Convey("The dataset is assembled", func() {
			d, err := service.LoadDataset(context.Background(), files)
			So(err, ShouldBeNil)
			So(d.Graph.Rounds(), ShouldEqual, 1)
			So(d.Participants, ShouldHaveLength, 1)
			So(d.Participants[0].Picks[0].Slot, ShouldEqual, model.AnySlot)
		})

		Convey("Optional base points are read when named", func() {
			files.BasePoints = write("base.csv", "participant,points\nBob,5\n")
			d, err := service.LoadDataset(context.Background(), files)
			So(err, ShouldBeNil)
			So(d.ParticipantNames(), ShouldResemble, []string{"Alice", "Bob"})
		})

		Convey("A missing file fails", func() {
			files.Picks = filepath.Join(dir, "absent.csv")
			_, err := service.LoadDataset(context.Background(), files)
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}

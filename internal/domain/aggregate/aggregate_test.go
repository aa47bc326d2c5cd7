package aggregate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/bracketpool/internal/domain/aggregate"
	"github.com/okian/bracketpool/internal/domain/bracket"
	"github.com/okian/bracketpool/internal/domain/matchup"
	"github.com/okian/bracketpool/internal/domain/model"
	"github.com/okian/bracketpool/internal/domain/rating"
	"github.com/okian/bracketpool/internal/domain/scoring"
	"github.com/okian/bracketpool/internal/domain/simulation"
	. "github.com/smartystreets/goconvey/convey"
)

var eight = []rating.Record{
	{Team: "Gonzaga", Rating: 96.1},
	{Team: "Norfolk State", Rating: 72.3},
	{Team: "Oklahoma", Rating: 82.4},
	{Team: "Missouri", Rating: 81.9},
	{Team: "Creighton", Rating: 85.0},
	{Team: "UCSB", Rating: 79.8},
	{Team: "Virginia", Rating: 87.5},
	{Team: "Ohio", Rating: 80.2},
}

func newAggregator(records []rating.Record, participants []model.Participant, opts ...matchup.Option) *aggregate.Aggregator {
	seeds := make([]bracket.SeedRecord, len(records))
	for i, r := range records {
		seeds[i] = bracket.SeedRecord{Round: 0, Slot: i, Team: r.Team}
	}
	g, err := bracket.NewGraph(seeds)
	So(err, ShouldBeNil)
	store, err := rating.NewStore(records)
	So(err, ShouldBeNil)
	sim := simulation.New(g, matchup.NewResolver(store, opts...))
	return aggregate.New(sim, scoring.NewPickScorer(scoring.WithBracket(g)), participants)
}

func champion(name, team string, points int) model.Participant {
	return model.Participant{Name: name, Picks: []model.Pick{{Round: 3, Slot: 0, Team: team, Points: points}}}
}

func seed(v int64) *int64 { return &v }

func TestCountOutcomes(t *testing.T) {
	Convey("Given a two team pool where exactly one participant is right", t, func() {
		agg := newAggregator([]rating.Record{
			{Team: "Favorite", Rating: 2000},
			{Team: "Underdog", Rating: 1500},
		}, []model.Participant{
			{Name: "chalk", Picks: []model.Pick{{Round: 1, Slot: 0, Team: "Favorite", Points: 10}}},
			{Name: "upset", Picks: []model.Pick{{Round: 1, Slot: 0, Team: "Underdog", Points: 10}}},
		}, matchup.WithScale(400))

		Convey("When counting 10000 trials", func() {
			stats, err := agg.CountOutcomes(context.Background(), aggregate.Request{Trials: 10_000, Seed: seed(1)})
			So(err, ShouldBeNil)

			Convey("Then first and last place counts each sum to the trial count", func() {
				first, last := 0, 0
				for _, p := range stats.Participants {
					first += p.FirstPlace
					last += p.LastPlace
				}
				So(first, ShouldEqual, 10_000)
				So(last, ShouldEqual, 10_000)
				So(stats.FirstPlaceTies, ShouldEqual, 0)
				So(stats.LastPlaceTies, ShouldEqual, 0)
			})

			Convey("Then percentages sum to one", func() {
				pcts := stats.FirstPlacePcts()
				So(pcts["chalk"]+pcts["upset"], ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("Then the favorite's backer wins at the game probability", func() {
				So(stats.Participants["chalk"].FirstPlacePct, ShouldAlmostEqual, matchup.Probability(2000, 1500, 400), 0.01)
				So(stats.Participants["chalk"].LastPlace, ShouldEqual, stats.Participants["upset"].FirstPlace)
			})

			Convey("Then the seed is reported", func() {
				So(stats.Seed, ShouldEqual, 1)
				So(stats.Trials, ShouldEqual, 10_000)
				So(stats.TiePolicy, ShouldEqual, model.TieCreditAll)
			})
		})
	})

	Convey("Given a pool where two participants made the same pick", t, func() {
		participants := []model.Participant{
			{Name: "a", Picks: []model.Pick{{Round: 1, Slot: 0, Team: "Home", Points: 1}}},
			{Name: "b", Picks: []model.Pick{{Round: 1, Slot: 0, Team: "Home", Points: 1}}},
			{Name: "c", Picks: []model.Pick{{Round: 1, Slot: 0, Team: "Away", Points: 1}}},
		}
		agg := newAggregator([]rating.Record{{Team: "Home", Rating: 80}, {Team: "Away", Rating: 80}}, participants)

		Convey("When ties credit everyone", func() {
			stats, err := agg.CountOutcomes(context.Background(), aggregate.Request{
				Trials: 1000, Seed: seed(9), TiePolicy: model.TieCreditAll,
			})
			So(err, ShouldBeNil)
			a, b, c := stats.Participants["a"], stats.Participants["b"], stats.Participants["c"]

			Convey("Then tied leaders are all credited", func() {
				So(a.FirstPlace, ShouldEqual, b.FirstPlace)
				So(a.FirstPlace+c.FirstPlace, ShouldEqual, 1000)
				So(stats.FirstPlaceTies, ShouldEqual, a.FirstPlace)
				So(stats.LastPlaceTies, ShouldEqual, c.FirstPlace)
			})
		})

		Convey("When ties go to the tie bucket", func() {
			stats, err := agg.CountOutcomes(context.Background(), aggregate.Request{
				Trials: 1000, Seed: seed(9), TiePolicy: model.TieBucket,
			})
			So(err, ShouldBeNil)
			a, b, c := stats.Participants["a"], stats.Participants["b"], stats.Participants["c"]

			Convey("Then only sole leaders are credited", func() {
				So(a.FirstPlace, ShouldEqual, 0)
				So(b.FirstPlace, ShouldEqual, 0)
				So(c.FirstPlace+stats.FirstPlaceTies, ShouldEqual, 1000)
				So(a.LastPlace, ShouldEqual, 0)
				So(c.LastPlace, ShouldEqual, stats.FirstPlaceTies)
			})
		})

		Convey("When the tie policy is unknown", func() {
			_, err := agg.CountOutcomes(context.Background(), aggregate.Request{Trials: 1, TiePolicy: "split"})

			Convey("Then the request is rejected", func() {
				So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
			})
		})
	})

	Convey("Given an eight team pool", t, func() {
		participants := []model.Participant{
			champion("alice", "Gonzaga", 10),
			champion("bob", "Virginia", 10),
			champion("carol", "Ohio", 10),
		}
		agg := newAggregator(eight, participants)

		Convey("When running zero trials", func() {
			stats, err := agg.CountOutcomes(context.Background(), aggregate.Request{Trials: 0, Focal: "alice", Seed: seed(3)})
			So(err, ShouldBeNil)

			Convey("Then every count and percentage is zero", func() {
				So(stats.Trials, ShouldEqual, 0)
				So(stats.Participants, ShouldHaveLength, 3)
				for _, p := range stats.Participants {
					So(p.FirstPlace, ShouldEqual, 0)
					So(p.FirstPlacePct, ShouldEqual, 0)
					So(p.LastPlacePct, ShouldEqual, 0)
				}
				So(stats.Focal.Wins, ShouldEqual, 0)
				So(stats.Focal.Examples, ShouldBeEmpty)
				So(stats.Focal.RoundFrequency["Gonzaga"], ShouldResemble, []float64{0, 0, 0})
			})
		})

		Convey("When a champion is forced", func() {
			stats, err := agg.CountOutcomes(context.Background(), aggregate.Request{
				Trials: 500,
				Seed:   seed(4),
				Forced: []model.ForcedOutcome{{Team: "Ohio", Round: 4, Result: model.ResultReach}},
			})
			So(err, ShouldBeNil)

			Convey("Then its backer wins every trial", func() {
				So(stats.Participants["carol"].FirstPlacePct, ShouldEqual, 1.0)
				So(stats.Participants["alice"].FirstPlace, ShouldEqual, 0)
				So(stats.LastPlaceTies, ShouldEqual, 500)
			})
		})

		Convey("When the same seed is used twice", func() {
			req := aggregate.Request{Trials: 300, Seed: seed(77), Focal: "bob"}
			first, err := agg.CountOutcomes(context.Background(), req)
			So(err, ShouldBeNil)
			second, err := agg.CountOutcomes(context.Background(), req)
			So(err, ShouldBeNil)

			Convey("Then the results are identical", func() {
				So(second, ShouldResemble, first)
			})
		})

		Convey("When focal diagnostics are requested", func() {
			stats, err := agg.CountOutcomes(context.Background(), aggregate.Request{
				Trials: 2000, Seed: seed(11), Focal: "bob", ExampleCap: 3, TiePolicy: model.TieBucket,
			})
			So(err, ShouldBeNil)
			focal := stats.Focal
			So(focal, ShouldNotBeNil)

			Convey("Then focal wins match the participant's first places", func() {
				So(focal.Participant, ShouldEqual, "bob")
				So(focal.Wins, ShouldEqual, stats.Participants["bob"].FirstPlace)
				So(focal.Wins, ShouldBeGreaterThan, 0)
			})

			Convey("Then examples are capped, ordered and won by the focal participant", func() {
				So(focal.Examples, ShouldHaveLength, 3)
				for i, ex := range focal.Examples {
					if i > 0 {
						So(ex.Trial.Index, ShouldBeGreaterThan, focal.Examples[i-1].Trial.Index)
					}
					So(ex.Trial.Champion(), ShouldEqual, "Virginia")
					for _, score := range ex.Scores {
						So(ex.Scores["bob"], ShouldBeGreaterThanOrEqualTo, score)
					}
				}
			})

			Convey("Then round counts cover every game of every focal win", func() {
				for r := 1; r <= 3; r++ {
					total := 0
					for _, counts := range focal.RoundCounts {
						total += counts[r-1]
					}
					So(total, ShouldEqual, focal.Wins*(8>>r))
				}
				So(focal.RoundCounts["Virginia"][2], ShouldEqual, focal.Wins)
				So(focal.RoundFrequency["Virginia"][2], ShouldEqual, 1.0)
			})
		})

		Convey("When examples are disabled", func() {
			stats, err := agg.CountOutcomes(context.Background(), aggregate.Request{
				Trials: 200, Seed: seed(11), Focal: "bob", ExampleCap: -1,
			})
			So(err, ShouldBeNil)

			Convey("Then none are kept", func() {
				So(stats.Focal.Examples, ShouldBeEmpty)
			})
		})

		Convey("When the request is invalid", func() {
			cases := []struct {
				name string
				req  aggregate.Request
			}{
				{"negative trials", aggregate.Request{Trials: -1}},
				{"an unknown focal participant", aggregate.Request{Trials: 1, Focal: "mallory"}},
				{"conflicting forced outcomes", aggregate.Request{Trials: 1, Forced: []model.ForcedOutcome{
					{Team: "Gonzaga", Round: 1, Result: model.ResultWin},
					{Team: "Gonzaga", Round: 1, Result: model.ResultLose},
				}}},
			}
			for _, tc := range cases {
				Convey("Then "+tc.name+" is a configuration error", func() {
					_, err := agg.CountOutcomes(context.Background(), tc.req)
					So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
				})
			}
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := agg.CountOutcomes(ctx, aggregate.Request{Trials: 10, Seed: seed(1)})

			Convey("Then the batch stops", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given a participant with an impossible pick", t, func() {
		agg := newAggregator(eight, []model.Participant{champion("zed", "Kansas", 10)})

		Convey("Then the batch is rejected before any trial runs", func() {
			_, err := agg.CountOutcomes(context.Background(), aggregate.Request{Trials: 10})
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})
	})
}

func TestTallyMerge(t *testing.T) {
	Convey("Given a plan split across two tallies", t, func() {
		agg := newAggregator(eight, []model.Participant{
			champion("alice", "Gonzaga", 10),
			champion("bob", "Creighton", 10),
			{Name: "carol", BasePoints: 4},
		})
		plan, err := agg.Prepare(aggregate.Request{Trials: 400, Seed: seed(2021), Focal: "alice", ExampleCap: 4})
		So(err, ShouldBeNil)

		even, odd := agg.NewTally(plan), agg.NewTally(plan)
		for i := 0; i < plan.Trials; i++ {
			tally := even
			if i%2 == 1 {
				tally = odd
			}
			So(agg.RunTrial(plan, i, tally), ShouldBeNil)
		}
		odd.Merge(even)

		Convey("Then the merged stats equal a sequential run", func() {
			sequential, err := agg.Execute(context.Background(), plan)
			So(err, ShouldBeNil)
			So(odd.Trials(), ShouldEqual, 400)
			So(odd.Finalize(), ShouldResemble, sequential.Finalize())
		})
	})
}

func TestRequestFingerprint(t *testing.T) {
	Convey("Given two requests", t, func() {
		seven := int64(7)
		base := aggregate.Request{Trials: 100, Seed: &seven, Forced: []model.ForcedOutcome{{Team: "Gonzaga", Round: 2, Result: model.ResultWin}}}
		same := aggregate.Request{Trials: 100, Seed: &seven, Forced: []model.ForcedOutcome{{Team: "Gonzaga", Round: 2, Result: model.ResultWin}}}

		Convey("Then equal content gives equal fingerprints", func() {
			So(same.Fingerprint(), ShouldEqual, base.Fingerprint())
			So(base.Fingerprint(), ShouldHaveLength, 64)
		})

		Convey("Then any changed field changes the fingerprint", func() {
			other := same
			other.Forced = []model.ForcedOutcome{{Team: "Gonzaga", Round: 2, Result: model.ResultLose}}
			So(other.Fingerprint(), ShouldNotEqual, base.Fingerprint())

			other = same
			other.Seed = nil
			So(other.Fingerprint(), ShouldNotEqual, base.Fingerprint())

			other = same
			other.TiePolicy = model.TieBucket
			So(other.Fingerprint(), ShouldNotEqual, base.Fingerprint())
		})
	})
}

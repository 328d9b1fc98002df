package gestureload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/enso/internal/adapters/http/api"
	service "github.com/okian/enso/internal/app"
	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/internal/domain/scoring"
	"github.com/okian/enso/pkg/logger"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.Sessions = 8
	cfg.AttemptsPerSession = 2
	cfg.Points = 64
	cfg.Radius = 100
	cfg.Workers = 4
	cfg.Settle = 5 * time.Second
	return cfg
}

func TestConfigValidate(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := DefaultConfig()
		So(cfg.Validate(), ShouldBeNil)

		Convey("Then invalid settings should be rejected", func() {
			for _, mutate := range []func(*Config){
				func(c *Config) { c.BaseURL = "" },
				func(c *Config) { c.Sessions = 0 },
				func(c *Config) { c.AttemptsPerSession = 0 },
				func(c *Config) { c.Points = 8 },
				func(c *Config) { c.Radius = 0 },
				func(c *Config) { c.MaxNoise = 1 },
				func(c *Config) { c.Workers = 0 },
				func(c *Config) { c.MaxLimit = 0 },
			} {
				c := DefaultConfig()
				mutate(&c)
				So(errors.Is(c.Validate(), ErrInvalidConfig), ShouldBeTrue)
			}
		})
	})
}

func TestNoisyCircle(t *testing.T) {
	Convey("Given wobbly circles around a reference point", t, func() {
		ref := geometry.Pt(400, 300)

		Convey("Then the judged score should match the closed form", func() {
			for _, amp := range []float64{0, 0.05, 0.1, 0.2} {
				for freq := minWobbleFreq; freq <= maxWobbleFreq; freq++ {
					v := scoring.Evaluate(ref, noisyCircle(ref, 120, amp, 64, freq, 0.7))
					So(v.Outcome, ShouldEqual, scoring.OutcomeScored)
					So(v.Score, ShouldAlmostEqual, expectedScore(amp), 1e-6)
				}
			}
		})

		Convey("And more wobble should never score higher", func() {
			prev := 101.0
			for i := range 10 {
				v := scoring.Evaluate(ref, noisyCircle(ref, 120, noiseFor(i, 10, 0.2), 64, 5, 1.3))
				So(v.Score, ShouldBeLessThanOrEqualTo, prev)
				prev = v.Score
			}
		})
	})
}

func TestPlanPlayers(t *testing.T) {
	Convey("Given a plan for five players", t, func() {
		cfg := testConfig("http://unused")
		cfg.Sessions = 5
		a, b := planPlayers(cfg), planPlayers(cfg)

		Convey("Then noise should grow from zero to the maximum", func() {
			So(a[0].Noise, ShouldEqual, 0)
			So(a[4].Noise, ShouldAlmostEqual, cfg.MaxNoise, 1e-12)
			for i := 1; i < len(a); i++ {
				So(a[i].Noise, ShouldBeGreaterThan, a[i-1].Noise)
			}
		})

		Convey("And the same seed should give the same shapes with fresh attempt ids", func() {
			for i := range a {
				So(a[i].Gestures, ShouldHaveLength, cfg.AttemptsPerSession)
				for j := range a[i].Gestures {
					So(a[i].Gestures[j].freq, ShouldEqual, b[i].Gestures[j].freq)
					So(a[i].Gestures[j].phase, ShouldEqual, b[i].Gestures[j].phase)
					So(a[i].Gestures[j].AttemptID, ShouldNotEqual, b[i].Gestures[j].AttemptID)
				}
			}
		})

		Convey("And drawn gestures should be centred on the reference", func() {
			p := a[2]
			p.Reference = geometry.Pt(50, 60)
			drawGestures(cfg, p)
			So(p.Gestures[0].Points, ShouldHaveLength, cfg.Points)
			v := scoring.Evaluate(p.Reference, p.Gestures[0].Points)
			So(v.Fit.Center.X, ShouldAlmostEqual, 50, 1e-6)
			So(v.Fit.Center.Y, ShouldAlmostEqual, 60, 1e-6)
		})
	})
}

func TestVerifyResults(t *testing.T) {
	Convey("Given two players ordered by noise", t, func() {
		players := []*Player{
			{Name: "a", SessionID: "s-1", Noise: 0},
			{Name: "b", SessionID: "s-2", Noise: 0.1},
		}
		best := []float64{100, expectedScore(0.1)}
		rankings := []Entry{
			{Rank: 1, SessionID: "s-1", Score: best[0]},
			{Rank: 2, SessionID: "s-2", Score: best[1]},
		}

		Convey("Then a consistent leaderboard should verify", func() {
			So(verifyResults(players, rankings, best, rankings), ShouldBeNil)
		})

		Convey("And a noisier player ranked higher should fail", func() {
			swapped := []Entry{
				{Rank: 2, SessionID: "s-1", Score: best[0]},
				{Rank: 1, SessionID: "s-2", Score: best[1]},
			}
			So(verifyResults(players, swapped, best, rankings), ShouldNotBeNil)
		})

		Convey("And a score that disagrees with the submission should fail", func() {
			So(verifyResults(players, rankings, []float64{99, best[1]}, rankings), ShouldNotBeNil)
		})

		Convey("And an unsorted or badly ranked leaderboard should fail", func() {
			So(verifyLeaderboardSorted(nil), ShouldNotBeNil)
			So(verifyLeaderboardSorted([]Entry{{Rank: 1, Score: 1}, {Rank: 2, Score: 2}}), ShouldNotBeNil)
			So(verifyLeaderboardSorted([]Entry{{Rank: 1, Score: 2}, {Rank: 3, Score: 1}}), ShouldNotBeNil)
			So(verifyLeaderboardSorted([]Entry{{Rank: 1, Score: 2}, {Rank: 2, Score: 2}}), ShouldNotBeNil)
			So(verifyLeaderboardSorted([]Entry{{Rank: 1, Score: 2}, {Rank: 1, Score: 2}, {Rank: 2, Score: 1}}), ShouldBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running enso server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(256))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		mux := http.NewServeMux()
		api.NewServer(svc, 100).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When the load run completes", func() {
			stats, err := Run(ctx, testConfig(srv.URL))

			Convey("Then the leaderboard should rank smoother circles higher", func() {
				So(err, ShouldBeNil)
				So(stats.SessionsCreated, ShouldEqual, 8)
				So(stats.AttemptsSubmitted, ShouldEqual, 16)
				So(stats.AttemptsScored, ShouldEqual, 16)
				So(stats.AttemptsFailed, ShouldEqual, 0)
				So(stats.RankingsRetrieved, ShouldEqual, 8)
				So(stats.LeaderboardEntries, ShouldEqual, 8)
			})
		})

		Convey("When the server is unreachable", func() {
			srv.Close()
			_, err := Run(ctx, testConfig(srv.URL))

			Convey("Then the health check should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check")
			})
		})
	})
}

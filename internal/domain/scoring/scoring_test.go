package scoring_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// circle samples n evenly spaced points on a circle, perturbing each
// radius by noise[i] when noise is non-nil.
func circle(c geometry.Point, r float64, n int, noise []float64) geometry.Path {
	out := make(geometry.Path, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		ri := r
		if noise != nil {
			ri += noise[i]
		}
		out[i] = geometry.Pt(c.X+ri*math.Cos(a), c.Y+ri*math.Sin(a))
	}
	return out
}

func diamond() geometry.Path {
	return geometry.Path{
		geometry.Pt(100, 0), geometry.Pt(0, 100), geometry.Pt(-100, 0), geometry.Pt(0, -100),
	}
}

func TestScoreAndFit(t *testing.T) {
	Convey("Given the diamond path", t, func() {
		res := scoring.ScoreAndFit(diamond())

		Convey("Then the fit should be the unit diamond's circumcircle and the score perfect", func() {
			So(res.Fit.Center, ShouldResemble, geometry.Pt(0, 0))
			So(res.Fit.Radius, ShouldEqual, 100)
			So(res.TotalVariance, ShouldEqual, 0)
			So(res.Score, ShouldEqual, 100)
		})
	})

	Convey("Given 36 points sampled every 10 degrees on a circle of radius 100", t, func() {
		ref := geometry.Pt(400, 300)
		res := scoring.ScoreAndFit(circle(ref, 100, 36, nil))

		Convey("Then the score should be 100 within rounding", func() {
			So(res.Score, ShouldAlmostEqual, 100, 1e-9)
		})

		Convey("And the fit should recover centre and radius", func() {
			So(res.Fit.Radius, ShouldAlmostEqual, 100, 1e-9)
			So(res.Fit.Center.X, ShouldAlmostEqual, ref.X, 1e-9)
			So(res.Fit.Center.Y, ShouldAlmostEqual, ref.Y, 1e-9)
		})
	})

	Convey("Given the same circle drawn at two sizes", t, func() {
		noise := []float64{3, -2, 4, -1, 0, 2, -3, 1, -4, 2, 0, -2}
		small := circle(geometry.Pt(0, 0), 100, 12, noise)
		large := make(geometry.Path, len(small))
		for i, p := range small {
			large[i] = geometry.Pt(p.X*3, p.Y*3)
		}

		Convey("Then the score should not depend on the drawing size", func() {
			So(scoring.ScoreAndFit(large).Score, ShouldAlmostEqual, scoring.ScoreAndFit(small).Score, 1e-9)
		})
	})

	Convey("Given a stroke scrubbed back and forth along a line", t, func() {
		var path geometry.Path
		for k := 0; k < 4; k++ {
			for x := 0.0; x <= 100; x += 25 {
				path = append(path, geometry.Pt(x, 0))
			}
			for x := 75.0; x > 0; x -= 25 {
				path = append(path, geometry.Pt(x, 0))
			}
		}

		Convey("Then the score should be low", func() {
			So(scoring.ScoreAndFit(path).Score, ShouldBeLessThan, 10)
		})
	})

	Convey("Given increasing radial noise", t, func() {
		rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic test noise
		unit := make([]float64, 72)
		for i := range unit {
			unit[i] = rng.Float64()*2 - 1
		}

		Convey("Then the score should never increase", func() {
			prev := math.Inf(1)
			for _, amp := range []float64{0, 1, 2, 5, 10, 20, 40, 60} {
				noise := make([]float64, len(unit))
				for i, u := range unit {
					noise[i] = u * amp
				}
				s := scoring.ScoreAndFit(circle(geometry.Pt(0, 0), 100, len(unit), noise)).Score
				So(s, ShouldBeLessThanOrEqualTo, prev)
				So(s, ShouldBeBetweenOrEqual, 0, 100)
				prev = s
			}
		})
	})

	Convey("Given points that all coincide", t, func() {
		path := geometry.Path{geometry.Pt(5, 5), geometry.Pt(5, 5), geometry.Pt(5, 5)}

		Convey("Then the literal formula should yield NaN", func() {
			res := scoring.ScoreAndFit(path)
			So(res.Fit.Radius, ShouldEqual, 0)
			So(math.IsNaN(res.Score), ShouldBeTrue)
		})
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given the diamond path", t, func() {
		path := diamond()

		Convey("When the reference point is the origin", func() {
			v := scoring.Evaluate(geometry.Pt(0, 0), path)

			Convey("Then it should be scored 100 with a fit", func() {
				So(v.Outcome, ShouldEqual, scoring.OutcomeScored)
				So(v.Scored(), ShouldBeTrue)
				So(v.Score, ShouldEqual, 100)
				So(v.Percent(), ShouldEqual, 100)
				So(v.Points, ShouldEqual, 4)
				So(v.Fit, ShouldNotBeNil)
				So(v.Fit.Radius, ShouldEqual, 100)
				So(v.Message, ShouldBeEmpty)
			})
		})

		Convey("When the reference point is (200, 200)", func() {
			v := scoring.Evaluate(geometry.Pt(200, 200), path)

			Convey("Then it should be an outside miss", func() {
				So(v.Outcome, ShouldEqual, scoring.OutcomeOutside)
				So(v.Score, ShouldEqual, 0)
				So(v.Fit, ShouldBeNil)
				So(v.Message, ShouldEqual, "The red dot is not inside your circle!")
			})
		})
	})

	Convey("Given paths shorter than three points", t, func() {
		Convey("Then they should be too-short misses without scoring", func() {
			for _, p := range []geometry.Path{nil, {geometry.Pt(1, 1)}, {geometry.Pt(-1, 1), geometry.Pt(1, -1)}} {
				v := scoring.Evaluate(geometry.Pt(0, 0), p)
				So(v.Outcome, ShouldEqual, scoring.OutcomeTooShort)
				So(v.Score, ShouldEqual, 0)
				So(v.Fit, ShouldBeNil)
			}
		})
	})

	Convey("Given a flat line", t, func() {
		path := geometry.Path{geometry.Pt(0, 0), geometry.Pt(100, 0), geometry.Pt(0, 0), geometry.Pt(100, 0)}

		Convey("Then it cannot enclose anything", func() {
			So(scoring.Evaluate(geometry.Pt(50, 0), path).Outcome, ShouldEqual, scoring.OutcomeOutside)
		})
	})

	Convey("Given a path whose squared radius overflows", t, func() {
		path := geometry.Path{
			geometry.Pt(2e160, 0), geometry.Pt(0, 1e160), geometry.Pt(-1e160, 0), geometry.Pt(0, -1e160),
		}

		Convey("Then the non-finite score should become a degenerate miss", func() {
			v := scoring.Evaluate(geometry.Pt(0, 0), path)
			So(v.Outcome, ShouldEqual, scoring.OutcomeDegenerate)
			So(v.Score, ShouldEqual, 0)
			So(v.Fit, ShouldBeNil)
		})
	})

	Convey("Given a judge that requires more points", t, func() {
		j := scoring.NewJudge(geometry.Pt(0, 0), scoring.WithMinPoints(5))

		Convey("Then a four point diamond should be too short", func() {
			So(j.MinPoints(), ShouldEqual, 5)
			So(j.Evaluate(diamond()).Outcome, ShouldEqual, scoring.OutcomeTooShort)
		})

		Convey("And a minimum below three should be ignored", func() {
			So(scoring.NewJudge(geometry.Pt(0, 0), scoring.WithMinPoints(1)).MinPoints(), ShouldEqual, scoring.MinPoints)
		})
	})
}

func TestVerdictPercent(t *testing.T) {
	Convey("Given scores near a rounding boundary", t, func() {
		So(scoring.Verdict{Score: 99.5}.Percent(), ShouldEqual, 100)
		So(scoring.Verdict{Score: 99.49}.Percent(), ShouldEqual, 99)
		So(scoring.Verdict{Score: 0}.Percent(), ShouldEqual, 0)
		So(scoring.Verdict{Score: 42.5}.Percent(), ShouldEqual, 43)
	})
}

func TestLeastSquaresFit(t *testing.T) {
	Convey("Given a sampled circle", t, func() {
		c := geometry.Pt(400, 300)
		fit, err := scoring.LeastSquaresFit(circle(c, 80, 36, nil))

		Convey("Then the algebraic fit should recover it", func() {
			So(err, ShouldBeNil)
			So(fit.Center.X, ShouldAlmostEqual, c.X, 1e-4)
			So(fit.Center.Y, ShouldAlmostEqual, c.Y, 1e-4)
			So(fit.Radius, ShouldAlmostEqual, 80, 1e-4)
		})
	})

	Convey("Given too few points", t, func() {
		_, err := scoring.LeastSquaresFit(geometry.Path{geometry.Pt(0, 0), geometry.Pt(1, 1)})

		Convey("Then the fit should be underdetermined", func() {
			So(errors.Is(err, scoring.ErrUnderdetermined), ShouldBeTrue)
		})
	})

	Convey("Given collinear points", t, func() {
		_, err := scoring.LeastSquaresFit(geometry.Path{geometry.Pt(0, 0), geometry.Pt(1, 0), geometry.Pt(2, 0), geometry.Pt(3, 0)})

		Convey("Then the fit should be rejected", func() {
			So(errors.Is(err, scoring.ErrUnderdetermined), ShouldBeTrue)
		})
	})
}

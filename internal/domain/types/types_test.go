package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/internal/domain/scoring"
	"github.com/okian/enso/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPercent(t *testing.T) {
	Convey("Given scores", t, func() {
		So(types.Percent(0), ShouldEqual, 0)
		So(types.Percent(49.5), ShouldEqual, 50)
		So(types.Percent(49.49), ShouldEqual, 49)
		So(types.Percent(100), ShouldEqual, 100)
	})
}

func TestSessionViewJSON(t *testing.T) {
	Convey("Given a session view", t, func() {
		v := types.SessionView{
			SessionID: "s-1", Player: "ada", BestScore: 88.2, Percent: 88, Attempts: 3,
			Reference: geometry.Pt(400, 300),
		}

		Convey("Then it should use the API field names", func() {
			b, err := json.Marshal(v)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual,
				`{"session_id":"s-1","player":"ada","best_score":88.2,"best_percent":88,"attempts":3,"reference":{"x":400,"y":300}}`)
		})
	})
}

func TestNewAttemptResult(t *testing.T) {
	Convey("Given a scored verdict", t, func() {
		fit := scoring.FitCircle{Center: geometry.Pt(400, 300), Radius: 99.5}
		v := scoring.Verdict{Outcome: scoring.OutcomeScored, Score: 92.5, Fit: &fit, Points: 36}

		Convey("Then the result should carry the verdict and the best", func() {
			r := types.NewAttemptResult("a-1", v, 95.2, false)
			So(r.Percent, ShouldEqual, 93)
			So(r.BestPercent, ShouldEqual, 95)
			So(r.Fit, ShouldPointTo, &fit)
			So(r.Duplicate, ShouldBeFalse)
		})
	})

	Convey("Given an outside verdict", t, func() {
		v := scoring.Evaluate(geometry.Pt(500, 500), geometry.Path{geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(0, 10)})

		Convey("Then the JSON should carry the miss message and omit the fit", func() {
			b, err := json.Marshal(types.NewAttemptResult("a-2", v, 0, false))
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual,
				`{"attempt_id":"a-2","outcome":"outside","score":0,"percent":0,"points":3,"message":"The red dot is not inside your circle!","best_score":0,"best_percent":0,"improved":false,"duplicate":false}`)
		})
	})
}

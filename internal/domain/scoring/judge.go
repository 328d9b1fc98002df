package scoring

import (
	"math"

	"github.com/okian/enso/internal/domain/geometry"
)

// MinPoints is the smallest path that can be scored.
const MinPoints = 3

// Outcome classifies a judged gesture.
type Outcome string

// Outcomes reported by Evaluate.
const (
	OutcomeScored     Outcome = "scored"
	OutcomeTooShort   Outcome = "too_short"
	OutcomeOutside    Outcome = "outside"
	OutcomeDegenerate Outcome = "degenerate"
)

// Miss messages shown to the player.
const (
	msgTooShort   = "Draw a longer stroke."
	msgOutside    = "The red dot is not inside your circle!"
	msgDegenerate = "That is not a circle."
)

// Verdict is what a completed gesture earns.
type Verdict struct {
	Outcome Outcome    `json:"outcome"`
	Score   float64    `json:"score"`
	Fit     *FitCircle `json:"fit,omitempty"`
	Points  int        `json:"points"`
	Message string     `json:"message,omitempty"`
}

// Scored reports whether the gesture reached the circle-fit scorer and
// produced a finite score.
func (v Verdict) Scored() bool { return v.Outcome == OutcomeScored }

// Percent is the score rounded half up, as displayed to the player.
func (v Verdict) Percent() int {
	return int(math.Floor(v.Score + 0.5))
}

// Option applies a configuration option to the Judge.
type Option func(*Judge)

// WithMinPoints raises the number of points a gesture needs to be scored.
// Values below MinPoints are ignored.
func WithMinPoints(n int) Option {
	return func(j *Judge) {
		if n >= MinPoints {
			j.minPoints = n
		}
	}
}

// Judge gates a gesture and scores it against a fixed reference point.
// It holds no mutable state and is safe for concurrent use.
type Judge struct {
	reference geometry.Point
	minPoints int
}

// NewJudge creates a Judge for the given reference point.
func NewJudge(reference geometry.Point, opts ...Option) *Judge {
	j := &Judge{reference: reference, minPoints: MinPoints}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Reference returns the point gestures must enclose.
func (j *Judge) Reference() geometry.Point { return j.reference }

// MinPoints returns the configured minimum gesture length.
func (j *Judge) MinPoints() int { return j.minPoints }

// Evaluate judges path: too-short paths and paths that do not enclose the
// reference point are misses with score 0; the rest are scored by
// ScoreAndFit. A non-finite score (all points coincide) is reported as
// OutcomeDegenerate with score 0.
func (j *Judge) Evaluate(path geometry.Path) Verdict {
	v := Verdict{Points: len(path)}
	switch {
	case len(path) < j.minPoints:
		v.Outcome, v.Message = OutcomeTooShort, msgTooShort
		return v
	case !geometry.Contains(j.reference, path):
		v.Outcome, v.Message = OutcomeOutside, msgOutside
		return v
	}

	res := ScoreAndFit(path)
	if math.IsNaN(res.Score) || math.IsInf(res.Score, 0) {
		v.Outcome, v.Message = OutcomeDegenerate, msgDegenerate
		return v
	}
	fit := res.Fit
	v.Outcome = OutcomeScored
	v.Score = res.Score
	v.Fit = &fit
	return v
}

// Evaluate judges path against ref with the default minimum length.
func Evaluate(ref geometry.Point, path geometry.Path) Verdict {
	return NewJudge(ref).Evaluate(path)
}

// Package scoring rates how closely a drawn path follows a circle.
package scoring

import (
	"math"

	"github.com/okian/enso/internal/domain/geometry"
)

// sensitivity scales the normalised variance into score points.
const sensitivity = 2500

// maxScore is the score of a path whose points all lie on the fit circle.
const maxScore = 100

// FitCircle is the circle derived from a path's centroid and mean radius.
type FitCircle struct {
	Center geometry.Point `json:"center"`
	Radius float64        `json:"radius"`
}

// Result is the outcome of ScoreAndFit.
type Result struct {
	Score float64
	Fit   FitCircle
	// TotalVariance is the sum of squared radial deviations from Fit.
	TotalVariance float64
}

// ScoreAndFit fits a circle to path and scores how uniformly the path's
// vertices lie on it.
//
// The centre is the mean vertex position and the radius the mean distance
// to that centre; this is not a least-squares fit. The score is
//
//	max(0, 100 - totalVariance/(n*radius²)*2500)
//
// which is independent of drawing size. path must hold at least three
// points; callers gate that (see Evaluate). A path whose points all
// coincide has zero radius and yields a NaN score.
func ScoreAndFit(path geometry.Path) Result {
	n := float64(len(path))

	var sx, sy float64
	for _, p := range path {
		sx += p.X
		sy += p.Y
	}
	center := geometry.Pt(sx/n, sy/n)

	dist := make([]float64, len(path))
	var sd float64
	for i, p := range path {
		dist[i] = p.Distance(center)
		sd += dist[i]
	}
	radius := sd / n

	var tv float64
	for _, d := range dist {
		dev := d - radius
		tv += dev * dev
	}

	score := math.Max(0, maxScore-(tv/(n*radius*radius))*sensitivity)
	return Result{
		Score:         score,
		Fit:           FitCircle{Center: center, Radius: radius},
		TotalVariance: tv,
	}
}

package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/enso/internal/domain/geometry"
	"gonum.org/v1/gonum/mat"
)

// ErrUnderdetermined is returned when a path cannot pin down a circle.
var ErrUnderdetermined = errors.New("path does not determine a circle")

// LeastSquaresFit fits a circle to path with the algebraic (Kåsa) method,
// solving x²+y²+Dx+Ey+F = 0 in the least-squares sense.
//
// It is a diagnostic only; scores always come from ScoreAndFit.
func LeastSquaresFit(path geometry.Path) (FitCircle, error) {
	if len(path) < MinPoints {
		return FitCircle{}, fmt.Errorf("%w: %d points", ErrUnderdetermined, len(path))
	}

	a := mat.NewDense(len(path), 3, nil)
	b := mat.NewVecDense(len(path), nil)
	for i, p := range path {
		a.Set(i, 0, p.X)
		a.Set(i, 1, p.Y)
		a.Set(i, 2, 1)
		b.SetVec(i, -(p.X*p.X + p.Y*p.Y))
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return FitCircle{}, fmt.Errorf("%w: %v", ErrUnderdetermined, err)
	}

	d, e, f := sol.AtVec(0), sol.AtVec(1), sol.AtVec(2)
	cx, cy := -d/2, -e/2
	r2 := cx*cx + cy*cy - f
	if r2 <= 0 || math.IsNaN(r2) || math.IsInf(r2, 0) {
		return FitCircle{}, fmt.Errorf("%w: radius² %g", ErrUnderdetermined, r2)
	}
	return FitCircle{Center: geometry.Pt(cx, cy), Radius: math.Sqrt(r2)}, nil
}

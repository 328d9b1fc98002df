// Package geometry holds the planar primitives shared by the scoring
// pipeline and the point-in-polygon test used to gate it.
package geometry

import (
	"fmt"
	"math"
)

// Point is a position in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt returns the point (x, y).
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Distance returns the Euclidean distance between p and o.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// IsFinite reports whether both coordinates are finite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Path is a polyline in drawing order. It is treated as closed: the last
// vertex connects back to the first.
type Path []Point

// Len returns the number of vertices.
func (p Path) Len() int { return len(p) }

// Clone returns a copy that does not share storage with p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Rotate returns the same closed loop starting at vertex k.
func (p Path) Rotate(k int) Path {
	n := len(p)
	if n == 0 {
		return Path{}
	}
	k = ((k % n) + n) % n
	out := make(Path, 0, n)
	out = append(out, p[k:]...)
	return append(out, p[:k]...)
}

// Bounds returns the axis-aligned bounding box of the path.
// ok is false for an empty path.
func (p Path) Bounds() (lo, hi Point, ok bool) {
	if len(p) == 0 {
		return Point{}, Point{}, false
	}
	lo, hi = p[0], p[0]
	for _, pt := range p[1:] {
		lo.X = math.Min(lo.X, pt.X)
		lo.Y = math.Min(lo.Y, pt.Y)
		hi.X = math.Max(hi.X, pt.X)
		hi.Y = math.Max(hi.Y, pt.Y)
	}
	return lo, hi, true
}

package render

import (
	"math"

	"github.com/okian/enso/internal/domain/geometry"
)

// clipRect is an axis-aligned rectangle used to clip closed polygons.
type clipRect struct {
	minX, minY, maxX, maxY float64
}

func newClipRect(width, height, margin float64) clipRect {
	return clipRect{minX: -margin, minY: -margin, maxX: width + margin, maxY: height + margin}
}

// nearest returns the distance from p to the rectangle, 0 inside it.
func (r clipRect) nearest(p geometry.Point) float64 {
	dx := max(r.minX-p.X, 0, p.X-r.maxX)
	dy := max(r.minY-p.Y, 0, p.Y-r.maxY)
	return math.Hypot(dx, dy)
}

// farthest returns the distance from p to the farthest corner.
func (r clipRect) farthest(p geometry.Point) float64 {
	dx := max(math.Abs(p.X-r.minX), math.Abs(p.X-r.maxX))
	dy := max(math.Abs(p.Y-r.minY), math.Abs(p.Y-r.maxY))
	return math.Hypot(dx, dy)
}

// polygon clips a closed polygon with the Sutherland-Hodgman algorithm.
// The winding number of every point inside r is preserved. Polygons with a
// non-finite vertex are dropped.
func (r clipRect) polygon(poly []geometry.Point) []geometry.Point {
	for _, p := range poly {
		if !p.IsFinite() {
			return nil
		}
	}
	edges := [...]struct {
		inside func(geometry.Point) bool
		cross  func(a, b geometry.Point) geometry.Point
	}{
		{func(p geometry.Point) bool { return p.X >= r.minX }, func(a, b geometry.Point) geometry.Point { return atX(a, b, r.minX) }},
		{func(p geometry.Point) bool { return p.X <= r.maxX }, func(a, b geometry.Point) geometry.Point { return atX(a, b, r.maxX) }},
		{func(p geometry.Point) bool { return p.Y >= r.minY }, func(a, b geometry.Point) geometry.Point { return atY(a, b, r.minY) }},
		{func(p geometry.Point) bool { return p.Y <= r.maxY }, func(a, b geometry.Point) geometry.Point { return atY(a, b, r.maxY) }},
	}
	out := poly
	for _, e := range edges {
		if len(out) == 0 {
			return nil
		}
		in := out
		out = make([]geometry.Point, 0, len(in)+4)
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur):
				if !e.inside(prev) {
					out = append(out, e.cross(prev, cur))
				}
				out = append(out, cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return out
}

// atX returns the point of segment ab on the vertical line x. a and b lie on
// opposite sides of it.
func atX(a, b geometry.Point, x float64) geometry.Point {
	t := (x - a.X) / (b.X - a.X)
	return geometry.Pt(x, a.Y+t*(b.Y-a.Y))
}

// atY returns the point of segment ab on the horizontal line y.
func atY(a, b geometry.Point, y float64) geometry.Point {
	t := (y - a.Y) / (b.Y - a.Y)
	return geometry.Pt(a.X+t*(b.X-a.X), y)
}

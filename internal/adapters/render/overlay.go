// Package render draws the result overlay of an attempt: the drawn path,
// the fitted circle and the reference dot.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"

	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/internal/domain/scoring"
)

// Colours and sizes of the game page canvas.
var (
	Background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	PathColor  = color.NRGBA{A: 255}
	FitColor   = color.NRGBA{R: 76, G: 175, B: 80, A: 179} // rgba(76,175,80,0.7)
	DotColor   = color.NRGBA{R: 255, A: 255}
)

const (
	pathWidth      = 2.0
	fitWidth       = 2.0
	dotRadius      = 5.0
	circleSegments = 128
	clipMargin     = 2.0
)

// Renderer rasterises overlays for a fixed canvas size.
type Renderer struct {
	width, height int
	scale         float64
}

// NewRenderer creates a renderer for a width x height canvas.
func NewRenderer(width, height int, opts ...Option) *Renderer {
	r := &Renderer{width: width, height: height, scale: 1}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Size returns the output image size.
func (r *Renderer) Size() image.Point {
	return image.Pt(
		max(1, int(math.Round(float64(r.width)*r.scale))),
		max(1, int(math.Round(float64(r.height)*r.scale))),
	)
}

// Render draws the overlay. fit may be nil for misses, in which case only
// the path and the reference dot are drawn.
func (r *Renderer) Render(ref geometry.Point, path geometry.Path, fit *scoring.FitCircle) *image.RGBA {
	size := r.Size()
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	c := canvas{
		dst:   dst,
		ras:   vector.NewRasterizer(size.X, size.Y),
		scale: r.scale,
		clip:  newClipRect(float64(size.X), float64(size.Y), clipMargin),
	}
	c.polyline(path, pathWidth, PathColor)
	if fit != nil && fit.Radius > 0 && !math.IsNaN(fit.Radius) {
		c.ring(fit.Center, fit.Radius, fitWidth, FitColor)
	}
	c.disc(ref, dotRadius, DotColor)
	return dst
}

// WritePNG renders the overlay and encodes it as PNG.
func (r *Renderer) WritePNG(w io.Writer, ref geometry.Point, path geometry.Path, fit *scoring.FitCircle) error {
	return png.Encode(w, r.Render(ref, path, fit))
}

// canvas collects closed subpaths in device pixels and clips each one to
// the image before it reaches the rasterizer, whose cost grows with the
// extent of the geometry it is given.
type canvas struct {
	dst   *image.RGBA
	ras   *vector.Rasterizer
	scale float64
	clip  clipRect
	sub   []geometry.Point
}

func (c *canvas) device(p geometry.Point) geometry.Point {
	return geometry.Pt(p.X*c.scale, p.Y*c.scale)
}

func (c *canvas) fill(col color.Color) {
	c.closePath()
	c.ras.DrawOp = draw.Over
	c.ras.Draw(c.dst, c.dst.Bounds(), image.NewUniform(col), image.Point{})
	b := c.dst.Bounds()
	c.ras.Reset(b.Dx(), b.Dy())
}

// polyline strokes consecutive points, one quad per segment. Every quad is
// wound the same way, so overlaps at joints stay covered in a single fill.
func (c *canvas) polyline(path geometry.Path, width float64, col color.Color) {
	hw := width / 2 / c.scale
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		d := a.Distance(b)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		nx, ny := -(b.Y-a.Y)/d*hw, (b.X-a.X)/d*hw
		c.moveTo(geometry.Pt(a.X+nx, a.Y+ny))
		c.lineTo(geometry.Pt(b.X+nx, b.Y+ny))
		c.lineTo(geometry.Pt(b.X-nx, b.Y-ny))
		c.lineTo(geometry.Pt(a.X-nx, a.Y-ny))
		c.closePath()
	}
	c.fill(col)
}

// ring strokes a circle as an annulus: the outer edge is traced clockwise
// and the inner edge anticlockwise so the inner disc cancels out. Rings
// that miss the image, or hold all of it in their hole, draw nothing.
func (c *canvas) ring(center geometry.Point, radius, width float64, col color.Color) {
	hw := width / 2 / c.scale
	view := c.view()
	if view.nearest(center) > radius+hw || view.farthest(center) < radius-hw {
		return
	}
	c.circle(center, radius+hw, false)
	if inner := radius - hw; inner > 0 {
		c.circle(center, inner, true)
	}
	c.fill(col)
}

// view is the image area in path coordinates.
func (c *canvas) view() clipRect {
	b := c.dst.Bounds()
	return newClipRect(float64(b.Dx())/c.scale, float64(b.Dy())/c.scale, 0)
}

func (c *canvas) disc(center geometry.Point, radius float64, col color.Color) {
	c.circle(center, radius/c.scale, false)
	c.fill(col)
}

func (c *canvas) circle(center geometry.Point, radius float64, reverse bool) {
	for i := 0; i <= circleSegments; i++ {
		t := 2 * math.Pi * float64(i) / circleSegments
		if reverse {
			t = -t
		}
		p := geometry.Pt(center.X+radius*math.Cos(t), center.Y+radius*math.Sin(t))
		if i == 0 {
			c.moveTo(p)
			continue
		}
		c.lineTo(p)
	}
	c.closePath()
}

func (c *canvas) moveTo(p geometry.Point) {
	c.closePath()
	c.sub = append(c.sub, c.device(p))
}

func (c *canvas) lineTo(p geometry.Point) { c.sub = append(c.sub, c.device(p)) }

// closePath clips the pending subpath and hands it to the rasterizer.
func (c *canvas) closePath() {
	poly := c.clip.polygon(c.sub)
	c.sub = c.sub[:0]
	if len(poly) < 3 {
		return
	}
	c.ras.MoveTo(float32(poly[0].X), float32(poly[0].Y))
	for _, p := range poly[1:] {
		c.ras.LineTo(float32(p.X), float32(p.Y))
	}
	c.ras.ClosePath()
}

package render_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/enso/internal/adapters/render"
	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/internal/domain/scoring"
)

func square() geometry.Path {
	return geometry.Path{
		geometry.Pt(50, 50), geometry.Pt(150, 50), geometry.Pt(150, 150), geometry.Pt(50, 150), geometry.Pt(50, 50),
	}
}

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRenderScoredAttempt(t *testing.T) {
	ref := geometry.Pt(100, 100)
	path := square()
	res := scoring.ScoreAndFit(path[:4])
	require.InDelta(t, 70.71, res.Fit.Radius, 0.01)

	img := render.NewRenderer(200, 200).Render(ref, path, &res.Fit)
	require.Equal(t, image.Rect(0, 0, 200, 200), img.Bounds())

	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgba(img, 5, 5), "background")

	edge := rgba(img, 100, 50)
	assert.Less(t, edge.R, uint8(60), "path is drawn in black")
	assert.Less(t, edge.G, uint8(60))

	dot := rgba(img, 100, 100)
	assert.Greater(t, dot.R, uint8(200), "reference dot is red")
	assert.Less(t, dot.G, uint8(60))

	ring := rgba(img, 170, 100)
	assert.Greater(t, ring.G, ring.R, "fit circle is green")
	assert.Greater(t, ring.G, ring.B)
	assert.Less(t, ring.R, uint8(200), "fit circle is not background")

	inside := rgba(img, 130, 100)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, inside, "annulus leaves its interior untouched")
}

func TestRenderMissHasNoCircle(t *testing.T) {
	img := render.NewRenderer(200, 200).Render(geometry.Pt(100, 100), square(), nil)

	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgba(img, 170, 100))
	assert.Greater(t, rgba(img, 100, 100).R, uint8(200))
}

func TestRenderDegenerateInputs(t *testing.T) {
	r := render.NewRenderer(64, 48)
	fit := &scoring.FitCircle{Center: geometry.Pt(10, 10), Radius: 0}
	path := geometry.Path{geometry.Pt(3, 3), geometry.Pt(3, 3), geometry.Pt(3, 3)}

	assert.NotPanics(t, func() { r.Render(geometry.Pt(32, 24), path, fit) })
	assert.NotPanics(t, func() { r.Render(geometry.Pt(32, 24), nil, nil) })
}

func TestWritePNGScaled(t *testing.T) {
	r := render.NewRenderer(800, 600, render.WithMaxSide(400))
	assert.Equal(t, image.Pt(400, 300), r.Size())

	var buf bytes.Buffer
	require.NoError(t, r.WritePNG(&buf, geometry.Pt(400, 300), square(), nil))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 300), img.Bounds())
	assert.Greater(t, rgba(img, 200, 150).R, uint8(200), "dot follows the scaled reference point")
}

var white = color.RGBA{255, 255, 255, 255}

func TestRenderFarOffGeometryIsBounded(t *testing.T) {
	r := render.NewRenderer(800, 600)
	ref := geometry.Pt(400, 300)

	for _, m := range []float64{1e4, 1e8, 1e12, 1e20} {
		path := geometry.Path{
			geometry.Pt(400-m, 300-m), geometry.Pt(400+m, 300-m),
			geometry.Pt(400+m, 300+m), geometry.Pt(400-m, 300+m),
		}
		res := scoring.ScoreAndFit(path)
		require.Greater(t, res.Fit.Radius, m)

		start := time.Now()
		require.NoError(t, r.WritePNG(io.Discard, ref, path, &res.Fit))
		require.NoError(t, r.WritePNG(io.Discard, ref, path, nil))
		assert.Less(t, time.Since(start).Seconds(), 2.0, "square at +-%g", m)
	}

	img := r.Render(ref, geometry.Path{geometry.Pt(-1e12, -1e12), geometry.Pt(1e12, -1e12), geometry.Pt(1e12, 1e12)}, nil)
	assert.Equal(t, white, rgba(img, 200, 150), "off-canvas edges leave the canvas blank")
	assert.Greater(t, rgba(img, 400, 300).R, uint8(200), "reference dot is still drawn")
}

func TestRenderClipsGeometryCrossingTheCanvas(t *testing.T) {
	r := render.NewRenderer(800, 600)
	ref := geometry.Pt(100, 100)

	// A line through the canvas with endpoints far outside it.
	line := geometry.Path{geometry.Pt(-1e12, 300), geometry.Pt(1e12, 300)}
	img := r.Render(ref, line, nil)
	for _, x := range []int{0, 400, 799} {
		px := rgba(img, x, 300)
		assert.Less(t, px.R, uint8(60), "line pixel at x=%d", x)
	}
	assert.Equal(t, white, rgba(img, 400, 250))

	// A huge fit circle whose rim passes through x=400 on the row y=300.
	fit := &scoring.FitCircle{Center: geometry.Pt(1e12, 300), Radius: 1e12 - 400}
	start := time.Now()
	img = r.Render(ref, nil, fit)
	assert.Less(t, time.Since(start).Seconds(), 2.0)

	rim := rgba(img, 400, 300)
	assert.Greater(t, rim.G, rim.R, "rim is green")
	assert.Less(t, rim.R, uint8(200))
	assert.Equal(t, white, rgba(img, 200, 300), "outside the circle")
	assert.Equal(t, white, rgba(img, 600, 300), "inside the annulus hole")
}

func TestRenderSkipsRingsThatMissTheCanvas(t *testing.T) {
	r := render.NewRenderer(200, 200)
	ref := geometry.Pt(100, 100)
	blank := r.Render(ref, nil, nil)

	for name, fit := range map[string]scoring.FitCircle{
		"far away":       {Center: geometry.Pt(5000, 5000), Radius: 100},
		"canvas in hole": {Center: geometry.Pt(100, 100), Radius: 1e9},
	} {
		img := r.Render(ref, nil, &fit)
		assert.Equal(t, blank.Pix, img.Pix, name)
	}
}

// Package site serves the embedded game page.
package site

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	defaultWidth  = 800
	defaultHeight = 600
)

// Canvas describes the drawing surface the page should create.
type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Option configures the site.
type Option func(*Canvas)

// WithCanvas sets the canvas size reported to the page.
func WithCanvas(width, height int) Option {
	return func(c *Canvas) {
		if width > 0 && height > 0 {
			c.Width, c.Height = width, height
		}
	}
}

// Register attaches the game page and its assets to mux.
//
//	GET /             -> index.html, game.js, style.css
//	GET /canvas.json  -> canvas size
func Register(_ context.Context, mux *http.ServeMux, opts ...Option) {
	if mux == nil {
		panic("mux is nil")
	}
	canvas := Canvas{Width: defaultWidth, Height: defaultHeight}
	for _, opt := range opts {
		opt(&canvas)
	}
	mux.Handle("GET /", http.FileServer(FS()))
	mux.HandleFunc("GET /canvas.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(canvas)
	})
}

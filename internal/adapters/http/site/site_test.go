package site

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func get(mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestSiteHandler(t *testing.T) {
	Convey("Given a registered site", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()
		Register(ctx, mux)

		Convey("Then the root should serve the game page", func() {
			w := get(mux, "/")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
			So(w.Body.String(), ShouldContainSubstring, `id="gameCanvas"`)
			So(w.Body.String(), ShouldContainSubstring, `id="reset-button"`)
		})

		Convey("And the script should be served", func() {
			w := get(mux, "/game.js")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "type: 'reset'")
			So(w.Body.String(), ShouldContainSubstring, "rgba(76, 175, 80, 0.7)")
		})

		Convey("And a stroke should only end on pointer release", func() {
			body := get(mux, "/game.js").Body.String()
			So(body, ShouldContainSubstring, "setPointerCapture(event.pointerId)")
			So(body, ShouldContainSubstring, "addEventListener('pointerup', stopDrawing)")
			So(body, ShouldNotContainSubstring, "pointerleave")
		})

		Convey("And the stylesheet should be served", func() {
			w := get(mux, "/style.css")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")
		})

		Convey("And unknown assets should be not found", func() {
			So(get(mux, "/some-asset").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And the default canvas size should be reported", func() {
			w := get(mux, "/canvas.json")
			So(w.Code, ShouldEqual, http.StatusOK)
			var c Canvas
			So(json.Unmarshal(w.Body.Bytes(), &c), ShouldBeNil)
			So(c, ShouldResemble, Canvas{Width: 800, Height: 600})
		})
	})
}

func TestSiteCanvasOption(t *testing.T) {
	Convey("Given a site registered with a custom canvas", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux, WithCanvas(320, 240), WithCanvas(0, 10))

		Convey("Then the configured size should be reported and invalid sizes ignored", func() {
			var c Canvas
			So(json.Unmarshal(get(mux, "/canvas.json").Body.Bytes(), &c), ShouldBeNil)
			So(c, ShouldResemble, Canvas{Width: 320, Height: 240})
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		Convey("Then registering should panic", func() {
			So(func() { Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

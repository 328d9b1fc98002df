package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/enso/internal/app"
	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then the reference point should be the canvas centre", func() {
			So(svc.Reference(), ShouldResemble, geometry.Pt(400, 300))
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithCanvas(1000, 500),
			service.WithWorkerCount(8),
			service.WithQueueSize(50),
			service.WithDedupeSize(25),
		)

		Convey("Then the options should apply", func() {
			So(svc.Reference(), ShouldResemble, geometry.Pt(500, 250))
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 50)
			So(stats["dedupeSize"], ShouldEqual, 25)
		})

		Convey("And an explicit reference should win over the canvas centre", func() {
			svc := service.New(service.WithCanvas(1000, 500), service.WithReference(geometry.Pt(10, 20)))
			So(svc.Reference(), ShouldResemble, geometry.Pt(10, 20))
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When it is used before Start", func() {
			_, err := svc.CreateSession(ctx, "ada")

			Convey("Then ErrNotStarted should be returned", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, err = svc.TopN(ctx, 1)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["sessions"], ShouldEqual, 0)

			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it should be marked as stopped and Stop should be idempotent", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

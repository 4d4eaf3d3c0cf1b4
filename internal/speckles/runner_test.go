package speckles_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/despeckle/internal/adapters/http/api"
	service "github.com/okian/despeckle/internal/app"
	"github.com/okian/despeckle/internal/speckles"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	Convey("Given a despeckle server", t, func() {
		svc, err := service.New(service.WithWorkerCount(4))
		So(err, ShouldBeNil)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := &speckles.Config{
			BaseURL:   srv.URL,
			NumPaths:  60,
			MaxBlobs:  3,
			MaxSpecks: 6,
			Area:      10,
			Segments:  4,
			Seed:      3,
			Workers:   4,
			Timeout:   10 * time.Second,
		}

		Convey("When the bench runs against it", func() {
			stats, err := speckles.Run(context.Background(), cfg)

			Convey("Then every path and the document verify", func() {
				So(err, ShouldBeNil)
				So(stats.PathsSubmitted, ShouldEqual, 60)
				So(stats.PathsVerified, ShouldEqual, 60)
				So(stats.DocumentNodes, ShouldEqual, 60)
			})
		})

		Convey("When the server is unreachable", func() {
			cfg.BaseURL = "http://127.0.0.1:1"
			_, err := speckles.Run(context.Background(), cfg)

			Convey("Then the health check fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

package main

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/despeckle/internal/config"
	"github.com/okian/despeckle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const document = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg">
  <g id="art">
    <path id="mixed" d="M0 0 L10 0 L10 10 L0 10 Z M20 20 L21 20 L21 21 L20 21 Z"/>
    <path id="dust" d="M5 5 L6 5 L6 6 Z"/>
  </g>
  <path id="outside" d="M0 0 L1 0 L1 1 Z"/>
</svg>
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRun_Filter(t *testing.T) {
	convey.Convey("Given an SVG file", t, func() {
		ctx := context.Background()
		in := writeTemp(t, "in.svg", document)
		var stdout, stderr bytes.Buffer

		convey.Convey("When it is filtered to stdout", func() {
			code := run(ctx, []string{in}, nil, &stdout, &stderr)

			convey.Convey("Then specks are removed and the rest is preserved", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				out := stdout.String()
				convey.So(out, convey.ShouldStartWith, `<?xml version="1.0"?>`)
				convey.So(out, convey.ShouldContainSubstring, `d="M 0 0 L 10 0 L 10 10 L 0 10 Z"`)
				convey.So(out, convey.ShouldNotContainSubstring, `id="dust"`)
				convey.So(out, convey.ShouldNotContainSubstring, `id="outside"`)
				convey.So(out, convey.ShouldContainSubstring, `<g id="art">`)
			})
		})

		convey.Convey("When a selection and an output file are given", func() {
			out := filepath.Join(t.TempDir(), "out.svg")
			code := run(ctx, []string{"--select", "outside", "-o", out, in}, nil, &stdout, &stderr)

			convey.Convey("Then only the selected subtree is processed", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				convey.So(stdout.Len(), convey.ShouldEqual, 0)
				data, err := os.ReadFile(out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, `id="dust"`)
				convey.So(string(data), convey.ShouldNotContainSubstring, `id="outside"`)
			})
		})

		convey.Convey("When the threshold is lowered with a short flag", func() {
			code := run(ctx, []string{"-a", "0.1", in}, nil, &stdout, &stderr)

			convey.Convey("Then every contour survives", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				convey.So(stdout.String(), convey.ShouldContainSubstring, `id="dust"`)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "M 20 20 L 21 20")
			})
		})

		convey.Convey("When an overlay is requested", func() {
			img := filepath.Join(t.TempDir(), "overlay.png")
			code := run(ctx, []string{"--overlay", img, "--overlay-size", "64", in}, nil, &stdout, &stderr)

			convey.Convey("Then a PNG of the requested size is written", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				f, err := os.Open(img)
				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = f.Close() }()
				cfg, err := png.DecodeConfig(f)
				convey.So(err, convey.ShouldBeNil)
				convey.So(max(cfg.Width, cfg.Height), convey.ShouldEqual, 64)
			})
		})
	})

	convey.Convey("Given a document on stdin with an arc", t, func() {
		ctx := context.Background()
		svg := `<svg><path id="arc" d="M0 0 A5 5 0 0 1 10 0 Z"/><path id="sq" d="M0 0 L10 0 L10 10 L0 10 Z"/></svg>`
		var stdout, stderr bytes.Buffer

		code := run(ctx, []string{"-"}, strings.NewReader(svg), &stdout, &stderr)

		convey.Convey("Then the output is still written but the run fails", func() {
			convey.So(code, convey.ShouldEqual, exitFailure)
			convey.So(stdout.String(), convey.ShouldContainSubstring, `d="M0 0 A5 5 0 0 1 10 0 Z"`)
			convey.So(stdout.String(), convey.ShouldContainSubstring, `id="sq"`)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "arc")
		})
	})
}

func TestRun_Usage(t *testing.T) {
	convey.Convey("Given bad invocations", t, func() {
		ctx := context.Background()
		var stdout, stderr bytes.Buffer

		convey.Convey("Then a missing file argument prints usage", func() {
			convey.So(run(ctx, nil, nil, &stdout, &stderr), convey.ShouldEqual, exitUsage)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "Usage:")
		})

		convey.Convey("Then an unknown flag is rejected", func() {
			convey.So(run(ctx, []string{"--bogus", "x.svg"}, nil, &stdout, &stderr), convey.ShouldEqual, exitUsage)
		})

		convey.Convey("Then invalid options are rejected", func() {
			convey.So(run(ctx, []string{"-s", "0", "x.svg"}, nil, &stdout, &stderr), convey.ShouldEqual, exitUsage)
		})

		convey.Convey("Then a missing file fails", func() {
			missing := filepath.Join(t.TempDir(), "nope.svg")
			convey.So(run(ctx, []string{missing}, nil, &stdout, &stderr), convey.ShouldEqual, exitFailure)
		})

		convey.Convey("Then help succeeds", func() {
			convey.So(run(ctx, []string{"--help"}, nil, &stdout, &stderr), convey.ShouldEqual, exitOK)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "--select")
		})
	})
}

func TestServe(t *testing.T) {
	convey.Convey("Given the serve mux", t, func() {
		convey.So(logger.Init(logger.WithWriter(&bytes.Buffer{})), convey.ShouldBeNil)

		cfg := mustConfig()
		svc, err := newService(cfg, mustLogger(), false)
		convey.So(err, convey.ShouldBeNil)
		mux := newMux(svc)

		for _, route := range []string{"/", "/healthz", "/openapi.yaml", "/api-docs", "/metrics", "/stats"} {
			convey.Convey("Then "+route+" is served", func() {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, route, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		}
	})

	convey.Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var stdout, stderr bytes.Buffer

		convey.Convey("When serve starts", func() {
			code := run(ctx, []string{"serve", "--addr", "127.0.0.1:0"}, nil, &stdout, &stderr)

			convey.Convey("Then it shuts down cleanly", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				convey.So(stderr.String(), convey.ShouldContainSubstring, "server stopped")
			})
		})
	})
}

func mustConfig() *config.Config {
	cfg, err := config.Load(context.Background(), nil)
	if err != nil {
		panic(err)
	}
	return cfg
}

func mustLogger() logger.Logger {
	return logger.Get()
}

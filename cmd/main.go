// Command despeckle removes small contours from the paths of an SVG
// document, or serves the same operation over HTTP.
//
//	despeckle [flags] FILE        filter FILE ("-" for stdin)
//	despeckle serve [flags]       run the HTTP API
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/despeckle/internal/adapters/http/api"
	"github.com/okian/despeckle/internal/adapters/http/site"
	"github.com/okian/despeckle/internal/adapters/http/swagger"
	"github.com/okian/despeckle/internal/adapters/overlay"
	"github.com/okian/despeckle/internal/adapters/svgdoc"
	service "github.com/okian/despeckle/internal/app"
	"github.com/okian/despeckle/internal/config"
	"github.com/okian/despeckle/pkg/logger"
	"github.com/okian/despeckle/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
)

// HTTP server timeout constants.
const (
	readTimeout            = 30 * time.Second
	writeTimeout           = 60 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const outputPermission = 0o644

const usage = `Usage:
  despeckle [flags] FILE      filter FILE ("-" reads stdin) and write the result
  despeckle serve [flags]     run the HTTP API

Flags:
`

// cliFlags are the flags that only make sense for a single run.
type cliFlags struct {
	output  string
	overlay string
	selects []string
	help    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args and dispatches to the filter or serve mode. Logs go to
// stderr so that stdout can carry the filtered document.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("despeckle", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(ctx, fs)
	var cf cliFlags
	fs.StringVarP(&cf.output, "output", "o", "", "write the filtered document to this file instead of stdout")
	fs.StringVar(&cf.overlay, "overlay", "", "write a PNG of the contour approximations to this file")
	fs.StringArrayVar(&cf.selects, "select", nil, "only process the subtree of the element with this id (repeatable)")
	fs.BoolVarP(&cf.help, "help", "h", false, "show this help")
	fs.Usage = func() {
		_, _ = io.WriteString(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if cf.help {
		fs.Usage()
		return exitOK
	}

	cfg, err := config.Load(ctx, fs)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return exitUsage
	}
	if err := logger.Init(
		logger.WithWriter(stderr),
		logger.WithJSON(strings.EqualFold(cfg.LogFormat, "json")),
	); err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to initialize logging: %v\n", err)
		return exitFailure
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	rest := fs.Args()
	switch {
	case len(rest) == 1 && rest[0] == "serve":
		return serve(ctx, cfg, log)
	case len(rest) == 1:
		return filterFile(ctx, cfg, cf, rest[0], stdin, stdout, log)
	default:
		fs.Usage()
		return exitUsage
	}
}

func newService(cfg *config.Config, log logger.Logger, debug bool) (*service.Service, error) {
	return service.New(
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithArea(cfg.Area),
		service.WithSegments(cfg.Segments),
		service.WithDebug(debug),
	)
}

// filterFile runs one document through the service. The filtered document
// is written even when some nodes fail; the exit status then reports the
// failure.
func filterFile(ctx context.Context, cfg *config.Config, cf cliFlags, name string, stdin io.Reader, stdout io.Writer, log logger.Logger) int {
	doc, err := readDocument(name, stdin)
	if err != nil {
		log.Error(ctx, "failed to read document", logger.String("file", name), logger.Error(err))
		return exitFailure
	}

	svc, err := newService(cfg, log, cfg.Debug || cf.overlay != "")
	if err != nil {
		log.Error(ctx, "invalid filter options", logger.Error(err))
		return exitUsage
	}
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return exitFailure
	}
	rep, err := svc.ProcessDocument(ctx, doc, cf.selects)
	_ = svc.Stop(context.WithoutCancel(ctx))
	if err != nil {
		log.Error(ctx, "document processing aborted", logger.Error(err))
		return exitFailure
	}

	if err := writeDocument(doc, cf.output, stdout); err != nil {
		log.Error(ctx, "failed to write document", logger.Error(err))
		return exitFailure
	}
	if cf.overlay != "" {
		if err := writeOverlay(cf.overlay, cfg.OverlaySize, rep); err != nil {
			log.Warn(ctx, "overlay not written", logger.String("file", cf.overlay), logger.Error(err))
		}
	}
	for _, d := range rep.Diagnostics {
		for _, c := range d.Contours {
			log.Debug(ctx, "contour diagnostic",
				logger.String("node", d.Node),
				logger.Int("index", c.Index),
				logger.Float64("area", c.Area),
				logger.Bool("kept", c.Kept),
				logger.String("overlay", c.Overlay),
			)
		}
	}

	if err := rep.Err(); err != nil {
		log.Error(ctx, "some paths could not be filtered", logger.Int("failed", len(rep.Failed)), logger.Error(err))
		return exitFailure
	}
	return exitOK
}

func readDocument(name string, stdin io.Reader) (*svgdoc.Document, error) {
	if name == "-" {
		return svgdoc.Parse(stdin)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return svgdoc.Parse(f)
}

func writeDocument(doc *svgdoc.Document, output string, stdout io.Writer) error {
	if output == "" {
		_, err := doc.WriteTo(stdout)
		return err
	}
	return os.WriteFile(output, doc.Bytes(), outputPermission)
}

func writeOverlay(name string, size int, rep *service.Report) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	err = overlay.New(overlay.WithSize(size)).Render(f, rep.Shapes())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(name)
	}
	return err
}

// newMux registers the API, its documentation, the playground and the
// metrics endpoint.
func newMux(svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	site.Register(mux)
	swagger.Register(mux)
	api.NewServer(svc, svc).Register(mux)
	return mux
}

// serve runs the HTTP API until ctx is cancelled, then shuts down
// gracefully.
func serve(ctx context.Context, cfg *config.Config, log logger.Logger) int {
	reg := metrics.GetRegistry()
	_ = reg.Register(collectors.NewGoCollector())
	_ = reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := newService(cfg, log, cfg.Debug)
	if err != nil {
		log.Error(ctx, "invalid filter options", logger.Error(err))
		return exitUsage
	}
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return exitFailure
	}
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	code := exitOK
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			code = exitFailure
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		code = exitFailure
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
		code = exitFailure
	}
	log.Info(ctx, "server stopped")
	return code
}

// startServiceMetricsUpdater refreshes gauges derived from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *service.Service) {
	st := svc.Stats()
	metrics.UpdateQueueSize(st.QueueLen)
	metrics.UpdateQueueCapacity(st.QueueSize)
}

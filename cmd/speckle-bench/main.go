package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/despeckle/internal/speckles"
	"github.com/spf13/pflag"
)

// Default configuration constants.
const (
	defaultNumPaths  = 10000
	defaultMaxBlobs  = 3
	defaultMaxSpecks = 12
	defaultWorkers   = 2 // multiplier for runtime.NumCPU()
	defaultTimeout   = 30 * time.Second
	defaultRunLimit  = 10 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := pflag.NewFlagSet("speckle-bench", pflag.ContinueOnError)
	var (
		baseURL    = fs.String("url", "http://localhost:9080", "Base URL of the service")
		numPaths   = fs.Int("paths", defaultNumPaths, "Number of paths to generate")
		maxBlobs   = fs.Int("blobs", defaultMaxBlobs, "Maximum large contours per path")
		maxSpecks  = fs.Int("specks", defaultMaxSpecks, "Maximum small contours per path")
		area       = fs.Float64P("area", "a", 10, "Area threshold sent with each request")
		segments   = fs.IntP("segments", "s", 4, "Segments per curve sent with each request")
		seed       = fs.Uint64("seed", 1, "Generator seed")
		workers    = fs.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = fs.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = fs.String("output", "", "Write generated cases to this JSON file")
		logFile    = fs.String("log", "", "Log file (default: bench_log_TIMESTAMP.log)")
		verbose    = fs.Bool("verbose", false, "Enable verbose logging")
		help       = fs.BoolP("help", "h", false, "Show help")
	)
	fs.Usage = func() { speckles.ShowHelp(os.Stderr) }
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 2
	}
	if *help {
		speckles.ShowHelp(os.Stdout)
		return 0
	}

	closeLog, err := speckles.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunLimit)
	defer cancel()

	config := &speckles.Config{
		BaseURL:    *baseURL,
		NumPaths:   *numPaths,
		MaxBlobs:   *maxBlobs,
		MaxSpecks:  *maxSpecks,
		Area:       *area,
		Segments:   *segments,
		Seed:       *seed,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if _, err := speckles.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Bench failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}

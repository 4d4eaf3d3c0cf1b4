package speckles

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/okian/despeckle/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to stderr and to logFile. If logFile is
// empty, a timestamped filename is generated. The returned function closes
// the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "bench_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	opts := []logger.Option{logger.WithWriter(io.MultiWriter(os.Stderr, file))}
	if verbose {
		opts = append(opts, logger.WithLevel(slog.LevelDebug))
	}
	if err := logger.Init(opts...); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the bench tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `despeckle bench
===============

Generates speckled paths whose correct answer is known, posts them to a
running despeckle server and checks that every speck was removed and every
blob kept.

Usage:
  speckle-bench [options]

Options:
  --url string          Base URL of the service (default "http://localhost:9080")
  --paths int           Number of paths to generate (default 10000)
  --blobs int           Maximum large contours per path (default 3)
  --specks int          Maximum small contours per path (default 12)
  -a, --area float      Area threshold sent with each request (default 10)
  -s, --segments int    Segments per curve sent with each request (default 4)
  --seed uint           Generator seed (default 1)
  --workers int         Number of concurrent workers (default CPU cores * 2)
  --timeout duration    HTTP request timeout (default 30s)
  --output string       Write generated cases to this JSON file
  --log string          Log file (default: bench_log_TIMESTAMP.log)
  --verbose             Enable verbose logging
  --help                Show this help message

Examples:
  speckle-bench --paths 50000 --workers 16 --url http://localhost:8080
  speckle-bench --area 25 --segments 16 --seed 7 --output cases.json
`)
}

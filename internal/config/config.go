// Package config defines the process configuration and how it is loaded.
//
// Values are layered from defaults, an optional YAML file, DESPECKLE_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Area is the default minimum contour area; smaller contours are dropped.
	Area float64 `koanf:"area"`

	// Segments is the default number of arc-length samples per curve.
	Segments int `koanf:"segments"`

	// Debug collects per-contour diagnostics.
	Debug bool `koanf:"debug"`

	// WorkerCount sets the number of filtering workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// OverlaySize is the longer side, in pixels, of debug overlay images.
	OverlaySize int `koanf:"overlay_size"`
}

// New returns a Config with defaults. The context is accepted first by
// project convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		Area:        10.0,
		Segments:    4,
		WorkerCount: runtime.NumCPU(),
		QueueSize:   1024,
		OverlaySize: 1024,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case math.IsNaN(c.Area) || c.Area < 0:
		return fmt.Errorf("%w: area must be a non-negative number, got %v", ErrInvalidConfig, c.Area)
	case c.Segments < 1:
		return fmt.Errorf("%w: segments must be at least 1, got %d", ErrInvalidConfig, c.Segments)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be at least 1, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be at least 1, got %d", ErrInvalidConfig, c.QueueSize)
	case c.OverlaySize < 16:
		return fmt.Errorf("%w: overlay_size must be at least 16, got %d", ErrInvalidConfig, c.OverlaySize)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

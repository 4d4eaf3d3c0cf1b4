package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	envPrefix = "DESPECKLE_"
	envConfig = "DESPECKLE_CONFIG"

	// FlagConfig names the flag that points at a YAML file.
	FlagConfig = "config"
)

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":    "log_level",
	"log-format":   "log_format",
	"addr":         "addr",
	"area":         "area",
	"segments":     "segments",
	"debug":        "debug",
	"workers":      "worker_count",
	"queue-size":   "queue_size",
	"overlay-size": "overlay_size",
}

// RegisterFlags defines the configuration flags on fs. Flag defaults mirror
// New so that --help shows the effective defaults.
func RegisterFlags(ctx context.Context, fs *pflag.FlagSet) {
	d := New(ctx)
	fs.String(FlagConfig, "", "YAML configuration file (also "+envConfig+")")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.String("log-format", d.LogFormat, "log format: text or json")
	fs.String("addr", d.Addr, "HTTP listen address")
	fs.Float64P("area", "a", d.Area, "minimum contour area to keep")
	fs.IntP("segments", "s", d.Segments, "arc-length samples per curve")
	fs.Bool("debug", d.Debug, "collect per-contour diagnostics")
	fs.Int("workers", d.WorkerCount, "number of filtering workers")
	fs.Int("queue-size", d.QueueSize, "job queue capacity")
	fs.Int("overlay-size", d.OverlaySize, "longer side of overlay images in pixels")
}

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. a YAML file named by --config or DESPECKLE_CONFIG
//  3. env (prefix DESPECKLE_, e.g. DESPECKLE_QUEUE_SIZE -> queue_size)
//  4. flags in fs that were set explicitly
//
// fs may be nil.
func Load(ctx context.Context, fs *pflag.FlagSet) (*Config, error) {
	base := New(ctx)
	k := koanf.New(".")

	path := os.Getenv(envConfig)
	if fs != nil {
		if f := fs.Lookup(FlagConfig); f != nil && f.Changed {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	if fs != nil {
		// Without a koanf instance posflag only merges flags that were
		// changed on the command line.
		flags := posflag.ProviderWithValue(fs, ".", nil, func(name, value string) (string, interface{}) {
			return flagKeys[name], value
		})
		if err := k.Load(flags, nil); err != nil {
			return nil, fmt.Errorf("%w: flags: %v", ErrLoadConfig, err)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package speckles

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/despeckle/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes a complete bench: health check, generation, concurrent path
// submission with verification, one whole-document round trip and a
// summary. It fails if any response differs from the expected outcome.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	log := logger.Get().Named("bench")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting despeckle bench",
		logger.String("baseURL", config.BaseURL),
		logger.Int("paths", config.NumPaths),
		logger.Int("workers", config.Workers),
		logger.Float64("area", config.Area),
		logger.Int("segments", config.Segments),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	client := NewClient(config.BaseURL, config.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	log.Info(ctx, "service is healthy")

	gen := NewGenerator(config.Seed, config.Area, config.MaxBlobs, config.MaxSpecks)
	cases, err := gen.Cases(ctx, config.NumPaths)
	if err != nil {
		return stats, fmt.Errorf("generation failed: %w", err)
	}
	stats.PathsGenerated = len(cases)

	submitPaths(ctx, log, config, client, cases, stats)

	summary, err := client.FilterDocument(ctx, Document(cases), config.Area, config.Segments)
	if err != nil {
		return stats, fmt.Errorf("document submission failed: %w", err)
	}
	stats.DocumentNodes = summary.Nodes
	docErr := VerifyDocument(cases, summary)

	if config.OutputFile != "" {
		if err := saveCases(config.OutputFile, cases); err != nil {
			log.Warn(ctx, "failed to save cases to file", logger.Error(err))
		} else {
			log.Info(ctx, "cases saved to file", logger.String("filename", config.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	switch {
	case docErr != nil:
		return stats, docErr
	case stats.PathsFailed > 0:
		return stats, fmt.Errorf("%d of %d path requests failed", stats.PathsFailed, stats.PathsSubmitted)
	case stats.Mismatches > 0:
		return stats, fmt.Errorf("%w: %d of %d paths", ErrMismatch, stats.Mismatches, stats.PathsSubmitted)
	}
	log.Info(ctx, "bench completed successfully")
	return stats, nil
}

// submitPaths posts every case with a pool of workers and verifies each
// answer as it arrives.
func submitPaths(ctx context.Context, log logger.Logger, config *Config, client *Client, cases []Case, stats *Stats) {
	workers := max(config.Workers, 1)
	log.Info(ctx, "submitting paths", logger.Int("paths", len(cases)), logger.Int("workers", workers))

	var submitted, verified, failed, mismatched atomic.Int64
	var lastReport atomic.Int64

	caseChan := make(chan Case, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range caseChan {
				got, err := client.FilterPath(ctx, PathRequest{D: c.D, Area: config.Area, Segments: config.Segments})
				n := submitted.Add(1)
				switch {
				case err != nil:
					failed.Add(1)
					if config.Verbose {
						log.Warn(ctx, "path request failed", logger.String("case", c.ID), logger.Error(err))
					}
				default:
					if err := Verify(c, got); err != nil {
						mismatched.Add(1)
						log.Error(ctx, "path mismatch", logger.Error(err))
						continue
					}
					verified.Add(1)
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(ProgressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "progress",
						logger.Int("submitted", int(n)),
						logger.Int("total", len(cases)),
						logger.Int("failed", int(failed.Load())),
						logger.Int("mismatched", int(mismatched.Load())))
				}
			}
		}()
	}

	go func() {
		defer close(caseChan)
		for _, c := range cases {
			select {
			case <-ctx.Done():
				return
			case caseChan <- c:
			}
		}
	}()
	wg.Wait()

	stats.PathsSubmitted = int(submitted.Load())
	stats.PathsVerified = int(verified.Load())
	stats.PathsFailed = int(failed.Load())
	stats.Mismatches = int(mismatched.Load())
}

// saveCases writes the generated cases as a JSON array.
func saveCases(filename string, cases []Case) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cases: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// displayFinalStats logs the final bench statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, pathsPerSecond float64
	if stats.PathsSubmitted > 0 {
		successRate = float64(stats.PathsVerified) / float64(stats.PathsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		pathsPerSecond = float64(stats.PathsSubmitted) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("pathsGenerated", stats.PathsGenerated),
		logger.Int("pathsSubmitted", stats.PathsSubmitted),
		logger.Int("pathsVerified", stats.PathsVerified),
		logger.Int("pathsFailed", stats.PathsFailed),
		logger.Int("mismatches", stats.Mismatches),
		logger.Int("documentNodes", stats.DocumentNodes),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("pathsPerSecond", pathsPerSecond))
}

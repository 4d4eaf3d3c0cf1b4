package service

import (
	"github.com/okian/despeckle/internal/domain/purge"
	"github.com/okian/despeckle/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithArea sets the default area threshold.
func WithArea(area float64) Option {
	return func(s *Service) {
		s.area = area
	}
}

// WithSegments sets the default number of samples per curve.
func WithSegments(segments int) Option {
	return func(s *Service) {
		s.segments = segments
	}
}

// WithDebug makes every filter collect per-contour diagnostics.
func WithDebug(debug bool) Option {
	return func(s *Service) {
		s.debug = debug
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func (s *Service) baseOptions() []purge.Option {
	return []purge.Option{
		purge.WithArea(s.area),
		purge.WithSegments(s.segments),
		purge.WithDebug(s.debug),
	}
}

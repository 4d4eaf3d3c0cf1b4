// Package worker runs path filtering jobs taken from a queue and reports each
// outcome on the job's reply channel.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/despeckle/internal/domain/model"
	"github.com/okian/despeckle/internal/domain/path"
	"github.com/okian/despeckle/internal/domain/purge"
	"github.com/okian/despeckle/pkg/logger"
	"github.com/okian/despeckle/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job is what workers read off the queue.
type Job = model.Job

// Filterer filters one path. *purge.Filter implements it.
type Filterer interface {
	FilterString(d string) (purge.Result, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until its queue is drained or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the current job to finish.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue  Queue
	filter Filterer
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker that applies filter to jobs which do
// not carry their own.
func NewInMemoryWorker(queue Queue, filter Filterer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		filter:   filter,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			o := Process(ctx, w.logger, w.filter, j)
			metrics.RecordWorkerProcessingLatency(float64(time.Since(j.Enqueued).Microseconds()) / 1000)
			if j.Reply != nil {
				j.Reply <- o
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Process filters the path data of j with the job's own filter, or with def
// when the job has none, and records the outcome in metrics and logs. It is
// used by workers and by callers that process a job inline.
func Process(ctx context.Context, log logger.Logger, def Filterer, j Job) model.Outcome { //nolint:gocritic // hugeParam: jobs travel by value
	var f Filterer = def
	if j.Filter != nil {
		f = j.Filter
	}

	start := time.Now()
	res, err := f.FilterString(j.Data)
	elapsed := time.Since(start)
	metrics.RecordFilterLatency(float64(elapsed.Microseconds()) / 1000)

	o := model.Outcome{JobID: j.ID, Node: j.Node, Result: res, Err: err, Duration: elapsed}
	if err != nil {
		metrics.RecordNode(metrics.OutcomeFailed)
		metrics.RecordErrorByComponent("worker", errorType(err))
		log.Error(ctx, "path filtering failed",
			logger.String("job_id", j.ID),
			logger.Int("node", j.Node),
			logger.Error(err),
		)
		return o
	}

	metrics.RecordContours(res.Kept, res.Dropped)
	if res.DegenerateCurves > 0 {
		metrics.RecordDegenerateCurves(res.DegenerateCurves)
		log.Warn(ctx, "degenerate curves sampled as points",
			logger.String("job_id", j.ID),
			logger.Int("node", j.Node),
			logger.Int("curves", res.DegenerateCurves),
		)
	}
	if res.Remove {
		metrics.RecordNode(metrics.OutcomeRemoved)
	} else {
		metrics.RecordNode(metrics.OutcomeReplaced)
	}
	for _, d := range res.Contours {
		log.Debug(ctx, "contour",
			logger.Int("node", j.Node),
			logger.Int("index", d.Index),
			logger.Float64("area", d.Area),
			logger.Bool("kept", d.Kept),
			logger.String("polygon", d.Overlay),
		)
	}
	return o
}

func errorType(err error) string {
	switch {
	case errors.Is(err, path.ErrUnsupportedCommand):
		return "unsupported_command"
	case errors.Is(err, path.ErrMalformedPath):
		return "malformed_path"
	default:
		return "unknown"
	}
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below 1 means one
// worker per CPU.
func NewPool(workerCount int, queue Queue, filter Filterer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(queue, filter, WithName("worker-"+strconv.Itoa(i)))
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}

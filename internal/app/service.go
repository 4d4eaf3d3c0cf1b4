// Package service wires the purge filter, the job queue and the worker pool
// into the operations used by the CLI and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/despeckle/internal/adapters/mq/queue"
	"github.com/okian/despeckle/internal/adapters/mq/worker"
	"github.com/okian/despeckle/internal/adapters/svgdoc"
	"github.com/okian/despeckle/internal/domain/model"
	"github.com/okian/despeckle/internal/domain/purge"
	"github.com/okian/despeckle/pkg/logger"
	"github.com/okian/despeckle/pkg/metrics"
)

const defaultQueueSize = 1024

// Service filters single paths and whole documents.
type Service struct {
	mu sync.RWMutex

	filter *purge.Filter
	queue  *queue.InMemoryQueue
	pool   *worker.Pool
	cancel context.CancelFunc

	workerCount int
	queueSize   int
	area        float64
	segments    int
	debug       bool

	started   bool
	startedAt time.Time
	logger    logger.Logger

	documents atomic.Int64
	nodes     atomic.Int64
	replaced  atomic.Int64
	removed   atomic.Int64
	failed    atomic.Int64
}

// New constructs a Service. The default filter options are validated here.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		area:        purge.DefaultArea,
		segments:    purge.DefaultSegments,
	}
	for _, opt := range opts {
		opt(s)
	}

	f, err := purge.New(s.baseOptions()...)
	if err != nil {
		return nil, err
	}
	s.filter = f
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s, nil
}

// Start launches the worker pool. Documents processed before Start, or
// after Stop, are filtered inline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.filter)
	s.pool.Start(runCtx)
	s.started = true
	s.startedAt = time.Now()

	s.logger.Info(ctx, "despeckle service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Float64("area", s.area),
		logger.Int("segments", s.segments),
	)
	return nil
}

// Stop drains the queue and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	err := s.pool.Shutdown(ctx)
	s.cancel()
	s.started = false
	s.logger.Info(ctx, "despeckle service stopped")
	return err
}

// Filter returns a filter built from the service defaults overridden by opts.
func (s *Service) Filter(opts ...purge.Option) (*purge.Filter, error) {
	if len(opts) == 0 {
		return s.filter, nil
	}
	return purge.New(append(s.baseOptions(), opts...)...)
}

// FilterPath filters a single path synchronously.
func (s *Service) FilterPath(ctx context.Context, d string, opts ...purge.Option) (purge.Result, error) {
	f, err := s.Filter(opts...)
	if err != nil {
		return purge.Result{}, err
	}
	o := worker.Process(ctx, s.logger, f, model.NewJob(0, d, f, nil))
	s.record(o)
	return o.Result, o.Err
}

// ProcessDocument filters every path-bearing element of doc within scope
// (see svgdoc.Document.Collect). All nodes are filtered before the document
// is touched; then surviving data replaces each node's d attribute and nodes
// with nothing left are removed. A node that fails is reported and left as
// it was. The returned error is only set when the run itself could not
// complete, e.g. because ctx was cancelled; in that case doc is unchanged.
func (s *Service) ProcessDocument(ctx context.Context, doc *svgdoc.Document, scope []string, opts ...purge.Option) (*Report, error) {
	f, err := s.Filter(opts...)
	if err != nil {
		return nil, err
	}

	nodes, missing := doc.Collect(scope)
	rep := &Report{Nodes: len(nodes), Missing: missing}
	for _, id := range missing {
		s.logger.Warn(ctx, "selected element not found", logger.String("id", id))
	}

	outcomes, err := s.dispatch(ctx, nodes, f)
	if err != nil {
		return nil, err
	}

	for i, n := range nodes {
		o := outcomes[i]
		name := nodeName(n.ID(), i)
		if o.Err != nil {
			rep.Failed = append(rep.Failed, NodeError{Node: name, Err: o.Err})
			continue
		}
		res := o.Result
		rep.Kept += res.Kept
		rep.Dropped += res.Dropped
		rep.DegenerateCurves += res.DegenerateCurves
		if res.Contours != nil {
			rep.Diagnostics = append(rep.Diagnostics, NodeDiagnostics{Node: name, Contours: res.Contours})
		}
		if res.Remove {
			if err := doc.Remove(n); err != nil {
				rep.Failed = append(rep.Failed, NodeError{Node: name, Err: err})
				continue
			}
			rep.Removed++
			continue
		}
		if err := doc.Replace(n, res.Data); err != nil {
			rep.Failed = append(rep.Failed, NodeError{Node: name, Err: err})
			continue
		}
		rep.Replaced++
	}

	s.documents.Add(1)
	metrics.RecordDocument()
	s.logger.Info(ctx, "document processed",
		logger.Int("nodes", rep.Nodes),
		logger.Int("replaced", rep.Replaced),
		logger.Int("removed", rep.Removed),
		logger.Int("failed", len(rep.Failed)),
		logger.Int("contours_dropped", rep.Dropped),
	)
	return rep, nil
}

// dispatch filters every node and returns the outcomes indexed like nodes.
// Jobs go through the worker pool when it is running; a job the queue
// refuses is processed by the calling goroutine instead.
func (s *Service) dispatch(ctx context.Context, nodes []*svgdoc.Node, f *purge.Filter) ([]model.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reply := make(chan model.Outcome, len(nodes))
	for i, n := range nodes {
		d, _ := n.Attr("d")
		j := model.NewJob(i, d, f, reply)
		if s.started {
			err := s.queue.Enqueue(ctx, j)
			if err == nil {
				continue
			}
			if !errors.Is(err, queue.ErrQueueFull) && !errors.Is(err, queue.ErrQueueClosed) {
				return nil, fmt.Errorf("dispatch node %d: %w", i, err)
			}
			s.logger.Debug(ctx, "queue refused job, processing inline", logger.Int("node", i), logger.Error(err))
		}
		reply <- worker.Process(ctx, s.logger, f, j)
	}

	outcomes := make([]model.Outcome, len(nodes))
	for range nodes {
		select {
		case o := <-reply:
			outcomes[o.Node] = o
			s.record(o)
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for outcomes: %w", ctx.Err())
		}
	}
	return outcomes, nil
}

func (s *Service) record(o model.Outcome) {
	s.nodes.Add(1)
	switch {
	case o.Err != nil:
		s.failed.Add(1)
	case o.Result.Remove:
		s.removed.Add(1)
	default:
		s.replaced.Add(1)
	}
}

// Stats is a snapshot of service counters.
type Stats struct {
	Started   bool    `json:"started"`
	Workers   int     `json:"workers"`
	QueueSize int     `json:"queueSize"`
	QueueLen  int     `json:"queueLength"`
	Area      float64 `json:"area"`
	Segments  int     `json:"segments"`
	Documents int64   `json:"documents"`
	Nodes     int64   `json:"nodes"`
	Replaced  int64   `json:"replaced"`
	Removed   int64   `json:"removed"`
	Failed    int64   `json:"failed"`
	Uptime    string  `json:"uptime,omitempty"`
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:   s.started,
		Workers:   s.workerCount,
		QueueSize: s.queueSize,
		Area:      s.area,
		Segments:  s.segments,
		Documents: s.documents.Load(),
		Nodes:     s.nodes.Load(),
		Replaced:  s.replaced.Load(),
		Removed:   s.removed.Load(),
		Failed:    s.failed.Load(),
	}
	if s.started {
		st.Workers = s.pool.Size()
		st.QueueLen = s.queue.Len()
		st.Uptime = time.Since(s.startedAt).Round(time.Second).String()
		metrics.UpdateQueueSize(st.QueueLen)
	}
	return st
}

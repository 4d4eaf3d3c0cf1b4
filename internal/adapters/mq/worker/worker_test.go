package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/despeckle/internal/adapters/mq/queue"
	"github.com/okian/despeckle/internal/adapters/mq/worker"
	"github.com/okian/despeckle/internal/domain/model"
	"github.com/okian/despeckle/internal/domain/path"
	"github.com/okian/despeckle/internal/domain/purge"
	logging "github.com/okian/despeckle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const (
	square = "M 0 0 L 10 0 L 10 10 L 0 10 Z"
	speck  = "M 20 20 L 21 20 L 21 21 L 20 21 Z"
)

type mockQueue struct {
	jobs chan worker.Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan worker.Job, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan worker.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	close(mq.jobs)
	return nil
}

func mustFilter(opts ...purge.Option) *purge.Filter {
	f, err := purge.New(opts...)
	convey.So(err, convey.ShouldBeNil)
	return f
}

func await(reply <-chan model.Outcome) model.Outcome {
	select {
	case o := <-reply:
		return o
	case <-time.After(time.Second):
		convey.So("no outcome within a second", convey.ShouldBeEmpty)
		return model.Outcome{}
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, mustFilter(), worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		reply := make(chan model.Outcome, 4)

		convey.Convey("When a compound path is submitted", func() {
			j := model.NewJob(7, square+" "+speck, nil, reply)
			q.jobs <- j
			o := await(reply)

			convey.Convey("Then the outcome carries the filtered data", func() {
				convey.So(o.JobID, convey.ShouldEqual, j.ID)
				convey.So(o.Node, convey.ShouldEqual, 7)
				convey.So(o.Err, convey.ShouldBeNil)
				convey.So(o.Result.Data, convey.ShouldEqual, square)
				convey.So(o.Result.Dropped, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the job carries its own filter", func() {
			q.jobs <- model.NewJob(1, square, mustFilter(purge.WithArea(1000)), reply)
			o := await(reply)

			convey.Convey("Then that filter wins over the default", func() {
				convey.So(o.Err, convey.ShouldBeNil)
				convey.So(o.Result.Remove, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the path contains an arc", func() {
			q.jobs <- model.NewJob(2, "M0 0 A 1 1 0 0 0 2 2", nil, reply)
			o := await(reply)

			convey.Convey("Then the failure is reported, not swallowed", func() {
				convey.So(o.Failed(), convey.ShouldBeTrue)
				convey.So(errors.Is(o.Err, path.ErrUnsupportedCommand), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			convey.Convey("Then it stops gracefully", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestProcess(t *testing.T) {
	convey.Convey("Given a job processed inline", t, func() {
		_ = logging.Init()
		f := mustFilter(purge.WithDebug(true))
		o := worker.Process(context.Background(), logging.Get(), f, model.NewJob(0, square+" "+speck, nil, nil))

		convey.Convey("Then the debug diagnostics are returned", func() {
			convey.So(o.Err, convey.ShouldBeNil)
			convey.So(o.Result.Contours, convey.ShouldHaveLength, 2)
			convey.So(o.Duration, convey.ShouldBeGreaterThan, 0)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		pool := worker.NewPool(3, q, mustFilter())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When many jobs are submitted", func() {
			const n = 40
			reply := make(chan model.Outcome, n)
			for i := 0; i < n; i++ {
				d := square
				if i%2 == 1 {
					d = speck
				}
				convey.So(q.Enqueue(ctx, model.NewJob(i, d, nil, reply)), convey.ShouldBeNil)
			}

			convey.Convey("Then every job is answered exactly once", func() {
				nodes := make(map[int]bool)
				removed := 0
				for i := 0; i < n; i++ {
					o := await(reply)
					nodes[o.Node] = true
					if o.Result.Remove {
						removed++
					}
				}
				convey.So(len(nodes), convey.ShouldEqual, n)
				convey.So(removed, convey.ShouldEqual, n/2)
			})

			convey.Convey("Then shutdown drains the queue", func() {
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(len(reply), convey.ShouldEqual, n)
			})
		})

		convey.Convey("When created with a non-positive count", func() {
			p := worker.NewPool(0, queue.NewInMemoryQueue(), mustFilter())

			convey.Convey("Then it sizes itself to the machine", func() {
				convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})
	})
}

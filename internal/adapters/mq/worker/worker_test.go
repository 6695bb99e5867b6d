package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/boared/internal/adapters/mq/queue"
	"github.com/okian/boared/internal/adapters/mq/worker"
	"github.com/okian/boared/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// recorder collects the batches a worker hands over.
type recorder struct {
	mu      sync.Mutex
	batches [][]queue.Job
	block   chan struct{}
	err     error
}

func (r *recorder) handle(_ context.Context, jobs []queue.Job) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, jobs)
	return r.err
}

func (r *recorder) jobs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.batches {
		n += len(b)
	}
	return n
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker on a queue", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		rec := &recorder{}
		w := worker.NewWorker(q, rec.handle, worker.WithName("publisher"))

		convey.Convey("When a job is enqueued", func() {
			go w.Run(ctx)
			convey.So(q.Enqueue(ctx, queue.Job{Op: "add_member"}), convey.ShouldBeTrue)

			convey.Convey("Then the handler sees it", func() {
				deadline := time.Now().Add(2 * time.Second)
				for rec.jobs() < 1 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				convey.So(rec.jobs(), convey.ShouldEqual, 1)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When jobs pile up before the worker runs", func() {
			for _, op := range []string{"add_member", "add_game", "add_session"} {
				convey.So(q.Enqueue(ctx, queue.Job{Op: op}), convey.ShouldBeTrue)
			}
			go w.Run(ctx)
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then they are handled in one batch", func() {
				convey.So(rec.count(), convey.ShouldEqual, 1)
				convey.So(rec.jobs(), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the handler fails", func() {
			rec.err = errors.New("redis down")
			convey.So(q.Enqueue(ctx, queue.Job{Op: "add_game"}), convey.ShouldBeTrue)
			go w.Run(ctx)
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then the worker keeps going and shuts down cleanly", func() {
				convey.So(rec.jobs(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the queue is closed", func() {
			convey.So(q.Enqueue(ctx, queue.Job{Op: "upsert_result"}), convey.ShouldBeTrue)
			convey.So(q.Close(), convey.ShouldBeNil)
			w.Run(ctx)

			convey.Convey("Then Run flushes and returns", func() {
				convey.So(rec.jobs(), convey.ShouldEqual, 1)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When shutdown outlives its deadline", func() {
			rec.block = make(chan struct{})
			convey.So(q.Enqueue(ctx, queue.Job{Op: "add_member"}), convey.ShouldBeTrue)
			go w.Run(ctx)
			for q.Len(ctx) > 0 {
				time.Sleep(time.Millisecond)
			}

			short, stop := context.WithTimeout(ctx, 20*time.Millisecond)
			defer stop()
			err := w.Shutdown(short)
			close(rec.block)

			convey.Convey("Then it reports the timeout", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})
}

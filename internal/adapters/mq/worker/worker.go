// Package worker runs queued leaderboard publish jobs in the background.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/boared/internal/adapters/mq/queue"
	"github.com/okian/boared/pkg/logger"
	"github.com/okian/boared/pkg/metrics"
)

// Handler processes a batch of jobs that were pending at the same time.
type Handler func(ctx context.Context, jobs []queue.Job) error

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker drains a queue and hands each batch to its handler. Jobs that pile
// up while a batch runs are coalesced into the next batch.
type Worker struct {
	queue  Queue
	handle Handler
	name   string

	// Shutdown control
	shutdown chan struct{}
	once     sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a new worker with configuration options.
func NewWorker(q Queue, h Handler, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		handle:   h,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes batches until ctx is cancelled, the queue closes, or
// Shutdown is called. On Shutdown and on queue close pending jobs are
// flushed first.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			if batch, _ := drain(jobs, nil); len(batch) > 0 {
				w.process(ctx, batch)
			}
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			batch, open := drain(jobs, []queue.Job{job})
			w.process(ctx, batch)
			if !open {
				return
			}
		}
	}
}

// drain appends every job already waiting on ch without blocking. It
// reports false once ch is closed.
func drain(ch <-chan queue.Job, batch []queue.Job) ([]queue.Job, bool) {
	for {
		select {
		case job, ok := <-ch:
			if !ok {
				return batch, false
			}
			batch = append(batch, job)
		default:
			return batch, true
		}
	}
}

func (w *Worker) process(ctx context.Context, batch []queue.Job) {
	start := time.Now()
	if len(batch) > 1 {
		metrics.RecordPublishCoalesced(len(batch) - 1)
	}
	metrics.UpdatePublishQueueLength(0)

	if err := w.handle(ctx, batch); err != nil {
		w.logger.Error(ctx, "batch failed",
			logger.Int("jobs", len(batch)),
			logger.String("lastOp", batch[len(batch)-1].Op),
			logger.Error(err),
		)
		return
	}
	w.logger.Debug(ctx, "batch done",
		logger.Int("jobs", len(batch)),
		logger.Duration("took", time.Since(start)),
	)
}

// Shutdown flushes pending jobs and stops the worker. It waits for Run to
// return or for ctx to expire.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.once.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

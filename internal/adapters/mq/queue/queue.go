// Package queue is a bounded in-memory queue of leaderboard publish jobs.
//
// Enqueue never blocks: a full queue already holds a pending publish that
// will pick up the newest state, so a rejected job loses nothing.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/boared/pkg/metrics"
)

// defaultCapacity bounds pending jobs.
const defaultCapacity = 64

// Job asks for the leaderboard to be republished after a write.
type Job struct {
	Op string    // write that caused it, e.g. "add_session"
	At time.Time // when the write completed
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns false when the queue is full or closed.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns the channel jobs arrive on. It is closed by Close.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Close stops accepting jobs; queued jobs stay readable.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	metrics.UpdatePublishQueueLength(0)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.jobs <- j:
		metrics.UpdatePublishQueueLength(len(q.jobs))
		return true
	case <-ctx.Done():
		return false
	default:
		metrics.RecordPublishCoalesced(1)
		return false
	}
}

// Dequeue returns the job channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.jobs)
	metrics.UpdatePublishQueueLength(n)
	return n
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

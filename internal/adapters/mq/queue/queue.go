// Package queue holds batch analysis jobs until a worker picks them up.
//
// The queue is a bounded buffered channel. Enqueue never blocks: a full
// queue rejects the job so the caller can shed load.
package queue

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Result is the answer to one Job.
type Result struct {
	Index  int
	Result model.EngagementResult
}

// Job is one item of a batch analysis request.
type Job struct {
	BatchID string
	Index   int
	User    model.UserData
	Peer    model.PeerSnapshot
	// Trace links the job's spans to the request that submitted it.
	Trace trace.SpanContext
	// Reply receives exactly one Result. It must be buffered so a worker
	// never blocks on a caller that has gone away.
	Reply chan<- Result
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns ErrFull or ErrClosed when the job was
	// not accepted.
	Enqueue(ctx context.Context, j Job) error
	// Dequeue returns the channel workers read from. It is closed when the
	// queue is closed and drained.
	Dequeue() <-chan Job
	// Len returns the current number of queued jobs.
	Len() int
	// Close stops accepting jobs.
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
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	metrics.UpdateBatchQueueSize(0)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: Job travels by value through the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordBatchJob("rejected_closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordBatchJob("cancelled")
		return err
	}

	select {
	case q.jobs <- j:
		metrics.RecordBatchJob("enqueued")
		metrics.UpdateBatchQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordBatchJob("rejected_full")
		return ErrFull
	}
}

// Dequeue returns the job channel.
func (q *InMemoryQueue) Dequeue() <-chan Job {
	return q.jobs
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len() int {
	n := len(q.jobs)
	metrics.UpdateBatchQueueSize(n)
	return n
}

// Close gracefully shuts down the queue. Jobs already queued stay readable.
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

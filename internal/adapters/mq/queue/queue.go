// Package queue hands trial batches from the run producer to simulation workers.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/bracketpool/pkg/metrics"
)

const defaultQueueCapacity = 64

// Batch is the half-open trial index range [Start, End).
type Batch struct {
	Start int
	End   int
}

// Len returns the number of trials in the batch.
func (b Batch) Len() int { return b.End - b.Start }

// Queue provides blocking enqueue and dequeue of trial batches.
type Queue interface {
	// Enqueue blocks until the batch is accepted, ctx is done or the queue is closed.
	Enqueue(ctx context.Context, b Batch) error

	// Dequeue blocks until a batch is available. It returns ErrStopped once the
	// queue is closed and every batch has been handed out.
	Dequeue(ctx context.Context) (Batch, error)

	// Len returns the current number of queued batches.
	Len() int

	// Close stops accepting batches. Queued batches can still be dequeued.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	batches  chan Batch
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
	q.batches = make(chan Batch, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue adds a batch to the queue. Close waits for in-flight Enqueue calls.
func (q *InMemoryQueue) Enqueue(ctx context.Context, b Batch) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.batches <- b:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue batch %d-%d: %w", b.Start, b.End, ctx.Err())
	}
}

// Dequeue removes the next batch from the queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) (Batch, error) {
	select {
	case b, ok := <-q.batches:
		if !ok {
			return Batch{}, ErrStopped
		}
		metrics.RecordQueueDequeue()
		q.observe()
		return b, nil
	case <-ctx.Done():
		return Batch{}, ctx.Err()
	}
}

func (q *InMemoryQueue) observe() {
	size := len(q.batches)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Len returns the current number of queued batches.
func (q *InMemoryQueue) Len() int {
	return len(q.batches)
}

// Close stops the queue. Closing twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.batches)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

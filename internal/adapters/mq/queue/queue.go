// Package queue holds pending leaderboard warm-up tasks.
//
// A country is pending from the moment it is enqueued until the consumer
// calls Done for it, so a country that is queued or being refreshed is
// never queued twice.
package queue

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/okian/racketrank/pkg/metrics"
)

const defaultQueueCapacity = 64

// Task asks for the leaderboard of one canonical country to be refreshed.
type Task struct {
	Country    string
	Reason     string
	EnqueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a task. It returns ErrDuplicate, ErrFull or ErrClosed
	// when the task was not added.
	Enqueue(ctx context.Context, t Task) error

	// Dequeue returns the channel tasks are delivered on. It is closed when
	// the queue is closed.
	Dequeue(ctx context.Context) <-chan Task

	// Done releases a dequeued country so it can be enqueued again.
	Done(country string)

	// Len returns the number of queued tasks.
	Len(ctx context.Context) int

	// Close stops accepting tasks. Queued tasks are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tasks    chan Task
	capacity int

	mu      sync.Mutex
	pending map[string]struct{}
	closed  bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan Task, q.capacity)

	metrics.UpdateWarmQueueCapacity(q.capacity)
	metrics.UpdateWarmQueueSize(0)

	return q
}

func pendingKey(country string) string {
	return strings.ToLower(strings.TrimSpace(country))
}

// Enqueue adds a task to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordWarmEnqueue(metrics.OutcomeClosed)
		return ErrClosed
	}
	key := pendingKey(t.Country)
	if _, ok := q.pending[key]; ok {
		metrics.RecordWarmEnqueue(metrics.OutcomeDuplicate)
		return ErrDuplicate
	}
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now()
	}

	select {
	case <-ctx.Done():
		metrics.RecordWarmEnqueue(metrics.OutcomeDropped)
		return ctx.Err()
	default:
	}

	select {
	case q.tasks <- t:
		q.pending[key] = struct{}{}
		metrics.RecordWarmEnqueue(metrics.OutcomeOK)
		metrics.UpdateWarmQueueSize(len(q.tasks))
		return nil
	default:
		metrics.RecordWarmEnqueue(metrics.OutcomeDropped)
		return ErrFull
	}
}

// Dequeue returns the channel tasks are delivered on. Consumers must call
// Done after handling each task.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Task {
	out := make(chan Task)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-q.tasks:
				if !ok {
					return
				}
				metrics.UpdateWarmQueueSize(len(q.tasks))
				select {
				case out <- t:
				case <-ctx.Done():
					q.Done(t.Country)
					return
				}
			}
		}
	}()
	return out
}

// Done releases country.
func (q *InMemoryQueue) Done(country string) {
	q.mu.Lock()
	delete(q.pending, pendingKey(country))
	q.mu.Unlock()
}

// Len returns the current number of queued tasks.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.tasks)
	metrics.UpdateWarmQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.tasks)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

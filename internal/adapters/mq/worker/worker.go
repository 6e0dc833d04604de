// Package worker runs leaderboard warm-up tasks off the queue.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/racketrank/internal/adapters/mq/queue"
	"github.com/okian/racketrank/pkg/logger"
	"github.com/okian/racketrank/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2
	defaultTaskTimeout  = 30 * time.Second
	poolShutdownTimeout = 30 * time.Second
)

// Refresher refreshes the cached leaderboard of one country.
type Refresher interface {
	Warm(ctx context.Context, country string) error
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
	Done(country string)
}

// Worker processes warm tasks.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the task in hand, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue       Queue
	refresher   Refresher
	name        string
	taskTimeout time.Duration
	busy        *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, refresher Refresher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		refresher:   refresher,
		name:        "warm-worker",
		taskTimeout: defaultTaskTimeout,
		busy:        new(atomic.Int64),
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			if err := w.process(ctx, task); err != nil {
				w.logger.Warn(ctx, "warm task failed", logger.String("country", task.Country), logger.Error(err))
			}
		}
	}
}

// Shutdown signals the worker and waits for it to stop.
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

// process runs one task. Failures are not retried; the next scheduled
// round picks the country up again.
func (w *InMemoryWorker) process(ctx context.Context, task queue.Task) error {
	defer w.queue.Done(task.Country)

	metrics.UpdateWarmActiveWorkers(int(w.busy.Add(1)))
	defer func() { metrics.UpdateWarmActiveWorkers(int(w.busy.Add(-1))) }()

	ctx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()

	start := time.Now()
	err := w.refresher.Warm(ctx, task.Country)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordWarmDuration(metrics.OutcomeError, elapsed.Seconds())
		return fmt.Errorf("warm %s: %w", task.Country, err)
	}
	metrics.RecordWarmDuration(metrics.OutcomeOK, elapsed.Seconds())
	w.logger.Debug(ctx, "warm task done",
		logger.String("country", task.Country),
		logger.String("reason", task.Reason),
		logger.Duration("elapsed", elapsed),
		logger.Duration("waited", start.Sub(task.EnqueuedAt)),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	busy    *atomic.Int64

	logger logger.Logger
}

// NewPool creates a new worker pool. Options are applied to every worker;
// WithName is suffixed with the worker index.
func NewPool(workerCount int, q Queue, refresher Refresher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		busy:    new(atomic.Int64),
		logger:  logger.Get().Named("warm-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("warm-worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, refresher, wopts...)
		w.busy = pool.busy
		pool.workers[i] = w
	}

	metrics.UpdateWarmActiveWorkers(0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, then waits for every worker to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for _, w := range p.workers {
		close(w.shutdown)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	return nil
}

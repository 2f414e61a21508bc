package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/trendhub/internal/adapters/mq/queue"
	"github.com/okian/trendhub/internal/domain/collection"
	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/pkg/logger"
	"github.com/okian/trendhub/pkg/metrics"
)

const (
	defaultJobTimeout   = 2 * time.Minute
	poolShutdownTimeout = 30 * time.Second
)

// Collector is what a job runs. A collection fills every source's cache as
// a side effect.
type Collector interface {
	Collect(ctx context.Context, capability model.Capability, params model.Params) collection.Collection
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for refresh jobs.
type InMemoryWorker struct {
	queue     Queue
	collector Collector
	name      string
	timeout   time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	processed atomic.Int64
	logger    logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, c Collector, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		collector: c,
		name:      "worker",
		timeout:   defaultJobTimeout,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Named("refresh"),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.String("worker", w.name))
	return w
}

// Processed returns how many jobs this worker has finished.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

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
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	jobCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	outcome := metrics.OutcomeSuccess
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomePanic
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "refresh job panicked",
				logger.String("job", job.ID),
				logger.Any("panic", r),
			)
		}
		metrics.RecordRefreshJob(string(job.Capability), outcome, float64(time.Since(start).Milliseconds()))
		w.processed.Add(1)
	}()

	c := w.collector.Collect(jobCtx, job.Capability, job.Params)
	if c.Partial() {
		outcome = metrics.OutcomePartial
	}
	w.logger.Debug(ctx, "refresh job done",
		logger.String("job", job.ID),
		logger.String("capability", string(job.Capability)),
		logger.Int("records", len(c.Records)),
		logger.Int("failures", len(c.Failures)),
		logger.Duration("took", time.Since(start)),
	)
}

// Pool manages multiple workers reading one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. workerCount below one means one.
func NewPool(workerCount int, q Queue, c Collector, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Named("refresh-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, c, append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed sums finished jobs across workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateRefreshWorkers(len(p.workers))
}

// Shutdown closes the queue, if it can be closed, and waits for workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for _, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	metrics.UpdateRefreshWorkers(0)
	return errors.Join(errs...)
}

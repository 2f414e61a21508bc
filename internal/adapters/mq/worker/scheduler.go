package worker

import (
	"context"
	"sync"
	"time"

	"github.com/okian/trendhub/internal/adapters/mq/queue"
	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/pkg/logger"
)

// Enqueuer accepts refresh jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, j queue.Job) error
}

// Scheduler enqueues one job per capability every interval.
type Scheduler struct {
	q        Enqueuer
	interval time.Duration
	caps     []model.Capability
	logger   logger.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler. It does nothing until Start.
func NewScheduler(q Enqueuer, interval time.Duration, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		q:        q,
		interval: interval,
		caps:     model.AllCapabilities(),
		logger:   logger.Named("refresh-scheduler"),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start enqueues an immediate round and then one per tick. A non-positive
// interval disables scheduling.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	s.Tick(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Tick enqueues one job per capability and returns how many were accepted.
func (s *Scheduler) Tick(ctx context.Context) int {
	accepted := 0
	for _, c := range s.caps {
		if err := s.q.Enqueue(ctx, queue.NewJob(c, nil)); err != nil {
			s.logger.Warn(ctx, "refresh job dropped",
				logger.String("capability", string(c)),
				logger.Error(err),
			)
			continue
		}
		accepted++
	}
	return accepted
}

// Stop halts the ticker and waits for it to exit.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

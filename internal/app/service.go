// Package service wires the cache, source registry, collector, scoring
// engine and refresh pool into the operations the HTTP API and CLI serve.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/trendhub/internal/adapters/cache"
	"github.com/okian/trendhub/internal/adapters/mq/queue"
	"github.com/okian/trendhub/internal/adapters/mq/worker"
	"github.com/okian/trendhub/internal/domain/aggregation"
	"github.com/okian/trendhub/internal/domain/collection"
	"github.com/okian/trendhub/internal/domain/dedupe"
	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/internal/domain/scoring"
	"github.com/okian/trendhub/internal/domain/types"
	"github.com/okian/trendhub/pkg/logger"
	"github.com/okian/trendhub/pkg/metrics"
)

const (
	defaultRefreshWorkers = 2
	defaultQueueSize      = 16
)

// Service implements the API dependencies for trend aggregation. A Service
// runs once: after Stop, Start fails with ErrStopped and a new Service must
// be built.
type Service struct {
	mu sync.RWMutex

	// Core components
	cache     *cache.TTLCache
	manager   *aggregation.Manager
	collector *collection.Collector
	engine    *scoring.Engine
	queue     *queue.InMemoryQueue
	pool      *worker.Pool
	scheduler *worker.Scheduler

	// Configuration
	cacheTTL        time.Duration
	janitorInterval time.Duration
	callTimeout     time.Duration
	fanoutLimit     int
	policy          dedupe.MergePolicy
	refreshInterval time.Duration
	refreshWorkers  int
	queueSize       int
	now             func() time.Time

	// State
	started   bool
	stopped   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a Service. Sources are registered through Registry before
// Start.
func New(opts ...Option) *Service {
	s := &Service{
		cacheTTL:        cache.DefaultTTL,
		janitorInterval: 10 * time.Minute,
		callTimeout:     aggregation.DefaultCallTimeout,
		policy:          dedupe.PairwiseMean,
		refreshWorkers:  defaultRefreshWorkers,
		queueSize:       defaultQueueSize,
		now:             time.Now,
		logger:          logger.Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cache = cache.NewTTLCache(cache.WithTTL(s.cacheTTL), cache.WithClock(s.now))
	s.manager = aggregation.NewManager(
		aggregation.WithCallTimeout(s.callTimeout),
		aggregation.WithConcurrencyLimit(s.fanoutLimit),
	)
	s.collector = collection.NewCollector(s.manager)
	s.engine = scoring.NewEngine(
		scoring.WithDeduper(dedupe.New(dedupe.WithMergePolicy(s.policy))),
		scoring.WithClock(s.now),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.refreshWorkers, s.queue, s.collector)
	s.scheduler = worker.NewScheduler(s.queue, s.refreshInterval)
	return s
}

// Registry exposes the source manager for registration.
func (s *Service) Registry() *aggregation.Manager { return s.manager }

// Cache exposes the shared source cache.
func (s *Service) Cache() *cache.TTLCache { return s.cache }

// Start launches the cache janitor, refresh workers and scheduler. Calling
// it again while running is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting trendhub service...")

	if s.janitorInterval > 0 {
		s.cache.StartJanitor(ctx, s.janitorInterval)
	}
	s.pool.Start(ctx)
	s.scheduler.Start(ctx)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "trendhub service started",
		logger.Int("sources", len(s.manager.Sources())),
		logger.Strings("active", s.manager.Active()),
		logger.Duration("cache_ttl", s.cacheTTL),
		logger.Duration("refresh_interval", s.refreshInterval),
		logger.Int("refresh_workers", s.pool.Size()),
	)
	return nil
}

// Stop gracefully shuts down background work. The cache, queue and pool are
// closed for good.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping trendhub service...")

	s.scheduler.Stop()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "refresh pool shutdown", logger.Error(err))
	}
	_ = s.cache.Close()

	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "trendhub service stopped")
}

// Collect fans out one capability and returns the raw collection.
func (s *Service) Collect(ctx context.Context, capability model.Capability, params model.Params) collection.Collection {
	return s.collector.Collect(ctx, capability, params)
}

// ScoredTrends collects trends and ranks them. A positive limit truncates
// the ranking; Total still reports the full count.
func (s *Service) ScoredTrends(ctx context.Context, params model.Params, limit int) types.ScoredResponse {
	c := s.collector.Collect(ctx, model.Trends, params)
	ranked := s.engine.ScoreAll(c.Records)
	total := len(ranked)
	if limit > 0 && limit < total {
		ranked = ranked[:limit]
	}
	return types.ScoredResponse{
		RunID:    c.RunID,
		Trends:   ranked,
		Count:    len(ranked),
		Total:    total,
		Sources:  c.Sources,
		Failures: c.Failures,
	}
}

// Deduplicate merges records with the configured policy.
func (s *Service) Deduplicate(records []model.Record) []model.Record {
	return s.engine.Deduplicate(records)
}

// Status reports every registered source, keyed by id, plus the enabled ids.
func (s *Service) Status() types.APIStatusResponse {
	resp := types.APIStatusResponse{
		APIs:          make(map[string]types.APIStatus),
		ActivePlugins: []string{},
	}
	for _, st := range s.manager.Status() {
		methods := make([]string, len(st.Capabilities))
		for i, c := range st.Capabilities {
			methods[i] = types.MethodName(c)
		}
		resp.APIs[st.ID] = types.APIStatus{
			Name:     st.Name,
			Enabled:  st.Enabled,
			Methods:  methods,
			Status:   st.Status,
			Priority: st.Priority,
			Note:     st.Note,
		}
		if st.Enabled {
			resp.ActivePlugins = append(resp.ActivePlugins, st.ID)
		}
	}
	return resp
}

// FlushCache drops every cached source result and reports how many went.
func (s *Service) FlushCache(ctx context.Context) int {
	n := s.cache.Size()
	s.cache.FlushAll(ctx)
	s.logger.Info(ctx, "cache flushed", logger.Int("entries", n))
	return n
}

// Refresh queues a background collection of one capability.
func (s *Service) Refresh(ctx context.Context, capability model.Capability) (string, error) {
	job := queue.NewJob(capability, nil)
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return "", fmt.Errorf("enqueue refresh: %w", err)
	}
	return job.ID, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.StatsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.cache.Len(ctx)
	metrics.UpdateCacheSize(entries)

	stats := types.StatsResponse{
		CacheEntries:       entries,
		CacheTTLHours:      s.cacheTTL.Hours(),
		SourcesRegistered:  len(s.manager.Sources()),
		SourcesEnabled:     len(s.manager.Active()),
		RefreshQueueSize:   s.queue.Len(ctx),
		RefreshQueueCap:    s.queue.Cap(),
		RefreshWorkers:     s.pool.Size(),
		RefreshJobsDone:    s.pool.Processed(),
		DedupeMergePolicy:  string(s.policy),
		SourceCallTimeoutS: s.callTimeout.Seconds(),
	}
	if s.started {
		stats.UptimeSeconds = s.now().Sub(s.startedAt).Seconds()
	}
	return stats
}

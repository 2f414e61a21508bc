package service

import (
	"time"

	"github.com/okian/trendhub/internal/domain/dedupe"
	"github.com/okian/trendhub/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCacheTTL sets how long source results stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithJanitorInterval sets how often expired cache entries are purged.
// Zero disables the janitor.
func WithJanitorInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.janitorInterval = d
		}
	}
}

// WithCallTimeout bounds each source call during fan-out.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithFanoutLimit caps concurrent source calls; zero is unbounded.
func WithFanoutLimit(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.fanoutLimit = n
		}
	}
}

// WithMergePolicy selects how duplicate trend mentions combine.
func WithMergePolicy(p dedupe.MergePolicy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithRefresh enables background cache warming every interval.
func WithRefresh(interval time.Duration, workers, queueSize int) Option {
	return func(s *Service) {
		s.refreshInterval = interval
		if workers > 0 {
			s.refreshWorkers = workers
		}
		if queueSize > 0 {
			s.queueSize = queueSize
		}
	}
}

// WithClock replaces the wall clock used for caching and recency.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

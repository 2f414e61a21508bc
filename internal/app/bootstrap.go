package service

import (
	"context"
	"fmt"

	"github.com/okian/trendhub/internal/adapters/sources"
	"github.com/okian/trendhub/internal/config"
	"github.com/okian/trendhub/internal/domain/dedupe"
)

// NewFromConfig builds a Service from cfg and registers every configured
// source. Extra options are applied after the configured ones.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	policy, err := dedupe.ParseMergePolicy(cfg.DedupeMerge)
	if err != nil {
		return nil, fmt.Errorf("dedupe merge policy: %w", err)
	}
	base := []Option{
		WithCacheTTL(cfg.CacheTTL()),
		WithJanitorInterval(cfg.JanitorInterval()),
		WithCallTimeout(cfg.SourceTimeout()),
		WithFanoutLimit(cfg.FanoutLimit),
		WithMergePolicy(policy),
		WithRefresh(cfg.RefreshInterval(), cfg.RefreshWorkers, cfg.RefreshQueueSize),
	}
	svc := New(append(base, opts...)...)
	if _, err := sources.Build(ctx, cfg, svc.Registry(), svc.Cache()); err != nil {
		return nil, fmt.Errorf("register sources: %w", err)
	}
	return svc, nil
}

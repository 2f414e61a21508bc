// Package source defines the contract every data source honours and the
// Base wrapper that enforces it around a raw Fetcher.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/trendhub/internal/adapters/cache"
	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/pkg/logger"
	"github.com/okian/trendhub/pkg/metrics"
)

// Fetcher performs the external retrieval for one capability. It may fail
// or panic; Base absorbs both.
type Fetcher interface {
	Fetch(ctx context.Context, capability model.Capability, params model.Params) ([]model.Record, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, capability model.Capability, params model.Params) ([]model.Record, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, capability model.Capability, params model.Params) ([]model.Record, error) {
	return f(ctx, capability, params)
}

// Descriptor is a source's static identity. Enabled is fixed at
// construction; a source missing its credentials is built disabled.
type Descriptor struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Enabled      bool                `json:"enabled"`
	Capabilities model.CapabilitySet `json:"-"`

	// Informational labels for status reports.
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	Note     string `json:"note,omitempty"`
}

// Source is what the aggregation manager fans out to.
type Source interface {
	Descriptor() Descriptor
	Fetch(ctx context.Context, capability model.Capability, params model.Params) ([]model.Record, error)
}

// CacheKey is the cache slot for one source and capability.
func CacheKey(id string, capability model.Capability) string {
	return id + "_" + string(capability)
}

// Base wraps a Fetcher with the enabled check, capability filtering,
// caching and failure isolation.
type Base struct {
	desc    Descriptor
	fetcher Fetcher
	cache   cache.Cache
	log     logger.Logger
}

var _ Source = (*Base)(nil)

// New builds a Base source. A nil cache disables caching.
func New(desc Descriptor, fetcher Fetcher, c cache.Cache, opts ...Option) *Base {
	b := &Base{
		desc:    desc,
		fetcher: fetcher,
		cache:   c,
		log:     logger.Named("source"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With(logger.String("source", desc.ID))
	return b
}

// Descriptor returns the source identity.
func (b *Base) Descriptor() Descriptor { return b.desc }

// Fetch never returns an error: failures are logged, counted and turned
// into an empty result.
func (b *Base) Fetch(ctx context.Context, capability model.Capability, params model.Params) ([]model.Record, error) {
	id := b.desc.ID
	if !b.desc.Enabled {
		metrics.RecordSourceFetch(id, string(capability), metrics.OutcomeDisabled)
		return []model.Record{}, nil
	}
	if !b.desc.Capabilities.Has(capability) {
		return []model.Record{}, nil
	}

	key := CacheKey(id, capability)
	if b.cache != nil {
		if cached, ok := b.cache.Get(ctx, key); ok {
			metrics.RecordSourceFetch(id, string(capability), metrics.OutcomeCacheHit)
			return cached, nil
		}
	}

	start := time.Now()
	records, err := b.safeFetch(ctx, capability, params)
	metrics.RecordSourceLatency(id, string(capability), float64(time.Since(start).Milliseconds()))
	if err != nil {
		b.log.Error(ctx, "fetch failed",
			logger.String("capability", string(capability)),
			logger.Error(err),
		)
		metrics.RecordErrorByComponent("source", "fetch_error")
		return []model.Record{}, nil
	}

	for i := range records {
		records[i].Source = id
		if len(records[i].Sources) == 0 {
			records[i].Sources = []string{id}
		}
		if records[i].Kind == "" {
			records[i].Kind = capability
		}
	}
	if records == nil {
		records = []model.Record{}
	}

	if b.cache != nil {
		b.cache.Set(ctx, key, records)
	}
	metrics.RecordSourceFetch(id, string(capability), metrics.OutcomeSuccess)
	metrics.RecordSourceRecords(id, string(capability), len(records))
	return records, nil
}

func (b *Base) safeFetch(ctx context.Context, capability model.Capability, params model.Params) (records []model.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordSourceFetch(b.desc.ID, string(capability), metrics.OutcomePanic)
			err = &FetchError{Source: b.desc.ID, Capability: capability, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	records, err = b.fetcher.Fetch(ctx, capability, params)
	if err != nil {
		metrics.RecordSourceFetch(b.desc.ID, string(capability), metrics.OutcomeError)
		return nil, &FetchError{Source: b.desc.ID, Capability: capability, Err: err}
	}
	return records, nil
}

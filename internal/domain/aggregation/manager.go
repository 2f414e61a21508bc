// Package aggregation fans a capability request out to every registered
// source and gathers what comes back, isolating each source's failures.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/internal/domain/source"
	"github.com/okian/trendhub/pkg/logger"
	"github.com/okian/trendhub/pkg/metrics"
	"github.com/okian/trendhub/pkg/tracing"
)

// DefaultCallTimeout is the per-source budget for one fan-out.
const DefaultCallTimeout = 10 * time.Second

// Result is the outcome of one fan-out. Both slices follow registration order.
type Result struct {
	Results  []model.SourceResult `json:"results"`
	Failures []model.Failure      `json:"failures"`
}

// SourceStatus is the operator view of one registered source.
type SourceStatus struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Enabled      bool               `json:"enabled"`
	Capabilities []model.Capability `json:"capabilities"`
	Status       string             `json:"status,omitempty"`
	Priority     string             `json:"priority,omitempty"`
	Note         string             `json:"note,omitempty"`
}

// Manager holds the source registry. Registration normally completes
// before the first fan-out, but both are safe to interleave.
type Manager struct {
	mu      sync.RWMutex
	order   []string
	sources map[string]source.Source

	callTimeout time.Duration
	limit       int
	log         logger.Logger
	tracer      trace.Tracer
}

// NewManager constructs an empty registry with configuration options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sources:     make(map[string]source.Source),
		callTimeout: DefaultCallTimeout,
		log:         logger.Named("aggregation"),
		tracer:      tracing.Tracer(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds src under id. Registering an existing id replaces the
// source but keeps its original position.
func (m *Manager) Register(id string, src source.Source) error {
	if id == "" {
		return fmt.Errorf("%w: empty source id", ErrConfiguration)
	}
	if src == nil {
		return fmt.Errorf("%w: source %q is nil", ErrConfiguration, id)
	}
	if src.Descriptor().Capabilities.Empty() {
		return fmt.Errorf("%w: source %q declares no capabilities", ErrConfiguration, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sources[id]; !exists {
		m.order = append(m.order, id)
	}
	m.sources[id] = src
	return nil
}

type entry struct {
	id  string
	src source.Source
}

func (m *Manager) snapshot() []entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]entry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, entry{id: id, src: m.sources[id]})
	}
	return out
}

// Sources returns every registered descriptor in registration order.
func (m *Manager) Sources() []source.Descriptor {
	entries := m.snapshot()
	out := make([]source.Descriptor, len(entries))
	for i, e := range entries {
		out[i] = e.src.Descriptor()
	}
	return out
}

// Active returns the ids of enabled sources in registration order.
func (m *Manager) Active() []string {
	var out []string
	for _, e := range m.snapshot() {
		if e.src.Descriptor().Enabled {
			out = append(out, e.id)
		}
	}
	return out
}

// Status reports every registered source, enabled or not.
func (m *Manager) Status() []SourceStatus {
	entries := m.snapshot()
	out := make([]SourceStatus, len(entries))
	for i, e := range entries {
		d := e.src.Descriptor()
		out[i] = SourceStatus{
			ID:           e.id,
			Name:         d.Name,
			Enabled:      d.Enabled,
			Capabilities: d.Capabilities.List(),
			Status:       d.Status,
			Priority:     d.Priority,
			Note:         d.Note,
		}
	}
	return out
}

type outcome struct {
	records []model.Record
	failure string
	reason  string
	ok      bool
}

// FetchFromAll calls every enabled source declaring capability at once.
// A source that errors, panics or overruns the call timeout becomes a
// Failure; it never aborts the others.
func (m *Manager) FetchFromAll(ctx context.Context, capability model.Capability, params model.Params) Result {
	start := time.Now()

	var eligible []entry
	for _, e := range m.snapshot() {
		d := e.src.Descriptor()
		if d.Enabled && d.Capabilities.Has(capability) {
			eligible = append(eligible, e)
		}
	}

	ctx, span := m.tracer.Start(ctx, "aggregation.FetchFromAll", trace.WithAttributes(
		attribute.String("capability", string(capability)),
		attribute.Int("sources", len(eligible)),
	))
	defer span.End()

	slots := make([]outcome, len(eligible))
	var g errgroup.Group
	if m.limit > 0 {
		g.SetLimit(m.limit)
	}
	for i, e := range eligible {
		g.Go(func() error {
			slots[i] = m.call(ctx, e, capability, params)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Results: []model.SourceResult{}}
	for i, o := range slots {
		id := eligible[i].id
		if !o.ok {
			res.Failures = append(res.Failures, model.Failure{Source: id, Error: o.failure})
			continue
		}
		res.Results = append(res.Results, model.SourceResult{Source: id, Records: o.records})
	}

	metrics.RecordFanout(string(capability), float64(time.Since(start).Milliseconds()))
	span.SetAttributes(
		attribute.Int("results", len(res.Results)),
		attribute.Int("failures", len(res.Failures)),
	)
	if len(res.Failures) > 0 {
		m.log.Warn(ctx, "fan-out finished with failures",
			logger.String("capability", string(capability)),
			logger.Int("results", len(res.Results)),
			logger.Int("failures", len(res.Failures)),
		)
	}
	return res
}

// call runs one source under its own deadline. The source runs in a
// separate goroutine so an overrun can be abandoned; its buffered channel
// lets it finish in the background without leaking.
func (m *Manager) call(ctx context.Context, e entry, capability model.Capability, params model.Params) outcome {
	ctx, span := m.tracer.Start(ctx, "source.Fetch", trace.WithAttributes(
		attribute.String("source", e.id),
		attribute.String("capability", string(capability)),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{failure: fmt.Sprintf("panic: %v", r), reason: metrics.OutcomePanic}
			}
		}()
		records, err := e.src.Fetch(callCtx, capability, params)
		if err != nil {
			done <- outcome{failure: err.Error(), reason: metrics.OutcomeError}
			return
		}
		if records == nil {
			records = []model.Record{}
		}
		done <- outcome{records: records, ok: true}
	}()

	var o outcome
	select {
	case o = <-done:
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			o = outcome{failure: fmt.Sprintf("timeout after %s", m.callTimeout), reason: metrics.OutcomeTimeout}
		} else {
			o = outcome{failure: callCtx.Err().Error(), reason: metrics.OutcomeError}
		}
	}

	if !o.ok {
		span.SetStatus(codes.Error, o.failure)
		metrics.RecordFanoutFailure(e.id, string(capability), o.reason)
		m.log.Warn(ctx, "source call failed",
			logger.String("source", e.id),
			logger.String("capability", string(capability)),
			logger.String("reason", o.failure),
		)
	}
	return o
}

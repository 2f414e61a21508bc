// Package collection turns a fan-out into one flat list of records.
package collection

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/trendhub/internal/domain/aggregation"
	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/pkg/logger"
	"github.com/okian/trendhub/pkg/metrics"
)

// Fanout is the part of the aggregation manager the collector needs.
type Fanout interface {
	FetchFromAll(ctx context.Context, capability model.Capability, params model.Params) aggregation.Result
}

// Collection is the flattened result of one run.
type Collection struct {
	RunID      string           `json:"run_id"`
	Capability model.Capability `json:"capability"`
	Records    []model.Record   `json:"data"`
	Sources    []string         `json:"sources"`
	Failures   []model.Failure  `json:"failures,omitempty"`
}

// Partial reports whether any source failed.
func (c *Collection) Partial() bool { return len(c.Failures) > 0 }

// Collector runs collections against a Fanout.
type Collector struct {
	fanout Fanout
	log    logger.Logger
}

// Option applies a configuration option to the Collector.
type Option func(*Collector)

// WithLogger overrides the collector logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCollector constructs a collector over fanout.
func NewCollector(fanout Fanout, opts ...Option) *Collector {
	c := &Collector{fanout: fanout, log: logger.Named("collection")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect concatenates every source's records in registration order.
// Sources lists everyone who answered, even with nothing; Failures is nil
// when all sources answered.
func (c *Collector) Collect(ctx context.Context, capability model.Capability, params model.Params) Collection {
	start := time.Now()
	runID := uuid.NewString()

	res := c.fanout.FetchFromAll(ctx, capability, params)

	out := Collection{
		RunID:      runID,
		Capability: capability,
		Records:    []model.Record{},
		Sources:    make([]string, 0, len(res.Results)),
	}
	for _, r := range res.Results {
		out.Records = append(out.Records, r.Records...)
		out.Sources = append(out.Sources, r.Source)
	}
	if len(res.Failures) > 0 {
		out.Failures = res.Failures
	}

	metrics.RecordCollection(string(capability), len(out.Records), len(out.Failures))
	c.log.Info(ctx, "collection complete",
		logger.String("run_id", runID),
		logger.String("capability", string(capability)),
		logger.Int("records", len(out.Records)),
		logger.Strings("sources", out.Sources),
		logger.Int("failures", len(out.Failures)),
		logger.Duration("took", time.Since(start)),
	)
	return out
}

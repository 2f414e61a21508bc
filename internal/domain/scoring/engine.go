package scoring

import (
	"context"
	"sort"
	"time"

	"github.com/okian/trendhub/internal/domain/dedupe"
	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/pkg/logger"
	"github.com/okian/trendhub/pkg/metrics"
)

// Engine deduplicates, scores and ranks trend records.
type Engine struct {
	deduper *dedupe.Deduper
	now     func() time.Time
	log     logger.Logger
}

// NewEngine constructs an engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		deduper: dedupe.New(),
		now:     time.Now,
		log:     logger.Named("scoring"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Deduplicate exposes the engine's configured deduper.
func (e *Engine) Deduplicate(records []model.Record) []model.Record {
	return e.deduper.Deduplicate(records)
}

// ScoreAll ranks the trend records in records, highest momentum first.
// Equal scores keep their deduplicated input order. Records of other kinds
// are ignored; see PassThrough.
func (e *Engine) ScoreAll(records []model.Record) []model.ScoredTrend {
	trends := make([]model.Record, 0, len(records))
	for i := range records {
		if isTrend(&records[i]) {
			trends = append(trends, records[i])
		}
	}

	now := e.now()
	unique := e.deduper.Deduplicate(trends)
	out := make([]model.ScoredTrend, len(unique))
	for i := range unique {
		r := unique[i]
		b := Score(&r, now)
		r.MomentumScore = b.Score
		out[i] = model.ScoredTrend{
			Record:     r,
			Lifecycle:  LifecycleFor(b.Score),
			Confidence: ConfidenceFor(len(r.Sources)),
			Breakdown:  b,
		}
		metrics.RecordMomentumScore(b.Score, string(out[i].Lifecycle))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MomentumScore > out[j].MomentumScore
	})

	if len(out) > 0 {
		e.log.Info(context.Background(), "scoring complete",
			logger.Int("count", len(out)),
			logger.String("top_trend", out[0].Name),
			logger.Int("top_score", out[0].MomentumScore),
		)
	}
	return out
}

// PassThrough returns the non-trend records unchanged, in order.
func (e *Engine) PassThrough(records []model.Record) []model.Record {
	out := make([]model.Record, 0, len(records))
	for i := range records {
		if !isTrend(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

func isTrend(r *model.Record) bool {
	return r.Kind == model.Trends || r.Kind == ""
}

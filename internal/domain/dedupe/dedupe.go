// Package dedupe merges records that name the same thing across sources.
package dedupe

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/pkg/logger"
	"github.com/okian/trendhub/pkg/metrics"
)

// MergePolicy decides how MentionCount is combined when records merge.
type MergePolicy string

const (
	// PairwiseMean sets kept = (kept + incoming) / 2 on every merge. With
	// three or more duplicates the result depends on arrival order; existing
	// consumers rely on these numbers.
	PairwiseMean MergePolicy = "pairwise"
	// TrueMean averages every duplicate equally.
	TrueMean MergePolicy = "mean"
)

func (p MergePolicy) valid() bool {
	return p == PairwiseMean || p == TrueMean
}

// ParseMergePolicy maps a config value to a policy. Empty means PairwiseMean.
func ParseMergePolicy(s string) (MergePolicy, error) {
	p := MergePolicy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PairwiseMean, nil
	}
	if !p.valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
	return p, nil
}

// Deduper merges records by case-insensitive name.
type Deduper struct {
	policy MergePolicy
	log    logger.Logger
}

// New constructs a Deduper with configuration options.
func New(opts ...Option) *Deduper {
	d := &Deduper{
		policy: PairwiseMean,
		log:    logger.Named("dedupe"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Policy returns the configured merge policy.
func (d *Deduper) Policy() MergePolicy { return d.policy }

type group struct {
	rec   model.Record
	sum   float64
	count int
}

// Deduplicate keeps the first record per key in first-seen order and folds
// later duplicates into it. Only Sources is unioned; a record's Source alone
// never adds an origin. Records without a name cannot be keyed and are
// dropped. The input slice and its records are left untouched.
func (d *Deduper) Deduplicate(records []model.Record) []model.Record {
	index := make(map[string]int, len(records))
	groups := make([]*group, 0, len(records))
	merged, dropped := 0, 0

	for i := range records {
		r := &records[i]
		if strings.TrimSpace(r.DisplayName()) == "" {
			dropped++
			d.log.Warn(context.Background(), "dropping record without a name",
				logger.String("source", r.Source),
				logger.String("id", r.ID),
				logger.Error(ErrInvalidRecord),
			)
			continue
		}

		key := r.DedupeKey()
		pos, seen := index[key]
		if !seen {
			kept := r.Clone()
			index[key] = len(groups)
			groups = append(groups, &group{rec: kept, sum: r.MentionCount, count: 1})
			continue
		}

		g := groups[pos]
		g.rec.Sources = union(g.rec.Sources, r.Sources)
		g.sum += r.MentionCount
		g.count++
		switch d.policy {
		case TrueMean:
			g.rec.MentionCount = g.sum / float64(g.count)
		default:
			g.rec.MentionCount = (g.rec.MentionCount + r.MentionCount) / 2
		}
		merged++
	}

	if merged > 0 {
		metrics.RecordDedupeMerged(merged)
	}
	if dropped > 0 {
		metrics.RecordDedupeDropped(dropped)
		metrics.RecordErrorByComponent("dedupe", "invalid_record")
	}

	out := make([]model.Record, len(groups))
	for i, g := range groups {
		out[i] = g.rec
	}
	return out
}

// union appends the members of add missing from base, keeping order. Two
// empty lists stay nil.
func union(base, add []string) []string {
	if len(base) == 0 && len(add) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(add))
	seen := make(map[string]struct{}, len(base)+len(add))
	for _, list := range [][]string{base, add} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

var defaultDeduper = &Deduper{policy: PairwiseMean, log: logger.Nop()}

// Deduplicate runs the default PairwiseMean deduper.
func Deduplicate(records []model.Record) []model.Record {
	return defaultDeduper.Deduplicate(records)
}

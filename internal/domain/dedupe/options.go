package dedupe

import "github.com/okian/trendhub/pkg/logger"

// Option applies a configuration option to the Deduper.
type Option func(*Deduper)

// WithMergePolicy selects how mention counts of duplicates are combined.
func WithMergePolicy(p MergePolicy) Option {
	return func(d *Deduper) {
		if p.valid() {
			d.policy = p
		}
	}
}

// WithLogger overrides the logger used to report dropped records.
func WithLogger(l logger.Logger) Option {
	return func(d *Deduper) {
		if l != nil {
			d.log = l
		}
	}
}

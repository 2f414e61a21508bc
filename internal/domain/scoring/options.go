package scoring

import (
	"time"

	"github.com/okian/trendhub/internal/domain/dedupe"
	"github.com/okian/trendhub/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for recency.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithDeduper sets the deduper run before scoring.
func WithDeduper(d *dedupe.Deduper) Option {
	return func(e *Engine) {
		if d != nil {
			e.deduper = d
		}
	}
}

// WithLogger overrides the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

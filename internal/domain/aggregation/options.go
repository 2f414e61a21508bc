package aggregation

import (
	"time"

	"github.com/okian/trendhub/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithCallTimeout bounds each individual source call.
func WithCallTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.callTimeout = d
		}
	}
}

// WithConcurrencyLimit caps how many source calls run at once. Zero or
// negative means unbounded.
func WithConcurrencyLimit(n int) Option {
	return func(m *Manager) {
		m.limit = n
	}
}

// WithLogger overrides the manager logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithTracer overrides the tracer used for fan-out spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

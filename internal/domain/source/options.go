package source

import "github.com/okian/trendhub/pkg/logger"

// Option applies a configuration option to a Base source.
type Option func(*Base)

// WithLogger overrides the logger used to report fetch failures.
func WithLogger(l logger.Logger) Option {
	return func(b *Base) {
		if l != nil {
			b.log = l
		}
	}
}

package cache

import "time"

// Option applies a configuration option to the TTLCache.
type Option func(*TTLCache)

// WithTTL sets how long an entry stays readable after it is written.
func WithTTL(ttl time.Duration) Option {
	return func(c *TTLCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithTTLHours sets the TTL in whole hours, the unit operators configure.
func WithTTLHours(hours int) Option {
	return WithTTL(time.Duration(hours) * time.Hour)
}

// WithShards sets the number of lock shards.
func WithShards(n int) Option {
	return func(c *TTLCache) {
		if n > 0 {
			c.shardCount = n
		}
	}
}

// WithClock replaces the wall clock, letting tests simulate expiry.
func WithClock(now func() time.Time) Option {
	return func(c *TTLCache) {
		if now != nil {
			c.now = now
		}
	}
}

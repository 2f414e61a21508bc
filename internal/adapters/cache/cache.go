// Package cache holds the per-source result cache.
package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/pkg/metrics"
)

const (
	// DefaultTTL matches the four hour freshness window sources are tuned for.
	DefaultTTL    = 4 * time.Hour
	defaultShards = 16
)

// Cache stores source results by key. Implementations must be safe for
// concurrent use; a read past an entry's expiry is a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]model.Record, bool)
	Set(ctx context.Context, key string, value []model.Record)
	Delete(ctx context.Context, key string)
	FlushAll(ctx context.Context)
	Len(ctx context.Context) int
}

type shard struct {
	mu    sync.RWMutex
	items map[string]model.CacheEntry
}

// TTLCache is a sharded in-memory Cache. Keys hash to one of a fixed set of
// shards so writers to different keys rarely contend.
type TTLCache struct {
	shards     []*shard
	shardCount int
	ttl        time.Duration
	now        func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Cache = (*TTLCache)(nil)

// NewTTLCache constructs a cache with configuration options.
func NewTTLCache(opts ...Option) *TTLCache {
	c := &TTLCache{
		shardCount: defaultShards,
		ttl:        DefaultTTL,
		now:        time.Now,
		stopChan:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.shards = make([]*shard, c.shardCount)
	for i := range c.shards {
		c.shards[i] = &shard{items: make(map[string]model.CacheEntry)}
	}
	return c
}

// TTL returns the configured entry lifetime.
func (c *TTLCache) TTL() time.Duration { return c.ttl }

func (c *TTLCache) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

// Get returns a copy of the cached records. An empty cached list is a hit.
func (c *TTLCache) Get(ctx context.Context, key string) ([]model.Record, bool) {
	s := c.shardFor(key)
	now := c.now()

	s.mu.RLock()
	entry, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		metrics.RecordCacheMiss()
		return nil, false
	}
	if entry.Expired(now) {
		s.mu.Lock()
		// Only drop it if nobody refreshed the key in between.
		if cur, still := s.items[key]; still && cur.Expired(now) {
			delete(s.items, key)
			metrics.RecordCacheEvictions(1)
		}
		s.mu.Unlock()
		metrics.RecordCacheMiss()
		return nil, false
	}

	metrics.RecordCacheHit()
	out := model.CloneRecords(entry.Value)
	if out == nil {
		out = []model.Record{}
	}
	return out, true
}

// Set stores a copy of value, replacing any previous entry for key.
func (c *TTLCache) Set(ctx context.Context, key string, value []model.Record) {
	stored := model.CloneRecords(value)
	if stored == nil {
		stored = []model.Record{}
	}
	entry := model.CacheEntry{Key: key, Value: stored, ExpiresAt: c.now().Add(c.ttl)}

	s := c.shardFor(key)
	s.mu.Lock()
	s.items[key] = entry
	s.mu.Unlock()

	metrics.RecordCacheSet()
}

// Delete removes key if present.
func (c *TTLCache) Delete(ctx context.Context, key string) {
	s := c.shardFor(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// FlushAll drops every entry.
func (c *TTLCache) FlushAll(ctx context.Context) {
	for _, s := range c.shards {
		s.mu.Lock()
		s.items = make(map[string]model.CacheEntry)
		s.mu.Unlock()
	}
	metrics.UpdateCacheSize(0)
}

// Len counts entries that are still readable.
func (c *TTLCache) Len(ctx context.Context) int {
	now := c.now()
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		for _, e := range s.items {
			if !e.Expired(now) {
				n++
			}
		}
		s.mu.RUnlock()
	}
	return n
}

// Size counts stored entries, including expired ones not yet purged.
func (c *TTLCache) Size() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// Purge removes expired entries and returns how many were dropped.
func (c *TTLCache) Purge() int {
	now := c.now()
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for k, e := range s.items {
			if e.Expired(now) {
				delete(s.items, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	if removed > 0 {
		metrics.RecordCacheEvictions(removed)
	}
	return removed
}

// StartJanitor purges expired entries every interval until ctx is done or
// Close is called.
func (c *TTLCache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopChan:
				return
			case <-ticker.C:
				c.Purge()
				metrics.UpdateCacheSize(c.Len(ctx))
			}
		}
	}()
}

// Close stops the janitor and waits for it to exit.
func (c *TTLCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.wg.Wait()
	return nil
}

// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() returns a Config populated with defaults.
//   - Load(ctx) layers .env, an optional YAML file and environment variables
//     on top of those defaults.
//   - External errors are wrapped with this package's sentinel errors.
package config

import (
	"time"
)

// Source ids with built-in adapters.
const (
	SourceHackerNews = "hackernews"
	SourceGitHub     = "github"
	SourceNewsAPI    = "newsapi"
	SourceSerper     = "serper"
	SourceSECEdgar   = "sec_edgar"
	SourceYC         = "yc_scraper"
	SourceTwitter    = "twitter"
	SourceAngelList  = "angellist"
	SourceRSS        = "rss"
)

// Source readiness labels shown in status reports.
const (
	StatusReady          = "ready"
	StatusAwaitingAccess = "awaiting-access"
)

// SourceConfig configures one data source.
type SourceConfig struct {
	// Enabled switches the source on. Sources that need a credential stay
	// disabled without one regardless of this flag.
	Enabled bool   `koanf:"enabled"`
	Name    string `koanf:"name"`
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`

	// FeedURLs lists feeds for the rss source.
	FeedURLs []string `koanf:"feed_urls"`

	// MaxItems bounds how many upstream items one fetch reads; 0 keeps the
	// adapter default.
	MaxItems int `koanf:"max_items"`

	// Capabilities narrows what the source is asked for; empty keeps the
	// adapter's full set.
	Capabilities []string `koanf:"capabilities"`

	// Status, Priority and Note are informational and only surface in
	// status reports.
	Status   string `koanf:"status"`
	Priority string `koanf:"priority"`
	Note     string `koanf:"note"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":3001".
	Addr string `koanf:"addr"`

	// ServiceName is reported to the tracing backend.
	ServiceName string `koanf:"service_name"`

	// OTelEndpoint is the OTLP/HTTP collector host:port; empty disables tracing.
	OTelEndpoint string `koanf:"otel_endpoint"`

	// CacheTTLHours is how long a source result stays readable.
	CacheTTLHours float64 `koanf:"cache_ttl_hours"`

	// CacheJanitorIntervalS is how often expired entries are purged.
	CacheJanitorIntervalS int `koanf:"cache_janitor_interval_s"`

	// SourceTimeoutMS bounds one source call during fan-out.
	SourceTimeoutMS int `koanf:"source_timeout_ms"`

	// FanoutLimit caps concurrent source calls; 0 is unbounded.
	FanoutLimit int `koanf:"fanout_limit"`

	// DedupeMerge selects how duplicate mention counts combine: pairwise or mean.
	DedupeMerge string `koanf:"dedupe_merge"`

	// MaxScoredLimit caps GET /api/trends/scored?limit.
	MaxScoredLimit int `koanf:"max_scored_limit"`

	// RefreshIntervalS schedules background cache warming; 0 disables it.
	RefreshIntervalS int `koanf:"refresh_interval_s"`

	// RefreshWorkers and RefreshQueueSize size the refresh pool.
	RefreshWorkers   int `koanf:"refresh_workers"`
	RefreshQueueSize int `koanf:"refresh_queue_size"`

	// UserAgent is sent to upstream APIs.
	UserAgent string `koanf:"user_agent"`

	// Sources holds per-source settings keyed by source id.
	Sources map[string]SourceConfig `koanf:"sources"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":3001",
		ServiceName:           "trendhub",
		CacheTTLHours:         4,
		CacheJanitorIntervalS: 600,
		SourceTimeoutMS:       10_000,
		FanoutLimit:           0,
		DedupeMerge:           "pairwise",
		MaxScoredLimit:        100,
		RefreshIntervalS:      0,
		RefreshWorkers:        2,
		RefreshQueueSize:      16,
		Sources:               DefaultSources(),
	}
}

// DefaultSources returns the built-in source table.
func DefaultSources() map[string]SourceConfig {
	return map[string]SourceConfig{
		SourceHackerNews: {Enabled: true, Name: "Hacker News", Status: StatusReady, Priority: "high"},
		SourceGitHub:     {Enabled: true, Name: "GitHub Trends", Status: StatusReady, Priority: "high"},
		SourceNewsAPI:    {Enabled: true, Name: "NewsAPI", Status: StatusReady, Priority: "high"},
		SourceSerper:     {Enabled: true, Name: "Serper Search", Status: StatusReady, Priority: "high"},
		SourceSECEdgar:   {Enabled: true, Name: "SEC EDGAR", Status: StatusReady, Priority: "medium"},
		SourceYC:         {Enabled: true, Name: "Y Combinator", Status: StatusReady, Priority: "high"},
		SourceTwitter: {
			Enabled: true, Name: "Twitter/X API", Status: StatusAwaitingAccess, Priority: "high",
			Note: "Fallback: Hacker News used if unavailable",
		},
		SourceAngelList: {
			Enabled: true, Name: "AngelList API", Status: StatusAwaitingAccess, Priority: "high",
			Note: "Fallback: Y Combinator + SEC EDGAR used if unavailable",
		},
		SourceRSS: {Enabled: false, Name: "RSS Feeds", Status: StatusReady, Priority: "low"},
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours * float64(time.Hour))
}

// JanitorInterval returns the cache purge interval.
func (c *Config) JanitorInterval() time.Duration {
	return time.Duration(c.CacheJanitorIntervalS) * time.Second
}

// SourceTimeout returns the per-call fan-out timeout.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutMS) * time.Millisecond
}

// RefreshInterval returns the background refresh period; zero disables it.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalS) * time.Second
}

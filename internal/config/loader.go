package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/trendhub/internal/domain/dedupe"
	"github.com/okian/trendhub/internal/domain/model"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TRENDHUB_"
	// EnvConfigFile names the variable holding a YAML config path.
	EnvConfigFile = EnvPrefix + "CONFIG"
	// EnvDotenv names the variable holding a .env path; ".env" by default.
	EnvDotenv = EnvPrefix + "DOTENV"
)

// legacy maps the unprefixed variables older deployments set.
var legacy = map[string]string{
	"PORT":                 "addr",
	"LOG_LEVEL":            "log_level",
	"CACHE_TTL_HOURS":      "cache_ttl_hours",
	"REQUEST_TIMEOUT_MS":   "source_timeout_ms",
	"USER_AGENT":           "user_agent",
	"GITHUB_TOKEN":         "sources.github.api_key",
	"NEWSAPI_KEY":          "sources.newsapi.api_key",
	"SERPER_API_KEY":       "sources.serper.api_key",
	"TWITTER_BEARER_TOKEN": "sources.twitter.api_key",
	"ANGELLIST_API_KEY":    "sources.angellist.api_key",
	"HACKER_NEWS_ENABLED":  "sources.hackernews.enabled",
	"SEC_EDGAR_ENABLED":    "sources.sec_edgar.enabled",
	"YC_SCRAPER_ENABLED":   "sources.yc_scraper.enabled",
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file, if present, exported into the process environment
//  3. file (YAML) if TRENDHUB_CONFIG is set
//  4. legacy unprefixed variables (PORT, GITHUB_TOKEN, ...)
//  5. env (prefix TRENDHUB_, "__" separates nested keys)
func Load(_ context.Context) (*Config, error) {
	dotenv := os.Getenv(EnvDotenv)
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, dotenv, err)
	}

	base := New()
	k := koanf.New(".")

	// Seed per-source defaults so partial overrides keep the remaining fields.
	for id, sc := range base.Sources {
		_ = k.Set("sources."+id+".enabled", sc.Enabled)
		_ = k.Set("sources."+id+".name", sc.Name)
		_ = k.Set("sources."+id+".status", sc.Status)
		_ = k.Set("sources."+id+".priority", sc.Priority)
		if sc.Note != "" {
			_ = k.Set("sources."+id+".note", sc.Note)
		}
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	legacyProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		target, ok := legacy[key]
		if !ok || value == "" {
			return "", nil
		}
		if target == "addr" && !strings.Contains(value, ":") {
			value = ":" + value
		}
		return target, value
	})
	if err := k.Load(legacyProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// TRENDHUB_SOURCES__GITHUB__API_KEY -> sources.github.api_key
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		if key == EnvConfigFile || key == EnvDotenv {
			return "", nil
		}
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if strings.HasSuffix(key, ".feed_urls") || strings.HasSuffix(key, ".capabilities") {
			return key, strings.Split(value, ",")
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	cfg.Sources = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.CacheTTLHours <= 0 {
		return fmt.Errorf("%w: cache_ttl_hours must be positive", ErrInvalidConfig)
	}
	if c.SourceTimeoutMS <= 0 {
		return fmt.Errorf("%w: source_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.FanoutLimit < 0 || c.RefreshIntervalS < 0 || c.CacheJanitorIntervalS < 0 {
		return fmt.Errorf("%w: fanout_limit, refresh_interval_s and cache_janitor_interval_s must not be negative", ErrInvalidConfig)
	}
	if c.MaxScoredLimit <= 0 {
		return fmt.Errorf("%w: max_scored_limit must be positive", ErrInvalidConfig)
	}
	if _, err := dedupe.ParseMergePolicy(c.DedupeMerge); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for id, sc := range c.Sources {
		for _, name := range sc.Capabilities {
			if _, err := model.ParseCapability(name); err != nil {
				return fmt.Errorf("%w: sources.%s: %w", ErrInvalidConfig, id, err)
			}
		}
	}
	return nil
}

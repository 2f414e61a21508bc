// Package sources builds the configured data sources and registers them
// with an aggregation manager.
package sources

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/okian/trendhub/internal/adapters/cache"
	"github.com/okian/trendhub/internal/adapters/sources/angellist"
	"github.com/okian/trendhub/internal/adapters/sources/github"
	"github.com/okian/trendhub/internal/adapters/sources/hackernews"
	"github.com/okian/trendhub/internal/adapters/sources/httpx"
	"github.com/okian/trendhub/internal/adapters/sources/newsapi"
	"github.com/okian/trendhub/internal/adapters/sources/rss"
	"github.com/okian/trendhub/internal/adapters/sources/secedgar"
	"github.com/okian/trendhub/internal/adapters/sources/serper"
	"github.com/okian/trendhub/internal/adapters/sources/twitter"
	"github.com/okian/trendhub/internal/adapters/sources/yc"
	"github.com/okian/trendhub/internal/config"
	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/internal/domain/source"
	"github.com/okian/trendhub/pkg/logger"
)

// Registrar is the part of the aggregation manager the builder needs.
type Registrar interface {
	Register(id string, src source.Source) error
}

type factory struct {
	id           string
	needsKey     bool
	capabilities model.CapabilitySet
	build        func(sc config.SourceConfig, client *httpx.Client) source.Fetcher
}

// Built-in sources in registration order.
var factories = []factory{
	{
		id:           config.SourceHackerNews,
		capabilities: hackernews.Capabilities(),
		build: func(sc config.SourceConfig, client *httpx.Client) source.Fetcher {
			return hackernews.New(hackernews.Config{BaseURL: sc.BaseURL, MaxItems: sc.MaxItems, Client: client})
		},
	},
	{
		id:           config.SourceGitHub,
		needsKey:     true,
		capabilities: github.Capabilities(),
		build: func(sc config.SourceConfig, client *httpx.Client) source.Fetcher {
			return github.New(github.Config{BaseURL: sc.BaseURL, Token: sc.APIKey, MaxItems: sc.MaxItems, Client: client})
		},
	},
	{
		id:           config.SourceNewsAPI,
		needsKey:     true,
		capabilities: newsapi.Capabilities(),
		build: func(sc config.SourceConfig, client *httpx.Client) source.Fetcher {
			return newsapi.New(newsapi.Config{BaseURL: sc.BaseURL, APIKey: sc.APIKey, Client: client})
		},
	},
	{
		id:           config.SourceSerper,
		needsKey:     true,
		capabilities: serper.Capabilities(),
		build: func(sc config.SourceConfig, client *httpx.Client) source.Fetcher {
			return serper.New(serper.Config{BaseURL: sc.BaseURL, APIKey: sc.APIKey, Client: client})
		},
	},
	{
		id:           config.SourceSECEdgar,
		capabilities: secedgar.Capabilities(),
		build: func(sc config.SourceConfig, client *httpx.Client) source.Fetcher {
			return secedgar.New(secedgar.Config{BaseURL: sc.BaseURL, MaxItems: sc.MaxItems, Client: client})
		},
	},
	{
		id:           config.SourceYC,
		capabilities: yc.Capabilities(),
		build: func(sc config.SourceConfig, client *httpx.Client) source.Fetcher {
			return yc.New(yc.Config{BaseURL: sc.BaseURL, MaxItems: sc.MaxItems, Client: client})
		},
	},
	{
		id:           config.SourceTwitter,
		needsKey:     true,
		capabilities: twitter.Capabilities(),
		build: func(sc config.SourceConfig, client *httpx.Client) source.Fetcher {
			return twitter.New(twitter.Config{BaseURL: sc.BaseURL, BearerToken: sc.APIKey, Client: client})
		},
	},
	{
		id:           config.SourceAngelList,
		needsKey:     true,
		capabilities: angellist.Capabilities(),
		build: func(sc config.SourceConfig, client *httpx.Client) source.Fetcher {
			return angellist.New(angellist.Config{BaseURL: sc.BaseURL, Token: sc.APIKey, Client: client})
		},
	},
	{
		id:           config.SourceRSS,
		capabilities: rss.Capabilities(),
		build: func(sc config.SourceConfig, _ *httpx.Client) source.Fetcher {
			return rss.New(rss.Config{Feeds: sc.FeedURLs})
		},
	},
}

// Build constructs every built-in source from cfg and registers it. Sources
// lacking a required credential or feed list are registered disabled so they
// still show up in status reports. Unknown ids in cfg are logged and skipped.
func Build(ctx context.Context, cfg *config.Config, reg Registrar, c cache.Cache, opts ...httpx.Option) ([]source.Descriptor, error) {
	log := logger.Named("sources")
	client := httpx.New(append([]httpx.Option{
		httpx.WithHTTPClient(&http.Client{Timeout: cfg.SourceTimeout()}),
		httpx.WithUserAgent(cfg.UserAgent),
	}, opts...)...)

	known := make(map[string]struct{}, len(factories))
	descs := make([]source.Descriptor, 0, len(factories))
	for _, f := range factories {
		known[f.id] = struct{}{}
		sc, ok := cfg.Sources[f.id]
		if !ok {
			continue
		}

		caps, err := narrow(f.capabilities, sc.Capabilities)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", f.id, err)
		}
		enabled := sc.Enabled
		if f.needsKey && sc.APIKey == "" {
			enabled = false
		}
		if f.id == config.SourceRSS && len(sc.FeedURLs) == 0 {
			enabled = false
		}
		name := sc.Name
		if name == "" {
			name = f.id
		}

		desc := source.Descriptor{
			ID:           f.id,
			Name:         name,
			Enabled:      enabled,
			Capabilities: caps,
			Status:       sc.Status,
			Priority:     sc.Priority,
			Note:         sc.Note,
		}
		src := source.New(desc, f.build(sc, client), c)
		if err := reg.Register(f.id, src); err != nil {
			return nil, err
		}
		descs = append(descs, desc)
		log.Info(ctx, "source registered",
			logger.String("source", f.id),
			logger.Bool("enabled", enabled),
			logger.String("capabilities", caps.String()),
		)
	}

	unknown := make([]string, 0)
	for id := range cfg.Sources {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		log.Warn(ctx, "ignoring unknown sources", logger.Strings("sources", unknown))
	}
	return descs, nil
}

// narrow restricts an adapter's capabilities to the configured subset.
func narrow(all model.CapabilitySet, names []string) (model.CapabilitySet, error) {
	if len(names) == 0 {
		return all, nil
	}
	var want []model.Capability
	for _, n := range names {
		c, err := model.ParseCapability(n)
		if err != nil {
			return 0, err
		}
		if all.Has(c) {
			want = append(want, c)
		}
	}
	return model.NewCapabilitySet(want...), nil
}

// Package newsapi derives trends and deals from NewsAPI article searches.
package newsapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/okian/trendhub/internal/adapters/sources/httpx"
	"github.com/okian/trendhub/internal/adapters/sources/textutil"
	"github.com/okian/trendhub/internal/domain/model"
)

const (
	ID             = "newsapi"
	DefaultBaseURL = "https://newsapi.org/v2"
	trendPageSize  = 15
	dealPageSize   = 50
	maxTrends      = 50
	dealQuery      = `(funding OR "Series A" OR "Series B" OR acquisition OR IPO) startup`
)

// TrendQueries are searched for the trends capability.
var TrendQueries = []string{"AI startup", "fintech funding", "blockchain venture", "biotech innovation", "climate tech"}

// ErrAPI is returned when NewsAPI answers with status "error".
var ErrAPI = errors.New("newsapi error")

// Capabilities lists what this source produces.
func Capabilities() model.CapabilitySet {
	return model.NewCapabilitySet(model.Trends, model.Deals)
}

// Config holds configuration for the NewsAPI fetcher.
type Config struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
}

// Fetcher implements source.Fetcher for NewsAPI.
type Fetcher struct {
	cfg Config
}

// New creates a fetcher.
func New(cfg Config) *Fetcher {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = httpx.New()
	}
	return &Fetcher{cfg: cfg}
}

type article struct {
	title       string
	description string
	url         string
	source      string
	published   string
}

// Fetch dispatches on capability.
func (f *Fetcher) Fetch(ctx context.Context, capability model.Capability, params model.Params) ([]model.Record, error) {
	switch capability {
	case model.Trends:
		return f.trends(ctx, params)
	case model.Deals:
		return f.deals(ctx, params)
	default:
		return nil, nil
	}
}

func (f *Fetcher) trends(ctx context.Context, params model.Params) ([]model.Record, error) {
	queries := TrendQueries
	if q := params.Get("q", ""); q != "" {
		queries = []string{q}
	}

	results := make([][]article, len(queries))
	errs := make([]error, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.search(ctx, q, trendPageSize)
		}()
	}
	wg.Wait()

	// One bad query is tolerated; all of them failing is not.
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(queries) {
		return nil, errors.Join(errs...)
	}

	seen := make(map[string]struct{})
	out := make([]model.Record, 0, maxTrends)
	for i, batch := range results {
		for j, a := range batch {
			name := textutil.TrendName(a.title, 3)
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup || name == "" {
				continue
			}
			seen[key] = struct{}{}
			rec := a.record(fmt.Sprintf("newsapi-trend-%d-%d", i, j))
			rec.Kind = model.Trends
			rec.Name = name
			rec.Category = textutil.Category(a.title + " " + a.description)
			rec.MentionCount = 1
			out = append(out, rec)
			if len(out) == maxTrends {
				return out, nil
			}
		}
	}
	return out, nil
}

func (f *Fetcher) deals(ctx context.Context, _ model.Params) ([]model.Record, error) {
	articles, err := f.search(ctx, dealQuery, dealPageSize)
	if err != nil {
		return nil, err
	}
	out := make([]model.Record, 0, len(articles))
	for i, a := range articles {
		rec := a.record(fmt.Sprintf("newsapi-deal-%d", i))
		rec.Kind = model.Deals
		rec.CompanyName = textutil.CompanyName(a.title, "Unknown")
		rec.FundingType = textutil.FundingType(a.title)
		rec.Category = textutil.Category(a.title + " " + a.description)
		out = append(out, rec)
	}
	return out, nil
}

func (f *Fetcher) search(ctx context.Context, query string, pageSize int) ([]article, error) {
	v := url.Values{}
	v.Set("q", query)
	v.Set("language", "en")
	v.Set("sortBy", "publishedAt")
	v.Set("pageSize", fmt.Sprint(pageSize))

	body, err := f.cfg.Client.Get(ctx, f.cfg.BaseURL+"/everything?"+v.Encode(), map[string]string{"X-Api-Key": f.cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("search %q: invalid json", query)
	}
	doc := gjson.ParseBytes(body)
	if doc.Get("status").String() == "error" {
		return nil, fmt.Errorf("%w: %s", ErrAPI, doc.Get("message").String())
	}

	var out []article
	doc.Get("articles").ForEach(func(_, a gjson.Result) bool {
		title := strings.TrimSpace(a.Get("title").String())
		if title == "" || title == "[Removed]" {
			return true
		}
		out = append(out, article{
			title:       title,
			description: a.Get("description").String(),
			url:         a.Get("url").String(),
			source:      a.Get("source.name").String(),
			published:   a.Get("publishedAt").String(),
		})
		return true
	})
	return out, nil
}

func (a article) record(id string) model.Record {
	rec := model.Record{
		ID: id,
		Data: map[string]any{
			"title":       a.title,
			"description": a.description,
			"url":         a.url,
			"publisher":   a.source,
			"created_at":  a.published,
		},
	}
	if t, err := time.Parse(time.RFC3339, a.published); err == nil {
		rec.CreatedAt = &t
	}
	return rec
}

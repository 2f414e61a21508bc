// Package serper derives trends and deals from Serper Google search results.
package serper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/okian/trendhub/internal/adapters/sources/httpx"
	"github.com/okian/trendhub/internal/adapters/sources/textutil"
	"github.com/okian/trendhub/internal/domain/model"
)

const (
	ID             = "serper"
	DefaultBaseURL = "https://google.serper.dev"
	trendResults   = 10
	dealResults    = 15
	maxTrends      = 50
	nameLen        = 50
)

var (
	// TrendQueries are searched for the trends capability.
	TrendQueries = []string{
		"AI startup funding 2026",
		"fintech innovation news",
		"blockchain venture capital",
		"climate tech companies",
		"healthcare technology trends",
		"cybersecurity startup",
		"SaaS company launch",
	}
	// DealQueries are searched for the deals capability.
	DealQueries = []string{
		"startup funding announcement",
		"venture capital investment",
		"Series A B C funding rounds",
		"M&A technology companies",
		"IPO news 2026",
	}
)

// ErrAPI is returned when Serper answers with an error message.
var ErrAPI = errors.New("serper error")

// Capabilities lists what this source produces.
func Capabilities() model.CapabilitySet {
	return model.NewCapabilitySet(model.Trends, model.Deals)
}

// Config holds configuration for the Serper fetcher.
type Config struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
}

// Fetcher implements source.Fetcher for Serper.
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

type result struct {
	query    string
	title    string
	snippet  string
	link     string
	position int64
}

// Fetch dispatches on capability.
func (f *Fetcher) Fetch(ctx context.Context, capability model.Capability, params model.Params) ([]model.Record, error) {
	switch capability {
	case model.Trends:
		queries := TrendQueries
		if q := params.Get("q", ""); q != "" {
			queries = []string{q}
		}
		return f.trends(ctx, queries)
	case model.Deals:
		return f.deals(ctx)
	default:
		return nil, nil
	}
}

func (f *Fetcher) trends(ctx context.Context, queries []string) ([]model.Record, error) {
	batches, err := f.searchAll(ctx, queries, trendResults)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := make([]model.Record, 0, maxTrends)
	for i, batch := range batches {
		for j, r := range batch {
			name := textutil.Truncate(r.title, nameLen)
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup || name == "" {
				continue
			}
			seen[key] = struct{}{}
			rec := r.record(fmt.Sprintf("serper-trend-%d-%d", i, j))
			rec.Kind = model.Trends
			rec.Name = name
			rec.Category = textutil.Category(r.query + " " + r.title)
			rec.MentionCount = 1
			out = append(out, rec)
			if len(out) == maxTrends {
				return out, nil
			}
		}
	}
	return out, nil
}

func (f *Fetcher) deals(ctx context.Context) ([]model.Record, error) {
	batches, err := f.searchAll(ctx, DealQueries, dealResults)
	if err != nil {
		return nil, err
	}

	var out []model.Record
	for i, batch := range batches {
		for j, r := range batch {
			rec := r.record(fmt.Sprintf("serper-deal-%d-%d", i, j))
			rec.Kind = model.Deals
			rec.CompanyName = textutil.CompanyName(r.title, "Unknown")
			rec.FundingType = textutil.FundingType(r.title)
			rec.Category = textutil.Category(r.title + " " + r.snippet)
			out = append(out, rec)
		}
	}
	return out, nil
}

// searchAll runs the queries concurrently. A failing query is dropped unless
// every query fails.
func (f *Fetcher) searchAll(ctx context.Context, queries []string, num int) ([][]result, error) {
	results := make([][]result, len(queries))
	errs := make([]error, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.search(ctx, q, num)
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(queries) {
		return nil, errors.Join(errs...)
	}
	return results, nil
}

func (f *Fetcher) search(ctx context.Context, query string, num int) ([]result, error) {
	payload, err := json.Marshal(map[string]any{"q": query, "num": num})
	if err != nil {
		return nil, err
	}
	body, err := f.cfg.Client.Post(ctx, f.cfg.BaseURL+"/search", map[string]string{
		"X-API-KEY":    f.cfg.APIKey,
		"Content-Type": "application/json",
	}, payload)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("search %q: invalid json", query)
	}
	doc := gjson.ParseBytes(body)
	if msg := doc.Get("message"); msg.Exists() && !doc.Get("organic").Exists() {
		return nil, fmt.Errorf("%w: %s", ErrAPI, msg.String())
	}

	var out []result
	doc.Get("organic").ForEach(func(_, o gjson.Result) bool {
		title := strings.TrimSpace(o.Get("title").String())
		if title == "" {
			return true
		}
		out = append(out, result{
			query:    query,
			title:    title,
			snippet:  o.Get("snippet").String(),
			link:     o.Get("link").String(),
			position: o.Get("position").Int(),
		})
		return true
	})
	return out, nil
}

func (r result) record(fallbackID string) model.Record {
	id := r.link
	if id == "" {
		id = fallbackID
	}
	return model.Record{
		ID: id,
		Data: map[string]any{
			"title":       r.title,
			"description": r.snippet,
			"url":         r.link,
			"position":    r.position,
			"query":       r.query,
		},
	}
}

// Package twitter reads recent tweets from the X API v2 search endpoint.
package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/okian/trendhub/internal/adapters/sources/httpx"
	"github.com/okian/trendhub/internal/adapters/sources/textutil"
	"github.com/okian/trendhub/internal/domain/model"
)

const (
	ID             = "twitter"
	DefaultBaseURL = "https://api.twitter.com/2"
	trendResults   = 10
	dealResults    = 25
	founderResults = 20
	nameLen        = 50
	dealQuery      = "(funding announcement OR Series funding OR acquisition OR IPO) -is:retweet"
	founderQuery   = "(founder OR startup founder OR serial entrepreneur) -is:retweet"
)

// TrendKeywords are searched one by one for the trends capability.
var TrendKeywords = []string{"startup", "funding", "venture capital", "Series A", "Series B", "IPO", "acquisition"}

// ErrAPI is returned when the API answers with an errors array and no data.
var ErrAPI = errors.New("twitter error")

// Capabilities lists what this source produces.
func Capabilities() model.CapabilitySet {
	return model.NewCapabilitySet(model.Trends, model.Deals, model.Founders)
}

// Config holds configuration for the Twitter fetcher.
type Config struct {
	BaseURL     string
	BearerToken string
	Client      *httpx.Client
}

// Fetcher implements source.Fetcher for Twitter/X.
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

type author struct {
	name     string
	username string
	bio      string
}

type tweet struct {
	id          string
	text        string
	created     string
	impressions int64
	likes       int64
	retweets    int64
	author      author
}

// Fetch dispatches on capability.
func (f *Fetcher) Fetch(ctx context.Context, capability model.Capability, params model.Params) ([]model.Record, error) {
	switch capability {
	case model.Trends:
		keywords := TrendKeywords
		if q := params.Get("q", ""); q != "" {
			keywords = []string{q}
		}
		return f.trends(ctx, keywords)
	case model.Deals:
		return f.deals(ctx)
	case model.Founders:
		return f.founders(ctx)
	default:
		return nil, nil
	}
}

func (f *Fetcher) trends(ctx context.Context, keywords []string) ([]model.Record, error) {
	results := make([][]tweet, len(keywords))
	errs := make([]error, len(keywords))
	var wg sync.WaitGroup
	for i, kw := range keywords {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.search(ctx, kw+" -is:retweet", trendResults)
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(keywords) {
		return nil, errors.Join(errs...)
	}

	var out []model.Record
	for i, batch := range results {
		category := "fintech"
		if strings.EqualFold(keywords[i], "startup") {
			category = "saas"
		}
		for _, tw := range batch {
			rec := tw.record()
			rec.Kind = model.Trends
			rec.Name = textutil.Truncate(tw.text, nameLen)
			rec.Category = category
			rec.MentionCount = float64(tw.impressions)
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *Fetcher) deals(ctx context.Context) ([]model.Record, error) {
	tweets, err := f.search(ctx, dealQuery, dealResults)
	if err != nil {
		return nil, err
	}
	out := make([]model.Record, 0, len(tweets))
	for _, tw := range tweets {
		rec := tw.record()
		rec.Kind = model.Deals
		rec.CompanyName = textutil.CompanyName(tw.text, "Unknown")
		rec.FundingType = textutil.FundingType(tw.text)
		rec.Category = textutil.Category(tw.text)
		out = append(out, rec)
	}
	return out, nil
}

func (f *Fetcher) founders(ctx context.Context) ([]model.Record, error) {
	tweets, err := f.search(ctx, founderQuery, founderResults)
	if err != nil {
		return nil, err
	}
	out := make([]model.Record, 0, len(tweets))
	for _, tw := range tweets {
		if tw.author.name == "" {
			continue
		}
		rec := tw.record()
		rec.Kind = model.Founders
		rec.Name = tw.author.name
		rec.Title = "Founder"
		rec.Data["bio"] = tw.author.bio
		out = append(out, rec)
	}
	return out, nil
}

func (f *Fetcher) search(ctx context.Context, query string, limit int) ([]tweet, error) {
	v := url.Values{}
	v.Set("query", query)
	v.Set("max_results", fmt.Sprint(limit))
	v.Set("tweet.fields", "created_at,public_metrics,author_id")
	v.Set("expansions", "author_id")
	v.Set("user.fields", "name,username,description")

	body, err := f.cfg.Client.Get(ctx, f.cfg.BaseURL+"/tweets/search/recent?"+v.Encode(),
		map[string]string{"Authorization": "Bearer " + f.cfg.BearerToken})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("search %q: invalid json", query)
	}
	doc := gjson.ParseBytes(body)
	if !doc.Get("data").Exists() && doc.Get("errors.0").Exists() {
		return nil, fmt.Errorf("%w: %s", ErrAPI, doc.Get("errors.0.detail").String())
	}

	authors := make(map[string]author)
	doc.Get("includes.users").ForEach(func(_, u gjson.Result) bool {
		authors[u.Get("id").String()] = author{
			name:     u.Get("name").String(),
			username: u.Get("username").String(),
			bio:      u.Get("description").String(),
		}
		return true
	})

	var out []tweet
	doc.Get("data").ForEach(func(_, t gjson.Result) bool {
		text := strings.TrimSpace(t.Get("text").String())
		if text == "" {
			return true
		}
		out = append(out, tweet{
			id:          t.Get("id").String(),
			text:        text,
			created:     t.Get("created_at").String(),
			impressions: t.Get("public_metrics.impression_count").Int(),
			likes:       t.Get("public_metrics.like_count").Int(),
			retweets:    t.Get("public_metrics.retweet_count").Int(),
			author:      authors[t.Get("author_id").String()],
		})
		return true
	})
	return out, nil
}

func (t tweet) record() model.Record {
	link := ""
	if t.author.username != "" {
		link = "https://twitter.com/" + t.author.username + "/status/" + t.id
	}
	rec := model.Record{
		ID: t.id,
		Data: map[string]any{
			"text":       t.text,
			"url":        link,
			"author":     t.author.username,
			"likes":      t.likes,
			"retweets":   t.retweets,
			"created_at": t.created,
		},
	}
	if ts, err := time.Parse(time.RFC3339, t.created); err == nil {
		rec.CreatedAt = &ts
	}
	return rec
}

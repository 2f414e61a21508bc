// Package hackernews reads top stories from the Hacker News Firebase API.
package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/trendhub/internal/adapters/sources/httpx"
	"github.com/okian/trendhub/internal/adapters/sources/textutil"
	"github.com/okian/trendhub/internal/domain/model"
)

const (
	// ID is the source id used in records and cache keys.
	ID             = "hackernews"
	DefaultBaseURL = "https://hacker-news.firebaseio.com/v0"
	defaultMax     = 20
	dealScanMax    = 25
	itemFetchLimit = 8
)

// Capabilities lists what this source produces.
func Capabilities() model.CapabilitySet {
	return model.NewCapabilitySet(model.Trends, model.Deals)
}

// Config holds configuration for the Hacker News fetcher.
type Config struct {
	BaseURL  string
	MaxItems int
	Client   *httpx.Client
}

// Fetcher implements source.Fetcher for Hacker News.
type Fetcher struct {
	baseURL  string
	maxItems int
	client   *httpx.Client
}

// New creates a fetcher, filling unset fields with defaults.
func New(cfg Config) *Fetcher {
	f := &Fetcher{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		maxItems: cfg.MaxItems,
		client:   cfg.Client,
	}
	if f.baseURL == "" {
		f.baseURL = DefaultBaseURL
	}
	if f.maxItems <= 0 {
		f.maxItems = defaultMax
	}
	if f.client == nil {
		f.client = httpx.New()
	}
	return f
}

type story struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
	Type        string `json:"type"`
}

// Fetch returns trends or deals built from the current top stories.
func (f *Fetcher) Fetch(ctx context.Context, capability model.Capability, _ model.Params) ([]model.Record, error) {
	switch capability {
	case model.Trends:
		stories, err := f.topStories(ctx, f.maxItems)
		if err != nil {
			return nil, err
		}
		out := make([]model.Record, 0, len(stories))
		for _, s := range stories {
			out = append(out, trendRecord(s))
		}
		return out, nil
	case model.Deals:
		stories, err := f.topStories(ctx, max(f.maxItems, dealScanMax))
		if err != nil {
			return nil, err
		}
		var out []model.Record
		for _, s := range stories {
			if textutil.ContainsAny(s.Title, textutil.DealKeywords...) || textutil.ContainsAny(s.Title, "startup") {
				out = append(out, dealRecord(s))
			}
		}
		return out, nil
	default:
		return nil, nil
	}
}

func (f *Fetcher) topStories(ctx context.Context, limit int) ([]*story, error) {
	body, err := f.client.Get(ctx, f.baseURL+"/topstories.json", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch top stories: %w", err)
	}
	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("decode top stories: %w", err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	// Individual items that fail are skipped; the batch still succeeds.
	stories := make([]*story, len(ids))
	var g errgroup.Group
	g.SetLimit(itemFetchLimit)
	for i, id := range ids {
		g.Go(func() error {
			s, err := f.item(ctx, id)
			if err == nil && s.Title != "" && (s.Type == "" || s.Type == "story") {
				stories[i] = s
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := stories[:0]
	for _, s := range stories {
		if s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *Fetcher) item(ctx context.Context, id int) (*story, error) {
	body, err := f.client.Get(ctx, fmt.Sprintf("%s/item/%d.json", f.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	var s story
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *story) link() string {
	if s.URL != "" {
		return s.URL
	}
	return "https://news.ycombinator.com/item?id=" + strconv.Itoa(s.ID)
}

func (s *story) data() (map[string]any, *time.Time) {
	created := time.Unix(s.Time, 0).UTC()
	return map[string]any{
		"title":      s.Title,
		"url":        s.link(),
		"score":      s.Score,
		"comments":   s.Descendants,
		"time":       created.Format(time.RFC3339),
		"created_at": created.Format(time.RFC3339),
	}, &created
}

func trendRecord(s *story) model.Record {
	data, created := s.data()
	return model.Record{
		Kind:         model.Trends,
		ID:           strconv.Itoa(s.ID),
		Name:         textutil.TrendName(s.Title, 1),
		Category:     textutil.Category(s.Title),
		MentionCount: float64(s.Score),
		Data:         data,
		CreatedAt:    created,
	}
}

func dealRecord(s *story) model.Record {
	data, created := s.data()
	return model.Record{
		Kind:        model.Deals,
		ID:          strconv.Itoa(s.ID),
		CompanyName: textutil.CompanyName(s.Title, "Unknown"),
		FundingType: textutil.FundingType(s.Title),
		Data:        data,
		CreatedAt:   created,
	}
}

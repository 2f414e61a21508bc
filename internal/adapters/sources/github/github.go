// Package github surfaces fast-rising repositories from the GitHub search API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/okian/trendhub/internal/adapters/sources/httpx"
	"github.com/okian/trendhub/internal/adapters/sources/textutil"
	"github.com/okian/trendhub/internal/domain/model"
)

const (
	ID             = "github"
	DefaultBaseURL = "https://api.github.com"
	defaultMax     = 30
	minStars       = 100
	window         = 7 * 24 * time.Hour
)

// Capabilities lists what this source produces.
func Capabilities() model.CapabilitySet {
	return model.NewCapabilitySet(model.Trends)
}

// Config holds configuration for the GitHub fetcher.
type Config struct {
	BaseURL  string
	Token    string
	MaxItems int
	Client   *httpx.Client
	Now      func() time.Time
}

// Fetcher implements source.Fetcher for GitHub.
type Fetcher struct {
	cfg Config
}

// New creates a fetcher, filling unset fields with defaults.
func New(cfg Config) *Fetcher {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = defaultMax
	}
	if cfg.Client == nil {
		cfg.Client = httpx.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Fetcher{cfg: cfg}
}

type searchResponse struct {
	Items []repo `json:"items"`
}

type repo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
	Forks       int    `json:"forks_count"`
	Watchers    int    `json:"watchers_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// Query builds the search for repositories created in the last week. A
// "language" param narrows it.
func (f *Fetcher) Query(params model.Params) string {
	since := f.cfg.Now().Add(-window).UTC().Format("2006-01-02")
	q := fmt.Sprintf("created:>%s stars:>%d", since, minStars)
	if lang := params.Get("language", ""); lang != "" {
		q += " language:" + lang
	}
	return q
}

// Fetch returns trending repositories as trend records.
func (f *Fetcher) Fetch(ctx context.Context, capability model.Capability, params model.Params) ([]model.Record, error) {
	if capability != model.Trends {
		return nil, nil
	}

	v := url.Values{}
	v.Set("q", f.Query(params))
	v.Set("sort", "stars")
	v.Set("order", "desc")
	v.Set("per_page", fmt.Sprint(f.cfg.MaxItems))

	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if f.cfg.Token != "" {
		headers["Authorization"] = "Bearer " + f.cfg.Token
	}

	body, err := f.cfg.Client.Get(ctx, f.cfg.BaseURL+"/search/repositories?"+v.Encode(), headers)
	if err != nil {
		return nil, fmt.Errorf("search repositories: %w", err)
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}

	out := make([]model.Record, 0, len(resp.Items))
	for _, r := range resp.Items {
		out = append(out, r.record())
	}
	return out, nil
}

func (r *repo) record() model.Record {
	rec := model.Record{
		Kind:         model.Trends,
		ID:           fmt.Sprintf("github-%d", r.ID),
		Name:         r.Name,
		Category:     textutil.Category(r.Name + " " + r.Description),
		MentionCount: float64(r.Stars),
		Data: map[string]any{
			"url":         r.HTMLURL,
			"description": r.Description,
			"language":    r.Language,
			"stars":       r.Stars,
			"forks":       r.Forks,
			"watchers":    r.Watchers,
			"updated_at":  r.UpdatedAt,
			"created_at":  r.CreatedAt,
			"owner":       r.Owner.Login,
		},
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		rec.CreatedAt = &t
	}
	return rec
}

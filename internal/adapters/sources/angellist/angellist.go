// Package angellist lists fundraising startups and founders from the
// AngelList v1 API.
package angellist

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/okian/trendhub/internal/adapters/sources/httpx"
	"github.com/okian/trendhub/internal/adapters/sources/textutil"
	"github.com/okian/trendhub/internal/domain/model"
)

const (
	ID             = "angellist"
	DefaultBaseURL = "https://api.angel.co/v1"
	dealsPerPage   = 50
	foundersPage   = 100
)

// Capabilities lists what this source produces.
func Capabilities() model.CapabilitySet {
	return model.NewCapabilitySet(model.Deals, model.Founders)
}

// Config holds configuration for the AngelList fetcher.
type Config struct {
	BaseURL string
	Token   string
	Client  *httpx.Client
}

// Fetcher implements source.Fetcher for AngelList.
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

// Fetch dispatches on capability.
func (f *Fetcher) Fetch(ctx context.Context, capability model.Capability, _ model.Params) ([]model.Record, error) {
	switch capability {
	case model.Deals:
		return f.deals(ctx)
	case model.Founders:
		return f.founders(ctx)
	default:
		return nil, nil
	}
}

func (f *Fetcher) deals(ctx context.Context) ([]model.Record, error) {
	v := url.Values{}
	v.Set("filter", "fundraising")
	v.Set("per_page", fmt.Sprint(dealsPerPage))
	items, err := f.list(ctx, "/startups", v, "startups")
	if err != nil {
		return nil, err
	}

	out := make([]model.Record, 0, len(items))
	for _, s := range items {
		name := strings.TrimSpace(s.Get("name").String())
		if name == "" {
			continue
		}
		tagline := s.Get("high_concept").String()
		stage := s.Get("stage").String()
		out = append(out, model.Record{
			Kind:        model.Deals,
			ID:          "angellist-" + s.Get("id").String(),
			CompanyName: name,
			FundingType: FundingType(stage),
			Category:    textutil.Category(name + " " + tagline),
			Data: map[string]any{
				"tagline": tagline,
				"url":     s.Get("company_url").String(),
				"stage":   stage,
			},
		})
	}
	return out, nil
}

func (f *Fetcher) founders(ctx context.Context) ([]model.Record, error) {
	v := url.Values{}
	v.Set("type", "founder")
	v.Set("per_page", fmt.Sprint(foundersPage))
	items, err := f.list(ctx, "/users", v, "users")
	if err != nil {
		return nil, err
	}

	out := make([]model.Record, 0, len(items))
	for _, u := range items {
		name := strings.TrimSpace(u.Get("name").String())
		if name == "" {
			continue
		}
		title := u.Get("investor_title").String()
		if title == "" {
			title = "Founder"
		}
		out = append(out, model.Record{
			Kind:  model.Founders,
			ID:    "angellist-" + u.Get("id").String(),
			Name:  name,
			Title: title,
			Data: map[string]any{
				"bio": u.Get("bio").String(),
				"url": u.Get("angellist_url").String(),
			},
		})
	}
	return out, nil
}

// list fetches path and returns the array under key. A bare array body is
// accepted as well.
func (f *Fetcher) list(ctx context.Context, path string, v url.Values, key string) ([]gjson.Result, error) {
	v.Set("api_token", f.cfg.Token)
	body, err := f.cfg.Client.Get(ctx, f.cfg.BaseURL+path+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("list %s: invalid json", path)
	}
	doc := gjson.ParseBytes(body)
	if doc.IsArray() {
		return doc.Array(), nil
	}
	return doc.Get(key).Array(), nil
}

// FundingType maps an AngelList stage to a funding label.
func FundingType(stage string) string {
	lower := strings.ToLower(stage)
	switch {
	case strings.Contains(lower, "seed"):
		return "Seed"
	case strings.Contains(lower, "series a"):
		return "Series A"
	case strings.Contains(lower, "series b"):
		return "Series B"
	case strings.Contains(lower, "series c"):
		return "Series C"
	case strings.Contains(lower, "growth"):
		return "Growth Round"
	default:
		return "Funding"
	}
}

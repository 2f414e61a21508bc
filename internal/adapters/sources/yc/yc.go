// Package yc scrapes the Y Combinator company directory for deals and
// founders.
package yc

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/okian/trendhub/internal/adapters/sources/httpx"
	"github.com/okian/trendhub/internal/adapters/sources/textutil"
	"github.com/okian/trendhub/internal/domain/model"
)

const (
	ID             = "yc_scraper"
	DefaultBaseURL = "https://www.ycombinator.com"
	companiesPath  = "/companies"
	defaultMax     = 50
)

// Selectors for the directory markup. Cards are links to company pages.
const (
	cardSelector    = `a[href^="/companies/"]`
	nameSelector    = `.company-name, [class*="coName"]`
	descSelector    = `.company-description, [class*="coDescription"]`
	batchSelector   = `.batch, [class*="pill"]`
	founderSelector = `.founder`
)

// Capabilities lists what this source produces.
func Capabilities() model.CapabilitySet {
	return model.NewCapabilitySet(model.Deals, model.Founders)
}

// Config holds configuration for the scraper.
type Config struct {
	BaseURL  string
	MaxItems int
	Client   *httpx.Client
}

// Fetcher implements source.Fetcher for the YC directory.
type Fetcher struct {
	cfg Config
}

// New creates a fetcher.
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
	return &Fetcher{cfg: cfg}
}

// Company is one directory card.
type Company struct {
	Name        string
	Slug        string
	Description string
	Batch       string
	Founders    []Founder
}

// Founder is a person listed on a card.
type Founder struct {
	Name  string
	Title string
}

// Fetch dispatches on capability.
func (f *Fetcher) Fetch(ctx context.Context, capability model.Capability, _ model.Params) ([]model.Record, error) {
	if capability != model.Deals && capability != model.Founders {
		return nil, nil
	}
	companies, err := f.Companies(ctx)
	if err != nil {
		return nil, err
	}

	var out []model.Record
	for _, c := range companies {
		if capability == model.Deals {
			out = append(out, f.deal(c))
			continue
		}
		for _, p := range c.Founders {
			out = append(out, f.founder(c, p))
		}
	}
	return out, nil
}

// Companies downloads and parses the directory page.
func (f *Fetcher) Companies(ctx context.Context) ([]Company, error) {
	body, err := f.cfg.Client.Get(ctx, f.cfg.BaseURL+companiesPath, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, fmt.Errorf("yc directory: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse yc directory: %w", err)
	}
	return parseCompanies(doc, f.cfg.MaxItems), nil
}

func parseCompanies(doc *goquery.Document, limit int) []Company {
	seen := make(map[string]struct{})
	var out []Company
	doc.Find(cardSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		slug := strings.Trim(strings.TrimPrefix(href, companiesPath), "/")
		if slug == "" || strings.Contains(slug, "/") {
			return true
		}
		if _, dup := seen[slug]; dup {
			return true
		}

		name := clean(s.Find(nameSelector).First().Text())
		if name == "" {
			name = clean(s.Text())
		}
		if len(name) <= 2 {
			return true
		}
		seen[slug] = struct{}{}

		c := Company{
			Name:        name,
			Slug:        slug,
			Description: clean(s.Find(descSelector).First().Text()),
			Batch:       clean(s.Find(batchSelector).First().Text()),
		}
		s.Find(founderSelector).Each(func(_ int, fs *goquery.Selection) {
			p := Founder{
				Name:  clean(fs.Find(".founder-name").Text()),
				Title: clean(fs.Find(".founder-title").Text()),
			}
			if p.Name == "" {
				p.Name = clean(fs.Text())
			}
			if p.Title == "" {
				p.Title = "Founder"
			}
			if len(p.Name) > 2 {
				c.Founders = append(c.Founders, p)
			}
		})
		out = append(out, c)
		return len(out) < limit
	})
	return out
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (f *Fetcher) deal(c Company) model.Record {
	return model.Record{
		Kind:        model.Deals,
		ID:          "yc_" + textutil.Slug(c.Name, "_"),
		CompanyName: c.Name,
		FundingType: "YC Batch",
		Category:    textutil.Category(c.Name + " " + c.Description),
		Data: map[string]any{
			"url":         f.cfg.BaseURL + companiesPath + "/" + c.Slug,
			"description": c.Description,
			"batch":       c.Batch,
		},
	}
}

func (f *Fetcher) founder(c Company, p Founder) model.Record {
	return model.Record{
		Kind:  model.Founders,
		ID:    "yc_founder_" + textutil.Slug(p.Name, "_"),
		Name:  p.Name,
		Title: p.Title,
		Data: map[string]any{
			"company":      c.Name,
			"batch":        c.Batch,
			"batch_status": "YC Alumnus",
			"url":          f.cfg.BaseURL + companiesPath + "/" + c.Slug,
		},
	}
}

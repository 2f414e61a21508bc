// Package secedgar reads the SEC EDGAR current-filings Atom feed. Registration
// and merger filings become deals; S-1 filings are tallied by sector into
// trends.
package secedgar

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/okian/trendhub/internal/adapters/sources/httpx"
	"github.com/okian/trendhub/internal/adapters/sources/textutil"
	"github.com/okian/trendhub/internal/domain/model"
)

const (
	ID             = "sec_edgar"
	DefaultBaseURL = "https://www.sec.gov/cgi-bin/browse-edgar"
	defaultMax     = 20
)

// DealForms are the filing types read for deals.
var DealForms = []string{"8-K", "S-1", "S-4"}

type sector struct {
	name     string
	keywords []string
}

var sectors = []sector{
	{"ai-ml", []string{"artificial intelligence", "machine learning", "llm", "neural", "ai"}},
	{"fintech", []string{"fintech", "payment", "financial technology", "trading"}},
	{"web3-crypto", []string{"blockchain", "cryptocurrency", "decentralized", "web3", "crypto"}},
	{"healthcare", []string{"healthcare", "biotech", "medical", "pharma", "therapeutics", "bio"}},
	{"climate", []string{"climate", "green energy", "sustainability", "renewable", "solar"}},
	{"saas", []string{"software", "saas", "cloud", "platform"}},
}

// Capabilities lists what this source produces.
func Capabilities() model.CapabilitySet {
	return model.NewCapabilitySet(model.Deals, model.Trends)
}

// Config holds configuration for the EDGAR fetcher.
type Config struct {
	BaseURL  string
	MaxItems int
	Client   *httpx.Client
}

// Fetcher implements source.Fetcher for EDGAR.
type Fetcher struct {
	cfg    Config
	parser *gofeed.Parser
}

// New creates a fetcher.
func New(cfg Config) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = defaultMax
	}
	if cfg.Client == nil {
		cfg.Client = httpx.New()
	}
	return &Fetcher{cfg: cfg, parser: gofeed.NewParser()}
}

// Filing is one parsed feed entry.
type Filing struct {
	Form    string
	Company string
	CIK     string
	Link    string
	Summary string
	Filed   *time.Time
}

// Fetch dispatches on capability.
func (f *Fetcher) Fetch(ctx context.Context, capability model.Capability, _ model.Params) ([]model.Record, error) {
	switch capability {
	case model.Deals:
		return f.deals(ctx)
	case model.Trends:
		return f.trends(ctx)
	default:
		return nil, nil
	}
}

func (f *Fetcher) deals(ctx context.Context) ([]model.Record, error) {
	batches := make([][]Filing, len(DealForms))
	g, gctx := errgroup.WithContext(ctx)
	for i, form := range DealForms {
		g.Go(func() error {
			filings, err := f.Filings(gctx, form)
			batches[i] = filings
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.Record
	for _, batch := range batches {
		for _, fl := range batch {
			out = append(out, fl.deal(len(out)))
		}
	}
	return out, nil
}

func (f *Fetcher) trends(ctx context.Context) ([]model.Record, error) {
	filings, err := f.Filings(ctx, "S-1")
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(sectors))
	var latest time.Time
	for _, fl := range filings {
		text := fl.Company + " " + fl.Summary
		for _, s := range sectors {
			if textutil.ContainsAny(text, s.keywords...) {
				counts[s.name]++
				break
			}
		}
		if fl.Filed != nil && fl.Filed.After(latest) {
			latest = *fl.Filed
		}
	}

	var out []model.Record
	for _, s := range sectors {
		n := counts[s.name]
		if n == 0 {
			continue
		}
		rec := model.Record{
			Kind:         model.Trends,
			ID:           "sec_" + s.name,
			Name:         s.name,
			Category:     s.name,
			MentionCount: float64(n),
			Data: map[string]any{
				"type":        "S-1 Analysis",
				"filings":     n,
				"description": fmt.Sprintf("Trending from recent %s S-1 filings", strings.ReplaceAll(s.name, "-", "/")),
			},
		}
		if !latest.IsZero() {
			t := latest
			rec.CreatedAt = &t
		}
		out = append(out, rec)
	}
	return out, nil
}

// Filings reads the most recent filings of one form type.
func (f *Fetcher) Filings(ctx context.Context, form string) ([]Filing, error) {
	v := url.Values{}
	v.Set("action", "getcurrent")
	v.Set("type", form)
	v.Set("owner", "include")
	v.Set("count", fmt.Sprint(f.cfg.MaxItems))
	v.Set("output", "atom")

	body, err := f.cfg.Client.Get(ctx, f.cfg.BaseURL+"?"+v.Encode(), map[string]string{"Accept": "application/atom+xml"})
	if err != nil {
		return nil, fmt.Errorf("edgar %s: %w", form, err)
	}
	feed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse edgar %s: %w", form, err)
	}

	out := make([]Filing, 0, len(feed.Items))
	for _, it := range feed.Items {
		fl, ok := ParseTitle(it.Title)
		if !ok {
			continue
		}
		fl.Link = it.Link
		fl.Summary = textutil.StripHTML(it.Description)
		if it.UpdatedParsed != nil {
			fl.Filed = it.UpdatedParsed
		} else if it.PublishedParsed != nil {
			fl.Filed = it.PublishedParsed
		}
		out = append(out, fl)
		if len(out) == f.cfg.MaxItems {
			break
		}
	}
	return out, nil
}

// ParseTitle splits an entry title such as
// "S-1 - Acme Robotics Inc (0001234567) (Filer)".
func ParseTitle(title string) (Filing, bool) {
	form, rest, ok := strings.Cut(title, " - ")
	if !ok {
		return Filing{}, false
	}
	var fl Filing
	fl.Form = strings.TrimSpace(form)
	rest = strings.TrimSpace(rest)
	for strings.HasSuffix(rest, ")") {
		open := strings.LastIndex(rest, "(")
		if open < 0 {
			break
		}
		inner := rest[open+1 : len(rest)-1]
		if fl.CIK == "" && isDigits(inner) {
			fl.CIK = inner
		}
		rest = strings.TrimSpace(rest[:open])
	}
	fl.Company = rest
	if fl.Form == "" || len(fl.Company) <= 2 {
		return Filing{}, false
	}
	return fl, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FundingType maps a form to the deal it signals.
func FundingType(form string) string {
	lower := strings.ToLower(form)
	switch {
	case strings.Contains(lower, "s-1"):
		return "IPO"
	case strings.Contains(lower, "s-4"):
		return "Merger"
	case strings.Contains(lower, "8-k"):
		return "Material Event"
	case strings.Contains(lower, "10-k"):
		return "Annual Report"
	default:
		return "Filing"
	}
}

// Significance grades how material a form is.
func Significance(form string) string {
	switch FundingType(form) {
	case "IPO", "Merger":
		return "high"
	case "Material Event":
		return "medium"
	default:
		return "low"
	}
}

func (fl Filing) deal(n int) model.Record {
	rec := model.Record{
		Kind:        model.Deals,
		ID:          fmt.Sprintf("sec_%s_%d", textutil.Slug(fl.Company, "_"), n),
		CompanyName: fl.Company,
		FundingType: FundingType(fl.Form),
		Category:    textutil.Category(fl.Company + " " + fl.Summary),
		CreatedAt:   fl.Filed,
		Data: map[string]any{
			"filing_type":  fl.Form,
			"cik":          fl.CIK,
			"url":          fl.Link,
			"significance": Significance(fl.Form),
		},
	}
	if fl.Filed != nil {
		rec.Data["created_at"] = fl.Filed.Format(time.RFC3339)
	}
	return rec
}

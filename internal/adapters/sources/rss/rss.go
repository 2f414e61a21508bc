// Package rss turns RSS and Atom feeds into trend and deal records.
package rss

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/mmcdole/gofeed"

	"github.com/okian/trendhub/internal/adapters/sources/httpx"
	"github.com/okian/trendhub/internal/adapters/sources/textutil"
	"github.com/okian/trendhub/internal/domain/model"
)

const (
	ID            = "rss"
	defaultMaxAge = 7 * 24 * time.Hour
	descLimit     = 300
)

// ErrNoFeeds is returned when the fetcher has nothing to read.
var ErrNoFeeds = errors.New("no feeds configured")

// Capabilities lists what this source can produce.
func Capabilities() model.CapabilitySet {
	return model.NewCapabilitySet(model.Trends, model.Deals, model.Founders)
}

// Config holds configuration for the feed fetcher.
type Config struct {
	Feeds      []string
	MaxAge     time.Duration
	HTTPClient *http.Client
	Now        func() time.Time
}

// Fetcher implements source.Fetcher over a list of feeds.
type Fetcher struct {
	cfg    Config
	parser *gofeed.Parser
}

// New creates a fetcher.
func New(cfg Config) *Fetcher {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultMaxAge
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	p := gofeed.NewParser()
	p.UserAgent = httpx.DefaultUserAgent
	if cfg.HTTPClient != nil {
		p.Client = cfg.HTTPClient
	}
	return &Fetcher{cfg: cfg, parser: p}
}

type item struct {
	feed      string
	title     string
	link      string
	desc      string
	published time.Time
}

// Fetch reads every feed concurrently. Feeds that fail are skipped unless
// all of them fail.
func (f *Fetcher) Fetch(ctx context.Context, capability model.Capability, _ model.Params) ([]model.Record, error) {
	if !Capabilities().Has(capability) {
		return nil, nil
	}
	if len(f.cfg.Feeds) == 0 {
		return nil, ErrNoFeeds
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		items []item
		errs  []error
	)
	for _, u := range f.cfg.Feeds {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			got, err := f.read(ctx, u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			items = append(items, got...)
		}(u)
	}
	wg.Wait()

	if len(errs) == len(f.cfg.Feeds) {
		return nil, errors.Join(errs...)
	}

	out := make([]model.Record, 0, len(items))
	for _, it := range items {
		switch capability {
		case model.Trends:
			rec := it.record(model.Trends)
			rec.Name = textutil.TrendName(it.title, 2)
			rec.Category = textutil.Category(it.title + " " + it.desc)
			rec.MentionCount = 1
			out = append(out, rec)
		case model.Deals:
			if !textutil.ContainsAny(it.title, textutil.DealKeywords...) {
				continue
			}
			rec := it.record(model.Deals)
			rec.CompanyName = textutil.CompanyName(it.title, "Unknown")
			rec.FundingType = textutil.FundingType(it.title)
			rec.Category = textutil.Category(it.title + " " + it.desc)
			out = append(out, rec)
		case model.Founders:
			if !textutil.ContainsAny(it.title+" "+it.desc, textutil.FounderKeywords...) {
				continue
			}
			name := personName(it.title)
			if name == "" {
				continue
			}
			rec := it.record(model.Founders)
			rec.Name = name
			rec.Title = "Founder"
			out = append(out, rec)
		}
	}
	return out, nil
}

// personName returns the first pair of adjacent capitalised words, which in
// headlines is usually a person.
func personName(title string) string {
	words := strings.Fields(title)
	for i := 0; i+1 < len(words); i++ {
		a := strings.Trim(words[i], ".,:;!?\"'()[]")
		b := strings.Trim(words[i+1], ".,:;!?\"'()[]")
		if capitalised(a) && capitalised(b) {
			return a + " " + b
		}
	}
	return ""
}

func capitalised(w string) bool {
	r := []rune(w)
	return len(r) > 1 && unicode.IsUpper(r[0]) && unicode.IsLower(r[len(r)-1])
}

func (f *Fetcher) read(ctx context.Context, u string) ([]item, error) {
	feed, err := f.parser.ParseURLWithContext(u, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u, err)
	}

	now := f.cfg.Now()
	cutoff := now.Add(-f.cfg.MaxAge)
	out := make([]item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it.Title == "" {
			continue
		}
		pub := now
		if it.PublishedParsed != nil {
			pub = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			pub = *it.UpdatedParsed
		}
		if pub.Before(cutoff) {
			continue
		}
		desc := it.Description
		if desc == "" {
			desc = it.Content
		}
		out = append(out, item{
			feed:      feed.Title,
			title:     it.Title,
			link:      it.Link,
			desc:      textutil.Truncate(textutil.StripHTML(desc), descLimit),
			published: pub,
		})
	}
	return out, nil
}

func (it item) record(kind model.Capability) model.Record {
	pub := it.published
	return model.Record{
		Kind:      kind,
		ID:        itemID(it.link + it.title),
		CreatedAt: &pub,
		Data: map[string]any{
			"title":       it.title,
			"url":         it.link,
			"description": it.desc,
			"feed":        it.feed,
			"created_at":  pub.Format(time.RFC3339),
		},
	}
}

func itemID(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("rss-%x", h[:8])
}

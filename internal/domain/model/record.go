// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Params carries caller-supplied query parameters through to sources.
type Params map[string]string

// Get returns the value for key or def when absent.
func (p Params) Get(key, def string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return def
}

// Record is one market signal. Kind selects which of the variant fields
// are meaningful; the common fields are always populated by sources.
type Record struct {
	Kind      Capability     `json:"kind"`
	ID        string         `json:"id"`     // unique only within Source
	Source    string         `json:"source"` // origin source id
	Sources   []string       `json:"sources,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`

	// Trends (Name is also the founder's name)
	Name          string  `json:"name,omitempty"`
	Category      string  `json:"category,omitempty"`
	MentionCount  float64 `json:"mention_count,omitempty"`
	MomentumScore int     `json:"momentum_score,omitempty"`

	// Deals
	CompanyName string `json:"company_name,omitempty"`
	FundingType string `json:"funding_type,omitempty"`

	// Founders
	Title string `json:"title,omitempty"`
}

// DisplayName is the human facing name: the company for deals, Name otherwise.
func (r *Record) DisplayName() string {
	if r.Kind == Deals && r.CompanyName != "" {
		return r.CompanyName
	}
	return r.Name
}

// DedupeKey is the identity used to merge records across sources.
func (r *Record) DedupeKey() string {
	return strings.ToLower(r.DisplayName())
}

// Origins returns Sources, falling back to Source for unmerged records.
func (r *Record) Origins() []string {
	if len(r.Sources) > 0 {
		return r.Sources
	}
	if r.Source != "" {
		return []string{r.Source}
	}
	return nil
}

// Clone returns a deep copy so cached values cannot be mutated by callers.
func (r *Record) Clone() Record {
	out := *r
	if r.Sources != nil {
		out.Sources = append([]string(nil), r.Sources...)
	}
	if r.Data != nil {
		out.Data = cloneMap(r.Data)
	}
	if r.CreatedAt != nil {
		t := *r.CreatedAt
		out.CreatedAt = &t
	}
	return out
}

// CloneRecords deep copies a slice of records.
func CloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		s := make([]any, len(t))
		for i := range t {
			s[i] = cloneValue(t[i])
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Lifecycle is the band a trend falls in given its momentum score.
type Lifecycle string

const (
	Peak        Lifecycle = "peak"
	Emerging    Lifecycle = "emerging"
	Established Lifecycle = "established"
	Declining   Lifecycle = "declining"
)

// Confidence reflects how many distinct sources corroborate a record.
type Confidence string

const (
	Low      Confidence = "low"
	Medium   Confidence = "medium"
	High     Confidence = "high"
	VeryHigh Confidence = "very-high"
)

// Breakdown shows how each factor contributed to a momentum score.
type Breakdown struct {
	Velocity  float64 `json:"velocity"`
	Diversity float64 `json:"diversity"`
	Funding   float64 `json:"funding"`
	Founder   float64 `json:"founder"`
	Recency   float64 `json:"recency"`
	Score     int     `json:"score"`
}

// ScoredTrend is a trend record with its ranking annotations.
type ScoredTrend struct {
	Record
	Lifecycle  Lifecycle  `json:"lifecycle"`
	Confidence Confidence `json:"confidence"`
	Breakdown  Breakdown  `json:"breakdown"`
}

// CacheEntry is one immutable cached source result.
type CacheEntry struct {
	Key       string
	Value     []Record
	ExpiresAt time.Time
}

// Expired reports whether the entry is no longer readable at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// SourceResult is what one source contributed to a fan-out.
type SourceResult struct {
	Source  string   `json:"source"`
	Records []Record `json:"records"`
}

// Failure records why a source contributed nothing.
type Failure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Package scoring computes momentum scores for trend records.
//
// A score is the sum of five capped signals, rounded and capped at 100:
//
//	velocity   0-30  mention_count / 100
//	diversity  0-20  4 per source
//	funding    0-25  funding-stage phrases in data
//	founder    0-15  3 per founder keyword in data
//	recency    0-10  full under a day old, then 0.5 less per day, floor 2
package scoring

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/okian/trendhub/internal/domain/model"
)

const (
	maxVelocity  = 30.0
	maxDiversity = 20.0
	maxFunding   = 25.0
	maxFounder   = 15.0
	maxRecency   = 10.0
	minRecency   = 2.0
	maxScore     = 100

	perSource       = 4.0
	perFounderMatch = 3.0
	mentionsPerPt   = 100.0
)

type phrase struct {
	any    []string
	points float64
}

// Each entry scores once if any of its phrases appears.
var fundingPhrases = []phrase{
	{any: []string{"series a", "seed"}, points: 8},
	{any: []string{"series b"}, points: 12},
	{any: []string{"series c"}, points: 15},
	{any: []string{"acquisition"}, points: 20},
	{any: []string{"ipo"}, points: 25},
}

var founderKeywords = []string{"founder", "ceo", "serial entrepreneur", "exit", "previous startup"}

// Score computes the breakdown for one record as of now.
func Score(r *model.Record, now time.Time) model.Breakdown {
	text := dataText(r.Data)

	b := model.Breakdown{
		Velocity:  Velocity(r.MentionCount),
		Diversity: Diversity(len(r.Sources)),
		Funding:   Funding(text),
		Founder:   Founder(text),
		Recency:   Recency(Timestamp(r), now),
	}
	total := math.Round(b.Velocity + b.Diversity + b.Funding + b.Founder + b.Recency)
	b.Score = int(math.Max(0, math.Min(total, maxScore)))
	return b
}

// Velocity is min(mentions/100, 30), never negative.
func Velocity(mentions float64) float64 {
	if mentions <= 0 || math.IsNaN(mentions) {
		return 0
	}
	return math.Min(mentions/mentionsPerPt, maxVelocity)
}

// Diversity is min(4*sources, 20).
func Diversity(sources int) float64 {
	return math.Min(float64(sources)*perSource, maxDiversity)
}

// Funding adds each funding-stage match found in text, capped at 25.
// text must already be lower case.
func Funding(text string) float64 {
	if text == "" {
		return 0
	}
	score := 0.0
	for _, p := range fundingPhrases {
		for _, s := range p.any {
			if strings.Contains(text, s) {
				score += p.points
				break
			}
		}
	}
	return math.Min(score, maxFunding)
}

// Founder adds 3 per founder keyword found in text, capped at 15.
func Founder(text string) float64 {
	if text == "" {
		return 0
	}
	score := 0.0
	for _, k := range founderKeywords {
		if strings.Contains(text, k) {
			score += perFounderMatch
		}
	}
	return math.Min(score, maxFounder)
}

// Recency scores a creation time relative to now. A nil time scores 0.
func Recency(created *time.Time, now time.Time) float64 {
	if created == nil {
		return 0
	}
	ageHours := now.Sub(*created).Hours()
	if ageHours < 24 {
		return maxRecency
	}
	return math.Max(maxRecency-(ageHours/24)*0.5, minRecency)
}

// Timestamp returns the record's creation time from CreatedAt, falling back
// to data["created_at"] as RFC 3339 text, a time value or unix seconds.
func Timestamp(r *model.Record) *time.Time {
	if r.CreatedAt != nil {
		return r.CreatedAt
	}
	raw, ok := r.Data["created_at"]
	if !ok {
		return nil
	}
	var t time.Time
	switch v := raw.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return nil
		}
		t = *v
	case string:
		parsed, ok := parseTime(v)
		if !ok {
			return nil
		}
		t = parsed
	case float64:
		t = time.Unix(int64(v), 0)
	case int64:
		t = time.Unix(v, 0)
	case int:
		t = time.Unix(int64(v), 0)
	default:
		return nil
	}
	return &t
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dataText is the lower-cased JSON form of data, the text keyword signals
// scan. Unserialisable payloads contribute nothing.
func dataText(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	b, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return strings.ToLower(string(b))
}

// LifecycleFor bands a score.
func LifecycleFor(score int) model.Lifecycle {
	switch {
	case score >= 70:
		return model.Peak
	case score >= 50:
		return model.Emerging
	case score >= 40:
		return model.Established
	default:
		return model.Declining
	}
}

// ConfidenceFor labels how many sources corroborate a record.
func ConfidenceFor(sources int) model.Confidence {
	switch {
	case sources >= 5:
		return model.VeryHigh
	case sources >= 3:
		return model.High
	case sources == 2:
		return model.Medium
	default:
		return model.Low
	}
}

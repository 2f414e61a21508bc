// Package textutil holds the title heuristics shared by source adapters.
package textutil

import (
	"strings"
	"unicode"
)

// Other is the category for text that matches no keyword group.
const Other = "other"

type category struct {
	name     string
	keywords []string
}

// Checked in order; the first group with a hit wins.
var categories = []category{
	{"ai-ml", []string{"ai", "ml", "llm", "gpt", "neural", "machine learning", "tensorflow", "pytorch", "langchain", "agent", "transformer"}},
	{"web3-crypto", []string{"blockchain", "crypto", "web3", "ethereum", "solana", "smart-contract", "defi", "nft"}},
	{"fintech", []string{"fintech", "payment", "trading", "banking", "wallet", "stock"}},
	{"climate", []string{"climate", "green", "energy", "sustainability", "carbon", "renewable", "solar"}},
	{"cybersecurity", []string{"security", "encryption", "penetration", "vulnerability", "malware"}},
	{"healthcare", []string{"health", "medical", "biotech", "telemedicine", "pharma"}},
	{"saas", []string{"saas", "startup", "cloud", "productivity", "analytics", "crm"}},
}

// Category guesses a sector for text.
func Category(text string) string {
	lower := strings.ToLower(text)
	words := tokens(lower)
	for _, c := range categories {
		for _, kw := range c.keywords {
			if matches(lower, words, kw) {
				return c.name
			}
		}
	}
	return Other
}

// ContainsAny reports whether text mentions any keyword, case-insensitively.
func ContainsAny(text string, keywords ...string) bool {
	lower := strings.ToLower(text)
	words := tokens(lower)
	for _, kw := range keywords {
		if matches(lower, words, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Short keywords like "ai" must match a whole word; longer ones may match
// anywhere so "blockchains" still counts.
func matches(lower string, words map[string]struct{}, kw string) bool {
	if len(kw) <= 3 {
		_, ok := words[kw]
		return ok
	}
	return strings.Contains(lower, kw)
}

func tokens(lower string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[w] = struct{}{}
	}
	return out
}

// TrendName picks up to maxWords words longer than three characters from a
// title, falling back to the first 30 characters.
func TrendName(title string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = 1
	}
	var picked []string
	for _, w := range strings.Fields(title) {
		w = strings.Trim(w, ".,:;!?\"'()[]")
		if len([]rune(w)) > 3 {
			picked = append(picked, w)
			if len(picked) == maxWords {
				break
			}
		}
	}
	if len(picked) == 0 {
		return Truncate(strings.TrimSpace(title), 30)
	}
	return strings.Join(picked, " ")
}

// CompanyName returns the first capitalised word longer than two letters,
// or fallback.
func CompanyName(title, fallback string) string {
	for _, w := range strings.Fields(title) {
		w = strings.Trim(w, ".,:;!?\"'()[]")
		r := []rune(w)
		if len(r) > 2 && unicode.IsUpper(r[0]) {
			return w
		}
	}
	return fallback
}

// FundingType maps a headline to a funding stage label.
func FundingType(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "series a") || strings.Contains(lower, "seed"):
		return "Seed/Series A"
	case strings.Contains(lower, "series b"):
		return "Series B"
	case strings.Contains(lower, "series c"):
		return "Series C"
	case strings.Contains(lower, "acquisition") || strings.Contains(lower, "acquires"):
		return "Acquisition"
	case ContainsAny(lower, "ipo"):
		return "IPO"
	case strings.Contains(lower, "raise"):
		return "Funding Round"
	default:
		return "Funding"
	}
}

// DealKeywords mark a headline as deal news.
var DealKeywords = []string{"funding", "series a", "series b", "series c", "acquisition", "acquires", "raise", "investment", "ipo", "seed round"}

// FounderKeywords mark text as being about a founder.
var FounderKeywords = []string{"founder", "co-founder", "cofounder", "ceo"}

// Truncate cuts s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// StripHTML removes tags and collapses whitespace.
func StripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Slug lower-cases s and joins its words with sep.
func Slug(s, sep string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), sep)
}

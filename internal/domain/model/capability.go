package model

import (
	"fmt"
	"strings"
)

// Capability names one category of record a source may produce.
type Capability string

const (
	Trends   Capability = "trends"
	Deals    Capability = "deals"
	Founders Capability = "founders"
)

// AllCapabilities lists every capability in canonical order.
func AllCapabilities() []Capability {
	return []Capability{Trends, Deals, Founders}
}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	return c.bit() != 0
}

func (c Capability) bit() CapabilitySet {
	switch c {
	case Trends:
		return 1 << 0
	case Deals:
		return 1 << 1
	case Founders:
		return 1 << 2
	default:
		return 0
	}
}

// ParseCapability accepts the canonical names plus the legacy
// fetchTrends/fetchDeals/fetchFounders method spellings.
func ParseCapability(s string) (Capability, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "fetch")
	c := Capability(v)
	if !c.Valid() {
		return "", fmt.Errorf("unknown capability %q", s)
	}
	return c, nil
}

// CapabilitySet is the set of capabilities a source declares.
type CapabilitySet uint8

// NewCapabilitySet builds a set from caps, ignoring unknown values.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s |= c.bit()
	}
	return s
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	b := c.bit()
	return b != 0 && s&b == b
}

// Empty reports whether the set declares nothing.
func (s CapabilitySet) Empty() bool { return s == 0 }

// List returns the members in canonical order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, 3)
	for _, c := range AllCapabilities() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s CapabilitySet) String() string {
	list := s.List()
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = string(c)
	}
	return "{" + strings.Join(names, ",") + "}"
}

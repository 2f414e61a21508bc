// Package types contains the response shapes served over HTTP and printed
// by the CLI.
package types

import (
	"encoding/json"
	"strings"

	"github.com/okian/trendhub/internal/domain/model"
)

// HealthResponse answers liveness probes.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the body of every non-2xx API answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CollectionResponse is one raw collection. The records are keyed by
// capability name, e.g. {"trends": [...], "sources": [...], "failures": null}.
type CollectionResponse struct {
	RunID      string
	Capability model.Capability
	Records    []model.Record
	Sources    []string
	Failures   []model.Failure
}

// MarshalJSON keys the record list by capability.
func (c CollectionResponse) MarshalJSON() ([]byte, error) {
	records := c.Records
	if records == nil {
		records = []model.Record{}
	}
	sources := c.Sources
	if sources == nil {
		sources = []string{}
	}
	body := map[string]any{
		string(c.Capability): records,
		"sources":            sources,
		"failures":           failuresOrNil(c.Failures),
		"count":              len(records),
		"run_id":             c.RunID,
	}
	return json.Marshal(body)
}

// ScoredResponse is the ranked trend list.
type ScoredResponse struct {
	RunID    string              `json:"run_id"`
	Trends   []model.ScoredTrend `json:"trends"`
	Count    int                 `json:"count"`
	Total    int                 `json:"total"`
	Sources  []string            `json:"sources"`
	Failures []model.Failure     `json:"failures"`
}

// APIStatus describes one source for dashboards.
type APIStatus struct {
	Name     string   `json:"name"`
	Enabled  bool     `json:"enabled"`
	Methods  []string `json:"methods"`
	Status   string   `json:"status,omitempty"`
	Priority string   `json:"priority,omitempty"`
	Note     string   `json:"note,omitempty"`
}

// APIStatusResponse lists every source keyed by id plus the enabled ids.
type APIStatusResponse struct {
	APIs          map[string]APIStatus `json:"apis"`
	ActivePlugins []string             `json:"activePlugins"`
}

// MethodName renders a capability the way dashboards label it, e.g. fetchTrends.
func MethodName(c model.Capability) string {
	s := string(c)
	if s == "" {
		return ""
	}
	return "fetch" + strings.ToUpper(s[:1]) + s[1:]
}

// StatsResponse reports runtime counters for /stats.
type StatsResponse struct {
	CacheEntries       int     `json:"cache_entries"`
	CacheTTLHours      float64 `json:"cache_ttl_hours"`
	SourcesRegistered  int     `json:"sources_registered"`
	SourcesEnabled     int     `json:"sources_enabled"`
	RefreshQueueSize   int     `json:"refresh_queue_size"`
	RefreshQueueCap    int     `json:"refresh_queue_capacity"`
	RefreshWorkers     int     `json:"refresh_workers"`
	RefreshJobsDone    int64   `json:"refresh_jobs_done"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	DedupeMergePolicy  string  `json:"dedupe_merge_policy"`
	SourceCallTimeoutS float64 `json:"source_call_timeout_seconds"`
}

// FlushResponse acknowledges a cache flush.
type FlushResponse struct {
	Flushed int `json:"flushed"`
}

func failuresOrNil(f []model.Failure) []model.Failure {
	if len(f) == 0 {
		return nil
	}
	return f
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/trendhub/internal/adapters/mq/queue"
	"github.com/okian/trendhub/internal/domain/collection"
	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/internal/domain/types"
)

const defaultMaxScoredLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Collect(ctx context.Context, capability model.Capability, params model.Params) collection.Collection
	ScoredTrends(ctx context.Context, params model.Params, limit int) types.ScoredResponse
	Status() types.APIStatusResponse
	FlushCache(ctx context.Context) int
	Refresh(ctx context.Context, capability model.Capability) (string, error)
	GetStats(ctx context.Context) types.StatsResponse
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxScoredLimit caps GET /api/trends/scored?limit.
func WithMaxScoredLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxScoredLimit = n
		}
	}
}

// WithAllowedOrigin sets the CORS origin; "*" by default.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.allowedOrigin = origin
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps           Dependencies
	maxScoredLimit int
	allowedOrigin  string

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		maxScoredLimit: defaultMaxScoredLimit,
		allowedOrigin:  "*",
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	cors := func(h http.HandlerFunc) http.HandlerFunc { return CORSMiddleware(h, s.allowedOrigin) }

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/api/health", cors(MetricsMiddleware(s.healthHandler.HandleHealth, "health")))
	mux.HandleFunc("/api/trends", cors(MetricsMiddleware(s.handleCollection(model.Trends), "trends")))
	mux.HandleFunc("/api/trends/scored", cors(MetricsMiddleware(s.handleScored, "trends_scored")))
	mux.HandleFunc("/api/deals", cors(MetricsMiddleware(s.handleCollection(model.Deals), "deals")))
	mux.HandleFunc("/api/founders", cors(MetricsMiddleware(s.handleCollection(model.Founders), "founders")))
	mux.HandleFunc("/api/api-status", cors(MetricsMiddleware(s.handleStatus, "api_status")))
	mux.HandleFunc("/api/cache/flush", cors(MetricsMiddleware(s.handleFlush, "cache_flush")))
	mux.HandleFunc("/api/refresh", cors(MetricsMiddleware(s.handleRefresh, "refresh")))
}

// params copies the first value of every query parameter.
func params(r *http.Request) model.Params {
	q := r.URL.Query()
	if len(q) == 0 {
		return nil
	}
	p := make(model.Params, len(q))
	for k, v := range q {
		if len(v) > 0 {
			p[k] = v[0]
		}
	}
	return p
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("%w: method %s not allowed", ErrBadRequest, r.Method))
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, queue.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, queue.ErrQueueClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/internal/domain/types"
)

// handleCollection serves GET /api/{trends,deals,founders}.
func (s *Server) handleCollection(capability model.Capability) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		c := s.deps.Collect(r.Context(), capability, params(r))
		writeJSON(w, http.StatusOK, types.CollectionResponse{
			RunID:      c.RunID,
			Capability: c.Capability,
			Records:    c.Records,
			Sources:    c.Sources,
			Failures:   c.Failures,
		})
	}
}

// handleScored serves GET /api/trends/scored?limit=N. A missing limit
// means the configured maximum.
func (s *Server) handleScored(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	q := params(r)
	limit := s.maxScoredLimit
	if raw := q.Get("limit", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		if n > s.maxScoredLimit {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: limit exceeds %d", ErrBadRequest, s.maxScoredLimit))
			return
		}
		limit = n
	}
	delete(q, "limit")
	writeJSON(w, http.StatusOK, s.deps.ScoredTrends(r.Context(), q, limit))
}

// handleStatus serves GET /api/api-status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Status())
}

// handleFlush serves POST /api/cache/flush.
func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	writeJSON(w, http.StatusOK, types.FlushResponse{Flushed: s.deps.FlushCache(r.Context())})
}

type refreshResponse struct {
	JobID      string           `json:"job_id"`
	Capability model.Capability `json:"capability"`
}

// handleRefresh serves POST /api/refresh?capability=trends.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	capability, err := model.ParseCapability(r.URL.Query().Get("capability"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	id, err := s.deps.Refresh(r.Context(), capability)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{JobID: id, Capability: capability})
}

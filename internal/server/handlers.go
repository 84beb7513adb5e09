package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/fitharmony/internal/fitness"
	"github.com/claude/fitharmony/internal/harmony"
	"github.com/claude/fitharmony/internal/models"
	"github.com/claude/fitharmony/internal/normalize"
	"github.com/claude/fitharmony/internal/planner"
	"github.com/claude/fitharmony/internal/storage"
)

const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error      string              `json:"error"`
	Metric     string              `json:"metric,omitempty"`
	Violations []fitness.Violation `json:"violations,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBiomarkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.BiomarkerCatalog)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	s.plan(w, r, req)
}

// handleCreateUserPlan plans from the user's latest stored readings. Any
// biomarkers in the body override the stored values.
func (s *Server) handleCreateUserPlan(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "no biomarker source configured"})
		return
	}
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || userID < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid user ID"})
		return
	}
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	result, measuredAt, err := s.planner.PlanForUser(r.Context(), s.source, userID, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Biomarkers-Measured-At", measuredAt.UTC().Format(time.RFC3339))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) plan(w http.ResponseWriter, r *http.Request, req planner.Request) {
	result, err := s.planner.Plan(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (planner.Request, bool) {
	var req planner.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error()})
		return req, false
	}
	return req, true
}

// writeError maps the planning error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var metricErr *normalize.MetricError
	var noSchedule *planner.NoScheduleError
	switch {
	case errors.As(err, &metricErr):
		status = http.StatusUnprocessableEntity
		body.Metric = string(metricErr.Metric)
	case errors.As(err, &noSchedule):
		status = http.StatusUnprocessableEntity
		body.Violations = noSchedule.Violations
	case errors.Is(err, normalize.ErrInfeasibleConstraints),
		errors.Is(err, normalize.ErrInvalidGoals):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, harmony.ErrInvalidParams):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNoReadings):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("plan failed", "error", err, "request_id", requestIDFromContext(r))
	} else {
		s.log.Warn("plan rejected", "error", err, "status", status, "request_id", requestIDFromContext(r))
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

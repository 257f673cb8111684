// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"advisor-matching/internal/assignment"
	"advisor-matching/internal/common/errors"
	"advisor-matching/internal/common/validation"
	"advisor-matching/internal/matching/engine"
	"advisor-matching/pkg/registry"

	"github.com/go-chi/chi/v5"
)

const (
	maxBodyBytes = 1 << 20
	maxListLimit = 100
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type matchesResponse struct {
	Success         bool        `json:"success"`
	Matches         interface{} `json:"matches"`
	TotalCalculated int         `json:"totalCalculated"`
}

type batchResponse struct {
	Success               bool   `json:"success"`
	RunID                 string `json:"runId"`
	ProcessedCalculations int    `json:"processedCalculations"`
	TotalFounders         int    `json:"totalFounders"`
	TotalAdvisors         int    `json:"totalAdvisors"`
	Cancelled             bool   `json:"cancelled"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err})
	}
}

// respondError maps err to its status through the error code table. Internal details are
// logged, not returned.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	std := errors.FromError(err)
	status := errors.HTTPStatus(std.Code)

	message := std.Details
	if status >= http.StatusInternalServerError || message == "" {
		message = std.Message
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"path":  r.URL.Path,
			"code":  std.Code,
			"error": err,
		})
	}

	s.respondJSON(w, status, errorResponse{Error: message, Code: string(std.Code)})
}

// decodeBody validates the raw body against the task's registry schema before decoding it.
func (s *Server) decodeBody(r *http.Request, taskType string, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.NewInvalidRequestError(fmt.Sprintf("read body: %v", err))
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	res, err := validation.ValidateAgainst(s.deps.Registry.InputSchema(taskType), body)
	if err != nil {
		return errors.NewInvalidRequestError("body is not valid JSON")
	}
	if !res.Valid {
		return errors.NewInvalidRequestError(res.Error())
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return errors.NewInvalidRequestError(fmt.Sprintf("decode body: %v", err))
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.deps.Checks))
	for _, c := range s.deps.Checks {
		if err := c.Ping(ctx); err != nil {
			checks[c.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}

	s.respondJSON(w, status, map[string]interface{}{
		"ready":  status == http.StatusOK,
		"checks": checks,
	})
}

func (s *Server) handleCalculateMatches(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := s.decodeBody(r, registry.TaskCalculateMatches, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	resp, err := s.deps.Engine.Dispatch(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if resp.Batch != nil {
		s.respondJSON(w, http.StatusOK, batchResponse{
			Success:               true,
			RunID:                 resp.Batch.RunID,
			ProcessedCalculations: resp.Batch.ProcessedCalculations,
			TotalFounders:         resp.Batch.TotalFounders,
			TotalAdvisors:         resp.Batch.TotalAdvisors,
			Cancelled:             resp.Batch.Cancelled,
		})
		return
	}

	s.respondJSON(w, http.StatusOK, matchesResponse{
		Success:         true,
		Matches:         resp.Matches,
		TotalCalculated: resp.TotalCalculated,
	})
}

func (s *Server) handleListFounderMatches(w http.ResponseWriter, r *http.Request) {
	founderID := chi.URLParam(r, "founderId")

	limit := s.deps.DefaultTopN
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			s.respondError(w, r, errors.NewInvalidRequestError(
				fmt.Sprintf("limit must be between 1 and %d", maxListLimit)))
			return
		}
		limit = n
	}

	results, err := s.deps.Matches.ListForFounder(r.Context(), founderID, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, matchesResponse{
		Success:         true,
		Matches:         results,
		TotalCalculated: len(results),
	})
}

func (s *Server) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignment.CreateRequest
	if err := s.decodeBody(r, registry.TaskCreateAssignment, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	a, err := s.deps.Assignments.Create(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, a)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.deps.Runs.LatestRun(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if run == nil {
		s.respondJSON(w, http.StatusNotFound, errorResponse{Error: "no batch run recorded", Code: "NOT_FOUND"})
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Runs.RequestCancel(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"status":  "cancel requested",
	})
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/priyankraghav/sentra/internal/api/middleware"
	"github.com/priyankraghav/sentra/internal/api/response"
	"github.com/priyankraghav/sentra/internal/jobs"
	"github.com/priyankraghav/sentra/internal/store"
	"github.com/priyankraghav/sentra/pkg/models"
)

// Orchestrator defines the job operations the HTTP handlers depend on.
type Orchestrator interface {
	Submit(ctx context.Context, p jobs.SubmitParams) (*models.Job, error)
	Status(ctx context.Context, jobID, tenantID uuid.UUID) (*jobs.Snapshot, error)
	Cancel(ctx context.Context, jobID, tenantID uuid.UUID) error
	List(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error)
	Delete(ctx context.Context, jobID, tenantID uuid.UUID) error
}

// NewSubmitScanHandler returns an http.HandlerFunc for POST /api/v1/scans.
// The scan runs asynchronously; the response carries the pending job record.
func NewSubmitScanHandler(orch Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		var req struct {
			Type      string      `json:"type"`
			Endpoints []string    `json:"endpoints"`
			AssetIDs  []uuid.UUID `json:"asset_ids"`
			Ports     []int       `json:"ports"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Type == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "type is required", nil)
			return
		}

		for _, p := range req.Ports {
			if p < 1 || p > 65535 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"ports must be between 1 and 65535", nil)
				return
			}
		}

		keyID, _ := mw.GetAPIKeyID(r)
		job, err := orch.Submit(r.Context(), jobs.SubmitParams{
			TenantID:  tenantID,
			CreatedBy: keyID,
			Kind:      models.JobKindScan,
			Subtype:   req.Type,
			Config: models.JobConfig{
				Endpoints: req.Endpoints,
				AssetIDs:  req.AssetIDs,
				Ports:     req.Ports,
			},
		})
		if err != nil {
			writeSubmitError(w, err)
			return
		}

		response.Accepted(w, job)
	}
}

// NewSubmitReportHandler returns an http.HandlerFunc for POST /api/v1/reports.
func NewSubmitReportHandler(orch Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		var req struct {
			Type   string `json:"type"`
			Format string `json:"format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Type == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "type is required", nil)
			return
		}

		keyID, _ := mw.GetAPIKeyID(r)
		job, err := orch.Submit(r.Context(), jobs.SubmitParams{
			TenantID:  tenantID,
			CreatedBy: keyID,
			Kind:      models.JobKindReport,
			Subtype:   req.Type,
			Config:    models.JobConfig{Format: req.Format},
		})
		if err != nil {
			writeSubmitError(w, err)
			return
		}

		response.Accepted(w, job)
	}
}

// NewJobStatusHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
func NewJobStatusHandler(orch Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
			return
		}

		snap, err := orch.Status(r.Context(), jobID, tenantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, snap)
	}
}

// NewListJobsHandler returns an http.HandlerFunc for GET /api/v1/jobs.
// Supported query params: kind, status, since, until, page, limit.
func NewListJobsHandler(orch Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		q := r.URL.Query()
		filter := store.JobFilter{
			TenantID: tenantID,
			Kind:     q.Get("kind"),
			Status:   q.Get("status"),
			Page:     1,
			Limit:    50,
		}

		if s := q.Get("since"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"since must be a valid RFC3339 timestamp", nil)
				return
			}
			filter.Since = t
		}
		if s := q.Get("until"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"until must be a valid RFC3339 timestamp", nil)
				return
			}
			filter.Until = t
		}
		if s := q.Get("page"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				filter.Page = n
			}
		}
		if s := q.Get("limit"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
				filter.Limit = n
			}
		}

		list, total, err := orch.List(r.Context(), filter)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Collection(w, list, response.PaginationMeta{
			Page:    filter.Page,
			Limit:   filter.Limit,
			Total:   total,
			HasNext: filter.Page*filter.Limit < total,
		})
	}
}

// NewCancelJobHandler returns an http.HandlerFunc for
// POST /api/v1/jobs/{jobID}/cancel. Cancellation is accepted, not awaited: a
// running job stops after it finishes its current target.
func NewCancelJobHandler(orch Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
			return
		}

		if err := orch.Cancel(r.Context(), jobID, tenantID); err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			case errors.Is(err, jobs.ErrInvalidState):
				response.Error(w, http.StatusConflict, "INVALID_STATE",
					"Job is already in a terminal state", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.Accepted(w, map[string]any{
			"id":     jobID,
			"status": models.JobStatusCancelled,
		})
	}
}

// NewDeleteJobHandler returns an http.HandlerFunc for DELETE /api/v1/jobs/{jobID}.
// Only terminal jobs can be deleted.
func NewDeleteJobHandler(orch Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
			return
		}

		if err := orch.Delete(r.Context(), jobID, tenantID); err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			case errors.Is(err, jobs.ErrInvalidState):
				response.Error(w, http.StatusConflict, "INVALID_STATE",
					"Job is still active; cancel it first", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrCapacityExceeded):
		w.Header().Set("Retry-After", "30")
		response.Error(w, http.StatusTooManyRequests, "CAPACITY_EXCEEDED",
			"Too many active jobs; retry later", nil)
	case errors.Is(err, jobs.ErrEmptyTargetSet):
		response.Error(w, http.StatusBadRequest, "EMPTY_TARGET_SET",
			"Configuration resolves to no scan targets", nil)
	case errors.Is(err, jobs.ErrInvalidConfiguration):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}

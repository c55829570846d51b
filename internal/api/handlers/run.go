package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloo-solutions/sophia/internal/api"
	"github.com/cloo-solutions/sophia/internal/domain"
)

type WorkflowRunner interface {
	Run(ctx context.Context, workflow *domain.Workflow) (*domain.RunReport, error)
	RetryTask(ctx context.Context, failure domain.TaskFailure) (domain.Artifact, error)
}

type RunHistory interface {
	ListRuns() ([]domain.RunSummary, error)
	GetRun(filename string) (*domain.RunRecord, error)
}

type RunHandler struct {
	runner  WorkflowRunner
	history RunHistory
}

func NewRunHandler(runner WorkflowRunner, history RunHistory) *RunHandler {
	return &RunHandler{runner: runner, history: history}
}

type RunRequest struct {
	Workflow *domain.Workflow `json:"workflow"`
}

// Run executes a workflow synchronously and returns the full report. Partial
// failure is still a 200: the report carries per-task failures.
func (h *RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Workflow == nil {
		api.Error(w, http.StatusBadRequest, "workflow is required")
		return
	}

	report, err := h.runner.Run(r.Context(), req.Workflow)
	if err != nil && report == nil {
		api.HandleError(w, err)
		return
	}
	if err != nil {
		// An interrupted run is not a completed run with a warning.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			api.Error(w, http.StatusServiceUnavailable, "run interrupted before completion")
			return
		}
		// The pass completed but history persistence failed; return the
		// report with the error message attached.
		api.JSON(w, http.StatusOK, map[string]any{
			"data":    report,
			"warning": err.Error(),
		})
		return
	}

	api.Success(w, http.StatusOK, report)
}

type RetryRequest struct {
	Failure *domain.TaskFailure `json:"failure"`
}

func (h *RunHandler) Retry(w http.ResponseWriter, r *http.Request) {
	var req RetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Failure == nil {
		api.Error(w, http.StatusBadRequest, "failure is required")
		return
	}
	if err := domain.ValidateTask(&req.Failure.Task, req.Failure.TaskIndex); err != nil {
		api.HandleError(w, err)
		return
	}

	artifact, err := h.runner.RetryTask(r.Context(), *req.Failure)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, artifact)
}

func (h *RunHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.history.ListRuns()
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, summaries)
}

func (h *RunHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("file")
	if filename == "" {
		api.Error(w, http.StatusBadRequest, "file query parameter is required")
		return
	}

	record, err := h.history.GetRun(filename)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, record)
}

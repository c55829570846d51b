package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/sophia/internal/api"
	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/cloo-solutions/sophia/internal/service"
)

type WorkflowPlanner interface {
	GenerateWorkflow(ctx context.Context) (*domain.Workflow, error)
	GenerateWorkflowWithGoal(ctx context.Context, goal string) (*domain.Workflow, error)
	GenerateWorkflowFromTemplate(ctx context.Context, templateID string) (*domain.Workflow, error)
}

type WorkflowHandler struct {
	planner WorkflowPlanner
}

func NewWorkflowHandler(planner WorkflowPlanner) *WorkflowHandler {
	return &WorkflowHandler{planner: planner}
}

type GenerateWorkflowRequest struct {
	Mode       string `json:"mode"`
	Goal       string `json:"goal,omitempty"`
	TemplateID string `json:"template_id,omitempty"`
}

func (h *WorkflowHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		workflow *domain.Workflow
		err      error
	)
	switch req.Mode {
	case "ai", "":
		workflow, err = h.planner.GenerateWorkflow(r.Context())
	case "goal":
		// Goal length is a boundary rule: reject before the planner is invoked.
		if err := domain.ValidateGoal(req.Goal); err != nil {
			api.HandleError(w, err)
			return
		}
		workflow, err = h.planner.GenerateWorkflowWithGoal(r.Context(), req.Goal)
	case "template":
		if req.TemplateID == "" {
			api.Error(w, http.StatusBadRequest, "template_id is required for template mode")
			return
		}
		workflow, err = h.planner.GenerateWorkflowFromTemplate(r.Context(), req.TemplateID)
	default:
		api.Error(w, http.StatusBadRequest, "mode must be one of: ai, goal, template")
		return
	}
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, workflow)
}

func (h *WorkflowHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, service.ListTemplates())
}

type SuggestTemplateRequest struct {
	Text string `json:"text"`
}

func (h *WorkflowHandler) SuggestTemplate(w http.ResponseWriter, r *http.Request) {
	var req SuggestTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Text == "" {
		api.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	api.Success(w, http.StatusOK, map[string]string{
		"template_id": service.SuggestTemplate(req.Text),
	})
}

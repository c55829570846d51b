package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/cloo-solutions/sophia/internal/openai"
	"github.com/cloo-solutions/sophia/internal/telemetry"
)

// ModelCompleter defines the model client interface used for text generation.
type ModelCompleter interface {
	Complete(ctx context.Context, prompt string, opts openai.CompleteOptions) (string, error)
}

// planContextQuery is the fixed retrieval query used when generating a plan.
const planContextQuery = "project specification requirements objectives"

// PlannerService generates workflows, either by asking the model or by
// applying a static template against the indexed project.
type PlannerService struct {
	model     ModelCompleter
	retriever openai.DocumentRetriever
}

// NewPlannerService creates a new PlannerService instance.
func NewPlannerService(model ModelCompleter, retriever openai.DocumentRetriever) *PlannerService {
	return &PlannerService{model: model, retriever: retriever}
}

func (s *PlannerService) retrieveContext(ctx context.Context, query, separator string) (string, error) {
	items, err := s.retriever.Query(ctx, query, 10)
	if err != nil {
		return "", err
	}
	texts := make([]string, 0, len(items))
	for _, item := range items {
		texts = append(texts, item.Text)
	}
	return strings.Join(texts, separator), nil
}

const exploratoryPromptFormat = `Based on the following project specification, generate a workflow JSON that breaks down project planning into discrete AI tasks.

PROJECT SPECIFICATION:
%s

Generate a JSON workflow with 4 to 15 tasks covering:
- Requirements analysis or WBS
- Task breakdown and dependencies
- Resource planning
- Risk assessment or timeline planning

CRITICAL: Return ONLY valid JSON, no other text. Use this exact structure:
{
  "workflow_name": "Descriptive workflow name",
  "tasks": [
    {
      "task_id": "1",
      "name": "task_identifier_lowercase",
      "prompt": "Detailed task instructions...",
      "output_format": "markdown"
    }
  ]
}

IMPORTANT:
- Output_format must be either "markdown" or "csv"
- Each task prompt should clearly reference project context
- Start your response with { and end with }
- Do NOT wrap in markdown code blocks`

// GenerateWorkflow asks the model to propose a workflow covering the indexed
// project specification. The model may query the document index via tool
// calls while generating.
func (s *PlannerService) GenerateWorkflow(ctx context.Context) (*domain.Workflow, error) {
	ctx, span := telemetry.StartSpan(ctx, "PlannerService.GenerateWorkflow", telemetry.SpanAttributes{
		Operation: "generate",
	})
	defer span.End()

	specContext, err := s.retrieveContext(ctx, planContextQuery, "\n\n---\n\n")
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	prompt := fmt.Sprintf(exploratoryPromptFormat, specContext)

	response, err := s.model.Complete(ctx, prompt, openai.CompleteOptions{
		JSONMode:  true,
		Retriever: s.retriever,
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return domain.ParseWorkflow([]byte(response))
}

const goalPromptFormat = `Based on the following project specification, generate a workflow JSON that breaks down into discrete AI tasks.

**WORKFLOW GOAL:**
%s

**PROJECT SPECIFICATION:**
%s

Create a JSON workflow with 4-7 tasks that will accomplish the stated goal. The tasks should:
1. Be specific to the project specification
2. Build logically toward the workflow goal
3. Include appropriate analysis, planning, and documentation tasks
4. Produce actionable deliverables

CRITICAL: Return ONLY valid JSON, no other text. Use this exact format:
{
  "workflow_name": "Descriptive name matching the goal",
  "tasks": [
    {
      "task_id": "1",
      "name": "task_identifier_lowercase",
      "prompt": "Detailed instructions that reference the project spec and contribute to the goal...",
      "output_format": "markdown"
    },
    {
      "task_id": "2",
      "name": "another_task_name",
      "prompt": "More detailed instructions...",
      "output_format": "csv"
    }
  ]
}

IMPORTANT:
- Output_format must be either "markdown" or "csv"
- Each task prompt should clearly reference project context
- Start your response with { and end with }
- Do NOT wrap in markdown code blocks`

// GenerateWorkflowWithGoal asks the model for a 4-7 task workflow advancing
// a specific user goal. Goal length is validated at the transport boundary;
// this method assumes it has already passed domain.ValidateGoal.
func (s *PlannerService) GenerateWorkflowWithGoal(ctx context.Context, goal string) (*domain.Workflow, error) {
	ctx, span := telemetry.StartSpan(ctx, "PlannerService.GenerateWorkflowWithGoal", telemetry.SpanAttributes{
		Operation: "generate_goal",
	})
	defer span.End()

	specContext, err := s.retrieveContext(ctx, planContextQuery, "\n\n---\n\n")
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	prompt := fmt.Sprintf(goalPromptFormat, goal, specContext)

	response, err := s.model.Complete(ctx, prompt, openai.CompleteOptions{
		JSONMode:  true,
		Retriever: s.retriever,
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return domain.ParseWorkflow([]byte(response))
}

// GenerateWorkflowFromTemplate applies a static template against the indexed
// project. No model call is made; the only failure modes are an unknown
// template id or a retrieval error.
func (s *PlannerService) GenerateWorkflowFromTemplate(ctx context.Context, templateID string) (*domain.Workflow, error) {
	ctx, span := telemetry.StartSpan(ctx, "PlannerService.GenerateWorkflowFromTemplate", telemetry.SpanAttributes{
		Operation: "generate_template",
	})
	defer span.End()

	tmpl, err := GetTemplate(templateID)
	if err != nil {
		return nil, err
	}

	projectContext, err := s.retrieveContext(ctx, "project specification", "\n\n")
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	workflow := tmpl.ApplyToContext(projectContext)
	return &workflow, nil
}

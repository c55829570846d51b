package service

import (
	"context"
	"testing"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/cloo-solutions/sophia/internal/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockModelCompleter mocks the model client
type MockModelCompleter struct {
	mock.Mock
}

func (m *MockModelCompleter) Complete(ctx context.Context, prompt string, opts openai.CompleteOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

// MockRetriever mocks the document index
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Query(ctx context.Context, query string, topK int) ([]domain.ContextItem, error) {
	args := m.Called(ctx, query, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContextItem), args.Error(1)
}

func contextItems(texts ...string) []domain.ContextItem {
	items := make([]domain.ContextItem, 0, len(texts))
	for i, text := range texts {
		items = append(items, domain.ContextItem{Text: text, Relevance: 1.0 - float64(i)*0.1})
	}
	return items
}

const validWorkflowJSON = `{
  "workflow_name": "Project Planning Workflow",
  "tasks": [
    {"task_id": "1", "name": "requirements", "prompt": "Analyze requirements", "output_format": "markdown"},
    {"task_id": "2", "name": "breakdown", "prompt": "Break down tasks", "output_format": "csv"},
    {"task_id": "3", "name": "resources", "prompt": "Plan resources", "output_format": "markdown"},
    {"task_id": "4", "name": "risks", "prompt": "Assess risks", "output_format": "markdown"}
  ]
}`

func TestPlannerService_GenerateWorkflow(t *testing.T) {
	model := new(MockModelCompleter)
	retriever := new(MockRetriever)
	svc := NewPlannerService(model, retriever)

	retriever.On("Query", mock.Anything, "project specification requirements objectives", 10).
		Return(contextItems("chunk one", "chunk two"), nil)

	var captured string
	var capturedOpts openai.CompleteOptions
	model.On("Complete", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.String(1)
			capturedOpts = args.Get(2).(openai.CompleteOptions)
		}).
		Return(validWorkflowJSON, nil)

	wf, err := svc.GenerateWorkflow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Project Planning Workflow", wf.WorkflowName)
	assert.Len(t, wf.Tasks, 4)

	// Retrieved context joined with the block separator, inside the spec block.
	assert.Contains(t, captured, "PROJECT SPECIFICATION:\nchunk one\n\n---\n\nchunk two")
	assert.Contains(t, captured, "Return ONLY valid JSON")
	assert.True(t, capturedOpts.JSONMode)
	assert.NotNil(t, capturedOpts.Retriever)

	retriever.AssertExpectations(t)
	model.AssertExpectations(t)
}

func TestPlannerService_GenerateWorkflow_InvalidJSON(t *testing.T) {
	model := new(MockModelCompleter)
	retriever := new(MockRetriever)
	svc := NewPlannerService(model, retriever)

	retriever.On("Query", mock.Anything, mock.Anything, 10).Return(contextItems("chunk"), nil)
	model.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("not json at all", nil)

	_, err := svc.GenerateWorkflow(context.Background())

	require.Error(t, err)
	assert.Equal(t, "AI_ERROR", domain.Category(err))
}

func TestPlannerService_GenerateWorkflow_StructuralFailure(t *testing.T) {
	model := new(MockModelCompleter)
	retriever := new(MockRetriever)
	svc := NewPlannerService(model, retriever)

	retriever.On("Query", mock.Anything, mock.Anything, 10).Return(contextItems("chunk"), nil)
	// Parses fine but has no tasks: a validation failure, not a parse failure.
	model.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"workflow_name": "Empty", "tasks": []}`, nil)

	_, err := svc.GenerateWorkflow(context.Background())

	require.Error(t, err)
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeValidation, derr.Code)
}

func TestPlannerService_GenerateWorkflow_ModelFailure(t *testing.T) {
	model := new(MockModelCompleter)
	retriever := new(MockRetriever)
	svc := NewPlannerService(model, retriever)

	retriever.On("Query", mock.Anything, mock.Anything, 10).Return(contextItems("chunk"), nil)
	modelErr := domain.NewAIError("AI call failed after 3 attempts", nil)
	model.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", modelErr)

	_, err := svc.GenerateWorkflow(context.Background())

	assert.Equal(t, "AI_ERROR", domain.Category(err))
}

func TestPlannerService_GenerateWorkflowWithGoal(t *testing.T) {
	model := new(MockModelCompleter)
	retriever := new(MockRetriever)
	svc := NewPlannerService(model, retriever)

	retriever.On("Query", mock.Anything, "project specification requirements objectives", 10).
		Return(contextItems("spec chunk"), nil)

	var captured string
	model.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.String(1) }).
		Return(validWorkflowJSON, nil)

	goal := "Produce a complete migration plan for the legacy billing system"
	wf, err := svc.GenerateWorkflowWithGoal(context.Background(), goal)

	require.NoError(t, err)
	assert.Equal(t, "Project Planning Workflow", wf.WorkflowName)
	assert.Contains(t, captured, "**WORKFLOW GOAL:**\n"+goal)
	assert.Contains(t, captured, "4-7 tasks")
}

func TestPlannerService_GenerateWorkflowFromTemplate(t *testing.T) {
	model := new(MockModelCompleter)
	retriever := new(MockRetriever)
	svc := NewPlannerService(model, retriever)

	retriever.On("Query", mock.Anything, "project specification", 10).
		Return(contextItems("first chunk", "second chunk"), nil)

	wf, err := svc.GenerateWorkflowFromTemplate(context.Background(), "research_project")

	require.NoError(t, err)
	assert.Equal(t, "Research Project Planning Workflow", wf.WorkflowName)
	require.Len(t, wf.Tasks, 5)
	// Template retrieval joins chunks with a blank line, not the block separator.
	assert.Contains(t, wf.Tasks[0].Prompt, "PROJECT CONTEXT:\nfirst chunk\n\nsecond chunk")

	// No model invocation for templates.
	model.AssertNotCalled(t, "Complete")
}

func TestPlannerService_GenerateWorkflowFromTemplate_NotFound(t *testing.T) {
	model := new(MockModelCompleter)
	retriever := new(MockRetriever)
	svc := NewPlannerService(model, retriever)

	_, err := svc.GenerateWorkflowFromTemplate(context.Background(), "does_not_exist")

	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	retriever.AssertNotCalled(t, "Query")
	model.AssertNotCalled(t, "Complete")
}

func TestPlannerService_RetrievalFailurePropagates(t *testing.T) {
	model := new(MockModelCompleter)
	retriever := new(MockRetriever)
	svc := NewPlannerService(model, retriever)

	vecErr := domain.NewVectorError("similarity search failed", nil)
	retriever.On("Query", mock.Anything, mock.Anything, 10).Return(nil, vecErr)

	_, err := svc.GenerateWorkflow(context.Background())
	assert.Equal(t, "VECTOR_ERROR", domain.Category(err))

	_, err = svc.GenerateWorkflowFromTemplate(context.Background(), "event_planning")
	assert.Equal(t, "VECTOR_ERROR", domain.Category(err))

	model.AssertNotCalled(t, "Complete")
}

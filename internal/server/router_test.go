package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/sophia/internal/api/handlers"
	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testToken = "sophia-test-token"

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) IndexDocument(ctx context.Context, documentID, text string) (int, error) {
	args := m.Called(ctx, documentID, text)
	return args.Int(0), args.Error(1)
}

func (m *MockIndexer) RemoveDocument(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

func (m *MockIndexer) Query(ctx context.Context, query string, topK int) ([]domain.ContextItem, error) {
	args := m.Called(ctx, query, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContextItem), args.Error(1)
}

type MockPlanner struct {
	mock.Mock
}

func (m *MockPlanner) GenerateWorkflow(ctx context.Context) (*domain.Workflow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Workflow), args.Error(1)
}

func (m *MockPlanner) GenerateWorkflowWithGoal(ctx context.Context, goal string) (*domain.Workflow, error) {
	args := m.Called(ctx, goal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Workflow), args.Error(1)
}

func (m *MockPlanner) GenerateWorkflowFromTemplate(ctx context.Context, templateID string) (*domain.Workflow, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Workflow), args.Error(1)
}

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, workflow *domain.Workflow) (*domain.RunReport, error) {
	args := m.Called(ctx, workflow)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunReport), args.Error(1)
}

func (m *MockRunner) RetryTask(ctx context.Context, failure domain.TaskFailure) (domain.Artifact, error) {
	args := m.Called(ctx, failure)
	return args.Get(0).(domain.Artifact), args.Error(1)
}

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) ListRuns() ([]domain.RunSummary, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RunSummary), args.Error(1)
}

func (m *MockHistory) GetRun(filename string) (*domain.RunRecord, error) {
	args := m.Called(filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunRecord), args.Error(1)
}

func setupRouter() (http.Handler, *MockIndexer, *MockPlanner, *MockRunner, *MockHistory) {
	indexer := new(MockIndexer)
	planner := new(MockPlanner)
	runner := new(MockRunner)
	history := new(MockHistory)

	cfg := RouterConfig{
		APIToken:        testToken,
		DocumentHandler: handlers.NewDocumentHandler(indexer),
		WorkflowHandler: handlers.NewWorkflowHandler(planner),
		RunHandler:      handlers.NewRunHandler(runner, history),
	}

	return NewRouter(cfg), indexer, planner, runner, history
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_AuthenticatedRoutes_RequireAuth(t *testing.T) {
	router, _, _, _, _ := setupRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/documents"},
		{http.MethodDelete, "/documents/spec"},
		{http.MethodPost, "/search"},
		{http.MethodGet, "/templates"},
		{http.MethodPost, "/templates/suggest"},
		{http.MethodPost, "/workflows/generate"},
		{http.MethodPost, "/runs"},
		{http.MethodPost, "/runs/retry"},
		{http.MethodGet, "/history"},
		{http.MethodGet, "/history/record"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_AuthenticatedRoutes_WithValidToken(t *testing.T) {
	router, indexer, _, _, _ := setupRouter()

	indexer.On("IndexDocument", mock.Anything, "spec", "some project text").Return(2, nil)

	body := `{"document_id":"spec","text":"some project text"}`
	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"chunks_indexed":2`)
	indexer.AssertExpectations(t)
}

func TestRouter_TemplatesEndToEnd(t *testing.T) {
	router, _, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/templates", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "software_development")
}

func TestRouter_HistoryRecordRouting(t *testing.T) {
	router, _, _, _, history := setupRouter()

	record := &domain.RunRecord{WorkflowName: "Plan", NumTasks: 2}
	history.On("GetRun", "workflow_2026-08-26_10-00-00.json").Return(record, nil)

	req := httptest.NewRequest(http.MethodGet, "/history/record?file=workflow_2026-08-26_10-00-00.json", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	history.AssertExpectations(t)
}

func TestRouter_RejectsOversizedBody(t *testing.T) {
	router, indexer, _, _, _ := setupRouter()

	huge := strings.Repeat("a", 6*1024*1024)
	body := `{"document_id":"spec","text":"` + huge + `"}`
	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	indexer.AssertNotCalled(t, "IndexDocument")
}

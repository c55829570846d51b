package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", domain.ErrGoalTooShort, http.StatusBadRequest},
		{"not found", domain.ErrTemplateNotFound, http.StatusNotFound},
		{"ai", domain.NewAIError("AI call failed after 3 attempts", nil), http.StatusBadGateway},
		{"vector", domain.NewVectorError("similarity search failed", nil), http.StatusBadGateway},
		{"config", domain.ErrMissingAPIKey, http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped domain error", domain.NewVectorError("outer", domain.ErrEmptyText), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestHandleError_IncludesCategory(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, domain.NewAIError("AI call failed after 3 attempts", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AI_ERROR", resp.Category)
	assert.Contains(t, resp.Error, "AI call failed")
}

func TestHandleError_OmitsCategoryForValidation(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, domain.ErrEmptyText)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "category")
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()

	Success(rec, http.StatusCreated, map[string]int{"chunks": 4})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"chunks":4}}`, rec.Body.String())
}

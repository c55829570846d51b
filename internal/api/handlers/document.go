package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/sophia/internal/api"
	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/go-chi/chi/v5"
)

type DocumentIndexer interface {
	IndexDocument(ctx context.Context, documentID, text string) (int, error)
	RemoveDocument(ctx context.Context, documentID string) error
	Query(ctx context.Context, query string, topK int) ([]domain.ContextItem, error)
}

type DocumentHandler struct {
	svc DocumentIndexer
}

func NewDocumentHandler(svc DocumentIndexer) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type IndexDocumentRequest struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

type IndexDocumentResponse struct {
	DocumentID    string `json:"document_id"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

func (h *DocumentHandler) Index(w http.ResponseWriter, r *http.Request) {
	var req IndexDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	count, err := h.svc.IndexDocument(r.Context(), req.DocumentID, req.Text)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, IndexDocumentResponse{
		DocumentID:    req.DocumentID,
		ChunksIndexed: count,
	})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	if err := h.svc.RemoveDocument(r.Context(), documentID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"document_id": documentID, "status": "deleted"})
}

type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (h *DocumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	items, err := h.svc.Query(r.Context(), req.Query, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, items)
}

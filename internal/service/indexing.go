package service

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/cloo-solutions/sophia/internal/repository"
	"github.com/cloo-solutions/sophia/internal/telemetry"
)

// ChunkStore defines the persistence interface for document chunks.
type ChunkStore interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error
	DeleteByDocument(ctx context.Context, documentID string) error
	SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]repository.RetrievedChunk, error)
	CountByDocument(ctx context.Context, documentID string) (int, error)
}

// Embedder defines the interface for turning text into a vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// MaxQueryResults caps how many chunks a single similarity query may return.
const MaxQueryResults = 10

// classifyEmbeddingError keeps an already-classified failure as-is and wraps
// anything else as a vector store failure, so raw SDK errors never leave the
// index adapter unclassified.
func classifyEmbeddingError(message string, err error) error {
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		return err
	}
	return domain.NewVectorError(message, err)
}

// IndexService chunks documents, embeds each chunk, and serves
// similarity queries over the chunk store.
type IndexService struct {
	store    ChunkStore
	embedder Embedder
	chunkCfg ChunkConfig
	now      func() time.Time
}

// NewIndexService creates a new IndexService instance.
func NewIndexService(store ChunkStore, embedder Embedder, chunkCfg ChunkConfig) *IndexService {
	return &IndexService{
		store:    store,
		embedder: embedder,
		chunkCfg: chunkCfg,
		now:      time.Now,
	}
}

// IndexDocument validates, chunks, and embeds a document, then replaces any
// chunks previously stored under the same document id. Returns the number of
// chunks stored. Nothing is written if any embedding call fails.
func (s *IndexService) IndexDocument(ctx context.Context, documentID, text string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexService.IndexDocument", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "index",
	})
	defer span.End()

	if documentID == "" {
		return 0, domain.ErrEmptyDocument
	}
	if err := domain.ValidateDocumentText(text); err != nil {
		return 0, err
	}

	pieces, err := ChunkText(text, s.chunkCfg)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	chunks := make([]domain.DocumentChunk, 0, len(pieces))
	for i, piece := range pieces {
		embedding, err := s.embedder.GenerateEmbedding(ctx, piece)
		if err != nil {
			span.SetError(err)
			return 0, classifyEmbeddingError("failed to embed document chunk", err)
		}
		chunks = append(chunks, domain.DocumentChunk{
			DocumentID: documentID,
			ChunkIndex: i,
			Content:    piece,
			Embedding:  embedding,
			CreatedAt:  now,
		})
	}

	if err := s.store.ReplaceChunks(ctx, documentID, chunks); err != nil {
		span.SetError(err)
		return 0, domain.NewVectorError("failed to store document chunks", err)
	}

	return len(chunks), nil
}

// RemoveDocument deletes all chunks stored for a document. Removing a
// document that was never indexed is not an error.
func (s *IndexService) RemoveDocument(ctx context.Context, documentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "IndexService.RemoveDocument", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "remove",
	})
	defer span.End()

	if documentID == "" {
		return domain.ErrEmptyDocument
	}

	if err := s.store.DeleteByDocument(ctx, documentID); err != nil {
		span.SetError(err)
		return domain.NewVectorError("failed to remove document chunks", err)
	}
	return nil
}

// Query embeds the query text and returns up to topK chunks ordered by
// similarity. Relevance is assigned by rank: 1.0 for the best match, then
// decreasing by 0.1 per position. An empty store yields an empty result,
// not an error.
func (s *IndexService) Query(ctx context.Context, query string, topK int) ([]domain.ContextItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexService.Query", telemetry.SpanAttributes{
		Operation: "query",
	})
	defer span.End()

	if topK <= 0 {
		topK = 5
	}
	if topK > MaxQueryResults {
		topK = MaxQueryResults
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, classifyEmbeddingError("failed to embed query", err)
	}

	rows, err := s.store.SearchByEmbedding(ctx, embedding, topK)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewVectorError("similarity search failed", err)
	}

	items := make([]domain.ContextItem, 0, len(rows))
	for i, row := range rows {
		items = append(items, domain.ContextItem{
			Text:      row.Content,
			Relevance: 1.0 - float64(i)*0.1,
			Metadata: domain.ChunkMetadata{
				Source:     row.DocumentID,
				ChunkIndex: row.ChunkIndex,
				Timestamp:  row.CreatedAt.UTC().Format(time.RFC3339),
			},
		})
	}
	return items, nil
}

// DocumentChunkCount reports how many chunks are stored for a document.
func (s *IndexService) DocumentChunkCount(ctx context.Context, documentID string) (int, error) {
	count, err := s.store.CountByDocument(ctx, documentID)
	if err != nil {
		return 0, domain.NewVectorError("failed to count document chunks", err)
	}
	return count, nil
}

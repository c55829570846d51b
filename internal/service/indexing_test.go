package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/cloo-solutions/sophia/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChunkStore mocks the chunk persistence layer
type MockChunkStore struct {
	mock.Mock
}

func (m *MockChunkStore) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error {
	args := m.Called(ctx, documentID, chunks)
	return args.Error(0)
}

func (m *MockChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

func (m *MockChunkStore) SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]repository.RetrievedChunk, error) {
	args := m.Called(ctx, embedding, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.RetrievedChunk), args.Error(1)
}

func (m *MockChunkStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	args := m.Called(ctx, documentID)
	return args.Int(0), args.Error(1)
}

// MockIndexEmbedder mocks the embedding client
type MockIndexEmbedder struct {
	mock.Mock
}

func (m *MockIndexEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func docText(n int) string {
	const s = "the quick brown fox jumps over the lazy dog "
	return strings.Repeat(s, n/len(s)+1)[:n]
}

func TestIndexService_IndexDocument_Success(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockIndexEmbedder)
	svc := NewIndexService(store, embedder, ChunkConfig{Size: 800, Overlap: 200})

	text := docText(2000) // 800-rune windows stepping 600: chunks at 0, 600, 1200, 1800

	embedding := []float32{0.1, 0.2, 0.3}
	embedder.On("GenerateEmbedding", mock.Anything, mock.AnythingOfType("string")).Return(embedding, nil)

	var stored []domain.DocumentChunk
	store.On("ReplaceChunks", mock.Anything, "spec.txt", mock.Anything).
		Run(func(args mock.Arguments) {
			stored = args.Get(2).([]domain.DocumentChunk)
		}).
		Return(nil)

	count, err := svc.IndexDocument(context.Background(), "spec.txt", text)

	require.NoError(t, err)
	assert.Equal(t, 4, count)
	require.Len(t, stored, 4)
	for i, chunk := range stored {
		assert.Equal(t, "spec.txt", chunk.DocumentID)
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, embedding, chunk.Embedding)
		assert.NotEmpty(t, chunk.Content)
		assert.Equal(t, domain.ChunkID("spec.txt", i), chunk.ID())
	}
	store.AssertExpectations(t)
	embedder.AssertExpectations(t)
}

func TestIndexService_IndexDocument_RejectsInvalidText(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockIndexEmbedder)
	svc := NewIndexService(store, embedder, DefaultChunkConfig())

	tests := []struct {
		name    string
		docID   string
		text    string
		wantErr error
	}{
		{"empty text", "a.txt", "   \n\t  ", domain.ErrEmptyText},
		{"too short", "a.txt", "tiny", domain.ErrTextTooShort},
		{"too long", "a.txt", docText(100_001), domain.ErrTextTooLong},
		{"missing document id", "", docText(500), domain.ErrEmptyDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := svc.IndexDocument(context.Background(), tt.docID, tt.text)
			assert.Equal(t, 0, count)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	store.AssertNotCalled(t, "ReplaceChunks")
	embedder.AssertNotCalled(t, "GenerateEmbedding")
}

func TestIndexService_IndexDocument_EmbeddingFailureWritesNothing(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockIndexEmbedder)
	svc := NewIndexService(store, embedder, DefaultChunkConfig())

	aiErr := domain.NewAIError("AI call failed after 3 attempts", errors.New("rate limited"))
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, aiErr)

	count, err := svc.IndexDocument(context.Background(), "spec.txt", docText(500))

	assert.Equal(t, 0, count)
	assert.Equal(t, "AI_ERROR", domain.Category(err))
	store.AssertNotCalled(t, "ReplaceChunks")
}

func TestIndexService_IndexDocument_RawEmbeddingFailureIsVectorError(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockIndexEmbedder)
	svc := NewIndexService(store, embedder, DefaultChunkConfig())

	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).
		Return(nil, errors.New("socket closed"))

	count, err := svc.IndexDocument(context.Background(), "spec.txt", docText(500))

	assert.Equal(t, 0, count)
	require.Error(t, err)
	assert.Equal(t, "VECTOR_ERROR", domain.Category(err))
	assert.Contains(t, err.Error(), "failed to embed document chunk")
	store.AssertNotCalled(t, "ReplaceChunks")
}

func TestIndexService_IndexDocument_StoreFailureIsVectorError(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockIndexEmbedder)
	svc := NewIndexService(store, embedder, DefaultChunkConfig())

	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)
	store.On("ReplaceChunks", mock.Anything, "spec.txt", mock.Anything).Return(errors.New("connection refused"))

	_, err := svc.IndexDocument(context.Background(), "spec.txt", docText(500))

	assert.Equal(t, "VECTOR_ERROR", domain.Category(err))
}

func TestIndexService_RemoveDocument(t *testing.T) {
	store := new(MockChunkStore)
	svc := NewIndexService(store, new(MockIndexEmbedder), DefaultChunkConfig())

	store.On("DeleteByDocument", mock.Anything, "spec.txt").Return(nil)

	assert.NoError(t, svc.RemoveDocument(context.Background(), "spec.txt"))
	assert.ErrorIs(t, svc.RemoveDocument(context.Background(), ""), domain.ErrEmptyDocument)
	store.AssertExpectations(t)
}

func TestIndexService_Query_RankDerivedRelevance(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockIndexEmbedder)
	svc := NewIndexService(store, embedder, DefaultChunkConfig())

	queryVec := []float32{0.5, 0.5}
	embedder.On("GenerateEmbedding", mock.Anything, "database design").Return(queryVec, nil)

	rows := []repository.RetrievedChunk{
		{Content: "first", DocumentID: "a.txt", ChunkIndex: 0},
		{Content: "second", DocumentID: "a.txt", ChunkIndex: 3},
		{Content: "third", DocumentID: "b.txt", ChunkIndex: 1},
	}
	store.On("SearchByEmbedding", mock.Anything, queryVec, 3).Return(rows, nil)

	items, err := svc.Query(context.Background(), "database design", 3)

	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.InDelta(t, 1.0, items[0].Relevance, 1e-9)
	assert.InDelta(t, 0.9, items[1].Relevance, 1e-9)
	assert.InDelta(t, 0.8, items[2].Relevance, 1e-9)
	assert.Equal(t, "first", items[0].Text)
	assert.Equal(t, "a.txt", items[1].Metadata.Source)
	assert.Equal(t, 3, items[1].Metadata.ChunkIndex)
}

func TestIndexService_Query_CapsTopK(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockIndexEmbedder)
	svc := NewIndexService(store, embedder, DefaultChunkConfig())

	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)
	store.On("SearchByEmbedding", mock.Anything, mock.Anything, MaxQueryResults).
		Return([]repository.RetrievedChunk{}, nil)

	_, err := svc.Query(context.Background(), "everything", 50)

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestIndexService_Query_DefaultTopK(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockIndexEmbedder)
	svc := NewIndexService(store, embedder, DefaultChunkConfig())

	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)
	store.On("SearchByEmbedding", mock.Anything, mock.Anything, 5).
		Return([]repository.RetrievedChunk{}, nil)

	items, err := svc.Query(context.Background(), "anything", 0)

	require.NoError(t, err)
	assert.Empty(t, items)
	store.AssertExpectations(t)
}

func TestIndexService_Query_EmptyStore(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockIndexEmbedder)
	svc := NewIndexService(store, embedder, DefaultChunkConfig())

	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)
	store.On("SearchByEmbedding", mock.Anything, mock.Anything, mock.Anything).
		Return([]repository.RetrievedChunk{}, nil)

	items, err := svc.Query(context.Background(), "no documents yet", 5)

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestIndexService_Query_SearchFailureIsVectorError(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockIndexEmbedder)
	svc := NewIndexService(store, embedder, DefaultChunkConfig())

	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)
	store.On("SearchByEmbedding", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("index corrupted"))

	_, err := svc.Query(context.Background(), "anything", 5)

	assert.Equal(t, "VECTOR_ERROR", domain.Category(err))
}

func TestIndexService_Query_EmbeddingFailureIsVectorError(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockIndexEmbedder)
	svc := NewIndexService(store, embedder, DefaultChunkConfig())

	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).
		Return(nil, errors.New("socket closed"))

	_, err := svc.Query(context.Background(), "anything", 5)

	require.Error(t, err)
	assert.Equal(t, "VECTOR_ERROR", domain.Category(err))
	assert.Contains(t, err.Error(), "failed to embed query")
	store.AssertNotCalled(t, "SearchByEmbedding")
}

func TestIndexService_Query_EmbeddingFailureKeepsExistingClassification(t *testing.T) {
	store := new(MockChunkStore)
	embedder := new(MockIndexEmbedder)
	svc := NewIndexService(store, embedder, DefaultChunkConfig())

	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).
		Return(nil, domain.NewAIError("AI call failed after 3 attempts", errors.New("rate limited")))

	_, err := svc.Query(context.Background(), "anything", 5)

	require.Error(t, err)
	assert.Equal(t, "AI_ERROR", domain.Category(err))
}

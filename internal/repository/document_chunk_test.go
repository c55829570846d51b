//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/cloo-solutions/sophia/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmbedding(seed float32) []float32 {
	v := make([]float32, 1536)
	v[0] = seed
	v[1] = 1
	return v
}

func makeChunks(documentID string, contents ...string) []domain.DocumentChunk {
	chunks := make([]domain.DocumentChunk, 0, len(contents))
	for i, content := range contents {
		chunks = append(chunks, domain.DocumentChunk{
			DocumentID: documentID,
			ChunkIndex: i,
			Content:    content,
			Embedding:  testEmbedding(float32(i)),
		})
	}
	return chunks
}

func TestDocumentChunkRepository_ReplaceChunks(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentChunkRepository(pool)

	require.NoError(t, repo.ReplaceChunks(ctx, "spec.txt", makeChunks("spec.txt", "alpha", "beta", "gamma")))

	count, err := repo.CountByDocument(ctx, "spec.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Re-indexing the same document replaces, never unions.
	require.NoError(t, repo.ReplaceChunks(ctx, "spec.txt", makeChunks("spec.txt", "delta", "epsilon")))

	count, err = repo.CountByDocument(ctx, "spec.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := repo.SearchByEmbedding(ctx, testEmbedding(0), 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "spec.txt", r.DocumentID)
		assert.NotContains(t, []string{"alpha", "beta", "gamma"}, r.Content)
	}
}

func TestDocumentChunkRepository_DeleteByDocument(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentChunkRepository(pool)

	require.NoError(t, repo.ReplaceChunks(ctx, "a.txt", makeChunks("a.txt", "one", "two")))
	require.NoError(t, repo.ReplaceChunks(ctx, "b.txt", makeChunks("b.txt", "three")))

	require.NoError(t, repo.DeleteByDocument(ctx, "a.txt"))

	count, err := repo.CountByDocument(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = repo.CountByDocument(ctx, "b.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Deleting a document that has no chunks is a no-op.
	require.NoError(t, repo.DeleteByDocument(ctx, "missing.txt"))
}

func TestDocumentChunkRepository_SearchOrdering(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentChunkRepository(pool)

	var chunks []domain.DocumentChunk
	for i := 0; i < 5; i++ {
		chunks = append(chunks, domain.DocumentChunk{
			DocumentID: "doc.txt",
			ChunkIndex: i,
			Content:    fmt.Sprintf("chunk %d", i),
			Embedding:  testEmbedding(float32(i)),
		})
	}
	require.NoError(t, repo.ReplaceChunks(ctx, "doc.txt", chunks))

	results, err := repo.SearchByEmbedding(ctx, testEmbedding(4), 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "chunk 4", results[0].Content)
}

func TestDocumentChunkRepository_SearchEmptyStore(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDocumentChunkRepository(pool)

	results, err := repo.SearchByEmbedding(ctx, testEmbedding(1), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

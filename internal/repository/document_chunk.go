package repository

import (
	"context"
	"time"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DocumentChunkRepository handles persistence of embedded document chunks.
type DocumentChunkRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentChunkRepository(pool *pgxpool.Pool) *DocumentChunkRepository {
	return &DocumentChunkRepository{pool: pool}
}

// ReplaceChunks deletes any existing chunks for the document and inserts the
// new set in one transaction, so a re-index never leaves a union of old and
// new chunks behind.
func (r *DocumentChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return err
	}

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO document_chunks
				(id, document_id, chunk_index, content, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6)`,
			c.ID(),
			c.DocumentID,
			c.ChunkIndex,
			c.Content,
			pgvector.NewVector(c.Embedding),
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DeleteByDocument removes all chunks tagged with the document ID.
func (r *DocumentChunkRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	return err
}

// RetrievedChunk is one row returned by a similarity search, before the
// adapter assigns rank-derived relevance.
type RetrievedChunk struct {
	Content    string
	DocumentID string
	ChunkIndex int
	CreatedAt  time.Time
}

// SearchByEmbedding returns the topK chunks nearest to the query embedding,
// ordered by cosine distance.
func (r *DocumentChunkRepository) SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]RetrievedChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	rows, err := r.pool.Query(ctx,
		`SELECT content, document_id, chunk_index, created_at
		 FROM document_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RetrievedChunk
	for rows.Next() {
		var c RetrievedChunk
		if err := rows.Scan(&c.Content, &c.DocumentID, &c.ChunkIndex, &c.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, c)
	}

	return results, rows.Err()
}

// CountByDocument returns the number of chunks stored for a document.
func (r *DocumentChunkRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`, documentID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// DocumentChunk is one overlapping window of a source document, ready for
// embedding and insertion into the chunk store.
type DocumentChunk struct {
	DocumentID string
	ChunkIndex int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}

// ChunkID returns the deterministic store identifier for a chunk.
func ChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, ordinal)
}

// ID returns the chunk's deterministic store identifier.
func (c *DocumentChunk) ID() string {
	return ChunkID(c.DocumentID, c.ChunkIndex)
}

// ChunkMetadata is the source metadata carried alongside retrieved text.
type ChunkMetadata struct {
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
	Timestamp  string `json:"timestamp"`
}

// ContextItem is one similarity-query result. Relevance is derived purely
// from result rank (1.0, 0.9, 0.8, ...) and is ordering-only; it is not a
// calibrated probability and must not be compared across queries.
type ContextItem struct {
	Text      string        `json:"text"`
	Relevance float64       `json:"relevance"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// Input text bounds enforced before any chunk is created or remote call made.
const (
	MinDocumentChars = 100
	MaxDocumentChars = 100_000
)

// ValidateDocumentText rejects input that is empty, too short, or too long.
func ValidateDocumentText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if len(text) < MinDocumentChars {
		return ErrTextTooShort
	}
	if len(text) > MaxDocumentChars {
		return ErrTextTooLong
	}
	return nil
}

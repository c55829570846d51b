package service

import (
	"iter"
	"strings"

	"github.com/cloo-solutions/sophia/internal/domain"
)

// ChunkConfig controls the sliding window used to split documents for
// indexing. Defaults keep each chunk semantically coherent while the overlap
// preserves context across window boundaries.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    800,
		Overlap: 200,
	}
}

// MinChunkSize is the absolute floor for the window size.
const MinChunkSize = 100

func validateChunkConfig(cfg ChunkConfig) error {
	if cfg.Size <= cfg.Overlap {
		return domain.NewDomainError(domain.ErrCodeValidation,
			"chunk size must be greater than overlap")
	}
	if cfg.Size < MinChunkSize {
		return domain.NewDomainError(domain.ErrCodeValidation,
			"chunk size too small (minimum 100)")
	}
	return nil
}

// Chunks returns a lazy sequence of overlapping fixed-size windows over text.
// Window starts advance by exactly Size−Overlap; the final window is clipped
// to the text length; windows that are empty after trimming are skipped. The
// sequence is deterministic and restartable: re-ranging recomputes the same
// windows from the same inputs.
func Chunks(text string, cfg ChunkConfig) (iter.Seq[string], error) {
	if err := validateChunkConfig(cfg); err != nil {
		return nil, err
	}

	runes := []rune(text)
	step := cfg.Size - cfg.Overlap

	return func(yield func(string) bool) {
		for start := 0; start < len(runes); start += step {
			end := start + cfg.Size
			if end > len(runes) {
				end = len(runes)
			}
			chunk := string(runes[start:end])
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			if !yield(chunk) {
				return
			}
		}
	}, nil
}

// ChunkText collects the chunk sequence into a slice.
func ChunkText(text string, cfg ChunkConfig) ([]string, error) {
	seq, err := Chunks(text, cfg)
	if err != nil {
		return nil, err
	}
	var chunks []string
	for chunk := range seq {
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

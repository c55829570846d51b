package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/cloo-solutions/sophia/internal/openai"
	"github.com/cloo-solutions/sophia/internal/telemetry"
)

// MaxContextChars is the hard ceiling on assembled retrieval context. The
// task's own prompt is never counted against it.
const MaxContextChars = 20_000

// truncationMarker is appended whenever the context was cut at the ceiling.
const truncationMarker = "\n\n[Context truncated]"

// ExecutorService runs one workflow task: it retrieves context for the task
// prompt, folds in prior task outputs, and asks the model for the deliverable.
type ExecutorService struct {
	model     ModelCompleter
	retriever openai.DocumentRetriever
}

// NewExecutorService creates a new ExecutorService instance.
func NewExecutorService(model ModelCompleter, retriever openai.DocumentRetriever) *ExecutorService {
	return &ExecutorService{model: model, retriever: retriever}
}

// buildContext assembles the labeled context blocks for a task. Measured and
// truncated in runes so the ceiling holds for multi-byte text.
func buildContext(specChunks []domain.ContextItem, previousOutputs []string) string {
	texts := make([]string, 0, len(specChunks))
	for _, chunk := range specChunks {
		texts = append(texts, chunk.Text)
	}

	parts := []string{"PROJECT SPECIFICATION:\n" + strings.Join(texts, "\n\n")}
	if len(previousOutputs) > 0 {
		parts = append(parts, "PREVIOUS OUTPUTS:\n"+strings.Join(previousOutputs, "\n\n---\n\n"))
	}

	full := "\n\n" + strings.Repeat("=", 50) + "\n\n" + strings.Join(parts, "\n\n")

	if runes := []rune(full); len(runes) > MaxContextChars {
		full = string(runes[:MaxContextChars]) + truncationMarker
	}
	return full
}

// ExecuteTask runs a single task against the indexed project. The returned
// error, if any, carries a coarse category (AI_ERROR, VECTOR_ERROR,
// UNKNOWN_ERROR) recoverable via domain.Category; the category is
// informational and never changes how the call was retried.
func (s *ExecutorService) ExecuteTask(ctx context.Context, task domain.Task, previousOutputs []string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "ExecutorService.ExecuteTask", telemetry.SpanAttributes{
		TaskID:    task.TaskID,
		Operation: "execute",
	})
	defer span.End()

	chunks, err := s.retriever.Query(ctx, task.Prompt, 5)
	if err != nil {
		span.SetError(err)
		return "", err
	}

	fullContext := buildContext(chunks, previousOutputs)

	prompt := fmt.Sprintf(`%s

%s

Provide detailed output in %s format.`, task.Prompt, fullContext, task.OutputFormat)

	result, err := s.model.Complete(ctx, prompt, openai.CompleteOptions{
		Retriever: s.retriever,
	})
	if err != nil {
		span.SetError(err)
		return "", err
	}
	return result, nil
}

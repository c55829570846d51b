package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cloo-solutions/sophia/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultBaseURL targets an OpenRouter-compatible chat-completions API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "anthropic/claude-3.5-sonnet"
	// DefaultMaxRetries is the attempt budget per completion call.
	DefaultMaxRetries = 3
	// DefaultTimeout is the per-attempt HTTP timeout.
	DefaultTimeout = 60 * time.Second
	// DefaultMaxToolRounds caps how many times the model may request tool
	// execution before a completion call is abandoned.
	DefaultMaxToolRounds = 4

	// DefaultEmbeddingModel is the model used for chunk and query embeddings.
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002.
	DefaultEmbeddingDimensions = 1536

	completionTemperature = 0.7
	completionMaxTokens   = 4000

	// QueryToolName is the function the model may call to search indexed documents.
	QueryToolName = "query_project_documents"
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions, expected 1536")
	// ErrNoAPIKey is returned when the API key is not set
	ErrNoAPIKey = errors.New("SOPHIA_API_KEY environment variable not set")
)

// ChatAPI defines the slice of the completion API the client depends on.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// DocumentRetriever is the callback surface handed to the model as a tool:
// when the model requests a document search, the client executes it here.
type DocumentRetriever interface {
	Query(ctx context.Context, query string, topK int) ([]domain.ContextItem, error)
}

// OpenAIAdapter binds the go-openai SDK to the ChatAPI and EmbeddingAPI
// interfaces against a configurable (OpenRouter-compatible) endpoint.
type OpenAIAdapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
}

// attributionTransport adds the OpenRouter attribution headers to every request.
type attributionTransport struct {
	base http.RoundTripper
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("HTTP-Referer", "https://pmia.app")
	req.Header.Set("X-Title", "Sophia Project Assistant")
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewOpenAIAdapter creates an SDK adapter for the given key and endpoint.
func NewOpenAIAdapter(apiKey, baseURL string, timeout time.Duration, embeddingModel openai.EmbeddingModel) *OpenAIAdapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	sdkCfg := openai.DefaultConfig(apiKey)
	sdkCfg.BaseURL = baseURL
	sdkCfg.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: &attributionTransport{},
	}

	return &OpenAIAdapter{
		client:         openai.NewClientWithConfig(sdkCfg),
		embeddingModel: embeddingModel,
	}
}

// CreateChatCompletion forwards a completion request to the SDK.
func (a *OpenAIAdapter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return a.client.CreateChatCompletion(ctx, req)
}

// CreateEmbeddings calls the embeddings API for a single text.
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// Config holds explicit client configuration.
type Config struct {
	APIKey              string
	BaseURL             string
	Model               string
	MaxRetries          int
	Timeout             time.Duration
	MaxToolRounds       int
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
}

// Client wraps the chat-completion endpoint with retry/backoff, JSON-mode
// response cleaning, and a bounded tool-call loop.
type Client struct {
	chat       ChatAPI
	embedder   EmbeddingAPI
	model      string
	maxRetries int
	toolRounds int
	dimensions int

	// sleep is injectable so tests can assert backoff without real waiting.
	sleep func(ctx context.Context, d time.Duration)
}

// NewClient creates a client with defaults for everything but the API key.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	adapter := NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, cfg.Timeout, cfg.EmbeddingModel)
	c := newClientWithAPI(adapter, adapter, cfg)
	return c
}

// NewClientFromEnv creates a client using the SOPHIA_API_KEY environment variable.
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("SOPHIA_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

func newClientWithAPI(chat ChatAPI, embedder EmbeddingAPI, cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	toolRounds := cfg.MaxToolRounds
	if toolRounds <= 0 {
		toolRounds = DefaultMaxToolRounds
	}
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}

	return &Client{
		chat:       chat,
		embedder:   embedder,
		model:      model,
		maxRetries: maxRetries,
		toolRounds: toolRounds,
		dimensions: dimensions,
		sleep:      sleepWithContext,
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// CompleteOptions controls a single completion call.
type CompleteOptions struct {
	// JSONMode appends explicit formatting instructions and strips
	// conversational wrapping from the answer. No native structured-output
	// mode is assumed available on the endpoint.
	JSONMode bool
	// Retriever, when non-nil, exposes the document query tool to the model.
	Retriever DocumentRetriever
}

const jsonFormatInstructions = `

CRITICAL FORMATTING INSTRUCTIONS:
- Return ONLY valid JSON
- Do NOT include any markdown formatting (no ` + "```json or ```" + `)
- Do NOT include any explanatory text before or after the JSON
- Start your response with { and end with }
- Ensure all JSON is properly formatted and parseable`

// Complete sends a prompt to the chat endpoint and returns the response text.
//
// Retry policy: up to maxRetries attempts. Timeouts and 5xx-class failures
// back off 2^attempt seconds; HTTP 429 backs off 5×2^attempt seconds; HTTP
// 400 and 401 fail immediately. Exhausting the budget yields one uniform
// AI_ERROR carrying only a message, never transport detail.
//
// Tool loop: when the model requests document searches, each call is executed
// against opts.Retriever, the results are appended as tool turns, and the
// request is re-issued. Tool rounds are capped by MaxToolRounds independently
// of the retry budget.
func (c *Client) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	if opts.JSONMode {
		prompt += jsonFormatInstructions
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	var tools []openai.Tool
	if opts.Retriever != nil {
		tools = []openai.Tool{queryTool()}
	}

	var lastErr error
	toolRounds := 0

	for attempt := 0; attempt < c.maxRetries; {
		resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: completionTemperature,
			MaxTokens:   completionMaxTokens,
			Tools:       tools,
		})
		if err != nil {
			retryable, wait, classified := classifyCallError(err, attempt)
			if !retryable {
				return "", classified
			}
			lastErr = classified
			attempt++
			if attempt >= c.maxRetries {
				break
			}
			c.sleep(ctx, wait)
			continue
		}

		if len(resp.Choices) == 0 {
			return "", domain.NewAIError("unexpected model response format", nil)
		}
		message := resp.Choices[0].Message

		if len(message.ToolCalls) > 0 && opts.Retriever != nil {
			toolRounds++
			if toolRounds > c.toolRounds {
				return "", domain.NewAIError(
					fmt.Sprintf("model exceeded tool call budget (%d rounds)", c.toolRounds), nil)
			}

			messages = append(messages, message)
			for _, call := range message.ToolCalls {
				result, err := c.executeToolCall(ctx, opts.Retriever, call)
				if err != nil {
					return "", err
				}
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    result,
					Name:       call.Function.Name,
					ToolCallID: call.ID,
				})
			}
			// Re-issue the completion with the tool results appended.
			continue
		}

		content := message.Content
		if content == "" {
			return "", domain.NewAIError("model returned empty response", nil)
		}
		if opts.JSONMode {
			content = ExtractJSON(content)
		}
		return content, nil
	}

	return "", domain.NewAIError(
		fmt.Sprintf("AI call failed after %d attempts", c.maxRetries), lastErr)
}

// classifyCallError decides whether a transport error is retryable, how long
// to back off, and what to surface if it is terminal.
func classifyCallError(err error, attempt int) (retryable bool, wait time.Duration, classified error) {
	base := time.Duration(1<<attempt) * time.Second

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusBadRequest:
			return false, 0, domain.NewAIError("bad request to model endpoint", err)
		case http.StatusUnauthorized:
			return false, 0, domain.NewAIError("invalid API key, check SOPHIA_API_KEY", err)
		case http.StatusTooManyRequests:
			return true, 5 * base, domain.NewAIError("model endpoint rate limited", err)
		default:
			return true, base, domain.NewAIError("model endpoint request failed", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true, base, domain.NewAIError("model endpoint request timed out", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true, base, domain.NewAIError("model endpoint request timed out", err)
	}

	return true, base, domain.NewAIError("model endpoint request failed", err)
}

func queryTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name: QueryToolName,
			Description: "Search the indexed project documents to retrieve relevant context. " +
				"Use this to find specific information from the project specification, " +
				"requirements, or any uploaded documents.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type": "string",
						"description": "The search query to find relevant information. Be specific " +
							"about what you're looking for (e.g., 'project timeline and deadlines', " +
							"'technical requirements', 'team structure and roles').",
					},
					"top_k": map[string]any{
						"type": "integer",
						"description": "Number of relevant chunks to retrieve (1-10). Use more for " +
							"comprehensive context, fewer for specific facts.",
						"default": 5,
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

type queryToolArgs struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (c *Client) executeToolCall(ctx context.Context, retriever DocumentRetriever, call openai.ToolCall) (string, error) {
	if call.Function.Name != QueryToolName {
		return fmt.Sprintf("Error: Unknown tool '%s'", call.Function.Name), nil
	}

	var args queryToolArgs
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return "", domain.NewAIError("model sent malformed tool arguments", err)
	}
	if args.TopK <= 0 {
		args.TopK = 5
	}

	items, err := retriever.Query(ctx, args.Query, args.TopK)
	if err != nil {
		return "", domain.NewAIError("tool execution failed", err)
	}

	formatted := make([]string, 0, len(items))
	for i, item := range items {
		formatted = append(formatted,
			fmt.Sprintf("[Result %d] (Relevance: %.2f)\n%s", i+1, item.Relevance, item.Text))
	}
	return strings.Join(formatted, "\n\n---\n\n"), nil
}

// ExtractJSON strips conversational wrapping from a JSON answer: code-fence
// markers are removed and the substring from the first '{' to the last '}'
// is returned.
func ExtractJSON(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")

	if start := strings.Index(response, "{"); start != -1 {
		response = response[start:]
	}
	if end := strings.LastIndex(response, "}"); end != -1 {
		response = response[:end+1]
	}

	return strings.TrimSpace(response)
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.embedder.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) != c.dimensions {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

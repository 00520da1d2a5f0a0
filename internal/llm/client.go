// Package llm implements structured-output extraction requests with
// retry/backoff, wrapping an OpenAI-compatible API.
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/rezonia/docingest/internal/model"
	"github.com/rezonia/docingest/internal/retry"
)

const (
	DefaultTimeout = 60 * time.Second

	ModelFlashClass = "anthropic/claude-3-haiku"    // STANDARD complexity
	ModelProClass   = "anthropic/claude-3.5-sonnet" // COMPLEX complexity
)

// Usage mirrors the token accounting returned by the underlying SDK.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Client is a process-wide singleton (built once at startup, passed through
// Deps) holding an HTTP connection pool; it is safe for concurrent use by
// multiple chunk-level calls in flight at once.
type Client struct {
	sdk          openai.Client
	defaultModel string
}

type clientConfig struct {
	baseURL      string
	timeout      time.Duration
	defaultModel string
}

type ClientOption func(*clientConfig)

func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) { c.baseURL = url }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) { c.timeout = d }
}

func WithDefaultModel(modelName string) ClientOption {
	return func(c *clientConfig) { c.defaultModel = modelName }
}

// NewClient builds an OpenAI-compatible client for structured extraction.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	cfg := &clientConfig{
		timeout:      DefaultTimeout,
		defaultModel: ModelFlashClass,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}),
		option.WithHeader("X-Title", "Loan Document Extraction Pipeline"),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &Client{
		sdk:          openai.NewClient(reqOpts...),
		defaultModel: cfg.defaultModel,
	}
}

// ExtractRequest is a single structured-output extraction call.
type ExtractRequest struct {
	Model          string
	SystemPrompt   string
	UserPrompt     string
	SchemaName     string
	Schema         map[string]any
}

// ExtractResponse carries the raw JSON payload plus accounting metadata the
// caller needs to detect truncation and classify errors.
type ExtractResponse struct {
	RawJSON      json.RawMessage
	Usage        Usage
	FinishReason string
}

// Extract issues one structured-output request. Temperature is pinned to
// 1.0, which the underlying service allows for schema-constrained JSON.
func (c *Client) Extract(ctx context.Context, req ExtractRequest) (ExtractResponse, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = c.defaultModel
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	params := openai.ChatCompletionNewParams{
		Model:       modelName,
		Messages:    messages,
		Temperature: param.NewOpt[float64](1.0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: req.Schema,
					Strict: param.NewOpt(true),
				},
			},
		},
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return ExtractResponse{}, classifySDKError(err)
	}
	if len(resp.Choices) == 0 {
		return ExtractResponse{}, &model.LLMFatalError{Message: "no choices in response"}
	}

	choice := resp.Choices[0]
	content := choice.Message.Content
	finishReason := choice.FinishReason

	if content == "" && finishReason == "length" {
		return ExtractResponse{}, &model.LLMTruncationError{FinishReason: finishReason}
	}

	return ExtractResponse{
		RawJSON:      json.RawMessage(content),
		FinishReason: finishReason,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// ExtractWithRetry wraps Extract in a tenacity-style retry loop: up to 3
// attempts on transient errors, 4s/8s backoff with jitter, fatal errors
// abort immediately. LLMTruncationError is always fatal: it signals the
// caller to shrink chunk size, not to retry as-is.
func (c *Client) ExtractWithRetry(ctx context.Context, req ExtractRequest) (ExtractResponse, error) {
	var resp ExtractResponse
	cfg := retry.DefaultConfig(model.IsTransientError)

	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		var err error
		resp, err = c.Extract(ctx, req)
		return err
	})
	if err != nil {
		return ExtractResponse{}, err
	}
	return resp, nil
}

// classifySDKError turns an opaque SDK error into a tagged transient/fatal
// error by substring-matching its message, since the SDK error carries no
// structured kind of its own.
func classifySDKError(err error) error {
	msg := err.Error()
	if model.IsTransientMessage(msg) {
		return &model.LLMTransientError{Message: msg, Cause: err}
	}
	return &model.LLMFatalError{Message: msg, Cause: err}
}

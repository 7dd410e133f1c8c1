package claude

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon"
)

var (
	claudePromptScope   = ctxlog.NewScope("claude_prompt", ctxlog.EnabledBy("RECKON_LOGGING_CLAUDE_PROMPT"))
	claudeResponseScope = ctxlog.NewScope("claude_response", ctxlog.EnabledBy("RECKON_LOGGING_CLAUDE_RESPONSE"))
)

const (
	DefaultModel = "claude-3-5-haiku-latest"

	// DefaultVertexModel is the model name format used by Claude on Vertex AI.
	DefaultVertexModel = "claude-3-5-haiku@20241022"
)

// generationParameters represents the parameters for text generation.
type generationParameters struct {
	// Temperature controls randomness in the output.
	Temperature float64

	// MaxTokens limits the number of tokens to generate. Claude requires it.
	MaxTokens int64
}

// Client is a reasoning engine backed by the Anthropic Messages API.
type Client struct {
	apiClient apiClient

	model        string
	baseURL      string
	systemPrompt string
	params       generationParameters
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the model. Default is DefaultModel, or DefaultVertexModel for NewWithVertex.
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.model = modelName
	}
}

// WithTemperature sets the temperature. Default is 0.
func WithTemperature(temp float64) Option {
	return func(c *Client) {
		c.params.Temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
// Default: 1024
func WithMaxTokens(maxTokens int64) Option {
	return func(c *Client) {
		c.params.MaxTokens = maxTokens
	}
}

// WithSystemPrompt sets the system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// WithBaseURL sets a custom API endpoint, e.g. a proxy.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func newClient(model string, options ...Option) *Client {
	client := &Client{
		model: model,
		params: generationParameters{
			Temperature: 0,
			MaxTokens:   1024,
		},
	}
	for _, opt := range options {
		opt(client)
	}
	return client
}

// New creates a client for the Anthropic API. An empty API key is a configuration error.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.Wrap(reckon.ErrConfigMissing, "Anthropic API key is required")
	}

	client := newClient(DefaultModel, options...)

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if client.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(client.baseURL))
	}

	anthropicClient := anthropic.NewClient(reqOpts...)
	client.apiClient = &realAPIClient{client: &anthropicClient}

	return client, nil
}

// NewWithVertex creates a client for Claude on Vertex AI, authenticated by Google application default credentials.
func NewWithVertex(ctx context.Context, region, projectID string, options ...Option) (*Client, error) {
	if region == "" {
		return nil, goerr.Wrap(reckon.ErrConfigMissing, "region is required")
	}
	if projectID == "" {
		return nil, goerr.Wrap(reckon.ErrConfigMissing, "projectID is required")
	}

	client := newClient(DefaultVertexModel, options...)

	anthropicClient := anthropic.NewClient(
		vertex.WithGoogleAuth(ctx, region, projectID),
	)
	client.apiClient = &realAPIClient{client: &anthropicClient}

	return client, nil
}

// Model returns the model name used for completions.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the prompt as a single user message and joins the returned text blocks.
func (c *Client) Complete(ctx context.Context, req *reckon.CompletionRequest) (*reckon.Completion, error) {
	params := c.createParams(req)

	if logger := ctxlog.From(ctx, claudePromptScope); logger.Enabled(ctx, slog.LevelInfo) {
		logger.Info("Claude prompt",
			"model", c.model,
			"system", c.systemPrompt,
			"stop", req.Stop,
			"prompt", req.Prompt,
		)
	}

	resp, err := c.apiClient.MessagesNew(ctx, params)
	if err != nil {
		opts := append([]goerr.Option{goerr.V("model", c.model)}, contextLengthErrorOptions(err)...)
		return nil, goerr.Wrap(err, "failed to create message", opts...)
	}

	var texts []string
	for _, content := range resp.Content {
		if content.Type == "text" {
			texts = append(texts, content.Text)
		}
	}

	completion := &reckon.Completion{
		Text:        strings.Join(texts, ""),
		Model:       string(resp.Model),
		InputToken:  int(resp.Usage.InputTokens),
		OutputToken: int(resp.Usage.OutputTokens),
	}

	if logger := ctxlog.From(ctx, claudeResponseScope); logger.Enabled(ctx, slog.LevelInfo) {
		logger.Info("Claude response",
			"model", completion.Model,
			"stop_reason", resp.StopReason,
			"text", completion.Text,
			"input_tokens", completion.InputToken,
			"output_tokens", completion.OutputToken,
		)
	}

	return completion, nil
}

func (c *Client) createParams(req *reckon.CompletionRequest) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.params.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(c.params.Temperature),
	}

	// Claude rejects stop sequences made of whitespace only
	for _, stop := range req.Stop {
		if strings.TrimSpace(stop) != "" {
			params.StopSequences = append(params.StopSequences, stop)
		}
	}

	if c.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: c.systemPrompt},
		}
	}

	return params
}

// contextLengthErrorOptions tags a 400 response whose message reports a too long prompt.
func contextLengthErrorOptions(err error) []goerr.Option {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return nil
	}

	if apiErr.StatusCode != http.StatusBadRequest {
		return nil
	}

	if strings.Contains(apiErr.Error(), "prompt is too long") {
		return []goerr.Option{goerr.Tag(reckon.ErrTagContextLength)}
	}

	return nil
}

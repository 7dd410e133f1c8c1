package ollama

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon"
	"github.com/ollama/ollama/api"
)

var (
	ollamaPromptScope   = ctxlog.NewScope("ollama_prompt", ctxlog.EnabledBy("RECKON_LOGGING_OLLAMA_PROMPT"))
	ollamaResponseScope = ctxlog.NewScope("ollama_response", ctxlog.EnabledBy("RECKON_LOGGING_OLLAMA_RESPONSE"))
)

const (
	DefaultModel   = "llama3.1:latest"
	DefaultBaseURL = "http://localhost:11434"
)

// Client is a reasoning engine backed by a local Ollama server. No API key is needed.
type Client struct {
	apiClient apiClient

	model        string
	baseURL      string
	httpClient   *http.Client
	systemPrompt string
	temperature  float64
	numPredict   int
}

// Option is a configuration option for the Ollama client.
type Option func(*Client)

// WithModel sets the model to use for text generation.
// Default: "llama3.1:latest"
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL sets the Ollama server URL.
// Default: "http://localhost:11434"
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used to reach the server.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTemperature sets the temperature parameter for text generation. Default is 0.
func WithTemperature(temp float64) Option {
	return func(c *Client) {
		c.temperature = temp
	}
}

// WithMaxTokens sets num_predict. Zero leaves the server default.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Client) {
		c.numPredict = maxTokens
	}
}

// WithSystemPrompt sets the system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

func newClient(options ...Option) *Client {
	client := &Client{
		model:      DefaultModel,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// New creates a client for an Ollama server.
func New(ctx context.Context, options ...Option) (*Client, error) {
	client := newClient(options...)

	u, err := url.Parse(client.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, goerr.Wrap(reckon.ErrConfigMissing, "invalid Ollama base URL",
			goerr.V("base_url", client.baseURL),
			goerr.V("parse_error", err),
		)
	}

	client.apiClient = api.NewClient(u, client.httpClient)
	return client, nil
}

// Model returns the model name used for completions.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the prompt to /api/generate without streaming.
func (c *Client) Complete(ctx context.Context, req *reckon.CompletionRequest) (*reckon.Completion, error) {
	stream := false
	options := map[string]any{
		"temperature": c.temperature,
	}
	if len(req.Stop) > 0 {
		options["stop"] = req.Stop
	}
	if c.numPredict > 0 {
		options["num_predict"] = c.numPredict
	}

	genReq := &api.GenerateRequest{
		Model:   c.model,
		Prompt:  req.Prompt,
		System:  c.systemPrompt,
		Stream:  &stream,
		Options: options,
	}

	if logger := ctxlog.From(ctx, ollamaPromptScope); logger.Enabled(ctx, slog.LevelInfo) {
		logger.Info("Ollama prompt",
			"model", c.model,
			"stop", req.Stop,
			"prompt", req.Prompt,
		)
	}

	var (
		text       strings.Builder
		completion = &reckon.Completion{Model: c.model}
	)
	err := c.apiClient.Generate(ctx, genReq, func(resp api.GenerateResponse) error {
		text.WriteString(resp.Response)
		if resp.Done {
			if resp.Model != "" {
				completion.Model = resp.Model
			}
			completion.InputToken = resp.PromptEvalCount
			completion.OutputToken = resp.EvalCount
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate",
			goerr.V("model", c.model),
			goerr.V("base_url", c.baseURL),
		)
	}
	completion.Text = text.String()

	if logger := ctxlog.From(ctx, ollamaResponseScope); logger.Enabled(ctx, slog.LevelInfo) {
		logger.Info("Ollama response",
			"model", completion.Model,
			"text", completion.Text,
			"input_tokens", completion.InputToken,
			"output_tokens", completion.OutputToken,
		)
	}

	return completion, nil
}

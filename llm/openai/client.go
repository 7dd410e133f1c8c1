package openai

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon"
	"github.com/sashabaranov/go-openai"
)

var (
	// openaiPromptScope is the logging scope for OpenAI prompts
	openaiPromptScope = ctxlog.NewScope("openai_prompt", ctxlog.EnabledBy("RECKON_LOGGING_OPENAI_PROMPT"))

	// openaiResponseScope is the logging scope for OpenAI responses
	openaiResponseScope = ctxlog.NewScope("openai_response", ctxlog.EnabledBy("RECKON_LOGGING_OPENAI_RESPONSE"))
)

const (
	DefaultModel     = "gpt-4o-mini"
	DefaultGroqModel = "llama-3.1-8b-instant"

	// GroqBaseURL is the OpenAI-compatible endpoint of Groq.
	GroqBaseURL = "https://api.groq.com/openai/v1"
)

// generationParameters represents the parameters for text generation.
type generationParameters struct {
	// Temperature controls randomness in the output. 0 keeps the loop reproducible.
	Temperature float32

	// TopP controls diversity via nucleus sampling.
	TopP float32

	// MaxTokens limits the number of tokens to generate.
	MaxTokens int
}

// Client is a reasoning engine backed by the OpenAI chat completion API or any compatible endpoint.
type Client struct {
	apiClient apiClient

	model   string
	baseURL string
	params  generationParameters

	// systemPrompt is sent before the prompt when not empty.
	systemPrompt string
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the model. See default model in [DefaultModel].
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.model = modelName
	}
}

// WithTemperature sets the temperature. Default is 0.
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		c.params.Temperature = temp
	}
}

// WithTopP sets the top_p parameter for text generation.
func WithTopP(topP float32) Option {
	return func(c *Client) {
		c.params.TopP = topP
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Client) {
		c.params.MaxTokens = maxTokens
	}
}

// WithSystemPrompt sets a system message sent before the prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// WithBaseURL sets the custom base URL for the API.
// Allows usage with compatible endpoints, proxies, or self-hosted instances.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithGroq points the client at Groq and uses DefaultGroqModel unless WithModel is also given.
func WithGroq() Option {
	return func(c *Client) {
		c.baseURL = GroqBaseURL
		if c.model == DefaultModel {
			c.model = DefaultGroqModel
		}
	}
}

// New creates a new client. An empty API key is a configuration error.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.Wrap(reckon.ErrConfigMissing, "OpenAI API key is required")
	}

	client := newClient(options...)

	config := openai.DefaultConfig(apiKey)
	if client.baseURL != "" {
		config.BaseURL = client.baseURL
	}
	client.apiClient = &realAPIClient{client: openai.NewClientWithConfig(config)}

	return client, nil
}

func newClient(options ...Option) *Client {
	client := &Client{
		model: DefaultModel,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Model returns the model name used for completions.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the prompt as a single user message and returns the text of the first choice.
func (c *Client) Complete(ctx context.Context, req *reckon.CompletionRequest) (*reckon.Completion, error) {
	apiReq := c.createRequest(req)
	c.logPrompt(ctx, apiReq)

	resp, err := c.apiClient.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		opts := append([]goerr.Option{goerr.V("model", c.model)}, contextLengthErrorOptions(err)...)
		return nil, goerr.Wrap(err, "failed to create chat completion", opts...)
	}

	if len(resp.Choices) == 0 {
		return nil, goerr.New("no choices in chat completion response", goerr.V("model", c.model))
	}

	completion := &reckon.Completion{
		Text:        resp.Choices[0].Message.Content,
		Model:       resp.Model,
		InputToken:  resp.Usage.PromptTokens,
		OutputToken: resp.Usage.CompletionTokens,
	}

	responseLogger := ctxlog.From(ctx, openaiResponseScope)
	if responseLogger.Enabled(ctx, slog.LevelInfo) {
		responseLogger.Info("OpenAI response",
			"model", resp.Model,
			"finish_reason", resp.Choices[0].FinishReason,
			"text", completion.Text,
			"usage", map[string]any{
				"prompt_tokens":     resp.Usage.PromptTokens,
				"completion_tokens": resp.Usage.CompletionTokens,
				"total_tokens":      resp.Usage.TotalTokens,
			},
		)
	}

	return completion, nil
}

func (c *Client) createRequest(req *reckon.CompletionRequest) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if c.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	// go-openai drops a zero temperature from the JSON body, so 0 is sent as the smallest non-zero value
	temperature := c.params.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		TopP:        c.params.TopP,
		MaxTokens:   c.params.MaxTokens,
		Stop:        req.Stop,
	}
}

// logPrompt logs the prompt if RECKON_LOGGING_OPENAI_PROMPT is enabled
func (c *Client) logPrompt(ctx context.Context, req openai.ChatCompletionRequest) {
	logger := ctxlog.From(ctx, openaiPromptScope)
	if !logger.Enabled(ctx, slog.LevelInfo) {
		return
	}

	var messages []map[string]string
	for _, msg := range req.Messages {
		messages = append(messages, map[string]string{
			"role":    msg.Role,
			"content": msg.Content,
		})
	}

	logger.Info("OpenAI prompt",
		"model", req.Model,
		"stop", req.Stop,
		"messages", messages,
	)
}

// contextLengthErrorOptions tags an *openai.APIError with code "context_length_exceeded".
func contextLengthErrorOptions(err error) []goerr.Option {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}

	if apiErr.Type != "invalid_request_error" {
		return nil
	}

	codeStr, ok := apiErr.Code.(string)
	if !ok {
		return nil
	}

	if codeStr == "context_length_exceeded" {
		return []goerr.Option{goerr.Tag(reckon.ErrTagContextLength)}
	}

	return nil
}

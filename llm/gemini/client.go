package gemini

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon"
	"google.golang.org/genai"
)

var (
	geminiPromptScope   = ctxlog.NewScope("gemini_prompt", ctxlog.EnabledBy("RECKON_LOGGING_GEMINI_PROMPT"))
	geminiResponseScope = ctxlog.NewScope("gemini_response", ctxlog.EnabledBy("RECKON_LOGGING_GEMINI_RESPONSE"))
)

const (
	DefaultModel = "gemini-2.5-flash"
)

// Client is a reasoning engine backed by Gemini, either through the Gemini API or Vertex AI.
type Client struct {
	apiClient apiClient

	model        string
	systemPrompt string

	// generationConfig holds the generation parameters. Stop sequences are set per request.
	generationConfig *genai.GenerateContentConfig
}

// Option is a configuration option for the Gemini client.
type Option func(*Client)

// WithModel sets the model to use for text generation.
// Default: "gemini-2.5-flash"
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithTemperature sets the temperature parameter for text generation. Default is 0.
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		c.generationConfig.Temperature = &temp
	}
}

// WithTopP sets the top_p parameter for text generation.
func WithTopP(topP float32) Option {
	return func(c *Client) {
		c.generationConfig.TopP = &topP
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int32) Option {
	return func(c *Client) {
		c.generationConfig.MaxOutputTokens = maxTokens
	}
}

// WithThinkingBudget sets the thinking budget for text generation.
// A value of -1 enables automatic thinking budget allocation. Default is 0.
func WithThinkingBudget(budget int32) Option {
	return func(c *Client) {
		if c.generationConfig.ThinkingConfig == nil {
			c.generationConfig.ThinkingConfig = &genai.ThinkingConfig{}
		}
		c.generationConfig.ThinkingConfig.ThinkingBudget = &budget
	}
}

// WithSystemPrompt sets the system instruction.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

func newClient(options ...Option) *Client {
	var (
		budget      int32   = 0
		temperature float32 = 0
	)

	client := &Client{
		model: DefaultModel,
		generationConfig: &genai.GenerateContentConfig{
			Temperature: &temperature,
			ThinkingConfig: &genai.ThinkingConfig{
				ThinkingBudget: &budget,
			},
		},
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// New creates a client for the Gemini API. An empty API key is a configuration error.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.Wrap(reckon.ErrConfigMissing, "Gemini API key is required")
	}

	client := newClient(options...)

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}

	client.apiClient = &realAPIClient{client: genaiClient}
	return client, nil
}

// NewWithVertex creates a client for Gemini on Vertex AI.
func NewWithVertex(ctx context.Context, projectID, location string, options ...Option) (*Client, error) {
	if projectID == "" {
		return nil, goerr.Wrap(reckon.ErrConfigMissing, "projectID is required")
	}
	if location == "" {
		return nil, goerr.Wrap(reckon.ErrConfigMissing, "location is required")
	}

	client := newClient(options...)

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Vertex AI client",
			goerr.V("project_id", projectID),
			goerr.V("location", location),
		)
	}

	client.apiClient = &realAPIClient{client: genaiClient}
	return client, nil
}

// Model returns the model name used for completions.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the prompt as a single user content and joins the text parts of the first candidate.
func (c *Client) Complete(ctx context.Context, req *reckon.CompletionRequest) (*reckon.Completion, error) {
	config := &genai.GenerateContentConfig{}
	*config = *c.generationConfig
	config.StopSequences = req.Stop

	if c.systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Role: "system",
			Parts: []*genai.Part{
				{Text: c.systemPrompt},
			},
		}
	}

	if logger := ctxlog.From(ctx, geminiPromptScope); logger.Enabled(ctx, slog.LevelInfo) {
		logger.Info("Gemini prompt",
			"model", c.model,
			"stop", req.Stop,
			"prompt", req.Prompt,
		)
	}

	resp, err := c.apiClient.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", c.model))
	}

	completion, err := toCompletion(resp, c.model)
	if err != nil {
		return nil, err
	}

	if logger := ctxlog.From(ctx, geminiResponseScope); logger.Enabled(ctx, slog.LevelInfo) {
		logger.Info("Gemini response",
			"model", completion.Model,
			"text", completion.Text,
			"input_tokens", completion.InputToken,
			"output_tokens", completion.OutputToken,
		)
	}

	return completion, nil
}

func toCompletion(resp *genai.GenerateContentResponse, model string) (*reckon.Completion, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, goerr.New("no candidates in Gemini response", goerr.V("model", model))
	}

	candidate := resp.Candidates[0]
	if strings.Contains(string(candidate.FinishReason), "PROHIBITED_CONTENT") || candidate.FinishReason == genai.FinishReasonSafety {
		return nil, goerr.New("response blocked", goerr.V("finish_reason", candidate.FinishReason))
	}

	var b strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
	}

	completion := &reckon.Completion{
		Text:  b.String(),
		Model: model,
	}
	if resp.ModelVersion != "" {
		completion.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		completion.InputToken = int(resp.UsageMetadata.PromptTokenCount)
		completion.OutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return completion, nil
}

package gemini

import "google.golang.org/genai"

type APIClient = apiClient

// NewWithAPIClient creates a client with a custom API client for testing.
func NewWithAPIClient(client apiClient, options ...Option) *Client {
	c := newClient(options...)
	c.apiClient = client
	return c
}

// GetGenerationConfig returns the generationConfig for testing
func (c *Client) GetGenerationConfig() *genai.GenerateContentConfig {
	return c.generationConfig
}

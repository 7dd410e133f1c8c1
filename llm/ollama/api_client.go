package ollama

import (
	"context"

	"github.com/ollama/ollama/api"
)

// apiClient is the interface for Ollama API calls (unexported for encapsulation)
type apiClient interface {
	Generate(ctx context.Context, req *api.GenerateRequest, fn api.GenerateResponseFunc) error
}

var _ apiClient = (*api.Client)(nil)

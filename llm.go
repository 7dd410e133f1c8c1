package reckon

import (
	"context"
	"log/slog"
)

//go:generate go run github.com/matryer/moq@v0.5.3 -out mock/mock.go -pkg mock . LLMClient Tool

// LLMClient is the reasoning engine. Each provider package under llm/ implements it.
// The agent treats it as opaque text-in/text-out.
type LLMClient interface {
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}

// CompletionRequest is a single prompt submitted to the reasoning engine.
type CompletionRequest struct {
	Prompt string

	// Stop is a list of sequences where the engine should stop generating. Providers that do not support stop sequences may ignore it.
	Stop []string
}

// LogValue returns a slog.Value for the CompletionRequest
func (r *CompletionRequest) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("prompt_length", len(r.Prompt)),
		slog.Any("stop", r.Stop),
	)
}

// Completion is the raw text returned by the reasoning engine.
type Completion struct {
	Text        string
	Model       string
	InputToken  int
	OutputToken int
}

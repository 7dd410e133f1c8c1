package main_test

import (
	"context"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reckon"
	main "github.com/m-mizutani/reckon/cmd/reckon"
	"github.com/m-mizutani/reckon/mock"
	"github.com/m-mizutani/reckon/tool/calculator"
)

// scriptedClient returns outputs in order and repeats the last one.
func scriptedClient(outputs ...string) *mock.LLMClientMock {
	var (
		mu sync.Mutex
		n  int
	)
	return &mock.LLMClientMock{
		CompleteFunc: func(ctx context.Context, req *reckon.CompletionRequest) (*reckon.Completion, error) {
			mu.Lock()
			defer mu.Unlock()
			out := outputs[min(n, len(outputs)-1)]
			n++
			return &reckon.Completion{Text: out, Model: "scripted"}, nil
		},
	}
}

func newTestFactory(t *testing.T, client reckon.LLMClient) main.AgentFactory {
	t.Helper()
	return func(transcript *reckon.Transcript, hook reckon.StepHook) (*reckon.Agent, error) {
		agent, err := reckon.New(client,
			reckon.WithTools(calculator.New()),
			reckon.WithTranscript(transcript),
			reckon.WithStepHook(hook),
		)
		gt.NoError(t, err)
		return agent, nil
	}
}

const (
	calcAction = "I need to calculate this.\nAction: Calculator\nAction Input: 2 * (25 + 5)"
	calcFinal  = "I now know the final answer.\nFinal Answer: The result is 60."
)

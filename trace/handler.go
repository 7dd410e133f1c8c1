package trace

import "context"

// Handler is the interface for trace backends.
// Implementations receive lifecycle events while the agent answers a question
// and can record, export, or forward them as needed.
type Handler interface {
	// StartRun starts the root span of one question.
	StartRun(ctx context.Context, question string) context.Context
	// EndRun ends the root span. data is nil when the run failed before producing an answer.
	EndRun(ctx context.Context, data *RunData, err error)

	// StartLLMCall starts a reasoning engine call span.
	StartLLMCall(ctx context.Context) context.Context
	// EndLLMCall ends a reasoning engine call span with the given data.
	EndLLMCall(ctx context.Context, data *LLMCallData, err error)

	// StartToolExec starts a tool execution span.
	StartToolExec(ctx context.Context, toolName string, input string) context.Context
	// EndToolExec ends a tool execution span with the result.
	EndToolExec(ctx context.Context, result string, err error)

	// AddEvent adds an event to the current span.
	AddEvent(ctx context.Context, kind string, data any)

	// Finish completes the trace and performs any final operations.
	Finish(ctx context.Context) error
}

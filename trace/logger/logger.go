package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/reckon/trace"
)

// Event represents a trace event type that can be selectively enabled.
type Event int

const (
	// Run enables logging of question start and final answer.
	Run Event = iota
	// Prompt enables logging of the full prompt sent to the reasoning engine.
	Prompt
	// Completion enables logging of the raw completion and token usage.
	Completion
	// ToolExec enables logging of tool execution (name, input, result, duration).
	ToolExec
	// Step enables logging of reasoning steps emitted via AddEvent.
	Step

	eventCount
)

type config struct {
	logger *slog.Logger
	events map[Event]bool
}

// Option configures the logger handler.
type Option func(*config)

// WithLogger sets a custom slog.Logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithEvents enables only the specified event types.
// When not specified, all events are enabled.
func WithEvents(events ...Event) Option {
	return func(c *config) {
		c.events = make(map[Event]bool, len(events))
		for _, e := range events {
			c.events[e] = true
		}
	}
}

type handler struct {
	cfg config
}

// New creates a new trace.Handler that logs trace events via slog.
func New(opts ...Option) trace.Handler {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.events == nil {
		cfg.events = make(map[Event]bool, eventCount)
		for i := Event(0); i < eventCount; i++ {
			cfg.events[i] = true
		}
	}

	return &handler{cfg: cfg}
}

func (h *handler) logger() *slog.Logger {
	if h.cfg.logger != nil {
		return h.cfg.logger
	}
	return slog.Default()
}

func (h *handler) enabled(e Event) bool {
	return h.cfg.events[e]
}

type startTimeKey struct{}

func withStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

func startTimeFrom(ctx context.Context) time.Time {
	t, _ := ctx.Value(startTimeKey{}).(time.Time)
	return t
}

type toolInfoKey struct{}

type toolInfo struct {
	name  string
	input string
}

func withToolInfo(ctx context.Context, info toolInfo) context.Context {
	return context.WithValue(ctx, toolInfoKey{}, info)
}

func toolInfoFrom(ctx context.Context) toolInfo {
	info, _ := ctx.Value(toolInfoKey{}).(toolInfo)
	return info
}

// StartRun logs the question.
func (h *handler) StartRun(ctx context.Context, question string) context.Context {
	if h.enabled(Run) {
		h.logger().InfoContext(ctx, "run started", slog.String("question", question))
	}
	return withStartTime(ctx, time.Now())
}

// EndRun logs the answer with duration and error info.
func (h *handler) EndRun(ctx context.Context, data *trace.RunData, err error) {
	if !h.enabled(Run) {
		return
	}

	attrs := []any{
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
	}
	if data != nil {
		attrs = append(attrs,
			slog.String("answer", data.Answer),
			slog.Int("iterations", data.Iterations),
			slog.Bool("completed", data.Completed),
		)
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	h.logger().InfoContext(ctx, "run ended", attrs...)
}

func (h *handler) StartLLMCall(ctx context.Context) context.Context {
	return withStartTime(ctx, time.Now())
}

// EndLLMCall logs reasoning engine call details. Prompt controls the prompt text, Completion controls
// the completion text. If either is enabled, model and token usage are always included.
func (h *handler) EndLLMCall(ctx context.Context, data *trace.LLMCallData, err error) {
	promptEnabled := h.enabled(Prompt)
	completionEnabled := h.enabled(Completion)
	if !promptEnabled && !completionEnabled {
		return
	}

	attrs := []any{
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
	}

	if data != nil {
		attrs = append(attrs,
			slog.String("model", data.Model),
			slog.Int("input_tokens", data.InputTokens),
			slog.Int("output_tokens", data.OutputTokens),
		)
		if promptEnabled {
			attrs = append(attrs, slog.String("prompt", data.Prompt))
		}
		if completionEnabled {
			attrs = append(attrs, slog.String("completion", data.Completion))
		}
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	h.logger().InfoContext(ctx, "llm call", attrs...)
}

func (h *handler) StartToolExec(ctx context.Context, toolName string, input string) context.Context {
	ctx = withStartTime(ctx, time.Now())
	return withToolInfo(ctx, toolInfo{name: toolName, input: input})
}

func (h *handler) EndToolExec(ctx context.Context, result string, err error) {
	if !h.enabled(ToolExec) {
		return
	}

	info := toolInfoFrom(ctx)
	attrs := []any{
		slog.String("tool", info.name),
		slog.String("input", info.input),
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
		slog.String("result", result),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	h.logger().InfoContext(ctx, "tool execution", attrs...)
}

// AddEvent logs a step or any other event.
func (h *handler) AddEvent(ctx context.Context, kind string, data any) {
	if !h.enabled(Step) {
		return
	}

	h.logger().InfoContext(ctx, "event",
		slog.String("kind", kind),
		slog.Any("data", data),
	)
}

// Finish is a no-op. Persistence is the Recorder's responsibility.
func (h *handler) Finish(_ context.Context) error {
	return nil
}

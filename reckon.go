package reckon

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon/trace"
)

// EarlyStopping selects how Run produces an answer when the iteration limit is reached.
type EarlyStopping int

const (
	// EarlyStopForce synthesizes an answer from the last observation or thought without calling the engine again.
	EarlyStopForce EarlyStopping = iota

	// EarlyStopGenerate makes one more engine call asking for a final answer, and falls back to EarlyStopForce when that fails.
	EarlyStopGenerate
)

// String returns the string representation of the early stopping method.
func (x EarlyStopping) String() string {
	switch x {
	case EarlyStopForce:
		return "force"
	case EarlyStopGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// ParseEarlyStopping converts "force" or "generate" into EarlyStopping.
func ParseEarlyStopping(s string) (EarlyStopping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "force":
		return EarlyStopForce, nil
	case "generate":
		return EarlyStopGenerate, nil
	default:
		return EarlyStopForce, goerr.New("unknown early stopping method", goerr.V("method", s))
	}
}

const (
	DefaultIterationLimit     = 5
	DefaultConversationWindow = 10

	// StoppedAnswer is returned when the limit is reached and nothing usable was observed.
	StoppedAnswer = "Agent stopped due to iteration limit or time limit."

	// EmptyQuestionAnswer is returned together with ErrEmptyQuestion.
	EmptyQuestionAnswer = "Please enter a question."

	generateSuffix = "\n\nI now need to return a final answer based on the previous steps:"
)

// Agent answers questions by alternating reasoning engine calls and tool calls.
// An Agent owns one Transcript and is not safe for concurrent use; create one per session.
type Agent struct {
	llm        LLMClient
	registry   *toolRegistry
	transcript *Transcript

	agentConfig
}

type agentConfig struct {
	iterationLimit     int
	earlyStopping      EarlyStopping
	conversationWindow int
	promptPrefix       string
	formatInstructions string

	tools      []Tool
	transcript *Transcript
	stepHook   StepHook
	tracer     trace.Handler
	logger     *slog.Logger
}

// Option is the type for the options of the agent.
type Option func(*agentConfig)

// WithTools adds tools to the agent. Names must be unique.
func WithTools(tools ...Tool) Option {
	return func(c *agentConfig) {
		c.tools = append(c.tools, tools...)
	}
}

// WithIterationLimit sets the maximum number of reasoning steps of one Run. Default is DefaultIterationLimit.
func WithIterationLimit(limit int) Option {
	return func(c *agentConfig) {
		c.iterationLimit = limit
	}
}

// WithEarlyStopping sets how an answer is produced when the iteration limit is reached. Default is EarlyStopForce.
func WithEarlyStopping(method EarlyStopping) Option {
	return func(c *agentConfig) {
		c.earlyStopping = method
	}
}

// WithConversationWindow sets how many previous turns of the transcript are shown to the model. 0 disables the history block.
func WithConversationWindow(n int) Option {
	return func(c *agentConfig) {
		c.conversationWindow = n
	}
}

// WithPromptPrefix replaces the opening sentence of the prompt.
func WithPromptPrefix(prefix string) Option {
	return func(c *agentConfig) {
		c.promptPrefix = prefix
	}
}

// WithFormatInstructions replaces the grammar instructions of the prompt. "{tool_names}" is substituted with the tool names.
func WithFormatInstructions(instructions string) Option {
	return func(c *agentConfig) {
		c.formatInstructions = instructions
	}
}

// WithTranscript sets the transcript the agent appends to. By default the agent starts with an empty one.
func WithTranscript(t *Transcript) Option {
	return func(c *agentConfig) {
		c.transcript = t
	}
}

// WithStepHook sets a callback called after each step. It is for display only and cannot change the loop.
// Usage:
//
//	reckon.WithStepHook(func(ctx context.Context, step reckon.Step) {
//		fmt.Println(step.Thought)
//	})
func WithStepHook(hook StepHook) Option {
	return func(c *agentConfig) {
		c.stepHook = hook
	}
}

// WithTrace sets a trace handler that receives run, engine call, tool execution and step events.
func WithTrace(h trace.Handler) Option {
	return func(c *agentConfig) {
		c.tracer = h
	}
}

// WithLogger sets the logger for the agent. Default discards all logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *agentConfig) {
		c.logger = logger
	}
}

// New creates an agent. It fails before any reasoning when the engine is missing or the tool set is invalid.
func New(llmClient LLMClient, options ...Option) (*Agent, error) {
	if llmClient == nil {
		return nil, goerr.Wrap(ErrConfigMissing, "reasoning engine is required")
	}

	cfg := agentConfig{
		iterationLimit:     DefaultIterationLimit,
		earlyStopping:      EarlyStopForce,
		conversationWindow: DefaultConversationWindow,
		stepHook:           defaultStepHook,
		logger:             defaultLogger,
	}
	for _, opt := range options {
		opt(&cfg)
	}

	if cfg.iterationLimit <= 0 {
		return nil, goerr.New("iteration limit must be positive", goerr.V("limit", cfg.iterationLimit))
	}
	if cfg.stepHook == nil {
		cfg.stepHook = defaultStepHook
	}
	if cfg.logger == nil {
		cfg.logger = defaultLogger
	}

	registry, err := buildToolRegistry(cfg.tools)
	if err != nil {
		return nil, err
	}

	transcript := cfg.transcript
	if transcript == nil {
		transcript = &Transcript{}
	}

	cfg.logger.Info("reckon agent created",
		"iteration_limit", cfg.iterationLimit,
		"early_stopping", cfg.earlyStopping.String(),
		"conversation_window", cfg.conversationWindow,
		"tools", registry.names(),
		"transcript_turns", transcript.Len(),
		"has_trace", cfg.tracer != nil,
	)

	return &Agent{
		llm:         llmClient,
		registry:    registry,
		transcript:  transcript,
		agentConfig: cfg,
	}, nil
}

// Transcript returns the transcript of the agent's session.
func (x *Agent) Transcript() *Transcript {
	return x.transcript
}

// Run answers one question. The returned Result always has a non-empty Answer, even together with an error.
// Errors are only returned for an empty question, a failing engine, or a canceled context;
// malformed output, unknown tools and tool failures are recovered inside the loop.
func (x *Agent) Run(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return &Result{Answer: EmptyQuestionAnswer}, goerr.Wrap(ErrEmptyQuestion, "failed to run agent")
	}

	ctx = ctxWithLogger(ctx, x.logger)
	logger := LoggerFromContext(ctx)

	history := x.transcript.last(x.conversationWindow)
	if err := x.transcript.Append(Turn{Role: RoleUser, Content: question}); err != nil {
		return nil, err
	}

	if x.tracer != nil {
		ctx = x.tracer.StartRun(ctx, question)
	}

	logger.Info("run started", "question", question, "history_turns", len(history))
	result, runErr := x.loop(ctx, question, history)

	if err := x.transcript.Append(Turn{Role: RoleAssistant, Content: result.Answer}); err != nil {
		return nil, err
	}

	if x.tracer != nil {
		x.tracer.EndRun(ctx, &trace.RunData{
			Answer:     result.Answer,
			Iterations: result.Iterations,
			Completed:  result.Completed,
		}, runErr)
		if err := x.tracer.Finish(ctx); err != nil {
			logger.Warn("failed to finish trace", "error", err)
		}
	}

	logger.Info("run finished",
		"iterations", result.Iterations,
		"completed", result.Completed,
		"answer", result.Answer,
	)

	return result, runErr
}

func (x *Agent) loop(ctx context.Context, question string, history []Turn) (*Result, error) {
	logger := LoggerFromContext(ctx)
	var steps []Step

	input := PromptInput{
		Prefix:             x.promptPrefix,
		FormatInstructions: x.formatInstructions,
		Tools:              x.registry.specs,
		Conversation:       history,
		Question:           question,
	}

	for len(steps) < x.iterationLimit {
		if err := ctx.Err(); err != nil {
			return x.degraded(steps), goerr.Wrap(err, "run canceled", goerr.V("iteration", len(steps)))
		}

		input.Steps = steps
		completion, err := x.complete(ctx, FormatPrompt(input))
		if err != nil {
			return x.degraded(steps), goerr.Wrap(errors.Join(ErrEngineFailure, err),
				"failed to complete prompt", goerr.V("iteration", len(steps)))
		}

		decision := ParseOutput(completion.Text)
		logger.Debug("parsed completion", "iteration", len(steps)+1, "decision", decision)

		step := x.act(ctx, decision)
		step.Index = len(steps) + 1
		steps = append(steps, step)
		x.emit(ctx, step)

		if step.Kind == StepKindFinal {
			return &Result{
				Answer:     step.FinalAnswer,
				Steps:      steps,
				Iterations: len(steps),
				Completed:  true,
			}, nil
		}
	}

	logger.Info("iteration limit reached", "limit", x.iterationLimit, "method", x.earlyStopping.String())
	return x.stop(ctx, input, steps), nil
}

// act turns a decision into a step, running the tool if one was requested.
func (x *Agent) act(ctx context.Context, decision Decision) Step {
	switch d := decision.(type) {
	case FinalDecision:
		return Step{
			Kind:        StepKindFinal,
			Thought:     d.Thought,
			FinalAnswer: d.Answer,
			Raw:         d.Raw,
		}

	case ActionDecision:
		step := Step{
			Kind:        StepKindAction,
			Thought:     d.Thought,
			Action:      d.Tool,
			ActionInput: d.Input,
			Raw:         d.Raw,
		}

		tool, ok := x.registry.lookup(d.Tool)
		if !ok {
			step.Kind = StepKindUnknownTool
			step.Observation = d.Tool + " is not a valid tool, try one of [" + strings.Join(x.registry.names(), ", ") + "]."
			LoggerFromContext(ctx).Debug("unknown tool", "tool", d.Tool, "error", ErrUnknownTool)
			return step
		}

		step.Observation = x.runTool(ctx, tool, d.Tool, d.Input)
		return step

	case InvalidDecision:
		return Step{
			Kind:    StepKindInvalidFormat,
			Thought: d.Thought,
			Observation: "Invalid format: " + d.Reason.Error() +
				". Your output did not match the expected format; retry using Thought/Action/Action Input or Thought/Final Answer.",
			Raw: d.Raw,
		}

	default:
		panic("unexpected decision type")
	}
}

func (x *Agent) runTool(ctx context.Context, tool Tool, name, input string) string {
	logger := LoggerFromContext(ctx)

	toolCtx := ctx
	if x.tracer != nil {
		toolCtx = x.tracer.StartToolExec(ctx, name, input)
	}

	output, err := tool.Run(toolCtx, input)

	if x.tracer != nil {
		x.tracer.EndToolExec(toolCtx, output, err)
	}

	if err != nil {
		logger.Warn("tool execution failed", "tool", name, "input", input, "error", err)
		return name + " failed: " + err.Error()
	}

	logger.Debug("tool executed", "tool", name, "input", input, "output_length", len(output))
	return output
}

func (x *Agent) complete(ctx context.Context, prompt string) (*Completion, error) {
	req := &CompletionRequest{
		Prompt: prompt,
		Stop:   []string{observationStop},
	}

	callCtx := ctx
	if x.tracer != nil {
		callCtx = x.tracer.StartLLMCall(ctx)
	}

	completion, err := x.llm.Complete(callCtx, req)
	if err == nil && completion == nil {
		err = goerr.New("reasoning engine returned no completion")
	}

	if x.tracer != nil {
		data := &trace.LLMCallData{
			Prompt: req.Prompt,
			Stop:   req.Stop,
		}
		if completion != nil {
			data.Model = completion.Model
			data.InputTokens = completion.InputToken
			data.OutputTokens = completion.OutputToken
			data.Completion = completion.Text
		}
		x.tracer.EndLLMCall(callCtx, data, err)
	}

	if err != nil {
		return nil, err
	}
	return completion, nil
}

// stop produces the answer once the limit is reached. The forced step is reported but not counted.
func (x *Agent) stop(ctx context.Context, input PromptInput, steps []Step) *Result {
	result := x.degraded(steps)
	// The forced step shares the index of the last counted step so the hook never sees more than the limit.
	forced := Step{
		Index:       len(steps),
		Kind:        StepKindForced,
		FinalAnswer: result.Answer,
	}

	if x.earlyStopping == EarlyStopGenerate {
		input.Steps = steps
		completion, err := x.complete(ctx, FormatPrompt(input)+generateSuffix)
		switch {
		case err != nil:
			LoggerFromContext(ctx).Warn("failed to generate final answer, falling back to forced answer", "error", err)
		default:
			if answer := generatedAnswer(completion.Text); answer != "" {
				result.Answer = answer
				forced.FinalAnswer = answer
				forced.Raw = completion.Text
			}
		}
	}

	x.emit(ctx, forced)
	return result
}

func generatedAnswer(text string) string {
	if d, ok := ParseOutput(text).(FinalDecision); ok {
		return d.Answer
	}
	return strings.TrimSpace(text)
}

// degraded builds a best-effort result from the steps taken so far.
func (x *Agent) degraded(steps []Step) *Result {
	return &Result{
		Answer:     synthesizeAnswer(steps),
		Steps:      steps,
		Iterations: len(steps),
		Completed:  false,
	}
}

// synthesizeAnswer prefers the last tool observation, then the last thought. It never returns an empty string.
func synthesizeAnswer(steps []Step) string {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Kind == StepKindAction && strings.TrimSpace(steps[i].Observation) != "" {
			return strings.TrimSpace(steps[i].Observation)
		}
	}
	for i := len(steps) - 1; i >= 0; i-- {
		if thought := strings.TrimSpace(steps[i].Thought); thought != "" {
			return thought
		}
	}
	return StoppedAnswer
}

func (x *Agent) emit(ctx context.Context, step Step) {
	LoggerFromContext(ctx).Debug("step", "step", step)
	if x.tracer != nil {
		x.tracer.AddEvent(ctx, "step", step)
	}
	notifyStep(ctx, x.stepHook, step)
}

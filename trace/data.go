package trace

// RunData holds the outcome of a run span.
type RunData struct {
	Answer     string `json:"answer"`
	Iterations int    `json:"iterations"`
	Completed  bool   `json:"completed"`
}

// LLMCallData holds data specific to a reasoning engine call span.
type LLMCallData struct {
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Model        string `json:"model,omitempty"`

	Prompt     string   `json:"prompt"`
	Stop       []string `json:"stop,omitempty"`
	Completion string   `json:"completion"`
}

// ToolExecData holds data specific to a tool execution span.
type ToolExecData struct {
	ToolName string `json:"tool_name"`
	Input    string `json:"input"`
	Result   string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// EventData holds data of an event span. Kind is defined by the emitter, e.g. "step".
// Data is any JSON-serializable value.
type EventData struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

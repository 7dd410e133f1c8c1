package reckon

import "log/slog"

// StepKind is the outcome of one THINKING cycle.
type StepKind string

const (
	// StepKindAction is a step that dispatched a tool and recorded its observation.
	StepKindAction StepKind = "action"
	// StepKindFinal is the terminal step carrying the model's Final Answer.
	StepKindFinal StepKind = "final"
	// StepKindInvalidFormat is a step whose output did not match the grammar. Its observation is a corrective message.
	StepKindInvalidFormat StepKind = "invalid_format"
	// StepKindUnknownTool is a step that named a tool outside the registered set.
	StepKindUnknownTool StepKind = "unknown_tool"
	// StepKindForced is the synthesized answer produced when the iteration limit is reached.
	StepKindForced StepKind = "forced"
)

// Step is one reasoning cycle of a single Run. Steps are surfaced to the step hook and returned in Result.
type Step struct {
	Index       int      `json:"index"`
	Kind        StepKind `json:"kind"`
	Thought     string   `json:"thought,omitempty"`
	Action      string   `json:"action,omitempty"`
	ActionInput string   `json:"action_input,omitempty"`
	Observation string   `json:"observation,omitempty"`
	FinalAnswer string   `json:"final_answer,omitempty"`

	// Raw is the unmodified completion text of the engine.
	Raw string `json:"-"`
}

// LogValue returns a slog.Value for the Step
func (x Step) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("index", x.Index),
		slog.String("kind", string(x.Kind)),
	}
	if x.Thought != "" {
		attrs = append(attrs, slog.String("thought", x.Thought))
	}
	if x.Action != "" {
		attrs = append(attrs,
			slog.String("action", x.Action),
			slog.String("action_input", x.ActionInput),
		)
	}
	if x.Observation != "" {
		attrs = append(attrs, slog.String("observation", x.Observation))
	}
	if x.FinalAnswer != "" {
		attrs = append(attrs, slog.String("final_answer", x.FinalAnswer))
	}
	return slog.GroupValue(attrs...)
}

// Result is the outcome of Run.
type Result struct {
	// Answer is the final answer text. It is never empty.
	Answer string `json:"answer"`

	// Steps are the reasoning steps counted against the iteration limit. The forced step is only sent to the hook.
	Steps []Step `json:"steps"`

	// Iterations is the number of steps taken. It never exceeds the iteration limit.
	Iterations int `json:"iterations"`

	// Completed is true when Answer came from a genuine Final Answer of the model.
	Completed bool `json:"completed"`
}

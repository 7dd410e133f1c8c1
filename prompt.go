package reckon

import (
	"fmt"
	"strings"
)

const (
	// DefaultPromptPrefix opens every prompt, before the tool listing.
	DefaultPromptPrefix = `Answer the following questions as best you can. You have access to the following tools:`

	// DefaultFormatInstructions describes the two output shapes. {tool_names} is replaced by the registered tool names.
	DefaultFormatInstructions = "To use a tool, you MUST use the following format:\n\n" +
		"```\n" +
		"Thought: Do I need to use a tool? Yes. I should use the [tool name] tool to answer this.\n" +
		"Action: the action to take, should be one of [{tool_names}]\n" +
		"Action Input: the input to the action\n" +
		"Observation: the result of the action\n" +
		"```\n\n" +
		"When you have the final answer to the user's question, or if you do not need to use a tool,\n" +
		"you MUST use the format:\n\n" +
		"```\n" +
		"Thought: Do I need to use a tool? No. I have the final answer.\n" +
		"Final Answer: [your final, detailed, and well-explained answer here]\n" +
		"```"

	// calculatorInstructions is appended when a tool named Calculator is registered.
	calculatorInstructions = "**CRITICAL INSTRUCTION**: When using the 'Calculator' tool, the 'Action Input' MUST be a pure mathematical expression and nothing else.\n" +
		"For example: `Action Input: 2 * (25 + 5)`\n" +
		"**DO NOT** write explanations in the Action Input, for example: `Action Input: Calculate 2 times 25`."

	// calculatorToolName is the tool name that enables calculatorInstructions.
	calculatorToolName = "Calculator"

	// observationStop keeps the model from writing an Observation on its own.
	observationStop = "\nObservation:"
)

// PromptInput is everything the formatter needs for one THINKING step.
type PromptInput struct {
	// Prefix overrides DefaultPromptPrefix when not empty.
	Prefix string

	// FormatInstructions overrides DefaultFormatInstructions when not empty.
	FormatInstructions string

	Tools        []ToolSpec
	Conversation []Turn
	Question     string
	Steps        []Step
}

// FormatPrompt builds the full prompt. It is a pure function of its input.
func FormatPrompt(in PromptInput) string {
	var b strings.Builder

	prefix := in.Prefix
	if prefix == "" {
		prefix = DefaultPromptPrefix
	}
	b.WriteString(prefix)
	b.WriteString("\n\n")

	names := make([]string, len(in.Tools))
	hasCalculator := false
	for i, spec := range in.Tools {
		names[i] = spec.Name
		fmt.Fprintf(&b, "%s: %s\n", spec.Name, spec.Description)
		if spec.Name == calculatorToolName {
			hasCalculator = true
		}
	}
	b.WriteString("\n")

	instructions := in.FormatInstructions
	if instructions == "" {
		instructions = DefaultFormatInstructions
	}
	b.WriteString(strings.ReplaceAll(instructions, "{tool_names}", strings.Join(names, ", ")))
	b.WriteString("\n\n")

	if hasCalculator {
		b.WriteString(calculatorInstructions)
		b.WriteString("\n\n")
	}

	if len(in.Conversation) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, turn := range in.Conversation {
			fmt.Fprintf(&b, "%s: %s\n", turnLabel(turn.Role), strings.TrimSpace(turn.Content))
		}
		b.WriteString("\n")
	}

	b.WriteString("Begin!\n\n")
	b.WriteString("Question: ")
	b.WriteString(strings.TrimSpace(in.Question))
	b.WriteString("\n")
	b.WriteString(FormatScratchpad(in.Steps))
	b.WriteString("Thought:")

	return b.String()
}

// FormatScratchpad renders prior steps of the current question in grammar form.
func FormatScratchpad(steps []Step) string {
	var b strings.Builder
	for _, step := range steps {
		switch step.Kind {
		case StepKindAction, StepKindUnknownTool:
			writeField(&b, "Thought", step.Thought)
			writeField(&b, "Action", step.Action)
			writeField(&b, "Action Input", step.ActionInput)
		case StepKindInvalidFormat:
			thought := step.Thought
			if thought == "" {
				thought = strings.TrimSpace(step.Raw)
			}
			writeField(&b, "Thought", thought)
		default:
			continue
		}
		writeField(&b, "Observation", step.Observation)
	}
	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteString(":")
	if value != "" {
		b.WriteString(" ")
		b.WriteString(value)
	}
	b.WriteString("\n")
}

func turnLabel(role Role) string {
	switch role {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(role)
	}
}

package reckon

import (
	"log/slog"
	"regexp"
	"strings"
)

// Decision is the parsed form of one completion. It is one of ActionDecision, FinalDecision or InvalidDecision.
type Decision interface {
	isDecision() restrictedValue
	LogValue() slog.Value
}

type restrictedValue struct{}

// ActionDecision asks the loop to run a tool.
type ActionDecision struct {
	Thought string
	Tool    string
	Input   string
	Raw     string
}

func (x ActionDecision) isDecision() restrictedValue { return restrictedValue{} }

func (x ActionDecision) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", "action"),
		slog.String("tool", x.Tool),
		slog.String("input", x.Input),
	)
}

// FinalDecision terminates the loop with an answer.
type FinalDecision struct {
	Thought string
	Answer  string
	Raw     string
}

func (x FinalDecision) isDecision() restrictedValue { return restrictedValue{} }

func (x FinalDecision) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", "final"),
		slog.String("answer", x.Answer),
	)
}

// InvalidDecision is a completion that did not match the grammar. Reason is one of the ErrEmpty*/ErrMissing* errors.
type InvalidDecision struct {
	Thought string
	Reason  error
	Raw     string
}

func (x InvalidDecision) isDecision() restrictedValue { return restrictedValue{} }

func (x InvalidDecision) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", "invalid"),
		slog.String("reason", x.Reason.Error()),
	)
}

var (
	finalAnswerPattern = regexp.MustCompile(`Final\s+Answer\s*:`)
	actionPattern      = regexp.MustCompile(`Action\s*\d*\s*:`)
	actionInputPattern = regexp.MustCompile(`Action\s*\d*\s*Input\s*\d*\s*:`)
	fenceLinePattern   = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z]*[ \t]*$\n?")
	trailerPattern     = regexp.MustCompile(`\n\s*(Observation|Thought)\s*:`)
)

// ParseOutput parses a raw completion. It never fails: malformed output yields an InvalidDecision.
// When a completion contains both an action and a final answer, the final answer wins.
func ParseOutput(raw string) Decision {
	text := strings.TrimSpace(fenceLinePattern.ReplaceAllString(raw, ""))
	if text == "" {
		return InvalidDecision{Reason: ErrEmptyOutput, Raw: raw}
	}

	if loc := finalAnswerPattern.FindStringIndex(text); loc != nil {
		thought := cleanThought(text[:loc[0]])
		if idx := actionPattern.FindStringIndex(thought); idx != nil {
			thought = cleanThought(thought[:idx[0]])
		}
		answer := strings.TrimSpace(text[loc[1]:])
		if answer == "" {
			return InvalidDecision{Thought: thought, Reason: ErrEmptyFinalAnswer, Raw: raw}
		}
		return FinalDecision{Thought: thought, Answer: answer, Raw: raw}
	}

	actionLoc := actionPattern.FindStringIndex(text)
	if actionLoc == nil {
		return InvalidDecision{Thought: cleanThought(text), Reason: ErrMissingAction, Raw: raw}
	}

	thought := cleanThought(text[:actionLoc[0]])
	rest := text[actionLoc[1]:]

	inputLoc := actionInputPattern.FindStringIndex(rest)
	nameEnd := len(rest)
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		nameEnd = idx
	}
	if inputLoc != nil && inputLoc[0] < nameEnd {
		nameEnd = inputLoc[0]
	}

	name := trimNoise(rest[:nameEnd], "[]", "**", "``", `""`)
	if name == "" {
		return InvalidDecision{Thought: thought, Reason: ErrMissingAction, Raw: raw}
	}
	if inputLoc == nil {
		return InvalidDecision{Thought: thought, Reason: ErrMissingActionInput, Raw: raw}
	}

	input := rest[inputLoc[1]:]
	if idx := trailerPattern.FindStringIndex(input); idx != nil {
		input = input[:idx[0]]
	}
	input = trimNoise(input, "``", `""`)
	if input == "" {
		return InvalidDecision{Thought: thought, Reason: ErrEmptyActionInput, Raw: raw}
	}

	return ActionDecision{Thought: thought, Tool: name, Input: input, Raw: raw}
}

func cleanThought(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Thought:")
	return strings.TrimSpace(s)
}

// trimNoise removes surrounding whitespace and the given enclosing pairs, but never changes the inner text.
func trimNoise(s string, pairs ...string) string {
	s = strings.TrimSpace(s)
	for trimmed := true; trimmed && len(s) >= 2; {
		trimmed = false
		for _, pair := range pairs {
			if s[0] == pair[0] && s[len(s)-1] == pair[1] {
				s = strings.TrimSpace(s[1 : len(s)-1])
				trimmed = true
				break
			}
		}
	}
	return s
}

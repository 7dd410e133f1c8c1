package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/m-mizutani/reckon"
)

const greeting = "Hi! I'm an assistant who can solve math problems and search for information. How can I help you today?"

var (
	thoughtStyle     = lipgloss.NewStyle().Faint(true).Italic(true)
	actionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	observationStyle = lipgloss.NewStyle().Faint(true).PaddingLeft(2)
	warningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	answerStyle      = lipgloss.NewStyle().Bold(true)
	promptStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)

	// maxObservationLines keeps long Wikipedia summaries collapsed in the terminal.
	maxObservationLines = 6
)

// renderStep writes a step in the collapsed form used by chat and ask --show-steps.
func renderStep(w io.Writer, step reckon.Step) {
	if step.Thought != "" {
		fmt.Fprintln(w, thoughtStyle.Render(fmt.Sprintf("[%d] %s", step.Index, step.Thought)))
	}

	switch step.Kind {
	case reckon.StepKindAction:
		fmt.Fprintln(w, actionStyle.Render(fmt.Sprintf("→ %s: %s", step.Action, step.ActionInput)))
		fmt.Fprintln(w, observationStyle.Render(collapse(step.Observation, maxObservationLines)))

	case reckon.StepKindUnknownTool, reckon.StepKindInvalidFormat:
		fmt.Fprintln(w, warningStyle.Render("! "+step.Observation))

	case reckon.StepKindForced:
		fmt.Fprintln(w, warningStyle.Render("! iteration limit reached"))
	}
}

func renderAnswer(w io.Writer, answer string) {
	fmt.Fprintln(w, answerStyle.Render(answer))
}

func collapse(s string, maxLines int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:maxLines], "\n") + fmt.Sprintf("\n… (%d more lines)", len(lines)-maxLines)
}

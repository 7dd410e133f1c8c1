package main_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reckon"
	main "github.com/m-mizutani/reckon/cmd/reckon"
)

func TestRunChat(t *testing.T) {
	client := scriptedClient(calcAction, calcFinal, "No tool needed.\nFinal Answer: You're welcome!")

	var transcript *reckon.Transcript
	factory := func(tr *reckon.Transcript, hook reckon.StepHook) (*reckon.Agent, error) {
		transcript = tr
		return newTestFactory(t, client)(tr, hook)
	}

	in := strings.NewReader("What is 2 * (25 + 5)?\n\nthanks\nexit\nnever asked\n")
	var out bytes.Buffer
	gt.NoError(t, main.RunChat(context.Background(), in, &out, factory))

	text := out.String()
	gt.S(t, text).Contains(main.Greeting)
	gt.S(t, text).Contains("Calculator: 2 * (25 + 5)")
	gt.S(t, text).Contains("The result is 60.")
	gt.S(t, text).Contains("You're welcome!")

	turns := transcript.All()
	gt.A(t, turns).Length(5)
	gt.Equal(t, main.Greeting, turns[0].Content)
	gt.Equal(t, "thanks", turns[3].Content)

	// The greeting and first exchange are shown to the model on the second question
	gt.S(t, client.CompleteCalls()[2].Req.Prompt).Contains("Previous conversation:")
	gt.Equal(t, 3, len(client.CompleteCalls()))
}

func TestRunAsk(t *testing.T) {
	t.Run("answer only", func(t *testing.T) {
		var out bytes.Buffer
		err := main.RunAsk(context.Background(), &out, newTestFactory(t, scriptedClient(calcAction, calcFinal)), "What is 2 * (25 + 5)?", false)
		gt.NoError(t, err)
		gt.S(t, out.String()).Contains("The result is 60.")
		gt.False(t, strings.Contains(out.String(), "Calculator"))
	})

	t.Run("with steps", func(t *testing.T) {
		var out bytes.Buffer
		err := main.RunAsk(context.Background(), &out, newTestFactory(t, scriptedClient(calcAction, calcFinal)), "What is 2 * (25 + 5)?", true)
		gt.NoError(t, err)
		gt.S(t, out.String()).Contains("[1] I need to calculate this.")
		gt.S(t, out.String()).Contains("[2] I now know the final answer.")
		gt.S(t, out.String()).Contains("Calculator: 2 * (25 + 5)")
		gt.S(t, out.String()).Contains("The result is 60.")
	})
}

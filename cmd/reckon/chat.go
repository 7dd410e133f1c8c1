package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Start an interactive session",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := cfg.newLogger(os.Stderr)

			rt, err := newRuntime(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := rt.shutdown(context.Background()); err != nil {
					logger.Warn("failed to shutdown tracer provider", "error", err)
				}
			}()

			return runChat(ctx, os.Stdin, os.Stdout, rt.newAgent)
		},
	}
}

// runChat reads one question per line until EOF or "exit", and prints steps and answers.
func runChat(ctx context.Context, in io.Reader, out io.Writer, newAgent agentFactory) error {
	transcript, err := reckon.NewTranscript(reckon.Turn{Role: reckon.RoleAssistant, Content: greeting})
	if err != nil {
		return err
	}

	agent, err := newAgent(transcript, func(ctx context.Context, step reckon.Step) {
		renderStep(out, step)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create agent")
	}

	renderAnswer(out, greeting)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("> "))
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		result, err := agent.Run(ctx, question)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintln(out, warningStyle.Render("error: "+err.Error()))
		}
		if result != nil {
			renderAnswer(out, result.Answer)
		}
	}

	if err := scanner.Err(); err != nil {
		return goerr.Wrap(err, "failed to read input")
	}
	return nil
}

package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a single question and exit",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "show-steps",
				Sources: cli.EnvVars("RECKON_SHOW_STEPS"),
				Usage:   "Print reasoning steps before the answer",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			question := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if question == "" {
				return goerr.Wrap(reckon.ErrEmptyQuestion, "question argument is required")
			}

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

			return runAsk(ctx, os.Stdout, rt.newAgent, question, cmd.Bool("show-steps"))
		},
	}
}

func runAsk(ctx context.Context, out io.Writer, newAgent agentFactory, question string, showSteps bool) error {
	hook := func(ctx context.Context, step reckon.Step) {}
	if showSteps {
		hook = func(ctx context.Context, step reckon.Step) {
			renderStep(out, step)
		}
	}

	agent, err := newAgent(nil, hook)
	if err != nil {
		return goerr.Wrap(err, "failed to create agent")
	}

	result, runErr := agent.Run(ctx, question)
	if result != nil {
		renderAnswer(out, result.Answer)
	}
	return runErr
}

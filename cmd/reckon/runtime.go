package main

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon"
	"github.com/m-mizutani/reckon/trace"
	"github.com/m-mizutani/reckon/trace/logger"
	reckonotel "github.com/m-mizutani/reckon/trace/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	otelTrace "go.opentelemetry.io/otel/trace"
)

// agentFactory creates a new agent bound to the given transcript and step hook.
type agentFactory func(transcript *reckon.Transcript, hook reckon.StepHook) (*reckon.Agent, error)

// runtime holds what is shared by all agents of one command invocation.
type runtime struct {
	cfg            *config
	logger         *slog.Logger
	llm            reckon.LLMClient
	tracerProvider otelTrace.TracerProvider
	shutdown       func(context.Context) error
}

func newRuntime(ctx context.Context, cfg *config, logger *slog.Logger) (*runtime, error) {
	client, err := cfg.newLLMClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create reasoning engine", goerr.V("provider", cfg.Provider))
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		llm:      client,
		shutdown: func(context.Context) error { return nil },
	}

	if cfg.OtelEndpoint != "" {
		exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OtelEndpoint))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OTLP exporter", goerr.V("endpoint", cfg.OtelEndpoint))
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		rt.tracerProvider = tp
		rt.shutdown = tp.Shutdown
	}

	return rt, nil
}

// traceHandler builds the handler for one agent. A Recorder keeps state of the current run, so each agent gets its own.
func (x *runtime) traceHandler() trace.Handler {
	handlers := []trace.Handler{
		logger.New(logger.WithLogger(x.logger)),
	}

	if x.cfg.TraceDir != "" {
		handlers = append(handlers, trace.New(
			trace.WithRepository(trace.NewFileRepository(x.cfg.TraceDir)),
			trace.WithMetadata(trace.TraceMetadata{
				Provider: x.cfg.Provider,
				Model:    x.cfg.Model,
			}),
		))
	}

	if x.tracerProvider != nil {
		handlers = append(handlers, reckonotel.New(reckonotel.WithTracerProvider(x.tracerProvider)))
	}

	if len(handlers) == 1 {
		return handlers[0]
	}
	return trace.Multi(handlers...)
}

func (x *runtime) newAgent(transcript *reckon.Transcript, hook reckon.StepHook) (*reckon.Agent, error) {
	opts := append(x.cfg.agentOptions(x.logger),
		reckon.WithTranscript(transcript),
		reckon.WithStepHook(hook),
		reckon.WithTrace(x.traceHandler()),
	)
	return reckon.New(x.llm, opts...)
}

// Package otel provides an OpenTelemetry trace handler for reckon.
//
// It bridges run, engine call, tool execution and step events to OpenTelemetry spans,
// so any OTel-compatible backend (Jaeger, Zipkin, OTLP, etc.) can show how an answer was reached.
//
//	agent, err := reckon.New(client, reckon.WithTrace(otel.New(otel.WithTracerProvider(tp))))
package otel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/reckon/trace"
	otelAPI "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/m-mizutani/reckon"
)

// Option is a functional option for configuring the OTel handler.
type Option func(*handler)

// WithTracerProvider sets an explicit TracerProvider.
// If not set, the global TracerProvider is used.
func WithTracerProvider(tp otelTrace.TracerProvider) Option {
	return func(h *handler) {
		h.tracerProvider = tp
	}
}

type handler struct {
	tracerProvider otelTrace.TracerProvider
	tracer         otelTrace.Tracer
}

// New creates a new OTel trace handler.
func New(opts ...Option) trace.Handler {
	h := &handler{}
	for _, opt := range opts {
		opt(h)
	}

	if h.tracerProvider == nil {
		h.tracerProvider = otelAPI.GetTracerProvider()
	}
	h.tracer = h.tracerProvider.Tracer(tracerName)

	return h
}

func (h *handler) StartRun(ctx context.Context, question string) context.Context {
	ctx, span := h.tracer.Start(ctx, "run",
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
	)
	span.SetAttributes(questionAttr(question))
	return ctx
}

func (h *handler) EndRun(ctx context.Context, data *trace.RunData, err error) {
	span := otelTrace.SpanFromContext(ctx)
	if data != nil {
		span.SetAttributes(
			iterationsAttr(data.Iterations),
			completedAttr(data.Completed),
		)
	}
	endSpan(span, err)
}

func (h *handler) StartLLMCall(ctx context.Context) context.Context {
	ctx, _ = h.tracer.Start(ctx, "llm_call",
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
	)
	return ctx
}

func (h *handler) EndLLMCall(ctx context.Context, data *trace.LLMCallData, err error) {
	span := otelTrace.SpanFromContext(ctx)
	if data != nil {
		span.SetAttributes(
			llmModelAttr(data.Model),
			llmInputTokensAttr(data.InputTokens),
			llmOutputTokensAttr(data.OutputTokens),
		)
	}
	endSpan(span, err)
}

func (h *handler) StartToolExec(ctx context.Context, toolName string, input string) context.Context {
	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("tool:%s", toolName),
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
	)
	span.SetAttributes(toolNameAttr(toolName), toolInputAttr(input))
	return ctx
}

func (h *handler) EndToolExec(ctx context.Context, result string, err error) {
	span := otelTrace.SpanFromContext(ctx)
	span.SetAttributes(toolResultLengthAttr(len(result)))
	endSpan(span, err)
}

func (h *handler) AddEvent(ctx context.Context, kind string, data any) {
	span := otelTrace.SpanFromContext(ctx)
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			span.AddEvent(kind, otelTrace.WithAttributes(eventDataAttr(string(b))))
			return
		}
	}
	span.AddEvent(kind)
}

// Finish is a no-op. Spans are exported by the TracerProvider's SpanProcessor.
func (h *handler) Finish(_ context.Context) error {
	return nil
}

func endSpan(span otelTrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

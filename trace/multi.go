package trace

import (
	"context"
	"errors"
)

// multiHandler fans out trace events to multiple Handler implementations.
// Each handler receives its own isolated context, so two Recorders never share a current span.
type multiHandler struct {
	handlers []Handler
}

// Multi creates a Handler that forwards all events to the given handlers.
func Multi(handlers ...Handler) Handler {
	return &multiHandler{handlers: handlers}
}

type multiCtxKey struct{}

// getContexts retrieves per-handler contexts from the context.
// If not found, returns the base context for each handler.
func (m *multiHandler) getContexts(ctx context.Context) []context.Context {
	if v, ok := ctx.Value(multiCtxKey{}).([]context.Context); ok && len(v) == len(m.handlers) {
		return v
	}
	ctxs := make([]context.Context, len(m.handlers))
	for i := range ctxs {
		ctxs[i] = ctx
	}
	return ctxs
}

func (m *multiHandler) wrapContexts(base context.Context, handlerCtxs []context.Context) context.Context {
	return context.WithValue(base, multiCtxKey{}, handlerCtxs)
}

// start runs fn for every handler with its own parent context and collects the returned contexts.
func (m *multiHandler) start(ctx context.Context, fn func(h Handler, ctx context.Context) context.Context) context.Context {
	parentCtxs := m.getContexts(ctx)
	handlerCtxs := make([]context.Context, len(m.handlers))
	for i, h := range m.handlers {
		handlerCtxs[i] = fn(h, parentCtxs[i])
	}
	return m.wrapContexts(ctx, handlerCtxs)
}

func (m *multiHandler) StartRun(ctx context.Context, question string) context.Context {
	return m.start(ctx, func(h Handler, ctx context.Context) context.Context {
		return h.StartRun(ctx, question)
	})
}

func (m *multiHandler) EndRun(ctx context.Context, data *RunData, err error) {
	ctxs := m.getContexts(ctx)
	for i, h := range m.handlers {
		h.EndRun(ctxs[i], data, err)
	}
}

func (m *multiHandler) StartLLMCall(ctx context.Context) context.Context {
	return m.start(ctx, func(h Handler, ctx context.Context) context.Context {
		return h.StartLLMCall(ctx)
	})
}

func (m *multiHandler) EndLLMCall(ctx context.Context, data *LLMCallData, err error) {
	ctxs := m.getContexts(ctx)
	for i, h := range m.handlers {
		h.EndLLMCall(ctxs[i], data, err)
	}
}

func (m *multiHandler) StartToolExec(ctx context.Context, toolName string, input string) context.Context {
	return m.start(ctx, func(h Handler, ctx context.Context) context.Context {
		return h.StartToolExec(ctx, toolName, input)
	})
}

func (m *multiHandler) EndToolExec(ctx context.Context, result string, err error) {
	ctxs := m.getContexts(ctx)
	for i, h := range m.handlers {
		h.EndToolExec(ctxs[i], result, err)
	}
}

func (m *multiHandler) AddEvent(ctx context.Context, kind string, data any) {
	ctxs := m.getContexts(ctx)
	for i, h := range m.handlers {
		h.AddEvent(ctxs[i], kind, data)
	}
}

func (m *multiHandler) Finish(ctx context.Context) error {
	var errs []error
	ctxs := m.getContexts(ctx)
	for i, h := range m.handlers {
		if err := h.Finish(ctxs[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

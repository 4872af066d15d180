package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/anoideaopen/limitless"

// TracingHandler starts the spans recorded by descriptor builds and resolver
// lookups. The engine never suspends, so spans are rooted in a background
// context unless a parent context is given.
type TracingHandler struct {
	Tracer trace.Tracer
}

// NewTracingHandler returns a handler backed by the provider tp, or by the
// global provider when tp is nil.
func NewTracingHandler(tp trace.TracerProvider) *TracingHandler {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracingHandler{Tracer: tp.Tracer(instrumentationName)}
}

// Default returns a handler backed by the global provider.
func Default() *TracingHandler {
	return NewTracingHandler(nil)
}

// StartNewSpan starts new span
func (th *TracingHandler) StartNewSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if th == nil || th.Tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return th.Tracer.Start(ctx, spanName, opts...)
}

// End closes span with a status reflecting whether the lookup succeeded.
func End(span trace.Span, found bool) {
	span.SetAttributes(Resolved(found))
	if found {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Unset, "not found")
	}
	span.End()
}

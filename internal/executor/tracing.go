// Tracing instrumentation for call execution.
package executor

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tutor-command-center/executor"

// startRunSpan starts a span covering one command's call list.
func (e *Executor) startRunSpan(ctx context.Context, calls int) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "command.execute")
	span.SetAttributes(attribute.Int("execute.calls", calls))
	return ctx, span
}

// endRunSpan ends the run span with outcome counts.
func (e *Executor) endRunSpan(span trace.Span, outcomes []Outcome, err error) {
	succeeded := 0
	for _, o := range outcomes {
		if o.OK() {
			succeeded++
		}
	}
	span.SetAttributes(
		attribute.Int("execute.attempted", len(outcomes)),
		attribute.Int("execute.succeeded", succeeded),
	)
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// startCallSpan starts a span for one tool call.
func (e *Executor) startCallSpan(ctx context.Context, tool string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "tool."+tool)
	span.SetAttributes(attribute.String("tool.name", tool))
	return ctx, span
}

// endCallSpan ends the call span.
func (e *Executor) endCallSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

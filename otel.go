// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// WithTracer configures a traced call to report OpenTelemetry spans.
//
// The call gets a "compose.pipeline" span started from ctx, with one child
// span per applied element named after the element. Failed elements record
// the error and set an error status; the pipeline span does the same when
// the call fails.
//
// Example:
//
//	tracer := otel.Tracer("reports")
//	out, _, err := p.CallTraced(input, compose.WithTracer(ctx, tracer))
func WithTracer(ctx context.Context, tracer oteltrace.Tracer) TraceOption {
	return func(opts *traceOptions) {
		if ctx == nil {
			ctx = context.Background()
		}
		opts.Tracer = tracer
		opts.SpanContext = ctx
	}
}

// spans holds the OpenTelemetry state of one traced call.
type spans struct {
	tracer oteltrace.Tracer
	ctx    context.Context
	root   oteltrace.Span
	open   []oteltrace.Span
}

func (t *trace) startRootSpan(ctx context.Context, tracer oteltrace.Tracer, p *Pipeline) {
	ctx, root := tracer.Start(ctx, "compose.pipeline",
		oteltrace.WithAttributes(
			attribute.String("compose.trace_id", t.result.ID),
			attribute.String("compose.pipeline", p.String()),
			attribute.Int("compose.length", p.Len()),
		),
	)
	t.spans = &spans{tracer: tracer, ctx: ctx, root: root}
}

func (t *trace) endRootSpan(err error) {
	if t.spans == nil {
		return
	}
	t.spans.root.SetAttributes(attribute.Int("compose.errors", t.result.TotalErrors))
	endSpan(t.spans.root, err)
}

func (t *trace) startSpan(event *TraceEvent) {
	if t.spans == nil {
		return
	}
	_, span := t.spans.tracer.Start(t.spans.ctx, event.Name,
		oteltrace.WithTimestamp(event.Start),
		oteltrace.WithAttributes(
			attribute.Int("compose.step", event.Step),
			attribute.String("compose.input", event.Input),
		),
	)
	t.spans.open = append(t.spans.open, span)
}

func (t *trace) finishSpan(idx eventIdx, err error) {
	if t.spans == nil {
		return
	}
	event := t.result.Events[idx]
	span := t.spans.open[idx]
	endSpan(span, err, oteltrace.WithTimestamp(event.Start.Add(event.Duration)))
}

func endSpan(span oteltrace.Span, err error, opts ...oteltrace.SpanEndOption) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End(opts...)
}

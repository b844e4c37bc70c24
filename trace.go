// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TraceEvent represents the application of one pipeline element.
type TraceEvent struct {
	// TraceID is the ID of the trace the event belongs to.
	TraceID string `json:"trace_id"`

	// Step is the position of the element in the pipeline.
	// Steps run from the highest position down to 0.
	Step int `json:"step"`

	// Name is the display name of the element.
	Name string `json:"name"`

	// Input is a printable form of the argument the element received.
	Input string `json:"input"`

	// Start is when the element began execution.
	Start time.Time `json:"start"`

	// Duration is how long the element took to execute.
	Duration time.Duration `json:"duration"`

	// Error is the error message if the element failed, empty otherwise.
	Error string `json:"error,omitempty"`
}

// TraceOption configures trace behavior.
type TraceOption func(*traceOptions)

// traceOptions holds configuration for tracing.
type traceOptions struct {
	// StreamTo specifies where to write events as JSON Lines during execution.
	// If nil, events are only stored in memory.
	StreamTo io.Writer

	// Logger, if set, receives a record when each element starts and finishes.
	Logger *slog.Logger
	Level  slog.Level

	// Zerolog, if set, receives the same records as Logger.
	Zerolog      *zerolog.Logger
	ZerologLevel zerolog.Level

	// TraceID overrides the generated identifier of the trace.
	TraceID string

	// Tracer, if set, receives a span per call and per element.
	Tracer      oteltrace.Tracer
	SpanContext context.Context
}

// WithStreamTo configures the trace to stream events as JSON Lines to the given writer.
//
// Events are written in JSON Lines format (one event per line) as they complete.
// This is different from [Trace.WriteTo], which outputs a single JSON document
// after execution completes.
//
// All events are retained in memory for post-execution querying.
//
// Write failures to the stream are best-effort and do not cause the call to fail.
//
// Example:
//
//	f, _ := os.Create("trace.jsonl")
//	defer f.Close()
//	out, trace, err := p.CallTraced(input, compose.WithStreamTo(f))
func WithStreamTo(w io.Writer) TraceOption {
	return func(opts *traceOptions) {
		opts.StreamTo = w
	}
}

// WithTraceID sets the identifier recorded on the trace and its events,
// for example a request ID the caller already has.
func WithTraceID(id string) TraceOption {
	return func(opts *traceOptions) {
		opts.TraceID = id
	}
}

// trace is the collection infrastructure used during a traced call.
// A trace belongs to a single call, so it needs no locking.
type trace struct {
	streamTo io.Writer
	encoder  *json.Encoder
	logger   *slog.Logger
	level    slog.Level
	zlogger  *zerolog.Logger
	zlevel   zerolog.Level
	spans    *spans
	result   *Trace
}

// Trace is the result of [Pipeline.CallTraced].
// All fields are directly accessible for querying and analysis.
type Trace struct {
	// ID identifies the call. It is a random UUID unless set with
	// [WithTraceID], and is copied into every event.
	ID string

	// Events holds one event per applied element, in execution order.
	Events []TraceEvent

	// Start is when the traced call began.
	Start time.Time

	// Duration is the total execution time of the call.
	// For filtered traces (from Filter), this is the sum of event durations.
	Duration time.Duration

	// TotalSteps is the number of elements that were applied.
	// For filtered traces (from Filter), this equals len(Events).
	TotalSteps int

	// TotalErrors is the number of elements that failed.
	TotalErrors int
}

// eventIdx is a type-safe index into the trace's event array.
type eventIdx int

// CallTraced calls the pipeline like [Pipeline.Call] and also returns a
// [Trace] with one event per applied element.
//
// The trace is returned even when the call fails; its last event then holds
// the failing element.
//
// Example:
//
//	out, trace, err := p.CallTraced(input, compose.WithSlogger(logger, slog.LevelDebug))
//	trace.WriteText(os.Stderr)
func (p *Pipeline) CallTraced(x any, opts ...TraceOption) (any, *Trace, error) {
	options := traceOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	id := options.TraceID
	if id == "" {
		id = uuid.NewString()
	}
	result := &Trace{
		ID:     id,
		Start:  time.Now(),
		Events: make([]TraceEvent, 0, len(p.elems)),
	}
	tr := &trace{
		streamTo: options.StreamTo,
		logger:   options.Logger,
		level:    options.Level,
		zlogger:  options.Zerolog,
		zlevel:   options.ZerologLevel,
		result:   result,
	}
	if tr.streamTo != nil {
		tr.encoder = json.NewEncoder(tr.streamTo)
	}
	if options.Tracer != nil {
		tr.startRootSpan(options.SpanContext, options.Tracer, p)
	}

	out, err := p.run(x, tr)
	result.Duration = time.Since(result.Start)
	tr.endRootSpan(err)

	// Flush buffered output if streaming
	if tr.streamTo != nil {
		if flusher, ok := tr.streamTo.(interface{ Flush() error }); ok {
			_ = flusher.Flush() // Best-effort
		}
	}
	return out, result, err
}

// newEvent creates a new trace event and returns its index.
//
// This should be called right before the element is applied. The returned
// index must be passed to recordFinish when the element returns.
func (t *trace) newEvent(step int, e Callable, x any) eventIdx {
	idx := len(t.result.Events)
	t.result.Events = append(t.result.Events, TraceEvent{
		TraceID: t.result.ID,
		Step:    step,
		Name:    e.Name(),
		Input:   repr(x),
		Start:   time.Now(),
	})
	t.result.TotalSteps++
	t.logStart(&t.result.Events[idx])
	t.startSpan(&t.result.Events[idx])
	return eventIdx(idx)
}

// recordFinish updates an event with its duration and error (if any).
func (t *trace) recordFinish(idx eventIdx, err error) {
	event := &t.result.Events[idx]
	event.Duration = time.Since(event.Start)
	if err != nil {
		// Record the element's own error rather than the FailureError wrapper,
		// whose context is already in the event.
		recordErr := err
		var fe *FailureError
		if errors.As(err, &fe) && fe.Err != nil {
			recordErr = fe.Err
		}
		event.Error = recordErr.Error()
		t.result.TotalErrors++
	}
	t.logFinish(event)
	t.finishSpan(idx, err)

	// Stream event if enabled (best-effort)
	if t.streamTo != nil {
		_ = t.encoder.Encode(event)
	}
}

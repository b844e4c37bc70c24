// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// WithSlogger configures a traced call to emit structured log records when
// each element starts and finishes.
//
// The records carry the element's display name as a "name" attribute, its
// position as a "step" attribute and the trace's ID as "trace_id". The finish
// record adds "duration_ms" and, when the element failed, an "error"
// attribute. If logger is nil, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	out, _, err := p.CallTraced(input, compose.WithSlogger(logger, slog.LevelInfo))
//
// This would emit records similar to:
//
//	{"level":"INFO","msg":"starting step","trace_id":"9f1c...","name":"str","step":2}
//	{"level":"INFO","msg":"finished step","trace_id":"9f1c...","name":"str","step":2,"duration_ms":0}
//	...
func WithSlogger(logger *slog.Logger, level slog.Level) TraceOption {
	return func(opts *traceOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		opts.Logger = logger
		opts.Level = level
	}
}

// WithZerolog is like [WithSlogger] for a zerolog logger. The records use
// the same messages and fields. Records below the logger's level are
// dropped by zerolog.
//
// Example:
//
//	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
//	out, _, err := p.CallTraced(input, compose.WithZerolog(logger, zerolog.DebugLevel))
func WithZerolog(logger zerolog.Logger, level zerolog.Level) TraceOption {
	return func(opts *traceOptions) {
		opts.Zerolog = &logger
		opts.ZerologLevel = level
	}
}

func (t *trace) logStart(event *TraceEvent) {
	if t.logger != nil {
		t.logger.Log(context.Background(), t.level, "starting step",
			"trace_id", event.TraceID,
			"name", event.Name,
			"step", event.Step,
		)
	}
	if t.zlogger != nil {
		t.zlogger.WithLevel(t.zlevel).
			Str("trace_id", event.TraceID).
			Str("name", event.Name).
			Int("step", event.Step).
			Msg("starting step")
	}
}

func (t *trace) logFinish(event *TraceEvent) {
	if t.logger != nil {
		attrs := []any{
			"trace_id", event.TraceID,
			"name", event.Name,
			"step", event.Step,
			"duration_ms", event.Duration.Milliseconds(),
		}
		if event.Error != "" {
			attrs = append(attrs, "error", event.Error)
		}
		t.logger.Log(context.Background(), t.level, "finished step", attrs...)
	}
	if t.zlogger != nil {
		e := t.zlogger.WithLevel(t.zlevel).
			Str("trace_id", event.TraceID).
			Str("name", event.Name).
			Int("step", event.Step).
			Int64("duration_ms", event.Duration.Milliseconds())
		if event.Error != "" {
			e = e.Str("error", event.Error)
		}
		e.Msg("finished step")
	}
}
